package spawn

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"go.uber.org/zap"

	"sprawl/pkg/config"
	"sprawl/pkg/geo"
	"sprawl/pkg/world"
)

func testRegistry() *Registry {
	return NewRegistry(config.Default(), zap.NewNop())
}

func TestSpacingIsSymmetric(t *testing.T) {
	r := testRegistry()
	for _, a := range world.Kinds {
		for _, b := range world.Kinds {
			if r.Spacing(a, b) != r.Spacing(b, a) {
				t.Errorf("spacing(%v,%v) != spacing(%v,%v)", a, b, b, a)
			}
		}
	}
	// Player vs aircraft demands the widest berth.
	pa := r.Spacing(world.KindPlayer, world.KindAircraft)
	pv := r.Spacing(world.KindPlayer, world.KindVehicle)
	if pa <= pv {
		t.Errorf("player-aircraft spacing %.1f should exceed player-vehicle %.1f", pa, pv)
	}
	// Buildings get an extra buffer against everything.
	bv := r.Spacing(world.KindBuilding, world.KindVegetation)
	vv := r.Spacing(world.KindVegetation, world.KindVegetation)
	if bv-r.clearance(world.KindBuilding) <= vv-r.clearance(world.KindVegetation) {
		t.Errorf("building buffer not applied: %.1f vs %.1f", bv, vv)
	}
}

func TestPreferredPositionWinsWhenFree(t *testing.T) {
	r := testRegistry()
	preferred := geo.V(100, 0, 100)
	got, err := r.FindSafeSpawnPosition(preferred, world.KindVehicle, 50, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != preferred {
		t.Errorf("free preferred position was moved: %v", got)
	}
}

func TestSpiralRelocatesUnderContention(t *testing.T) {
	r := testRegistry()
	preferred := geo.V(100, 0, 100)
	r.RegisterEntity(preferred, world.KindVehicle, "occupied")

	got, err := r.FindSafeSpawnPosition(preferred, world.KindVehicle, 60, 24)
	if err != nil {
		t.Fatalf("spiral search failed: %v", err)
	}
	if got == preferred {
		t.Fatal("contested preferred position returned unchanged")
	}
	if !r.IsPositionSafe(got, world.KindVehicle) {
		t.Error("relocated position is not safe")
	}
	if d := got.DistanceXZ(preferred); d > 60 {
		t.Errorf("relocation %.1f exceeds max radius", d)
	}
}

func TestContentionExhaustion(t *testing.T) {
	r := testRegistry()
	center := geo.V(0, 0, 0)
	// Saturate the area so no candidate within the tiny radius can fit.
	for x := -100.0; x <= 100; x += 10 {
		for z := -100.0; z <= 100; z += 10 {
			r.RegisterEntity(geo.V(x, 0, z), world.KindBuilding,
				world.Handle(fmt.Sprintf("b-%v-%v", x, z)))
		}
	}
	_, err := r.FindSafeSpawnPosition(center, world.KindBuilding, 20, 8)
	if !errors.Is(err, ErrContention) {
		t.Fatalf("expected ErrContention, got %v", err)
	}
	if r.Contentions != 1 {
		t.Errorf("contention counter = %d, want 1", r.Contentions)
	}
}

func TestOutOfBoundsRejected(t *testing.T) {
	r := testRegistry()
	_, err := r.FindSafeSpawnPosition(geo.V(9000, 0, 0), world.KindNPC, 50, 10)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if r.IsPositionSafe(geo.V(0, 0, -9000), world.KindNPC) {
		t.Error("position beyond world bound reported safe")
	}
}

func TestUnregisterFreesSpace(t *testing.T) {
	r := testRegistry()
	pos := geo.V(50, 0, 50)
	r.RegisterEntity(pos, world.KindBuilding, "b1")
	if r.IsPositionSafe(pos, world.KindBuilding) {
		t.Fatal("occupied position reported safe")
	}
	r.UnregisterEntity("b1")
	if !r.IsPositionSafe(pos, world.KindBuilding) {
		t.Error("position still blocked after unregister")
	}
	// Double-unregister is a no-op.
	r.UnregisterEntity("b1")
	if r.Len() != 0 {
		t.Errorf("registry length %d after unregistering all", r.Len())
	}
}

// TestNoOverlapInvariant inserts a stream of random spawn requests through
// the safe-search path and then verifies the pairwise spacing invariant
// over everything that was accepted.
func TestNoOverlapInvariant(t *testing.T) {
	r := testRegistry()
	rng := rand.New(rand.NewSource(42))
	kinds := []world.ContentKind{
		world.KindBuilding, world.KindVehicle, world.KindVegetation,
		world.KindNPC, world.KindAircraft,
	}

	accepted := 0
	for i := 0; i < 300; i++ {
		kind := kinds[rng.Intn(len(kinds))]
		preferred := geo.V(rng.Float64()*1000-500, 0, rng.Float64()*1000-500)
		pos, err := r.FindSafeSpawnPosition(preferred, kind, 80, 16)
		if err != nil {
			continue // contention: skipping is the correct fallback
		}
		r.RegisterEntity(pos, kind, world.Handle(fmt.Sprintf("h%d", i)))
		accepted++
	}
	if accepted < 50 {
		t.Fatalf("too few accepted spawns (%d) for a meaningful check", accepted)
	}

	all := r.All()
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			required := r.Spacing(all[i].Kind, all[j].Kind)
			if d := all[i].Pos.DistanceXZ(all[j].Pos); d < required {
				t.Errorf("spacing violated: %v at %v and %v at %v are %.2f apart, need %.2f",
					all[i].Kind, all[i].Pos, all[j].Kind, all[j].Pos, d, required)
			}
		}
	}
}
