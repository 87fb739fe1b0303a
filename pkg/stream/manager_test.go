package stream

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"sprawl/pkg/config"
	"sprawl/pkg/geo"
	"sprawl/pkg/placement"
	"sprawl/pkg/roads"
	"sprawl/pkg/sink"
	"sprawl/pkg/spawn"
	"sprawl/pkg/world"
)

func testManager(cfg *config.Config) (*Manager, *sink.Memory) {
	log := zap.NewNop()
	net := roads.NewNetwork(cfg, log, 7)
	reg := spawn.NewRegistry(cfg, log)
	grid := placement.NewGrid(cfg.Streaming.PlacementCell, reg.Spacing)
	out := sink.NewMemory()
	return NewManager(cfg, log, net, grid, reg, out, 7), out
}

// settle runs ticks until load selection stagnates: a tick that picks up
// no new chunk and leaves none loading means the whole disk around pos is
// resident. Checking only for an empty loading set is not enough, since
// the per-tick budget drains it between selection waves. Bounded to avoid
// spinning forever on a regression.
func settle(t *testing.T, m *Manager, pos geo.Vec3, maxTicks int) {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		before := m.Stats().Loads
		m.Tick(pos)
		if m.Stats().Loads == before &&
			m.CountState(world.StateLoading) == 0 {
			return
		}
	}
	t.Fatalf("world did not settle after %d ticks (loading=%d)",
		maxTicks, m.CountState(world.StateLoading))
}

func TestInitialDiskPopulation(t *testing.T) {
	cfg := config.Default()
	m, _ := testManager(cfg)
	origin := geo.V(0, 0, 0)

	// Count the cells whose center lies within the streaming radius.
	expected := 0
	edge := cfg.World.ChunkEdge
	for x := int32(-8); x <= 8; x++ {
		for z := int32(-8); z <= 8; z++ {
			c := world.ChunkCoord{X: x, Z: z}
			if c.Center(edge).DistanceXZ(origin) <= cfg.Streaming.Radius {
				expected++
			}
		}
	}
	if expected < 40 || expected > 60 {
		t.Fatalf("sanity: expected ~50 cells in the disk, computed %d", expected)
	}

	// First tick transitions exactly the load budget.
	m.Tick(origin)
	total := m.CountState(world.StateLoading) + m.CountState(world.StateLoaded)
	if total != cfg.Streaming.LoadsPerTick {
		t.Fatalf("first tick touched %d chunks, budget is %d",
			total, cfg.Streaming.LoadsPerTick)
	}

	// The whole disk needs ceil(expected/budget) ticks of load selection.
	needed := (expected + cfg.Streaming.LoadsPerTick - 1) / cfg.Streaming.LoadsPerTick
	for i := 1; i < needed; i++ {
		m.Tick(origin)
	}
	touched := m.CountState(world.StateLoading) + m.CountState(world.StateLoaded)
	if touched != expected {
		t.Errorf("after %d ticks %d chunks touched, want %d", needed, touched, expected)
	}

	// A few more ticks finish generation.
	settle(t, m, origin, 20)
	if got := m.CountState(world.StateLoaded); got != expected {
		t.Errorf("loaded %d chunks, want %d", got, expected)
	}
}

func TestLoadBudgetUnderTeleport(t *testing.T) {
	cfg := config.Default()
	m, _ := testManager(cfg)

	settle(t, m, geo.V(0, 0, 0), 60)

	// Teleport far away: hundreds of cells cross the threshold at once,
	// but per-tick deltas stay within the budgets.
	target := geo.V(2200, 0, 2200)
	for i := 0; i < 40; i++ {
		before := m.Stats()
		m.Tick(target)
		after := m.Stats()
		if loads := after.Loads - before.Loads; loads > uint64(cfg.Streaming.LoadsPerTick) {
			t.Fatalf("tick %d exceeded load budget: %d", i, loads)
		}
		if unloads := after.Unloads - before.Unloads; unloads > uint64(cfg.Streaming.UnloadsPerTick) {
			t.Fatalf("tick %d exceeded unload budget: %d", i, unloads)
		}
	}
}

func TestStreamingHysteresis(t *testing.T) {
	cfg := config.Default()
	m, _ := testManager(cfg)

	// Pick a chunk whose center sits exactly at the streaming radius when
	// the player stands at the origin: cell (3,0) has center x=700; put
	// the player so the distance is exactly R.
	coord := world.ChunkCoord{X: 3, Z: 0}
	center := coord.Center(cfg.World.ChunkEdge)
	base := geo.V(center.X-cfg.Streaming.Radius, 0, center.Z)

	settle(t, m, base, 80)
	c, ok := m.Chunk(coord)
	if !ok || c.State != world.StateLoaded {
		t.Fatalf("boundary chunk not loaded (ok=%v)", ok)
	}

	// Oscillate by strictly less than R*0.2: the chunk must not unload,
	// because the unload threshold is R*1.2.
	wiggle := cfg.Streaming.Radius * 0.19
	for i := 0; i < 30; i++ {
		off := wiggle
		if i%2 == 0 {
			off = -wiggle
		}
		m.Tick(geo.V(base.X+off, 0, base.Z))
		c, ok := m.Chunk(coord)
		if !ok {
			t.Fatalf("tick %d: boundary chunk unloaded inside hysteresis band", i)
		}
		if c.State != world.StateLoaded {
			t.Fatalf("tick %d: boundary chunk flapped to %v", i, c.State)
		}
	}

	// Moving beyond the hysteresis band does unload it eventually.
	far := geo.V(base.X-cfg.Streaming.Radius, 0, base.Z)
	for i := 0; i < 80; i++ {
		m.Tick(far)
	}
	if _, ok := m.Chunk(coord); ok {
		t.Error("chunk beyond hysteresis radius never unloaded")
	}
}

func TestUnloadReleasesEverything(t *testing.T) {
	cfg := config.Default()
	m, out := testManager(cfg)
	origin := geo.V(0, 0, 0)

	settle(t, m, origin, 60)
	if out.Live() == 0 {
		t.Fatal("no engine objects created")
	}

	// Walk far enough that the original disk fully unloads.
	away := geo.V(2800, 0, 0)
	for i := 0; i < 200; i++ {
		m.Tick(away)
	}

	if c, ok := m.Chunk(world.ChunkCoord{}); ok {
		t.Errorf("origin chunk still tracked in state %v", c.State)
	}
	snap := m.Snapshot()
	for _, ci := range snap.Chunks {
		d := (world.ChunkCoord{X: ci.X, Z: ci.Z}).Center(cfg.World.ChunkEdge).DistanceXZ(away)
		if d > cfg.Streaming.Radius*cfg.Streaming.UnloadFactor {
			t.Errorf("chunk (%d,%d) at distance %.0f survived unload", ci.X, ci.Z, d)
		}
	}
	if out.Stale != 0 {
		t.Errorf("unload produced %d stale destroys", out.Stale)
	}
}

func TestLayerOrderGated(t *testing.T) {
	cfg := config.Default()
	// Zero time budget: exactly one layer advances per tick, so the layer
	// order becomes observable tick by tick.
	cfg.Streaming.GenBudgetMillis = 0
	cfg.Streaming.LoadsPerTick = 1
	m, _ := testManager(cfg)

	// Keep only one chunk in range to isolate the progression.
	cfg.Streaming.Radius = 100
	pos := (world.ChunkCoord{}).Center(cfg.World.ChunkEdge)

	m.Tick(pos) // selects the chunk and runs the roads layer
	c, ok := m.Chunk(world.ChunkCoord{})
	if !ok {
		t.Fatal("chunk not selected")
	}
	if !c.LayerDone(world.LayerRoads) {
		t.Fatal("roads layer did not run first")
	}
	if c.LayerDone(world.LayerBuildings) {
		t.Fatal("buildings ran in the same zero-budget tick as roads")
	}

	m.Tick(pos)
	if !c.LayerDone(world.LayerBuildings) || c.LayerDone(world.LayerVehicles) {
		t.Fatal("buildings layer did not run second")
	}
	m.Tick(pos)
	if !c.LayerDone(world.LayerVehicles) || c.LayerDone(world.LayerVegetation) {
		t.Fatal("vehicles layer did not run third")
	}
	m.Tick(pos)
	if !c.LayerDone(world.LayerVegetation) {
		t.Fatal("vegetation layer did not run fourth")
	}
	if c.State != world.StateLoaded {
		t.Fatalf("chunk not loaded after all layers, state %v", c.State)
	}
	if m.Stats().BudgetStops == 0 {
		t.Error("zero budget never tripped the budget stop")
	}
}

func TestWorldBoundFenceInScheduler(t *testing.T) {
	cfg := config.Default()
	m, _ := testManager(cfg)

	// Standing at the world edge: cells beyond the bound never load.
	pos := geo.V(cfg.World.AbsoluteBound, 0, 0)
	for i := 0; i < 120; i++ {
		m.Tick(pos)
	}
	snap := m.Snapshot()
	for _, ci := range snap.Chunks {
		center := (world.ChunkCoord{X: ci.X, Z: ci.Z}).Center(cfg.World.ChunkEdge)
		if center.X > cfg.World.AbsoluteBound || center.Z > cfg.World.AbsoluteBound {
			t.Errorf("chunk (%d,%d) beyond the world bound was loaded", ci.X, ci.Z)
		}
	}
}

func TestLODAssignedByDistance(t *testing.T) {
	cfg := config.Default()
	m, _ := testManager(cfg)
	origin := geo.V(0, 0, 0)
	settle(t, m, origin, 60)

	snap := m.Snapshot()
	for _, ci := range snap.Chunks {
		if ci.State != "loaded" {
			continue
		}
		want := 0
		for i, limit := range cfg.LOD.Thresholds {
			if ci.Distance <= limit {
				want = i
				break
			}
			want = len(cfg.LOD.Thresholds) - 1
		}
		if ci.LOD != want {
			t.Errorf("chunk (%d,%d) at %.0f has LOD %d, want %d",
				ci.X, ci.Z, ci.Distance, ci.LOD, want)
		}
	}
}

func TestSchedulerKeepsRegistrySpacing(t *testing.T) {
	cfg := config.Default()
	m, _ := testManager(cfg)

	// Stream the full disk around the origin, then walk a short diagonal
	// so neighboring waves of chunks generate against each other.
	settle(t, m, geo.V(0, 0, 0), 60)
	for i := 0; i < 40; i++ {
		m.Tick(geo.V(float64(i)*15, 0, float64(i)*10))
	}

	entries := m.registry.All()
	if len(entries) < 200 {
		t.Fatalf("only %d entities registered, streaming produced too little", len(entries))
	}
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			need := m.registry.Spacing(a.Kind, b.Kind)
			if got := a.Pos.DistanceXZ(b.Pos); got < need {
				t.Fatalf("%v at %v and %v at %v are %.2f apart, spacing requires %.2f",
					a.Kind, a.Pos, b.Kind, b.Pos, got, need)
			}
		}
	}
}

func TestGenerationBudgetClock(t *testing.T) {
	cfg := config.Default()
	cfg.Streaming.GenBudgetMillis = 4
	m, _ := testManager(cfg)

	// Frozen clock: budget never trips, every selected chunk finishes all
	// layers in its first generation tick.
	frozen := time.Now()
	m.now = func() time.Time { return frozen }

	pos := geo.V(0, 0, 0)
	m.Tick(pos)
	if m.Stats().BudgetStops != 0 {
		t.Error("frozen clock tripped the generation budget")
	}
	if m.CountState(world.StateLoading) != 0 {
		t.Error("chunks left loading despite unlimited effective budget")
	}
}
