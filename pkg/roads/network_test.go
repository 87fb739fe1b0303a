package roads

import (
	"testing"

	"go.uber.org/zap"

	"sprawl/pkg/config"
	"sprawl/pkg/geo"
	"sprawl/pkg/world"
)

func testNetwork() *Network {
	return NewNetwork(config.Default(), zap.NewNop(), 12345)
}

func TestGenerateCellDeterminism(t *testing.T) {
	// (3,-2) is a lattice cell, (1,2) an off-lattice cell whose jitter
	// draws from the seeded RNG, and the origin is the hand-authored
	// spawn cell. All three must regenerate bit-identically.
	for _, coord := range []world.ChunkCoord{{X: 3, Z: -2}, {X: 1, Z: 2}, {}} {
		t.Run(coord.String(), func(t *testing.T) {
			testCellDeterminism(t, coord)
		})
	}
}

func testCellDeterminism(t *testing.T, coord world.ChunkCoord) {
	n := testNetwork()
	first := n.GenerateCell(coord)
	if len(first) == 0 {
		t.Fatal("cell generated no roads")
	}
	firstPoints := make(map[SplineID][]geo.Vec3)
	for _, id := range first {
		s, ok := n.Spline(id)
		if !ok {
			t.Fatalf("generated spline %d not found", id)
		}
		firstPoints[id] = append([]geo.Vec3(nil), s.ControlPoints...)
	}

	// Full cache reset, then regenerate: control points must match exactly.
	n.Reset()
	second := n.GenerateCell(coord)
	if len(second) != len(first) {
		t.Fatalf("regeneration produced %d splines, first run %d", len(second), len(first))
	}
	for _, id := range second {
		s, _ := n.Spline(id)
		want, ok := firstPoints[id]
		if !ok {
			t.Fatalf("regenerated spline id %d not in first run", id)
		}
		if len(s.ControlPoints) != len(want) {
			t.Fatalf("spline %d control point count changed: %d vs %d",
				id, len(s.ControlPoints), len(want))
		}
		for i := range want {
			if s.ControlPoints[i] != want[i] {
				t.Errorf("spline %d point %d differs: %v vs %v",
					id, i, s.ControlPoints[i], want[i])
			}
		}
	}
}

func TestGenerateCellIdempotent(t *testing.T) {
	n := testNetwork()
	coord := world.ChunkCoord{X: 1, Z: 1}

	first := n.GenerateCell(coord)
	count := n.RoadCount()
	if len(first) == 0 {
		t.Fatal("expected roads on first generation")
	}

	second := n.GenerateCell(coord)
	if len(second) != 0 {
		t.Errorf("second generation returned %d ids, want 0", len(second))
	}
	if n.RoadCount() != count {
		t.Errorf("road count changed on regeneration: %d vs %d", n.RoadCount(), count)
	}
}

func TestArterialLattice(t *testing.T) {
	n := testNetwork()

	// Cell (3,1): X on the period-3 lattice, Z off it. Exactly one
	// north-south arterial.
	ids := n.GenerateCell(world.ChunkCoord{X: 3, Z: 1})
	if len(ids) != 1 {
		t.Fatalf("arterial cell: expected 1 spline, got %d", len(ids))
	}
	s, _ := n.Spline(ids[0])
	if s.Class != Highway && s.Class != MainStreet {
		t.Errorf("arterial has class %v", s.Class)
	}
	if s.Start().X != s.End().X {
		t.Errorf("north-south arterial is not axis-aligned: %v -> %v", s.Start(), s.End())
	}

	// Cell (3,3) sits on both axes: two arterials crossing.
	ids = n.GenerateCell(world.ChunkCoord{X: 3, Z: 3})
	if len(ids) != 2 {
		t.Fatalf("crossing cell: expected 2 splines, got %d", len(ids))
	}

	// Off-lattice cell (1,2): diagonal side street plus two connectors.
	ids = n.GenerateCell(world.ChunkCoord{X: 1, Z: 2})
	if len(ids) != 3 {
		t.Fatalf("off-lattice cell: expected 3 splines, got %d", len(ids))
	}
	classes := map[Class]int{}
	for _, id := range ids {
		s, _ := n.Spline(id)
		classes[s.Class]++
	}
	if classes[SideStreet] != 1 || classes[Alley] != 2 {
		t.Errorf("off-lattice classes wrong: %v", classes)
	}
}

func TestAlternatingArterialClasses(t *testing.T) {
	n := testNetwork()

	a, _ := n.Spline(n.GenerateCell(world.ChunkCoord{X: 0, Z: 1})[0])
	b, _ := n.Spline(n.GenerateCell(world.ChunkCoord{X: 3, Z: 1})[0])
	if a.Class == b.Class {
		t.Errorf("consecutive arterials share class %v", a.Class)
	}
	c, _ := n.Spline(n.GenerateCell(world.ChunkCoord{X: 6, Z: 1})[0])
	if a.Class != c.Class {
		t.Errorf("alternation broken: arterial 0 is %v, arterial 2 is %v", a.Class, c.Class)
	}
}

func TestBoundaryStitching(t *testing.T) {
	n := testNetwork()

	// Two vertically adjacent arterial cells on the same lattice column.
	ids1 := n.GenerateCell(world.ChunkCoord{X: 3, Z: 1})
	ids2 := n.GenerateCell(world.ChunkCoord{X: 3, Z: 2})
	if len(ids1) != 1 || len(ids2) != 1 {
		t.Fatalf("expected single arterials, got %d and %d", len(ids1), len(ids2))
	}

	s1, _ := n.Spline(ids1[0])
	s2, _ := n.Spline(ids2[0])

	// Their shared endpoints coincide, so they link directly without a
	// connector spline.
	if !containsID(s1.Connections, s2.ID) || !containsID(s2.Connections, s1.ID) {
		t.Error("adjacent arterials not linked")
	}
	if got := len(n.CellSplines(world.ChunkCoord{X: 3, Z: 2})); got != 1 {
		t.Errorf("coincident stitch should not add connector splines, cell has %d", got)
	}

	// Boundary points were recorded on the touching edges.
	bps := n.BoundaryPoints(world.ChunkCoord{X: 3, Z: 1})
	if len(bps) != 2 {
		t.Fatalf("arterial cell should record 2 boundary points, got %d", len(bps))
	}
}

func TestSpawnCellDenser(t *testing.T) {
	n := testNetwork()
	origin := n.GenerateCell(world.ChunkCoord{})
	if len(origin) < 4 {
		t.Errorf("spawn cell should carry dense arterials, got %d splines", len(origin))
	}
	// The crossing highways meet at the cell center: an intersection must
	// have been detected there.
	xs := n.CellIntersections(world.ChunkCoord{})
	if len(xs) == 0 {
		t.Fatal("no intersections detected in spawn cell")
	}
	center := (world.ChunkCoord{}).Center(config.Default().World.ChunkEdge)
	foundCentral := false
	for _, x := range xs {
		if x.Pos.DistanceXZ(center) < 25 {
			foundCentral = true
		}
		if len(x.Roads) < 2 {
			t.Errorf("intersection %d references %d roads", x.ID, len(x.Roads))
		}
	}
	if !foundCentral {
		t.Error("no intersection near the spawn plaza center")
	}
}

func TestWorldBoundFence(t *testing.T) {
	n := testNetwork()
	// Center of cell (100,100) is way outside the 3000-unit bound.
	ids := n.GenerateCell(world.ChunkCoord{X: 100, Z: 100})
	if len(ids) != 0 {
		t.Errorf("out-of-bounds cell generated %d roads", len(ids))
	}
	if !n.Generated(world.ChunkCoord{X: 100, Z: 100}) {
		t.Error("out-of-bounds cell should still be marked generated")
	}
}

func TestIsNearRoad(t *testing.T) {
	n := testNetwork()
	coord := world.ChunkCoord{X: 3, Z: 1}
	ids := n.GenerateCell(coord)
	s, _ := n.Spline(ids[0])

	onRoad := s.PointAt(0.5)
	if !n.IsNearRoad(onRoad, 0) {
		t.Error("point on road reported off-road")
	}

	// Perpendicular offset just inside the half width passes, well outside
	// fails.
	half := s.Class.Width() / 2
	near := geo.V(onRoad.X+half-0.5, 0, onRoad.Z)
	if !n.IsNearRoad(near, 0) {
		t.Error("point within half width reported off-road")
	}
	far := geo.V(onRoad.X+half+40, 0, onRoad.Z)
	if n.IsNearRoad(far, 0) {
		t.Error("point far from road reported on-road")
	}
	// Tolerance extends the accepted band.
	if !n.IsNearRoad(far, 50) {
		t.Error("tolerance not applied")
	}
}

func TestNearestRoadPoint(t *testing.T) {
	n := testNetwork()

	// Empty network: no result.
	if _, ok := n.NearestRoadPoint(geo.V(0, 0, 0)); ok {
		t.Error("empty network returned a nearest road point")
	}

	coord := world.ChunkCoord{X: 3, Z: 1}
	ids := n.GenerateCell(coord)
	s, _ := n.Spline(ids[0])

	query := s.PointAt(0.4)
	query.X += 30
	got, ok := n.NearestRoadPoint(query)
	if !ok {
		t.Fatal("no nearest road point found")
	}
	// Sampled accuracy: the arterial is 200 long with 20 samples, so the
	// nearest sample is within half a sample step along the road.
	if got.DistanceXZ(query) > 35 {
		t.Errorf("nearest point too far: %.1f", got.DistanceXZ(query))
	}

	// Queries from a cell with no generated neighbors still answer via the
	// global fallback.
	farQuery := geo.V(5000, 0, 5000)
	if _, ok := n.NearestRoadPoint(farQuery); !ok {
		t.Error("global fallback did not find any road")
	}
}

func TestSplineLookupMissing(t *testing.T) {
	n := testNetwork()
	if _, ok := n.Spline(SplineID(0xdeadbeef)); ok {
		t.Error("lookup of unknown spline id succeeded")
	}
}

func TestSplineIDEncoding(t *testing.T) {
	a := MakeSplineID(world.ChunkCoord{X: 3, Z: -2}, 0)
	b := MakeSplineID(world.ChunkCoord{X: 3, Z: -2}, 1)
	c := MakeSplineID(world.ChunkCoord{X: -2, Z: 3}, 0)
	if a == b || a == c || b == c {
		t.Errorf("spline ids collide: %d %d %d", a, b, c)
	}
	if a.Cell() != b.Cell() {
		t.Error("same-cell splines disagree on cell key")
	}
	if a.Cell() == c.Cell() {
		t.Error("different cells share a cell key")
	}
}
