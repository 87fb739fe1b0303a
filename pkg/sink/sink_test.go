package sink

import (
	"testing"

	"sprawl/pkg/content"
	"sprawl/pkg/geo"
	"sprawl/pkg/roads"
	"sprawl/pkg/world"
)

func TestMemorySinkLifecycle(t *testing.T) {
	m := NewMemory()

	s := &roads.Spline{
		ID:            1,
		Class:         roads.MainStreet,
		ControlPoints: []geo.Vec3{geo.V(0, 0, 0), geo.V(10, 0, 0)},
	}
	h1 := m.CreateRoad(s)
	h2 := m.CreateContent(content.Descriptor{Kind: world.KindBuilding})

	if h1 == h2 {
		t.Fatal("sink minted duplicate handles")
	}
	if !m.Exists(h1) || !m.Exists(h2) {
		t.Fatal("fresh handles not tracked")
	}
	if m.Live() != 2 {
		t.Fatalf("live count = %d, want 2", m.Live())
	}

	m.Destroy(h1)
	if m.Exists(h1) {
		t.Error("destroyed handle still exists")
	}
	if m.Destroyed != 1 {
		t.Errorf("destroyed count = %d, want 1", m.Destroyed)
	}
}

func TestDestroyStaleHandleIsNoOp(t *testing.T) {
	m := NewMemory()
	h := m.CreateContent(content.Descriptor{Kind: world.KindVehicle})

	m.Destroy(h)
	m.Destroy(h) // double destroy must be absorbed
	m.Destroy("never-existed")

	if m.Stale != 2 {
		t.Errorf("stale count = %d, want 2", m.Stale)
	}
	if m.Destroyed != 1 {
		t.Errorf("destroyed count = %d, want 1", m.Destroyed)
	}
}
