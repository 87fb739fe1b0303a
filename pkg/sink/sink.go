// Package sink defines the boundary to the excluded engine layer. The core
// hands finished spline and descriptor data outward and receives opaque
// handles back; it never reads engine state except "does this handle exist".
package sink

import (
	"github.com/google/uuid"

	"sprawl/pkg/content"
	"sprawl/pkg/roads"
	"sprawl/pkg/world"
)

// Sink realizes generated content as engine-side objects. Implementations
// are pure consumers: the core only ever calls them, never queries back
// beyond handle liveness.
type Sink interface {
	// CreateRoad builds the visual and physics representation of a road
	// spline and returns its handle.
	CreateRoad(s *roads.Spline) world.Handle
	// CreateContent realizes a content descriptor (and its composite
	// parts) and returns the root handle. Destroying the root cascades to
	// parts inside the engine.
	CreateContent(d content.Descriptor) world.Handle
	// Destroy releases a handle. Destroying a handle the engine no longer
	// recognizes is a no-op, never an error: double-destroy legitimately
	// happens when a chunk unloads and its coordinate is reused before the
	// previous destroy settles.
	Destroy(h world.Handle)
	// Exists reports whether the engine still tracks the handle.
	Exists(h world.Handle) bool
}

// Memory is an in-process sink used by the headless simulation, the debug
// server and tests. It mints uuid handles and tracks liveness only.
type Memory struct {
	objects map[world.Handle]string
	// Destroyed counts destroy calls that hit a live handle.
	Destroyed int
	// Stale counts destroys of unknown handles, absorbed as no-ops.
	Stale int
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{objects: make(map[world.Handle]string)}
}

func (m *Memory) mint(kind string) world.Handle {
	h := world.Handle(uuid.NewString())
	m.objects[h] = kind
	return h
}

func (m *Memory) CreateRoad(s *roads.Spline) world.Handle {
	return m.mint("road/" + s.Class.String())
}

func (m *Memory) CreateContent(d content.Descriptor) world.Handle {
	return m.mint(d.Kind.String())
}

func (m *Memory) Destroy(h world.Handle) {
	if _, ok := m.objects[h]; !ok {
		m.Stale++
		return
	}
	delete(m.objects, h)
	m.Destroyed++
}

func (m *Memory) Exists(h world.Handle) bool {
	_, ok := m.objects[h]
	return ok
}

// Live returns the number of live engine objects.
func (m *Memory) Live() int {
	return len(m.objects)
}
