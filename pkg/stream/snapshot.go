package stream

import (
	"sort"

	"sprawl/pkg/world"
)

// ChunkInfo is the observer-facing view of one tracked chunk.
type ChunkInfo struct {
	X        int32   `json:"x"`
	Z        int32   `json:"z"`
	State    string  `json:"state"`
	LOD      int     `json:"lod"`
	Handles  int     `json:"handles"`
	Distance float64 `json:"distance"`
}

// Snapshot is the full observer view of the streaming state for one tick.
type Snapshot struct {
	Tick          uint64      `json:"tick"`
	Chunks        []ChunkInfo `json:"chunks"`
	Roads         int         `json:"roads"`
	Intersections int         `json:"intersections"`
	Placements    int         `json:"placements"`
	Entities      int         `json:"entities"`
	Contentions   int         `json:"contentions"`
	Stats         Stats       `json:"stats"`
}

// Snapshot captures the current streaming state for the debug observer.
// Read-only: it walks the same query surface external consumers use.
func (m *Manager) Snapshot() Snapshot {
	chunks := make([]ChunkInfo, 0, len(m.chunks))
	for _, c := range m.chunks {
		chunks = append(chunks, ChunkInfo{
			X:        c.Coord.X,
			Z:        c.Coord.Z,
			State:    c.State.String(),
			LOD:      c.LOD,
			Handles:  len(c.Handles),
			Distance: c.Distance,
		})
	}
	sort.Slice(chunks, func(i, j int) bool {
		a := world.ChunkCoord{X: chunks[i].X, Z: chunks[i].Z}
		b := world.ChunkCoord{X: chunks[j].X, Z: chunks[j].Z}
		return a.Pack() < b.Pack()
	})

	return Snapshot{
		Tick:          m.tick,
		Chunks:        chunks,
		Roads:         m.net.RoadCount(),
		Intersections: m.net.IntersectionCount(),
		Placements:    m.grid.Len(),
		Entities:      m.registry.Len(),
		Contentions:   m.registry.Contentions,
		Stats:         m.stats,
	}
}
