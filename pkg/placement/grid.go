// Package placement provides the shared spatial hash of occupied circles
// every content generator consults before creating anything, so that
// heterogeneous generated content never overlaps within a chunk.
package placement

import (
	"math"

	"sprawl/pkg/geo"
	"sprawl/pkg/world"
)

// Entry is one occupied circle: a generated object's footprint.
type Entry struct {
	Pos    geo.Vec3          `json:"pos"`
	Kind   world.ContentKind `json:"kind"`
	Radius float64           `json:"radius"`
}

type cellKey struct {
	x, z int32
}

// SpacingFunc returns the minimum center distance required between two
// content kinds, independent of footprint radii. The spawn registry's
// Spacing method satisfies this signature, so both layers enforce the same
// separation rule.
type SpacingFunc func(a, b world.ContentKind) float64

// Grid is a uniform spatial hash of occupied circles. The cell size is
// finer than the chunk grid (typically 4 cells per chunk edge) so that
// CanPlace only ever inspects the candidate cell and its 8 neighbors.
//
// There is no error path: callers that skip CanPlace before Add can
// produce overlaps silently. Generators always check first.
type Grid struct {
	cellSize float64
	spacing  SpacingFunc
	cells    map[cellKey][]Entry
}

// NewGrid creates an empty placement grid with the given cell size. A nil
// spacing func falls back to footprint radii alone.
func NewGrid(cellSize float64, spacing SpacingFunc) *Grid {
	return &Grid{
		cellSize: cellSize,
		spacing:  spacing,
		cells:    make(map[cellKey][]Entry),
	}
}

func (g *Grid) keyFor(pos geo.Vec3) cellKey {
	return cellKey{
		x: int32(math.Floor(pos.X / g.cellSize)),
		z: int32(math.Floor(pos.Z / g.cellSize)),
	}
}

// CanPlace reports whether a circle of the given kind and radius can be
// placed at pos. The required distance to each existing entry is the
// largest of minDistance, the combined footprint radii, and the kind-pair
// spacing rule. It scans the candidate cell and its 8 neighbors.
func (g *Grid) CanPlace(pos geo.Vec3, kind world.ContentKind, radius, minDistance float64) bool {
	center := g.keyFor(pos)
	for dx := int32(-1); dx <= 1; dx++ {
		for dz := int32(-1); dz <= 1; dz++ {
			key := cellKey{center.x + dx, center.z + dz}
			for _, e := range g.cells[key] {
				required := e.Radius + radius
				if minDistance > required {
					required = minDistance
				}
				if g.spacing != nil {
					if s := g.spacing(kind, e.Kind); s > required {
						required = s
					}
				}
				if pos.DistanceXZ(e.Pos) < required {
					return false
				}
			}
		}
	}
	return true
}

// Add registers an occupied circle. The entry lives until the owning chunk
// unloads or the object despawns individually.
func (g *Grid) Add(pos geo.Vec3, kind world.ContentKind, radius float64) {
	key := g.keyFor(pos)
	g.cells[key] = append(g.cells[key], Entry{Pos: pos, Kind: kind, Radius: radius})
}

// Remove deletes the entry at exactly pos with the given kind, if present.
// Static content never moves, so removal always hits the bucket the entry
// was inserted into.
func (g *Grid) Remove(pos geo.Vec3, kind world.ContentKind) {
	key := g.keyFor(pos)
	entries := g.cells[key]
	for i, e := range entries {
		if e.Kind == kind && e.Pos == pos {
			entries[i] = entries[len(entries)-1]
			entries = entries[:len(entries)-1]
			if len(entries) == 0 {
				delete(g.cells, key)
			} else {
				g.cells[key] = entries
			}
			return
		}
	}
}

// RemoveChunk drops every entry whose position falls inside the given
// chunk. Called when a chunk unloads.
func (g *Grid) RemoveChunk(coord world.ChunkCoord, chunkEdge float64) int {
	min := coord.Min(chunkEdge)
	maxX := min.X + chunkEdge
	maxZ := min.Z + chunkEdge

	lo := g.keyFor(min)
	hi := g.keyFor(geo.Vec3{X: maxX - 1e-9, Z: maxZ - 1e-9})

	removed := 0
	for x := lo.x; x <= hi.x; x++ {
		for z := lo.z; z <= hi.z; z++ {
			key := cellKey{x, z}
			entries := g.cells[key]
			if len(entries) == 0 {
				continue
			}
			kept := entries[:0]
			for _, e := range entries {
				inside := e.Pos.X >= min.X && e.Pos.X < maxX &&
					e.Pos.Z >= min.Z && e.Pos.Z < maxZ
				if inside {
					removed++
				} else {
					kept = append(kept, e)
				}
			}
			if len(kept) == 0 {
				delete(g.cells, key)
			} else {
				g.cells[key] = kept
			}
		}
	}
	return removed
}

// Len returns the total number of entries across all cells.
func (g *Grid) Len() int {
	n := 0
	for _, entries := range g.cells {
		n += len(entries)
	}
	return n
}
