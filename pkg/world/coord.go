// Package world defines the spatial chunk addressing scheme and the
// per-chunk lifecycle record used by the streaming scheduler.
package world

import (
	"fmt"
	"math"

	"sprawl/pkg/geo"
)

// ChunkCoord addresses one fixed-size square cell of the world grid.
// It is an immutable value type: derive new coordinates, never mutate.
type ChunkCoord struct {
	X int32 `json:"x"`
	Z int32 `json:"z"`
}

// CoordFromWorldPos maps a world position to its containing cell by
// floor-dividing the ground-plane coordinates by the chunk edge length.
func CoordFromWorldPos(pos geo.Vec3, edge float64) ChunkCoord {
	return ChunkCoord{
		X: int32(math.Floor(pos.X / edge)),
		Z: int32(math.Floor(pos.Z / edge)),
	}
}

// Center returns the geometric center of the cell at ground level.
func (c ChunkCoord) Center(edge float64) geo.Vec3 {
	return geo.Vec3{
		X: (float64(c.X) + 0.5) * edge,
		Z: (float64(c.Z) + 0.5) * edge,
	}
}

// Min returns the corner of the cell with the smallest X and Z.
func (c ChunkCoord) Min(edge float64) geo.Vec3 {
	return geo.Vec3{
		X: float64(c.X) * edge,
		Z: float64(c.Z) * edge,
	}
}

// Offset returns the coordinate shifted by (dx, dz) cells.
func (c ChunkCoord) Offset(dx, dz int32) ChunkCoord {
	return ChunkCoord{X: c.X + dx, Z: c.Z + dz}
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Z)
}

// zigzag maps a signed 32-bit value onto the unsigned range so that small
// magnitudes of either sign pack into few bits.
func zigzag(v int32) uint64 {
	return uint64(uint32((v << 1) ^ (v >> 31)))
}

// Pack encodes the coordinate into a single 64-bit key with each axis
// zig-zag encoded into 24 bits. Identifiers derived per cell (road splines,
// intersections) build on this key so they are globally unique without any
// cross-cell counter.
func (c ChunkCoord) Pack() uint64 {
	return (zigzag(c.X)&0xFFFFFF)<<24 | (zigzag(c.Z) & 0xFFFFFF)
}
