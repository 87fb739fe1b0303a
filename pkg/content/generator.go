package content

import (
	"math"
	"math/rand"

	"sprawl/pkg/config"
	"sprawl/pkg/geo"
	"sprawl/pkg/placement"
	"sprawl/pkg/roads"
	"sprawl/pkg/world"
)

// Generator is the common contract for all content kinds. Implementations
// derive candidate positions inside the chunk, reject candidates against
// the road network, the water exclusion zone and the placement grid, and
// register what they accept in the grid before returning it.
//
// The RNG is owned by the caller and seeded deterministically per cell and
// layer; generators must draw all randomness from it.
type Generator interface {
	Layer() world.Layer
	Generate(coord world.ChunkCoord, net *roads.Network, grid *placement.Grid, rng *rand.Rand) []Descriptor
}

// inWater reports whether pos falls inside the configured circular
// no-build zone.
func inWater(cfg *config.Config, pos geo.Vec3) bool {
	if cfg.World.WaterRadius <= 0 {
		return false
	}
	dx := pos.X - cfg.World.WaterCenterX
	dz := pos.Z - cfg.World.WaterCenterZ
	return math.Hypot(dx, dz) < cfg.World.WaterRadius
}

// inBounds reports whether pos is inside the absolute world bound.
func inBounds(cfg *config.Config, pos geo.Vec3) bool {
	b := cfg.World.AbsoluteBound
	return math.Abs(pos.X) <= b && math.Abs(pos.Z) <= b
}

// gridCandidates walks an evenly spaced sample lattice inside the chunk,
// inset by half a step from the edges, yielding each candidate to fn.
// Returning false from fn stops the walk early (budget exhaustion).
func gridCandidates(coord world.ChunkCoord, edge, step float64, fn func(geo.Vec3) bool) {
	min := coord.Min(edge)
	for x := min.X + step/2; x < min.X+edge; x += step {
		for z := min.Z + step/2; z < min.Z+edge; z += step {
			if !fn(geo.V(x, 0, z)) {
				return
			}
		}
	}
}
