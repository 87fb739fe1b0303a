package content

import (
	"math/rand"

	"sprawl/pkg/config"
	"sprawl/pkg/geo"
	"sprawl/pkg/placement"
	"sprawl/pkg/roads"
	"sprawl/pkg/world"
)

const vegetationSampleStep = 16.0

// VegetationGenerator scatters trees and shrubs over the chunk on a finer
// lattice than buildings, with the same road and water clearances.
type VegetationGenerator struct {
	cfg *config.Config
}

// NewVegetationGenerator creates the vegetation generator.
func NewVegetationGenerator(cfg *config.Config) *VegetationGenerator {
	return &VegetationGenerator{cfg: cfg}
}

func (g *VegetationGenerator) Layer() world.Layer {
	return world.LayerVegetation
}

func (g *VegetationGenerator) Generate(coord world.ChunkCoord, net *roads.Network, grid *placement.Grid, rng *rand.Rand) []Descriptor {
	rate := g.cfg.Spawns.Rate(world.KindVegetation.String())
	clearance := g.cfg.Spawns.Clearance(world.KindVegetation.String())
	roadClear := g.cfg.Spawns.RoadClearance
	edge := g.cfg.World.ChunkEdge

	var out []Descriptor
	gridCandidates(coord, edge, vegetationSampleStep, func(base geo.Vec3) bool {
		roll := rng.Float64()
		jx := (rng.Float64() - 0.5) * vegetationSampleStep * 0.8
		jz := (rng.Float64() - 0.5) * vegetationSampleStep * 0.8
		sizeRoll := rng.Float64()
		headingRoll := rng.Float64()
		if roll >= rate {
			return true
		}

		pos := geo.V(base.X+jx, 0, base.Z+jz)
		if !inBounds(g.cfg, pos) || inWater(g.cfg, pos) {
			return true
		}
		if net.IsNearRoad(pos, roadClear) {
			return true
		}
		if !grid.CanPlace(pos, world.KindVegetation, clearance, 0) {
			return true
		}

		size := SizeSmall
		switch {
		case sizeRoll > 0.9:
			size = SizeLarge
		case sizeRoll > 0.6:
			size = SizeMedium
		}

		grid.Add(pos, world.KindVegetation, clearance)
		out = append(out, Descriptor{
			Kind:    world.KindVegetation,
			Pos:     pos,
			Heading: headingRoll * 6.28318,
			Size:    size,
			Radius:  clearance,
		})
		return true
	})
	return out
}
