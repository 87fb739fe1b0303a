package content

import (
	"math/rand"

	"sprawl/pkg/config"
	"sprawl/pkg/geo"
	"sprawl/pkg/placement"
	"sprawl/pkg/roads"
	"sprawl/pkg/world"
)

const buildingSampleStep = 28.0

// BuildingGenerator places buildings on a jittered sample lattice, kept
// clear of roads, water and anything already in the placement grid.
type BuildingGenerator struct {
	cfg *config.Config
}

// NewBuildingGenerator creates the building generator.
func NewBuildingGenerator(cfg *config.Config) *BuildingGenerator {
	return &BuildingGenerator{cfg: cfg}
}

func (g *BuildingGenerator) Layer() world.Layer {
	return world.LayerBuildings
}

func (g *BuildingGenerator) Generate(coord world.ChunkCoord, net *roads.Network, grid *placement.Grid, rng *rand.Rand) []Descriptor {
	rate := g.cfg.Spawns.Rate(world.KindBuilding.String())
	clearance := g.cfg.Spawns.Clearance(world.KindBuilding.String())
	roadClear := g.cfg.Spawns.RoadClearance
	edge := g.cfg.World.ChunkEdge

	var out []Descriptor
	gridCandidates(coord, edge, buildingSampleStep, func(base geo.Vec3) bool {
		// Per-candidate density gate first, so the RNG draw count per
		// candidate stays fixed and the sequence deterministic.
		roll := rng.Float64()
		jx := (rng.Float64() - 0.5) * buildingSampleStep * 0.5
		jz := (rng.Float64() - 0.5) * buildingSampleStep * 0.5
		sizeRoll := rng.Float64()
		if roll >= rate {
			return true
		}

		pos := geo.V(base.X+jx, 0, base.Z+jz)
		if !inBounds(g.cfg, pos) || inWater(g.cfg, pos) {
			return true
		}
		if net.IsNearRoad(pos, roadClear+clearance) {
			return true
		}
		if !grid.CanPlace(pos, world.KindBuilding, clearance, 0) {
			return true
		}

		size := SizeSmall
		switch {
		case sizeRoll > 0.85:
			size = SizeLarge
		case sizeRoll > 0.5:
			size = SizeMedium
		}

		// Face the nearest road so entrances make sense.
		heading := 0.0
		if roadPt, ok := net.NearestRoadPoint(pos); ok {
			heading = pos.HeadingTo(roadPt)
		}

		grid.Add(pos, world.KindBuilding, clearance)
		out = append(out, Descriptor{
			Kind:    world.KindBuilding,
			Pos:     pos,
			Heading: heading,
			Size:    size,
			Radius:  clearance,
		})
		return true
	})
	return out
}
