package content

import (
	"math/rand"

	"sprawl/pkg/config"
	"sprawl/pkg/placement"
	"sprawl/pkg/roads"
	"sprawl/pkg/world"
)

// RoadGenerator is the first generation layer: it drives the road network's
// per-cell generation, emits one descriptor per new spline for the sink to
// mesh, and carves intersection voids into the placement grid so later
// layers keep junctions clear.
type RoadGenerator struct {
	cfg *config.Config
	net *roads.Network
}

// NewRoadGenerator creates the road layer generator bound to a network.
func NewRoadGenerator(cfg *config.Config, net *roads.Network) *RoadGenerator {
	return &RoadGenerator{cfg: cfg, net: net}
}

func (g *RoadGenerator) Layer() world.Layer {
	return world.LayerRoads
}

// Generate is idempotent per cell: the network remembers generated cells,
// so a duplicate invocation emits nothing.
func (g *RoadGenerator) Generate(coord world.ChunkCoord, net *roads.Network, grid *placement.Grid, _ *rand.Rand) []Descriptor {
	ids := net.GenerateCell(coord)

	out := make([]Descriptor, 0, len(ids))
	for _, id := range ids {
		s, ok := net.Spline(id)
		if !ok {
			continue
		}
		out = append(out, Descriptor{
			Kind:   world.KindRoad,
			Pos:    s.Start(),
			Radius: s.Class.Width() / 2,
			Road:   id,
		})
	}

	// Junction voids: nothing may be placed inside an intersection's fan.
	for _, x := range net.CellIntersections(coord) {
		grid.Add(x.Pos, world.KindRoad, x.Radius)
	}
	return out
}
