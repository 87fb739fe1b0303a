package content

import (
	"math/rand"

	"sprawl/pkg/config"
	"sprawl/pkg/geo"
	"sprawl/pkg/placement"
	"sprawl/pkg/roads"
	"sprawl/pkg/world"
)

// vehicleSampleT is the parametric step between candidate positions along
// each road spline.
const vehicleSampleT = 0.1

// VehicleGenerator parks vehicles on the road surfaces of a chunk. Unlike
// buildings and vegetation, a candidate is rejected when it is NOT on a
// road.
type VehicleGenerator struct {
	cfg *config.Config
}

// NewVehicleGenerator creates the vehicle generator.
func NewVehicleGenerator(cfg *config.Config) *VehicleGenerator {
	return &VehicleGenerator{cfg: cfg}
}

func (g *VehicleGenerator) Layer() world.Layer {
	return world.LayerVehicles
}

func (g *VehicleGenerator) Generate(coord world.ChunkCoord, net *roads.Network, grid *placement.Grid, rng *rand.Rand) []Descriptor {
	rate := g.cfg.Spawns.Rate(world.KindVehicle.String())
	clearance := g.cfg.Spawns.Clearance(world.KindVehicle.String())

	var out []Descriptor
	for _, id := range net.CellSplines(coord) {
		s, ok := net.Spline(id)
		if !ok || s.Malformed() {
			continue
		}
		// Alleys are too narrow to park on.
		if s.Class == roads.Alley {
			continue
		}

		for t := vehicleSampleT; t < 1; t += vehicleSampleT {
			roll := rng.Float64()
			laneSide := 1.0
			if rng.Float64() < 0.5 {
				laneSide = -1
			}
			if roll >= rate {
				continue
			}

			center := s.PointAt(t)
			ahead := s.PointAt(t + vehicleSampleT/2)
			heading := center.HeadingTo(ahead)

			// Offset into a lane: perpendicular to travel, a quarter width
			// out from the centerline.
			perp := geo.V(ahead.Z-center.Z, 0, -(ahead.X - center.X)).Normalize()
			pos := center.Add(perp.Scale(laneSide * s.Class.Width() / 4))
			pos.Y = 0

			if !inBounds(g.cfg, pos) || inWater(g.cfg, pos) {
				continue
			}
			// The lane offset must not have pushed the car off the surface.
			if !net.IsNearRoad(pos, 0) {
				continue
			}
			if !grid.CanPlace(pos, world.KindVehicle, clearance, clearance*2) {
				continue
			}

			grid.Add(pos, world.KindVehicle, clearance)
			out = append(out, Descriptor{
				Kind:    world.KindVehicle,
				Pos:     pos,
				Heading: heading,
				Size:    SizeSmall,
				Radius:  clearance,
				Road:    id,
				Parts:   vehicleParts(),
			})
		}
	}
	return out
}

// vehicleParts is the composite body of a parked car: the sink destroys
// everything through the root descriptor's handle.
func vehicleParts() []Part {
	return []Part{
		{Name: "body", Offset: geo.V(0, 0.6, 0)},
		{Name: "wheel_fl", Offset: geo.V(1.2, 0.3, -0.8)},
		{Name: "wheel_fr", Offset: geo.V(1.2, 0.3, 0.8)},
		{Name: "wheel_rl", Offset: geo.V(-1.2, 0.3, -0.8)},
		{Name: "wheel_rr", Offset: geo.V(-1.2, 0.3, 0.8)},
	}
}
