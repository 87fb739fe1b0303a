package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"go.uber.org/zap"

	"sprawl/pkg/config"
	"sprawl/pkg/content"
	"sprawl/pkg/geo"
	"sprawl/pkg/placement"
	"sprawl/pkg/roads"
	"sprawl/pkg/spawn"
	"sprawl/pkg/stream"
	"sprawl/pkg/world"
)

type genOptions struct {
	seed        uint64
	projectPath string
}

type cellDump struct {
	Cell          string                `json:"cell"`
	Seed          uint64                `json:"seed"`
	Deterministic bool                  `json:"deterministic"`
	Splines       []splineDump          `json:"splines"`
	Intersections []*roads.Intersection `json:"intersections"`
	Content       []content.Descriptor  `json:"content"`
}

type splineDump struct {
	ID            roads.SplineID `json:"id"`
	Class         string         `json:"class"`
	Length        float64        `json:"length"`
	ControlPoints []geo.Vec3     `json:"control_points"`
}

// runGen generates one cell twice from scratch and diffs the road geometry,
// then dumps the cell's full content as JSON. A non-deterministic diff is a
// bug, reported with exit code 1.
func runGen(cfg *config.Config, opts genOptions, xs, zs string) error {
	x, err := strconv.ParseInt(xs, 10, 32)
	if err != nil {
		return fmt.Errorf("cell-x: %w", err)
	}
	z, err := strconv.ParseInt(zs, 10, 32)
	if err != nil {
		return fmt.Errorf("cell-z: %w", err)
	}
	coord := world.ChunkCoord{X: int32(x), Z: int32(z)}
	log := zap.NewNop()

	net := roads.NewNetwork(cfg, log, opts.seed)
	first := captureCell(net, coord, cfg.Roads.QuerySamples)
	net.Reset()
	second := captureCell(net, coord, cfg.Roads.QuerySamples)

	deterministic := sameGeometry(first, second)

	// Content layers run against the second (live) generation.
	grid := placement.NewGrid(cfg.Streaming.PlacementCell, func(a, b world.ContentKind) float64 {
		return spawn.Spacing(cfg, a, b)
	})
	gens := []content.Generator{
		content.NewRoadGenerator(cfg, net),
		content.NewBuildingGenerator(cfg),
		content.NewVehicleGenerator(cfg),
		content.NewVegetationGenerator(cfg),
	}
	var descs []content.Descriptor
	for _, g := range gens {
		rng := rand.New(rand.NewSource(stream.LayerSeed(opts.seed, coord, g.Layer())))
		descs = append(descs, g.Generate(coord, net, grid, rng)...)
	}

	dump := cellDump{
		Cell:          coord.String(),
		Seed:          opts.seed,
		Deterministic: deterministic,
		Splines:       second,
		Intersections: net.CellIntersections(coord),
		Content:       descs,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dump); err != nil {
		return err
	}

	if !deterministic {
		return fmt.Errorf("cell %s generated different geometry on the second pass", coord)
	}
	return nil
}

func captureCell(net *roads.Network, coord world.ChunkCoord, samples int) []splineDump {
	var out []splineDump
	for _, id := range net.GenerateCell(coord) {
		s, ok := net.Spline(id)
		if !ok {
			continue
		}
		out = append(out, splineDump{
			ID:            s.ID,
			Class:         s.Class.String(),
			Length:        s.Length(samples),
			ControlPoints: s.ControlPoints,
		})
	}
	return out
}

func sameGeometry(a, b []splineDump) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || len(a[i].ControlPoints) != len(b[i].ControlPoints) {
			return false
		}
		for j := range a[i].ControlPoints {
			if a[i].ControlPoints[j] != b[i].ControlPoints[j] {
				return false
			}
		}
	}
	return true
}
