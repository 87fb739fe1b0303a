// Package config holds the engine configuration bundle. Every tunable the
// streaming and generation layers consume lives here so that density,
// budgets and radii can be adjusted per project without recompiling.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Config is the top-level engine configuration.
type Config struct {
	World     WorldDef     `yaml:"world" json:"world"`
	Streaming StreamingDef `yaml:"streaming" json:"streaming"`
	Roads     RoadsDef     `yaml:"roads" json:"roads"`
	Spawns    SpawnsDef    `yaml:"spawns" json:"spawns"`
	LOD       LODDef       `yaml:"lod" json:"lod"`
}

// WorldDef fixes the world geometry: the chunk grid and the absolute
// playable bound beyond which nothing is ever generated.
type WorldDef struct {
	ChunkEdge     float64 `yaml:"chunk_edge" json:"chunk_edge"`
	AbsoluteBound float64 `yaml:"absolute_bound" json:"absolute_bound"`
	// WaterExclusion is a circular no-build zone (lake) content
	// generators must keep clear of.
	WaterCenterX float64 `yaml:"water_center_x" json:"water_center_x"`
	WaterCenterZ float64 `yaml:"water_center_z" json:"water_center_z"`
	WaterRadius  float64 `yaml:"water_radius" json:"water_radius"`
}

// StreamingDef controls the chunk scheduler.
type StreamingDef struct {
	Radius          float64 `yaml:"radius" json:"radius"`
	UnloadFactor    float64 `yaml:"unload_factor" json:"unload_factor"`
	LoadsPerTick    int     `yaml:"loads_per_tick" json:"loads_per_tick"`
	UnloadsPerTick  int     `yaml:"unloads_per_tick" json:"unloads_per_tick"`
	GenBudgetMillis int     `yaml:"gen_budget_ms" json:"gen_budget_ms"`
	PlacementCell   float64 `yaml:"placement_cell" json:"placement_cell"`
	SpawnGridCell   float64 `yaml:"spawn_grid_cell" json:"spawn_grid_cell"`
}

// RoadsDef controls deterministic road generation.
type RoadsDef struct {
	// ArterialPeriod is the lattice period in cells: every Nth cell along
	// an axis carries an arterial road.
	ArterialPeriod int `yaml:"arterial_period" json:"arterial_period"`
	// Samples per spline used by the approximate geometry queries.
	QuerySamples int `yaml:"query_samples" json:"query_samples"`
	// BoundaryTolerance is how close to a cell edge an endpoint must lie
	// to be recorded as a boundary point.
	BoundaryTolerance float64 `yaml:"boundary_tolerance" json:"boundary_tolerance"`
	// StitchCapture is the max distance between matching boundary points
	// on neighboring cells for a connector to be created.
	StitchCapture float64 `yaml:"stitch_capture" json:"stitch_capture"`
	// IntersectionRadius is both the visual fan radius and the placement
	// void carved around detected intersections.
	IntersectionRadius float64 `yaml:"intersection_radius" json:"intersection_radius"`
}

// SpawnsDef carries per-content-kind densities and clearances. Keys are the
// lowercase kind names (building, vehicle, vegetation, ...).
type SpawnsDef struct {
	// Probability of accepting each sampled candidate, per kind.
	Rates map[string]float64 `yaml:"rates" json:"rates"`
	// Clearance radius per kind, used by both the placement grid and the
	// spawn registry spacing rules.
	Clearances map[string]float64 `yaml:"clearances" json:"clearances"`
	// RoadClearance is how far off the road surface buildings and
	// vegetation must stay.
	RoadClearance float64 `yaml:"road_clearance" json:"road_clearance"`
	// SearchMargin extends the neighborhood gathered by safety checks.
	SearchMargin float64 `yaml:"search_margin" json:"search_margin"`
	// MaxAttempts bounds the spiral search for a safe spawn position.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
}

// LODDef is the ascending distance threshold table for detail bucketing.
type LODDef struct {
	Thresholds []float64 `yaml:"thresholds" json:"thresholds"`
}

// Default returns the canonical configuration: 200-unit chunks streamed to
// 800 units with 1.2x unload hysteresis, four loads and unloads per tick,
// and a 3000-unit absolute world bound.
func Default() *Config {
	return &Config{
		World: WorldDef{
			ChunkEdge:     200,
			AbsoluteBound: 3000,
			WaterCenterX:  450,
			WaterCenterZ:  -650,
			WaterRadius:   120,
		},
		Streaming: StreamingDef{
			Radius:          800,
			UnloadFactor:    1.2,
			LoadsPerTick:    4,
			UnloadsPerTick:  4,
			GenBudgetMillis: 4,
			PlacementCell:   50,
			SpawnGridCell:   100,
		},
		Roads: RoadsDef{
			ArterialPeriod:     3,
			QuerySamples:       20,
			BoundaryTolerance:  2.0,
			StitchCapture:      30.0,
			IntersectionRadius: 12.0,
		},
		Spawns: SpawnsDef{
			Rates: map[string]float64{
				"building":   0.6,
				"vehicle":    0.35,
				"vegetation": 0.4,
			},
			Clearances: map[string]float64{
				"building":   12.0,
				"vehicle":    4.0,
				"vegetation": 3.0,
				"npc":        1.5,
				"player":     2.0,
				"aircraft":   25.0,
			},
			RoadClearance: 5.0,
			SearchMargin:  15.0,
			MaxAttempts:   24,
		},
		LOD: LODDef{
			Thresholds: []float64{150, 300, 500},
		},
	}
}

// Load reads a config from a YAML file, overlaying it on the defaults so a
// project file only needs to name the values it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadProject loads the engine config from a project directory, looking for
// world.yaml in the given directory.
func LoadProject(projectDir string) (*Config, error) {
	return Load(filepath.Join(projectDir, "world.yaml"))
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.World.ChunkEdge <= 0 {
		return fmt.Errorf("world.chunk_edge must be positive, got %v", c.World.ChunkEdge)
	}
	if c.World.AbsoluteBound < c.World.ChunkEdge {
		return fmt.Errorf("world.absolute_bound %v is smaller than one chunk edge %v",
			c.World.AbsoluteBound, c.World.ChunkEdge)
	}
	if c.Streaming.Radius <= 0 {
		return fmt.Errorf("streaming.radius must be positive, got %v", c.Streaming.Radius)
	}
	if c.Streaming.UnloadFactor <= 1 {
		return fmt.Errorf("streaming.unload_factor must exceed 1 for hysteresis, got %v",
			c.Streaming.UnloadFactor)
	}
	if c.Streaming.LoadsPerTick < 1 || c.Streaming.UnloadsPerTick < 1 {
		return fmt.Errorf("streaming budgets must be at least 1 (loads=%d unloads=%d)",
			c.Streaming.LoadsPerTick, c.Streaming.UnloadsPerTick)
	}
	if c.Roads.ArterialPeriod < 2 {
		return fmt.Errorf("roads.arterial_period must be at least 2, got %d",
			c.Roads.ArterialPeriod)
	}
	if len(c.LOD.Thresholds) == 0 {
		return fmt.Errorf("lod.thresholds must not be empty")
	}
	if !sort.Float64sAreSorted(c.LOD.Thresholds) {
		return fmt.Errorf("lod.thresholds must be ascending: %v", c.LOD.Thresholds)
	}
	for name, rate := range c.Spawns.Rates {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("spawns.rates.%s must be in [0,1], got %v", name, rate)
		}
	}
	return nil
}

// Rate returns the spawn probability for a kind name, or 0 if unset.
func (s SpawnsDef) Rate(kind string) float64 {
	return s.Rates[kind]
}

// Clearance returns the clearance radius for a kind name, or 0 if unset.
func (s SpawnsDef) Clearance(kind string) float64 {
	return s.Clearances[kind]
}
