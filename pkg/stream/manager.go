// Package stream owns the chunk table and the per-tick streaming
// scheduler: it decides which cells materialize around the active entity,
// drives the content generators in layer order under per-frame budgets,
// and releases everything a departing chunk owned.
package stream

import (
	"encoding/binary"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"sprawl/pkg/config"
	"sprawl/pkg/content"
	"sprawl/pkg/geo"
	"sprawl/pkg/lod"
	"sprawl/pkg/placement"
	"sprawl/pkg/roads"
	"sprawl/pkg/sink"
	"sprawl/pkg/spawn"
	"sprawl/pkg/world"
)

// Stats are cumulative scheduler counters, exposed to the debug observer.
type Stats struct {
	Ticks       uint64 `json:"ticks"`
	Loads       uint64 `json:"loads"`
	Unloads     uint64 `json:"unloads"`
	Descriptors uint64 `json:"descriptors"`
	BudgetStops uint64 `json:"budget_stops"`
}

// Manager is the streaming scheduler. Everything runs on the main
// simulation tick: there is no concurrency and no locking here.
type Manager struct {
	cfg      *config.Config
	log      *zap.Logger
	net      *roads.Network
	grid     *placement.Grid
	registry *spawn.Registry
	out      sink.Sink
	seed     uint64

	generators []content.Generator
	chunks     map[world.ChunkCoord]*world.Chunk
	tick       uint64
	stats      Stats

	// now is injectable so tests can pin the generation time budget.
	now func() time.Time
}

// NewManager wires the scheduler to its collaborators. Generators run in
// the fixed layer order roads, buildings, vehicles, vegetation.
func NewManager(cfg *config.Config, log *zap.Logger, net *roads.Network, grid *placement.Grid, registry *spawn.Registry, out sink.Sink, worldSeed uint64) *Manager {
	return &Manager{
		cfg:      cfg,
		log:      log,
		net:      net,
		grid:     grid,
		registry: registry,
		out:      out,
		seed:     worldSeed,
		generators: []content.Generator{
			content.NewRoadGenerator(cfg, net),
			content.NewBuildingGenerator(cfg),
			content.NewVehicleGenerator(cfg),
			content.NewVegetationGenerator(cfg),
		},
		chunks: make(map[world.ChunkCoord]*world.Chunk),
		now:    time.Now,
	}
}

// chunkAt returns the chunk record for a coordinate, creating it lazily in
// the Unloaded state on first reference.
func (m *Manager) chunkAt(coord world.ChunkCoord) *world.Chunk {
	if c, ok := m.chunks[coord]; ok {
		return c
	}
	c := world.NewChunk(coord)
	m.chunks[coord] = c
	return c
}

// inWorldBounds applies the finite-world safety fence: cells whose center
// exceeds the absolute bound are never generated.
func (m *Manager) inWorldBounds(coord world.ChunkCoord) bool {
	center := coord.Center(m.cfg.World.ChunkEdge)
	b := m.cfg.World.AbsoluteBound
	return math.Abs(center.X) <= b && math.Abs(center.Z) <= b
}

// Tick advances the streaming state machine one frame from the active
// entity's position: select loads within the streaming radius (bounded by
// the load budget), unload chunks beyond the hysteresis radius (bounded by
// the unload budget), then run generation layers under the time budget.
func (m *Manager) Tick(activePos geo.Vec3) {
	m.tick++
	m.stats.Ticks++

	m.selectLoads(activePos)
	m.selectUnloads(activePos)
	m.generate(activePos)
	m.refreshLOD(activePos)
}

// selectLoads marks up to the per-tick load budget of unloaded cells
// within the streaming radius as Loading, nearest first. Remaining
// candidates wait for a later tick.
func (m *Manager) selectLoads(activePos geo.Vec3) {
	edge := m.cfg.World.ChunkEdge
	radius := m.cfg.Streaming.Radius
	center := world.CoordFromWorldPos(activePos, edge)
	span := int32(math.Ceil(radius/edge)) + 1

	type candidate struct {
		coord world.ChunkCoord
		dist  float64
	}
	var candidates []candidate

	for dx := -span; dx <= span; dx++ {
		for dz := -span; dz <= span; dz++ {
			coord := center.Offset(dx, dz)
			dist := coord.Center(edge).DistanceXZ(activePos)
			if dist > radius {
				continue
			}
			if !m.inWorldBounds(coord) {
				continue
			}
			if c, ok := m.chunks[coord]; ok && c.State != world.StateUnloaded {
				continue
			}
			candidates = append(candidates, candidate{coord, dist})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		// Stable order for equidistant cells.
		return candidates[i].coord.Pack() < candidates[j].coord.Pack()
	})

	budget := m.cfg.Streaming.LoadsPerTick
	for _, cand := range candidates {
		if budget == 0 {
			break
		}
		c := m.chunkAt(cand.coord)
		c.State = world.StateLoading
		c.Distance = cand.dist
		c.LastTouched = m.tick
		budget--
		m.stats.Loads++
		m.log.Debug("chunk loading", zap.String("cell", cand.coord.String()),
			zap.Float64("distance", cand.dist))
	}
}

// selectUnloads releases chunks whose distance exceeds the hysteresis
// radius (streaming radius times the unload factor), bounded per tick. The
// unload threshold being strictly larger than the load threshold prevents
// flapping at the boundary.
func (m *Manager) selectUnloads(activePos geo.Vec3) {
	edge := m.cfg.World.ChunkEdge
	limit := m.cfg.Streaming.Radius * m.cfg.Streaming.UnloadFactor

	var victims []*world.Chunk
	for _, c := range m.chunks {
		if c.State != world.StateLoaded && c.State != world.StateLoading {
			continue
		}
		if c.Coord.Center(edge).DistanceXZ(activePos) > limit {
			victims = append(victims, c)
		}
	}
	sort.Slice(victims, func(i, j int) bool {
		return victims[i].Coord.Pack() < victims[j].Coord.Pack()
	})

	budget := m.cfg.Streaming.UnloadsPerTick
	for _, c := range victims {
		if budget == 0 {
			break
		}
		m.unload(c)
		budget--
	}
}

// unload releases a chunk's engine handles, spawn registrations and
// placement entries, then drops it from the table. Road geometry stays in
// the network: it regenerates identically only after a full cache clear.
func (m *Manager) unload(c *world.Chunk) {
	c.State = world.StateUnloading
	for _, h := range c.Handles {
		m.registry.UnregisterEntity(h)
		m.out.Destroy(h)
	}
	m.grid.RemoveChunk(c.Coord, m.cfg.World.ChunkEdge)
	delete(m.chunks, c.Coord)
	m.stats.Unloads++
	m.log.Debug("chunk unloaded", zap.String("cell", c.Coord.String()))
}

// LayerSeed derives the deterministic RNG seed for one generation layer of
// one cell. It mixes the world seed, the cell coordinate and the layer index
// so layers never share random sequences.
func LayerSeed(worldSeed uint64, coord world.ChunkCoord, layer world.Layer) int64 {
	var buf [17]byte
	binary.LittleEndian.PutUint64(buf[0:8], worldSeed)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(coord.X))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(coord.Z))
	buf[16] = byte(layer)
	return int64(xxhash.Sum64(buf[:]))
}

// generate advances loading chunks through their remaining layers, nearest
// chunk first, under the per-tick millisecond budget. Once the budget is
// spent, remaining work waits for the next tick; at least one layer always
// runs so loading can never stall entirely.
func (m *Manager) generate(activePos geo.Vec3) {
	edge := m.cfg.World.ChunkEdge

	var loading []*world.Chunk
	for _, c := range m.chunks {
		if c.State == world.StateLoading {
			c.Distance = c.Coord.Center(edge).DistanceXZ(activePos)
			loading = append(loading, c)
		}
	}
	sort.Slice(loading, func(i, j int) bool {
		if loading[i].Distance != loading[j].Distance {
			return loading[i].Distance < loading[j].Distance
		}
		return loading[i].Coord.Pack() < loading[j].Coord.Pack()
	})

	start := m.now()
	budget := time.Duration(m.cfg.Streaming.GenBudgetMillis) * time.Millisecond
	ranOne := false

	for _, c := range loading {
		for {
			layer, ok := c.NextLayer()
			if !ok {
				break
			}
			if ranOne && m.now().Sub(start) >= budget {
				m.stats.BudgetStops++
				return
			}
			m.runLayer(c, layer)
			ranOne = true
		}
		c.State = world.StateLoaded
		c.LOD = lod.Level(c.Distance, m.cfg.LOD.Thresholds)
		c.LastTouched = m.tick
		m.log.Debug("chunk loaded", zap.String("cell", c.Coord.String()),
			zap.Int("lod", c.LOD), zap.Int("handles", len(c.Handles)))
	}
}

// runLayer executes one generation layer for a chunk: the generator
// produces descriptors, the sink realizes them, and the resulting handles
// are owned by the chunk. Freestanding entities also enter the spawn
// registry so world-wide spacing holds across chunk boundaries.
func (m *Manager) runLayer(c *world.Chunk, layer world.Layer) {
	gen := m.generators[layer]
	rng := rand.New(rand.NewSource(LayerSeed(m.seed, c.Coord, layer)))

	descs := gen.Generate(c.Coord, m.net, m.grid, rng)
	m.stats.Descriptors += uint64(len(descs))

	for _, d := range descs {
		var h world.Handle
		if d.Kind == world.KindRoad {
			if s, ok := m.net.Spline(d.Road); ok {
				h = m.out.CreateRoad(s)
			}
		} else {
			// The placement grid applies the same spacing rule during
			// generation, but the registry also tracks entities the grid
			// never sees, such as the observer. Its verdict is final.
			if !m.registry.IsPositionSafe(d.Pos, d.Kind) {
				m.log.Debug("descriptor dropped, spacing conflict",
					zap.String("cell", c.Coord.String()),
					zap.String("kind", d.Kind.String()))
				continue
			}
			h = m.out.CreateContent(d)
			m.registry.RegisterEntity(d.Pos, d.Kind, h)
		}
		if h != "" {
			c.Handles = append(c.Handles, h)
		}
	}
	c.MarkLayer(layer)
}

// refreshLOD recomputes distance and detail level for loaded chunks.
func (m *Manager) refreshLOD(activePos geo.Vec3) {
	edge := m.cfg.World.ChunkEdge
	for _, c := range m.chunks {
		if c.State != world.StateLoaded {
			continue
		}
		c.Distance = c.Coord.Center(edge).DistanceXZ(activePos)
		c.LOD = lod.Level(c.Distance, m.cfg.LOD.Thresholds)
	}
}

// Chunk returns the chunk record at a coordinate, if tracked.
func (m *Manager) Chunk(coord world.ChunkCoord) (*world.Chunk, bool) {
	c, ok := m.chunks[coord]
	return c, ok
}

// CountState returns how many tracked chunks are in the given state.
func (m *Manager) CountState(s world.ChunkState) int {
	n := 0
	for _, c := range m.chunks {
		if c.State == s {
			n++
		}
	}
	return n
}

// Stats returns a copy of the cumulative counters.
func (m *Manager) Stats() Stats {
	return m.stats
}

// Tick count since start.
func (m *Manager) TickCount() uint64 {
	return m.tick
}
