package world

// ChunkState is the lifecycle stage of a streamed chunk.
type ChunkState uint8

const (
	StateUnloaded ChunkState = iota
	StateLoading
	StateLoaded
	StateUnloading
)

func (s ChunkState) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateUnloading:
		return "unloading"
	default:
		return "invalid"
	}
}

// Layer identifies one content generation pass. Layers run in a fixed
// order because later layers query the road network the first one builds.
type Layer uint8

const (
	LayerRoads Layer = iota
	LayerBuildings
	LayerVehicles
	LayerVegetation
	layerCount
)

// Layers lists every generation layer in execution order.
var Layers = [...]Layer{LayerRoads, LayerBuildings, LayerVehicles, LayerVegetation}

func (l Layer) String() string {
	switch l {
	case LayerRoads:
		return "roads"
	case LayerBuildings:
		return "buildings"
	case LayerVehicles:
		return "vehicles"
	case LayerVegetation:
		return "vegetation"
	default:
		return "invalid"
	}
}

// Handle is an opaque reference to an engine-side object (mesh, physics
// body). The core never inspects it; it only hands it back for destruction.
type Handle string

// Chunk is the lifecycle record for one cell: which generation layers have
// run, the engine handles it owns, and scheduler bookkeeping.
type Chunk struct {
	Coord       ChunkCoord
	State       ChunkState
	Handles     []Handle
	LOD         int
	LastTouched uint64  // tick the scheduler last considered this chunk
	Distance    float64 // cached distance from the active entity

	generated [layerCount]bool
}

// NewChunk creates a chunk record in the Unloaded state. Records are
// created lazily on first reference by the scheduler.
func NewChunk(coord ChunkCoord) *Chunk {
	return &Chunk{Coord: coord, State: StateUnloaded}
}

// LayerDone reports whether the given generation layer has completed.
func (c *Chunk) LayerDone(l Layer) bool {
	return c.generated[l]
}

// MarkLayer records a generation layer as completed.
func (c *Chunk) MarkLayer(l Layer) {
	c.generated[l] = true
}

// AllLayersDone reports whether every generation layer has completed.
func (c *Chunk) AllLayersDone() bool {
	for _, done := range c.generated {
		if !done {
			return false
		}
	}
	return true
}

// NextLayer returns the first incomplete layer. The second return is false
// when all layers are done.
func (c *Chunk) NextLayer() (Layer, bool) {
	for _, l := range Layers {
		if !c.generated[l] {
			return l, true
		}
	}
	return 0, false
}
