package roads

import (
	"encoding/binary"
	"math"
	"math/rand"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"sprawl/pkg/config"
	"sprawl/pkg/geo"
	"sprawl/pkg/world"
)

// CellEdge names which edge of its generating cell a boundary point lies on.
type CellEdge uint8

const (
	EdgePosX CellEdge = iota
	EdgeNegX
	EdgePosZ
	EdgeNegZ
)

// Opposite returns the matching edge seen from the adjacent cell.
func (e CellEdge) Opposite() CellEdge {
	switch e {
	case EdgePosX:
		return EdgeNegX
	case EdgeNegX:
		return EdgePosX
	case EdgePosZ:
		return EdgeNegZ
	default:
		return EdgePosZ
	}
}

// neighborOffset returns the cell offset across the edge.
func (e CellEdge) neighborOffset() (int32, int32) {
	switch e {
	case EdgePosX:
		return 1, 0
	case EdgeNegX:
		return -1, 0
	case EdgePosZ:
		return 0, 1
	default:
		return 0, -1
	}
}

// BoundaryPoint is a road endpoint lying on a cell edge, recorded so
// neighboring cells can stitch their networks together without either side
// being regenerated.
type BoundaryPoint struct {
	Pos  geo.Vec3 `json:"pos"`
	Edge CellEdge `json:"edge"`
	Road SplineID `json:"road"`
}

// Network is the aggregate road graph. All mutation happens on the main
// simulation tick; external consumers only use the query methods.
type Network struct {
	cfg  *config.Config
	log  *zap.Logger
	seed uint64

	generated     map[world.ChunkCoord]bool
	splines       map[SplineID]*Spline
	cellSplines   map[world.ChunkCoord][]SplineID
	intersections map[IntersectionID]*Intersection
	cellXs        map[world.ChunkCoord][]IntersectionID
	boundary      map[world.ChunkCoord][]BoundaryPoint
	seq           map[world.ChunkCoord]uint16
}

// NewNetwork creates an empty road network. worldSeed perturbs every
// cell seed so distinct worlds lay out differently while each stays fully
// deterministic.
func NewNetwork(cfg *config.Config, log *zap.Logger, worldSeed uint64) *Network {
	n := &Network{cfg: cfg, log: log, seed: worldSeed}
	n.reset()
	return n
}

func (n *Network) reset() {
	n.generated = make(map[world.ChunkCoord]bool)
	n.splines = make(map[SplineID]*Spline)
	n.cellSplines = make(map[world.ChunkCoord][]SplineID)
	n.intersections = make(map[IntersectionID]*Intersection)
	n.cellXs = make(map[world.ChunkCoord][]IntersectionID)
	n.boundary = make(map[world.ChunkCoord][]BoundaryPoint)
	n.seq = make(map[world.ChunkCoord]uint16)
}

// Reset clears the whole network cache. Cells regenerate identically on
// next reference because seeds derive purely from coordinates.
func (n *Network) Reset() {
	n.reset()
}

// cellSeed derives the deterministic RNG seed for a cell. No global RNG
// state is involved, so regeneration after a cache clear is bit-identical.
func (n *Network) cellSeed(coord world.ChunkCoord) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], n.seed)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(coord.X))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(coord.Z))
	return xxhash.Sum64(buf[:])
}

// nextID mints the next spline or intersection sequence number for a cell.
func (n *Network) nextSeq(coord world.ChunkCoord) uint16 {
	s := n.seq[coord]
	n.seq[coord] = s + 1
	return s
}

// addSpline registers a generated spline under its owning cell. Malformed
// splines (fewer than 2 control points) are a generator bug; they are kept
// as zero-length degenerates and reported, never propagated as errors.
func (n *Network) addSpline(coord world.ChunkCoord, s *Spline) {
	if s.Malformed() {
		n.log.Error("malformed road spline, degrading to zero length",
			zap.Uint64("id", uint64(s.ID)),
			zap.String("cell", coord.String()),
			zap.Int("control_points", len(s.ControlPoints)))
	}
	n.splines[s.ID] = s
	n.cellSplines[coord] = append(n.cellSplines[coord], s.ID)
}

// GenerateCell generates the cell's roads if it has not generated yet and
// returns the new spline ids. Calling it again is a no-op returning nil,
// which guards against duplicate event delivery. Cells outside the absolute
// world bound never generate.
func (n *Network) GenerateCell(coord world.ChunkCoord) []SplineID {
	if n.generated[coord] {
		return nil
	}

	center := coord.Center(n.cfg.World.ChunkEdge)
	bound := n.cfg.World.AbsoluteBound
	if math.Abs(center.X) > bound || math.Abs(center.Z) > bound {
		n.generated[coord] = true
		return nil
	}

	n.generated[coord] = true
	rng := rand.New(rand.NewSource(int64(n.cellSeed(coord))))

	var created []*Spline
	if coord == (world.ChunkCoord{}) {
		created = n.generateSpawnCell(coord, rng)
	} else {
		created = n.generateLatticeCell(coord, rng)
	}

	for _, s := range created {
		n.addSpline(coord, s)
	}

	n.recordBoundaryPoints(coord, created)
	n.detectIntersections(coord)
	n.stitchNeighbors(coord)

	ids := make([]SplineID, len(created))
	for i, s := range created {
		ids[i] = s.ID
	}
	n.log.Debug("generated cell roads",
		zap.String("cell", coord.String()),
		zap.Int("splines", len(ids)))
	return ids
}

// Generated reports whether the cell's roads exist.
func (n *Network) Generated(coord world.ChunkCoord) bool {
	return n.generated[coord]
}

// Spline looks up a road by id. Missing ids report false, never panic.
func (n *Network) Spline(id SplineID) (*Spline, bool) {
	s, ok := n.splines[id]
	return s, ok
}

// CellSplines returns the ids of roads owned by a cell.
func (n *Network) CellSplines(coord world.ChunkCoord) []SplineID {
	return n.cellSplines[coord]
}

// CellIntersections returns the intersections detected within a cell.
func (n *Network) CellIntersections(coord world.ChunkCoord) []*Intersection {
	ids := n.cellXs[coord]
	out := make([]*Intersection, 0, len(ids))
	for _, id := range ids {
		if x, ok := n.intersections[id]; ok {
			out = append(out, x)
		}
	}
	return out
}

// BoundaryPoints returns the recorded edge endpoints for a cell.
func (n *Network) BoundaryPoints(coord world.ChunkCoord) []BoundaryPoint {
	return n.boundary[coord]
}

// RoadCount returns the total number of splines in the network.
func (n *Network) RoadCount() int {
	return len(n.splines)
}

// IntersectionCount returns the total number of intersections.
func (n *Network) IntersectionCount() int {
	return len(n.intersections)
}

// floorMod returns the non-negative remainder of a/b.
func floorMod(a int32, b int) int {
	m := int(a) % b
	if m < 0 {
		m += b
	}
	return m
}

// floorDiv returns the floored quotient of a/b.
func floorDiv(a int32, b int) int {
	q := int(a) / b
	if (int(a)%b != 0) && ((int(a) < 0) != (b < 0)) {
		q--
	}
	return q
}
