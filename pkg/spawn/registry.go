// Package spawn enforces minimum separation between realized entities
// anywhere in the world, independent of chunk boundaries. It tracks spawned
// entities in a coarse spatial hash and relocates contested spawn candidates
// along a golden-angle spiral instead of overlapping them.
package spawn

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"sprawl/pkg/config"
	"sprawl/pkg/geo"
	"sprawl/pkg/world"
)

var (
	// ErrOutOfBounds rejects positions beyond the absolute world bound.
	// Recoverable: the candidate is dropped, nothing spawns there.
	ErrOutOfBounds = errors.New("spawn position out of world bounds")
	// ErrContention reports that the spiral search exhausted its attempts.
	// Callers choose a fallback: skip the spawn or use a distant anchor.
	ErrContention = errors.New("no safe spawn position found")
)

// goldenAngle is the spiral step between candidate positions, in radians.
// It distributes attempts evenly around the preferred point.
const goldenAngle = 2.39996

// Entry is one registered entity.
type Entry struct {
	Pos    geo.Vec3          `json:"pos"`
	Kind   world.ContentKind `json:"kind"`
	Handle world.Handle      `json:"handle"`
}

type cellKey struct {
	x, z int32
}

// Registry is the coarse spatial hash of realized entities. Insertion is
// two-phase: FindSafeSpawnPosition proposes a position, the caller performs
// the engine-side spawn, then RegisterEntity records the final handle.
type Registry struct {
	cfg *config.Config
	log *zap.Logger

	cellSize float64
	cells    map[cellKey][]Entry
	byHandle map[world.Handle]cellKey
	count    int

	// Contentions counts exhausted spiral searches, a tuning signal that
	// density settings are too aggressive for the available space.
	Contentions int
}

// NewRegistry creates an empty spawn registry.
func NewRegistry(cfg *config.Config, log *zap.Logger) *Registry {
	return &Registry{
		cfg:      cfg,
		log:      log,
		cellSize: cfg.Streaming.SpawnGridCell,
		cells:    make(map[cellKey][]Entry),
		byHandle: make(map[world.Handle]cellKey),
	}
}

func (r *Registry) keyFor(pos geo.Vec3) cellKey {
	return cellKey{
		x: int32(math.Floor(pos.X / r.cellSize)),
		z: int32(math.Floor(pos.Z / r.cellSize)),
	}
}

// clearance returns the configured clearance radius for a kind.
func (r *Registry) clearance(k world.ContentKind) float64 {
	return r.cfg.Spawns.Clearance(k.String())
}

// Spacing returns the minimum center distance required between two kinds:
// the sum of both clearance radii plus a pair-specific buffer. The function
// is symmetric in its arguments. The placement grid consumes the same rule,
// so generation-time checks and the registry invariant cannot drift apart.
func Spacing(cfg *config.Config, a, b world.ContentKind) float64 {
	return cfg.Spawns.Clearance(a.String()) + cfg.Spawns.Clearance(b.String()) + pairBuffer(a, b)
}

// Spacing is the registry's view of the package-level spacing rule. Its
// method value satisfies placement.SpacingFunc.
func (r *Registry) Spacing(a, b world.ContentKind) float64 {
	return Spacing(r.cfg, a, b)
}

// pairBuffer is the extra separation demanded for specific kind pairs.
// Aircraft need a wide berth from the player, and nothing spawns tight
// against a building wall.
func pairBuffer(a, b world.ContentKind) float64 {
	if a > b {
		a, b = b, a
	}
	switch {
	case a == world.KindPlayer && b == world.KindAircraft:
		return 30
	case a == world.KindBuilding || b == world.KindBuilding:
		return 5
	default:
		return 2
	}
}

// neighborsWithin gathers entries within radius of pos from the hash cells
// overlapping that radius.
func (r *Registry) neighborsWithin(pos geo.Vec3, radius float64) []Entry {
	lo := r.keyFor(geo.V(pos.X-radius, 0, pos.Z-radius))
	hi := r.keyFor(geo.V(pos.X+radius, 0, pos.Z+radius))

	var out []Entry
	for x := lo.x; x <= hi.x; x++ {
		for z := lo.z; z <= hi.z; z++ {
			for _, e := range r.cells[cellKey{x, z}] {
				if pos.DistanceXZ(e.Pos) <= radius {
					out = append(out, e)
				}
			}
		}
	}
	return out
}

// IsPositionSafe reports whether an entity of the given kind can stand at
// pos without violating any pairwise spacing. Positions beyond the absolute
// world bound are never safe.
func (r *Registry) IsPositionSafe(pos geo.Vec3, kind world.ContentKind) bool {
	bound := r.cfg.World.AbsoluteBound
	if math.Abs(pos.X) > bound || math.Abs(pos.Z) > bound {
		return false
	}

	// The search reach covers the largest spacing this kind can require.
	reach := r.clearance(kind) + maxClearance(r.cfg) + r.cfg.Spawns.SearchMargin
	for _, e := range r.neighborsWithin(pos, reach) {
		if pos.DistanceXZ(e.Pos) < r.Spacing(kind, e.Kind) {
			return false
		}
	}
	return true
}

func maxClearance(cfg *config.Config) float64 {
	m := 0.0
	for _, v := range cfg.Spawns.Clearances {
		if v > m {
			m = v
		}
	}
	// Largest pair buffer.
	return m + 30
}

// FindSafeSpawnPosition returns a position for the given kind at or near
// preferred. The preferred point wins whenever it is already free; under
// contention, candidates walk a golden-angle spiral with radius growing
// linearly up to maxRadius. Exhausting maxAttempts returns ErrContention:
// the caller must skip the spawn or fall back, never overlap.
func (r *Registry) FindSafeSpawnPosition(preferred geo.Vec3, kind world.ContentKind, maxRadius float64, maxAttempts int) (geo.Vec3, error) {
	bound := r.cfg.World.AbsoluteBound
	if math.Abs(preferred.X) > bound || math.Abs(preferred.Z) > bound {
		return geo.Vec3{}, ErrOutOfBounds
	}
	if maxAttempts <= 0 {
		maxAttempts = r.cfg.Spawns.MaxAttempts
	}

	if r.IsPositionSafe(preferred, kind) {
		return preferred, nil
	}

	for i := 1; i <= maxAttempts; i++ {
		angle := goldenAngle * float64(i)
		radius := maxRadius * float64(i) / float64(maxAttempts)
		candidate := geo.V(
			preferred.X+radius*math.Cos(angle),
			preferred.Y,
			preferred.Z+radius*math.Sin(angle),
		)
		if r.IsPositionSafe(candidate, kind) {
			return candidate, nil
		}
	}

	r.Contentions++
	r.log.Warn("spawn contention: spiral search exhausted",
		zap.String("kind", kind.String()),
		zap.Float64("x", preferred.X),
		zap.Float64("z", preferred.Z),
		zap.Int("attempts", maxAttempts),
		zap.Float64("max_radius", maxRadius))
	return geo.Vec3{}, ErrContention
}

// RegisterEntity records a realized entity. It does not re-validate the
// position: the caller is expected to have used FindSafeSpawnPosition.
func (r *Registry) RegisterEntity(pos geo.Vec3, kind world.ContentKind, handle world.Handle) {
	key := r.keyFor(pos)
	r.cells[key] = append(r.cells[key], Entry{Pos: pos, Kind: kind, Handle: handle})
	r.byHandle[handle] = key
	r.count++
}

// UnregisterEntity removes a despawned entity by handle. Unknown handles
// are a no-op.
func (r *Registry) UnregisterEntity(handle world.Handle) {
	key, ok := r.byHandle[handle]
	if !ok {
		return
	}
	delete(r.byHandle, handle)
	entries := r.cells[key]
	for i, e := range entries {
		if e.Handle == handle {
			entries[i] = entries[len(entries)-1]
			entries = entries[:len(entries)-1]
			r.count--
			break
		}
	}
	if len(entries) == 0 {
		delete(r.cells, key)
	} else {
		r.cells[key] = entries
	}
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	return r.count
}

// All returns a copy of every registered entry, for diagnostics and tests.
func (r *Registry) All() []Entry {
	out := make([]Entry, 0, r.count)
	for _, entries := range r.cells {
		out = append(out, entries...)
	}
	return out
}
