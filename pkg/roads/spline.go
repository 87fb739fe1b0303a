package roads

import (
	"sprawl/pkg/geo"
	"sprawl/pkg/world"
)

// SplineID is a globally unique 64-bit road identifier. The owning cell's
// zig-zag-packed coordinate occupies the high 48 bits and a per-cell
// sequence number the low 16, so uniqueness needs no shared counter.
type SplineID uint64

// MakeSplineID builds a spline id from its owning cell and local sequence.
func MakeSplineID(coord world.ChunkCoord, seq uint16) SplineID {
	return SplineID(coord.Pack()<<16 | uint64(seq))
}

// Cell returns the coordinate key portion of the id.
func (id SplineID) Cell() uint64 {
	return uint64(id) >> 16
}

// Spline is one road: an ordered run of 3D control points evaluated
// parametrically. Two control points interpolate linearly; four or more
// follow a Catmull-Rom curve. Splines are immutable once their cell has
// generated; regeneration only happens after a full network reset.
type Spline struct {
	ID            SplineID   `json:"id"`
	Class         Class      `json:"class"`
	ControlPoints []geo.Vec3 `json:"control_points"`
	Connections   []SplineID `json:"connections,omitempty"`
}

// Malformed reports whether the spline has fewer than 2 control points.
// That is a generator bug, not a runtime condition: evaluation degrades to
// a zero-length spline instead of propagating garbage to the engine sink.
func (s *Spline) Malformed() bool {
	return len(s.ControlPoints) < 2
}

// PointAt evaluates the spline at t in [0,1], with the class's vertical
// offset applied.
func (s *Spline) PointAt(t float64) geo.Vec3 {
	var p geo.Vec3
	switch {
	case len(s.ControlPoints) == 0:
		return geo.Vec3{}
	case len(s.ControlPoints) == 1:
		p = s.ControlPoints[0]
	default:
		p = geo.CatmullRomAt(s.ControlPoints, t)
	}
	p.Y += s.Class.VerticalOffset()
	return p
}

// Start returns the first control point.
func (s *Spline) Start() geo.Vec3 {
	if len(s.ControlPoints) == 0 {
		return geo.Vec3{}
	}
	return s.ControlPoints[0]
}

// End returns the last control point.
func (s *Spline) End() geo.Vec3 {
	if len(s.ControlPoints) == 0 {
		return geo.Vec3{}
	}
	return s.ControlPoints[len(s.ControlPoints)-1]
}

// Length approximates the arc length by sampling.
func (s *Spline) Length(samples int) float64 {
	if len(s.ControlPoints) < 2 {
		return 0
	}
	if samples < 1 {
		samples = 1
	}
	total := 0.0
	prev := s.PointAt(0)
	for i := 1; i <= samples; i++ {
		p := s.PointAt(float64(i) / float64(samples))
		total += prev.Distance(p)
		prev = p
	}
	return total
}
