package geo

import "math"

// Vec3 represents a point or vector in world space. X/Z span the ground
// plane, Y is up.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Origin is the zero point.
var Origin = Vec3{}

// V is a shorthand constructor for Vec3.
func V(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns p + q.
func (p Vec3) Add(q Vec3) Vec3 {
	return Vec3{p.X + q.X, p.Y + q.Y, p.Z + q.Z}
}

// Sub returns p - q.
func (p Vec3) Sub(q Vec3) Vec3 {
	return Vec3{p.X - q.X, p.Y - q.Y, p.Z - q.Z}
}

// Scale returns p * s.
func (p Vec3) Scale(s float64) Vec3 {
	return Vec3{p.X * s, p.Y * s, p.Z * s}
}

// Length returns the Euclidean length of the vector.
func (p Vec3) Length() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// Normalize returns the unit vector in the same direction.
// Returns zero vector if length is zero.
func (p Vec3) Normalize() Vec3 {
	l := p.Length()
	if l < 1e-12 {
		return Vec3{}
	}
	return Vec3{p.X / l, p.Y / l, p.Z / l}
}

// Dot returns the dot product of p and q.
func (p Vec3) Dot(q Vec3) float64 {
	return p.X*q.X + p.Y*q.Y + p.Z*q.Z
}

// Distance returns the Euclidean distance from p to q.
func (p Vec3) Distance(q Vec3) float64 {
	return p.Sub(q).Length()
}

// DistanceXZ returns the distance from p to q on the ground plane,
// ignoring height.
func (p Vec3) DistanceXZ(q Vec3) float64 {
	return math.Hypot(p.X-q.X, p.Z-q.Z)
}

// Lerp returns the linear interpolation between p and q at t in [0,1].
func (p Vec3) Lerp(q Vec3, t float64) Vec3 {
	return Vec3{
		X: p.X + (q.X-p.X)*t,
		Y: p.Y + (q.Y-p.Y)*t,
		Z: p.Z + (q.Z-p.Z)*t,
	}
}

// HeadingTo returns the ground-plane heading from p to q in radians,
// measured from the positive X axis.
func (p Vec3) HeadingTo(q Vec3) float64 {
	return math.Atan2(q.Z-p.Z, q.X-p.X)
}

// MidPoint returns the midpoint between p and q.
func MidPoint(p, q Vec3) Vec3 {
	return p.Lerp(q, 0.5)
}
