// Package roads generates and owns the deterministic road network: spline
// roads and intersections generated per world cell from a coordinate-derived
// seed, stitched across cell boundaries, with the approximate geometry
// queries every other generator and the steering layer build on.
package roads

// Class ranks a road. Each class carries a fixed surface width and a small
// vertical offset so overlapping surfaces of different classes never
// z-fight.
type Class uint8

const (
	Highway Class = iota
	MainStreet
	SideStreet
	Alley
)

func (c Class) String() string {
	switch c {
	case Highway:
		return "highway"
	case MainStreet:
		return "main_street"
	case SideStreet:
		return "side_street"
	case Alley:
		return "alley"
	default:
		return "invalid"
	}
}

// Width returns the full surface width of the class in world units.
func (c Class) Width() float64 {
	switch c {
	case Highway:
		return 16
	case MainStreet:
		return 12
	case SideStreet:
		return 8
	case Alley:
		return 5
	default:
		return 8
	}
}

// VerticalOffset returns the class's surface height. Higher-ranked roads
// sit fractionally above lower-ranked ones.
func (c Class) VerticalOffset() float64 {
	switch c {
	case Highway:
		return 0.15
	case MainStreet:
		return 0.10
	case SideStreet:
		return 0.05
	case Alley:
		return 0.02
	default:
		return 0
	}
}
