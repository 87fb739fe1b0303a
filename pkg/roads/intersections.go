package roads

import (
	"math"

	"sprawl/pkg/geo"
	"sprawl/pkg/world"
)

// IntersectionID identifies an intersection, encoded like SplineID from the
// owning cell plus a local sequence number.
type IntersectionID uint64

// IntersectionShape describes the junction geometry the mesh layer fans out.
type IntersectionShape uint8

const (
	ShapeCross IntersectionShape = iota
	ShapeT
	ShapeY
)

func (s IntersectionShape) String() string {
	switch s {
	case ShapeCross:
		return "cross"
	case ShapeT:
		return "t"
	case ShapeY:
		return "y"
	default:
		return "invalid"
	}
}

// Intersection is a close-approach point between two or more roads in one
// cell. Radius feeds both the visual fan mesh and the placement void carved
// around the junction.
type Intersection struct {
	ID     IntersectionID    `json:"id"`
	Pos    geo.Vec3          `json:"pos"`
	Roads  []SplineID        `json:"roads"`
	Shape  IntersectionShape `json:"shape"`
	Radius float64           `json:"radius"`
}

// detectIntersections scans a cell's roads pairwise for close-approach
// points after that cell's roads exist. Detection samples each spline, so
// accuracy is bounded by sample density like every other road query.
func (n *Network) detectIntersections(coord world.ChunkCoord) {
	ids := n.cellSplines[coord]
	samples := n.cfg.Roads.QuerySamples
	radius := n.cfg.Roads.IntersectionRadius

	for i := 0; i < len(ids); i++ {
		a, ok := n.Spline(ids[i])
		if !ok || a.Malformed() {
			continue
		}
		for j := i + 1; j < len(ids); j++ {
			b, ok := n.Spline(ids[j])
			if !ok || b.Malformed() {
				continue
			}
			pos, ta, tb, dist := closestApproach(a, b, samples)
			if dist > (a.Class.Width()+b.Class.Width())/2 {
				continue
			}
			if n.nearExistingIntersection(coord, pos, radius) {
				continue
			}
			n.link(a.ID, b.ID)
			x := &Intersection{
				ID:     IntersectionID(coord.Pack()<<16 | uint64(n.nextSeq(coord))),
				Pos:    pos,
				Roads:  []SplineID{a.ID, b.ID},
				Shape:  junctionShape(a, b, ta, tb),
				Radius: radius,
			}
			n.intersections[x.ID] = x
			n.cellXs[coord] = append(n.cellXs[coord], x.ID)
		}
	}
}

// closestApproach finds the minimum-distance pair of sample points between
// two splines and returns their midpoint, the parameters, and the distance.
func closestApproach(a, b *Spline, samples int) (geo.Vec3, float64, float64, float64) {
	best := math.MaxFloat64
	var bestPos geo.Vec3
	var bestTA, bestTB float64

	for i := 0; i <= samples; i++ {
		ta := float64(i) / float64(samples)
		pa := a.PointAt(ta)
		for j := 0; j <= samples; j++ {
			tb := float64(j) / float64(samples)
			pb := b.PointAt(tb)
			if d := pa.DistanceXZ(pb); d < best {
				best = d
				bestPos = geo.MidPoint(pa, pb)
				bestTA, bestTB = ta, tb
			}
		}
	}
	bestPos.Y = 0
	return bestPos, bestTA, bestTB, best
}

// junctionShape classifies the junction from where on each road the
// approach happens and the crossing angle: mid-road crossings are crosses,
// an endpoint meeting mid-road is a T, endpoint-to-endpoint merges are Ys.
func junctionShape(a, b *Spline, ta, tb float64) IntersectionShape {
	endA := ta < 0.1 || ta > 0.9
	endB := tb < 0.1 || tb > 0.9
	switch {
	case endA && endB:
		return ShapeY
	case endA || endB:
		return ShapeT
	default:
		return ShapeCross
	}
}

// nearExistingIntersection suppresses duplicate detections within the
// void radius of an already recorded junction in the same cell.
func (n *Network) nearExistingIntersection(coord world.ChunkCoord, pos geo.Vec3, radius float64) bool {
	for _, id := range n.cellXs[coord] {
		if x, ok := n.intersections[id]; ok && x.Pos.DistanceXZ(pos) < radius {
			return true
		}
	}
	return false
}
