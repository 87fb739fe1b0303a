package roads

import (
	"math"

	"sprawl/pkg/geo"
	"sprawl/pkg/world"
)

// candidateSplines gathers the splines owned by the cell containing pos and
// its 8 neighbors. Road geometry never reaches further than one cell from
// its owner, so this covers every spline that could be near pos.
func (n *Network) candidateSplines(pos geo.Vec3) []SplineID {
	center := world.CoordFromWorldPos(pos, n.cfg.World.ChunkEdge)
	var out []SplineID
	for dx := int32(-1); dx <= 1; dx++ {
		for dz := int32(-1); dz <= 1; dz++ {
			out = append(out, n.cellSplines[center.Offset(dx, dz)]...)
		}
	}
	return out
}

// IsNearRoad reports whether pos lies within half a road's class width plus
// tolerance of any road surface. Splines are walked at a fixed number of
// parametric steps and tested segment-by-segment; this is a deliberately
// cheap approximation, not an exact distance to the curve.
func (n *Network) IsNearRoad(pos geo.Vec3, tolerance float64) bool {
	samples := n.cfg.Roads.QuerySamples
	flat := geo.V(pos.X, 0, pos.Z)

	for _, id := range n.candidateSplines(pos) {
		s, ok := n.Spline(id)
		if !ok || s.Malformed() {
			continue
		}
		limit := s.Class.Width()/2 + tolerance
		prev := flatten(s.PointAt(0))
		for i := 1; i <= samples; i++ {
			cur := flatten(s.PointAt(float64(i) / float64(samples)))
			if _, d := geo.NearestPointOnSegment(flat, prev, cur); d <= limit {
				return true
			}
			prev = cur
		}
	}
	return false
}

// NearestRoadPoint returns the closest sampled road point to pos. Accuracy
// is bounded by the sample density; callers needing sub-meter precision
// must not rely on it. The second return is false when no roads exist near
// pos or anywhere in the network.
func (n *Network) NearestRoadPoint(pos geo.Vec3) (geo.Vec3, bool) {
	ids := n.candidateSplines(pos)
	if len(ids) == 0 {
		// Far from any generated cell: fall back to scanning everything so
		// steering far off-grid still gets an answer.
		ids = make([]SplineID, 0, len(n.splines))
		for id := range n.splines {
			ids = append(ids, id)
		}
	}

	samples := n.cfg.Roads.QuerySamples
	best := math.MaxFloat64
	var bestPt geo.Vec3
	found := false

	for _, id := range ids {
		s, ok := n.Spline(id)
		if !ok || s.Malformed() {
			continue
		}
		for i := 0; i <= samples; i++ {
			p := s.PointAt(float64(i) / float64(samples))
			if d := pos.DistanceXZ(p); d < best {
				best = d
				bestPt = p
				found = true
			}
		}
	}
	return bestPt, found
}

func flatten(p geo.Vec3) geo.Vec3 {
	p.Y = 0
	return p
}
