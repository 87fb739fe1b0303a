package roads

import (
	"math"
	"math/rand"

	"sprawl/pkg/geo"
	"sprawl/pkg/world"
)

// generateLatticeCell lays out a cell away from the origin. Every Nth cell
// along an axis carries a straight arterial through the cell's center line,
// alternating Highway and MainStreet every other arterial. Cells off the
// lattice get a diagonal side street plus two short connectors aimed at the
// nearest arterial crossing, so every cell is road-reachable.
func (n *Network) generateLatticeCell(coord world.ChunkCoord, rng *rand.Rand) []*Spline {
	edge := n.cfg.World.ChunkEdge
	period := n.cfg.Roads.ArterialPeriod
	min := coord.Min(edge)
	cx := min.X + edge/2
	cz := min.Z + edge/2

	onX := floorMod(coord.X, period) == 0
	onZ := floorMod(coord.Z, period) == 0

	var out []*Spline

	if onX {
		// North-south arterial along the cell's center line. Endpoints sit
		// exactly on the cell edges so neighbors stitch without connectors.
		class := MainStreet
		if floorDiv(coord.X, period)%2 == 0 {
			class = Highway
		}
		out = append(out, &Spline{
			ID:    MakeSplineID(coord, n.nextSeq(coord)),
			Class: class,
			ControlPoints: []geo.Vec3{
				geo.V(cx, 0, min.Z),
				geo.V(cx, 0, min.Z+edge/3),
				geo.V(cx, 0, min.Z+2*edge/3),
				geo.V(cx, 0, min.Z+edge),
			},
		})
	}
	if onZ {
		class := MainStreet
		if floorDiv(coord.Z, period)%2 == 0 {
			class = Highway
		}
		out = append(out, &Spline{
			ID:    MakeSplineID(coord, n.nextSeq(coord)),
			Class: class,
			ControlPoints: []geo.Vec3{
				geo.V(min.X, 0, cz),
				geo.V(min.X+edge/3, 0, cz),
				geo.V(min.X+2*edge/3, 0, cz),
				geo.V(min.X+edge, 0, cz),
			},
		})
	}
	if onX || onZ {
		return out
	}

	// Off-lattice cell: one diagonal side street corner to corner, with its
	// middle control points jittered for variety. Direction flips with the
	// checkerboard parity so adjacent off-lattice cells vary.
	var a, b geo.Vec3
	if floorMod(coord.X+coord.Z, 2) == 0 {
		a = geo.V(min.X, 0, min.Z)
		b = geo.V(min.X+edge, 0, min.Z+edge)
	} else {
		a = geo.V(min.X, 0, min.Z+edge)
		b = geo.V(min.X+edge, 0, min.Z)
	}
	jitter := func(p geo.Vec3) geo.Vec3 {
		p.X += (rng.Float64() - 0.5) * edge * 0.15
		p.Z += (rng.Float64() - 0.5) * edge * 0.15
		return p
	}
	diag := &Spline{
		ID:    MakeSplineID(coord, n.nextSeq(coord)),
		Class: SideStreet,
		ControlPoints: []geo.Vec3{
			a,
			jitter(a.Lerp(b, 1.0/3.0)),
			jitter(a.Lerp(b, 2.0/3.0)),
			b,
		},
	}
	out = append(out, diag)

	// Two alley connectors reaching from the diagonal toward the nearest
	// arterial crossing, so steering can always climb onto the lattice.
	crossing := n.nearestCrossing(coord)
	for _, t := range [...]float64{0.25, 0.75} {
		from := diag.PointAt(t)
		from.Y = 0
		dir := crossing.Sub(from)
		dir.Y = 0
		dir = dir.Normalize()
		if dir == (geo.Vec3{}) {
			continue
		}
		reach := edge * (0.25 + rng.Float64()*0.15)
		to := clampToCell(from.Add(dir.Scale(reach)), min, edge)
		conn := &Spline{
			ID:            MakeSplineID(coord, n.nextSeq(coord)),
			Class:         Alley,
			ControlPoints: []geo.Vec3{from, to},
			Connections:   []SplineID{diag.ID},
		}
		diag.Connections = append(diag.Connections, conn.ID)
		out = append(out, conn)
	}
	return out
}

// generateSpawnCell lays out the hand-authored origin cell: denser curved
// arterials crossing at the spawn plaza, plus short curved feeders.
func (n *Network) generateSpawnCell(coord world.ChunkCoord, rng *rand.Rand) []*Spline {
	edge := n.cfg.World.ChunkEdge
	min := coord.Min(edge)
	cx := min.X + edge/2
	cz := min.Z + edge/2

	curve := func(amount float64) float64 {
		return (rng.Float64() - 0.5) * amount
	}

	ns := &Spline{
		ID:    MakeSplineID(coord, n.nextSeq(coord)),
		Class: Highway,
		ControlPoints: []geo.Vec3{
			geo.V(cx, 0, min.Z),
			geo.V(cx+curve(edge*0.12), 0, min.Z+edge*0.25),
			geo.V(cx, 0, cz),
			geo.V(cx+curve(edge*0.12), 0, min.Z+edge*0.75),
			geo.V(cx, 0, min.Z+edge),
		},
	}
	ew := &Spline{
		ID:    MakeSplineID(coord, n.nextSeq(coord)),
		Class: Highway,
		ControlPoints: []geo.Vec3{
			geo.V(min.X, 0, cz),
			geo.V(min.X+edge*0.25, 0, cz+curve(edge*0.12)),
			geo.V(cx, 0, cz),
			geo.V(min.X+edge*0.75, 0, cz+curve(edge*0.12)),
			geo.V(min.X+edge, 0, cz),
		},
	}
	ns.Connections = append(ns.Connections, ew.ID)
	ew.Connections = append(ew.Connections, ns.ID)
	out := []*Spline{ns, ew}

	// Curved main-street feeders sweeping through the quadrants.
	quadrants := [...][2]float64{{0.25, 0.25}, {0.75, 0.25}, {0.25, 0.75}, {0.75, 0.75}}
	for _, q := range quadrants {
		qc := geo.V(min.X+edge*q[0], 0, min.Z+edge*q[1])
		start := geo.V(qc.X+curve(edge*0.1), 0, min.Z+edge*clamp01(q[1]-0.25))
		end := geo.V(min.X+edge*clamp01(q[0]-0.25), 0, qc.Z+curve(edge*0.1))
		out = append(out, &Spline{
			ID:    MakeSplineID(coord, n.nextSeq(coord)),
			Class: MainStreet,
			ControlPoints: []geo.Vec3{
				start,
				geo.V(qc.X+curve(edge*0.08), 0, qc.Z+curve(edge*0.08)),
				qc,
				end,
			},
		})
	}
	return out
}

// nearestCrossing returns the world position of the closest lattice
// crossing (a cell on the arterial period along both axes).
func (n *Network) nearestCrossing(coord world.ChunkCoord) geo.Vec3 {
	period := n.cfg.Roads.ArterialPeriod
	nearestAxis := func(v int32) int32 {
		d := floorDiv(v, period)
		lo := int32(d * period)
		hi := lo + int32(period)
		if int(v)-int(lo) <= int(hi)-int(v) {
			return lo
		}
		return hi
	}
	cross := world.ChunkCoord{X: nearestAxis(coord.X), Z: nearestAxis(coord.Z)}
	return cross.Center(n.cfg.World.ChunkEdge)
}

// clampToCell keeps a point inside the cell bounds.
func clampToCell(p geo.Vec3, min geo.Vec3, edge float64) geo.Vec3 {
	p.X = math.Max(min.X, math.Min(min.X+edge, p.X))
	p.Z = math.Max(min.Z, math.Min(min.Z+edge, p.Z))
	return p
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// recordBoundaryPoints scans new splines' endpoints for points lying on a
// cell edge (within the configured tolerance) and tags them with the edge
// they touch.
func (n *Network) recordBoundaryPoints(coord world.ChunkCoord, created []*Spline) {
	edge := n.cfg.World.ChunkEdge
	tol := n.cfg.Roads.BoundaryTolerance
	min := coord.Min(edge)

	classify := func(p geo.Vec3) (CellEdge, bool) {
		switch {
		case math.Abs(p.X-(min.X+edge)) <= tol:
			return EdgePosX, true
		case math.Abs(p.X-min.X) <= tol:
			return EdgeNegX, true
		case math.Abs(p.Z-(min.Z+edge)) <= tol:
			return EdgePosZ, true
		case math.Abs(p.Z-min.Z) <= tol:
			return EdgeNegZ, true
		}
		return 0, false
	}

	for _, s := range created {
		if s.Malformed() {
			continue
		}
		for _, p := range [...]geo.Vec3{s.Start(), s.End()} {
			if e, ok := classify(p); ok {
				n.boundary[coord] = append(n.boundary[coord],
					BoundaryPoint{Pos: p, Edge: e, Road: s.ID})
			}
		}
	}
}

// stitchNeighbors pairs this cell's boundary points with matching points on
// the opposite edges of already-generated neighbor cells. Coincident points
// simply link the two roads; near misses within the capture distance get a
// short alley connector owned by this cell. Neither neighbor regenerates.
func (n *Network) stitchNeighbors(coord world.ChunkCoord) {
	capture := n.cfg.Roads.StitchCapture

	for _, bp := range n.boundary[coord] {
		dx, dz := bp.Edge.neighborOffset()
		neighbor := coord.Offset(dx, dz)
		if !n.generated[neighbor] {
			continue
		}

		want := bp.Edge.Opposite()
		var best *BoundaryPoint
		bestDist := capture
		for i := range n.boundary[neighbor] {
			cand := &n.boundary[neighbor][i]
			if cand.Edge != want {
				continue
			}
			if d := bp.Pos.DistanceXZ(cand.Pos); d <= bestDist {
				bestDist = d
				best = cand
			}
		}
		if best == nil {
			continue
		}

		n.link(bp.Road, best.Road)
		if bestDist > 0.5 {
			conn := &Spline{
				ID:            MakeSplineID(coord, n.nextSeq(coord)),
				Class:         Alley,
				ControlPoints: []geo.Vec3{bp.Pos, best.Pos},
				Connections:   []SplineID{bp.Road, best.Road},
			}
			n.addSpline(coord, conn)
			n.link(bp.Road, conn.ID)
			n.link(best.Road, conn.ID)
		}
	}
}

// link records a bidirectional connection between two roads if both exist.
func (n *Network) link(a, b SplineID) {
	sa, okA := n.splines[a]
	sb, okB := n.splines[b]
	if !okA || !okB {
		return
	}
	if !containsID(sa.Connections, b) {
		sa.Connections = append(sa.Connections, b)
	}
	if !containsID(sb.Connections, a) {
		sb.Connections = append(sb.Connections, a)
	}
}

func containsID(ids []SplineID, id SplineID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
