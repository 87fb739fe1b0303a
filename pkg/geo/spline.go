package geo

// NearestPointOnSegment returns the closest point on segment ab to p,
// along with the distance to it.
func NearestPointOnSegment(p, a, b Vec3) (Vec3, float64) {
	ab := b.Sub(a)
	abLen2 := ab.Dot(ab)
	if abLen2 < 1e-12 {
		return a, p.Distance(a)
	}
	t := p.Sub(a).Dot(ab) / abLen2
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	closest := a.Add(ab.Scale(t))
	return closest, p.Distance(closest)
}

// CatmullRomPoint evaluates a single point on a Catmull-Rom spline segment
// through p1..p2 with neighbors p0 and p3, at t in [0,1]. Tension 0.5 gives
// the standard centripetal spline.
func CatmullRomPoint(p0, p1, p2, p3 Vec3, t, tension float64) Vec3 {
	t2 := t * t
	t3 := t2 * t
	s := tension

	eval := func(a0, a1, a2, a3 float64) float64 {
		return 0.5 * ((-s*a0+(2-s)*a1+(s-2)*a2+s*a3)*t3 +
			(2*s*a0+(s-3)*a1+(3-2*s)*a2-s*a3)*t2 +
			(-s*a0+s*a2)*t +
			2*a1)
	}

	return Vec3{
		X: eval(p0.X, p1.X, p2.X, p3.X),
		Y: eval(p0.Y, p1.Y, p2.Y, p3.Y),
		Z: eval(p0.Z, p1.Z, p2.Z, p3.Z),
	}
}

// CatmullRomAt evaluates a Catmull-Rom spline through the given control
// points at global parameter t in [0,1]. Phantom endpoints are derived by
// reflecting the first and last segments, so the curve passes through every
// control point. Fewer than 2 points degenerate to the first point (or the
// origin for an empty list); 2 or 3 points interpolate linearly along the
// polyline.
func CatmullRomAt(controlPoints []Vec3, t float64) Vec3 {
	n := len(controlPoints)
	switch {
	case n == 0:
		return Vec3{}
	case n == 1:
		return controlPoints[0]
	case n < 4:
		return polylineAt(controlPoints, t)
	}

	if t <= 0 {
		return controlPoints[0]
	}
	if t >= 1 {
		return controlPoints[n-1]
	}

	// Map global t onto one of the n-1 segments.
	scaled := t * float64(n-1)
	seg := int(scaled)
	if seg > n-2 {
		seg = n - 2
	}
	local := scaled - float64(seg)

	p1 := controlPoints[seg]
	p2 := controlPoints[seg+1]

	var p0 Vec3
	if seg == 0 {
		p0 = p1.Add(p1.Sub(p2))
	} else {
		p0 = controlPoints[seg-1]
	}

	var p3 Vec3
	if seg+2 > n-1 {
		p3 = p2.Add(p2.Sub(p1))
	} else {
		p3 = controlPoints[seg+2]
	}

	return CatmullRomPoint(p0, p1, p2, p3, local, 0.5)
}

// polylineAt returns the point at fraction t of the polyline's arc length.
func polylineAt(pts []Vec3, t float64) Vec3 {
	if t <= 0 {
		return pts[0]
	}
	if t >= 1 {
		return pts[len(pts)-1]
	}

	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += pts[i-1].Distance(pts[i])
	}
	if total < 1e-12 {
		return pts[0]
	}

	target := t * total
	walked := 0.0
	for i := 1; i < len(pts); i++ {
		segLen := pts[i-1].Distance(pts[i])
		if walked+segLen >= target {
			return pts[i-1].Lerp(pts[i], (target-walked)/segLen)
		}
		walked += segLen
	}
	return pts[len(pts)-1]
}
