package traverse

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/proximity/spatial"
)

// The triangle oracles below are the exact leaf-level computations shared by
// every bounding-volume kind. Both triangles are expected in the same frame;
// callers map the second mesh's vertices through the relative transform
// before invoking them.

const triTol = 1e-10

// closestInsideTrianglePoint analytically minimizes the distance from p to
// the triangle's plane parametrization; ok is true only when the minimizer
// falls inside the triangle.
func closestInsideTrianglePoint(p, a, b, c r3.Vector) (r3.Vector, bool) {
	const eps = 1e-6
	e0 := b.Sub(a)
	e1 := c.Sub(a)
	va := e0.Norm2()
	vb := e0.Dot(e1)
	vc := e1.Norm2()
	d := p.Sub(a)
	det := va*vc - vb*vb
	if det == 0 {
		return p, false
	}
	u := (vc*e0.Dot(d) - vb*e1.Dot(d)) / det
	v := (-vb*e0.Dot(d) + va*e1.Dot(d)) / det
	inside := u >= -eps && v >= -eps && u+v <= 1+eps
	return a.Add(e0.Mul(u)).Add(e1.Mul(v)), inside
}

// closestTrianglePoint returns the closest point of the triangle to p.
func closestTrianglePoint(p, a, b, c r3.Vector) r3.Vector {
	if pt, inside := closestInsideTrianglePoint(p, a, b, c); inside {
		return pt
	}
	closest := spatial.ClosestPointSegmentPoint(a, b, p)
	best := p.Sub(closest).Norm2()
	if pt := spatial.ClosestPointSegmentPoint(b, c, p); p.Sub(pt).Norm2() < best {
		closest = pt
		best = p.Sub(pt).Norm2()
	}
	if pt := spatial.ClosestPointSegmentPoint(c, a, p); p.Sub(pt).Norm2() < best {
		return pt
	}
	return closest
}

// triDistance computes the exact minimum distance between two triangles and
// a realizing witness pair. Intersecting triangles yield zero with both
// witnesses at a shared point of the intersection.
func triDistance(p1, p2, p3, q1, q2, q3 r3.Vector) (float64, r3.Vector, r3.Vector) {
	if hit, s1, s2 := triTriIntersectSegment(p1, p2, p3, q1, q2, q3); hit {
		mid := s1.Add(s2).Mul(0.5)
		return 0, mid, mid
	}

	pEdges := [3][2]r3.Vector{{p1, p2}, {p2, p3}, {p3, p1}}
	qEdges := [3][2]r3.Vector{{q1, q2}, {q2, q3}, {q3, q1}}

	best := math.Inf(1)
	var w1, w2 r3.Vector
	for _, pe := range pEdges {
		for _, qe := range qEdges {
			a, b := spatial.ClosestPointsSegmentSegment(pe[0], pe[1], qe[0], qe[1])
			if d := b.Sub(a).Norm2(); d < best {
				best, w1, w2 = d, a, b
			}
		}
	}
	for _, q := range [3]r3.Vector{q1, q2, q3} {
		pt := closestTrianglePoint(q, p1, p2, p3)
		if d := q.Sub(pt).Norm2(); d < best {
			best, w1, w2 = d, pt, q
		}
	}
	for _, p := range [3]r3.Vector{p1, p2, p3} {
		pt := closestTrianglePoint(p, q1, q2, q3)
		if d := p.Sub(pt).Norm2(); d < best {
			best, w1, w2 = d, p, pt
		}
	}
	return math.Sqrt(best), w1, w2
}

// classify maps a signed plane distance to -1, 0 or +1 under tolerance.
func classify(d, tol float64) int {
	if d > tol {
		return 1
	}
	if d < -tol {
		return -1
	}
	return 0
}

// planeSegment collects the (up to two) points where the triangle crosses the
// plane whose signed distances to the vertices are d.
func planeSegment(v [3]r3.Vector, d [3]float64, s [3]int) (r3.Vector, r3.Vector, bool) {
	var pts []r3.Vector
	for i := 0; i < 3; i++ {
		if s[i] == 0 {
			pts = append(pts, v[i])
		}
		j := (i + 1) % 3
		if s[i]*s[j] < 0 {
			t := d[i] / (d[i] - d[j])
			pts = append(pts, v[i].Add(v[j].Sub(v[i]).Mul(t)))
		}
	}
	switch len(pts) {
	case 0:
		return r3.Vector{}, r3.Vector{}, false
	case 1:
		return pts[0], pts[0], true
	default:
		return pts[0], pts[1], true
	}
}

// triTriIntersectSegment decides triangle-triangle intersection (Möller's
// interval test) and, on intersection, returns the endpoints of the shared
// segment, which serve as contact points.
func triTriIntersectSegment(p1, p2, p3, q1, q2, q3 r3.Vector) (bool, r3.Vector, r3.Vector) {
	pv := [3]r3.Vector{p1, p2, p3}
	qv := [3]r3.Vector{q1, q2, q3}

	nq := q2.Sub(q1).Cross(q3.Sub(q1))
	tolQ := triTol * nq.Norm()
	var dp [3]float64
	var sp [3]int
	for i, v := range pv {
		dp[i] = v.Sub(q1).Dot(nq)
		sp[i] = classify(dp[i], tolQ)
	}
	if sp[0] > 0 && sp[1] > 0 && sp[2] > 0 {
		return false, r3.Vector{}, r3.Vector{}
	}
	if sp[0] < 0 && sp[1] < 0 && sp[2] < 0 {
		return false, r3.Vector{}, r3.Vector{}
	}

	np := p2.Sub(p1).Cross(p3.Sub(p1))
	tolP := triTol * np.Norm()
	var dq [3]float64
	var sq [3]int
	for i, v := range qv {
		dq[i] = v.Sub(p1).Dot(np)
		sq[i] = classify(dq[i], tolP)
	}
	if sq[0] > 0 && sq[1] > 0 && sq[2] > 0 {
		return false, r3.Vector{}, r3.Vector{}
	}
	if sq[0] < 0 && sq[1] < 0 && sq[2] < 0 {
		return false, r3.Vector{}, r3.Vector{}
	}

	if sp[0] == 0 && sp[1] == 0 && sp[2] == 0 {
		return coplanarTriTri(nq, pv, qv)
	}

	a1, a2, okP := planeSegment(pv, dp, sp)
	b1, b2, okQ := planeSegment(qv, dq, sq)
	if !okP || !okQ {
		return false, r3.Vector{}, r3.Vector{}
	}

	// Both crossing segments lie on the planes' intersection line; compare
	// their extents by projection onto its direction.
	dir := np.Cross(nq)
	ta1, ta2 := a1.Dot(dir), a2.Dot(dir)
	if ta1 > ta2 {
		ta1, ta2 = ta2, ta1
		a1, a2 = a2, a1
	}
	tb1, tb2 := b1.Dot(dir), b2.Dot(dir)
	if tb1 > tb2 {
		tb1, tb2 = tb2, tb1
		b1, b2 = b2, b1
	}
	if math.Max(ta1, tb1) > math.Min(ta2, tb2) {
		return false, r3.Vector{}, r3.Vector{}
	}

	lo := a1
	if tb1 > ta1 {
		lo = b1
	}
	hi := a2
	if tb2 < ta2 {
		hi = b2
	}
	return true, lo, hi
}

// coplanarTriTri resolves the coplanar case by projecting onto the dominant
// axis of the shared normal and testing edge crossings and containment.
func coplanarTriTri(n r3.Vector, pv, qv [3]r3.Vector) (bool, r3.Vector, r3.Vector) {
	ax, ay := dominantPlaneAxes(n)
	p2d := [3][2]float64{}
	q2d := [3][2]float64{}
	for i := 0; i < 3; i++ {
		p2d[i] = [2]float64{component(pv[i], ax), component(pv[i], ay)}
		q2d[i] = [2]float64{component(qv[i], ax), component(qv[i], ay)}
	}

	var hits []r3.Vector
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if t, u, ok := segSegIntersect2D(p2d[i], p2d[(i+1)%3], q2d[j], q2d[(j+1)%3]); ok {
				_ = u
				pt := pv[i].Add(pv[(i+1)%3].Sub(pv[i]).Mul(t))
				hits = append(hits, pt)
			}
		}
	}
	if len(hits) > 0 {
		if len(hits) == 1 {
			return true, hits[0], hits[0]
		}
		return true, hits[0], hits[len(hits)-1]
	}

	// No edge crossings: one triangle may contain the other entirely.
	if pointInTri2D(p2d[0], q2d) {
		center := pv[0].Add(pv[1]).Add(pv[2]).Mul(1.0 / 3.0)
		return true, center, center
	}
	if pointInTri2D(q2d[0], p2d) {
		center := qv[0].Add(qv[1]).Add(qv[2]).Mul(1.0 / 3.0)
		return true, center, center
	}
	return false, r3.Vector{}, r3.Vector{}
}

func dominantPlaneAxes(n r3.Vector) (int, int) {
	ax, ay, az := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)
	switch {
	case az >= ax && az >= ay:
		return 0, 1
	case ay >= ax:
		return 0, 2
	default:
		return 1, 2
	}
}

func component(v r3.Vector, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// segSegIntersect2D intersects two 2D segments, returning the parameters on
// each when they cross.
func segSegIntersect2D(a1, a2, b1, b2 [2]float64) (float64, float64, bool) {
	dax, day := a2[0]-a1[0], a2[1]-a1[1]
	dbx, dby := b2[0]-b1[0], b2[1]-b1[1]
	denom := dax*dby - day*dbx
	if math.Abs(denom) < 1e-15 {
		return 0, 0, false
	}
	rx, ry := b1[0]-a1[0], b1[1]-a1[1]
	t := (rx*dby - ry*dbx) / denom
	u := (rx*day - ry*dax) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, 0, false
	}
	return t, u, true
}

func pointInTri2D(p [2]float64, tri [3][2]float64) bool {
	sign := func(a, b, c [2]float64) float64 {
		return (a[0]-c[0])*(b[1]-c[1]) - (b[0]-c[0])*(a[1]-c[1])
	}
	d1 := sign(p, tri[0], tri[1])
	d2 := sign(p, tri[1], tri[2])
	d3 := sign(p, tri[2], tri[0])
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

// triContact decides intersection and computes contact detail: up to two
// contact points (the intersection segment's endpoints), a shared penetration
// depth, and a normal pointing from the first triangle toward the second.
// The computation is symmetric: swapping the triangles preserves the depth
// and flips the normal.
func triContact(p1, p2, p3, q1, q2, q3 r3.Vector) (bool, [2]r3.Vector, int, float64, r3.Vector) {
	hit, s1, s2 := triTriIntersectSegment(p1, p2, p3, q1, q2, q3)
	if !hit {
		return false, [2]r3.Vector{}, 0, 0, r3.Vector{}
	}
	pts := [2]r3.Vector{s1, s2}
	numPts := 2
	if s1.Sub(s2).Norm() < triTol {
		numPts = 1
	}

	np := p2.Sub(p1).Cross(p3.Sub(p1)).Normalize()
	nq := q2.Sub(q1).Cross(q3.Sub(q1)).Normalize()

	// Penetration along the first triangle's normal: the smaller overhang of
	// the second triangle about the first's plane.
	t0 := np.Dot(p1)
	qlo, qhi := projRange(np, q1, q2, q3)
	depthP := math.Min(qhi-t0, t0-qlo)
	dirP := np
	if qhi-t0 < t0-qlo {
		dirP = np.Mul(-1)
	}

	s0 := nq.Dot(q1)
	plo, phi := projRange(nq, p1, p2, p3)
	depthQ := math.Min(phi-s0, s0-plo)
	dirQ := nq.Mul(-1)
	if phi-s0 < s0-plo {
		dirQ = nq
	}

	depth, normal := depthP, dirP
	if depthQ < depthP {
		depth, normal = depthQ, dirQ
	}
	return true, pts, numPts, math.Max(depth, 0), normal
}

func projRange(axis, a, b, c r3.Vector) (float64, float64) {
	lo := axis.Dot(a)
	hi := lo
	for _, v := range []r3.Vector{b, c} {
		p := axis.Dot(v)
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	return lo, hi
}
