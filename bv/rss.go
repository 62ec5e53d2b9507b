package bv

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/proximity/spatial"
)

// RSS is a rectangle swept sphere: all points within distance R of a 3D
// rectangle. The columns of Axes are the rectangle's edge directions (0, 1)
// and its normal (2); Corner is the rectangle's origin corner in the owning
// model's frame and L holds the two side lengths.
type RSS struct {
	Axes   spatial.RotationMatrix
	Corner r3.Vector
	L      [2]float64
	R      float64
}

// BoundingSphere returns a sphere centered on the rectangle that encloses the volume.
func (b RSS) BoundingSphere() (r3.Vector, float64) {
	center := b.Corner.
		Add(b.Axes.Col(0).Mul(b.L[0] / 2)).
		Add(b.Axes.Col(1).Mul(b.L[1] / 2))
	return center, math.Hypot(b.L[0], b.L[1])/2 + b.R
}

func (b RSS) corners() [4]r3.Vector {
	e0 := b.Axes.Col(0).Mul(b.L[0])
	e1 := b.Axes.Col(1).Mul(b.L[1])
	return [4]r3.Vector{
		b.Corner,
		b.Corner.Add(e0),
		b.Corner.Add(e1),
		b.Corner.Add(e0).Add(e1),
	}
}

// closestOnRectangle returns the closest point of the rectangle to p.
func (b RSS) closestOnRectangle(p r3.Vector) r3.Vector {
	d := p.Sub(b.Corner)
	u := math.Min(math.Max(d.Dot(b.Axes.Col(0)), 0), b.L[0])
	v := math.Min(math.Max(d.Dot(b.Axes.Col(1)), 0), b.L[1])
	return b.Corner.Add(b.Axes.Col(0).Mul(u)).Add(b.Axes.Col(1).Mul(v))
}

// transformed returns a copy of the volume expressed through (rm, tv).
func (b RSS) transformed(rm spatial.RotationMatrix, tv r3.Vector) RSS {
	return RSS{
		Axes:   rm.Mul(b.Axes),
		Corner: rm.MulVec(b.Corner).Add(tv),
		L:      b.L,
		R:      b.R,
	}
}

// RSSDistance computes the exact distance between the two volumes under the
// relative transform, with a witness pair expressed in the first model's
// frame. Intersecting volumes yield a zero distance; the witnesses then lie
// on the underlying rectangles at the pair of closest rectangle points.
func RSSDistance(rm spatial.RotationMatrix, tv r3.Vector, b1, b2 RSS) (float64, r3.Vector, r3.Vector) {
	d, p1, p2 := rectDistance(b1, b2.transformed(rm, tv))
	if d > 1e-12 {
		dir := p2.Sub(p1).Mul(1 / d)
		p1 = p1.Add(dir.Mul(math.Min(b1.R, d)))
		p2 = p2.Sub(dir.Mul(math.Min(b2.R, d)))
	}
	return math.Max(d-b1.R-b2.R, 0), p1, p2
}

// RSSDisjoint reports whether the two volumes are provably separated.
func RSSDisjoint(rm spatial.RotationMatrix, tv r3.Vector, b1, b2 RSS) bool {
	d, _, _ := RSSDistance(rm, tv, b1, b2)
	return d > 0
}

// rectEdges enumerates a rectangle's four boundary segments.
func rectEdges(c [4]r3.Vector) [4][2]r3.Vector {
	return [4][2]r3.Vector{
		{c[0], c[1]},
		{c[0], c[2]},
		{c[1], c[3]},
		{c[2], c[3]},
	}
}

// pierce returns the point where the segment crosses the rectangle's
// interior, if it does.
func (b RSS) pierce(p, q r3.Vector) (r3.Vector, bool) {
	n := b.Axes.Col(2)
	dp := p.Sub(b.Corner).Dot(n)
	dq := q.Sub(b.Corner).Dot(n)
	if dp*dq > 0 || dp == dq {
		return r3.Vector{}, false
	}
	hit := p.Add(q.Sub(p).Mul(dp / (dp - dq)))
	d := hit.Sub(b.Corner)
	u := d.Dot(b.Axes.Col(0))
	v := d.Dot(b.Axes.Col(1))
	if u < 0 || u > b.L[0] || v < 0 || v > b.L[1] {
		return r3.Vector{}, false
	}
	return hit, true
}

// rectDistance returns the minimum distance between two rectangles in the
// same frame along with the realizing point pair. Non-touching and
// face-to-face configurations are covered by the sixteen edge-edge pairs plus
// the eight corner-to-rectangle projections; an edge piercing the other
// rectangle's interior is the one remaining contact case and is tested
// directly.
func rectDistance(a, b RSS) (float64, r3.Vector, r3.Vector) {
	ca := a.corners()
	cb := b.corners()

	for _, ea := range rectEdges(ca) {
		if hit, ok := b.pierce(ea[0], ea[1]); ok {
			return 0, hit, hit
		}
	}
	for _, eb := range rectEdges(cb) {
		if hit, ok := a.pierce(eb[0], eb[1]); ok {
			return 0, hit, hit
		}
	}

	best := math.Inf(1)
	var bp1, bp2 r3.Vector

	for _, ea := range rectEdges(ca) {
		for _, eb := range rectEdges(cb) {
			p1, p2 := spatial.ClosestPointsSegmentSegment(ea[0], ea[1], eb[0], eb[1])
			if d := p2.Sub(p1).Norm(); d < best {
				best, bp1, bp2 = d, p1, p2
			}
		}
	}
	for _, p := range cb {
		q := a.closestOnRectangle(p)
		if d := p.Sub(q).Norm(); d < best {
			best, bp1, bp2 = d, q, p
		}
	}
	for _, p := range ca {
		q := b.closestOnRectangle(p)
		if d := p.Sub(q).Norm(); d < best {
			best, bp1, bp2 = d, p, q
		}
	}
	return best, bp1, bp2
}
