package bv

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/proximity/spatial"
)

// kdopDirs are the nine support directions of an 18-DOP: the coordinate axes
// and the six diagonal directions. Each direction bounds the geometry with a
// min/max interval of (unnormalized) point projections.
var kdopDirs = [9]r3.Vector{
	{X: 1}, {Y: 1}, {Z: 1},
	{X: 1, Y: 1}, {X: 1, Z: 1}, {Y: 1, Z: 1},
	{X: 1, Y: -1}, {X: 1, Z: -1}, {Y: 1, Z: -1},
}

// kdopNorms caches the direction norms for gap normalization.
var kdopNorms = [9]float64{1, 1, 1, math.Sqrt2, math.Sqrt2, math.Sqrt2, math.Sqrt2, math.Sqrt2, math.Sqrt2}

// KDOP18 is a discrete oriented polytope with 18 support planes.
type KDOP18 struct {
	Min, Max [9]float64
}

// FitKDOP18 bounds the given points with an 18-DOP.
func FitKDOP18(pts []r3.Vector) KDOP18 {
	var k KDOP18
	for i := range k.Min {
		k.Min[i] = math.Inf(1)
		k.Max[i] = math.Inf(-1)
	}
	for _, p := range pts {
		for i, dir := range kdopDirs {
			proj := p.Dot(dir)
			k.Min[i] = math.Min(k.Min[i], proj)
			k.Max[i] = math.Max(k.Max[i], proj)
		}
	}
	return k
}

// AABB returns the axis-aligned part of the polytope.
func (k KDOP18) AABB() AABB {
	return AABB{
		Min: r3.Vector{X: k.Min[0], Y: k.Min[1], Z: k.Min[2]},
		Max: r3.Vector{X: k.Max[0], Y: k.Max[1], Z: k.Max[2]},
	}
}

// BoundingSphere returns a sphere enclosing the polytope, derived from its
// axis-aligned part.
func (k KDOP18) BoundingSphere() (r3.Vector, float64) {
	box := k.AABB()
	center := box.Min.Add(box.Max).Mul(0.5)
	return center, box.Max.Sub(box.Min).Norm() / 2
}

// KDOP18Gap returns the maximum normalized interval gap between the two
// polytopes under the relative transform. The test is exact when the
// transform carries no rotation; otherwise the second polytope is re-bounded
// from its transformed axis-aligned corners, which can only widen it, so a
// positive gap still certifies separation and the clamped gap remains an
// admissible distance lower bound.
func KDOP18Gap(rm spatial.RotationMatrix, tv r3.Vector, k1, k2 KDOP18) float64 {
	other := k2
	if !rotationIsIdentity(rm) {
		corners := k2.AABB().Corners()
		moved := make([]r3.Vector, 0, len(corners))
		for _, c := range corners {
			moved = append(moved, rm.MulVec(c).Add(tv))
		}
		other = FitKDOP18(moved)
	} else {
		for i, dir := range kdopDirs {
			shift := tv.Dot(dir)
			other.Min[i] += shift
			other.Max[i] += shift
		}
	}

	best := math.Inf(-1)
	for i := range kdopDirs {
		gap := math.Max(k1.Min[i]-other.Max[i], other.Min[i]-k1.Max[i]) / kdopNorms[i]
		if gap > best {
			best = gap
		}
	}
	return best
}

// KDOP18Disjoint reports whether the polytopes are provably separated.
func KDOP18Disjoint(rm spatial.RotationMatrix, tv r3.Vector, k1, k2 KDOP18) bool {
	return KDOP18Gap(rm, tv, k1, k2) > 0
}

// KDOP18DistanceLowerBound returns a non-negative lower bound on the distance
// between geometry enclosed by the two polytopes.
func KDOP18DistanceLowerBound(rm spatial.RotationMatrix, tv r3.Vector, k1, k2 KDOP18) float64 {
	return math.Max(KDOP18Gap(rm, tv, k1, k2), 0)
}

func rotationIsIdentity(rm spatial.RotationMatrix) bool {
	const eps = 1e-12
	id := spatial.IdentityRotation()
	for i := range rm {
		if math.Abs(rm[i]-id[i]) > eps {
			return false
		}
	}
	return true
}
