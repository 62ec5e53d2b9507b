package bv

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/proximity/spatial"
)

// principalAxes computes an orthonormal, right-handed frame whose columns are
// the principal directions of the point set, ordered by decreasing variance.
func principalAxes(pts []r3.Vector) spatial.RotationMatrix {
	var mean r3.Vector
	for _, p := range pts {
		mean = mean.Add(p)
	}
	mean = mean.Mul(1 / float64(len(pts)))

	cov := mat.NewSymDense(3, nil)
	for _, p := range pts {
		d := p.Sub(mean)
		v := [3]float64{d.X, d.Y, d.Z}
		for i := 0; i < 3; i++ {
			for j := i; j < 3; j++ {
				cov.SetSym(i, j, cov.At(i, j)+v[i]*v[j])
			}
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return spatial.IdentityRotation()
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	order := []int{0, 1, 2}
	sort.Slice(order, func(i, j int) bool { return vals[order[i]] > vals[order[j]] })

	col := func(i int) r3.Vector {
		return r3.Vector{X: vecs.At(0, order[i]), Y: vecs.At(1, order[i]), Z: vecs.At(2, order[i])}
	}
	c0, c1 := col(0), col(1)
	// Rebuild the last column from the cross product to guarantee a
	// right-handed orthonormal frame even for degenerate point sets.
	c2 := c0.Cross(c1)
	if c2.Norm() < 1e-9 {
		return spatial.IdentityRotation()
	}
	c2 = c2.Normalize()
	return spatial.RotationMatrix{
		c0.X, c1.X, c2.X,
		c0.Y, c1.Y, c2.Y,
		c0.Z, c1.Z, c2.Z,
	}
}

// projectionRange returns the min and max projections of pts on axis.
func projectionRange(pts []r3.Vector, axis r3.Vector) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		proj := p.Dot(axis)
		lo = math.Min(lo, proj)
		hi = math.Max(hi, proj)
	}
	return lo, hi
}

// FitOBB bounds the given points with an oriented box along their principal axes.
func FitOBB(pts []r3.Vector) OBB {
	axes := principalAxes(pts)
	lo0, hi0 := projectionRange(pts, axes.Col(0))
	lo1, hi1 := projectionRange(pts, axes.Col(1))
	lo2, hi2 := projectionRange(pts, axes.Col(2))
	mid := r3.Vector{X: (lo0 + hi0) / 2, Y: (lo1 + hi1) / 2, Z: (lo2 + hi2) / 2}
	return OBB{
		Axes:   axes,
		Center: axes.MulVec(mid),
		Extent: r3.Vector{X: (hi0 - lo0) / 2, Y: (hi1 - lo1) / 2, Z: (hi2 - lo2) / 2},
	}
}

// FitRSS bounds the given points with a rectangle swept sphere: the rectangle
// spans the two dominant principal directions and the sweep radius absorbs
// the thickness along the remaining one.
func FitRSS(pts []r3.Vector) RSS {
	axes := principalAxes(pts)
	lo0, hi0 := projectionRange(pts, axes.Col(0))
	lo1, hi1 := projectionRange(pts, axes.Col(1))
	lo2, hi2 := projectionRange(pts, axes.Col(2))
	corner := axes.MulVec(r3.Vector{X: lo0, Y: lo1, Z: (lo2 + hi2) / 2})
	return RSS{
		Axes:   axes,
		Corner: corner,
		L:      [2]float64{hi0 - lo0, hi1 - lo1},
		R:      (hi2 - lo2) / 2,
	}
}
