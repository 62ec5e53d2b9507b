package bv

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/proximity/spatial"
)

// OBB is an oriented bounding box. The columns of Axes are the box's local
// axes expressed in the owning model's frame; Extent holds half sizes.
type OBB struct {
	Axes   spatial.RotationMatrix
	Center r3.Vector
	Extent r3.Vector
}

// BoundingSphere returns the center and radius of the smallest sphere
// centered on the box that encloses it.
func (b OBB) BoundingSphere() (r3.Vector, float64) {
	return b.Center, b.Extent.Norm()
}

// OBBDisjoint reports whether the two boxes, compared under the relative
// transform (rm, tv) between their model frames, are provably separated.
func OBBDisjoint(rm spatial.RotationMatrix, tv r3.Vector, b1, b2 OBB) bool {
	return OBBSeparationGap(rm, tv, b1, b2) > 0
}

// OBBSeparationGap computes the maximum separation gap across the 15 SAT axes
// of two oriented boxes (Ericson, "Real-Time Collision Detection" Ch. 4.4).
// Positive: the boxes are separated by at least this distance along some
// axis, which makes the clamped value an admissible distance lower bound.
// Negative: the boxes overlap, with this penetration along the best axis.
func OBBSeparationGap(rm spatial.RotationMatrix, tv r3.Vector, b1, b2 OBB) float64 {
	const eps = 1e-10

	// Box-to-box rotation and translation, expressed in b1's box frame.
	b := b1.Axes.TransposeMul(rm.Mul(b2.Axes))
	tWorld := rm.MulVec(b2.Center).Add(tv).Sub(b1.Center)
	t := b1.Axes.TransposeMulVec(tWorld)

	r00, r01, r02 := b[0], b[1], b[2]
	r10, r11, r12 := b[3], b[4], b[5]
	r20, r21, r22 := b[6], b[7], b[8]
	t0, t1, t2 := t.X, t.Y, t.Z
	hA0, hA1, hA2 := b1.Extent.X, b1.Extent.Y, b1.Extent.Z
	hB0, hB1, hB2 := b2.Extent.X, b2.Extent.Y, b2.Extent.Z

	// absR[i][j] = |R[i][j]| + eps; epsilon guards near-parallel edges.
	ar00 := math.Abs(r00) + eps
	ar01 := math.Abs(r01) + eps
	ar02 := math.Abs(r02) + eps
	ar10 := math.Abs(r10) + eps
	ar11 := math.Abs(r11) + eps
	ar12 := math.Abs(r12) + eps
	ar20 := math.Abs(r20) + eps
	ar21 := math.Abs(r21) + eps
	ar22 := math.Abs(r22) + eps

	best := math.Inf(-1)

	// 3 face axes from b1.
	if g := math.Abs(t0) - hA0 - (hB0*ar00 + hB1*ar01 + hB2*ar02); g > best {
		best = g
	}
	if g := math.Abs(t1) - hA1 - (hB0*ar10 + hB1*ar11 + hB2*ar12); g > best {
		best = g
	}
	if g := math.Abs(t2) - hA2 - (hB0*ar20 + hB1*ar21 + hB2*ar22); g > best {
		best = g
	}

	// 3 face axes from b2.
	if g := math.Abs(t0*r00+t1*r10+t2*r20) - hB0 - (hA0*ar00 + hA1*ar10 + hA2*ar20); g > best {
		best = g
	}
	if g := math.Abs(t0*r01+t1*r11+t2*r21) - hB1 - (hA0*ar01 + hA1*ar11 + hA2*ar21); g > best {
		best = g
	}
	if g := math.Abs(t0*r02+t1*r12+t2*r22) - hB2 - (hA0*ar02 + hA1*ar12 + hA2*ar22); g > best {
		best = g
	}

	// 9 edge axes (a_i x b_j), normalized by sqrt(1 - R[i][j]^2).
	// Near-parallel edges are skipped since their cross product vanishes.
	if l2 := 1 - r00*r00; l2 > eps {
		raw := math.Abs(t2*r10-t1*r20) - (hA1*ar20 + hA2*ar10) - (hB1*ar02 + hB2*ar01)
		if g := raw / math.Sqrt(l2); g > best {
			best = g
		}
	}
	if l2 := 1 - r01*r01; l2 > eps {
		raw := math.Abs(t2*r11-t1*r21) - (hA1*ar21 + hA2*ar11) - (hB0*ar02 + hB2*ar00)
		if g := raw / math.Sqrt(l2); g > best {
			best = g
		}
	}
	if l2 := 1 - r02*r02; l2 > eps {
		raw := math.Abs(t2*r12-t1*r22) - (hA1*ar22 + hA2*ar12) - (hB0*ar01 + hB1*ar00)
		if g := raw / math.Sqrt(l2); g > best {
			best = g
		}
	}
	if l2 := 1 - r10*r10; l2 > eps {
		raw := math.Abs(t0*r20-t2*r00) - (hA0*ar20 + hA2*ar00) - (hB1*ar12 + hB2*ar11)
		if g := raw / math.Sqrt(l2); g > best {
			best = g
		}
	}
	if l2 := 1 - r11*r11; l2 > eps {
		raw := math.Abs(t0*r21-t2*r01) - (hA0*ar21 + hA2*ar01) - (hB0*ar12 + hB2*ar10)
		if g := raw / math.Sqrt(l2); g > best {
			best = g
		}
	}
	if l2 := 1 - r12*r12; l2 > eps {
		raw := math.Abs(t0*r22-t2*r02) - (hA0*ar22 + hA2*ar02) - (hB0*ar11 + hB1*ar10)
		if g := raw / math.Sqrt(l2); g > best {
			best = g
		}
	}
	if l2 := 1 - r20*r20; l2 > eps {
		raw := math.Abs(t1*r00-t0*r10) - (hA0*ar10 + hA1*ar00) - (hB1*ar22 + hB2*ar21)
		if g := raw / math.Sqrt(l2); g > best {
			best = g
		}
	}
	if l2 := 1 - r21*r21; l2 > eps {
		raw := math.Abs(t1*r01-t0*r11) - (hA0*ar11 + hA1*ar01) - (hB0*ar22 + hB2*ar20)
		if g := raw / math.Sqrt(l2); g > best {
			best = g
		}
	}
	if l2 := 1 - r22*r22; l2 > eps {
		raw := math.Abs(t1*r02-t0*r12) - (hA0*ar12 + hA1*ar02) - (hB0*ar21 + hB1*ar20)
		if g := raw / math.Sqrt(l2); g > best {
			best = g
		}
	}

	return best
}

// OBBDistanceLowerBound returns a non-negative lower bound on the distance
// between geometry enclosed by the two boxes.
func OBBDistanceLowerBound(rm spatial.RotationMatrix, tv r3.Vector, b1, b2 OBB) float64 {
	return math.Max(OBBSeparationGap(rm, tv, b1, b2), 0)
}
