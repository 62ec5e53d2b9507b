package spatial

import "github.com/golang/geo/r3"

// Transform is a rigid transform: rotation followed by translation.
type Transform struct {
	R RotationMatrix
	T r3.Vector
}

// IdentityTransform returns the identity transform.
func IdentityTransform() Transform {
	return Transform{R: IdentityRotation()}
}

// Apply maps a point through the transform.
func (tf Transform) Apply(p r3.Vector) r3.Vector {
	return tf.R.MulVec(p).Add(tf.T)
}

// ApplyInverse maps a point through the inverse of the transform.
func (tf Transform) ApplyInverse(p r3.Vector) r3.Vector {
	return tf.R.TransposeMulVec(p.Sub(tf.T))
}

// Compose returns the transform equivalent to applying b first and then a.
func Compose(a, b Transform) Transform {
	return Transform{
		R: a.R.Mul(b.R),
		T: a.R.MulVec(b.T).Add(a.T),
	}
}

// Inverse returns the inverse transform.
func (tf Transform) Inverse() Transform {
	rt := tf.R.Transpose()
	return Transform{R: rt, T: rt.MulVec(tf.T).Mul(-1)}
}

// Relative expresses the frame of tf2 in the frame of tf1, i.e. the rotation
// and translation that place hierarchy 2's local coordinates into hierarchy
// 1's local coordinates. It is computed once before a traversal begins.
func Relative(tf1, tf2 Transform) (RotationMatrix, r3.Vector) {
	r := tf1.R.TransposeMul(tf2.R)
	t := tf1.R.TransposeMulVec(tf2.T.Sub(tf1.T))
	return r, t
}

// ClosestPointSegmentPoint returns the closest point on the segment ab to point p.
func ClosestPointSegmentPoint(a, b, p r3.Vector) r3.Vector {
	ab := b.Sub(a)
	denom := ab.Norm2()
	if denom == 0 {
		return a
	}
	t := p.Sub(a).Dot(ab) / denom
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return a.Add(ab.Mul(t))
}

// ClosestPointsSegmentSegment returns the pair of closest points on segments
// p1q1 and p2q2 (Ericson, Real-Time Collision Detection 5.1.9).
func ClosestPointsSegmentSegment(p1, q1, p2, q2 r3.Vector) (r3.Vector, r3.Vector) {
	const eps = 1e-12
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.Norm2()
	e := d2.Norm2()
	f := d2.Dot(r)

	var s, t float64
	switch {
	case a <= eps && e <= eps:
		return p1, p2
	case a <= eps:
		t = clamp01(f / e)
	default:
		c := d1.Dot(r)
		if e <= eps {
			s = clamp01(-c / a)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom > eps {
				s = clamp01((b*f - c*e) / denom)
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = clamp01(-c / a)
			} else if t > 1 {
				t = 1
				s = clamp01((b - c) / a)
			}
		}
	}
	return p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
