package motion

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/proximity/spatial"
)

// InterpMotion interpolates linearly between two rigid poses: a constant
// linear velocity of a reference point combined with a constant-rate rotation
// about a fixed axis through it.
type InterpMotion struct {
	start, goal spatial.Transform
	tf          spatial.Transform

	reference   r3.Vector
	linearVel   r3.Vector
	angularAxis r3.Vector
	angularVel  float64
}

// NewInterpMotion builds the interpolation between start and goal with the
// local origin as the rotation reference point.
func NewInterpMotion(start, goal spatial.Transform) *InterpMotion {
	return NewInterpMotionWithReference(start, goal, r3.Vector{})
}

// NewInterpMotionWithReference builds the interpolation between start and
// goal rotating about the given local-frame reference point. Using the
// model's centroid tightens the motion bounds.
func NewInterpMotionWithReference(start, goal spatial.Transform, reference r3.Vector) *InterpMotion {
	m := &InterpMotion{start: start, goal: goal, tf: start, reference: reference}
	m.linearVel = goal.Apply(reference).Sub(start.Apply(reference))

	delta := quat.Mul(goal.R.Quaternion(), quat.Conj(start.R.Quaternion()))
	vecNorm := math.Sqrt(delta.Imag*delta.Imag + delta.Jmag*delta.Jmag + delta.Kmag*delta.Kmag)
	m.angularVel = 2 * math.Atan2(vecNorm, delta.Real)
	if vecNorm > 1e-12 {
		m.angularAxis = r3.Vector{X: delta.Imag, Y: delta.Jmag, Z: delta.Kmag}.Mul(1 / vecNorm)
	} else {
		m.angularAxis = r3.Vector{Z: 1}
	}
	return m
}

// Integrate implements Motion: the current pose becomes the interpolation at
// time dt, clamped to [0,1].
func (m *InterpMotion) Integrate(dt float64) {
	dt = math.Min(math.Max(dt, 0), 1)
	r := spatial.NewRotationMatrixFromAxisAngle(m.angularAxis, m.angularVel*dt).Mul(m.start.R)
	t := m.linearVel.Mul(dt).
		Add(m.start.Apply(m.reference)).
		Sub(r.MulVec(m.reference))
	m.tf = spatial.Transform{R: r, T: t}
}

// CurrentTransform implements Motion.
func (m *InterpMotion) CurrentTransform() spatial.Transform { return m.tf }

// BoundTriangle implements Motion: v.n plus the rotational term scaled by the
// largest lever arm of the three vertices about the rotation axis. Distance
// from the axis is convex, so the triangle's maximum sits at a vertex; a
// point within inflation of the triangle extends the lever arm by at most
// that much.
func (m *InterpMotion) BoundTriangle(a, b, c, n r3.Vector, inflation float64) float64 {
	proj := m.leverArm(a)
	proj = math.Max(proj, m.leverArm(b))
	proj = math.Max(proj, m.leverArm(c))
	return m.bound(n, proj+inflation)
}

// BoundVolume implements Motion.
func (m *InterpMotion) BoundVolume(center r3.Vector, radius float64, n r3.Vector) float64 {
	return m.bound(n, m.leverArm(center)+radius)
}

// leverArm is the distance of the local point p from the rotation axis, in
// the current world orientation.
func (m *InterpMotion) leverArm(p r3.Vector) float64 {
	return m.tf.R.MulVec(p.Sub(m.reference)).Cross(m.angularAxis).Norm()
}

func (m *InterpMotion) bound(n r3.Vector, leverArm float64) float64 {
	return m.linearVel.Dot(n) + m.angularVel*m.angularAxis.Cross(n).Norm()*leverArm
}
