// Package motion provides the rigid-motion abstraction consumed by the
// continuous-collision engine: the pose of a moving object at any fraction of
// a normalized time interval, and sound upper bounds on how far its geometry
// can travel along a direction over the remainder of that interval.
package motion

import (
	"github.com/golang/geo/r3"

	"go.viam.com/proximity/spatial"
)

// Motion describes one object's rigid motion over a normalized [0,1] interval.
type Motion interface {
	// Integrate moves the motion's current state to time dt in [0,1].
	Integrate(dt float64)
	// CurrentTransform returns the object pose at the integrated time.
	CurrentTransform() spatial.Transform
	// BoundTriangle returns an upper bound on the displacement of any point
	// within inflation distance of the triangle (a, b, c), given in the
	// object's local frame, projected on the unit world direction n, over
	// the remaining interval. The inflation carries a swept-sphere surface
	// along with the triangle; pass zero for the bare triangle.
	BoundTriangle(a, b, c, n r3.Vector, inflation float64) float64
	// BoundVolume is BoundTriangle for a whole bounding volume, summarized
	// by a local-frame bounding sphere.
	BoundVolume(center r3.Vector, radius float64, n r3.Vector) float64
}

// Static is a motion that never moves the object.
type Static struct {
	tf spatial.Transform
}

// NewStatic returns a motion pinning the object at the given pose.
func NewStatic(tf spatial.Transform) *Static {
	return &Static{tf: tf}
}

// Integrate implements Motion.
func (s *Static) Integrate(float64) {}

// CurrentTransform implements Motion.
func (s *Static) CurrentTransform() spatial.Transform { return s.tf }

// BoundTriangle implements Motion.
func (s *Static) BoundTriangle(_, _, _, _ r3.Vector, _ float64) float64 { return 0 }

// BoundVolume implements Motion.
func (s *Static) BoundVolume(_ r3.Vector, _ float64, _ r3.Vector) float64 { return 0 }
