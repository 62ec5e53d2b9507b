package traverse

import (
	"github.com/pkg/errors"

	"go.viam.com/proximity/bv"
	"go.viam.com/proximity/mesh"
	"go.viam.com/proximity/spatial"
)

// OBBCollision is the discrete collision strategy over oriented-box
// hierarchies.
type OBBCollision struct {
	collisionBase
}

// BVTest implements CollisionTraversal via the 15-axis separating-axis test.
func (n *OBBCollision) BVTest(b1, b2 int) bool {
	n.countBV()
	gap := bv.OBBSeparationGap(n.r, n.t, n.model1.Volume(b1).OBB, n.model2.Volume(b2).OBB)
	return gap > n.rsum
}

// RSSCollision is the discrete collision strategy over rectangle-swept-sphere
// hierarchies.
type RSSCollision struct {
	collisionBase
}

// BVTest implements CollisionTraversal via the exact swept-rectangle distance.
func (n *RSSCollision) BVTest(b1, b2 int) bool {
	n.countBV()
	d, _, _ := bv.RSSDistance(n.r, n.t, n.model1.Volume(b1).RSS, n.model2.Volume(b2).RSS)
	return d > n.rsum
}

// KDOP18Collision is the discrete collision strategy over 18-DOP hierarchies.
type KDOP18Collision struct {
	collisionBase
}

// BVTest implements CollisionTraversal via support-interval separation.
func (n *KDOP18Collision) BVTest(b1, b2 int) bool {
	n.countBV()
	gap := bv.KDOP18Gap(n.r, n.t, n.model1.Volume(b1).KDOP, n.model2.Volume(b2).KDOP)
	return gap > n.rsum
}

// OBBRSSCollision is the discrete collision strategy over hybrid hierarchies,
// using the oriented-box half for overlap pruning.
type OBBRSSCollision struct {
	collisionBase
}

// BVTest implements CollisionTraversal.
func (n *OBBRSSCollision) BVTest(b1, b2 int) bool {
	n.countBV()
	gap := bv.OBBSeparationGap(n.r, n.t, n.model1.Volume(b1).OBB, n.model2.Volume(b2).OBB)
	return gap > n.rsum
}

// NewCollisionTraversal binds two hierarchies of the same bounding-volume
// kind, their world poses, and a request/result pair into the matching
// collision strategy. The returned traversal serves exactly one query.
func NewCollisionTraversal(
	m1 *mesh.Model, tf1 spatial.Transform,
	m2 *mesh.Model, tf2 spatial.Transform,
	req *CollisionRequest, res *CollisionResult,
) (CollisionTraversal, error) {
	if m1.Kind() != m2.Kind() {
		return nil, errors.Errorf("mismatched bounding-volume kinds %s and %s", m1.Kind(), m2.Kind())
	}
	base := newCollisionBase(m1, tf1, m2, tf2, req, res)
	switch m1.Kind() {
	case bv.KindOBB:
		return &OBBCollision{base}, nil
	case bv.KindRSS:
		return &RSSCollision{base}, nil
	case bv.KindKDOP18:
		return &KDOP18Collision{base}, nil
	case bv.KindOBBRSS:
		return &OBBRSSCollision{base}, nil
	default:
		return nil, errors.Errorf("unsupported bounding-volume kind %s", m1.Kind())
	}
}
