package traverse

import (
	"math"

	"github.com/pkg/errors"

	"go.viam.com/proximity/bv"
	"go.viam.com/proximity/mesh"
	"go.viam.com/proximity/spatial"
)

// OBBDistance is the distance strategy over oriented-box hierarchies. The
// separating-axis gap is not the exact box distance but is an admissible
// lower bound, which is all the driver requires.
type OBBDistance struct {
	distanceBase
}

// BVTest implements DistanceTraversal.
func (n *OBBDistance) BVTest(b1, b2 int) float64 {
	n.countBV()
	gap := bv.OBBSeparationGap(n.r, n.t, n.model1.Volume(b1).OBB, n.model2.Volume(b2).OBB)
	return math.Max(gap-n.rsum, 0)
}

// RSSDistance is the distance strategy over rectangle-swept-sphere
// hierarchies; the volume distance is exact.
type RSSDistance struct {
	distanceBase
}

// BVTest implements DistanceTraversal.
func (n *RSSDistance) BVTest(b1, b2 int) float64 {
	n.countBV()
	d, _, _ := bv.RSSDistance(n.r, n.t, n.model1.Volume(b1).RSS, n.model2.Volume(b2).RSS)
	return math.Max(d-n.rsum, 0)
}

// KDOP18Distance is the distance strategy over 18-DOP hierarchies, bounding
// by the largest normalized support-interval gap.
type KDOP18Distance struct {
	distanceBase
}

// BVTest implements DistanceTraversal.
func (n *KDOP18Distance) BVTest(b1, b2 int) float64 {
	n.countBV()
	gap := bv.KDOP18Gap(n.r, n.t, n.model1.Volume(b1).KDOP, n.model2.Volume(b2).KDOP)
	return math.Max(gap-n.rsum, 0)
}

// OBBRSSDistance is the distance strategy over hybrid hierarchies, using the
// swept-rectangle half for exact volume distances.
type OBBRSSDistance struct {
	distanceBase
}

// BVTest implements DistanceTraversal.
func (n *OBBRSSDistance) BVTest(b1, b2 int) float64 {
	n.countBV()
	d, _, _ := bv.RSSDistance(n.r, n.t, n.model1.Volume(b1).RSS, n.model2.Volume(b2).RSS)
	return math.Max(d-n.rsum, 0)
}

// NewDistanceTraversal binds two hierarchies of the same bounding-volume kind
// into the matching distance strategy. The returned traversal serves exactly
// one query.
func NewDistanceTraversal(
	m1 *mesh.Model, tf1 spatial.Transform,
	m2 *mesh.Model, tf2 spatial.Transform,
	req *DistanceRequest, res *DistanceResult,
) (DistanceTraversal, error) {
	if m1.Kind() != m2.Kind() {
		return nil, errors.Errorf("mismatched bounding-volume kinds %s and %s", m1.Kind(), m2.Kind())
	}
	base := newDistanceBase(m1, tf1, m2, tf2, req, res)
	switch m1.Kind() {
	case bv.KindOBB:
		return &OBBDistance{base}, nil
	case bv.KindRSS:
		return &RSSDistance{base}, nil
	case bv.KindKDOP18:
		return &KDOP18Distance{base}, nil
	case bv.KindOBBRSS:
		return &OBBRSSDistance{base}, nil
	default:
		return nil, errors.Errorf("unsupported bounding-volume kind %s", m1.Kind())
	}
}
