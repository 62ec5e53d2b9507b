package traverse

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/proximity/bv"
	"go.viam.com/proximity/mesh"
	"go.viam.com/proximity/motion"
)

// advancementFrame caches the state of one visited internal node pair: the
// volume distance, its witness points in the first hierarchy's local frame,
// and the node indices. Frames are pushed by the BV test and retained on the
// explicit stack until the stop decision that consumes them, which may be the
// decision for the pair's sibling rather than the pair itself.
type advancementFrame struct {
	p1, p2 r3.Vector
	c1, c2 int
	d      float64
}

// AdvancementTraversal certifies a collision-free fraction of a normalized
// motion interval for two rigidly moving meshes with rectangle-swept-sphere
// (or hybrid) hierarchies. One instance serves a single traversal at a fixed
// point in time; the outer ConservativeAdvance loop constructs a fresh one
// per step with the relative transform refreshed from the motion models.
type AdvancementTraversal struct {
	meshPair
	motion1, motion2 motion.Motion
	w                float64
	absErr, relErr   float64
	rsum             float64

	minDistance float64
	deltaT      float64
	tri1, tri2  int
	stack       []advancementFrame
}

// NewAdvancementTraversal binds two same-kind hierarchies and their motions
// at the motions' current time. The weight w compensates for scale mismatch
// between the two motions; values at or below zero default to one.
func NewAdvancementTraversal(
	m1 *mesh.Model, motion1 motion.Motion,
	m2 *mesh.Model, motion2 motion.Motion,
	w, absErr, relErr float64, enableStats bool,
) (*AdvancementTraversal, error) {
	if m1.Kind() != m2.Kind() {
		return nil, errors.Errorf("mismatched bounding-volume kinds %s and %s", m1.Kind(), m2.Kind())
	}
	if m1.Kind() != bv.KindRSS && m1.Kind() != bv.KindOBBRSS {
		return nil, errors.Errorf("conservative advancement requires RSS or OBBRSS hierarchies, got %s", m1.Kind())
	}
	if w <= 0 {
		w = 1
	}
	n := &AdvancementTraversal{
		meshPair:    newMeshPair(m1, motion1.CurrentTransform(), m2, motion2.CurrentTransform(), enableStats),
		motion1:     motion1,
		motion2:     motion2,
		w:           w,
		absErr:      absErr,
		relErr:      relErr,
		minDistance: math.Inf(1),
		deltaT:      1,
		tri1:        -1,
		tri2:        -1,
	}
	n.rsum = n.sweptRadiusSum()
	return n, nil
}

// DeltaT returns the certified collision-free fraction of the interval: 1
// when no earlier collision is possible, otherwise a sound lower bound on the
// time of impact.
func (n *AdvancementTraversal) DeltaT() float64 { return n.deltaT }

// MinDistance returns the smallest leaf distance witnessed by the traversal.
func (n *AdvancementTraversal) MinDistance() float64 { return n.minDistance }

// WitnessTriangles returns the triangle pair realizing MinDistance.
func (n *AdvancementTraversal) WitnessTriangles() (int, int) { return n.tri1, n.tri2 }

// Preprocess implements DistanceTraversal.
func (n *AdvancementTraversal) Preprocess() {}

// Postprocess implements DistanceTraversal.
func (n *AdvancementTraversal) Postprocess() {}

// BVTest implements DistanceTraversal: compute the volume distance with
// witnesses, push a stack frame for the stop decision, and return the
// distance as the descent priority.
func (n *AdvancementTraversal) BVTest(b1, b2 int) float64 {
	n.countBV()
	d, p1, p2 := bv.RSSDistance(n.r, n.t, n.model1.Volume(b1).RSS, n.model2.Volume(b2).RSS)
	d = math.Max(d-n.rsum, 0)
	n.stack = append(n.stack, advancementFrame{p1: p1, p2: p2, c1: b1, c2: b2, d: d})
	return d
}

// LeafTest implements DistanceTraversal: exact triangle distance under the
// current relative transform, then fold the motion-bound time fraction for
// this triangle pair into deltaT.
func (n *AdvancementTraversal) LeafTest(b1, b2 int) {
	n.countLeaf()
	pid1, pid2, p, q := n.leafTriangles(b1, b2)

	d, w1, w2 := triDistance(p[0], p[1], p[2], q[0], q[1], q[2])
	d = math.Max(d-n.rsum, 0)
	if d < n.minDistance {
		n.minDistance = d
		n.tri1, n.tri2 = pid1, pid2
	}

	// The separating direction is local to hierarchy 1; turn it into the
	// world frame, pointing from object 1 to object 2.
	dir := w2.Sub(w1)
	nWorld := n.motion1.CurrentTransform().R.MulVec(dir)
	if norm := nWorld.Norm(); norm > triTol {
		nWorld = nWorld.Mul(1 / norm)
	} else {
		nWorld = r3.Vector{X: 1}
	}

	// The swept-sphere surfaces ride along with the triangles, so each
	// model's inflation widens its motion bound.
	t21, t22, t23 := n.model2.TriangleVertices(pid2)
	bound := n.motion1.BoundTriangle(p[0], p[1], p[2], nWorld, n.model1.SweptSphereRadius()) +
		n.motion2.BoundTriangle(t21, t22, t23, nWorld.Mul(-1), n.model2.SweptSphereRadius())
	n.foldDeltaT(d, bound)
}

// CanStop implements DistanceTraversal. When the branch bound c is within the
// dual tolerance of the running minimum, the branch is certified through its
// cached frame: the frame's witness direction and node pair feed a whole-
// volume motion bound whose time fraction folds into deltaT. Either way a
// frame is consumed to keep the stack aligned with the descent; when the top
// frame's distance exceeds c the decision belongs to the sibling one slot
// down, so that frame is used and the top is copied into its place.
func (n *AdvancementTraversal) CanStop(c float64) bool {
	if len(n.stack) == 0 {
		panic("conservative advancement stack underflow")
	}
	stop := c >= n.w*(n.minDistance-n.absErr) && c*(1+n.relErr) >= n.w*n.minDistance

	top := len(n.stack) - 1
	frame := n.stack[top]
	if frame.d > c {
		if top == 0 {
			panic("conservative advancement stack underflow")
		}
		frame = n.stack[top-1]
		n.stack[top-1] = n.stack[top]
	}
	n.stack = n.stack[:top]

	if !stop {
		return false
	}

	dir := frame.p2.Sub(frame.p1)
	nWorld := n.motion1.CurrentTransform().R.MulVec(dir)
	if norm := nWorld.Norm(); norm > triTol {
		nWorld = nWorld.Mul(1 / norm)
	} else {
		nWorld = r3.Vector{X: 1}
	}

	c1, r1 := n.model1.Volume(frame.c1).BoundingSphere(n.model1.Kind())
	c2, r2 := n.model2.Volume(frame.c2).BoundingSphere(n.model2.Kind())
	bound := n.motion1.BoundVolume(c1, r1+n.model1.SweptSphereRadius(), nWorld) +
		n.motion2.BoundVolume(c2, r2+n.model2.SweptSphereRadius(), nWorld.Mul(-1))
	n.foldDeltaT(c, bound)
	return true
}

func (n *AdvancementTraversal) foldDeltaT(d, bound float64) {
	cur := 1.0
	if bound > d {
		cur = d / bound
	}
	if cur < n.deltaT {
		n.deltaT = cur
	}
}

// CCDRequest configures a continuous-collision query over a normalized
// motion interval.
type CCDRequest struct {
	// W weights the stop tolerance against scale mismatch between the two
	// motions; zero defaults to one.
	W float64
	// AbsErr and RelErr are the dual stop tolerances of the advancement
	// traversal.
	AbsErr, RelErr float64
	// TimeErr is the advancement fraction below which the objects are
	// declared in contact; zero defaults to 1e-5.
	TimeErr float64
	// ContactTolerance is the leaf distance at which the objects are
	// declared in contact; zero defaults to 1e-6.
	ContactTolerance float64
	// MaxIterations caps the advancement loop; zero defaults to 64.
	MaxIterations int
	// EnableStatistics counts BV and leaf tests across all steps.
	EnableStatistics bool
}

// CCDResult is the output of a continuous-collision query. TOC is the
// certified collision-free fraction of the interval: advancing both motions
// by TOC is guaranteed collision-free; when Collide is true, first contact
// occurs at TOC within tolerance.
type CCDResult struct {
	Collide    bool
	TOC        float64
	Tri1, Tri2 int
	Stats      Stats
}

// ConservativeAdvance runs the continuous-collision query: it repeatedly
// integrates both motions to the current certified time, refreshes the
// relative transform, runs an advancement traversal for the remaining
// interval, and accumulates the certified fraction until contact is declared
// or the whole interval is covered.
func ConservativeAdvance(
	m1 *mesh.Model, motion1 motion.Motion,
	m2 *mesh.Model, motion2 motion.Motion,
	req *CCDRequest,
) (CCDResult, error) {
	timeErr := req.TimeErr
	if timeErr <= 0 {
		timeErr = 1e-5
	}
	contactTol := req.ContactTolerance
	if contactTol <= 0 {
		contactTol = 1e-6
	}
	maxIter := req.MaxIterations
	if maxIter <= 0 {
		maxIter = 64
	}

	res := CCDResult{TOC: 1, Tri1: -1, Tri2: -1}
	toc := 0.0
	for i := 0; i < maxIter; i++ {
		motion1.Integrate(toc)
		motion2.Integrate(toc)

		node, err := NewAdvancementTraversal(m1, motion1, m2, motion2, req.W, req.AbsErr, req.RelErr, req.EnableStatistics)
		if err != nil {
			return CCDResult{}, err
		}
		Distance(node)
		res.Stats.BVTests += node.stats.BVTests
		res.Stats.LeafTests += node.stats.LeafTests

		if node.minDistance <= contactTol || node.deltaT <= timeErr {
			res.Collide = true
			res.TOC = toc
			res.Tri1, res.Tri2 = node.tri1, node.tri2
			return res, nil
		}
		toc += node.deltaT
		if toc >= 1 {
			res.Collide = false
			res.TOC = 1
			return res, nil
		}
	}

	// Iteration cap hit: everything before toc is still certified free, so
	// report a conservative impact there rather than claim the full interval.
	res.Collide = true
	res.TOC = toc
	return res, nil
}
