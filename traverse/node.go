package traverse

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/proximity/bv"
	"go.viam.com/proximity/mesh"
	"go.viam.com/proximity/spatial"
)

// traversal is the navigation contract every query strategy shares: leaf
// detection and child addressing over the two hierarchies. A traversal value
// is stateful (statistics, result references, the advancement stack) and must
// not be shared across concurrent queries.
type traversal interface {
	IsFirstLeaf(b int) bool
	IsSecondLeaf(b int) bool
	FirstChild1(b int) int
	FirstChild2(b int) int
	FirstOverSecond(b1, b2 int) bool
	Stats() Stats
}

// CollisionTraversal is the strategy contract of a discrete collision query:
// a BV test that prunes provably disjoint subtree pairs and an exact leaf
// test, per bounding-volume kind.
type CollisionTraversal interface {
	traversal
	// BVTest reports whether the volume pair is provably disjoint, pruning
	// the branch.
	BVTest(b1, b2 int) bool
	// LeafTest runs the exact triangle oracle on the two leaves.
	LeafTest(b1, b2 int)
	// CanStop reports whether the whole query may end early.
	CanStop() bool
}

// DistanceTraversal is the strategy contract of a distance or
// conservative-advancement query.
type DistanceTraversal interface {
	traversal
	// Preprocess seeds the query before descent begins.
	Preprocess()
	// Postprocess finalizes the result after descent ends.
	Postprocess()
	// BVTest returns an admissible lower bound on the distance between
	// geometry under the volume pair, used both as descent priority and as a
	// pruning bound.
	BVTest(b1, b2 int) float64
	// LeafTest runs the exact triangle distance oracle on the two leaves.
	LeafTest(b1, b2 int)
	// CanStop reports whether a branch whose bound is c needs no further
	// descent.
	CanStop(c float64) bool
}

// meshPair binds the two borrowed hierarchies and the relative transform
// placing the second model's frame into the first's, plus the shared
// instrumentation counters.
type meshPair struct {
	model1, model2 *mesh.Model
	r              spatial.RotationMatrix
	t              r3.Vector

	enableStatistics bool
	stats            Stats
}

func newMeshPair(m1 *mesh.Model, tf1 spatial.Transform, m2 *mesh.Model, tf2 spatial.Transform, enableStats bool) meshPair {
	r, t := spatial.Relative(tf1, tf2)
	return meshPair{model1: m1, model2: m2, r: r, t: t, enableStatistics: enableStats}
}

// IsFirstLeaf implements traversal.
func (p *meshPair) IsFirstLeaf(b int) bool { return p.model1.IsLeaf(b) }

// IsSecondLeaf implements traversal.
func (p *meshPair) IsSecondLeaf(b int) bool { return p.model2.IsLeaf(b) }

// FirstChild1 implements traversal.
func (p *meshPair) FirstChild1(b int) int { return p.model1.LeftChild(b) }

// FirstChild2 implements traversal.
func (p *meshPair) FirstChild2(b int) int { return p.model2.LeftChild(b) }

// FirstOverSecond implements traversal: descend into the first hierarchy when
// the second is at a leaf or the first's subtree is larger.
func (p *meshPair) FirstOverSecond(b1, b2 int) bool {
	if p.model2.IsLeaf(b2) {
		return true
	}
	if p.model1.IsLeaf(b1) {
		return false
	}
	return p.model1.NodeSize(b1) >= p.model2.NodeSize(b2)
}

// Stats implements traversal.
func (p *meshPair) Stats() Stats { return p.stats }

func (p *meshPair) countBV() {
	if p.enableStatistics {
		p.stats.BVTests++
	}
}

func (p *meshPair) countLeaf() {
	if p.enableStatistics {
		p.stats.LeafTests++
	}
}

// sweptRadiusSum is the combined swept-sphere inflation of the pair.
func (p *meshPair) sweptRadiusSum() float64 {
	return p.model1.SweptSphereRadius() + p.model2.SweptSphereRadius()
}

// leafTriangles fetches the primitive ids under two leaves along with the
// first triangle's vertices and the second's vertices mapped into the first
// model's frame.
func (p *meshPair) leafTriangles(b1, b2 int) (int, int, [3]r3.Vector, [3]r3.Vector) {
	pid1 := p.model1.Primitive(b1)
	pid2 := p.model2.Primitive(b2)
	a1, a2, a3 := p.model1.TriangleVertices(pid1)
	b1v, b2v, b3v := p.model2.TriangleVertices(pid2)
	q := [3]r3.Vector{
		p.r.MulVec(b1v).Add(p.t),
		p.r.MulVec(b2v).Add(p.t),
		p.r.MulVec(b3v).Add(p.t),
	}
	return pid1, pid2, [3]r3.Vector{a1, a2, a3}, q
}

// collisionBase carries the state shared by every collision strategy and
// implements the leaf oracle of the discrete query.
type collisionBase struct {
	meshPair
	tf1, tf2 spatial.Transform
	req      *CollisionRequest
	res      *CollisionResult
	rsum     float64
}

func newCollisionBase(
	m1 *mesh.Model, tf1 spatial.Transform,
	m2 *mesh.Model, tf2 spatial.Transform,
	req *CollisionRequest, res *CollisionResult,
) collisionBase {
	base := collisionBase{
		meshPair: newMeshPair(m1, tf1, m2, tf2, req.EnableStatistics),
		tf1:      tf1,
		tf2:      tf2,
		req:      req,
		res:      res,
	}
	base.rsum = base.sweptRadiusSum()
	return base
}

// CanStop implements CollisionTraversal: without cost accounting the query
// ends as soon as the contact cap is reached.
func (c *collisionBase) CanStop() bool {
	return !c.req.EnableCost && len(c.res.Contacts) >= c.req.maxContacts()
}

// LeafTest implements CollisionTraversal per the shared oracle: contacts for
// Occupied-Occupied pairs up to the request cap, cost sources for any
// intersecting non-Free pair.
func (c *collisionBase) LeafTest(b1, b2 int) {
	c.countLeaf()
	pid1, pid2, p, q := c.leafTriangles(b1, b2)

	intersecting := false
	if c.model1.IsOccupied() && c.model2.IsOccupied() {
		intersecting = c.testOccupiedPair(pid1, pid2, p, q)
	} else if !c.model1.IsFree() && !c.model2.IsFree() && c.req.EnableCost {
		intersecting = c.leafIntersects(p, q)
	}

	if intersecting && c.req.EnableCost && !c.model1.IsFree() && !c.model2.IsFree() {
		c.addOverlapCost(pid1, pid2)
	}
}

func (c *collisionBase) leafIntersects(p, q [3]r3.Vector) bool {
	if c.rsum > 0 {
		d, _, _ := triDistance(p[0], p[1], p[2], q[0], q[1], q[2])
		return d <= c.rsum
	}
	hit, _, _ := triTriIntersectSegment(p[0], p[1], p[2], q[0], q[1], q[2])
	return hit
}

func (c *collisionBase) testOccupiedPair(pid1, pid2 int, p, q [3]r3.Vector) bool {
	room := c.req.maxContacts() - len(c.res.Contacts)

	if !c.req.EnableContact {
		if !c.leafIntersects(p, q) {
			return false
		}
		if room > 0 {
			c.res.addContact(Contact{ID1: pid1, ID2: pid2})
		}
		return true
	}

	if c.rsum > 0 {
		d, w1, w2 := triDistance(p[0], p[1], p[2], q[0], q[1], q[2])
		if d > c.rsum {
			return false
		}
		normal := r3.Vector{X: 1}
		if d > triTol {
			normal = w2.Sub(w1).Normalize()
		}
		if room > 0 {
			c.res.addContact(Contact{
				ID1:    pid1,
				ID2:    pid2,
				Point:  c.tf1.Apply(w1.Add(w2).Mul(0.5)),
				Normal: c.tf1.R.MulVec(normal),
				Depth:  c.rsum - d,
			})
		}
		return true
	}

	hit, pts, numPts, depth, normal := triContact(p[0], p[1], p[2], q[0], q[1], q[2])
	if !hit {
		return false
	}
	if numPts > room {
		numPts = room
	}
	for i := 0; i < numPts; i++ {
		c.res.addContact(Contact{
			ID1:    pid1,
			ID2:    pid2,
			Point:  c.tf1.Apply(pts[i]),
			Normal: c.tf1.R.MulVec(normal),
			Depth:  depth,
		})
	}
	return true
}

// addOverlapCost records the axis-aligned overlap of the two triangles'
// world-space bounds at the request's cost density.
func (c *collisionBase) addOverlapCost(pid1, pid2 int) {
	a1, a2, a3 := c.model1.TriangleVertices(pid1)
	b1, b2, b3 := c.model2.TriangleVertices(pid2)
	box1 := bv.AABBFromPoints(c.tf1.Apply(a1), c.tf1.Apply(a2), c.tf1.Apply(a3))
	box2 := bv.AABBFromPoints(c.tf2.Apply(b1), c.tf2.Apply(b2), c.tf2.Apply(b3))
	if part, ok := box1.Overlap(box2); ok {
		c.res.addCostSource(CostSource{Min: part.Min, Max: part.Max, Density: c.req.CostDensity})
	}
}

// distanceBase carries the state shared by every distance strategy and
// implements the leaf oracle of the distance query.
type distanceBase struct {
	meshPair
	tf1  spatial.Transform
	req  *DistanceRequest
	res  *DistanceResult
	rsum float64
}

func newDistanceBase(
	m1 *mesh.Model, tf1 spatial.Transform,
	m2 *mesh.Model, tf2 spatial.Transform,
	req *DistanceRequest, res *DistanceResult,
) distanceBase {
	base := distanceBase{
		meshPair: newMeshPair(m1, tf1, m2, tf2, req.EnableStatistics),
		tf1:      tf1,
		req:      req,
		res:      res,
	}
	base.rsum = base.sweptRadiusSum()
	return base
}

// Preprocess implements DistanceTraversal: seed the running minimum with the
// first triangle pair so pruning bounds bite immediately.
func (d *distanceBase) Preprocess() {
	d.updateFromPair(0, 0)
}

// Postprocess implements DistanceTraversal: witness points accumulate in the
// first model's local frame and are mapped to world space once.
func (d *distanceBase) Postprocess() {
	if d.req.EnableNearestPoints && d.res.ID1 >= 0 {
		d.res.NearestPoints[0] = d.tf1.Apply(d.res.NearestPoints[0])
		d.res.NearestPoints[1] = d.tf1.Apply(d.res.NearestPoints[1])
	}
}

// LeafTest implements DistanceTraversal.
func (d *distanceBase) LeafTest(b1, b2 int) {
	d.countLeaf()
	pid1 := d.model1.Primitive(b1)
	pid2 := d.model2.Primitive(b2)
	d.updateFromPair(pid1, pid2)
}

func (d *distanceBase) updateFromPair(pid1, pid2 int) {
	a1, a2, a3 := d.model1.TriangleVertices(pid1)
	b1, b2, b3 := d.model2.TriangleVertices(pid2)
	q1 := d.r.MulVec(b1).Add(d.t)
	q2 := d.r.MulVec(b2).Add(d.t)
	q3 := d.r.MulVec(b3).Add(d.t)

	dist, w1, w2 := triDistance(a1, a2, a3, q1, q2, q3)
	if d.rsum > 0 {
		w1, w2 = inflateWitnesses(dist, w1, w2, d.model1.SweptSphereRadius(), d.model2.SweptSphereRadius())
		dist = math.Max(dist-d.rsum, 0)
	}
	d.res.update(dist, pid1, pid2, w1, w2, d.req.EnableNearestPoints)
}

// CanStop implements DistanceTraversal: a branch whose lower bound is within
// the dual tolerance of the running minimum cannot improve it.
func (d *distanceBase) CanStop(c float64) bool {
	return c >= d.res.Distance-d.req.AbsErr && c*(1+d.req.RelErr) >= d.res.Distance
}

// inflateWitnesses moves each witness toward the other by its mesh's
// swept-sphere radius, onto the inflated surfaces.
func inflateWitnesses(dist float64, w1, w2 r3.Vector, r1, r2 float64) (r3.Vector, r3.Vector) {
	if dist <= triTol {
		return w1, w2
	}
	dir := w2.Sub(w1).Mul(1 / dist)
	return w1.Add(dir.Mul(math.Min(r1, dist))), w2.Sub(dir.Mul(math.Min(r2, dist)))
}
