package traverse

import "container/heap"

// Collide runs a discrete collision query to completion: lock-step recursive
// descent of both hierarchies, pruning subtree pairs whose volumes are
// provably disjoint and invoking the exact oracle at leaf pairs.
func Collide(n CollisionTraversal) {
	collisionRecurse(n, 0, 0)
}

func collisionRecurse(n CollisionTraversal, b1, b2 int) {
	if n.IsFirstLeaf(b1) && n.IsSecondLeaf(b2) {
		n.LeafTest(b1, b2)
		return
	}
	if n.BVTest(b1, b2) {
		return
	}
	if n.FirstOverSecond(b1, b2) {
		c := n.FirstChild1(b1)
		collisionRecurse(n, c, b2)
		if n.CanStop() {
			return
		}
		collisionRecurse(n, c+1, b2)
	} else {
		c := n.FirstChild2(b2)
		collisionRecurse(n, b1, c)
		if n.CanStop() {
			return
		}
		collisionRecurse(n, b1, c+1)
	}
}

// Distance runs a distance (or conservative-advancement) query to
// completion. Internal node pairs are expanded in order of their distance
// bound, visiting the nearer child pair first; a branch is skipped once the
// strategy reports its bound cannot improve the result. The bound for both
// child pairs is computed before either stop decision, which is what lets
// the conservative-advancement strategy retain its per-pair stack frames
// until the decision that consumes them.
func Distance(n DistanceTraversal) {
	n.Preprocess()
	distanceRecurse(n, 0, 0)
	n.Postprocess()
}

func distanceRecurse(n DistanceTraversal, b1, b2 int) {
	if n.IsFirstLeaf(b1) && n.IsSecondLeaf(b2) {
		n.LeafTest(b1, b2)
		return
	}

	var a1, a2, c1, c2 int
	if n.FirstOverSecond(b1, b2) {
		a1, a2 = n.FirstChild1(b1), b2
		c1, c2 = a1+1, b2
	} else {
		a1, a2 = b1, n.FirstChild2(b2)
		c1, c2 = b1, a2+1
	}

	d1 := n.BVTest(a1, a2)
	d2 := n.BVTest(c1, c2)

	if d2 < d1 {
		if !n.CanStop(d2) {
			distanceRecurse(n, c1, c2)
		}
		if !n.CanStop(d1) {
			distanceRecurse(n, a1, a2)
		}
	} else {
		if !n.CanStop(d1) {
			distanceRecurse(n, a1, a2)
		}
		if !n.CanStop(d2) {
			distanceRecurse(n, c1, c2)
		}
	}
}

// DistanceBestFirst runs a distance query with a global best-first order:
// node pairs are expanded from a priority queue keyed by their distance
// bound, capped at qsize entries. A pair whose expansion would overflow the
// cap is finished by recursive descent instead. Only valid for strategies
// whose stop decision is stateless, i.e. not for conservative advancement.
func DistanceBestFirst(n DistanceTraversal, qsize int) {
	n.Preprocess()
	q := &pairQueue{}
	cur := pairEntry{}
	for {
		b1, b2 := cur.b1, cur.b2
		switch {
		case n.IsFirstLeaf(b1) && n.IsSecondLeaf(b2):
			n.LeafTest(b1, b2)
		case q.Len()+2 > qsize:
			distanceRecurse(n, b1, b2)
		default:
			var a1, a2, c1, c2 int
			if n.FirstOverSecond(b1, b2) {
				a1, a2 = n.FirstChild1(b1), b2
				c1, c2 = a1+1, b2
			} else {
				a1, a2 = b1, n.FirstChild2(b2)
				c1, c2 = b1, a2+1
			}
			heap.Push(q, pairEntry{b1: a1, b2: a2, d: n.BVTest(a1, a2)})
			heap.Push(q, pairEntry{b1: c1, b2: c2, d: n.BVTest(c1, c2)})
		}
		if q.Len() == 0 {
			break
		}
		// The queue is keyed by the bound, so once its minimum cannot
		// improve the result nothing remaining can.
		cur = heap.Pop(q).(pairEntry)
		if n.CanStop(cur.d) {
			break
		}
	}
	n.Postprocess()
}

type pairEntry struct {
	b1, b2 int
	d      float64
}

type pairQueue []pairEntry

func (q pairQueue) Len() int            { return len(q) }
func (q pairQueue) Less(i, j int) bool  { return q[i].d < q[j].d }
func (q pairQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *pairQueue) Push(x interface{}) { *q = append(*q, x.(pairEntry)) }
func (q *pairQueue) Pop() interface{} {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}
