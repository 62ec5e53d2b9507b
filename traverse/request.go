// Package traverse implements the narrow-phase queries between two mesh
// bounding-volume hierarchies: discrete collision, closest-point distance and
// conservative-advancement continuous collision. A generic driver descends
// the two trees in lock step against a per-bounding-volume-kind strategy; the
// strategies share exact triangle oracles at the leaves.
package traverse

import (
	"math"

	"github.com/golang/geo/r3"
)

// Contact is one reported intersection between two triangles, with detail
// populated when the request asks for it. Point and Normal are in the world
// frame; Depth is the penetration distance along Normal, which points from
// the first mesh toward the second.
type Contact struct {
	ID1, ID2 int
	Point    r3.Vector
	Normal   r3.Vector
	Depth    float64
}

// CostSource is the axis-aligned overlap of two intersecting triangles'
// world bounds, tagged with the query's cost density. Cost sources accumulate
// for any non-Free mesh pair, independently of definite contacts.
type CostSource struct {
	Min, Max r3.Vector
	Density  float64
}

// CollisionRequest configures a discrete collision query.
type CollisionRequest struct {
	// MaxContacts caps the number of recorded contacts; contacts beyond the
	// cap are silently dropped. Zero means one (boolean query).
	MaxContacts int
	// EnableContact computes exact contact points, normals and penetration
	// depths instead of triangle ids alone.
	EnableContact bool
	// EnableCost accumulates overlap-region cost sources.
	EnableCost bool
	// CostDensity tags recorded cost sources.
	CostDensity float64
	// EnableStatistics counts BV and leaf tests.
	EnableStatistics bool
}

func (r *CollisionRequest) maxContacts() int {
	if r.MaxContacts <= 0 {
		return 1
	}
	return r.MaxContacts
}

// CollisionResult accumulates the output of a collision query.
type CollisionResult struct {
	Contacts    []Contact
	CostSources []CostSource
}

// IsCollision reports whether any contact was found.
func (r *CollisionResult) IsCollision() bool {
	return len(r.Contacts) > 0
}

func (r *CollisionResult) addContact(c Contact) {
	r.Contacts = append(r.Contacts, c)
}

func (r *CollisionResult) addCostSource(cs CostSource) {
	r.CostSources = append(r.CostSources, cs)
}

// DistanceRequest configures a closest-point distance query.
type DistanceRequest struct {
	// EnableNearestPoints populates the witness pair.
	EnableNearestPoints bool
	// AbsErr and RelErr allow early termination once the bound is within
	// tolerance of the running minimum.
	AbsErr, RelErr float64
	// QueueSize switches to best-first traversal when greater than two and
	// caps the priority queue at that many pending node pairs; expansions
	// that would overflow the cap finish recursively.
	QueueSize int
	// EnableStatistics counts BV and leaf tests.
	EnableStatistics bool
}

// DistanceResult accumulates the output of a distance query. Distance only
// ever decreases as leaf pairs are visited; ties keep the first witness pair
// found.
type DistanceResult struct {
	Distance      float64
	NearestPoints [2]r3.Vector
	ID1, ID2      int
}

// NewDistanceResult returns a result ready for accumulation.
func NewDistanceResult() DistanceResult {
	return DistanceResult{Distance: math.Inf(1), ID1: -1, ID2: -1}
}

func (r *DistanceResult) update(d float64, id1, id2 int, p1, p2 r3.Vector, withPoints bool) {
	if d >= r.Distance {
		return
	}
	r.Distance = d
	r.ID1, r.ID2 = id1, id2
	if withPoints {
		r.NearestPoints = [2]r3.Vector{p1, p2}
	}
}

// Stats counts the work a traversal performed, populated when the request
// enables statistics.
type Stats struct {
	BVTests   int
	LeafTests int
}
