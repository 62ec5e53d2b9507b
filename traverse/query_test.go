package traverse

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/proximity/bv"
	"go.viam.com/proximity/mesh"
	"go.viam.com/proximity/spatial"
)

var allKinds = []bv.Kind{bv.KindOBB, bv.KindRSS, bv.KindKDOP18, bv.KindOBBRSS}

// boxModel builds a unit-cube-sized hierarchy centered at the local origin.
func boxModel(t *testing.T, kind bv.Kind, half r3.Vector) *mesh.Model {
	t.Helper()
	vertices := make([]r3.Vector, 0, 8)
	for _, sz := range []float64{-1, 1} {
		for _, sy := range []float64{-1, 1} {
			for _, sx := range []float64{-1, 1} {
				vertices = append(vertices, r3.Vector{X: sx * half.X, Y: sy * half.Y, Z: sz * half.Z})
			}
		}
	}
	triangles := []mesh.Triangle{
		{0, 2, 1}, {1, 2, 3},
		{4, 5, 6}, {5, 7, 6},
		{0, 1, 4}, {1, 5, 4},
		{2, 6, 3}, {3, 6, 7},
		{0, 4, 2}, {2, 4, 6},
		{1, 3, 5}, {3, 7, 5},
	}
	m, err := mesh.NewModel(kind, vertices, triangles)
	test.That(t, err, test.ShouldBeNil)
	return m
}

func poseAt(x float64) spatial.Transform {
	return spatial.Transform{R: spatial.IdentityRotation(), T: r3.Vector{X: x}}
}

func runCollision(t *testing.T, m1, m2 *mesh.Model, tf1, tf2 spatial.Transform, req *CollisionRequest) (*CollisionResult, Stats) {
	t.Helper()
	var res CollisionResult
	node, err := NewCollisionTraversal(m1, tf1, m2, tf2, req, &res)
	test.That(t, err, test.ShouldBeNil)
	Collide(node)
	return &res, node.Stats()
}

func runDistance(t *testing.T, m1, m2 *mesh.Model, tf1, tf2 spatial.Transform, req *DistanceRequest) (*DistanceResult, Stats) {
	t.Helper()
	res := NewDistanceResult()
	node, err := NewDistanceTraversal(m1, tf1, m2, tf2, req, &res)
	test.That(t, err, test.ShouldBeNil)
	if req.QueueSize > 2 {
		DistanceBestFirst(node, req.QueueSize)
	} else {
		Distance(node)
	}
	return &res, node.Stats()
}

func TestCollision(t *testing.T) {
	half := r3.Vector{X: 0.5, Y: 0.5, Z: 0.5}

	t.Run("overlapping boxes collide for every kind", func(t *testing.T) {
		for _, kind := range allKinds {
			m1 := boxModel(t, kind, half)
			m2 := boxModel(t, kind, half)
			res, _ := runCollision(t, m1, m2, poseAt(0), poseAt(0.5), &CollisionRequest{})
			test.That(t, res.IsCollision(), test.ShouldBeTrue)
		}
	})

	t.Run("separated boxes prune without leaf tests", func(t *testing.T) {
		for _, kind := range allKinds {
			m1 := boxModel(t, kind, half)
			m2 := boxModel(t, kind, half)
			res, stats := runCollision(t, m1, m2, poseAt(0), poseAt(3), &CollisionRequest{EnableStatistics: true})
			test.That(t, res.IsCollision(), test.ShouldBeFalse)
			test.That(t, stats.LeafTests, test.ShouldEqual, 0)
			test.That(t, stats.BVTests, test.ShouldBeGreaterThan, 0)
		}
	})

	t.Run("touching surfaces collide", func(t *testing.T) {
		m1 := boxModel(t, bv.KindOBB, half)
		m2 := boxModel(t, bv.KindOBB, half)
		res, _ := runCollision(t, m1, m2, poseAt(0), poseAt(1), &CollisionRequest{})
		test.That(t, res.IsCollision(), test.ShouldBeTrue)
	})

	t.Run("boolean query stops at the first contact", func(t *testing.T) {
		m1 := boxModel(t, bv.KindOBBRSS, half)
		m2 := boxModel(t, bv.KindOBBRSS, half)
		res, _ := runCollision(t, m1, m2, poseAt(0), poseAt(0.2), &CollisionRequest{})
		test.That(t, len(res.Contacts), test.ShouldEqual, 1)
	})

	t.Run("contact cap is never exceeded", func(t *testing.T) {
		m1 := boxModel(t, bv.KindOBB, half)
		m2 := boxModel(t, bv.KindOBB, half)
		res, _ := runCollision(t, m1, m2, poseAt(0), poseAt(0.2), &CollisionRequest{
			MaxContacts:   3,
			EnableContact: true,
		})
		test.That(t, len(res.Contacts), test.ShouldEqual, 3)
	})

	t.Run("contact detail", func(t *testing.T) {
		m1 := boxModel(t, bv.KindRSS, half)
		m2 := boxModel(t, bv.KindRSS, half)
		tf1 := poseAt(0)
		tf2 := poseAt(0.75)
		res, _ := runCollision(t, m1, m2, tf1, tf2, &CollisionRequest{
			MaxContacts:   100,
			EnableContact: true,
		})
		test.That(t, res.IsCollision(), test.ShouldBeTrue)
		for _, c := range res.Contacts {
			test.That(t, c.Normal.Norm(), test.ShouldAlmostEqual, 1, 1e-9)
			test.That(t, c.Depth, test.ShouldBeGreaterThanOrEqualTo, 0)
			// Contact points live on the overlapping surfaces.
			test.That(t, c.Point.X, test.ShouldBeBetween, 0.25-1e-9, 0.5+1e-9)
			test.That(t, math.Abs(c.Point.Y), test.ShouldBeLessThanOrEqualTo, 0.5+1e-9)
			test.That(t, math.Abs(c.Point.Z), test.ShouldBeLessThanOrEqualTo, 0.5+1e-9)
		}
	})

	t.Run("half-overlapping boxes trace the full interpenetration", func(t *testing.T) {
		// Unit boxes with centers 0.5 apart interpenetrate by 0.5 along X.
		// Triangulated surfaces meet only where faces cross, so the
		// contacts sit on the crossing curves: together they span exactly
		// the overlap slab, while each triangle pair's own penetration is
		// zero because every face triangle touches the extreme planes of
		// the other box.
		m1 := boxModel(t, bv.KindOBB, half)
		m2 := boxModel(t, bv.KindOBB, half)
		res, _ := runCollision(t, m1, m2, poseAt(0), poseAt(0.5), &CollisionRequest{
			MaxContacts:   200,
			EnableContact: true,
		})
		test.That(t, res.IsCollision(), test.ShouldBeTrue)

		minX, maxX := math.Inf(1), math.Inf(-1)
		for _, c := range res.Contacts {
			minX = math.Min(minX, c.Point.X)
			maxX = math.Max(maxX, c.Point.X)
			test.That(t, c.Depth, test.ShouldAlmostEqual, 0, 1e-12)
			test.That(t, c.Normal.Norm(), test.ShouldAlmostEqual, 1, 1e-9)
		}
		test.That(t, minX, test.ShouldAlmostEqual, 0, 1e-9)
		test.That(t, maxX, test.ShouldAlmostEqual, 0.5, 1e-9)
	})

	t.Run("swept sphere radius inflates the geometry", func(t *testing.T) {
		m1 := boxModel(t, bv.KindRSS, half)
		m2 := boxModel(t, bv.KindRSS, half)
		test.That(t, m1.SetSweptSphereRadius(1.2), test.ShouldBeNil)
		test.That(t, m2.SetSweptSphereRadius(1.2), test.ShouldBeNil)

		// Surfaces 2 apart, combined inflation 2.4.
		res, _ := runCollision(t, m1, m2, poseAt(0), poseAt(3), &CollisionRequest{
			MaxContacts:   200,
			EnableContact: true,
		})
		test.That(t, res.IsCollision(), test.ShouldBeTrue)
		deepest := 0.0
		for _, c := range res.Contacts {
			test.That(t, c.Depth, test.ShouldBeGreaterThanOrEqualTo, 0)
			test.That(t, c.Depth, test.ShouldBeLessThanOrEqualTo, 0.4+1e-9)
			deepest = math.Max(deepest, c.Depth)
		}
		test.That(t, deepest, test.ShouldAlmostEqual, 0.4, 1e-9)

		test.That(t, m1.SetSweptSphereRadius(0.5), test.ShouldBeNil)
		test.That(t, m2.SetSweptSphereRadius(0.5), test.ShouldBeNil)
		res, _ = runCollision(t, m1, m2, poseAt(0), poseAt(3), &CollisionRequest{})
		test.That(t, res.IsCollision(), test.ShouldBeFalse)
	})

	t.Run("occupancy gates contacts", func(t *testing.T) {
		m1 := boxModel(t, bv.KindOBB, half)
		m2 := boxModel(t, bv.KindOBB, half)
		m2.SetOccupancy(mesh.Free)
		res, _ := runCollision(t, m1, m2, poseAt(0), poseAt(0.2), &CollisionRequest{EnableCost: true, CostDensity: 1})
		test.That(t, res.IsCollision(), test.ShouldBeFalse)
		test.That(t, len(res.CostSources), test.ShouldEqual, 0)

		m2.SetOccupancy(mesh.Unknown)
		res, _ = runCollision(t, m1, m2, poseAt(0), poseAt(0.2), &CollisionRequest{EnableCost: true, CostDensity: 1})
		test.That(t, res.IsCollision(), test.ShouldBeFalse)
		test.That(t, len(res.CostSources), test.ShouldBeGreaterThan, 0)

		// Without cost accounting an Unknown pair reports nothing at all.
		res, _ = runCollision(t, m1, m2, poseAt(0), poseAt(0.2), &CollisionRequest{})
		test.That(t, res.IsCollision(), test.ShouldBeFalse)
		test.That(t, len(res.CostSources), test.ShouldEqual, 0)
	})

	t.Run("cost sources accumulate alongside capped contacts", func(t *testing.T) {
		m1 := boxModel(t, bv.KindOBB, half)
		m2 := boxModel(t, bv.KindOBB, half)
		res, _ := runCollision(t, m1, m2, poseAt(0), poseAt(0.2), &CollisionRequest{
			EnableCost:  true,
			CostDensity: 2.5,
		})
		test.That(t, len(res.Contacts), test.ShouldEqual, 1)
		test.That(t, len(res.CostSources), test.ShouldBeGreaterThan, 1)
		for _, cs := range res.CostSources {
			test.That(t, cs.Density, test.ShouldEqual, 2.5)
			test.That(t, cs.Max.X, test.ShouldBeGreaterThanOrEqualTo, cs.Min.X)
			test.That(t, cs.Max.Y, test.ShouldBeGreaterThanOrEqualTo, cs.Min.Y)
			test.That(t, cs.Max.Z, test.ShouldBeGreaterThanOrEqualTo, cs.Min.Z)
		}
	})

	t.Run("kind mismatch is rejected", func(t *testing.T) {
		m1 := boxModel(t, bv.KindOBB, half)
		m2 := boxModel(t, bv.KindRSS, half)
		var res CollisionResult
		_, err := NewCollisionTraversal(m1, poseAt(0), m2, poseAt(3), &CollisionRequest{}, &res)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "mismatched")
	})
}

func TestDistance(t *testing.T) {
	half := r3.Vector{X: 0.5, Y: 0.5, Z: 0.5}

	t.Run("axis aligned gap for every kind", func(t *testing.T) {
		for _, kind := range allKinds {
			m1 := boxModel(t, kind, half)
			m2 := boxModel(t, kind, half)
			res, _ := runDistance(t, m1, m2, poseAt(0), poseAt(3), &DistanceRequest{EnableNearestPoints: true})
			test.That(t, res.Distance, test.ShouldAlmostEqual, 2, 1e-9)
			test.That(t, res.NearestPoints[0].X, test.ShouldAlmostEqual, 0.5, 1e-9)
			test.That(t, res.NearestPoints[1].X, test.ShouldAlmostEqual, 2.5, 1e-9)
			test.That(t, res.ID1, test.ShouldBeGreaterThanOrEqualTo, 0)
			test.That(t, res.ID2, test.ShouldBeGreaterThanOrEqualTo, 0)
		}
	})

	t.Run("rotated box distance is exact", func(t *testing.T) {
		want := 3 - 0.5 - math.Sqrt2/2
		tf2 := spatial.Transform{
			R: spatial.NewRotationMatrixFromAxisAngle(r3.Vector{Z: 1}, math.Pi/4),
			T: r3.Vector{X: 3},
		}
		for _, kind := range allKinds {
			m1 := boxModel(t, kind, half)
			m2 := boxModel(t, kind, half)
			res, _ := runDistance(t, m1, m2, poseAt(0), tf2, &DistanceRequest{})
			test.That(t, res.Distance, test.ShouldAlmostEqual, want, 1e-9)
		}
	})

	t.Run("intersecting boxes report zero", func(t *testing.T) {
		m1 := boxModel(t, bv.KindRSS, half)
		m2 := boxModel(t, bv.KindRSS, half)
		res, _ := runDistance(t, m1, m2, poseAt(0), poseAt(0.5), &DistanceRequest{})
		test.That(t, res.Distance, test.ShouldEqual, 0)
	})

	t.Run("swept sphere radius shrinks the distance", func(t *testing.T) {
		m1 := boxModel(t, bv.KindOBBRSS, half)
		m2 := boxModel(t, bv.KindOBBRSS, half)
		test.That(t, m1.SetSweptSphereRadius(0.25), test.ShouldBeNil)
		test.That(t, m2.SetSweptSphereRadius(0.5), test.ShouldBeNil)
		res, _ := runDistance(t, m1, m2, poseAt(0), poseAt(3), &DistanceRequest{EnableNearestPoints: true})
		test.That(t, res.Distance, test.ShouldAlmostEqual, 2-0.75, 1e-9)
		// Witnesses sit on the inflated surfaces.
		test.That(t, res.NearestPoints[0].X, test.ShouldAlmostEqual, 0.75, 1e-9)
		test.That(t, res.NearestPoints[1].X, test.ShouldAlmostEqual, 2, 1e-9)
	})

	t.Run("best first agrees with recursive descent", func(t *testing.T) {
		tf2 := spatial.Transform{
			R: spatial.NewRotationMatrixFromAxisAngle(r3.Vector{X: 1, Y: 1}.Normalize(), 0.7),
			T: r3.Vector{X: 2, Y: 1, Z: -0.5},
		}
		for _, kind := range allKinds {
			m1 := boxModel(t, kind, half)
			m2 := boxModel(t, kind, half)
			rec, _ := runDistance(t, m1, m2, poseAt(0), tf2, &DistanceRequest{})
			// A queue of 3 overflows on nearly every expansion, exercising
			// the recursive fallback; 64 is never hit by two 12-triangle
			// hierarchies.
			for _, qsize := range []int{3, 4, 8, 64} {
				bf, _ := runDistance(t, m1, m2, poseAt(0), tf2, &DistanceRequest{QueueSize: qsize})
				test.That(t, bf.Distance, test.ShouldAlmostEqual, rec.Distance, 1e-9)
			}
		}
	})

	t.Run("absolute tolerance allows early exit within tolerance", func(t *testing.T) {
		m1 := boxModel(t, bv.KindRSS, half)
		m2 := boxModel(t, bv.KindRSS, half)
		exact, exactStats := runDistance(t, m1, m2, poseAt(0), poseAt(3), &DistanceRequest{EnableStatistics: true})
		loose, looseStats := runDistance(t, m1, m2, poseAt(0), poseAt(3), &DistanceRequest{AbsErr: 0.5, EnableStatistics: true})
		test.That(t, loose.Distance, test.ShouldBeLessThanOrEqualTo, exact.Distance+0.5)
		test.That(t, loose.Distance, test.ShouldBeGreaterThanOrEqualTo, exact.Distance-1e-9)
		test.That(t, looseStats.LeafTests, test.ShouldBeLessThanOrEqualTo, exactStats.LeafTests)
	})

	t.Run("statistics count traversal work", func(t *testing.T) {
		m1 := boxModel(t, bv.KindOBB, half)
		m2 := boxModel(t, bv.KindOBB, half)
		_, stats := runDistance(t, m1, m2, poseAt(0), poseAt(3), &DistanceRequest{EnableStatistics: true})
		test.That(t, stats.BVTests, test.ShouldBeGreaterThan, 0)
		test.That(t, stats.LeafTests, test.ShouldBeGreaterThan, 0)

		_, silent := runDistance(t, m1, m2, poseAt(0), poseAt(3), &DistanceRequest{})
		test.That(t, silent.BVTests, test.ShouldEqual, 0)
	})

	t.Run("running minimum only improves", func(t *testing.T) {
		res := NewDistanceResult()
		test.That(t, math.IsInf(res.Distance, 1), test.ShouldBeTrue)
		test.That(t, res.ID1, test.ShouldEqual, -1)

		res.update(3, 1, 2, r3.Vector{X: 1}, r3.Vector{X: 4}, true)
		test.That(t, res.Distance, test.ShouldEqual, 3.0)
		test.That(t, res.ID1, test.ShouldEqual, 1)

		// A worse or equal candidate leaves the result untouched.
		res.update(5, 7, 8, r3.Vector{}, r3.Vector{}, true)
		res.update(3, 7, 8, r3.Vector{}, r3.Vector{}, true)
		test.That(t, res.Distance, test.ShouldEqual, 3.0)
		test.That(t, res.ID1, test.ShouldEqual, 1)
		test.That(t, res.NearestPoints[1], test.ShouldResemble, r3.Vector{X: 4})

		res.update(1.5, 7, 8, r3.Vector{}, r3.Vector{X: 1.5}, true)
		test.That(t, res.Distance, test.ShouldEqual, 1.5)
		test.That(t, res.ID2, test.ShouldEqual, 8)
	})

	t.Run("distance monotonically shrinks as boxes approach", func(t *testing.T) {
		m1 := boxModel(t, bv.KindOBBRSS, half)
		m2 := boxModel(t, bv.KindOBBRSS, half)
		prev := math.Inf(1)
		for _, x := range []float64{5, 4, 3, 2, 1.5, 1.1} {
			res, _ := runDistance(t, m1, m2, poseAt(0), poseAt(x), &DistanceRequest{})
			test.That(t, res.Distance, test.ShouldBeLessThan, prev)
			test.That(t, res.Distance, test.ShouldAlmostEqual, x-1, 1e-9)
			prev = res.Distance
		}
	})
}
