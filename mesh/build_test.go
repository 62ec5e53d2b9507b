package mesh

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/proximity/bv"
)

// boxMesh returns the 8 vertices and 12 triangles of an axis-aligned box.
func boxMesh(center, half r3.Vector) ([]r3.Vector, []Triangle) {
	vertices := make([]r3.Vector, 0, 8)
	for _, sz := range []float64{-1, 1} {
		for _, sy := range []float64{-1, 1} {
			for _, sx := range []float64{-1, 1} {
				vertices = append(vertices, center.Add(r3.Vector{X: sx * half.X, Y: sy * half.Y, Z: sz * half.Z}))
			}
		}
	}
	triangles := []Triangle{
		{0, 2, 1}, {1, 2, 3},
		{4, 5, 6}, {5, 7, 6},
		{0, 1, 4}, {1, 5, 4},
		{2, 6, 3}, {3, 6, 7},
		{0, 4, 2}, {2, 4, 6},
		{1, 3, 5}, {3, 7, 5},
	}
	return vertices, triangles
}

func TestNewModel(t *testing.T) {
	vertices, triangles := boxMesh(r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 1})

	t.Run("validation", func(t *testing.T) {
		_, err := NewOBBModel(nil, triangles)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = NewOBBModel(vertices, nil)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = NewOBBModel(vertices, []Triangle{{0, 1, 99}})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "out of range")
	})

	t.Run("tree structure", func(t *testing.T) {
		m, err := NewOBBModel(vertices, triangles)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, m.Kind(), test.ShouldEqual, bv.KindOBB)
		test.That(t, m.NumTriangles(), test.ShouldEqual, 12)
		// One leaf per triangle over a proper binary tree.
		test.That(t, m.NumNodes(), test.ShouldEqual, 2*12-1)
		test.That(t, m.NodeSize(0), test.ShouldEqual, 12)

		seen := make(map[int]int)
		var walk func(b int) int
		walk = func(b int) int {
			if m.IsLeaf(b) {
				seen[m.Primitive(b)]++
				test.That(t, m.NodeSize(b), test.ShouldEqual, 1)
				return 1
			}
			test.That(t, m.RightChild(b), test.ShouldEqual, m.LeftChild(b)+1)
			total := walk(m.LeftChild(b)) + walk(m.RightChild(b))
			test.That(t, m.NodeSize(b), test.ShouldEqual, total)
			return total
		}
		test.That(t, walk(0), test.ShouldEqual, 12)
		for i := 0; i < 12; i++ {
			test.That(t, seen[i], test.ShouldEqual, 1)
		}
	})

	t.Run("single triangle model is a lone leaf", func(t *testing.T) {
		m, err := NewRSSModel(vertices, []Triangle{{0, 1, 2}})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, m.NumNodes(), test.ShouldEqual, 1)
		test.That(t, m.IsLeaf(0), test.ShouldBeTrue)
		test.That(t, m.Primitive(0), test.ShouldEqual, 0)
	})

	t.Run("volumes enclose their subtrees", func(t *testing.T) {
		m, err := NewOBBRSSModel(vertices, triangles)
		test.That(t, err, test.ShouldBeNil)
		var walk func(b int)
		walk = func(b int) {
			center, radius := m.Volume(b).BoundingSphere(m.Kind())
			var check func(b int)
			check = func(b int) {
				if m.IsLeaf(b) {
					a, p, q := m.TriangleVertices(m.Primitive(b))
					for _, v := range []r3.Vector{a, p, q} {
						test.That(t, v.Sub(center).Norm(), test.ShouldBeLessThanOrEqualTo, radius+1e-9)
					}
					return
				}
				check(m.LeftChild(b))
				check(m.RightChild(b))
			}
			check(b)
			if !m.IsLeaf(b) {
				walk(m.LeftChild(b))
				walk(m.RightChild(b))
			}
		}
		walk(0)
	})

	t.Run("occupancy and swept radius", func(t *testing.T) {
		m, err := NewKDOP18Model(vertices, triangles)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, m.Kind(), test.ShouldEqual, bv.KindKDOP18)
		test.That(t, m.Occupancy(), test.ShouldEqual, Occupied)
		test.That(t, m.IsOccupied(), test.ShouldBeTrue)
		test.That(t, m.IsFree(), test.ShouldBeFalse)
		m.SetOccupancy(Unknown)
		test.That(t, m.IsOccupied(), test.ShouldBeFalse)
		test.That(t, m.IsFree(), test.ShouldBeFalse)

		test.That(t, m.SetSweptSphereRadius(-1), test.ShouldNotBeNil)
		test.That(t, m.SetSweptSphereRadius(0.25), test.ShouldBeNil)
		test.That(t, m.SweptSphereRadius(), test.ShouldEqual, 0.25)
	})
}
