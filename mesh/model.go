// Package mesh provides the triangle-mesh bounding-volume hierarchy consumed
// by the traversal engine. A model borrows its caller's vertex and triangle
// buffers, never copying or mutating them, and is read-only once built, so it
// may be shared freely across concurrent queries.
package mesh

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/proximity/bv"
)

// Occupancy tags how definite a model's geometry is. Contacts are only
// reported for Occupied-Occupied pairs; any non-Free pair can still
// contribute cost sources.
type Occupancy int

const (
	// Occupied models definitely contain geometry.
	Occupied Occupancy = iota
	// Free models are known empty and never produce contacts or costs.
	Free
	// Unknown models possibly contain geometry.
	Unknown
)

// Triangle holds the three vertex indices of one mesh triangle.
type Triangle [3]int

// node is one entry of the flattened hierarchy. A negative first encodes a
// leaf holding primitive -(first+1); otherwise the children are the adjacent
// pair first and first+1.
type node struct {
	vol   bv.Volume
	first int
	count int
}

// Model is a triangle mesh together with its bounding-volume tree.
type Model struct {
	kind        bv.Kind
	vertices    []r3.Vector
	triangles   []Triangle
	nodes       []node
	occupancy   Occupancy
	sweptRadius float64
}

// Kind returns the model's bounding-volume kind.
func (m *Model) Kind() bv.Kind { return m.kind }

// NumTriangles returns the number of mesh triangles.
func (m *Model) NumTriangles() int { return len(m.triangles) }

// NumNodes returns the number of hierarchy nodes.
func (m *Model) NumNodes() int { return len(m.nodes) }

// IsLeaf reports whether hierarchy node b is a leaf.
func (m *Model) IsLeaf(b int) bool { return m.nodes[b].first < 0 }

// Primitive returns the triangle index stored at leaf node b.
func (m *Model) Primitive(b int) int { return -(m.nodes[b].first + 1) }

// LeftChild returns the first child of internal node b.
func (m *Model) LeftChild(b int) int { return m.nodes[b].first }

// RightChild returns the second child of internal node b.
func (m *Model) RightChild(b int) int { return m.nodes[b].first + 1 }

// NodeSize returns the number of primitives beneath node b, used to order
// lock-step descent toward the larger subtree.
func (m *Model) NodeSize(b int) int { return m.nodes[b].count }

// Volume returns the bounding volume of node b.
func (m *Model) Volume(b int) *bv.Volume { return &m.nodes[b].vol }

// TriangleVertices returns the three corner points of triangle i.
func (m *Model) TriangleVertices(i int) (r3.Vector, r3.Vector, r3.Vector) {
	tri := m.triangles[i]
	return m.vertices[tri[0]], m.vertices[tri[1]], m.vertices[tri[2]]
}

// Occupancy returns the model's occupancy tag.
func (m *Model) Occupancy() Occupancy { return m.occupancy }

// SetOccupancy tags the model; it must not be called during a query.
func (m *Model) SetOccupancy(o Occupancy) { m.occupancy = o }

// IsOccupied reports whether the model definitely contains geometry.
func (m *Model) IsOccupied() bool { return m.occupancy == Occupied }

// IsFree reports whether the model is known empty.
func (m *Model) IsFree() bool { return m.occupancy == Free }

// SweptSphereRadius returns the model's swept-sphere inflation radius.
func (m *Model) SweptSphereRadius() float64 { return m.sweptRadius }

// SetSweptSphereRadius virtually inflates the mesh by r, rounding all of its
// geometry with a sphere of that radius for collision and distance purposes.
func (m *Model) SetSweptSphereRadius(r float64) error {
	if r < 0 {
		return errors.Errorf("swept-sphere radius must be non-negative, got %f", r)
	}
	m.sweptRadius = r
	return nil
}
