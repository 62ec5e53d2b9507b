package mesh

import (
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/proximity/bv"
)

// NewModel builds a bounding-volume hierarchy of the given kind over the
// caller's vertex and triangle buffers. The buffers are borrowed, not copied;
// the caller must not mutate them while the model is in use. The tree is
// built top-down with a median split on the longest axis of the triangle
// centroids, one triangle per leaf.
func NewModel(kind bv.Kind, vertices []r3.Vector, triangles []Triangle) (*Model, error) {
	if len(vertices) == 0 {
		return nil, errors.New("mesh model needs at least one vertex")
	}
	if len(triangles) == 0 {
		return nil, errors.New("mesh model needs at least one triangle")
	}
	for i, tri := range triangles {
		for _, v := range tri {
			if v < 0 || v >= len(vertices) {
				return nil, errors.Errorf("triangle %d references vertex %d, out of range [0,%d)", i, v, len(vertices))
			}
		}
	}

	m := &Model{
		kind:      kind,
		vertices:  vertices,
		triangles: triangles,
		occupancy: Occupied,
		nodes:     make([]node, 1, 2*len(triangles)),
	}
	order := make([]int, len(triangles))
	for i := range order {
		order[i] = i
	}
	m.buildRecurse(0, order)
	return m, nil
}

// NewOBBModel builds an oriented-bounding-box hierarchy.
func NewOBBModel(vertices []r3.Vector, triangles []Triangle) (*Model, error) {
	return NewModel(bv.KindOBB, vertices, triangles)
}

// NewRSSModel builds a rectangle-swept-sphere hierarchy.
func NewRSSModel(vertices []r3.Vector, triangles []Triangle) (*Model, error) {
	return NewModel(bv.KindRSS, vertices, triangles)
}

// NewKDOP18Model builds an 18-DOP hierarchy.
func NewKDOP18Model(vertices []r3.Vector, triangles []Triangle) (*Model, error) {
	return NewModel(bv.KindKDOP18, vertices, triangles)
}

// NewOBBRSSModel builds a hybrid hierarchy carrying both an oriented box and
// a rectangle swept sphere per node.
func NewOBBRSSModel(vertices []r3.Vector, triangles []Triangle) (*Model, error) {
	return NewModel(bv.KindOBBRSS, vertices, triangles)
}

func (m *Model) buildRecurse(idx int, tris []int) {
	pts := make([]r3.Vector, 0, 3*len(tris))
	for _, t := range tris {
		a, b, c := m.TriangleVertices(t)
		pts = append(pts, a, b, c)
	}
	m.nodes[idx].vol = bv.Fit(m.kind, pts)
	m.nodes[idx].count = len(tris)

	if len(tris) == 1 {
		m.nodes[idx].first = -(tris[0] + 1)
		return
	}

	axis := m.longestCentroidAxis(tris)
	sort.Slice(tris, func(i, j int) bool {
		return m.centroidComponent(tris[i], axis) < m.centroidComponent(tris[j], axis)
	})
	half := len(tris) / 2

	// Children are allocated as an adjacent pair before descending so the
	// node only needs to record the index of the first.
	first := len(m.nodes)
	m.nodes = append(m.nodes, node{}, node{})
	m.nodes[idx].first = first
	m.buildRecurse(first, tris[:half])
	m.buildRecurse(first+1, tris[half:])
}

func (m *Model) centroid(t int) r3.Vector {
	a, b, c := m.TriangleVertices(t)
	return a.Add(b).Add(c).Mul(1.0 / 3.0)
}

func (m *Model) centroidComponent(t, axis int) float64 {
	c := m.centroid(t)
	switch axis {
	case 0:
		return c.X
	case 1:
		return c.Y
	default:
		return c.Z
	}
}

func (m *Model) longestCentroidAxis(tris []int) int {
	centroids := make([]r3.Vector, 0, len(tris))
	for _, t := range tris {
		centroids = append(centroids, m.centroid(t))
	}
	box := bv.AABBFromPoints(centroids...)
	span := box.Max.Sub(box.Min)
	if span.X >= span.Y && span.X >= span.Z {
		return 0
	}
	if span.Y >= span.Z {
		return 1
	}
	return 2
}
