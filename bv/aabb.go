// Package bv provides the bounding-volume kinds used by mesh hierarchies
// (oriented boxes, rectangle swept spheres, discrete oriented polytopes and
// an OBB+RSS hybrid) along with their fit, overlap and distance primitives.
// All pairwise tests take the relative transform that places the second
// volume's model frame into the first's.
package bv

import (
	"math"

	"github.com/golang/geo/r3"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max r3.Vector
}

// AABBFromPoints returns the tightest axis-aligned box around the given points.
func AABBFromPoints(pts ...r3.Vector) AABB {
	box := AABB{
		Min: r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	for _, p := range pts {
		box.Min.X = math.Min(box.Min.X, p.X)
		box.Min.Y = math.Min(box.Min.Y, p.Y)
		box.Min.Z = math.Min(box.Min.Z, p.Z)
		box.Max.X = math.Max(box.Max.X, p.X)
		box.Max.Y = math.Max(box.Max.Y, p.Y)
		box.Max.Z = math.Max(box.Max.Z, p.Z)
	}
	return box
}

// Overlap returns the intersection of the two boxes and whether they overlap at all.
func (b AABB) Overlap(other AABB) (AABB, bool) {
	part := AABB{
		Min: r3.Vector{X: math.Max(b.Min.X, other.Min.X), Y: math.Max(b.Min.Y, other.Min.Y), Z: math.Max(b.Min.Z, other.Min.Z)},
		Max: r3.Vector{X: math.Min(b.Max.X, other.Max.X), Y: math.Min(b.Max.Y, other.Max.Y), Z: math.Min(b.Max.Z, other.Max.Z)},
	}
	if part.Min.X > part.Max.X || part.Min.Y > part.Max.Y || part.Min.Z > part.Max.Z {
		return AABB{}, false
	}
	return part, true
}

// Corners returns the eight corner points of the box.
func (b AABB) Corners() [8]r3.Vector {
	return [8]r3.Vector{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}
}
