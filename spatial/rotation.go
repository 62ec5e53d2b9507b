// Package spatial provides the small amount of rigid-body math the query
// engine needs: 3x3 rotation matrices, rigid transforms, and conversions
// to and from quaternions and axis angles.
package spatial

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrix is a 3x3 rotation matrix in row-major order.
type RotationMatrix [9]float64

// IdentityRotation returns the identity rotation.
func IdentityRotation() RotationMatrix {
	return RotationMatrix{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// NewRotationMatrixFromQuat converts a unit quaternion to a rotation matrix.
func NewRotationMatrixFromQuat(q quat.Number) RotationMatrix {
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return RotationMatrix{
		1 - 2*y*y - 2*z*z, 2*x*y - 2*z*w, 2*x*z + 2*y*w,
		2*x*y + 2*z*w, 1 - 2*x*x - 2*z*z, 2*y*z - 2*x*w,
		2*x*z - 2*y*w, 2*y*z + 2*x*w, 1 - 2*x*x - 2*y*y,
	}
}

// NewRotationMatrixFromAxisAngle builds the rotation of theta radians about the given axis.
// The axis need not be normalized; a zero axis yields the identity.
func NewRotationMatrixFromAxisAngle(axis r3.Vector, theta float64) RotationMatrix {
	norm := axis.Norm()
	if norm == 0 {
		return IdentityRotation()
	}
	u := axis.Mul(1 / norm)
	sinA := math.Sin(theta / 2)
	q := quat.Number{Real: math.Cos(theta / 2), Imag: u.X * sinA, Jmag: u.Y * sinA, Kmag: u.Z * sinA}
	return NewRotationMatrixFromQuat(q)
}

// Quaternion converts the rotation matrix back to a unit quaternion.
func (rm RotationMatrix) Quaternion() quat.Number {
	tr := rm[0] + rm[4] + rm[8]
	var q quat.Number
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = quat.Number{Real: s / 4, Imag: (rm[7] - rm[5]) / s, Jmag: (rm[2] - rm[6]) / s, Kmag: (rm[3] - rm[1]) / s}
	case rm[0] > rm[4] && rm[0] > rm[8]:
		s := math.Sqrt(1+rm[0]-rm[4]-rm[8]) * 2
		q = quat.Number{Real: (rm[7] - rm[5]) / s, Imag: s / 4, Jmag: (rm[1] + rm[3]) / s, Kmag: (rm[2] + rm[6]) / s}
	case rm[4] > rm[8]:
		s := math.Sqrt(1+rm[4]-rm[0]-rm[8]) * 2
		q = quat.Number{Real: (rm[2] - rm[6]) / s, Imag: (rm[1] + rm[3]) / s, Jmag: s / 4, Kmag: (rm[5] + rm[7]) / s}
	default:
		s := math.Sqrt(1+rm[8]-rm[0]-rm[4]) * 2
		q = quat.Number{Real: (rm[3] - rm[1]) / s, Imag: (rm[2] + rm[6]) / s, Jmag: (rm[5] + rm[7]) / s, Kmag: s / 4}
	}
	return q
}

// Row returns the i-th row of the matrix.
func (rm RotationMatrix) Row(i int) r3.Vector {
	return r3.Vector{X: rm[3*i], Y: rm[3*i+1], Z: rm[3*i+2]}
}

// Col returns the i-th column of the matrix.
func (rm RotationMatrix) Col(i int) r3.Vector {
	return r3.Vector{X: rm[i], Y: rm[i+3], Z: rm[i+6]}
}

// MulVec applies the rotation to a vector.
func (rm RotationMatrix) MulVec(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: rm[0]*v.X + rm[1]*v.Y + rm[2]*v.Z,
		Y: rm[3]*v.X + rm[4]*v.Y + rm[5]*v.Z,
		Z: rm[6]*v.X + rm[7]*v.Y + rm[8]*v.Z,
	}
}

// TransposeMulVec applies the inverse rotation to a vector.
func (rm RotationMatrix) TransposeMulVec(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: rm[0]*v.X + rm[3]*v.Y + rm[6]*v.Z,
		Y: rm[1]*v.X + rm[4]*v.Y + rm[7]*v.Z,
		Z: rm[2]*v.X + rm[5]*v.Y + rm[8]*v.Z,
	}
}

// Mul returns the matrix product rm * other.
func (rm RotationMatrix) Mul(other RotationMatrix) RotationMatrix {
	var out RotationMatrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[3*i+j] = rm[3*i]*other[j] + rm[3*i+1]*other[3+j] + rm[3*i+2]*other[6+j]
		}
	}
	return out
}

// TransposeMul returns the matrix product rmᵀ * other.
func (rm RotationMatrix) TransposeMul(other RotationMatrix) RotationMatrix {
	var out RotationMatrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[3*i+j] = rm[i]*other[j] + rm[i+3]*other[3+j] + rm[i+6]*other[6+j]
		}
	}
	return out
}

// Transpose returns the transposed (inverse) rotation.
func (rm RotationMatrix) Transpose() RotationMatrix {
	return RotationMatrix{
		rm[0], rm[3], rm[6],
		rm[1], rm[4], rm[7],
		rm[2], rm[5], rm[8],
	}
}
