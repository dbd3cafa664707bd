package core

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// singularEpsilon is the determinant magnitude below which a matrix has no usable inverse
const singularEpsilon = 1e-12

// ErrSingular is returned when a transform cannot be inverted
var ErrSingular = errors.New("transform is not invertible")

// Transform is an affine 4x4 matrix paired with its exact inverse.
// The zero value is not valid; use IdentityTransform.
type Transform struct {
	matrix  mgl64.Mat4
	inverse mgl64.Mat4
}

// IdentityTransform returns the identity transform
func IdentityTransform() Transform {
	return Transform{matrix: mgl64.Ident4(), inverse: mgl64.Ident4()}
}

// NewTransform builds a transform from a matrix, computing its inverse
func NewTransform(m mgl64.Mat4) (Transform, error) {
	if math.Abs(m.Det()) < singularEpsilon {
		return Transform{}, ErrSingular
	}
	return Transform{matrix: m, inverse: m.Inv()}, nil
}

// Matrix returns the forward (local to parent) matrix
func (t Transform) Matrix() mgl64.Mat4 {
	return t.matrix
}

// Inverse returns the inverse (parent to local) matrix
func (t Transform) Inverse() mgl64.Mat4 {
	return t.inverse
}

// PreMultiply returns elementary * t, i.e. the elementary transform applied in parent space
func (t Transform) PreMultiply(elementary mgl64.Mat4) (Transform, error) {
	return NewTransform(elementary.Mul4(t.matrix))
}

// Point maps a point through the forward matrix
func (t Transform) Point(p Vec3) Vec3 {
	return transformPoint(t.matrix, p)
}

// Vector maps a direction through the linear part of the forward matrix
func (t Transform) Vector(v Vec3) Vec3 {
	return transformVector(t.matrix, v)
}

// Normal maps a surface normal by the inverse transpose of the linear part and renormalizes it
func (t Transform) Normal(n Vec3) Vec3 {
	normalMatrix := t.inverse.Mat3().Transpose()
	return FromMgl(normalMatrix.Mul3x1(n.Mgl())).Normalize()
}

// ApproxEqual compares both matrices within a tolerance
func (t Transform) ApproxEqual(other Transform, tolerance float64) bool {
	return t.matrix.ApproxEqualThreshold(other.matrix, tolerance) &&
		t.inverse.ApproxEqualThreshold(other.inverse, tolerance)
}

func transformPoint(m mgl64.Mat4, p Vec3) Vec3 {
	return FromMgl(m.Mul4x1(p.Mgl().Vec4(1)).Vec3())
}

func transformVector(m mgl64.Mat4, v Vec3) Vec3 {
	return FromMgl(m.Mul4x1(v.Mgl().Vec4(0)).Vec3())
}
