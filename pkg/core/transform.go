package core

import "math"

// Matrix4x4 is a row-major 4x4 matrix
type Matrix4x4 struct {
	M [4][4]float64
}

// IdentityMatrix returns the identity matrix
func IdentityMatrix() Matrix4x4 {
	var m Matrix4x4
	m.M[0][0] = 1
	m.M[1][1] = 1
	m.M[2][2] = 1
	m.M[3][3] = 1
	return m
}

// TranslateMatrix returns a translation matrix
func TranslateMatrix(t Vec3) Matrix4x4 {
	m := IdentityMatrix()
	m.M[0][3] = t.X
	m.M[1][3] = t.Y
	m.M[2][3] = t.Z
	return m
}

// ScaleMatrix returns a scaling matrix
func ScaleMatrix(s Vec3) Matrix4x4 {
	var m Matrix4x4
	m.M[0][0] = s.X
	m.M[1][1] = s.Y
	m.M[2][2] = s.Z
	m.M[3][3] = 1
	return m
}

// RotateXMatrix returns a rotation matrix around the X axis (radians)
func RotateXMatrix(angle float64) Matrix4x4 {
	s, c := math.Sincos(angle)
	m := IdentityMatrix()
	m.M[1][1] = c
	m.M[1][2] = -s
	m.M[2][1] = s
	m.M[2][2] = c
	return m
}

// RotateYMatrix returns a rotation matrix around the Y axis (radians)
func RotateYMatrix(angle float64) Matrix4x4 {
	s, c := math.Sincos(angle)
	m := IdentityMatrix()
	m.M[0][0] = c
	m.M[0][2] = s
	m.M[2][0] = -s
	m.M[2][2] = c
	return m
}

// RotateZMatrix returns a rotation matrix around the Z axis (radians)
func RotateZMatrix(angle float64) Matrix4x4 {
	s, c := math.Sincos(angle)
	m := IdentityMatrix()
	m.M[0][0] = c
	m.M[0][1] = -s
	m.M[1][0] = s
	m.M[1][1] = c
	return m
}

// Multiply returns the matrix product a*b
func (a Matrix4x4) Multiply(b Matrix4x4) Matrix4x4 {
	var r Matrix4x4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += a.M[i][k] * b.M[k][j]
			}
			r.M[i][j] = sum
		}
	}
	return r
}

// Transform stores a matrix together with its inverse. Rotation-translation
// transforms keep normals intact; TRS transforms additionally carry scale so
// normals go through the inverse-transpose.
type Transform struct {
	m    Matrix4x4
	mInv Matrix4x4
}

// NewTransform creates a translation+rotation transform. Rotation angles are
// radians; the matrix is T·Ry·Rx·Rz, so a vector is rotated about Z first,
// then X, then Y.
func NewTransform(position, rotation Vec3) Transform {
	m := TranslateMatrix(position).
		Multiply(RotateYMatrix(rotation.Y)).
		Multiply(RotateXMatrix(rotation.X)).
		Multiply(RotateZMatrix(rotation.Z))
	mInv := RotateZMatrix(-rotation.Z).
		Multiply(RotateXMatrix(-rotation.X)).
		Multiply(RotateYMatrix(-rotation.Y)).
		Multiply(TranslateMatrix(position.Negate()))
	return Transform{m: m, mInv: mInv}
}

// NewTransformTRS creates a translation+rotation+scale transform
func NewTransformTRS(position, rotation, scale Vec3) Transform {
	m := TranslateMatrix(position).
		Multiply(RotateYMatrix(rotation.Y)).
		Multiply(RotateXMatrix(rotation.X)).
		Multiply(RotateZMatrix(rotation.Z)).
		Multiply(ScaleMatrix(scale))
	mInv := ScaleMatrix(Vec3{1.0 / scale.X, 1.0 / scale.Y, 1.0 / scale.Z}).
		Multiply(RotateZMatrix(-rotation.Z)).
		Multiply(RotateXMatrix(-rotation.X)).
		Multiply(RotateYMatrix(-rotation.Y)).
		Multiply(TranslateMatrix(position.Negate()))
	return Transform{m: m, mInv: mInv}
}

// IdentityTransform returns the identity transform
func IdentityTransform() Transform {
	return Transform{m: IdentityMatrix(), mInv: IdentityMatrix()}
}

// TransformPoint applies the transform to a point
func (t Transform) TransformPoint(p Vec3) Vec3 {
	return Vec3{
		t.m.M[0][0]*p.X + t.m.M[0][1]*p.Y + t.m.M[0][2]*p.Z + t.m.M[0][3],
		t.m.M[1][0]*p.X + t.m.M[1][1]*p.Y + t.m.M[1][2]*p.Z + t.m.M[1][3],
		t.m.M[2][0]*p.X + t.m.M[2][1]*p.Y + t.m.M[2][2]*p.Z + t.m.M[2][3],
	}
}

// TransformVector applies the transform to a direction, ignoring translation
func (t Transform) TransformVector(v Vec3) Vec3 {
	return Vec3{
		t.m.M[0][0]*v.X + t.m.M[0][1]*v.Y + t.m.M[0][2]*v.Z,
		t.m.M[1][0]*v.X + t.m.M[1][1]*v.Y + t.m.M[1][2]*v.Z,
		t.m.M[2][0]*v.X + t.m.M[2][1]*v.Y + t.m.M[2][2]*v.Z,
	}
}

// TransformNormal applies the inverse-transpose upper-left block to a normal
// and re-normalises
func (t Transform) TransformNormal(n Vec3) Vec3 {
	return Vec3{
		t.mInv.M[0][0]*n.X + t.mInv.M[1][0]*n.Y + t.mInv.M[2][0]*n.Z,
		t.mInv.M[0][1]*n.X + t.mInv.M[1][1]*n.Y + t.mInv.M[2][1]*n.Z,
		t.mInv.M[0][2]*n.X + t.mInv.M[1][2]*n.Y + t.mInv.M[2][2]*n.Z,
	}.Normalize()
}

// InverseTransformPoint applies the inverse transform to a point
func (t Transform) InverseTransformPoint(p Vec3) Vec3 {
	return Vec3{
		t.mInv.M[0][0]*p.X + t.mInv.M[0][1]*p.Y + t.mInv.M[0][2]*p.Z + t.mInv.M[0][3],
		t.mInv.M[1][0]*p.X + t.mInv.M[1][1]*p.Y + t.mInv.M[1][2]*p.Z + t.mInv.M[1][3],
		t.mInv.M[2][0]*p.X + t.mInv.M[2][1]*p.Y + t.mInv.M[2][2]*p.Z + t.mInv.M[2][3],
	}
}

// InverseTransformVector applies the inverse transform to a direction
func (t Transform) InverseTransformVector(v Vec3) Vec3 {
	return Vec3{
		t.mInv.M[0][0]*v.X + t.mInv.M[0][1]*v.Y + t.mInv.M[0][2]*v.Z,
		t.mInv.M[1][0]*v.X + t.mInv.M[1][1]*v.Y + t.mInv.M[1][2]*v.Z,
		t.mInv.M[2][0]*v.X + t.mInv.M[2][1]*v.Y + t.mInv.M[2][2]*v.Z,
	}
}

// TransformBounds returns the bounds containing the eight transformed corners
func (t Transform) TransformBounds(b Bounds3) Bounds3 {
	r := NewBounds3FromPoint(t.TransformPoint(b.Corner(0)))
	for i := 1; i < 8; i++ {
		r = r.UnionPoint(t.TransformPoint(b.Corner(i)))
	}
	return r
}
