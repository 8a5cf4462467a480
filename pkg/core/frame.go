package core

import "math"

// Frame is an orthonormal basis (tangent, normal, bitangent) used to move
// directions between world space and the local shading space where the
// normal is the +Y axis.
type Frame struct {
	Tangent   Vec3
	Normal    Vec3
	Bitangent Vec3
}

// NewFrame builds a frame around a unit normal using the branchless basis
// of Duff et al.
func NewFrame(normal Vec3) Frame {
	sign := math.Copysign(1.0, normal.Y)
	a := -1.0 / (sign + normal.Y)
	b := normal.X * normal.Z * a

	return Frame{
		Tangent:   Vec3{1.0 + sign*normal.X*normal.X*a, -sign * normal.X, sign * b},
		Normal:    normal,
		Bitangent: Vec3{b, -normal.Z, sign + normal.Z*normal.Z*a},
	}
}

// NewFrameFromBasis builds a frame from an explicit orthonormal triple
func NewFrameFromBasis(tangent, normal, bitangent Vec3) Frame {
	return Frame{Tangent: tangent, Normal: normal, Bitangent: bitangent}
}

// WorldToLocal transforms a world direction into the frame's local space
func (f Frame) WorldToLocal(w Vec3) Vec3 {
	return Vec3{w.Dot(f.Tangent), w.Dot(f.Normal), w.Dot(f.Bitangent)}
}

// LocalToWorld transforms a local direction back to world space
func (f Frame) LocalToWorld(w Vec3) Vec3 {
	return Vec3{
		f.Tangent.X*w.X + f.Normal.X*w.Y + f.Bitangent.X*w.Z,
		f.Tangent.Y*w.X + f.Normal.Y*w.Y + f.Bitangent.Y*w.Z,
		f.Tangent.Z*w.X + f.Normal.Z*w.Y + f.Bitangent.Z*w.Z,
	}
}

// CoordinateSystem returns two unit vectors orthogonal to a unit vector v
func CoordinateSystem(v Vec3) (Vec3, Vec3) {
	var t Vec3
	if math.Abs(v.X) > math.Abs(v.Y) {
		t = Vec3{-v.Z, 0, v.X}.Divide(math.Sqrt(v.X*v.X + v.Z*v.Z))
	} else {
		t = Vec3{0, v.Z, -v.Y}.Divide(math.Sqrt(v.Y*v.Y + v.Z*v.Z))
	}
	return t, v.Cross(t)
}
