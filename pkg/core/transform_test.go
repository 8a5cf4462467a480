package core

import (
	"math"
	"testing"
)

func TestTransformPointRoundTrip(t *testing.T) {
	tr := NewTransform(Vec3{1, 2, 3}, Vec3{0.3, 1.1, -0.4})
	p := Vec3{0.5, -1.5, 2.0}

	back := tr.InverseTransformPoint(tr.TransformPoint(p))
	if !back.Equals(p) {
		t.Errorf("round trip moved %v to %v", p, back)
	}
}

func TestTransformNormalWithScale(t *testing.T) {
	// A plane normal under non-uniform scale must go through the
	// inverse-transpose, not the plain matrix
	tr := NewTransformTRS(Vec3{}, Vec3{}, Vec3{2, 1, 1})

	// Surface x + y = c scaled by 2 in x becomes x/2 + y = c,
	// normal (1,1,0)/sqrt2 -> (0.5,1,0) normalised
	n := Vec3{1, 1, 0}.Normalize()
	got := tr.TransformNormal(n)
	expected := Vec3{0.5, 1, 0}.Normalize()
	if !got.Equals(expected) {
		t.Errorf("TransformNormal: got %v, expected %v", got, expected)
	}
	if math.Abs(got.Length()-1) > 1e-12 {
		t.Errorf("TransformNormal not normalised: %f", got.Length())
	}
}

func TestTransformBounds(t *testing.T) {
	tr := NewTransform(Vec3{10, 0, 0}, Vec3{0, math.Pi / 2, 0})
	b := NewBounds3(Vec3{-1, -2, -3}, Vec3{1, 2, 3})

	got := tr.TransformBounds(b)

	// Rotating 90 degrees about Y swaps the x and z extents
	d := got.Diagonal()
	if math.Abs(d.X-6) > 1e-9 || math.Abs(d.Y-4) > 1e-9 || math.Abs(d.Z-2) > 1e-9 {
		t.Errorf("TransformBounds diagonal: got %v, expected {6, 4, 2}", d)
	}
	if !got.Centroid().Equals(Vec3{10, 0, 0}) {
		t.Errorf("TransformBounds centroid: got %v", got.Centroid())
	}
}

func TestBoundsRaycastP(t *testing.T) {
	b := NewBounds3(Vec3{-1, -1, -1}, Vec3{1, 1, 1})

	tests := []struct {
		name string
		ray  Ray
		tMax float64
		want bool
	}{
		{"head on", NewRay(Vec3{0, 0, -5}, Vec3{0, 0, 1}), math.Inf(1), true},
		{"pointing away", NewRay(Vec3{0, 0, -5}, Vec3{0, 0, -1}), math.Inf(1), false},
		{"tMax too small", NewRay(Vec3{0, 0, -5}, Vec3{0, 0, 1}), 3.0, false},
		{"off axis miss", NewRay(Vec3{5, 5, -5}, Vec3{0, 0, 1}), math.Inf(1), false},
		{"inside", NewRay(Vec3{0, 0, 0}, Vec3{1, 0, 0}), math.Inf(1), true},
		{"negative direction", NewRay(Vec3{5, 0, 0}, Vec3{-1, 0, 0}), math.Inf(1), true},
	}

	for _, tt := range tests {
		invDir := Vec3{1 / tt.ray.Direction.X, 1 / tt.ray.Direction.Y, 1 / tt.ray.Direction.Z}
		dirIsNeg := [3]bool{invDir.X < 0, invDir.Y < 0, invDir.Z < 0}
		if got := b.RaycastP(tt.ray, tt.tMax, invDir, dirIsNeg); got != tt.want {
			t.Errorf("%s: got %v, expected %v", tt.name, got, tt.want)
		}
	}
}

func TestBoundsBoundingSphere(t *testing.T) {
	b := NewBounds3(Vec3{-1, -1, -1}, Vec3{3, 1, 1})
	center, radius := b.BoundingSphere()
	if !center.Equals(Vec3{1, 0, 0}) {
		t.Errorf("center: got %v, expected {1, 0, 0}", center)
	}
	expected := math.Sqrt(4 + 1 + 1)
	if math.Abs(radius-expected) > 1e-12 {
		t.Errorf("radius: got %f, expected %f", radius, expected)
	}
}
