package bsdf

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/core"
)

// GGX is the anisotropic Smith-GGX microfacet model with per-axis roughness.
// Directions are in the shading frame (+Y normal); alpha.X stretches the
// local X axis, alpha.Y the local Z axis.
type GGX struct {
	Alpha core.Vec2
}

// D returns the normal distribution value for a half-vector m
func (g GGX) D(m core.Vec3) float64 {
	ax, ay := g.Alpha.X, g.Alpha.Y
	x := m.X*m.X/(ax*ax) + m.Y*m.Y + m.Z*m.Z/(ay*ay)
	return 1.0 / (math.Pi * ax * ay * x * x)
}

// Lambda is the Smith auxiliary function for a direction w
func (g GGX) Lambda(w core.Vec3) float64 {
	ax, ay := g.Alpha.X, g.Alpha.Y
	x := (ax*ax*w.X*w.X + ay*ay*w.Z*w.Z) / (w.Y * w.Y)
	return (-1.0 + math.Sqrt(1.0+x)) / 2.0
}

// G1 is the single-direction Smith shadowing term
func (g GGX) G1(w core.Vec3) float64 {
	return 1.0 / (1.0 + g.Lambda(w))
}

// G2 is the joint shadowing-masking term
func (g GGX) G2(i, o core.Vec3) float64 {
	return 1.0 / (1.0 + g.Lambda(i) + g.Lambda(o))
}

// SampleM samples a half-vector from the distribution of normals visible
// from i (Heitz 2018). i must be above the surface.
func (g GGX) SampleM(i core.Vec3, u core.Vec2) core.Vec3 {
	ax, ay := g.Alpha.X, g.Alpha.Y

	// Stretch the view direction into the hemisphere configuration
	ih := core.Vec3{X: ax * i.X, Y: i.Y, Z: ay * i.Z}.Normalize()

	// Orthonormal disk basis around the stretched direction
	lensq := ih.X*ih.X + ih.Z*ih.Z
	t1 := core.Vec3{X: 1, Y: 0, Z: 0}
	if lensq > 0 {
		t1 = core.Vec3{X: -ih.Z, Y: 0, Z: ih.X}.Divide(math.Sqrt(lensq))
	}
	t2 := t1.Cross(ih)

	// Disk sample with the lens distortion toward the visible half
	r := math.Sqrt(u.X)
	phi := 2.0 * math.Pi * u.Y
	p1 := r * math.Cos(phi)
	p2 := r * math.Sin(phi)
	s := 0.5 * (1.0 + ih.Y)
	p2 = (1.0-s)*math.Sqrt(1.0-p1*p1) + s*p2

	// Lift to the hemisphere and un-stretch
	nh := t1.Multiply(p1).
		Add(t2.Multiply(p2)).
		Add(ih.Multiply(math.Sqrt(math.Max(0, 1.0-p1*p1-p2*p2))))
	return core.Vec3{X: ax * nh.X, Y: math.Max(0, nh.Y), Z: ay * nh.Z}.Normalize()
}

// PdfM returns the density of SampleM producing m when viewed from i
func (g GGX) PdfM(i, m core.Vec3) float64 {
	return g.G1(i) * math.Max(0, i.Dot(m)) * g.D(m) / i.Y
}
