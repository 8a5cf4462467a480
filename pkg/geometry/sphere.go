// Package geometry implements the intersectable surfaces: sphere, plane and
// triangle mesh. Surfaces produce surface points in the per-sample arena and
// support uniform area sampling for lights.
package geometry

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
)

// Sphere is a sphere of a given radius centered at the local origin
type Sphere struct {
	transform core.Transform
	radius    float64
}

// NewSphere creates a sphere surface
func NewSphere(transform core.Transform, radius float64) *Sphere {
	return &Sphere{transform: transform, radius: radius}
}

// PrimitiveCount implements core.Surface
func (s *Sphere) PrimitiveCount() uint32 { return 1 }

// Bounds implements core.Surface
func (s *Sphere) Bounds() core.Bounds3 {
	local := core.NewBounds3(
		core.Vec3{X: -s.radius, Y: -s.radius, Z: -s.radius},
		core.Vec3{X: s.radius, Y: s.radius, Z: s.radius},
	)
	return s.transform.TransformBounds(local)
}

// PrimitiveBounds implements core.Surface
func (s *Sphere) PrimitiveBounds(uint32) core.Bounds3 { return s.Bounds() }

// Area implements core.Surface
func (s *Sphere) Area() float64 {
	return 4.0 * math.Pi * s.radius * s.radius
}

// PrimitiveArea implements core.Surface
func (s *Sphere) PrimitiveArea(uint32) float64 { return s.Area() }

// intersect solves the local-space quadratic with the numerically stable
// q form and returns the first positive root within tMax
func (s *Sphere) intersect(ray core.Ray, tMax float64) (float64, core.Vec3, bool) {
	o := s.transform.InverseTransformPoint(ray.Origin)
	d := s.transform.InverseTransformVector(ray.Direction)

	a := d.Dot(d)
	b := 2.0 * o.Dot(d)
	c := o.Dot(o) - s.radius*s.radius
	discriminant := b*b - 4.0*a*c
	if discriminant < 0 {
		return 0, core.Vec3{}, false
	}

	sqrtD := math.Sqrt(discriminant)
	var q float64
	if b < 0 {
		q = -0.5 * (b - sqrtD)
	} else {
		q = -0.5 * (b + sqrtD)
	}
	t0 := q / a
	t1 := c / q
	if t0 > t1 {
		t0, t1 = t1, t0
	}

	t := t0
	if t < 0 {
		t = t1
	}
	if t < 0 || t > tMax {
		return 0, core.Vec3{}, false
	}
	return t, o.Add(d.Multiply(t)), true
}

// Raycast implements core.Surface
func (s *Sphere) Raycast(_ uint32, ray core.Ray, tMax float64) (float64, bool) {
	t, _, ok := s.intersect(ray, tMax)
	return t, ok
}

// RaycastSurfacePoint implements core.Surface
func (s *Sphere) RaycastSurfacePoint(_ uint32, ray core.Ray, tMax float64, a *arena.Arena) (float64, *core.SurfacePoint, bool) {
	t, local, ok := s.intersect(ray, tMax)
	if !ok {
		return 0, nil, false
	}

	n := local.Normalize()
	p := arena.Make[core.SurfacePoint](a)
	p.Surface = s
	p.Position = s.transform.TransformPoint(local)
	p.Normal = s.transform.TransformNormal(n)

	// Spherical uv
	theta := math.Acos(math.Max(-1, math.Min(1, n.Y)))
	phi := math.Atan2(n.Z, n.X)
	if phi < 0 {
		phi += 2.0 * math.Pi
	}
	p.UV = core.Vec2{X: phi / (2.0 * math.Pi), Y: theta / math.Pi}

	p.SetDefaultShadingFrame()
	return t, p, true
}

// PrepareForSampling implements core.Surface
func (s *Sphere) PrepareForSampling() {}

// SampleP implements core.Surface: uniform over the sphere area
func (s *Sphere) SampleP(uPrimitive float64, uPoint core.Vec2, a *arena.Arena) (*core.SurfacePoint, float64, bool) {
	n := core.SampleSphereUniform(uPoint)

	p := arena.Make[core.SurfacePoint](a)
	p.Surface = s
	p.Position = s.transform.TransformPoint(n.Multiply(s.radius))
	p.Normal = s.transform.TransformNormal(n)
	p.SetDefaultShadingFrame()

	return p, 1.0 / s.Area(), true
}

// SamplePFromView implements core.Surface
func (s *Sphere) SamplePFromView(view *core.SurfacePoint, uPrimitive float64, uPoint core.Vec2, a *arena.Arena) (*core.SurfacePoint, float64, bool) {
	return s.SampleP(uPrimitive, uPoint, a)
}

// PdfP implements core.Surface
func (s *Sphere) PdfP(p *core.SurfacePoint) float64 {
	if p.Surface != s {
		return 0
	}
	return 1.0 / s.Area()
}
