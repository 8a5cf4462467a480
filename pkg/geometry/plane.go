package geometry

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
)

// Plane is an axis-aligned rectangle in the local xz plane with normal +Y
type Plane struct {
	transform core.Transform
	size      core.Vec2
}

// NewPlane creates a rectangle surface of the given local size
func NewPlane(transform core.Transform, size core.Vec2) *Plane {
	return &Plane{transform: transform, size: size}
}

// PrimitiveCount implements core.Surface
func (pl *Plane) PrimitiveCount() uint32 { return 1 }

// Bounds implements core.Surface
func (pl *Plane) Bounds() core.Bounds3 {
	local := core.NewBounds3(
		core.Vec3{X: -pl.size.X / 2, Y: 0, Z: -pl.size.Y / 2},
		core.Vec3{X: pl.size.X / 2, Y: 0, Z: pl.size.Y / 2},
	)
	return pl.transform.TransformBounds(local)
}

// PrimitiveBounds implements core.Surface
func (pl *Plane) PrimitiveBounds(uint32) core.Bounds3 { return pl.Bounds() }

// Area implements core.Surface
func (pl *Plane) Area() float64 { return pl.size.X * pl.size.Y }

// PrimitiveArea implements core.Surface
func (pl *Plane) PrimitiveArea(uint32) float64 { return pl.Area() }

func (pl *Plane) intersect(ray core.Ray, tMax float64) (float64, core.Vec3, bool) {
	o := pl.transform.InverseTransformPoint(ray.Origin)
	d := pl.transform.InverseTransformVector(ray.Direction)

	t := -o.Y / d.Y
	if t < 0 || t > tMax || math.IsInf(t, 0) || math.IsNaN(t) {
		return 0, core.Vec3{}, false
	}

	local := o.Add(d.Multiply(t))
	if local.X < -pl.size.X/2 || local.X > pl.size.X/2 ||
		local.Z < -pl.size.Y/2 || local.Z > pl.size.Y/2 {
		return 0, core.Vec3{}, false
	}
	return t, local, true
}

// Raycast implements core.Surface
func (pl *Plane) Raycast(_ uint32, ray core.Ray, tMax float64) (float64, bool) {
	t, _, ok := pl.intersect(ray, tMax)
	return t, ok
}

// RaycastSurfacePoint implements core.Surface
func (pl *Plane) RaycastSurfacePoint(_ uint32, ray core.Ray, tMax float64, a *arena.Arena) (float64, *core.SurfacePoint, bool) {
	t, local, ok := pl.intersect(ray, tMax)
	if !ok {
		return 0, nil, false
	}

	p := arena.Make[core.SurfacePoint](a)
	p.Surface = pl
	p.Position = pl.transform.TransformPoint(local)
	p.Normal = pl.transform.TransformNormal(core.Vec3{Y: 1})
	p.UV = core.Vec2{
		X: local.X/pl.size.X + 0.5,
		Y: local.Z/pl.size.Y + 0.5,
	}
	p.SetDefaultShadingFrame()
	return t, p, true
}

// PrepareForSampling implements core.Surface
func (pl *Plane) PrepareForSampling() {}

// SampleP implements core.Surface
func (pl *Plane) SampleP(uPrimitive float64, uPoint core.Vec2, a *arena.Arena) (*core.SurfacePoint, float64, bool) {
	local := core.Vec3{
		X: (uPoint.X - 0.5) * pl.size.X,
		Z: (uPoint.Y - 0.5) * pl.size.Y,
	}

	p := arena.Make[core.SurfacePoint](a)
	p.Surface = pl
	p.Position = pl.transform.TransformPoint(local)
	p.Normal = pl.transform.TransformNormal(core.Vec3{Y: 1})
	p.UV = uPoint
	p.SetDefaultShadingFrame()

	return p, 1.0 / pl.Area(), true
}

// SamplePFromView implements core.Surface
func (pl *Plane) SamplePFromView(view *core.SurfacePoint, uPrimitive float64, uPoint core.Vec2, a *arena.Arena) (*core.SurfacePoint, float64, bool) {
	return pl.SampleP(uPrimitive, uPoint, a)
}

// PdfP implements core.Surface
func (pl *Plane) PdfP(p *core.SurfacePoint) float64 {
	if p.Surface != pl {
		return 0
	}
	return 1.0 / pl.Area()
}
