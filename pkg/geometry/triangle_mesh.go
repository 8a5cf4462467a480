package geometry

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
)

// TriangleMesh is a triangle mesh surface. Vertices are transformed to world
// space at construction; each triangle is one primitive. Intersection uses
// the watertight shear test of Woop et al.
type TriangleMesh struct {
	positions []core.Vec3
	normals   []core.Vec3
	uvs       []core.Vec2
	indices   []uint32

	totalArea        float64
	totalBounds      core.Bounds3
	areaDistribution *core.Distribution1D
}

// NewTriangleMesh creates a mesh surface from typed buffers and a transform
func NewTriangleMesh(mesh *Mesh, transform core.Transform) *TriangleMesh {
	tm := &TriangleMesh{
		positions: make([]core.Vec3, len(mesh.Positions)),
		indices:   mesh.Indices,
	}

	for i, p := range mesh.Positions {
		tm.positions[i] = transform.TransformPoint(p.Vec3())
	}
	if mesh.Normals != nil {
		tm.normals = make([]core.Vec3, len(mesh.Normals))
		for i, n := range mesh.Normals {
			tm.normals[i] = transform.TransformNormal(n.Vec3())
		}
	}
	if mesh.UVs != nil {
		tm.uvs = make([]core.Vec2, len(mesh.UVs))
		for i, uv := range mesh.UVs {
			tm.uvs[i] = uv.Vec2()
		}
	}

	tm.totalBounds = core.EmptyBounds3()
	for i := uint32(0); i < tm.PrimitiveCount(); i++ {
		tm.totalArea += tm.PrimitiveArea(i)
		tm.totalBounds = tm.totalBounds.Union(tm.PrimitiveBounds(i))
	}

	return tm
}

func (tm *TriangleMesh) trianglePositions(primitive uint32) (core.Vec3, core.Vec3, core.Vec3) {
	i0 := tm.indices[primitive*3]
	i1 := tm.indices[primitive*3+1]
	i2 := tm.indices[primitive*3+2]
	return tm.positions[i0], tm.positions[i1], tm.positions[i2]
}

func (tm *TriangleMesh) triangleUVs(primitive uint32) (core.Vec2, core.Vec2, core.Vec2) {
	if tm.uvs == nil {
		return core.Vec2{}, core.Vec2{X: 1}, core.Vec2{X: 1, Y: 1}
	}
	i0 := tm.indices[primitive*3]
	i1 := tm.indices[primitive*3+1]
	i2 := tm.indices[primitive*3+2]
	return tm.uvs[i0], tm.uvs[i1], tm.uvs[i2]
}

// PrimitiveCount implements core.Surface
func (tm *TriangleMesh) PrimitiveCount() uint32 {
	return uint32(len(tm.indices) / 3)
}

// Bounds implements core.Surface
func (tm *TriangleMesh) Bounds() core.Bounds3 { return tm.totalBounds }

// PrimitiveBounds implements core.Surface
func (tm *TriangleMesh) PrimitiveBounds(primitive uint32) core.Bounds3 {
	p0, p1, p2 := tm.trianglePositions(primitive)
	return core.NewBounds3FromPoint(p0).UnionPoint(p1).UnionPoint(p2)
}

// Area implements core.Surface
func (tm *TriangleMesh) Area() float64 { return tm.totalArea }

// PrimitiveArea implements core.Surface
func (tm *TriangleMesh) PrimitiveArea(primitive uint32) float64 {
	p0, p1, p2 := tm.trianglePositions(primitive)
	return 0.5 * p1.Subtract(p0).Cross(p2.Subtract(p0)).Length()
}

// woopIntersect runs the watertight ray-triangle test. It returns the
// barycentrics and distance of a hit.
func (tm *TriangleMesh) woopIntersect(primitive uint32, ray core.Ray, tMax float64) (b0, b1, b2, t float64, ok bool) {
	p0, p1, p2 := tm.trianglePositions(primitive)

	// Translate so the ray starts at the origin
	p0t := p0.Subtract(ray.Origin)
	p1t := p1.Subtract(ray.Origin)
	p2t := p2.Subtract(ray.Origin)

	// Permute so the dominant direction axis is z
	kz := ray.Direction.MaxAxis()
	kx := kz + 1
	if kx == 3 {
		kx = 0
	}
	ky := kx + 1
	if ky == 3 {
		ky = 0
	}
	d := ray.Direction.Permute(kx, ky, kz)
	p0t = p0t.Permute(kx, ky, kz)
	p1t = p1t.Permute(kx, ky, kz)
	p2t = p2t.Permute(kx, ky, kz)

	// Shear so the ray points down +z
	sx := -d.X / d.Z
	sy := -d.Y / d.Z
	sz := 1.0 / d.Z
	p0t.X += sx * p0t.Z
	p0t.Y += sy * p0t.Z
	p1t.X += sx * p1t.Z
	p1t.Y += sy * p1t.Z
	p2t.X += sx * p2t.Z
	p2t.Y += sy * p2t.Z

	// Edge functions; all must share a sign
	e0 := p1t.X*p2t.Y - p1t.Y*p2t.X
	e1 := p2t.X*p0t.Y - p2t.Y*p0t.X
	e2 := p0t.X*p1t.Y - p0t.Y*p1t.X
	if (e0 < 0 || e1 < 0 || e2 < 0) && (e0 > 0 || e1 > 0 || e2 > 0) {
		return 0, 0, 0, 0, false
	}
	det := e0 + e1 + e2
	if det == 0 {
		return 0, 0, 0, 0, false
	}

	p0t.Z *= sz
	p1t.Z *= sz
	p2t.Z *= sz
	tScaled := e0*p0t.Z + e1*p1t.Z + e2*p2t.Z
	if det < 0 && (tScaled >= 0 || tScaled < tMax*det) {
		return 0, 0, 0, 0, false
	} else if det > 0 && (tScaled <= 0 || tScaled > tMax*det) {
		return 0, 0, 0, 0, false
	}

	invDet := 1.0 / det
	return e0 * invDet, e1 * invDet, e2 * invDet, tScaled * invDet, true
}

// Raycast implements core.Surface
func (tm *TriangleMesh) Raycast(primitive uint32, ray core.Ray, tMax float64) (float64, bool) {
	_, _, _, t, ok := tm.woopIntersect(primitive, ray, tMax)
	return t, ok
}

// RaycastSurfacePoint implements core.Surface
func (tm *TriangleMesh) RaycastSurfacePoint(primitive uint32, ray core.Ray, tMax float64, a *arena.Arena) (float64, *core.SurfacePoint, bool) {
	b0, b1, b2, t, ok := tm.woopIntersect(primitive, ray, tMax)
	if !ok {
		return 0, nil, false
	}

	p0, p1, p2 := tm.trianglePositions(primitive)
	position := p0.Multiply(b0).Add(p1.Multiply(b1)).Add(p2.Multiply(b2))
	dp02 := p0.Subtract(p2)
	dp12 := p1.Subtract(p2)

	uv0, uv1, uv2 := tm.triangleUVs(primitive)
	uv := uv0.Multiply(b0).Add(uv1.Multiply(b1)).Add(uv2.Multiply(b2))

	p := arena.Make[core.SurfacePoint](a)
	p.Surface = tm
	p.Position = position
	p.Normal = dp02.Cross(dp12).Normalize()
	p.UV = uv

	// Shading normal from interpolated vertex normals when present
	if tm.normals != nil {
		i0 := tm.indices[primitive*3]
		i1 := tm.indices[primitive*3+1]
		i2 := tm.indices[primitive*3+2]
		p.ShadingNormal = tm.normals[i0].Multiply(b0).
			Add(tm.normals[i1].Multiply(b1)).
			Add(tm.normals[i2].Multiply(b2)).Normalize()
	} else {
		p.ShadingNormal = p.Normal
	}

	// Tangent from the uv gradient, orthonormalised against the shading
	// normal; degenerate uvs fall back to an arbitrary frame
	duv02 := uv0.Subtract(uv2)
	duv12 := uv1.Subtract(uv2)
	uvDet := duv02.X*duv12.Y - duv02.Y*duv12.X
	if math.Abs(uvDet) > 1e-12 {
		dpdu := dp02.Multiply(duv12.Y).Subtract(dp12.Multiply(duv02.Y)).Divide(uvDet)
		tangent := dpdu.Normalize()
		bitangent := tangent.Cross(p.ShadingNormal)
		if bitangent.LengthSquared() > 1e-12 {
			bitangent = bitangent.Normalize()
			p.ShadingTangent = p.ShadingNormal.Cross(bitangent)
			p.ShadingBitangent = bitangent
		} else {
			f := core.NewFrame(p.ShadingNormal)
			p.ShadingTangent = f.Tangent
			p.ShadingBitangent = f.Bitangent
		}
	} else {
		f := core.NewFrame(p.ShadingNormal)
		p.ShadingTangent = f.Tangent
		p.ShadingBitangent = f.Bitangent
	}

	return t, p, true
}

// PrepareForSampling implements core.Surface: builds the per-triangle area
// distribution used by uniform area sampling
func (tm *TriangleMesh) PrepareForSampling() {
	if tm.areaDistribution != nil {
		return
	}
	areas := make([]float64, tm.PrimitiveCount())
	for i := range areas {
		areas[i] = tm.PrimitiveArea(uint32(i))
	}
	tm.areaDistribution = core.NewDistribution1D(areas)
}

// SampleP implements core.Surface: select a triangle by area, then sample a
// barycentric point with the square-root warp
func (tm *TriangleMesh) SampleP(uPrimitive float64, uPoint core.Vec2, a *arena.Arena) (*core.SurfacePoint, float64, bool) {
	if tm.areaDistribution == nil {
		return nil, 0, false
	}

	primitiveIndex, _ := tm.areaDistribution.SampleDiscrete(uPrimitive)
	primitive := uint32(primitiveIndex)
	b := core.SampleTriangleUniform(uPoint)

	p0, p1, p2 := tm.trianglePositions(primitive)
	b0, b1 := b.X, b.Y
	b2 := 1.0 - b0 - b1
	position := p0.Multiply(b0).Add(p1.Multiply(b1)).Add(p2.Multiply(b2))

	p := arena.Make[core.SurfacePoint](a)
	p.Surface = tm
	p.Position = position
	p.Normal = p0.Subtract(p2).Cross(p1.Subtract(p2)).Normalize()

	uv0, uv1, uv2 := tm.triangleUVs(primitive)
	p.UV = uv0.Multiply(b0).Add(uv1.Multiply(b1)).Add(uv2.Multiply(b2))
	p.SetDefaultShadingFrame()

	return p, 1.0 / tm.totalArea, true
}

// SamplePFromView implements core.Surface
func (tm *TriangleMesh) SamplePFromView(view *core.SurfacePoint, uPrimitive float64, uPoint core.Vec2, a *arena.Arena) (*core.SurfacePoint, float64, bool) {
	return tm.SampleP(uPrimitive, uPoint, a)
}

// PdfP implements core.Surface
func (tm *TriangleMesh) PdfP(p *core.SurfacePoint) float64 {
	if p.Surface != tm {
		return 0
	}
	return 1.0 / tm.totalArea
}
