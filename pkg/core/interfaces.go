package core

import "github.com/lumen-render/go-lumen/pkg/arena"

// Surface is implemented by every intersectable shape. A surface is a set of
// primitives; hits and samples identify primitives by index so acceleration
// structures can address them individually.
type Surface interface {
	PrimitiveCount() uint32

	Bounds() Bounds3
	PrimitiveBounds(primitive uint32) Bounds3

	Area() float64
	PrimitiveArea(primitive uint32) float64

	// Raycast returns the hit distance along the ray, or ok=false on a miss
	Raycast(primitive uint32, ray Ray, tMax float64) (t float64, ok bool)

	// RaycastSurfacePoint additionally materialises the surface point in the
	// per-sample arena
	RaycastSurfacePoint(primitive uint32, ray Ray, tMax float64, a *arena.Arena) (t float64, p *SurfacePoint, ok bool)

	// PrepareForSampling builds whatever sampling needs (e.g. a per-triangle
	// area distribution). Called once, before SampleP.
	PrepareForSampling()

	// SampleP samples a point uniformly by area
	SampleP(uPrimitive float64, uPoint Vec2, a *arena.Arena) (p *SurfacePoint, pdfP float64, ok bool)

	// SamplePFromView samples a point for illuminating a specific view point
	SamplePFromView(view *SurfacePoint, uPrimitive float64, uPoint Vec2, a *arena.Arena) (p *SurfacePoint, pdfP float64, ok bool)

	// PdfP returns the area pdf of a previously sampled point
	PdfP(p *SurfacePoint) float64
}

// BxDFType tags a scattering lobe. Delta lobes participate in sampling but
// never in direct evaluation.
type BxDFType int

const (
	// BxDFStandard is a lobe with a finite pdf over solid angle
	BxDFStandard BxDFType = iota
	// BxDFDelta is a perfectly specular lobe
	BxDFDelta
)

// BSDFSample is a sampled scattering direction with its value and pdf
type BSDFSample struct {
	Direction Vec3
	F         Vec3
	Pdf       float64
}

// BSDF is the per-hit scattering distribution a material builds in the
// sample arena. Directions are world-space; the implementation owns the
// shading frame. Lobe indices come from SampleLobe.
type BSDF interface {
	// SampleLobe picks a lobe by its sampling weight
	SampleLobe(u float64) (lobe int, weight float64)
	LobeType(lobe int) BxDFType

	// Evaluate sums the standard lobes for a concrete direction pair.
	// wo points toward the previous path vertex, wi toward the next.
	Evaluate(lobe int, wo, wi Vec3, etaA, etaB float64) Vec3

	// SampleWi samples an incident direction for radiance transport
	SampleWi(lobe int, wo Vec3, etaA, etaB float64, uPick float64, uDir Vec2) (BSDFSample, bool)
	// SampleWo samples an outgoing direction for importance transport
	SampleWo(lobe int, wi Vec3, etaA, etaB float64, uPick float64, uDir Vec2) (BSDFSample, bool)

	PdfWi(lobe int, wo, wi Vec3, etaA, etaB float64) float64
	PdfWo(lobe int, wo, wi Vec3, etaA, etaB float64) float64
}

// Material turns a surface point into a BSDF allocated in the sample arena
type Material interface {
	EvaluateBSDF(p *SurfacePoint, a *arena.Arena) BSDF
}

// LightType distinguishes surface-bound lights from the environment
type LightType int

const (
	// LightTypeStandard is a light bound to scene geometry
	LightTypeStandard LightType = iota
	// LightTypeInfinityArea is the environment light at infinity
	LightTypeInfinityArea
)

// Light is the queryable base of every light
type Light interface {
	Type() LightType
	Power() Vec3
}

// StandardLightSampleP is a light point sampled toward a view point
type StandardLightSampleP struct {
	P    *SurfacePoint
	PdfP float64
	Le   Vec3
}

// StandardLightSamplePWo is a light point with an emission direction
type StandardLightSamplePWo struct {
	P     *SurfacePoint
	Wo    Vec3
	PdfP  float64
	PdfWo float64
	Le    Vec3
}

// StandardLight is a light bound to a surface
type StandardLight interface {
	Light

	// Le returns the emitted radiance leaving p in direction wo
	Le(p *SurfacePoint, wo Vec3) Vec3

	SampleP(view *SurfacePoint, uPrimitive float64, uPoint Vec2, a *arena.Arena) (StandardLightSampleP, bool)
	SamplePAndWo(uPrimitive float64, uPoint, uDirection Vec2, a *arena.Arena) (StandardLightSamplePWo, bool)

	PdfP(p *SurfacePoint) float64
	PdfWo(p *SurfacePoint, wo Vec3) float64
}

// InfinityLightSampleWi is a sampled environment direction
type InfinityLightSampleWi struct {
	Wi    Vec3
	PdfWi float64
	Li    Vec3
}

// InfinityLightSampleWiO additionally carries an origin outside the scene
type InfinityLightSampleWiO struct {
	Wi    Vec3
	PdfWi float64
	Li    Vec3
	O     Vec3
	PdfO  float64
}

// InfinityAreaLight is the environment light. SetSceneBounds must be called
// before any sampling.
type InfinityAreaLight interface {
	Light

	SetSceneBounds(b Bounds3)

	Li(wi Vec3) Vec3
	SampleWi(u Vec2) (InfinityLightSampleWi, bool)
	SampleWiAndO(uDirection, uOrigin Vec2) (InfinityLightSampleWiO, bool)
	PdfWi(wi Vec3) float64
	PdfO() float64
}

// MeasurementSamplePWi is a sensor point with a sampled sensing direction
type MeasurementSamplePWi struct {
	P     *SurfacePoint
	PdfP  float64
	Wi    Vec3
	PdfWi float64
	Wo    Vec3 // importance
}

// MeasurementSampleP is a sensor point sampled toward a view point or
// direction
type MeasurementSampleP struct {
	P    *SurfacePoint
	PdfP float64
	Wo   Vec3 // importance
}

// Measurement is the sensor side of the transport equation. Points returned
// from its samplers carry the payload AddSample needs to splat.
type Measurement interface {
	SamplePAndWi(uPoint, uDirection Vec2, a *arena.Arena) (MeasurementSamplePWi, bool)
	SamplePFromPoint(view *SurfacePoint, uPoint Vec2, a *arena.Arena) (MeasurementSampleP, bool)
	SamplePFromDirection(wi Vec3, uPoint Vec2, a *arena.Arena) (MeasurementSampleP, bool)
	PdfWi(p *SurfacePoint, wi Vec3) float64

	AddSample(p *SurfacePoint, li Vec3)
	AddSampleCount(n int)
}

// Sampler1D serves scalar samples from named streams
type Sampler1D interface {
	Get(stream int) float64
}

// Sampler2D serves 2D samples from named streams
type Sampler2D interface {
	Get(stream int) Vec2
}

// SampleStream1D describes one scalar stream an integrator consumes
type SampleStream1D struct {
	DimensionCount int
}

// SampleStream2DUsage tells the renderer how a 2D stream is used
type SampleStream2DUsage int

const (
	// SampleStream2DUsageGeneral is a plain [0,1)² stream
	SampleStream2DUsageGeneral SampleStream2DUsage = iota
	// SampleStream2DUsageMeasurementDirection streams are remapped into
	// normalised film coordinates ((pixel + s) / resolution)
	SampleStream2DUsageMeasurementDirection
)

// SampleStream2D describes one 2D stream an integrator consumes
type SampleStream2D struct {
	DimensionCount int
	Usage          SampleStream2DUsage
}

// Integrator performs one estimator sample per RunOnce call. The declared
// sample streams let the renderer build matching per-tile generators and
// route film-pixel jitter into measurement-direction streams.
type Integrator interface {
	SampleStreams1D() []SampleStream1D
	SampleStreams2D() []SampleStream2D

	RunOnce(measurement Measurement, scene Scene, sampler1D Sampler1D, sampler2D Sampler2D, a *arena.Arena)
}

// LightDistribution picks a light for sampling
type LightDistribution interface {
	Sample(u float64) (Light, float64)
	Pdf(light Light) float64
}

// SpatialLightDistribution narrows the light choice by shading position
type SpatialLightDistribution interface {
	Get(p *SurfacePoint) LightDistribution
}

// Scene is the query interface the integrators consume
type Scene interface {
	Bounds() Bounds3

	// Raycast traces from p along w, offsetting the origin off the surface,
	// and returns the next surface point or ok=false on escape
	Raycast(p *SurfacePoint, w Vec3, a *arena.Arena) (*SurfacePoint, bool)

	// Visibility reports an unoccluded segment between two surface points
	Visibility(p0, p1 *SurfacePoint) bool
	// VisibilityDir reports an unoccluded ray from p toward w
	VisibilityDir(p *SurfacePoint, w Vec3) bool

	InfinityAreaLight() InfinityAreaLight
	LightDistribution() LightDistribution
	SpatialLightDistribution() SpatialLightDistribution
}

// TextureRGB is a color texture over [0,1)²
type TextureRGB interface {
	Evaluate(uv Vec2) Vec3
	// Integrate returns the integral of the texture over the rectangle [a,b]
	Integrate(a, b Vec2) Vec3
}

// TextureRG is a two-channel texture
type TextureRG interface {
	EvaluateRG(uv Vec2) Vec2
}

// TextureR is a scalar texture
type TextureR interface {
	EvaluateR(uv Vec2) float64
}
