package bsdf

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
)

const maxLobes = 4

type lobe struct {
	bxdf   BxDF
	scale  float64
	weight float64
}

// Container is the per-hit BSDF: an ordered set of lobes with scales and
// sampling weights, the shading frame, and the geometric normal backing the
// shading-normal guard. It implements core.BSDF with world-space directions.
type Container struct {
	frame           core.Frame
	geometricNormal core.Vec3
	shadingDiffers  bool

	lobes     [maxLobes]lobe
	lobeCount int
}

// New places an empty container for a surface point in the sample arena
func New(a *arena.Arena, p *core.SurfacePoint) *Container {
	c := arena.Make[Container](a)
	c.frame = p.ShadingFrame()
	c.geometricNormal = p.Normal
	c.shadingDiffers = !p.ShadingNormal.Equals(p.Normal)
	return c
}

// NewWithFrame places an empty container with an explicit frame; used by
// tests and by materials that override the shading frame
func NewWithFrame(a *arena.Arena, frame core.Frame, geometricNormal core.Vec3) *Container {
	c := arena.Make[Container](a)
	c.frame = frame
	c.geometricNormal = geometricNormal
	c.shadingDiffers = !frame.Normal.Equals(geometricNormal)
	return c
}

// Add appends a lobe with its scale and un-normalised sampling weight
func (c *Container) Add(b BxDF, scale, weight float64) *Container {
	c.lobes[c.lobeCount] = lobe{bxdf: b, scale: scale, weight: weight}
	c.lobeCount++
	return c
}

// Finalize normalises the sampling weights; must be called after the last Add
func (c *Container) Finalize() *Container {
	total := 0.0
	for i := 0; i < c.lobeCount; i++ {
		total += c.lobes[i].weight
	}
	if total > 0 {
		for i := 0; i < c.lobeCount; i++ {
			c.lobes[i].weight /= total
		}
	}
	return c
}

// SampleLobe implements core.BSDF
func (c *Container) SampleLobe(u float64) (int, float64) {
	cumulative := 0.0
	for i := 0; i < c.lobeCount; i++ {
		cumulative += c.lobes[i].weight
		if u < cumulative || i == c.lobeCount-1 {
			return i, c.lobes[i].weight
		}
	}
	return 0, 0
}

// LobeType implements core.BSDF
func (c *Container) LobeType(lobe int) core.BxDFType {
	return c.lobes[lobe].bxdf.Type()
}

// guard rejects directions whose geometric and shading hemispheres disagree
func (c *Container) guard(w core.Vec3) bool {
	if !c.shadingDiffers {
		return true
	}
	return w.Dot(c.geometricNormal)*w.Dot(c.frame.Normal) > 0
}

// shadingRatio preserves reciprocity of radiance transport under a shading
// normal: the integrator multiplies by the geometric cosine, the ratio
// converts it to the shading cosine
func (c *Container) shadingRatio(wi core.Vec3) float64 {
	if !c.shadingDiffers {
		return 1.0
	}
	g := math.Abs(wi.Dot(c.geometricNormal))
	if g == 0 {
		return 0
	}
	return math.Abs(wi.Dot(c.frame.Normal)) / g
}

// Hemisphere adapter: lobes are defined for incident directions above the
// surface; lower-hemisphere queries mirror both directions and swap the
// refraction indices.

func adapterEvaluate(b BxDF, wo, wi core.Vec3, etaA, etaB float64) core.Vec3 {
	if wi.Y >= 0 {
		return b.Evaluate(wi, wo, etaA, etaB)
	}
	return b.Evaluate(wi.Negate(), wo.Negate(), etaB, etaA)
}

func adapterPdfWi(b BxDF, wo, wi core.Vec3, etaA, etaB float64) float64 {
	if wo.Y >= 0 {
		return b.Pdf(wo, wi, etaA, etaB)
	}
	return b.Pdf(wo.Negate(), wi.Negate(), etaB, etaA)
}

func adapterPdfWo(b BxDF, wo, wi core.Vec3, etaA, etaB float64) float64 {
	if wi.Y >= 0 {
		return b.Pdf(wi, wo, etaA, etaB)
	}
	return b.Pdf(wi.Negate(), wo.Negate(), etaB, etaA)
}

// adapterSampleWi samples an incident direction for radiance transport,
// applying the etaA²/etaB² radiance compression on interface crossings
func adapterSampleWi(b BxDF, wo core.Vec3, etaA, etaB float64, uPick float64, uDir core.Vec2) (Sample, bool) {
	if wo.Y >= 0 {
		s, ok := b.Sample(wo, etaA, etaB, uPick, uDir)
		if !ok {
			return Sample{}, false
		}
		if s.O.Y <= 0 {
			s.F = s.F.Multiply((etaA * etaA) / (etaB * etaB))
		}
		return s, true
	}

	s, ok := b.Sample(wo.Negate(), etaB, etaA, uPick, uDir)
	if !ok {
		return Sample{}, false
	}
	s.O = s.O.Negate()
	if s.O.Y >= 0 {
		s.F = s.F.Multiply((etaB * etaB) / (etaA * etaA))
	}
	return s, true
}

// adapterSampleWo samples an outgoing direction for importance transport;
// no radiance compression applies
func adapterSampleWo(b BxDF, wi core.Vec3, etaA, etaB float64, uPick float64, uDir core.Vec2) (Sample, bool) {
	if wi.Y >= 0 {
		return b.Sample(wi, etaA, etaB, uPick, uDir)
	}
	s, ok := b.Sample(wi.Negate(), etaB, etaA, uPick, uDir)
	if !ok {
		return Sample{}, false
	}
	s.O = s.O.Negate()
	return s, true
}

// Evaluate implements core.BSDF: the sum of the standard lobes, scaled
func (c *Container) Evaluate(lobe int, wo, wi core.Vec3, etaA, etaB float64) core.Vec3 {
	if !c.guard(wo) || !c.guard(wi) {
		return core.Vec3{}
	}

	woLocal := c.frame.WorldToLocal(wo)
	wiLocal := c.frame.WorldToLocal(wi)

	var f core.Vec3
	for i := 0; i < c.lobeCount; i++ {
		if c.lobes[i].bxdf.Type() != core.BxDFStandard {
			continue
		}
		f = f.Add(adapterEvaluate(c.lobes[i].bxdf, woLocal, wiLocal, etaA, etaB).Multiply(c.lobes[i].scale))
	}

	return f.Multiply(c.shadingRatio(wi))
}

// SampleWi implements core.BSDF: sample the chosen lobe, rescale by
// scale/weight, then fold in the other standard lobes' values and densities
func (c *Container) SampleWi(lobe int, wo core.Vec3, etaA, etaB float64, uPick float64, uDir core.Vec2) (core.BSDFSample, bool) {
	if !c.guard(wo) {
		return core.BSDFSample{}, false
	}
	woLocal := c.frame.WorldToLocal(wo)

	chosen := &c.lobes[lobe]
	s, ok := adapterSampleWi(chosen.bxdf, woLocal, etaA, etaB, uPick, uDir)
	if !ok || s.Pdf <= 0 {
		return core.BSDFSample{}, false
	}

	f := s.F.Multiply(chosen.scale / chosen.weight)
	pdf := s.Pdf

	if chosen.bxdf.Type() == core.BxDFStandard {
		for i := 0; i < c.lobeCount; i++ {
			if i == lobe || c.lobes[i].bxdf.Type() != core.BxDFStandard {
				continue
			}
			f = f.Add(adapterEvaluate(c.lobes[i].bxdf, woLocal, s.O, etaA, etaB).Multiply(c.lobes[i].scale))
			pdf += c.lobes[i].weight * adapterPdfWi(c.lobes[i].bxdf, woLocal, s.O, etaA, etaB)
		}
	}

	wi := c.frame.LocalToWorld(s.O)
	if !c.guard(wi) {
		return core.BSDFSample{}, false
	}

	return core.BSDFSample{
		Direction: wi,
		F:         f.Multiply(c.shadingRatio(wi)),
		Pdf:       pdf,
	}, true
}

// SampleWo implements core.BSDF: the importance-transport mirror of SampleWi
func (c *Container) SampleWo(lobe int, wi core.Vec3, etaA, etaB float64, uPick float64, uDir core.Vec2) (core.BSDFSample, bool) {
	if !c.guard(wi) {
		return core.BSDFSample{}, false
	}
	wiLocal := c.frame.WorldToLocal(wi)

	chosen := &c.lobes[lobe]
	s, ok := adapterSampleWo(chosen.bxdf, wiLocal, etaA, etaB, uPick, uDir)
	if !ok || s.Pdf <= 0 {
		return core.BSDFSample{}, false
	}

	f := s.F.Multiply(chosen.scale / chosen.weight)
	pdf := s.Pdf

	if chosen.bxdf.Type() == core.BxDFStandard {
		for i := 0; i < c.lobeCount; i++ {
			if i == lobe || c.lobes[i].bxdf.Type() != core.BxDFStandard {
				continue
			}
			f = f.Add(adapterEvaluate(c.lobes[i].bxdf, s.O, wiLocal, etaA, etaB).Multiply(c.lobes[i].scale))
			pdf += c.lobes[i].weight * adapterPdfWo(c.lobes[i].bxdf, s.O, wiLocal, etaA, etaB)
		}
	}

	wo := c.frame.LocalToWorld(s.O)
	if !c.guard(wo) {
		return core.BSDFSample{}, false
	}

	return core.BSDFSample{
		Direction: wo,
		F:         f,
		Pdf:       pdf,
	}, true
}

// PdfWi implements core.BSDF
func (c *Container) PdfWi(lobe int, wo, wi core.Vec3, etaA, etaB float64) float64 {
	if !c.guard(wo) || !c.guard(wi) {
		return 0
	}
	woLocal := c.frame.WorldToLocal(wo)
	wiLocal := c.frame.WorldToLocal(wi)

	chosen := &c.lobes[lobe]
	if chosen.bxdf.Type() == core.BxDFDelta {
		return adapterPdfWi(chosen.bxdf, woLocal, wiLocal, etaA, etaB)
	}

	pdf := adapterPdfWi(chosen.bxdf, woLocal, wiLocal, etaA, etaB)
	for i := 0; i < c.lobeCount; i++ {
		if i == lobe || c.lobes[i].bxdf.Type() != core.BxDFStandard {
			continue
		}
		pdf += c.lobes[i].weight * adapterPdfWi(c.lobes[i].bxdf, woLocal, wiLocal, etaA, etaB)
	}
	return pdf
}

// PdfWo implements core.BSDF
func (c *Container) PdfWo(lobe int, wo, wi core.Vec3, etaA, etaB float64) float64 {
	if !c.guard(wo) || !c.guard(wi) {
		return 0
	}
	woLocal := c.frame.WorldToLocal(wo)
	wiLocal := c.frame.WorldToLocal(wi)

	chosen := &c.lobes[lobe]
	if chosen.bxdf.Type() == core.BxDFDelta {
		return adapterPdfWo(chosen.bxdf, woLocal, wiLocal, etaA, etaB)
	}

	pdf := adapterPdfWo(chosen.bxdf, woLocal, wiLocal, etaA, etaB)
	for i := 0; i < c.lobeCount; i++ {
		if i == lobe || c.lobes[i].bxdf.Type() != core.BxDFStandard {
			continue
		}
		pdf += c.lobes[i].weight * adapterPdfWo(c.lobes[i].bxdf, woLocal, wiLocal, etaA, etaB)
	}
	return pdf
}
