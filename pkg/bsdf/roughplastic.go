package bsdf

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/core"
)

// RoughPlastic is an additive diffuse base under a rough dielectric coat.
// The diffuse term falls off with the Fresnel transmission into the coat;
// sampling picks either lobe with probability one half and returns the
// combined density.
type RoughPlastic struct {
	Diffuse  core.Vec3
	Specular core.Vec3
	IOR      float64
	Model    GGX
}

// Type implements BxDF
func (r RoughPlastic) Type() core.BxDFType {
	return core.BxDFStandard
}

func (r RoughPlastic) value(i, o, h core.Vec3) core.Vec3 {
	fresnel := FrDielectric(math.Abs(i.Y), 1.0, r.IOR)
	specular := r.Specular.Multiply(fresnel * r.Model.D(h) * r.Model.G2(i, o) /
		(4.0 * math.Abs(i.Y) * math.Abs(o.Y)))
	diffuse := r.Diffuse.Multiply((1.0 - fresnel) / math.Pi)
	return specular.Add(diffuse)
}

func (r RoughPlastic) density(i, o, h core.Vec3) float64 {
	pdfSpecular := r.Model.PdfM(i, h) / (4.0 * o.Dot(h))
	pdfDiffuse := math.Abs(o.Y) / math.Pi
	return 0.5 * (pdfSpecular + pdfDiffuse)
}

// Evaluate implements BxDF
func (r RoughPlastic) Evaluate(i, o core.Vec3, etaA, etaB float64) core.Vec3 {
	if i.Y*o.Y <= 0 {
		return core.Vec3{}
	}
	h := i.Add(o)
	if h.IsZero() {
		return core.Vec3{}
	}
	return r.value(i, o, h.Normalize())
}

// Sample implements BxDF
func (r RoughPlastic) Sample(i core.Vec3, etaA, etaB float64, uPick float64, uDir core.Vec2) (Sample, bool) {
	if i.Y <= 0 {
		return Sample{}, false
	}

	var o, h core.Vec3
	if uPick < 0.5 {
		// Diffuse lobe
		o = core.SampleHemisphereCosine(uDir)
		h = i.Add(o).Normalize()
	} else {
		// Specular lobe
		h = r.Model.SampleM(i, uDir)
		if i.Dot(h) <= 0 {
			return Sample{}, false
		}
		o = Reflect(i, h)
		if o.Y <= 0 {
			return Sample{}, false
		}
	}

	return Sample{
		O:   o,
		F:   r.value(i, o, h),
		Pdf: r.density(i, o, h),
	}, true
}

// Pdf implements BxDF
func (r RoughPlastic) Pdf(i, o core.Vec3, etaA, etaB float64) float64 {
	if i.Y*o.Y <= 0 {
		return 0
	}
	h := i.Add(o)
	if h.IsZero() {
		return 0
	}
	return r.density(i, o, h.Normalize())
}
