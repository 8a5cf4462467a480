package bsdf

import (
	"github.com/lumen-render/go-lumen/pkg/core"
)

// RoughConductor is a rough metal: GGX reflection under a conductor Fresnel,
// no refraction. The ambient dielectric index is the interface's etaA.
type RoughConductor struct {
	Reflectance core.Vec3
	Eta         core.Vec3
	K           core.Vec3
	Model       GGX
}

// Type implements BxDF
func (r RoughConductor) Type() core.BxDFType {
	return core.BxDFStandard
}

// Evaluate implements BxDF
func (r RoughConductor) Evaluate(i, o core.Vec3, etaA, etaB float64) core.Vec3 {
	if i.Y <= 0 || o.Y <= 0 {
		return core.Vec3{}
	}
	h := i.Add(o)
	if h.IsZero() {
		return core.Vec3{}
	}
	h = h.Normalize()

	fresnel := FrConductor(i.Dot(h), etaA, r.Eta, r.K)
	scale := r.Model.D(h) * r.Model.G2(i, o) / (4.0 * i.Y * o.Y)
	return fresnel.MultiplyVec(r.Reflectance).Multiply(scale)
}

// Sample implements BxDF
func (r RoughConductor) Sample(i core.Vec3, etaA, etaB float64, uPick float64, uDir core.Vec2) (Sample, bool) {
	if i.Y <= 0 {
		return Sample{}, false
	}
	h := r.Model.SampleM(i, uDir)
	iDotH := i.Dot(h)
	if iDotH <= 0 {
		return Sample{}, false
	}
	o := Reflect(i, h)
	if o.Y <= 0 {
		return Sample{}, false
	}

	fresnel := FrConductor(iDotH, etaA, r.Eta, r.K)
	scale := r.Model.D(h) * r.Model.G2(i, o) / (4.0 * i.Y * o.Y)

	return Sample{
		O:   o,
		F:   fresnel.MultiplyVec(r.Reflectance).Multiply(scale),
		Pdf: r.Model.PdfM(i, h) / (4.0 * o.Dot(h)),
	}, true
}

// Pdf implements BxDF
func (r RoughConductor) Pdf(i, o core.Vec3, etaA, etaB float64) float64 {
	if i.Y <= 0 || o.Y <= 0 {
		return 0
	}
	h := i.Add(o)
	if h.IsZero() {
		return 0
	}
	h = h.Normalize()
	return r.Model.PdfM(i, h) / (4.0 * o.Dot(h))
}
