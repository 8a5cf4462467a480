package bsdf

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/core"
)

// MicrofacetReflection is a rough dielectric-coated reflector: GGX
// distribution, Smith shadowing, Fresnel-weighted. IOR is the coat index
// used by dielectric Fresnel models.
type MicrofacetReflection struct {
	Reflectance core.Vec3
	Model       GGX
	Fresnel     Fresnel
	IOR         float64
}

// Type implements BxDF
func (m MicrofacetReflection) Type() core.BxDFType {
	return core.BxDFStandard
}

// Evaluate implements BxDF: f = rho * F * G2 * D / (4 |i.n| |o.n|)
func (m MicrofacetReflection) Evaluate(i, o core.Vec3, etaA, etaB float64) core.Vec3 {
	if o.Y <= 0 || i.Y <= 0 {
		return core.Vec3{}
	}
	h := i.Add(o)
	if h.IsZero() {
		return core.Vec3{}
	}
	h = h.Normalize()

	fresnel := m.Fresnel.Evaluate(i.Dot(h), etaA, m.IOR)
	scale := m.Model.G2(i, o) * m.Model.D(h) / (4.0 * i.Y * o.Y)
	return fresnel.MultiplyVec(m.Reflectance).Multiply(scale)
}

// Sample implements BxDF: sample the visible normal distribution and mirror
func (m MicrofacetReflection) Sample(i core.Vec3, etaA, etaB float64, uPick float64, uDir core.Vec2) (Sample, bool) {
	if i.Y <= 0 {
		return Sample{}, false
	}
	h := m.Model.SampleM(i, uDir)

	iDotH := i.Dot(h)
	o := Reflect(i, h)
	if o.Y <= 0 || iDotH <= 0 {
		return Sample{}, false
	}

	fresnel := m.Fresnel.Evaluate(iDotH, etaA, m.IOR)
	scale := m.Model.G2(i, o) * m.Model.D(h) / (4.0 * i.Y * o.Y)

	return Sample{
		O:   o,
		F:   fresnel.MultiplyVec(m.Reflectance).Multiply(scale),
		Pdf: m.Model.PdfM(i, h) / (4.0 * o.Dot(h)),
	}, true
}

// Pdf implements BxDF
func (m MicrofacetReflection) Pdf(i, o core.Vec3, etaA, etaB float64) float64 {
	if o.Y <= 0 || i.Y <= 0 {
		return 0
	}
	h := i.Add(o)
	if h.IsZero() {
		return 0
	}
	h = h.Normalize()
	return m.Model.PdfM(i, h) / (4.0 * o.Dot(h))
}

// halfVectorTransmission recovers the half-vector of a refraction pair and
// the generalised Jacobian |o.m| / (eta*i.m + o.m)²
func halfVectorTransmission(i, o core.Vec3, etaA, etaB float64) (core.Vec3, float64, bool) {
	eta := etaA / etaB
	h := o.Add(i.Multiply(eta))
	if h.IsZero() {
		return core.Vec3{}, 0, false
	}
	h = h.Normalize()
	if etaB > etaA {
		h = h.Negate()
	}
	if h.Y <= 0 {
		return core.Vec3{}, 0, false
	}

	iDotH := i.Dot(h)
	oDotH := o.Dot(h)
	if iDotH*oDotH >= 0 {
		return core.Vec3{}, 0, false
	}

	denom := eta*iDotH + oDotH
	return h, math.Abs(oDotH) / (denom * denom), true
}

// MicrofacetTransmission is the refraction-only rough dielectric lobe
type MicrofacetTransmission struct {
	Transmittance core.Vec3
	Model         GGX
}

// Type implements BxDF
func (m MicrofacetTransmission) Type() core.BxDFType {
	return core.BxDFStandard
}

// Evaluate implements BxDF:
// f = tau * (1-F) * |i.m| * J * G2 * D / (|i.n| |o.n|)
func (m MicrofacetTransmission) Evaluate(i, o core.Vec3, etaA, etaB float64) core.Vec3 {
	if o.Y >= 0 || i.Y <= 0 {
		return core.Vec3{}
	}
	h, jacobian, ok := halfVectorTransmission(i, o, etaA, etaB)
	if !ok {
		return core.Vec3{}
	}

	iDotH := i.Dot(h)
	fresnel := FrDielectric(iDotH, etaA, etaB)
	scale := math.Abs(iDotH) * jacobian * m.Model.G2(i, o) * m.Model.D(h) * (1.0 - fresnel) / (i.Y * -o.Y)
	return m.Transmittance.Multiply(scale)
}

// Sample implements BxDF: sample the visible normal, refract through it
func (m MicrofacetTransmission) Sample(i core.Vec3, etaA, etaB float64, uPick float64, uDir core.Vec2) (Sample, bool) {
	if i.Y <= 0 {
		return Sample{}, false
	}
	h := m.Model.SampleM(i, uDir)
	iDotH := i.Dot(h)
	if iDotH <= 0 {
		return Sample{}, false
	}

	eta := etaA / etaB
	o, ok := Refract(i, h, eta)
	if !ok || o.Y >= 0 {
		return Sample{}, false
	}

	fresnel := FrDielectric(iDotH, etaA, etaB)
	oDotH := o.Dot(h)
	denom := eta*iDotH + oDotH
	jacobian := math.Abs(oDotH) / (denom * denom)

	scale := math.Abs(iDotH) * jacobian * m.Model.G2(i, o) * m.Model.D(h) * (1.0 - fresnel) / (i.Y * -o.Y)

	return Sample{
		O:   o,
		F:   m.Transmittance.Multiply(scale),
		Pdf: m.Model.PdfM(i, h) * jacobian,
	}, true
}

// Pdf implements BxDF
func (m MicrofacetTransmission) Pdf(i, o core.Vec3, etaA, etaB float64) float64 {
	if o.Y >= 0 || i.Y <= 0 {
		return 0
	}
	h, jacobian, ok := halfVectorTransmission(i, o, etaA, etaB)
	if !ok {
		return 0
	}
	return m.Model.PdfM(i, h) * jacobian
}

// MicrofacetGlass combines rough reflection and refraction, branching on
// the Fresnel term of the sampled half-vector
type MicrofacetGlass struct {
	Reflectance   core.Vec3
	Transmittance core.Vec3
	Model         GGX
}

// Type implements BxDF
func (m MicrofacetGlass) Type() core.BxDFType {
	return core.BxDFStandard
}

// Evaluate implements BxDF
func (m MicrofacetGlass) Evaluate(i, o core.Vec3, etaA, etaB float64) core.Vec3 {
	if i.Y <= 0 {
		return core.Vec3{}
	}
	if o.Y >= 0 {
		// Reflection side
		if o.Y == 0 {
			return core.Vec3{}
		}
		h := i.Add(o)
		if h.IsZero() {
			return core.Vec3{}
		}
		h = h.Normalize()
		fresnel := FrDielectric(i.Dot(h), etaA, etaB)
		scale := m.Model.G2(i, o) * m.Model.D(h) * fresnel / (4.0 * i.Y * o.Y)
		return m.Reflectance.Multiply(scale)
	}

	h, jacobian, ok := halfVectorTransmission(i, o, etaA, etaB)
	if !ok {
		return core.Vec3{}
	}
	iDotH := i.Dot(h)
	fresnel := FrDielectric(iDotH, etaA, etaB)
	scale := math.Abs(iDotH) * jacobian * m.Model.G2(i, o) * m.Model.D(h) * (1.0 - fresnel) / (i.Y * -o.Y)
	return m.Transmittance.Multiply(scale)
}

// Sample implements BxDF
func (m MicrofacetGlass) Sample(i core.Vec3, etaA, etaB float64, uPick float64, uDir core.Vec2) (Sample, bool) {
	if i.Y <= 0 {
		return Sample{}, false
	}
	h := m.Model.SampleM(i, uDir)
	iDotH := i.Dot(h)
	if iDotH <= 0 {
		return Sample{}, false
	}
	fresnel := FrDielectric(iDotH, etaA, etaB)

	if uPick < fresnel {
		o := Reflect(i, h)
		if o.Y <= 0 {
			return Sample{}, false
		}
		scale := m.Model.G2(i, o) * m.Model.D(h) * fresnel / (4.0 * i.Y * o.Y)
		return Sample{
			O:   o,
			F:   m.Reflectance.Multiply(scale),
			Pdf: m.Model.PdfM(i, h) / (4.0 * o.Dot(h)) * fresnel,
		}, true
	}

	eta := etaA / etaB
	o, ok := Refract(i, h, eta)
	if !ok || o.Y >= 0 {
		return Sample{}, false
	}
	oDotH := o.Dot(h)
	denom := eta*iDotH + oDotH
	jacobian := math.Abs(oDotH) / (denom * denom)

	scale := math.Abs(iDotH) * jacobian * m.Model.G2(i, o) * m.Model.D(h) * (1.0 - fresnel) / (i.Y * -o.Y)
	return Sample{
		O:   o,
		F:   m.Transmittance.Multiply(scale),
		Pdf: m.Model.PdfM(i, h) * jacobian * (1.0 - fresnel),
	}, true
}

// Pdf implements BxDF
func (m MicrofacetGlass) Pdf(i, o core.Vec3, etaA, etaB float64) float64 {
	if i.Y <= 0 {
		return 0
	}
	if o.Y >= 0 {
		if o.Y == 0 {
			return 0
		}
		h := i.Add(o)
		if h.IsZero() {
			return 0
		}
		h = h.Normalize()
		fresnel := FrDielectric(i.Dot(h), etaA, etaB)
		return m.Model.PdfM(i, h) / (4.0 * o.Dot(h)) * fresnel
	}

	h, jacobian, ok := halfVectorTransmission(i, o, etaA, etaB)
	if !ok {
		return 0
	}
	fresnel := FrDielectric(i.Dot(h), etaA, etaB)
	return m.Model.PdfM(i, h) * jacobian * (1.0 - fresnel)
}
