package bsdf

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/core"
)

// SpecularReflection is an ideal mirror weighted by a Fresnel model. IOR is
// the lobe's own interface index used by dielectric Fresnel; conductor and
// identity models ignore it.
type SpecularReflection struct {
	Reflectance core.Vec3
	Fresnel     Fresnel
	IOR         float64
}

// Type implements BxDF
func (s SpecularReflection) Type() core.BxDFType {
	return core.BxDFDelta
}

// Evaluate implements BxDF: delta lobes evaluate to zero
func (s SpecularReflection) Evaluate(i, o core.Vec3, etaA, etaB float64) core.Vec3 {
	return core.Vec3{}
}

// Sample implements BxDF
func (s SpecularReflection) Sample(i core.Vec3, etaA, etaB float64, uPick float64, uDir core.Vec2) (Sample, bool) {
	if i.Y == 0 {
		return Sample{}, false
	}

	fresnel := s.Fresnel.Evaluate(i.Y, etaA, s.IOR)
	o := core.Vec3{X: -i.X, Y: i.Y, Z: -i.Z}
	return Sample{
		O:   o,
		F:   fresnel.MultiplyVec(s.Reflectance).Divide(o.Y),
		Pdf: 1.0,
	}, true
}

// Pdf implements BxDF: the delta direction carries all the density
func (s SpecularReflection) Pdf(i, o core.Vec3, etaA, etaB float64) float64 {
	return 1.0
}

// SpecularGlass is the ideal dielectric with Fresnel-weighted reflection and
// refraction
type SpecularGlass struct {
	Reflectance   core.Vec3
	Transmittance core.Vec3
}

// Type implements BxDF
func (s SpecularGlass) Type() core.BxDFType {
	return core.BxDFDelta
}

// Evaluate implements BxDF
func (s SpecularGlass) Evaluate(i, o core.Vec3, etaA, etaB float64) core.Vec3 {
	return core.Vec3{}
}

// Sample implements BxDF: pick reflection with probability F, refraction
// otherwise. The refraction value carries the etaB²/etaA² factor that the
// container's radiance-side adapter cancels, leaving importance transport
// unscaled.
func (s SpecularGlass) Sample(i core.Vec3, etaA, etaB float64, uPick float64, uDir core.Vec2) (Sample, bool) {
	cosThetaI := i.Y
	if cosThetaI == 0 {
		return Sample{}, false
	}
	sinThetaI := math.Sqrt(math.Max(0, 1.0-cosThetaI*cosThetaI))

	eta := etaA / etaB
	sinThetaT := eta * sinThetaI
	fresnel := 1.0
	if sinThetaT < 1 {
		fresnel = FrDielectric(cosThetaI, etaA, etaB)
	}

	if uPick < fresnel {
		o := core.Vec3{X: -i.X, Y: i.Y, Z: -i.Z}
		return Sample{
			O:   o,
			F:   s.Reflectance.Multiply(fresnel / o.Y),
			Pdf: fresnel,
		}, true
	}

	cosThetaT := math.Sqrt(math.Max(0, 1.0-sinThetaT*sinThetaT))
	o := i.Multiply(-eta)
	o.Y += eta*cosThetaI - cosThetaT

	return Sample{
		O:   o,
		F:   s.Transmittance.Multiply((1.0 - fresnel) * (etaB * etaB) / (etaA * etaA * -o.Y)),
		Pdf: 1.0 - fresnel,
	}, true
}

// Pdf implements BxDF: the Fresnel split is the only density left for a
// delta dielectric
func (s SpecularGlass) Pdf(i, o core.Vec3, etaA, etaB float64) float64 {
	fresnel := FrDielectric(i.Y, etaA, etaB)
	if o.Y >= 0 {
		return fresnel
	}
	return 1.0 - fresnel
}
