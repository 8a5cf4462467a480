// Package bsdf implements the scattering layer: Fresnel models, the
// Smith-GGX microfacet model with visible-normal sampling, the concrete
// scattering lobes, a normal-mapping wrapper and the per-hit BSDF container
// materials assemble in the sample arena.
//
// Lobes work in the shading frame with +Y as the surface normal and are
// defined for incident directions above the surface; the container mirrors
// directions and swaps refraction indices for the lower hemisphere.
package bsdf

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/core"
)

// FrDielectric returns the unpolarised Fresnel reflectance of a dielectric
// interface. A negative cosThetaI means the incident direction is below the
// interface; the indices swap sides. Total internal reflection returns 1.
func FrDielectric(cosThetaI, etaI, etaT float64) float64 {
	cosThetaI = math.Max(-1, math.Min(1, cosThetaI))
	if cosThetaI < 0 {
		etaI, etaT = etaT, etaI
		cosThetaI = -cosThetaI
	}

	sinThetaI := math.Sqrt(math.Max(0, 1.0-cosThetaI*cosThetaI))
	sinThetaT := etaI / etaT * sinThetaI
	if sinThetaT >= 1 {
		return 1.0
	}
	cosThetaT := math.Sqrt(math.Max(0, 1.0-sinThetaT*sinThetaT))

	rParl := ((etaT * cosThetaI) - (etaI * cosThetaT)) / ((etaT * cosThetaI) + (etaI * cosThetaT))
	rPerp := ((etaI * cosThetaI) - (etaT * cosThetaT)) / ((etaI * cosThetaI) + (etaT * cosThetaT))
	return (rParl*rParl + rPerp*rPerp) / 2.0
}

// FrConductor returns the RGB Fresnel reflectance of a conductor under an
// ambient dielectric etaI, using the a²+b² formulation over the complex
// index (etaT, k)
func FrConductor(cosThetaI, etaI float64, etaT, k core.Vec3) core.Vec3 {
	cosThetaI = math.Max(-1, math.Min(1, math.Abs(cosThetaI)))
	eta := etaT.Divide(etaI)
	etak := k.Divide(etaI)

	cos2 := cosThetaI * cosThetaI
	sin2 := 1.0 - cos2
	eta2 := eta.Square()
	etak2 := etak.Square()

	t0 := eta2.Subtract(etak2).Subtract(core.Vec3{X: sin2, Y: sin2, Z: sin2})
	a2plusb2 := t0.Square().Add(eta2.MultiplyVec(etak2).Multiply(4.0)).Sqrt()
	t1 := a2plusb2.Add(core.Vec3{X: cos2, Y: cos2, Z: cos2})
	a := a2plusb2.Add(t0).Multiply(0.5).Sqrt()
	t2 := a.Multiply(2.0 * cosThetaI)
	rs := t1.Subtract(t2).DivideVec(t1.Add(t2))

	t3 := a2plusb2.Multiply(cos2).Add(core.Vec3{X: sin2 * sin2, Y: sin2 * sin2, Z: sin2 * sin2})
	t4 := t2.Multiply(sin2)
	rp := rs.MultiplyVec(t3.Subtract(t4)).DivideVec(t3.Add(t4))

	return rp.Add(rs).Multiply(0.5)
}

// Fresnel evaluates interface reflectance for a lobe. etaA is the medium
// above the interface, etaB the lobe's own index (or the medium below when
// the lobe has none).
type Fresnel interface {
	Evaluate(cosThetaI, etaA, etaB float64) core.Vec3
}

// FresnelDielectric is the scalar dielectric model applied to all channels
type FresnelDielectric struct{}

// Evaluate implements Fresnel
func (FresnelDielectric) Evaluate(cosThetaI, etaA, etaB float64) core.Vec3 {
	f := FrDielectric(cosThetaI, etaA, etaB)
	return core.Vec3{X: f, Y: f, Z: f}
}

// FresnelConductor is the complex-index conductor model
type FresnelConductor struct {
	Eta core.Vec3
	K   core.Vec3
}

// Evaluate implements Fresnel; etaB is ignored, the conductor carries its
// own index
func (f FresnelConductor) Evaluate(cosThetaI, etaA, etaB float64) core.Vec3 {
	return FrConductor(cosThetaI, etaA, f.Eta, f.K)
}

// FresnelOne reflects everything; used for ideal mirrors
type FresnelOne struct{}

// Evaluate implements Fresnel
func (FresnelOne) Evaluate(cosThetaI, etaA, etaB float64) core.Vec3 {
	return core.Vec3{X: 1, Y: 1, Z: 1}
}
