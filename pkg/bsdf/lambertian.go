package bsdf

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/core"
)

// LambertianReflection is the ideal diffuse lobe with cosine-weighted
// sampling
type LambertianReflection struct {
	Reflectance core.Vec3
}

// Type implements BxDF
func (l LambertianReflection) Type() core.BxDFType {
	return core.BxDFStandard
}

// Evaluate implements BxDF: f = rho/pi on the reflection side
func (l LambertianReflection) Evaluate(i, o core.Vec3, etaA, etaB float64) core.Vec3 {
	if i.Y*o.Y <= 0 {
		return core.Vec3{}
	}
	return l.Reflectance.Multiply(1.0 / math.Pi)
}

// Sample implements BxDF
func (l LambertianReflection) Sample(i core.Vec3, etaA, etaB float64, uPick float64, uDir core.Vec2) (Sample, bool) {
	if i.Y == 0 {
		return Sample{}, false
	}
	o := core.SampleHemisphereCosine(uDir)
	return Sample{
		O:   o,
		F:   l.Reflectance.Multiply(1.0 / math.Pi),
		Pdf: o.Y / math.Pi,
	}, true
}

// Pdf implements BxDF
func (l LambertianReflection) Pdf(i, o core.Vec3, etaA, etaB float64) float64 {
	if i.Y*o.Y <= 0 {
		return 0
	}
	return math.Abs(o.Y) / math.Pi
}
