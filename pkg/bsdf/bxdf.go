package bsdf

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/core"
)

// Sample is a sampled lobe direction with its value and density
type Sample struct {
	O   core.Vec3
	F   core.Vec3
	Pdf float64
}

// BxDF is one scattering lobe. All methods take directions in the shading
// frame with the incident direction i above the surface (i.Y > 0); the
// container mirrors lower-hemisphere queries. etaA is the refraction index
// above the interface, etaB below.
type BxDF interface {
	Type() core.BxDFType

	// Evaluate returns the lobe value for a concrete direction pair.
	// Delta lobes return zero.
	Evaluate(i, o core.Vec3, etaA, etaB float64) core.Vec3

	// Sample draws an outgoing direction. ok=false means the sample is
	// geometrically inadmissible (TIR, wrong hemisphere, grazing).
	Sample(i core.Vec3, etaA, etaB float64, uPick float64, uDir core.Vec2) (Sample, bool)

	// Pdf returns the density Sample would have produced o with
	Pdf(i, o core.Vec3, etaA, etaB float64) float64
}

// Reflect mirrors w about the normal n
func Reflect(w, n core.Vec3) core.Vec3 {
	return n.Multiply(2.0 * w.Dot(n)).Subtract(w)
}

// Refract bends w about the normal n with relative index eta = etaI/etaT.
// ok=false on total internal reflection.
func Refract(w, n core.Vec3, eta float64) (core.Vec3, bool) {
	cosThetaI := n.Dot(w)
	sin2ThetaI := math.Max(0, 1.0-cosThetaI*cosThetaI)
	sin2ThetaT := eta * eta * sin2ThetaI
	if sin2ThetaT >= 1 {
		return core.Vec3{}, false
	}
	cosThetaT := math.Sqrt(1.0 - sin2ThetaT)
	return w.Multiply(-eta).Add(n.Multiply(eta*cosThetaI - cosThetaT)), true
}
