package bsdf

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/core"
)

// NormalMapped wraps a lobe so it scatters about a perturbed shading normal
// p (given in the geometric shading frame) using the microfacet-based
// construction of Schüssler et al.: the surface is modelled as p-facets and
// an auxiliary tangent facet t, with Ashikhmin-Premože responsibility
// weights and mutual shadowing, which keeps the wrapped lobe energy
// conserving and free of black fringes.
type NormalMapped struct {
	p     core.Vec3
	inner BxDF

	skip   bool
	t      core.Vec3
	pFrame core.Frame
}

// NewNormalMapped wraps inner with a perturbed normal p in the local frame.
// Perturbations within 0.001 of the geometric normal on both tangential
// axes pass through unchanged.
func NewNormalMapped(p core.Vec3, inner BxDF) *NormalMapped {
	n := &NormalMapped{p: p, inner: inner}
	if math.Abs(p.X) < 0.001 && math.Abs(p.Z) < 0.001 {
		n.skip = true
		return n
	}

	n.t = core.Vec3{X: -p.X, Y: 0, Z: -p.Z}.Normalize()
	bitangent := core.Vec3{X: 1, Y: 0, Z: 0}.Cross(p).Normalize()
	tangent := p.Cross(bitangent)
	n.pFrame = core.NewFrameFromBasis(tangent, p, bitangent)
	return n
}

// Type implements BxDF
func (n *NormalMapped) Type() core.BxDFType {
	return n.inner.Type()
}

func dot01(a, b core.Vec3) float64 {
	return math.Max(0, a.Dot(b))
}

// lambdaP is the probability that a direction interacts with the p-facet
// rather than the tangent facet
func (n *NormalMapped) lambdaP(w core.Vec3) float64 {
	pDotG := n.p.Y
	alphaP := dot01(n.p, w) / pDotG
	alphaT := dot01(n.t, w) * math.Sqrt(1.0-pDotG*pDotG) / pDotG
	return alphaP / (alphaP + alphaT)
}

// shadowingG is the masking of a direction by the facet pair
func (n *NormalMapped) shadowingG(w core.Vec3) float64 {
	sinThetaP := math.Sqrt(1.0 - n.p.Y*n.p.Y)
	return math.Min(1.0, math.Max(0, w.Y)*math.Max(0, n.p.Y)/
		(dot01(w, n.p)+dot01(w, n.t)*sinThetaP))
}

// Evaluate implements BxDF with the three facet transport terms
func (n *NormalMapped) Evaluate(i, o core.Vec3, etaA, etaB float64) core.Vec3 {
	if n.skip {
		return n.inner.Evaluate(i, o, etaA, etaB)
	}
	if o.Y <= 0 {
		return core.Vec3{}
	}

	lambdaP := n.lambdaP(i)
	shadowing := n.shadowingG(o)

	var result core.Vec3

	// i -> p -> o
	direct := n.inner.Evaluate(n.pFrame.WorldToLocal(i), n.pFrame.WorldToLocal(o), etaA, etaB)
	result = result.Add(direct.Multiply(lambdaP * dot01(o, n.p) * shadowing))

	// i -> p -> t -> o
	if o.Dot(n.t) > 0 {
		o2 := Reflect(o, n.t).Negate()
		mirrored := n.inner.Evaluate(n.pFrame.WorldToLocal(i), n.pFrame.WorldToLocal(o2), etaA, etaB)
		result = result.Add(mirrored.Multiply(lambdaP * dot01(o2, n.p) * (1.0 - n.shadowingG(o2)) * shadowing))
	}

	// i -> t -> p -> o
	if i.Dot(n.t) > 0 {
		i2 := Reflect(i, n.t).Negate()
		tangentSide := n.inner.Evaluate(n.pFrame.WorldToLocal(i2), n.pFrame.WorldToLocal(o), etaA, etaB)
		result = result.Add(tangentSide.Multiply((1.0 - lambdaP) * dot01(o, n.p) * shadowing))
	}

	return result.Divide(o.Y)
}

// Sample implements BxDF
func (n *NormalMapped) Sample(i core.Vec3, etaA, etaB float64, uPick float64, uDir core.Vec2) (Sample, bool) {
	if n.skip {
		return n.inner.Sample(i, etaA, etaB, uPick, uDir)
	}

	lambdaP := n.lambdaP(i)

	var o core.Vec3
	if uDir.X < lambdaP {
		// Scatter off the p-facet
		inner, ok := n.inner.Sample(n.pFrame.WorldToLocal(i), etaA, etaB, uPick, uDir)
		if !ok {
			return Sample{}, false
		}
		o = n.pFrame.LocalToWorld(inner.O)
		if o.Y <= 0 {
			return Sample{}, false
		}
		if uDir.Y > n.shadowingG(o) {
			o = Reflect(o, n.t).Negate()
		}
	} else {
		// Bounce off the tangent facet first
		i2 := Reflect(i, n.t).Negate()
		inner, ok := n.inner.Sample(n.pFrame.WorldToLocal(i2), etaA, etaB, uPick, uDir)
		if !ok {
			return Sample{}, false
		}
		o = n.pFrame.LocalToWorld(inner.O)
	}

	pdf := n.Pdf(i, o, etaA, etaB)
	if pdf <= 0 {
		return Sample{}, false
	}
	return Sample{
		O:   o,
		F:   n.Evaluate(i, o, etaA, etaB),
		Pdf: pdf,
	}, true
}

// Pdf implements BxDF
func (n *NormalMapped) Pdf(i, o core.Vec3, etaA, etaB float64) float64 {
	if n.skip {
		return n.inner.Pdf(i, o, etaA, etaB)
	}

	lambdaP := n.lambdaP(i)

	result := 0.0
	if lambdaP > 0 {
		result += lambdaP *
			n.inner.Pdf(n.pFrame.WorldToLocal(i), n.pFrame.WorldToLocal(o), etaA, etaB) *
			n.shadowingG(o)

		if o.Dot(n.t) > 0 {
			o2 := Reflect(o, n.t).Negate()
			result += lambdaP *
				n.inner.Pdf(n.pFrame.WorldToLocal(i), n.pFrame.WorldToLocal(o2), etaA, etaB) *
				(1.0 - n.shadowingG(o2))
		}
	}

	if lambdaP < 1 && i.Dot(n.t) > 0 {
		i2 := Reflect(i, n.t).Negate()
		result += (1.0 - lambdaP) *
			n.inner.Pdf(n.pFrame.WorldToLocal(i2), n.pFrame.WorldToLocal(o), etaA, etaB)
	}

	return result
}
