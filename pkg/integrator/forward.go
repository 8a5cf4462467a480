package integrator

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
)

// Stream indices of the forward integrator
const (
	forwardStream1D = 0

	forwardStream2DMeasurementPoint     = 0
	forwardStream2DMeasurementDirection = 1
	forwardStream2DGeneral              = 2
)

// ForwardMIS is the forward (eye-to-light) path tracer with multiple
// importance sampling between the light strategy and the BSDF strategy at
// every standard vertex. Delta vertices extend without a light connection.
type ForwardMIS struct {
	maxPathLength            int
	visibleInfinityAreaLight bool
}

// NewForwardMIS creates the forward integrator. visibleInfinityAreaLight
// controls whether camera rays that escape directly contribute the
// environment.
func NewForwardMIS(maxPathLength int, visibleInfinityAreaLight bool) *ForwardMIS {
	return &ForwardMIS{
		maxPathLength:            maxPathLength,
		visibleInfinityAreaLight: visibleInfinityAreaLight,
	}
}

// SampleStreams1D implements Integrator
func (fm *ForwardMIS) SampleStreams1D() []core.SampleStream1D {
	return []core.SampleStream1D{
		{DimensionCount: 4 * fm.maxPathLength},
	}
}

// SampleStreams2D implements Integrator
func (fm *ForwardMIS) SampleStreams2D() []core.SampleStream2D {
	return []core.SampleStream2D{
		{DimensionCount: 1, Usage: core.SampleStream2DUsageGeneral},
		{DimensionCount: 1, Usage: core.SampleStream2DUsageMeasurementDirection},
		{DimensionCount: 2 * fm.maxPathLength, Usage: core.SampleStream2DUsageGeneral},
	}
}

// RunOnce implements Integrator
func (fm *ForwardMIS) RunOnce(measurement core.Measurement, scene core.Scene, sampler1D core.Sampler1D, sampler2D core.Sampler2D, a *arena.Arena) {
	measurement.AddSampleCount(1)

	sensorSample, ok := measurement.SamplePAndWi(
		sampler2D.Get(forwardStream2DMeasurementPoint),
		sampler2D.Get(forwardStream2DMeasurementDirection),
		a,
	)
	if !ok {
		return
	}

	var li core.Vec3
	beta := sensorSample.Wo.Multiply(
		math.Abs(sensorSample.P.Normal.Dot(sensorSample.Wi)) / (sensorSample.PdfP * sensorSample.PdfWi))

	helper := NewHelper(scene, a)

	p1, etaA, etaB, transmittance, hit := helper.Raycast(sensorSample.P, sensorSample.Wi)
	if !hit {
		if env := scene.InfinityAreaLight(); env != nil && fm.visibleInfinityAreaLight {
			li = li.Add(beta.MultiplyVec(env.Li(sensorSample.Wi)))
		}
		measurement.AddSample(sensorSample.P, li)
		return
	}
	beta = beta.MultiplyVec(transmittance)

	w10 := sensorSample.Wi.Negate()
	if p1.Light != nil {
		li = li.Add(beta.MultiplyVec(p1.Light.Le(p1, w10)))
	}

	for i := 2; i <= fm.maxPathLength; i++ {
		bsdf := p1.Material.EvaluateBSDF(p1, a)
		lobe, _ := bsdf.SampleLobe(sampler1D.Get(forwardStream1D))

		if bsdf.LobeType(lobe) == core.BxDFStandard {
			li = li.Add(fm.lightStrategy(scene, p1, bsdf, lobe, w10, etaA, etaB, beta, sampler1D, sampler2D, a))
		} else {
			// Delta lobes skip the light connection but still consume the
			// strategy's samples so the stream layout stays aligned
			sampler1D.Get(forwardStream1D)
			sampler1D.Get(forwardStream1D)
			sampler2D.Get(forwardStream2DGeneral)
		}

		// BSDF strategy: extend the path
		s, sampled := bsdf.SampleWi(lobe, w10, etaA, etaB,
			sampler1D.Get(forwardStream1D), sampler2D.Get(forwardStream2DGeneral))
		if !sampled || s.Pdf <= 0 {
			break
		}
		w12 := s.Direction
		pdfW12 := s.Pdf
		beta = beta.MultiplyVec(s.F).Multiply(math.Abs(p1.Normal.Dot(w12)) / pdfW12)

		deltaLobe := bsdf.LobeType(lobe) == core.BxDFDelta

		p2, nextEtaA, nextEtaB, transmittance, hit := helper.Raycast(p1, w12)
		if !hit {
			if env := scene.InfinityAreaLight(); env != nil {
				envLi := beta.MultiplyVec(transmittance).MultiplyVec(env.Li(w12))
				if deltaLobe {
					li = li.Add(envLi)
				} else {
					pdfLight := scene.SpatialLightDistribution().Get(p1).Pdf(env)
					pdfLightW12 := pdfLight * env.PdfWi(w12)
					weight := core.PowerHeuristic(pdfW12, pdfLightW12)
					li = li.Add(envLi.Multiply(weight))
				}
			}
			break
		}
		beta = beta.MultiplyVec(transmittance)

		w21 := w12.Negate()
		if p2.Light != nil {
			le := p2.Light.Le(p2, w21)
			if deltaLobe {
				li = li.Add(beta.MultiplyVec(le))
			} else {
				pdfLight := scene.SpatialLightDistribution().Get(p1).Pdf(p2.Light)
				pdfLightP2 := pdfLight * p2.Light.PdfP(p2)
				pdfBsdfP2 := pdfW12 * math.Abs(p2.Normal.Dot(w12)) / p2.Position.Subtract(p1.Position).LengthSquared()
				weight := core.PowerHeuristic(pdfBsdfP2, pdfLightP2)
				li = li.Add(beta.MultiplyVec(le).Multiply(weight))
			}
		}

		p1 = p2
		w10 = w21
		etaA, etaB = nextEtaA, nextEtaB
	}

	measurement.AddSample(sensorSample.P, li)
}

// lightStrategy samples one light from the spatial distribution and
// MIS-weights its contribution against the BSDF strategy
func (fm *ForwardMIS) lightStrategy(scene core.Scene, p1 *core.SurfacePoint, bsdf core.BSDF, lobe int, w10 core.Vec3, etaA, etaB float64, beta core.Vec3, sampler1D core.Sampler1D, sampler2D core.Sampler2D, a *arena.Arena) core.Vec3 {
	light, pdfLight := scene.SpatialLightDistribution().Get(p1).Sample(sampler1D.Get(forwardStream1D))
	if light == nil || pdfLight <= 0 {
		sampler1D.Get(forwardStream1D)
		sampler2D.Get(forwardStream2DGeneral)
		return core.Vec3{}
	}

	switch light.Type() {
	case core.LightTypeInfinityArea:
		// The primitive-pick sample goes unused for the environment
		sampler1D.Get(forwardStream1D)

		env := light.(core.InfinityAreaLight)
		lightSample, ok := env.SampleWi(sampler2D.Get(forwardStream2DGeneral))
		if !ok {
			return core.Vec3{}
		}

		f := bsdf.Evaluate(lobe, w10, lightSample.Wi, etaA, etaB)
		if f.IsZero() || !scene.VisibilityDir(p1, lightSample.Wi) {
			return core.Vec3{}
		}

		pdfBsdf := bsdf.PdfWi(lobe, w10, lightSample.Wi, etaA, etaB)
		pdfLightW := pdfLight * lightSample.PdfWi
		weight := core.PowerHeuristic(pdfLightW, pdfBsdf)
		return beta.MultiplyVec(f).MultiplyVec(lightSample.Li).
			Multiply(weight * math.Abs(p1.Normal.Dot(lightSample.Wi)) / pdfLightW)

	default:
		standard := light.(core.StandardLight)
		lightSample, ok := standard.SampleP(p1, sampler1D.Get(forwardStream1D), sampler2D.Get(forwardStream2DGeneral), a)
		if !ok || lightSample.PdfP <= 0 {
			return core.Vec3{}
		}

		d1L := lightSample.P.Position.Subtract(p1.Position)
		w1L := d1L.Normalize()
		f := bsdf.Evaluate(lobe, w10, w1L, etaA, etaB)
		if f.IsZero() || lightSample.Le.IsZero() || !scene.Visibility(p1, lightSample.P) {
			return core.Vec3{}
		}

		// Solid-angle <-> area conversion factor
		x := math.Abs(lightSample.P.Normal.Dot(w1L)) / d1L.LengthSquared()
		g1L := math.Abs(p1.Normal.Dot(w1L)) * x
		pdfBsdfPL := bsdf.PdfWi(lobe, w10, w1L, etaA, etaB) * x
		pdfLightPL := pdfLight * lightSample.PdfP
		weight := core.PowerHeuristic(pdfLightPL, pdfBsdfPL)
		return beta.MultiplyVec(f).MultiplyVec(lightSample.Le).Multiply(weight * g1L / pdfLightPL)
	}
}
