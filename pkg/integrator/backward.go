package integrator

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
)

const (
	backwardStream1D = 0
	backwardStream2D = 0
)

// Backward walks light-to-eye: it starts from a light sample and attempts a
// sensor connection at every vertex, splatting contributions directly into
// the film. No MIS is applied; delta vertices block connections but still
// extend the path.
type Backward struct {
	maxPathLength int
}

// NewBackward creates the backward integrator
func NewBackward(maxPathLength int) *Backward {
	return &Backward{maxPathLength: maxPathLength}
}

// SampleStreams1D implements Integrator
func (b *Backward) SampleStreams1D() []core.SampleStream1D {
	return []core.SampleStream1D{
		{DimensionCount: 2*b.maxPathLength + 2},
	}
}

// SampleStreams2D implements Integrator
func (b *Backward) SampleStreams2D() []core.SampleStream2D {
	return []core.SampleStream2D{
		{DimensionCount: 3*b.maxPathLength + 4, Usage: core.SampleStream2DUsageGeneral},
	}
}

// RunOnce implements Integrator
func (b *Backward) RunOnce(measurement core.Measurement, scene core.Scene, sampler1D core.Sampler1D, sampler2D core.Sampler2D, a *arena.Arena) {
	measurement.AddSampleCount(1)

	light, pdfLight := scene.LightDistribution().Sample(sampler1D.Get(backwardStream1D))
	if light == nil || pdfLight <= 0 {
		return
	}

	helper := NewHelper(scene, a)

	var p1 *core.SurfacePoint
	var w10 core.Vec3
	var beta core.Vec3
	var etaA, etaB float64

	switch light.Type() {
	case core.LightTypeStandard:
		standard := light.(core.StandardLight)
		lightSample, ok := standard.SamplePAndWo(
			sampler1D.Get(backwardStream1D),
			sampler2D.Get(backwardStream2D),
			sampler2D.Get(backwardStream2D),
			a,
		)
		if !ok {
			return
		}

		// Direct light-to-sensor connection
		if sensorSample, ok := measurement.SamplePFromPoint(lightSample.P, sampler2D.Get(backwardStream2D), a); ok {
			d0C := sensorSample.P.Position.Subtract(lightSample.P.Position)
			w0C := d0C.Normalize()
			le := standard.Le(lightSample.P, w0C)
			if !le.IsZero() && scene.Visibility(lightSample.P, sensorSample.P) {
				g := math.Abs(sensorSample.P.Normal.Dot(w0C)*lightSample.P.Normal.Dot(w0C)) / d0C.LengthSquared()
				li := sensorSample.Wo.MultiplyVec(le).
					Multiply(g / (sensorSample.PdfP * lightSample.PdfP * pdfLight))
				measurement.AddSample(sensorSample.P, li)
			}
		}

		var transmittance core.Vec3
		var hit bool
		p1, etaA, etaB, transmittance, hit = helper.Raycast(lightSample.P, lightSample.Wo)
		if !hit {
			return
		}

		w10 = lightSample.Wo.Negate()
		beta = lightSample.Le.MultiplyVec(transmittance).
			Multiply(math.Abs(lightSample.P.Normal.Dot(w10)) / (lightSample.PdfP * lightSample.PdfWo * pdfLight))

	case core.LightTypeInfinityArea:
		env := light.(core.InfinityAreaLight)
		lightSample, ok := env.SampleWiAndO(sampler2D.Get(backwardStream2D), sampler2D.Get(backwardStream2D))
		if !ok {
			return
		}

		// Direct environment-to-sensor connection
		if sensorSample, ok := measurement.SamplePFromDirection(lightSample.Wi, sampler2D.Get(backwardStream2D), a); ok {
			if scene.VisibilityDir(sensorSample.P, lightSample.Wi) {
				li := sensorSample.Wo.MultiplyVec(lightSample.Li).
					Multiply(math.Abs(sensorSample.P.Normal.Dot(lightSample.Wi)) /
						(sensorSample.PdfP * lightSample.PdfWi * pdfLight))
				measurement.AddSample(sensorSample.P, li)
			}
		}

		origin := arena.Make[core.SurfacePoint](a)
		origin.Position = lightSample.O

		var transmittance core.Vec3
		var hit bool
		p1, etaA, etaB, transmittance, hit = helper.Raycast(origin, lightSample.Wi.Negate())
		if !hit {
			return
		}

		w10 = lightSample.Wi
		beta = lightSample.Li.MultiplyVec(transmittance).
			Divide(lightSample.PdfO * lightSample.PdfWi * pdfLight)

	default:
		return
	}

	if b.maxPathLength == 1 {
		return
	}

	pathLength := 2
	for {
		bsdf := p1.Material.EvaluateBSDF(p1, a)
		lobe, _ := bsdf.SampleLobe(sampler1D.Get(backwardStream1D))

		if bsdf.LobeType(lobe) == core.BxDFStandard {
			// Vertex-to-sensor connection
			if sensorSample, ok := measurement.SamplePFromPoint(p1, sampler2D.Get(backwardStream2D), a); ok {
				d1C := sensorSample.P.Position.Subtract(p1.Position)
				w1C := d1C.Normalize()
				f := bsdf.Evaluate(lobe, w1C, w10, etaA, etaB)
				if !f.IsZero() && scene.Visibility(p1, sensorSample.P) {
					g := math.Abs(sensorSample.P.Normal.Dot(w1C)*p1.Normal.Dot(w1C)) / d1C.LengthSquared()
					li := beta.MultiplyVec(sensorSample.Wo).MultiplyVec(f).Multiply(g / sensorSample.PdfP)
					measurement.AddSample(sensorSample.P, li)
				}
			}
		} else {
			sampler2D.Get(backwardStream2D)
		}

		if pathLength >= b.maxPathLength {
			break
		}
		pathLength++

		s, ok := bsdf.SampleWo(lobe, w10, etaA, etaB,
			sampler1D.Get(backwardStream1D), sampler2D.Get(backwardStream2D))
		if !ok || s.Pdf <= 0 {
			break
		}
		w12 := s.Direction

		p2, nextEtaA, nextEtaB, transmittance, hit := helper.Raycast(p1, w12)
		if !hit {
			break
		}

		beta = beta.MultiplyVec(s.F).Multiply(math.Abs(p1.Normal.Dot(w12)) / s.Pdf)
		beta = beta.MultiplyVec(transmittance)

		p1 = p2
		w10 = w12.Negate()
		etaA, etaB = nextEtaA, nextEtaB
	}
}
