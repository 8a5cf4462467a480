package integrator

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
)

const (
	forwardBsdfStream1D = 0

	forwardBsdfStream2DMeasurementPoint     = 0
	forwardBsdfStream2DMeasurementDirection = 1
	forwardBsdfStream2DGeneral              = 2
)

// ForwardBSDF is the plain forward path tracer: BSDF sampling only, no
// light connections. Slower to converge than ForwardMIS but free of any
// weighting assumptions, which makes it the reference the other estimators
// are validated against.
type ForwardBSDF struct {
	maxPathLength int
}

// NewForwardBSDF creates the BSDF-sampling-only forward integrator
func NewForwardBSDF(maxPathLength int) *ForwardBSDF {
	return &ForwardBSDF{maxPathLength: maxPathLength}
}

// SampleStreams1D implements core.Integrator
func (fb *ForwardBSDF) SampleStreams1D() []core.SampleStream1D {
	return []core.SampleStream1D{
		{DimensionCount: 2 * fb.maxPathLength},
	}
}

// SampleStreams2D implements core.Integrator
func (fb *ForwardBSDF) SampleStreams2D() []core.SampleStream2D {
	return []core.SampleStream2D{
		{DimensionCount: 1, Usage: core.SampleStream2DUsageGeneral},
		{DimensionCount: 1, Usage: core.SampleStream2DUsageMeasurementDirection},
		{DimensionCount: fb.maxPathLength, Usage: core.SampleStream2DUsageGeneral},
	}
}

// RunOnce implements core.Integrator
func (fb *ForwardBSDF) RunOnce(measurement core.Measurement, scene core.Scene, sampler1D core.Sampler1D, sampler2D core.Sampler2D, a *arena.Arena) {
	measurement.AddSampleCount(1)

	sensorSample, ok := measurement.SamplePAndWi(
		sampler2D.Get(forwardBsdfStream2DMeasurementPoint),
		sampler2D.Get(forwardBsdfStream2DMeasurementDirection),
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
		if env := scene.InfinityAreaLight(); env != nil {
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

	for i := 2; i <= fb.maxPathLength; i++ {
		bsdf := p1.Material.EvaluateBSDF(p1, a)
		lobe, _ := bsdf.SampleLobe(sampler1D.Get(forwardBsdfStream1D))

		s, sampled := bsdf.SampleWi(lobe, w10, etaA, etaB,
			sampler1D.Get(forwardBsdfStream1D), sampler2D.Get(forwardBsdfStream2DGeneral))
		if !sampled || s.Pdf <= 0 {
			break
		}
		w12 := s.Direction
		beta = beta.MultiplyVec(s.F).Multiply(math.Abs(p1.Normal.Dot(w12)) / s.Pdf)

		p2, nextEtaA, nextEtaB, transmittance, hit := helper.Raycast(p1, w12)
		if !hit {
			if env := scene.InfinityAreaLight(); env != nil {
				li = li.Add(beta.MultiplyVec(transmittance).MultiplyVec(env.Li(w12)))
			}
			break
		}
		beta = beta.MultiplyVec(transmittance)

		w21 := w12.Negate()
		if p2.Light != nil {
			li = li.Add(beta.MultiplyVec(p2.Light.Le(p2, w21)))
		}

		p1 = p2
		w10 = w21
		etaA, etaB = nextEtaA, nextEtaB
	}

	measurement.AddSample(sensorSample.P, li)
}
