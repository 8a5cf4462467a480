package integrator

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
)

const (
	bidirStream1D = 0

	bidirStream2DMeasurementPoint     = 0
	bidirStream2DMeasurementDirection = 1
	bidirStream2DGeneral              = 2
)

// vertex is one node of a transport subpath. pdfForward is the area density
// of generating the vertex along the subpath's own direction, pdfBackward
// the density of generating it from the opposite direction; the MIS weight
// walks the ratio of the two along both subpaths.
type vertex struct {
	p *core.SurfacePoint

	pdfForward  float64
	pdfBackward float64

	wo core.Vec3
	wi core.Vec3

	beta core.Vec3

	bsdf core.BSDF
	lobe int

	etaA, etaB float64

	infinityLight bool
	connectable   bool
}

// Bidirectional is the bidirectional path tracer: a sensor subpath and a
// light subpath are built independently and every connection strategy
// (t, s) is evaluated with the balance-style vertex-ratio MIS weight.
type Bidirectional struct {
	maxPathLength            int
	visibleInfinityAreaLight bool
}

// NewBidirectional creates the bidirectional integrator. The visibility
// flag affects only the strategy where the eye ray escapes directly (t=2).
func NewBidirectional(maxPathLength int, visibleInfinityAreaLight bool) *Bidirectional {
	return &Bidirectional{
		maxPathLength:            maxPathLength,
		visibleInfinityAreaLight: visibleInfinityAreaLight,
	}
}

// SampleStreams1D implements Integrator
func (bd *Bidirectional) SampleStreams1D() []core.SampleStream1D {
	return []core.SampleStream1D{
		{DimensionCount: 4*bd.maxPathLength + 4},
	}
}

// SampleStreams2D implements Integrator
func (bd *Bidirectional) SampleStreams2D() []core.SampleStream2D {
	return []core.SampleStream2D{
		{DimensionCount: 1, Usage: core.SampleStream2DUsageGeneral},
		{DimensionCount: 1, Usage: core.SampleStream2DUsageMeasurementDirection},
		{DimensionCount: 4*bd.maxPathLength + 6, Usage: core.SampleStream2DUsageGeneral},
	}
}

// RunOnce implements Integrator
func (bd *Bidirectional) RunOnce(measurement core.Measurement, scene core.Scene, sampler1D core.Sampler1D, sampler2D core.Sampler2D, a *arena.Arena) {
	tVertices := arena.MakeSlice[vertex](a, bd.maxPathLength+1)
	sVertices := arena.MakeSlice[vertex](a, bd.maxPathLength+1)

	tCount := bd.createSensorSubpath(tVertices, measurement, scene, sampler1D, sampler2D, a)
	sCount := bd.createLightSubpath(sVertices, scene, sampler1D, sampler2D, a)

	var li core.Vec3
	maxVertexCount := bd.maxPathLength + 1

	// Light subpath to sensor: splats to whatever pixel the connection lands
	// in
	if tCount > 0 {
		x := min(maxVertexCount-1, sCount)
		for s := 2; s <= x; s++ {
			if sVertices[s-1].connectable {
				bd.connectT1(measurement, scene, sampler2D, a, sVertices, s)
			}
		}
	}

	// Sensor subpath alone: the path tracing strategies
	for t := 2; t <= tCount; t++ {
		li = li.Add(bd.connectS0(scene, tVertices, t))
	}

	// Sensor subpath to the sampled light vertex
	if sCount > 0 {
		y := min(maxVertexCount-1, tCount)
		for t := 2; t <= y; t++ {
			if !tVertices[t-1].infinityLight && tVertices[t-1].connectable {
				li = li.Add(bd.connectS1(scene, tVertices, t, sVertices))
			}
		}
	}

	// Inner connections
	z := min(maxVertexCount-2, tCount)
	for t := 2; t <= z; t++ {
		if tVertices[t-1].infinityLight || !tVertices[t-1].connectable {
			continue
		}
		v := min(maxVertexCount-t, sCount)
		for s := 2; s <= v; s++ {
			if sVertices[s-1].connectable {
				li = li.Add(bd.connect(scene, tVertices, t, sVertices, s))
			}
		}
	}

	if tCount >= 1 {
		measurement.AddSample(tVertices[0].p, li)
	}
	measurement.AddSampleCount(1)
}

// createSensorSubpath builds the eye-side subpath: vertex 0 is the sensor
// point, vertex 1 the first hit. Returns the vertex count.
func (bd *Bidirectional) createSensorSubpath(vertices []vertex, measurement core.Measurement, scene core.Scene, sampler1D core.Sampler1D, sampler2D core.Sampler2D, a *arena.Arena) int {
	sensorSample, ok := measurement.SamplePAndWi(
		sampler2D.Get(bidirStream2DMeasurementPoint),
		sampler2D.Get(bidirStream2DMeasurementDirection),
		a,
	)
	if !ok {
		return 0
	}

	vertices[0] = vertex{
		p:           sensorSample.P,
		pdfForward:  sensorSample.PdfP,
		wi:          sensorSample.Wi,
		beta:        core.Vec3{X: 1, Y: 1, Z: 1}.Divide(sensorSample.PdfP),
		connectable: true,
	}
	count := 1

	helper := NewHelper(scene, a)

	p, etaA, etaB, transmittance, hit := helper.Raycast(vertices[0].p, vertices[0].wi)
	throughput := vertices[0].beta.MultiplyVec(sensorSample.Wo).
		Multiply(math.Abs(vertices[0].p.Normal.Dot(vertices[0].wi)) / sensorSample.PdfWi)
	if !hit {
		if scene.InfinityAreaLight() != nil {
			vertices[1] = vertex{
				infinityLight: true,
				pdfForward:    sensorSample.PdfWi,
				beta:          throughput,
				connectable:   true,
			}
			return count + 1
		}
		return count
	}

	vertices[1] = vertex{
		p: p,
		pdfForward: sensorSample.PdfWi * math.Abs(p.Normal.Dot(vertices[0].wi)) /
			p.Position.Subtract(vertices[0].p.Position).LengthSquared(),
		wo:          vertices[0].wi.Negate(),
		beta:        throughput.MultiplyVec(transmittance),
		etaA:        etaA,
		etaB:        etaB,
		bsdf:        p.Material.EvaluateBSDF(p, a),
	}
	vertices[1].lobe, _ = vertices[1].bsdf.SampleLobe(sampler1D.Get(bidirStream1D))
	vertices[1].connectable = vertices[1].bsdf.LobeType(vertices[1].lobe) != core.BxDFDelta
	count++

	v0, v1, v2 := 0, 1, 2
	for i := 2; i <= bd.maxPathLength; i++ {
		s, ok := vertices[v1].bsdf.SampleWi(vertices[v1].lobe, vertices[v1].wo, vertices[v1].etaA, vertices[v1].etaB,
			sampler1D.Get(bidirStream1D), sampler2D.Get(bidirStream2DGeneral))
		if !ok || s.Pdf <= 0 {
			return count
		}
		vertices[v1].wi = s.Direction
		pdfWi := s.Pdf

		segmentBeta := vertices[v1].beta.MultiplyVec(s.F).
			Multiply(math.Abs(vertices[v1].p.Normal.Dot(vertices[v1].wi)) / pdfWi)

		p, etaA, etaB, transmittance, hit := helper.Raycast(vertices[v1].p, vertices[v1].wi)
		if !hit {
			if scene.InfinityAreaLight() == nil {
				return count
			}
			vertices[v2] = vertex{
				infinityLight: true,
				pdfForward:    pdfWi,
				beta:          segmentBeta,
				connectable:   true,
			}

			pdfWo := 1.0
			if vertices[v1].connectable {
				pdfWo = vertices[v1].bsdf.PdfWo(vertices[v1].lobe, vertices[v1].wo, vertices[v1].wi, vertices[v1].etaA, vertices[v1].etaB)
			}
			vertices[v0].pdfBackward = pdfWo * math.Abs(vertices[v0].p.Normal.Dot(vertices[v1].wo)) /
				vertices[v0].p.Position.Subtract(vertices[v1].p.Position).LengthSquared()

			return count + 1
		}

		vertices[v2] = vertex{
			p: p,
			pdfForward: pdfWi * math.Abs(p.Normal.Dot(vertices[v1].wi)) /
				p.Position.Subtract(vertices[v1].p.Position).LengthSquared(),
			wo:   vertices[v1].wi.Negate(),
			beta: segmentBeta.MultiplyVec(transmittance),
			etaA: etaA,
			etaB: etaB,
			bsdf: p.Material.EvaluateBSDF(p, a),
		}
		vertices[v2].lobe, _ = vertices[v2].bsdf.SampleLobe(sampler1D.Get(bidirStream1D))
		vertices[v2].connectable = vertices[v2].bsdf.LobeType(vertices[v2].lobe) != core.BxDFDelta
		count++

		pdfWo := 1.0
		if vertices[v1].connectable {
			pdfWo = vertices[v1].bsdf.PdfWo(vertices[v1].lobe, vertices[v1].wo, vertices[v1].wi, vertices[v1].etaA, vertices[v1].etaB)
		}
		vertices[v0].pdfBackward = pdfWo * math.Abs(vertices[v0].p.Normal.Dot(vertices[v1].wo)) /
			vertices[v0].p.Position.Subtract(vertices[v1].p.Position).LengthSquared()

		v0++
		v1++
		v2++
	}

	return count
}

// createLightSubpath builds the light-side subpath: vertex 0 is the light
// sample (or the environment), vertex 1 the first hit
func (bd *Bidirectional) createLightSubpath(vertices []vertex, scene core.Scene, sampler1D core.Sampler1D, sampler2D core.Sampler2D, a *arena.Arena) int {
	light, pdfLight := scene.LightDistribution().Sample(sampler1D.Get(bidirStream1D))
	if light == nil || pdfLight <= 0 {
		return 0
	}

	helper := NewHelper(scene, a)
	count := 0

	switch light.Type() {
	case core.LightTypeStandard:
		standard := light.(core.StandardLight)
		lightSample, ok := standard.SamplePAndWo(
			sampler1D.Get(bidirStream1D),
			sampler2D.Get(bidirStream2DGeneral),
			sampler2D.Get(bidirStream2DGeneral),
			a,
		)
		if !ok {
			return 0
		}

		vertices[0] = vertex{
			p:           lightSample.P,
			pdfBackward: pdfLight * lightSample.PdfP,
			wo:          lightSample.Wo,
			beta:        core.Vec3{X: 1, Y: 1, Z: 1}.Divide(pdfLight * lightSample.PdfP),
			connectable: true,
		}
		count = 1

		p, etaA, etaB, transmittance, hit := helper.Raycast(vertices[0].p, vertices[0].wo)
		if !hit {
			return count
		}

		vertices[1] = vertex{
			p: p,
			pdfBackward: lightSample.PdfWo * math.Abs(p.Normal.Dot(vertices[0].wo)) /
				p.Position.Subtract(vertices[0].p.Position).LengthSquared(),
			wi: vertices[0].wo.Negate(),
			beta: vertices[0].beta.MultiplyVec(lightSample.Le).MultiplyVec(transmittance).
				Multiply(math.Abs(vertices[0].p.Normal.Dot(vertices[0].wo)) / lightSample.PdfWo),
			etaA: etaA,
			etaB: etaB,
			bsdf: p.Material.EvaluateBSDF(p, a),
		}

	case core.LightTypeInfinityArea:
		env := light.(core.InfinityAreaLight)
		lightSample, ok := env.SampleWiAndO(sampler2D.Get(bidirStream2DGeneral), sampler2D.Get(bidirStream2DGeneral))
		if !ok {
			return 0
		}
		// Consume the slot a surface light would have used for the
		// primitive pick so both branches stay aligned
		sampler1D.Get(bidirStream1D)

		vertices[0] = vertex{
			infinityLight: true,
			pdfBackward:   pdfLight * lightSample.PdfWi,
			wi:            lightSample.Wi,
			beta:          lightSample.Li.Divide(pdfLight * lightSample.PdfWi),
			connectable:   true,
		}
		count = 1

		origin := arena.Make[core.SurfacePoint](a)
		origin.Position = lightSample.O

		p, etaA, etaB, transmittance, hit := helper.Raycast(origin, lightSample.Wi.Negate())
		if !hit {
			return count
		}

		vertices[1] = vertex{
			p:           p,
			pdfBackward: lightSample.PdfO * math.Abs(p.Normal.Dot(lightSample.Wi)),
			wi:          lightSample.Wi,
			beta:        vertices[0].beta.MultiplyVec(transmittance).Divide(lightSample.PdfO),
			etaA:        etaA,
			etaB:        etaB,
			bsdf:        p.Material.EvaluateBSDF(p, a),
		}

	default:
		return 0
	}

	vertices[1].lobe, _ = vertices[1].bsdf.SampleLobe(sampler1D.Get(bidirStream1D))
	vertices[1].connectable = vertices[1].bsdf.LobeType(vertices[1].lobe) != core.BxDFDelta
	count++

	v0, v1, v2 := 0, 1, 2
	for i := 2; i <= bd.maxPathLength; i++ {
		s, ok := vertices[v1].bsdf.SampleWo(vertices[v1].lobe, vertices[v1].wi, vertices[v1].etaA, vertices[v1].etaB,
			sampler1D.Get(bidirStream1D), sampler2D.Get(bidirStream2DGeneral))
		if !ok || s.Pdf <= 0 {
			return count
		}
		vertices[v1].wo = s.Direction
		pdfWo := s.Pdf

		segmentBeta := vertices[v1].beta.MultiplyVec(s.F).
			Multiply(math.Abs(vertices[v1].p.Normal.Dot(vertices[v1].wo)) / pdfWo)

		p, etaA, etaB, transmittance, hit := helper.Raycast(vertices[v1].p, vertices[v1].wo)
		if !hit {
			return count
		}

		vertices[v2] = vertex{
			p: p,
			pdfBackward: pdfWo * math.Abs(p.Normal.Dot(vertices[v1].wo)) /
				p.Position.Subtract(vertices[v1].p.Position).LengthSquared(),
			wi:   vertices[v1].wo.Negate(),
			beta: segmentBeta.MultiplyVec(transmittance),
			etaA: etaA,
			etaB: etaB,
			bsdf: p.Material.EvaluateBSDF(p, a),
		}
		vertices[v2].lobe, _ = vertices[v2].bsdf.SampleLobe(sampler1D.Get(bidirStream1D))
		vertices[v2].connectable = vertices[v2].bsdf.LobeType(vertices[v2].lobe) != core.BxDFDelta
		count++

		pdfWi := 1.0
		if vertices[v1].connectable {
			pdfWi = vertices[v1].bsdf.PdfWi(vertices[v1].lobe, vertices[v1].wo, vertices[v1].wi, vertices[v1].etaA, vertices[v1].etaB)
		}
		if !vertices[v0].infinityLight {
			vertices[v0].pdfForward = pdfWi * math.Abs(vertices[v0].p.Normal.Dot(vertices[v1].wi)) /
				vertices[v0].p.Position.Subtract(vertices[v1].p.Position).LengthSquared()
		} else {
			vertices[v0].pdfForward = pdfWi
		}

		v0++
		v1++
		v2++
	}

	return count
}

// connectS0 treats the sensor subpath's final vertex as a natural light hit
func (bd *Bidirectional) connectS0(scene core.Scene, tVertices []vertex, t int) core.Vec3 {
	t0 := &tVertices[t-1]
	t1 := &tVertices[t-2]

	if t0.infinityLight {
		env := scene.InfinityAreaLight()
		if t == 2 && !bd.visibleInfinityAreaLight {
			return core.Vec3{}
		}

		li := t0.beta.MultiplyVec(env.Li(t1.wi))
		if t > 2 && !li.IsZero() {
			savedT0 := t0.pdfBackward
			savedT1 := t1.pdfBackward
			defer func() {
				t0.pdfBackward = savedT0
				t1.pdfBackward = savedT1
			}()

			t0.pdfBackward = scene.LightDistribution().Pdf(env) * env.PdfWi(t1.wi)
			t1.pdfBackward = env.PdfO() * math.Abs(t1.p.Normal.Dot(t1.wi))

			return li.Multiply(misWeight(tVertices, t, nil, 0))
		}
		return li
	}

	if t0.p.Light != nil {
		li := t0.beta.MultiplyVec(t0.p.Light.Le(t0.p, t0.wo))
		if t > 2 && !li.IsZero() {
			savedT0 := t0.pdfBackward
			savedT1 := t1.pdfBackward
			defer func() {
				t0.pdfBackward = savedT0
				t1.pdfBackward = savedT1
			}()

			t0.pdfBackward = t0.p.Light.PdfP(t0.p) * scene.LightDistribution().Pdf(t0.p.Light)
			t1.pdfBackward = t0.p.Light.PdfWo(t0.p, t0.wo) * math.Abs(t1.p.Normal.Dot(t0.wo)) /
				t1.p.Position.Subtract(t0.p.Position).LengthSquared()

			return li.Multiply(misWeight(tVertices, t, nil, 0))
		}
		return li
	}

	return core.Vec3{}
}

// connectS1 connects the end of the sensor subpath to the sampled light
// vertex with one visibility ray
func (bd *Bidirectional) connectS1(scene core.Scene, tVertices []vertex, t int, sVertices []vertex) core.Vec3 {
	t0 := &tVertices[t-1]
	t1 := &tVertices[t-2]
	s0 := &sVertices[0]

	if s0.infinityLight {
		f := t0.bsdf.Evaluate(t0.lobe, t0.wo, s0.wi, t0.etaA, t0.etaB)
		if f.IsZero() || !scene.VisibilityDir(t0.p, s0.wi) {
			return core.Vec3{}
		}

		li := t0.beta.MultiplyVec(f).Multiply(math.Abs(t0.p.Normal.Dot(s0.wi))).MultiplyVec(s0.beta)
		if li.IsZero() {
			return core.Vec3{}
		}

		savedT0 := t0.pdfBackward
		savedT1 := t1.pdfBackward
		savedS0 := s0.pdfForward
		defer func() {
			t0.pdfBackward = savedT0
			t1.pdfBackward = savedT1
			s0.pdfForward = savedS0
		}()

		env := scene.InfinityAreaLight()
		t0.pdfBackward = env.PdfO() * math.Abs(t0.p.Normal.Dot(s0.wi))
		t1.pdfBackward = t0.bsdf.PdfWo(t0.lobe, t0.wo, s0.wi, t0.etaA, t0.etaB) *
			math.Abs(t1.p.Normal.Dot(t0.wo)) / t1.p.Position.Subtract(t0.p.Position).LengthSquared()
		s0.pdfForward = t0.bsdf.PdfWi(t0.lobe, t0.wo, s0.wi, t0.etaA, t0.etaB)

		return li.Multiply(misWeight(tVertices, t, sVertices, 1))
	}

	d := t0.p.Position.Subtract(s0.p.Position)
	sqrLen := d.LengthSquared()
	wo := d.Divide(math.Sqrt(sqrLen))
	radiance := s0.p.Light.Le(s0.p, wo)
	if radiance.IsZero() {
		return core.Vec3{}
	}

	wi := wo.Negate()
	f := t0.bsdf.Evaluate(t0.lobe, t0.wo, wi, t0.etaA, t0.etaB)
	if f.IsZero() || !scene.Visibility(t0.p, s0.p) {
		return core.Vec3{}
	}

	g := math.Abs(t0.p.Normal.Dot(wo)*s0.p.Normal.Dot(wo)) / sqrLen
	li := t0.beta.MultiplyVec(f).Multiply(g).MultiplyVec(radiance).MultiplyVec(s0.beta)
	if li.IsZero() {
		return core.Vec3{}
	}

	savedT0 := t0.pdfBackward
	savedT1 := t1.pdfBackward
	savedS0 := s0.pdfForward
	defer func() {
		t0.pdfBackward = savedT0
		t1.pdfBackward = savedT1
		s0.pdfForward = savedS0
	}()

	t0.pdfBackward = s0.p.Light.PdfWo(s0.p, wo) * math.Abs(t0.p.Normal.Dot(wo)) / sqrLen
	t1.pdfBackward = t0.bsdf.PdfWo(t0.lobe, t0.wo, wi, t0.etaA, t0.etaB) *
		math.Abs(t1.p.Normal.Dot(t0.wo)) / t1.p.Position.Subtract(t0.p.Position).LengthSquared()
	s0.pdfForward = t0.bsdf.PdfWi(t0.lobe, t0.wo, wi, t0.etaA, t0.etaB) *
		math.Abs(s0.p.Normal.Dot(wi)) / sqrLen

	return li.Multiply(misWeight(tVertices, t, sVertices, 1))
}

// connectT1 samples a sensor point from the light-subpath tip and splats
// the contribution straight to the film
func (bd *Bidirectional) connectT1(measurement core.Measurement, scene core.Scene, sampler2D core.Sampler2D, a *arena.Arena, sVertices []vertex, s int) {
	s0 := &sVertices[s-1]
	s1 := &sVertices[s-2]

	sensorSample, ok := measurement.SamplePFromPoint(s0.p, sampler2D.Get(bidirStream2DGeneral), a)
	if !ok {
		return
	}

	d := sensorSample.P.Position.Subtract(s0.p.Position)
	sqrLen := d.LengthSquared()
	wo := d.Divide(math.Sqrt(sqrLen))

	f := s0.bsdf.Evaluate(s0.lobe, wo, s0.wi, s0.etaA, s0.etaB)
	if f.IsZero() || !scene.Visibility(sensorSample.P, s0.p) {
		return
	}

	g := math.Abs(sensorSample.P.Normal.Dot(wo)*s0.p.Normal.Dot(wo)) / sqrLen
	li := sensorSample.Wo.MultiplyVec(f).MultiplyVec(s0.beta).Multiply(g / sensorSample.PdfP)
	if li.IsZero() {
		return
	}

	savedS0 := s0.pdfForward
	savedS1 := s1.pdfForward
	defer func() {
		s0.pdfForward = savedS0
		s1.pdfForward = savedS1
	}()

	wi := wo.Negate()
	s0.pdfForward = measurement.PdfWi(sensorSample.P, wi) * math.Abs(s0.p.Normal.Dot(wi)) / sqrLen
	if s1.infinityLight {
		s1.pdfForward = s0.bsdf.PdfWi(s0.lobe, wo, s0.wi, s0.etaA, s0.etaB)
	} else {
		s1.pdfForward = s0.bsdf.PdfWi(s0.lobe, wo, s0.wi, s0.etaA, s0.etaB) *
			math.Abs(s1.p.Normal.Dot(s0.wi)) / s1.p.Position.Subtract(s0.p.Position).LengthSquared()
	}

	measurement.AddSample(sensorSample.P, li.Multiply(misWeight(nil, 1, sVertices, s)))
}

// connect joins inner vertices of both subpaths with one visibility ray
func (bd *Bidirectional) connect(scene core.Scene, tVertices []vertex, t int, sVertices []vertex, s int) core.Vec3 {
	t0 := &tVertices[t-1]
	t1 := &tVertices[t-2]
	s0 := &sVertices[s-1]
	s1 := &sVertices[s-2]

	d := t0.p.Position.Subtract(s0.p.Position)
	sqrLen := d.LengthSquared()
	if sqrLen == 0 {
		return core.Vec3{}
	}
	wo := d.Divide(math.Sqrt(sqrLen))
	wi := wo.Negate()

	ft := t0.bsdf.Evaluate(t0.lobe, t0.wo, wi, t0.etaA, t0.etaB)
	if ft.IsZero() {
		return core.Vec3{}
	}
	fs := s0.bsdf.Evaluate(s0.lobe, wo, s0.wi, s0.etaA, s0.etaB)
	if fs.IsZero() || !scene.Visibility(t0.p, s0.p) {
		return core.Vec3{}
	}

	g := math.Abs(t0.p.Normal.Dot(wi)*s0.p.Normal.Dot(wi)) / sqrLen
	li := t0.beta.MultiplyVec(ft).Multiply(g).MultiplyVec(fs).MultiplyVec(s0.beta)
	if li.IsZero() {
		return core.Vec3{}
	}

	savedT0 := t0.pdfBackward
	savedT1 := t1.pdfBackward
	savedS0 := s0.pdfForward
	savedS1 := s1.pdfForward
	defer func() {
		t0.pdfBackward = savedT0
		t1.pdfBackward = savedT1
		s0.pdfForward = savedS0
		s1.pdfForward = savedS1
	}()

	s0.pdfForward = t0.bsdf.PdfWi(t0.lobe, t0.wo, wi, t0.etaA, t0.etaB) *
		math.Abs(s0.p.Normal.Dot(wi)) / sqrLen
	if s1.infinityLight {
		s1.pdfForward = s0.bsdf.PdfWi(s0.lobe, wo, s0.wi, s0.etaA, s0.etaB)
	} else {
		s1.pdfForward = s0.bsdf.PdfWi(s0.lobe, wo, s0.wi, s0.etaA, s0.etaB) *
			math.Abs(s1.p.Normal.Dot(s0.wi)) / s1.p.Position.Subtract(s0.p.Position).LengthSquared()
	}

	t0.pdfBackward = s0.bsdf.PdfWo(s0.lobe, wo, s0.wi, s0.etaA, s0.etaB) *
		math.Abs(t0.p.Normal.Dot(wo)) / sqrLen
	t1.pdfBackward = t0.bsdf.PdfWo(t0.lobe, t0.wo, wi, t0.etaA, t0.etaB) *
		math.Abs(t1.p.Normal.Dot(t0.wo)) / t1.p.Position.Subtract(t0.p.Position).LengthSquared()

	return li.Multiply(misWeight(tVertices, t, sVertices, s))
}

// remap0 substitutes 1 for zero densities so delta segments drop out of the
// ratio instead of poisoning it
func remap0(f float64) float64 {
	if f != 0 {
		return f
	}
	return 1.0
}

// misWeight is the balance-style weight over all strategies that could have
// produced the connected path: 1 / (1 + sum of density ratios along both
// subpaths), counting only segments whose incident vertices are connectable
func misWeight(tVertices []vertex, t int, sVertices []vertex, s int) float64 {
	sum := 1.0

	r := 1.0
	for i := t - 1; i > 0; i-- {
		r *= remap0(tVertices[i].pdfBackward) / remap0(tVertices[i].pdfForward)
		if tVertices[i].connectable && tVertices[i-1].connectable {
			sum += r
		}
	}

	r = 1.0
	for i := s - 1; i >= 0; i-- {
		r *= remap0(sVertices[i].pdfForward) / remap0(sVertices[i].pdfBackward)
		connectablePrev := true
		if i > 0 {
			connectablePrev = sVertices[i-1].connectable
		}
		if sVertices[i].connectable && connectablePrev {
			sum += r
		}
	}

	return 1.0 / sum
}
