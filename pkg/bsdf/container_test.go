package bsdf

import (
	"math"
	"testing"

	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
)

func testPoint() *core.SurfacePoint {
	p := &core.SurfacePoint{
		Position: core.Vec3{},
		Normal:   core.Vec3{Y: 1},
	}
	p.SetDefaultShadingFrame()
	return p
}

func TestContainerWeightNormalization(t *testing.T) {
	a := arena.New(1 << 16)
	c := New(a, testPoint()).
		Add(LambertianReflection{Reflectance: core.NewVec3(0.5, 0.5, 0.5)}, 1, 3).
		Add(LambertianReflection{Reflectance: core.NewVec3(0.2, 0.2, 0.2)}, 1, 1).
		Finalize()

	lobe0, w0 := c.SampleLobe(0.5)
	if lobe0 != 0 || math.Abs(w0-0.75) > 1e-12 {
		t.Errorf("SampleLobe(0.5): got lobe %d weight %f, expected 0, 0.75", lobe0, w0)
	}
	lobe1, w1 := c.SampleLobe(0.9)
	if lobe1 != 1 || math.Abs(w1-0.25) > 1e-12 {
		t.Errorf("SampleLobe(0.9): got lobe %d weight %f, expected 1, 0.25", lobe1, w1)
	}
}

func TestContainerEvaluateSumsStandardLobes(t *testing.T) {
	a := arena.New(1 << 16)
	c := New(a, testPoint()).
		Add(LambertianReflection{Reflectance: core.NewVec3(0.4, 0.4, 0.4)}, 1, 1).
		Add(SpecularReflection{Reflectance: core.NewVec3(1, 1, 1), Fresnel: FresnelOne{}}, 1, 1).
		Finalize()

	wo := core.Vec3{X: 0.2, Y: 0.8, Z: 0.1}.Normalize()
	wi := core.Vec3{X: -0.3, Y: 0.6, Z: 0.2}.Normalize()

	// Delta lobes contribute to sampling but never to evaluation
	got := c.Evaluate(0, wo, wi, 1, 1)
	expected := core.NewVec3(0.4, 0.4, 0.4).Multiply(1.0 / math.Pi)
	if !got.Equals(expected) {
		t.Errorf("Evaluate: got %v, expected %v", got, expected)
	}
}

func TestContainerSampleWiAggregation(t *testing.T) {
	a := arena.New(1 << 16)
	c := New(a, testPoint()).
		Add(LambertianReflection{Reflectance: core.NewVec3(0.3, 0.3, 0.3)}, 1, 0.5).
		Add(LambertianReflection{Reflectance: core.NewVec3(0.2, 0.2, 0.2)}, 1, 0.5).
		Finalize()

	wo := core.Vec3{X: 0.1, Y: 0.9, Z: 0.2}.Normalize()

	s, ok := c.SampleWi(0, wo, 1, 1, 0.3, core.Vec2{X: 0.4, Y: 0.6})
	if !ok {
		t.Fatal("container sample failed")
	}
	if s.Direction.Y <= 0 {
		t.Fatalf("sampled direction below surface: %v", s.Direction)
	}

	// f = (s0/w0) f0 + s1 f1 = 2*0.3/pi + 0.2/pi
	expectedF := (2*0.3 + 0.2) / math.Pi
	if math.Abs(s.F.X-expectedF) > 1e-12 {
		t.Errorf("aggregated f: got %f, expected %f", s.F.X, expectedF)
	}

	// pdf = pdf0 + w1 pdf1 = cos/pi + 0.5 cos/pi
	expectedPdf := 1.5 * s.Direction.Y / math.Pi
	if math.Abs(s.Pdf-expectedPdf) > 1e-12 {
		t.Errorf("aggregated pdf: got %f, expected %f", s.Pdf, expectedPdf)
	}
}

func TestContainerWorldSpaceFrame(t *testing.T) {
	// A surface facing +X: local hemisphere sampling must come back around
	// the world normal
	p := &core.SurfacePoint{Normal: core.Vec3{X: 1}}
	p.SetDefaultShadingFrame()

	a := arena.New(1 << 16)
	c := New(a, p).
		Add(LambertianReflection{Reflectance: core.NewVec3(0.5, 0.5, 0.5)}, 1, 1).
		Finalize()

	wo := core.Vec3{X: 0.9, Y: 0.3, Z: 0.1}.Normalize()
	random := core.NewPCG32(9, 0)
	for k := 0; k < 1000; k++ {
		s, ok := c.SampleWi(0, wo, 1, 1, random.Float64(), core.Vec2{X: random.Float64(), Y: random.Float64()})
		if !ok {
			t.Fatal("sample failed")
		}
		if s.Direction.Dot(p.Normal) <= 0 {
			t.Fatalf("sampled direction behind surface: %v", s.Direction)
		}
	}
}

func TestContainerShadingNormalGuard(t *testing.T) {
	// Shading normal tilted 30 degrees off the geometric normal
	p := &core.SurfacePoint{Normal: core.Vec3{Y: 1}}
	shading := core.Vec3{X: 0.5, Y: math.Sqrt(3) / 2, Z: 0}
	f := core.NewFrame(shading)
	p.ShadingTangent = f.Tangent
	p.ShadingNormal = f.Normal
	p.ShadingBitangent = f.Bitangent

	a := arena.New(1 << 16)
	c := New(a, p).
		Add(LambertianReflection{Reflectance: core.NewVec3(0.5, 0.5, 0.5)}, 1, 1).
		Finalize()

	wo := core.Vec3{X: 0.1, Y: 0.9, Z: 0}.Normalize()

	// A direction above the shading hemisphere but below the geometric one
	// must be rejected
	bad := core.Vec3{X: 0.95, Y: -0.05, Z: 0}.Normalize()
	if bad.Dot(shading) <= 0 {
		t.Fatal("test direction should be above the shading hemisphere")
	}
	if got := c.Evaluate(0, wo, bad, 1, 1); !got.IsZero() {
		t.Errorf("guard should reject sign-mismatched direction: got %v", got)
	}

	// An agreeing direction passes with the reciprocity rescale
	good := core.Vec3{X: 0.3, Y: 0.7, Z: 0}.Normalize()
	got := c.Evaluate(0, wo, good, 1, 1)
	ratio := math.Abs(good.Dot(shading)) / math.Abs(good.Y)
	expected := 0.5 / math.Pi * ratio
	if math.Abs(got.X-expected) > 1e-12 {
		t.Errorf("rescaled evaluate: got %f, expected %f", got.X, expected)
	}
}

func TestContainerGlassRadianceCompression(t *testing.T) {
	a := arena.New(1 << 16)
	c := New(a, testPoint()).
		Add(SpecularGlass{Reflectance: core.NewVec3(1, 1, 1), Transmittance: core.NewVec3(1, 1, 1)}, 1, 1).
		Finalize()

	wo := core.Vec3{X: 0.3, Y: 0.8, Z: 0}.Normalize()

	// Force refraction air -> glass; the lobe's etaB²/etaA² and the
	// radiance-side adapter's etaA²/etaB² cancel
	s, ok := c.SampleWi(0, wo, 1.0, 1.5, 0.999, core.Vec2{})
	if !ok {
		t.Fatal("glass refraction failed")
	}
	if s.Direction.Y >= 0 {
		t.Fatalf("expected transmission: %v", s.Direction)
	}

	fresnel := FrDielectric(wo.Y, 1.0, 1.5)
	expected := (1.0 - fresnel) / math.Abs(s.Direction.Y)
	if math.Abs(s.F.X-expected) > 1e-9 {
		t.Errorf("radiance-side transmitted value: got %f, expected %f", s.F.X, expected)
	}
}
