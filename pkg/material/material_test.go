package material

import (
	"math"
	"testing"

	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
	"github.com/lumen-render/go-lumen/pkg/texture"
)

func surfacePoint() *core.SurfacePoint {
	p := &core.SurfacePoint{Normal: core.Vec3{Y: 1}, UV: core.Vec2{X: 0.5, Y: 0.5}}
	p.SetDefaultShadingFrame()
	return p
}

func TestDiffuseBuildsLambertian(t *testing.T) {
	m := NewDiffuse(texture.NewConstRGB(core.NewVec3(0.6, 0.3, 0.1)))
	a := arena.New(1 << 16)

	b := m.EvaluateBSDF(surfacePoint(), a)
	lobe, weight := b.SampleLobe(0.5)
	if weight != 1.0 {
		t.Errorf("single lobe weight: got %f", weight)
	}
	if b.LobeType(lobe) != core.BxDFStandard {
		t.Error("diffuse lobe should be standard")
	}

	wo := core.Vec3{X: 0.2, Y: 0.8, Z: 0.1}.Normalize()
	wi := core.Vec3{X: -0.1, Y: 0.7, Z: 0.2}.Normalize()
	f := b.Evaluate(lobe, wo, wi, 1, 1)
	expected := core.NewVec3(0.6, 0.3, 0.1).Multiply(1.0 / math.Pi)
	if !f.Equals(expected) {
		t.Errorf("diffuse f: got %v, expected %v", f, expected)
	}
}

func TestMirrorIsDelta(t *testing.T) {
	m := NewMirror(texture.NewConstRGB(core.NewVec3(0.9, 0.9, 0.9)))
	a := arena.New(1 << 16)

	b := m.EvaluateBSDF(surfacePoint(), a)
	lobe, _ := b.SampleLobe(0.5)
	if b.LobeType(lobe) != core.BxDFDelta {
		t.Error("mirror lobe should be delta")
	}
}

func TestMetalRoughnessSwitchesLobe(t *testing.T) {
	eta := core.NewVec3(0.14, 0.37, 1.44)
	k := core.NewVec3(3.98, 2.39, 1.60)
	a := arena.New(1 << 16)

	smooth := NewMetal(texture.NewConstRGB(core.NewVec3(1, 1, 1)), eta, k, texture.NewConstR(0))
	b := smooth.EvaluateBSDF(surfacePoint(), a)
	lobe, _ := b.SampleLobe(0.5)
	if b.LobeType(lobe) != core.BxDFDelta {
		t.Error("zero roughness metal should be specular")
	}

	rough := NewMetal(texture.NewConstRGB(core.NewVec3(1, 1, 1)), eta, k, texture.NewConstR(0.3))
	b = rough.EvaluateBSDF(surfacePoint(), a)
	lobe, _ = b.SampleLobe(0.5)
	if b.LobeType(lobe) != core.BxDFStandard {
		t.Error("rough metal should be a standard lobe")
	}
}

func TestGlassSamplesBothSides(t *testing.T) {
	m := NewGlass(texture.NewConstRGB(core.NewVec3(1, 1, 1)),
		texture.NewConstRGB(core.NewVec3(1, 1, 1)), texture.NewConstR(0))
	a := arena.New(1 << 16)

	b := m.EvaluateBSDF(surfacePoint(), a)
	lobe, _ := b.SampleLobe(0.5)

	wo := core.Vec3{X: 0.3, Y: 0.8, Z: 0}.Normalize()
	random := core.NewPCG32(21, 0)
	reflected, transmitted := false, false
	for i := 0; i < 200; i++ {
		s, ok := b.SampleWi(lobe, wo, 1.0, 1.5, random.Float64(), core.Vec2{})
		if !ok {
			continue
		}
		if s.Direction.Y > 0 {
			reflected = true
		} else {
			transmitted = true
		}
	}
	if !reflected || !transmitted {
		t.Errorf("glass should both reflect and refract: r=%v t=%v", reflected, transmitted)
	}
}

func TestStandardMetalnessBlend(t *testing.T) {
	a := arena.New(1 << 16)

	// Pure dielectric: two lobes (diffuse + coat)
	dielectric := NewStandard(texture.NewConstRGB(core.NewVec3(0.5, 0.5, 0.5)),
		texture.NewConstR(0), texture.NewConstR(0.2), texture.NewConstR(1.5))
	b := dielectric.EvaluateBSDF(surfacePoint(), a)
	lobeA, weightA := b.SampleLobe(0.2)
	lobeB, weightB := b.SampleLobe(0.8)
	if lobeA == lobeB {
		t.Error("dielectric standard material should carry two lobes")
	}
	if math.Abs(weightA+weightB-1.0) > 1e-12 {
		t.Errorf("lobe weights should sum to 1: %f + %f", weightA, weightB)
	}

	// Pure metal: one lobe
	metal := NewStandard(texture.NewConstRGB(core.NewVec3(0.9, 0.6, 0.2)),
		texture.NewConstR(1), texture.NewConstR(0.2), texture.NewConstR(1.5))
	b = metal.EvaluateBSDF(surfacePoint(), a)
	_, weight := b.SampleLobe(0.5)
	if weight != 1.0 {
		t.Errorf("metallic standard material should have one lobe: weight %f", weight)
	}
}

func TestNormalMapPerturbsShading(t *testing.T) {
	// A normal map pushing the normal toward +X changes the response
	flat := NewDiffuse(texture.NewConstRGB(core.NewVec3(0.5, 0.5, 0.5)))

	bumpImage, err := texture.NewImageBytes(1, 1, texture.FormatRGB8, []uint8{200, 128, 255})
	if err != nil {
		t.Fatalf("NewImageBytes: %v", err)
	}
	bumped := NewDiffuse(texture.NewConstRGB(core.NewVec3(0.5, 0.5, 0.5)))
	bumped.NormalMap = texture.NewImageRG(bumpImage, texture.FilterNearest)

	a := arena.New(1 << 16)
	p := surfacePoint()

	wo := core.Vec3{X: 0.2, Y: 0.9, Z: 0}.Normalize()
	wi := core.Vec3{X: -0.4, Y: 0.6, Z: 0.1}.Normalize()

	bFlat := flat.EvaluateBSDF(p, a)
	bBumped := bumped.EvaluateBSDF(p, a)

	fFlat := bFlat.Evaluate(0, wo, wi, 1, 1)
	fBumped := bBumped.Evaluate(0, wo, wi, 1, 1)
	if fFlat.Equals(fBumped) {
		t.Error("normal map had no effect on evaluation")
	}
}
