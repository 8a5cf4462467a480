package renderer

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/lumen-render/go-lumen/pkg/accel"
	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
	"github.com/lumen-render/go-lumen/pkg/geometry"
	"github.com/lumen-render/go-lumen/pkg/integrator"
	"github.com/lumen-render/go-lumen/pkg/lights"
	"github.com/lumen-render/go-lumen/pkg/material"
	"github.com/lumen-render/go-lumen/pkg/scene"
	"github.com/lumen-render/go-lumen/pkg/texture"
)

func simpleScene(t *testing.T) core.Scene {
	t.Helper()

	sphere := geometry.NewSphere(core.IdentityTransform(), 1.0)
	gray := material.NewDiffuse(texture.NewConstRGB(core.NewVec3(0.5, 0.5, 0.5)))
	env := lights.NewInfinityAreaLight(core.IdentityTransform(),
		texture.NewConstRGB(core.NewVec3(1, 1, 1)), 1.0, 4, 2)

	s, err := scene.New(
		[]scene.Entity{{Surface: sphere, Material: gray}},
		env,
		accel.NewBVH,
		func(ls []core.Light) core.LightDistribution { return lights.NewUniformDistribution(ls) },
		func(ls []core.Light) core.SpatialLightDistribution { return lights.NewUniformDistribution(ls) },
	)
	if err != nil {
		t.Fatalf("scene.New: %v", err)
	}
	return s
}

func renderOnce(t *testing.T, workers int, seed uint64) *Renderer {
	t.Helper()

	s := simpleScene(t)
	r := New(
		Options{Width: 48, Height: 40, WorkerCount: workers, Seed: seed, Sampler: SamplerStratified, Jitter: true},
		core.NewTransform(core.Vec3{Z: -5}, core.Vec3{}), 0.6,
		integrator.NewForwardMIS(4, true),
		s,
		nil,
	)
	r.Run(4)
	return r
}

func TestRendererDeterminism(t *testing.T) {
	// Identical configurations yield bit-identical output, regardless of
	// worker count
	a := renderOnce(t, 1, 42)
	b := renderOnce(t, 4, 42)

	for y := 0; y < 40; y++ {
		for x := 0; x < 48; x++ {
			pa := a.Pixel(x, y)
			pb := b.Pixel(x, y)
			if pa != pb {
				t.Fatalf("pixel (%d, %d) differs across runs: %v vs %v", x, y, pa, pb)
			}
		}
	}
}

func TestRendererSeedChangesOutput(t *testing.T) {
	a := renderOnce(t, 2, 42)
	b := renderOnce(t, 2, 43)

	same := 0
	total := 0
	for y := 0; y < 40; y++ {
		for x := 0; x < 48; x++ {
			total++
			if a.Pixel(x, y) == b.Pixel(x, y) {
				same++
			}
		}
	}
	// Only pixels with zero radiance can coincide
	if same == total {
		t.Error("different seeds produced identical images")
	}
}

func TestRendererSampleCounts(t *testing.T) {
	r := renderOnce(t, 2, 7)

	var total uint64
	for _, target := range r.renderTargets {
		total += target.SampleCount()
	}
	// 4 samples rounded up to the stratified grid (4 is already square)
	expected := uint64(48 * 40 * 4)
	if total != expected {
		t.Errorf("total sample count: got %d, expected %d", total, expected)
	}
}

func TestRendererCoversAllPixels(t *testing.T) {
	// Every pixel sees either the sphere (~0.5) or the environment (1);
	// nothing may stay black
	r := renderOnce(t, 3, 5)
	for y := 0; y < 40; y++ {
		for x := 0; x < 48; x++ {
			if r.Pixel(x, y).Luminance() <= 0 {
				t.Fatalf("pixel (%d, %d) received no samples", x, y)
			}
		}
	}
}

func TestExportLayout(t *testing.T) {
	r := renderOnce(t, 1, 11)

	var buf bytes.Buffer
	if err := r.Export(&buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	expectedSize := 48 * 40 * 3 * 4
	if buf.Len() != expectedSize {
		t.Fatalf("raw size: got %d, expected %d", buf.Len(), expectedSize)
	}

	// Rows are emitted bottom-to-top: the first record is pixel (0, H-1)
	var first [3]float32
	if err := binary.Read(bytes.NewReader(buf.Bytes()), binary.LittleEndian, &first); err != nil {
		t.Fatalf("reading first record: %v", err)
	}
	expected := r.Pixel(0, 39)
	if math.Abs(float64(first[0])-expected.X) > 1e-6 {
		t.Errorf("first record: got %f, expected %f", first[0], expected.X)
	}
}

func TestCameraFilmMapping(t *testing.T) {
	target := NewRenderTarget(64, 32)
	camera := NewPerspectiveCamera(target, core.IdentityTransform(), math.Pi/3)
	a := arena.New(1 << 16)

	// A film sample at the center of pixel (10, 20) must accumulate into
	// that pixel
	u := core.Vec2{X: (10.0 + 0.5) / 64.0, Y: (20.0 + 0.5) / 32.0}
	s, ok := camera.SamplePAndWi(core.Vec2{}, u, a)
	if !ok {
		t.Fatal("camera sample failed")
	}

	camera.AddSample(s.P, core.NewVec3(1, 2, 3))
	if got := target.PixelSum(10, 20); !got.Equals(core.NewVec3(1, 2, 3)) {
		t.Errorf("sample landed wrong: pixel (10,20) = %v", got)
	}
}

func TestCameraRoundTripThroughScene(t *testing.T) {
	target := NewRenderTarget(32, 32)
	camera := NewPerspectiveCamera(target, core.NewTransform(core.Vec3{Z: -5}, core.Vec3{}), 0.6)
	a := arena.New(1 << 16)

	// Sample a direction, then ask the camera for the sensor point that
	// views a point along it; both must agree on the film position
	u := core.Vec2{X: 0.3, Y: 0.7}
	s, ok := camera.SamplePAndWi(core.Vec2{}, u, a)
	if !ok {
		t.Fatal("camera sample failed")
	}

	world := s.P.Position.Add(s.Wi.Multiply(7.0))
	view := &core.SurfacePoint{Position: world}
	back, ok := camera.SamplePFromPoint(view, core.Vec2{}, a)
	if !ok {
		t.Fatal("SamplePFromPoint failed")
	}

	d1 := s.P.MeasurementData.(*cameraSampleData).samplePlanePosition
	d2 := back.P.MeasurementData.(*cameraSampleData).samplePlanePosition
	if math.Abs(d1.X-d2.X) > 1e-9 || math.Abs(d1.Y-d2.Y) > 1e-9 {
		t.Errorf("film positions differ: %v vs %v", d1, d2)
	}

	// The direction pdf is positive inside the frustum and zero outside
	if camera.PdfWi(s.P, s.Wi) <= 0 {
		t.Error("PdfWi zero for an in-frustum direction")
	}
	if camera.PdfWi(s.P, core.Vec3{Z: -1}) != 0 {
		t.Error("PdfWi nonzero behind the camera")
	}
}

func TestCameraImportanceConsistency(t *testing.T) {
	// Integrating W over film directions with the sampler's own pdf yields
	// the pixel-count-independent constant: E[Wo / pdfWi * cos] = pixels
	target := NewRenderTarget(16, 16)
	camera := NewPerspectiveCamera(target, core.IdentityTransform(), 0.9)
	a := arena.New(1 << 20)

	random := core.NewPCG32(3, 0)
	sum := 0.0
	const n = 50000
	for i := 0; i < n; i++ {
		u := core.Vec2{X: random.Float64(), Y: random.Float64()}
		s, ok := camera.SamplePAndWi(core.Vec2{}, u, a)
		if !ok {
			t.Fatal("camera sample failed")
		}
		cos := s.Wi.Z
		sum += s.Wo.X * cos / s.PdfWi / float64(16*16)
		a.Clear()
	}

	// W = 1/(pixelArea * cos^4), pdfWi = 1/(planeArea * cos^3):
	// W cos / (pixels * pdfWi) = 1 for every sample
	estimate := sum / n
	if math.Abs(estimate-1.0) > 1e-9 {
		t.Errorf("importance consistency: got %f, expected 1", estimate)
	}
}
