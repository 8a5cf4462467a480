package geometry

import (
	"math"
	"testing"

	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
)

func TestSphereRaycast(t *testing.T) {
	s := NewSphere(core.NewTransform(core.Vec3{Z: 5}, core.Vec3{}), 1.0)

	tests := []struct {
		name  string
		ray   core.Ray
		tMax  float64
		hit   bool
		tWant float64
	}{
		{"head on", core.NewRay(core.Vec3{}, core.Vec3{Z: 1}), math.Inf(1), true, 4.0},
		{"miss", core.NewRay(core.Vec3{X: 3}, core.Vec3{Z: 1}), math.Inf(1), false, 0},
		{"behind", core.NewRay(core.Vec3{}, core.Vec3{Z: -1}), math.Inf(1), false, 0},
		{"tMax cut", core.NewRay(core.Vec3{}, core.Vec3{Z: 1}), 3.0, false, 0},
		{"from inside", core.NewRay(core.Vec3{Z: 5}, core.Vec3{Z: 1}), math.Inf(1), true, 1.0},
	}

	for _, tt := range tests {
		tHit, ok := s.Raycast(0, tt.ray, tt.tMax)
		if ok != tt.hit {
			t.Errorf("%s: hit=%v, expected %v", tt.name, ok, tt.hit)
			continue
		}
		if ok && math.Abs(tHit-tt.tWant) > 1e-9 {
			t.Errorf("%s: t=%f, expected %f", tt.name, tHit, tt.tWant)
		}
	}
}

func TestSphereSurfacePoint(t *testing.T) {
	s := NewSphere(core.IdentityTransform(), 2.0)
	a := arena.New(1 << 16)

	tHit, p, ok := s.RaycastSurfacePoint(0, core.NewRay(core.Vec3{X: -5}, core.Vec3{X: 1}), math.Inf(1), a)
	if !ok {
		t.Fatal("expected hit")
	}
	if math.Abs(tHit-3.0) > 1e-9 {
		t.Errorf("t: got %f, expected 3", tHit)
	}
	if !p.Position.Equals(core.Vec3{X: -2}) {
		t.Errorf("position: got %v, expected {-2, 0, 0}", p.Position)
	}
	if !p.Normal.Equals(core.Vec3{X: -1}) {
		t.Errorf("normal: got %v, expected {-1, 0, 0}", p.Normal)
	}
	if p.Surface != s {
		t.Error("surface back-pointer not set")
	}
}

func TestSphereAreaAndSampling(t *testing.T) {
	s := NewSphere(core.IdentityTransform(), 3.0)
	if math.Abs(s.Area()-4.0*math.Pi*9.0) > 1e-9 {
		t.Errorf("area: got %f", s.Area())
	}

	a := arena.New(1 << 16)
	random := core.NewPCG32(1, 0)
	for i := 0; i < 100; i++ {
		p, pdf, ok := s.SampleP(random.Float64(), core.Vec2{X: random.Float64(), Y: random.Float64()}, a)
		if !ok {
			t.Fatal("sphere sample failed")
		}
		if math.Abs(p.Position.Length()-3.0) > 1e-9 {
			t.Fatalf("sampled point off the sphere: %v", p.Position)
		}
		if math.Abs(pdf-1.0/s.Area()) > 1e-15 {
			t.Fatalf("pdf: got %g, expected %g", pdf, 1.0/s.Area())
		}
		if s.PdfP(p) != pdf {
			t.Fatal("PdfP disagrees with SampleP")
		}
	}
}

func TestPlaneRaycast(t *testing.T) {
	// 2x4 rectangle at the origin facing +Y
	pl := NewPlane(core.IdentityTransform(), core.Vec2{X: 2, Y: 4})

	tHit, ok := pl.Raycast(0, core.NewRay(core.Vec3{Y: 5}, core.Vec3{Y: -1}), math.Inf(1))
	if !ok || math.Abs(tHit-5.0) > 1e-9 {
		t.Errorf("center hit: ok=%v t=%f", ok, tHit)
	}

	// Outside the half-size misses
	if _, ok := pl.Raycast(0, core.NewRay(core.Vec3{X: 1.5, Y: 5}, core.Vec3{Y: -1}), math.Inf(1)); ok {
		t.Error("hit outside half-width")
	}
	if _, ok := pl.Raycast(0, core.NewRay(core.Vec3{Z: 1.5, Y: 5}, core.Vec3{Y: -1}), math.Inf(1)); !ok {
		t.Error("miss inside half-depth")
	}

	// Parallel ray misses
	if _, ok := pl.Raycast(0, core.NewRay(core.Vec3{Y: 5}, core.Vec3{X: 1}), math.Inf(1)); ok {
		t.Error("parallel ray should miss")
	}
}

func TestPlaneUV(t *testing.T) {
	pl := NewPlane(core.IdentityTransform(), core.Vec2{X: 2, Y: 2})
	a := arena.New(1 << 16)

	_, p, ok := pl.RaycastSurfacePoint(0, core.NewRay(core.Vec3{X: 0.5, Y: 1, Z: -0.5}, core.Vec3{Y: -1}), math.Inf(1), a)
	if !ok {
		t.Fatal("expected hit")
	}
	if math.Abs(p.UV.X-0.75) > 1e-9 || math.Abs(p.UV.Y-0.25) > 1e-9 {
		t.Errorf("uv: got %v, expected {0.75, 0.25}", p.UV)
	}
}

func newQuadMesh(t *testing.T) *Mesh {
	t.Helper()
	// Unit quad in the xz plane at y=0, two triangles
	mesh, err := NewMesh(
		[]core.Vec3f{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 1}, {X: 0, Y: 0, Z: 1}},
		[]core.Vec3f{{Y: 1}, {Y: 1}, {Y: 1}, {Y: 1}},
		[]core.Vec2f{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}},
		[]uint32{0, 2, 1, 0, 3, 2},
	)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	return mesh
}

func TestMeshValidation(t *testing.T) {
	positions := []core.Vec3f{{X: 0}, {X: 1}, {X: 2}}

	if _, err := NewMesh(nil, nil, nil, []uint32{0, 1, 2}); err == nil {
		t.Error("expected error for empty positions")
	}
	if _, err := NewMesh(positions, []core.Vec3f{{}}, nil, []uint32{0, 1, 2}); err == nil {
		t.Error("expected error for normal count mismatch")
	}
	if _, err := NewMesh(positions, nil, nil, []uint32{0, 1}); err == nil {
		t.Error("expected error for non-triple indices")
	}
	if _, err := NewMesh(positions, nil, nil, []uint32{0, 1, 7}); err == nil {
		t.Error("expected error for out-of-range index")
	}
	if _, err := NewMesh(positions, nil, nil, []uint32{0, 1, 2}); err != nil {
		t.Errorf("valid mesh rejected: %v", err)
	}
}

func TestTriangleMeshRaycast(t *testing.T) {
	tm := NewTriangleMesh(newQuadMesh(t), core.IdentityTransform())

	if tm.PrimitiveCount() != 2 {
		t.Fatalf("primitive count: got %d, expected 2", tm.PrimitiveCount())
	}
	if math.Abs(tm.Area()-1.0) > 1e-9 {
		t.Errorf("area: got %f, expected 1", tm.Area())
	}

	// A ray down onto the quad hits exactly one of the two triangles
	ray := core.NewRay(core.Vec3{X: 0.25, Y: 1, Z: 0.66}, core.Vec3{Y: -1})
	hit0, ok0 := tm.Raycast(0, ray, math.Inf(1))
	hit1, ok1 := tm.Raycast(1, ray, math.Inf(1))
	if ok0 == ok1 {
		t.Fatalf("expected exactly one triangle hit: %v %v", ok0, ok1)
	}
	tHit := hit0
	if ok1 {
		tHit = hit1
	}
	if math.Abs(tHit-1.0) > 1e-9 {
		t.Errorf("t: got %f, expected 1", tHit)
	}
}

func TestTriangleMeshSurfacePoint(t *testing.T) {
	tm := NewTriangleMesh(newQuadMesh(t), core.IdentityTransform())
	a := arena.New(1 << 16)

	ray := core.NewRay(core.Vec3{X: 0.75, Y: 1, Z: 0.25}, core.Vec3{Y: -1})
	for primitive := uint32(0); primitive < 2; primitive++ {
		if _, p, ok := tm.RaycastSurfacePoint(primitive, ray, math.Inf(1), a); ok {
			if math.Abs(math.Abs(p.Normal.Y)-1.0) > 1e-9 {
				t.Errorf("normal: got %v, expected +/-Y", p.Normal)
			}
			// UVs interpolate the corner values: uv tracks (x, z) here
			if math.Abs(p.UV.X-0.75) > 1e-9 || math.Abs(p.UV.Y-0.25) > 1e-9 {
				t.Errorf("uv: got %v, expected {0.75, 0.25}", p.UV)
			}
			// Shading frame is orthonormal
			dot := p.ShadingTangent.Dot(p.ShadingNormal)
			if math.Abs(dot) > 1e-9 {
				t.Errorf("tangent not orthogonal to shading normal: %f", dot)
			}
			return
		}
	}
	t.Fatal("no triangle hit")
}

func TestTriangleMeshWatertightSharedEdge(t *testing.T) {
	tm := NewTriangleMesh(newQuadMesh(t), core.IdentityTransform())

	// Rays crossing the shared diagonal must hit one triangle or the other,
	// never neither
	random := core.NewPCG32(31, 0)
	for i := 0; i < 2000; i++ {
		x := random.Float64()
		ray := core.NewRay(core.Vec3{X: x, Y: 1, Z: x}, core.Vec3{Y: -1})
		_, ok0 := tm.Raycast(0, ray, math.Inf(1))
		_, ok1 := tm.Raycast(1, ray, math.Inf(1))
		if !ok0 && !ok1 {
			t.Fatalf("watertightness violated on the diagonal at x=%f", x)
		}
	}
}

func TestTriangleMeshSampling(t *testing.T) {
	tm := NewTriangleMesh(newQuadMesh(t), core.IdentityTransform())
	tm.PrepareForSampling()

	a := arena.New(1 << 20)
	random := core.NewPCG32(31, 1)
	for i := 0; i < 1000; i++ {
		p, pdf, ok := tm.SampleP(random.Float64(), core.Vec2{X: random.Float64(), Y: random.Float64()}, a)
		if !ok {
			t.Fatal("mesh sample failed")
		}
		if p.Position.X < -1e-9 || p.Position.X > 1+1e-9 ||
			p.Position.Z < -1e-9 || p.Position.Z > 1+1e-9 ||
			math.Abs(p.Position.Y) > 1e-9 {
			t.Fatalf("sampled point off the quad: %v", p.Position)
		}
		if math.Abs(pdf-1.0) > 1e-9 {
			t.Fatalf("pdf: got %f, expected 1 (unit area)", pdf)
		}
	}
}

func TestTriangleMeshTransform(t *testing.T) {
	transform := core.NewTransformTRS(core.Vec3{X: 10}, core.Vec3{}, core.Vec3{X: 2, Y: 2, Z: 2})
	tm := NewTriangleMesh(newQuadMesh(t), transform)

	// Uniform scale by 2 quadruples the area
	if math.Abs(tm.Area()-4.0) > 1e-9 {
		t.Errorf("scaled area: got %f, expected 4", tm.Area())
	}

	b := tm.Bounds()
	if math.Abs(b.Min.X-10) > 1e-9 || math.Abs(b.Max.X-12) > 1e-9 {
		t.Errorf("transformed bounds: got %v", b)
	}
}
