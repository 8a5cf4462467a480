package scene

import (
	"math"
	"testing"

	"github.com/lumen-render/go-lumen/pkg/accel"
	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
	"github.com/lumen-render/go-lumen/pkg/geometry"
	"github.com/lumen-render/go-lumen/pkg/lights"
	"github.com/lumen-render/go-lumen/pkg/material"
	"github.com/lumen-render/go-lumen/pkg/texture"
)

func uniformFactory(ls []core.Light) core.LightDistribution {
	return lights.NewUniformDistribution(ls)
}

func uniformSpatialFactory(ls []core.Light) core.SpatialLightDistribution {
	return lights.NewUniformDistribution(ls)
}

func testScene(t *testing.T, entities []Entity, env core.InfinityAreaLight) *EntityScene {
	t.Helper()
	s, err := New(entities, env, accel.NewBVH, uniformFactory, uniformSpatialFactory)
	if err != nil {
		t.Fatalf("scene.New: %v", err)
	}
	return s
}

func diffuse() core.Material {
	return material.NewDiffuse(texture.NewConstRGB(core.NewVec3(0.5, 0.5, 0.5)))
}

func TestSceneRaycastResolvesEntity(t *testing.T) {
	sphere := geometry.NewSphere(core.NewTransform(core.Vec3{Z: 5}, core.Vec3{}), 1)
	mat := diffuse()
	medium := core.NewHomogeneous(core.NewVec3(1, 1, 1), 0.5)

	s := testScene(t, []Entity{{
		Surface:  sphere,
		Material: mat,
		Medium:   medium,
		IOR:      1.5,
		Priority: 2,
	}}, nil)

	a := arena.New(1 << 16)
	start := &core.SurfacePoint{Position: core.Vec3{}, Normal: core.Vec3{Z: -1}}

	hit, ok := s.Raycast(start, core.Vec3{Z: 1}, a)
	if !ok {
		t.Fatal("expected hit")
	}
	if hit.Material != mat {
		t.Error("material back-pointer not resolved")
	}
	if hit.Medium != core.Medium(medium) {
		t.Error("medium back-pointer not resolved")
	}
	if hit.IOR != 1.5 || hit.Priority != 2 {
		t.Errorf("nested-dielectric fields: ior=%f priority=%d", hit.IOR, hit.Priority)
	}
	if math.Abs(hit.Position.Z-4) > 1e-6 {
		t.Errorf("hit position: %v", hit.Position)
	}
}

func TestSceneRaycastMiss(t *testing.T) {
	sphere := geometry.NewSphere(core.NewTransform(core.Vec3{Z: 5}, core.Vec3{}), 1)
	s := testScene(t, []Entity{{Surface: sphere, Material: diffuse()}}, nil)

	a := arena.New(1 << 16)
	start := &core.SurfacePoint{Position: core.Vec3{}, Normal: core.Vec3{Z: -1}}
	if _, ok := s.Raycast(start, core.Vec3{Z: -1}, a); ok {
		t.Error("expected escape")
	}
}

func TestSceneSelfIntersectionAvoided(t *testing.T) {
	// A ray leaving a surface must not hit the surface it starts on
	plane := geometry.NewPlane(core.IdentityTransform(), core.Vec2{X: 10, Y: 10})
	s := testScene(t, []Entity{{Surface: plane, Material: diffuse()}}, nil)

	a := arena.New(1 << 16)
	start := &core.SurfacePoint{Position: core.Vec3{}, Normal: core.Vec3{Y: 1}}

	// Grazing exit directions stay clear of the starting plane
	if _, ok := s.Raycast(start, core.Vec3{X: 1, Y: 0.001, Z: 0}.Normalize(), a); ok {
		t.Error("ray re-intersected its starting surface")
	}
}

func TestSceneVisibility(t *testing.T) {
	blocker := geometry.NewSphere(core.NewTransform(core.Vec3{Z: 5}, core.Vec3{}), 1)
	s := testScene(t, []Entity{{Surface: blocker, Material: diffuse()}}, nil)

	p0 := &core.SurfacePoint{Position: core.Vec3{}, Normal: core.Vec3{Z: 1}}
	p1 := &core.SurfacePoint{Position: core.Vec3{Z: 10}, Normal: core.Vec3{Z: -1}}
	if s.Visibility(p0, p1) {
		t.Error("segment through the sphere should be occluded")
	}

	p2 := &core.SurfacePoint{Position: core.Vec3{X: 5}, Normal: core.Vec3{Z: 1}}
	p3 := &core.SurfacePoint{Position: core.Vec3{X: 5, Z: 10}, Normal: core.Vec3{Z: -1}}
	if !s.Visibility(p2, p3) {
		t.Error("clear segment reported occluded")
	}

	if s.VisibilityDir(p0, core.Vec3{Z: 1}) {
		t.Error("direction through the sphere should be occluded")
	}
	if !s.VisibilityDir(p0, core.Vec3{Z: -1}) {
		t.Error("clear direction reported occluded")
	}
}

func TestSceneLightCollection(t *testing.T) {
	emitter := geometry.NewPlane(core.NewTransform(core.Vec3{Y: 5}, core.Vec3{}), core.Vec2{X: 1, Y: 1})
	light := lights.NewDiffuseAreaLight(emitter, core.NewVec3(1, 1, 1), 10)
	env := lights.NewInfinityAreaLight(core.IdentityTransform(), texture.NewConstRGB(core.NewVec3(1, 1, 1)), 1, 4, 2)

	s := testScene(t, []Entity{
		{Surface: emitter, Material: diffuse(), Light: light},
		{Surface: geometry.NewSphere(core.IdentityTransform(), 1), Material: diffuse()},
	}, env)

	// Both the area light and the environment are selectable
	if got := s.LightDistribution().Pdf(light); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("light pdf: got %f, expected 0.5", got)
	}
	if s.InfinityAreaLight() != core.InfinityAreaLight(env) {
		t.Error("environment light not exposed")
	}
	if s.SpatialLightDistribution().Get(&core.SurfacePoint{}) == nil {
		t.Error("spatial light distribution empty")
	}

	// Raycast onto the emitter, from a start above the sphere, resolves the
	// light back-pointer
	a := arena.New(1 << 16)
	start := &core.SurfacePoint{Position: core.Vec3{Y: 2}, Normal: core.Vec3{Y: 1}}
	hit, ok := s.Raycast(start, core.Vec3{Y: 1}, a)
	if !ok {
		t.Fatal("expected emitter hit")
	}
	if hit.Light != core.StandardLight(light) {
		t.Error("light back-pointer not resolved")
	}
}

func TestSceneEntityValidation(t *testing.T) {
	if _, err := New([]Entity{{}}, nil, accel.NewBVH, uniformFactory, uniformSpatialFactory); err == nil {
		t.Error("expected error for entity without surface")
	}
}
