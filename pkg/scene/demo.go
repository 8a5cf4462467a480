package scene

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/core"
	"github.com/lumen-render/go-lumen/pkg/geometry"
	"github.com/lumen-render/go-lumen/pkg/lights"
	"github.com/lumen-render/go-lumen/pkg/material"
	"github.com/lumen-render/go-lumen/pkg/texture"
)

// Demo is an assembled demo scene plus the camera it was framed for
type Demo struct {
	Entities      []Entity
	Infinity      core.InfinityAreaLight
	CameraToWorld core.Transform
	FOV           float64
}

func constRGB(r, g, b float64) core.TextureRGB {
	return texture.NewConstRGB(core.NewVec3(r, g, b))
}

// CornellBox is the classic box: white floor, ceiling and back wall, one
// red and one green side wall, a downward-facing area light near the
// ceiling, and a glass sphere and a rough metal sphere on the floor.
func CornellBox() Demo {
	white := material.NewDiffuse(constRGB(0.73, 0.73, 0.73))
	red := material.NewDiffuse(constRGB(0.65, 0.05, 0.05))
	green := material.NewDiffuse(constRGB(0.12, 0.45, 0.15))
	glass := material.NewGlass(constRGB(1, 1, 1), constRGB(1, 1, 1), texture.NewConstR(0))
	metal := material.NewMetal(constRGB(1, 1, 1),
		core.NewVec3(0.14, 0.37, 1.44), core.NewVec3(3.98, 2.39, 1.60), texture.NewConstR(0.15))

	wall := core.Vec2{X: 5, Y: 5}
	floor := geometry.NewPlane(core.IdentityTransform(), wall)
	ceiling := geometry.NewPlane(core.NewTransform(core.Vec3{Y: 5}, core.Vec3{X: math.Pi}), wall)
	back := geometry.NewPlane(core.NewTransform(core.Vec3{Y: 2.5, Z: 2.5}, core.Vec3{X: -math.Pi / 2}), wall)
	left := geometry.NewPlane(core.NewTransform(core.Vec3{X: -2.5, Y: 2.5}, core.Vec3{Z: -math.Pi / 2}), wall)
	right := geometry.NewPlane(core.NewTransform(core.Vec3{X: 2.5, Y: 2.5}, core.Vec3{Z: math.Pi / 2}), wall)

	lightPlane := geometry.NewPlane(core.NewTransform(core.Vec3{Y: 4.99}, core.Vec3{X: math.Pi}), core.Vec2{X: 1.5, Y: 1.5})
	areaLight := lights.NewDiffuseAreaLight(lightPlane, core.NewVec3(1, 1, 1), 10)

	glassBall := geometry.NewSphere(core.NewTransform(core.Vec3{X: -1, Y: 1, Z: 0.5}, core.Vec3{}), 1)
	metalBall := geometry.NewSphere(core.NewTransform(core.Vec3{X: 1.2, Y: 0.8, Z: -0.5}, core.Vec3{}), 0.8)

	return Demo{
		Entities: []Entity{
			{Surface: floor, Material: white},
			{Surface: ceiling, Material: white},
			{Surface: back, Material: white},
			{Surface: left, Material: red},
			{Surface: right, Material: green},
			{Surface: lightPlane, Material: white, Light: areaLight},
			{Surface: glassBall, Material: glass, IOR: 1.5, Priority: 1},
			{Surface: metalBall, Material: metal},
		},
		CameraToWorld: core.NewTransform(core.Vec3{Y: 2.5, Z: -7}, core.Vec3{}),
		FOV:           40.0 * math.Pi / 180.0,
	}
}

// NestedDielectrics is a glass ball inside a water ball under a checkered
// environment; rays through the overlap cross air, water and glass in
// priority order
func NestedDielectrics() Demo {
	glass := material.NewGlass(constRGB(1, 1, 1), constRGB(1, 1, 1), texture.NewConstR(0))
	water := material.NewGlass(constRGB(1, 1, 1), constRGB(0.9, 0.95, 1), texture.NewConstR(0))
	gray := material.NewDiffuse(constRGB(0.5, 0.5, 0.5))

	waterBall := geometry.NewSphere(core.NewTransform(core.Vec3{Y: 1.6}, core.Vec3{}), 1.6)
	glassBall := geometry.NewSphere(core.NewTransform(core.Vec3{Y: 1.6}, core.Vec3{}), 0.9)
	ground := geometry.NewPlane(core.IdentityTransform(), core.Vec2{X: 50, Y: 50})

	env := lights.NewInfinityAreaLight(core.IdentityTransform(),
		texture.NewCheckerRGB(core.NewVec3(1, 1, 1), core.NewVec3(0.2, 0.3, 0.5), 8), 1.0, 32, 16)

	return Demo{
		Entities: []Entity{
			{Surface: ground, Material: gray},
			{Surface: waterBall, Material: water, IOR: 1.33, Priority: 1,
				Medium: core.NewHomogeneous(core.NewVec3(0.2, 0.1, 0.05), 0.2)},
			{Surface: glassBall, Material: glass, IOR: 1.5, Priority: 2},
		},
		Infinity:      env,
		CameraToWorld: core.NewTransform(core.Vec3{Y: 1.8, Z: -6}, core.Vec3{}),
		FOV:           35.0 * math.Pi / 180.0,
	}
}

// MaterialBall is a plastic sphere with a rough conductor base plate under
// an environment, exercising the layered lobes
func MaterialBall() Demo {
	plastic := material.NewPlastic(constRGB(0.3, 0.05, 0.05), constRGB(1, 1, 1), 1.5, texture.NewConstR(0.1))
	base := material.NewStandard(constRGB(0.9, 0.9, 0.9),
		texture.NewConstR(1), texture.NewConstR(0.3), texture.NewConstR(1.5))

	ball := geometry.NewSphere(core.NewTransform(core.Vec3{Y: 1}, core.Vec3{}), 1)
	plate := geometry.NewPlane(core.IdentityTransform(), core.Vec2{X: 20, Y: 20})

	env := lights.NewInfinityAreaLight(core.IdentityTransform(),
		constRGB(0.8, 0.85, 1.0), 1.0, 16, 8)

	return Demo{
		Entities: []Entity{
			{Surface: plate, Material: base},
			{Surface: ball, Material: plastic},
		},
		Infinity:      env,
		CameraToWorld: core.NewTransform(core.Vec3{Y: 1.4, Z: -4.5}, core.Vec3{}),
		FOV:           30.0 * math.Pi / 180.0,
	}
}
