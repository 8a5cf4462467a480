// Package scene assembles entities into the query interface the integrators
// consume: accelerated raycasts that resolve hits to materials and lights,
// visibility tests, and the light-selection distributions.
package scene

import (
	"math"

	"github.com/pkg/errors"

	"github.com/lumen-render/go-lumen/pkg/accel"
	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
)

// raycastEpsilon offsets ray origins off the starting surface
const raycastEpsilon = 1e-6

var infinity = math.Inf(1)

// Entity ties a surface to its material, optional area light, optional
// interior medium and the nested-dielectric parameters. A zero IOR marks a
// non-refractive surface.
type Entity struct {
	Surface  core.Surface
	Material core.Material
	Light    core.StandardLight
	Medium   core.Medium

	IOR      float64
	Priority int
}

// LightDistributionFactory builds a light-selection distribution
type LightDistributionFactory func(lights []core.Light) core.LightDistribution

// SpatialLightDistributionFactory builds a position-dependent distribution
type SpatialLightDistributionFactory func(lights []core.Light) core.SpatialLightDistribution

// EntityScene is the concrete scene over an entity list and an acceleration
// structure. Everything is immutable after construction and shared across
// workers.
type EntityScene struct {
	entities      []Entity
	infinityLight core.InfinityAreaLight

	structure                accel.Structure
	lightDistribution        core.LightDistribution
	spatialLightDistribution core.SpatialLightDistribution
}

// New builds a scene: entity-primitive pairs go into the acceleration
// structure, area lights are collected and prepared for sampling, and the
// environment light learns the scene bounds
func New(
	entities []Entity,
	infinityLight core.InfinityAreaLight,
	structureFactory accel.Factory,
	lightFactory LightDistributionFactory,
	spatialLightFactory SpatialLightDistributionFactory,
) (*EntityScene, error) {
	s := &EntityScene{entities: entities, infinityLight: infinityLight}

	totalPrimitives := 0
	for i := range entities {
		if entities[i].Surface == nil {
			return nil, errors.Errorf("entity %d has no surface", i)
		}
		totalPrimitives += int(entities[i].Surface.PrimitiveCount())
	}

	var sceneLights []core.Light
	primitives := make([]accel.Primitive, 0, totalPrimitives)
	for i := range entities {
		entity := &entities[i]
		for primitive := uint32(0); primitive < entity.Surface.PrimitiveCount(); primitive++ {
			primitives = append(primitives, accel.Primitive{
				Surface: entity.Surface,
				Index:   primitive,
				Entity:  i,
			})
		}
		if entity.Light != nil {
			entity.Surface.PrepareForSampling()
			sceneLights = append(sceneLights, entity.Light)
		}
	}

	s.structure = structureFactory(primitives)

	if infinityLight != nil {
		sceneLights = append(sceneLights, infinityLight)
		infinityLight.SetSceneBounds(s.structure.Bounds())
	}

	s.lightDistribution = lightFactory(sceneLights)
	s.spatialLightDistribution = spatialLightFactory(sceneLights)

	return s, nil
}

// Bounds implements core.Scene
func (s *EntityScene) Bounds() core.Bounds3 {
	return s.structure.Bounds()
}

// offsetOrigin nudges a ray origin off the surface along the geometric
// normal, toward the travel direction's side
func offsetOrigin(p *core.SurfacePoint, w core.Vec3) core.Vec3 {
	if p.Normal.Dot(w) > 0 {
		return p.Position.Add(p.Normal.Multiply(raycastEpsilon))
	}
	return p.Position.Subtract(p.Normal.Multiply(raycastEpsilon))
}

// Raycast implements core.Scene: trace from p along w and resolve the hit's
// entity into the surface point's back-pointers
func (s *EntityScene) Raycast(p *core.SurfacePoint, w core.Vec3, a *arena.Arena) (*core.SurfacePoint, bool) {
	ray := core.NewRay(offsetOrigin(p, w), w)

	hit, primitive, ok := s.structure.RaycastSurfacePoint(ray, infinity, a)
	if !ok {
		return nil, false
	}

	entity := &s.entities[primitive.Entity]
	hit.Material = entity.Material
	hit.Light = entity.Light
	hit.Medium = entity.Medium
	hit.IOR = entity.IOR
	hit.Priority = entity.Priority
	return hit, true
}

// Visibility implements core.Scene: unoccluded segment between two surface
// points, with both endpoints offset off their surfaces
func (s *EntityScene) Visibility(p0, p1 *core.SurfacePoint) bool {
	to1 := p1.Position.Subtract(p0.Position)
	origin0 := offsetOrigin(p0, to1)
	origin1 := offsetOrigin(p1, to1.Negate())

	segment := origin1.Subtract(origin0)
	length := segment.Length()
	if length == 0 {
		return true
	}
	ray := core.NewRay(origin0, segment.Divide(length))
	return !s.structure.Raycast(ray, length)
}

// VisibilityDir implements core.Scene: unoccluded ray from p toward w
func (s *EntityScene) VisibilityDir(p *core.SurfacePoint, w core.Vec3) bool {
	ray := core.NewRay(offsetOrigin(p, w), w)
	return !s.structure.Raycast(ray, infinity)
}

// InfinityAreaLight implements core.Scene
func (s *EntityScene) InfinityAreaLight() core.InfinityAreaLight {
	return s.infinityLight
}

// LightDistribution implements core.Scene
func (s *EntityScene) LightDistribution() core.LightDistribution {
	return s.lightDistribution
}

// SpatialLightDistribution implements core.Scene
func (s *EntityScene) SpatialLightDistribution() core.SpatialLightDistribution {
	return s.spatialLightDistribution
}
