// Package accel provides ray-scene acceleration structures over
// entity-primitive pairs.
package accel

import (
	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
)

// Primitive addresses one primitive of one entity's surface. Entity is an
// opaque tag the scene uses to recover the owning entity from a hit.
type Primitive struct {
	Surface core.Surface
	Index   uint32
	Entity  int
}

// Structure is a ray-query index over a fixed primitive set
type Structure interface {
	Bounds() core.Bounds3

	// RaycastSurfacePoint returns the nearest hit as a surface point in the
	// sample arena together with the primitive that produced it
	RaycastSurfacePoint(ray core.Ray, tMax float64, a *arena.Arena) (*core.SurfacePoint, Primitive, bool)

	// Raycast is the occlusion query: any hit within tMax
	Raycast(ray core.Ray, tMax float64) bool
}

// Factory builds a structure over a primitive set
type Factory func(primitives []Primitive) Structure

// BruteForce tests every primitive; the reference implementation the BVH is
// validated against
type BruteForce struct {
	primitives []Primitive
	bounds     core.Bounds3
}

// NewBruteForce creates a brute-force structure
func NewBruteForce(primitives []Primitive) Structure {
	b := &BruteForce{primitives: primitives, bounds: core.EmptyBounds3()}
	for _, p := range primitives {
		b.bounds = b.bounds.Union(p.Surface.PrimitiveBounds(p.Index))
	}
	return b
}

// Bounds implements Structure
func (b *BruteForce) Bounds() core.Bounds3 { return b.bounds }

// RaycastSurfacePoint implements Structure
func (b *BruteForce) RaycastSurfacePoint(ray core.Ray, tMax float64, a *arena.Arena) (*core.SurfacePoint, Primitive, bool) {
	var hit *core.SurfacePoint
	var hitPrimitive Primitive

	for _, primitive := range b.primitives {
		if t, p, ok := primitive.Surface.RaycastSurfacePoint(primitive.Index, ray, tMax, a); ok {
			tMax = t
			hit = p
			hitPrimitive = primitive
		}
	}
	return hit, hitPrimitive, hit != nil
}

// Raycast implements Structure
func (b *BruteForce) Raycast(ray core.Ray, tMax float64) bool {
	for _, primitive := range b.primitives {
		if _, ok := primitive.Surface.Raycast(primitive.Index, ray, tMax); ok {
			return true
		}
	}
	return false
}
