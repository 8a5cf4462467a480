package core

import "math"

// Bounds3 is an axis-aligned bounding box over doubles
type Bounds3 struct {
	Min Vec3
	Max Vec3
}

// EmptyBounds3 returns a degenerate bounds that unions as identity
func EmptyBounds3() Bounds3 {
	return Bounds3{
		Min: Vec3{math.Inf(1), math.Inf(1), math.Inf(1)},
		Max: Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	}
}

// NewBounds3 creates a bounds from min and max corners
func NewBounds3(min, max Vec3) Bounds3 {
	return Bounds3{Min: min, Max: max}
}

// NewBounds3FromPoint creates a bounds containing a single point
func NewBounds3FromPoint(p Vec3) Bounds3 {
	return Bounds3{Min: p, Max: p}
}

// Union returns a bounds containing both operands
func (b Bounds3) Union(other Bounds3) Bounds3 {
	return Bounds3{
		Min: Vec3{min(b.Min.X, other.Min.X), min(b.Min.Y, other.Min.Y), min(b.Min.Z, other.Min.Z)},
		Max: Vec3{max(b.Max.X, other.Max.X), max(b.Max.Y, other.Max.Y), max(b.Max.Z, other.Max.Z)},
	}
}

// UnionPoint returns a bounds grown to contain a point
func (b Bounds3) UnionPoint(p Vec3) Bounds3 {
	return Bounds3{
		Min: Vec3{min(b.Min.X, p.X), min(b.Min.Y, p.Y), min(b.Min.Z, p.Z)},
		Max: Vec3{max(b.Max.X, p.X), max(b.Max.Y, p.Y), max(b.Max.Z, p.Z)},
	}
}

// Centroid returns the center point of the bounds
func (b Bounds3) Centroid() Vec3 {
	return b.Min.Add(b.Max).Multiply(0.5)
}

// Diagonal returns the extent of the bounds along each axis
func (b Bounds3) Diagonal() Vec3 {
	return b.Max.Subtract(b.Min)
}

// SurfaceArea returns the surface area of the bounds
func (b Bounds3) SurfaceArea() float64 {
	d := b.Diagonal()
	if d.X < 0 || d.Y < 0 || d.Z < 0 {
		return 0
	}
	return 2.0 * (d.X*d.Y + d.Y*d.Z + d.Z*d.X)
}

// MaximumExtent returns the axis (0=X, 1=Y, 2=Z) with the largest extent
func (b Bounds3) MaximumExtent() int {
	d := b.Diagonal()
	if d.X > d.Y && d.X > d.Z {
		return 0
	}
	if d.Y > d.Z {
		return 1
	}
	return 2
}

// Corner returns one of the eight corners of the bounds (index 0..7)
func (b Bounds3) Corner(index int) Vec3 {
	c := Vec3{b.Min.X, b.Min.Y, b.Min.Z}
	if index&1 != 0 {
		c.X = b.Max.X
	}
	if index&2 != 0 {
		c.Y = b.Max.Y
	}
	if index&4 != 0 {
		c.Z = b.Max.Z
	}
	return c
}

// BoundingSphere returns the sphere enclosing the bounds: the center is the
// midpoint, the radius the distance from the center to the far corner
func (b Bounds3) BoundingSphere() (Vec3, float64) {
	center := b.Centroid()
	return center, b.Max.Subtract(center).Length()
}

// RaycastP tests whether a ray intersects the bounds within [0, tMax] using
// a precomputed reciprocal direction and per-axis direction signs
func (b Bounds3) RaycastP(ray Ray, tMax float64, invDir Vec3, dirIsNeg [3]bool) bool {
	tMinX, tMaxX := slabInterval(b.Min.X, b.Max.X, ray.Origin.X, invDir.X, dirIsNeg[0])
	tMinY, tMaxY := slabInterval(b.Min.Y, b.Max.Y, ray.Origin.Y, invDir.Y, dirIsNeg[1])
	if tMinX > tMaxY || tMinY > tMaxX {
		return false
	}
	tMin := max(tMinX, tMinY)
	tHi := min(tMaxX, tMaxY)

	tMinZ, tMaxZ := slabInterval(b.Min.Z, b.Max.Z, ray.Origin.Z, invDir.Z, dirIsNeg[2])
	if tMin > tMaxZ || tMinZ > tHi {
		return false
	}
	tMin = max(tMin, tMinZ)
	tHi = min(tHi, tMaxZ)

	return tMin < tMax && tHi > 0
}

func slabInterval(lo, hi, origin, invDir float64, neg bool) (float64, float64) {
	if neg {
		lo, hi = hi, lo
	}
	return (lo - origin) * invDir, (hi - origin) * invDir
}

// Bounds3f is the single-precision storage variant used in BVH nodes
type Bounds3f struct {
	Min Vec3f
	Max Vec3f
}

// Bounds3fFrom converts double bounds to storage bounds, rounding outward
// so the storage box always contains the double box
func Bounds3fFrom(b Bounds3) Bounds3f {
	return Bounds3f{
		Min: Vec3f{roundDown(b.Min.X), roundDown(b.Min.Y), roundDown(b.Min.Z)},
		Max: Vec3f{roundUp(b.Max.X), roundUp(b.Max.Y), roundUp(b.Max.Z)},
	}
}

func roundDown(v float64) float32 {
	f := float32(v)
	if float64(f) > v {
		f = math.Nextafter32(f, float32(math.Inf(-1)))
	}
	return f
}

func roundUp(v float64) float32 {
	f := float32(v)
	if float64(f) < v {
		f = math.Nextafter32(f, float32(math.Inf(1)))
	}
	return f
}

// Bounds3 widens storage bounds back to double precision
func (b Bounds3f) Bounds3() Bounds3 {
	return Bounds3{Min: b.Min.Vec3(), Max: b.Max.Vec3()}
}
