package core

// SurfacePoint is the canonical message between subsystems: a point on a
// surface (or on a sensor/light) together with its shading frame and
// non-owning references back into the scene. Points created during ray
// traversal live in the per-sample arena and die at arena reset.
type SurfacePoint struct {
	Position Vec3
	Normal   Vec3
	UV       Vec2

	ShadingTangent   Vec3
	ShadingNormal    Vec3
	ShadingBitangent Vec3

	Surface     Surface
	Material    Material
	Light       StandardLight
	Measurement Measurement
	Medium      Medium

	// MeasurementData is an opaque payload the measurement uses to recover
	// a pixel location from a traced point
	MeasurementData any

	// Nested-dielectric fields; zero when the point is not on a refractive
	// interface
	Priority int
	IOR      float64
}

// ShadingFrame returns the shading frame at the point
func (p *SurfacePoint) ShadingFrame() Frame {
	return NewFrameFromBasis(p.ShadingTangent, p.ShadingNormal, p.ShadingBitangent)
}

// SetDefaultShadingFrame sets the shading frame from the geometric normal
func (p *SurfacePoint) SetDefaultShadingFrame() {
	f := NewFrame(p.Normal)
	p.ShadingTangent = f.Tangent
	p.ShadingNormal = f.Normal
	p.ShadingBitangent = f.Bitangent
}
