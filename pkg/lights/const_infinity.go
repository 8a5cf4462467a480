package lights

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/core"
)

// ConstInfinityAreaLight is a uniform environment: constant radiance from
// every direction, sampled uniformly over the sphere. Useful for furnace
// setups and as the cheap fallback when no environment texture exists.
type ConstInfinityAreaLight struct {
	radiance core.Vec3

	sceneCenter core.Vec3
	sceneRadius float64
}

// NewConstInfinityAreaLight creates a constant environment light
func NewConstInfinityAreaLight(radiance core.Vec3) *ConstInfinityAreaLight {
	return &ConstInfinityAreaLight{radiance: radiance}
}

// SetSceneBounds implements core.InfinityAreaLight
func (l *ConstInfinityAreaLight) SetSceneBounds(b core.Bounds3) {
	l.sceneCenter, l.sceneRadius = b.BoundingSphere()
}

// Type implements core.Light
func (l *ConstInfinityAreaLight) Type() core.LightType {
	return core.LightTypeInfinityArea
}

// Power implements core.Light
func (l *ConstInfinityAreaLight) Power() core.Vec3 {
	return l.radiance.Multiply(4.0 * math.Pi * math.Pi * l.sceneRadius * l.sceneRadius)
}

// Li implements core.InfinityAreaLight
func (l *ConstInfinityAreaLight) Li(wi core.Vec3) core.Vec3 {
	return l.radiance
}

// SampleWi implements core.InfinityAreaLight: uniform over the sphere
func (l *ConstInfinityAreaLight) SampleWi(u core.Vec2) (core.InfinityLightSampleWi, bool) {
	if l.radiance.IsZero() {
		return core.InfinityLightSampleWi{}, false
	}
	return core.InfinityLightSampleWi{
		Wi:    core.SampleSphereUniform(u),
		PdfWi: core.PdfSphereUniform(),
		Li:    l.radiance,
	}, true
}

// SampleWiAndO implements core.InfinityAreaLight
func (l *ConstInfinityAreaLight) SampleWiAndO(uDirection, uOrigin core.Vec2) (core.InfinityLightSampleWiO, bool) {
	s, ok := l.SampleWi(uDirection)
	if !ok {
		return core.InfinityLightSampleWiO{}, false
	}

	disk := core.SampleDiskConcentric(uOrigin)
	x, z := core.CoordinateSystem(s.Wi)
	offset := x.Multiply(disk.X).Add(z.Multiply(disk.Y)).Add(s.Wi)

	return core.InfinityLightSampleWiO{
		Wi:    s.Wi,
		PdfWi: s.PdfWi,
		Li:    s.Li,
		O:     l.sceneCenter.Add(offset.Multiply(l.sceneRadius)),
		PdfO:  1.0 / (math.Pi * l.sceneRadius * l.sceneRadius),
	}, true
}

// PdfWi implements core.InfinityAreaLight
func (l *ConstInfinityAreaLight) PdfWi(wi core.Vec3) float64 {
	return core.PdfSphereUniform()
}

// PdfO implements core.InfinityAreaLight
func (l *ConstInfinityAreaLight) PdfO() float64 {
	return 1.0 / (math.Pi * l.sceneRadius * l.sceneRadius)
}
