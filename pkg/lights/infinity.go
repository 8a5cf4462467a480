package lights

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/core"
)

// InfinityAreaLight is the environment light: a radiance texture over
// (u = 1 - phi/2pi, v = theta/pi) importance-sampled through a 2D
// distribution over luminance-weighted, sin-theta-corrected texel
// integrals. SetSceneBounds must run before any sampling.
type InfinityAreaLight struct {
	transform core.Transform
	texture   core.TextureRGB
	strength  float64

	radianceDistribution *core.Distribution2D
	powerIntegral        core.Vec3

	sceneCenter core.Vec3
	sceneRadius float64
}

// NewInfinityAreaLight builds the environment light and its sampling
// distribution at the given resolution
func NewInfinityAreaLight(transform core.Transform, texture core.TextureRGB, strength float64, distributionWidth, distributionHeight int) *InfinityAreaLight {
	l := &InfinityAreaLight{transform: transform, texture: texture, strength: strength}

	du := float64(distributionWidth)
	dv := float64(distributionHeight)

	radianceFunction := make([][]float64, distributionHeight)
	for i := 0; i < distributionHeight; i++ {
		sinTheta := math.Sin(math.Pi * (float64(i) + 0.5) / dv)
		row := make([]float64, distributionWidth)
		for j := 0; j < distributionWidth; j++ {
			integral := texture.Integrate(
				core.Vec2{X: float64(j) / du, Y: float64(i) / dv},
				core.Vec2{X: float64(j+1) / du, Y: float64(i+1) / dv},
			)
			l.powerIntegral = l.powerIntegral.Add(integral.Multiply(sinTheta))
			row[j] = integral.Luminance() * sinTheta
		}
		radianceFunction[i] = row
	}
	l.radianceDistribution = core.NewDistribution2D(radianceFunction)

	return l
}

// SetSceneBounds implements core.InfinityAreaLight
func (l *InfinityAreaLight) SetSceneBounds(b core.Bounds3) {
	l.sceneCenter, l.sceneRadius = b.BoundingSphere()
}

// Type implements core.Light
func (l *InfinityAreaLight) Type() core.LightType {
	return core.LightTypeInfinityArea
}

// Power implements core.Light
func (l *InfinityAreaLight) Power() core.Vec3 {
	return l.powerIntegral.Multiply(math.Pi * l.sceneRadius * l.sceneRadius * l.strength)
}

// directionToUV maps a local direction to texture coordinates
func directionToUV(w core.Vec3) (core.Vec2, float64) {
	theta := math.Acos(math.Max(-1, math.Min(1, w.Y)))
	phi := math.Atan2(w.Z, w.X)
	if phi < 0 {
		phi += 2.0 * math.Pi
	}
	return core.Vec2{
		X: 1.0 - phi/(2.0*math.Pi),
		Y: theta / math.Pi,
	}, math.Sin(theta)
}

// Li implements core.InfinityAreaLight
func (l *InfinityAreaLight) Li(wi core.Vec3) core.Vec3 {
	w := l.transform.InverseTransformVector(wi)
	uv, _ := directionToUV(w)
	return l.texture.Evaluate(uv).Multiply(l.strength)
}

// SampleWi implements core.InfinityAreaLight
func (l *InfinityAreaLight) SampleWi(u core.Vec2) (core.InfinityLightSampleWi, bool) {
	uv, pdfUV := l.radianceDistribution.SampleContinuous(u)

	theta := uv.Y * math.Pi
	phi := (1.0 - uv.X) * 2.0 * math.Pi
	sinTheta, cosTheta := math.Sincos(theta)
	sinPhi, cosPhi := math.Sincos(phi)

	if sinTheta == 0 {
		return core.InfinityLightSampleWi{}, false
	}
	li := l.texture.Evaluate(uv).Multiply(l.strength)
	if li.IsZero() {
		return core.InfinityLightSampleWi{}, false
	}

	w := core.Vec3{X: sinTheta * cosPhi, Y: cosTheta, Z: sinTheta * sinPhi}

	return core.InfinityLightSampleWi{
		Wi:    l.transform.TransformVector(w),
		PdfWi: pdfUV / (2.0 * math.Pi * math.Pi * sinTheta),
		Li:    li,
	}, true
}

// SampleWiAndO implements core.InfinityAreaLight: additionally places an
// origin on the disk tangent to the scene bounding sphere
func (l *InfinityAreaLight) SampleWiAndO(uDirection, uOrigin core.Vec2) (core.InfinityLightSampleWiO, bool) {
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
func (l *InfinityAreaLight) PdfWi(wi core.Vec3) float64 {
	w := l.transform.InverseTransformVector(wi)
	uv, sinTheta := directionToUV(w)
	if sinTheta == 0 {
		return 0
	}
	return l.radianceDistribution.PdfContinuous(uv) / (2.0 * math.Pi * math.Pi * sinTheta)
}

// PdfO implements core.InfinityAreaLight
func (l *InfinityAreaLight) PdfO() float64 {
	return 1.0 / (math.Pi * l.sceneRadius * l.sceneRadius)
}
