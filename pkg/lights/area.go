// Package lights implements the light layer: surface-bound area lights, the
// environment light at infinity and the light-selection distributions.
package lights

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/core"
)

// DiffuseAreaLight emits constant radiance from the front side of a surface
type DiffuseAreaLight struct {
	surface  core.Surface
	color    core.Vec3
	strength float64
}

// NewDiffuseAreaLight binds a constant diffuse emitter to a surface
func NewDiffuseAreaLight(surface core.Surface, color core.Vec3, strength float64) *DiffuseAreaLight {
	return &DiffuseAreaLight{surface: surface, color: color, strength: strength}
}

// Type implements core.Light
func (l *DiffuseAreaLight) Type() core.LightType {
	return core.LightTypeStandard
}

// Power implements core.Light
func (l *DiffuseAreaLight) Power() core.Vec3 {
	return l.color.Multiply(l.surface.Area() * math.Pi * l.strength)
}

// Le implements core.StandardLight: constant emission on the front side
func (l *DiffuseAreaLight) Le(p *core.SurfacePoint, wo core.Vec3) core.Vec3 {
	if p.Light != core.StandardLight(l) || p.Surface != l.surface {
		return core.Vec3{}
	}
	if p.Normal.Dot(wo) <= 0 {
		return core.Vec3{}
	}
	return l.color.Multiply(l.strength)
}

// SampleP implements core.StandardLight
func (l *DiffuseAreaLight) SampleP(view *core.SurfacePoint, uPrimitive float64, uPoint core.Vec2, a *arena.Arena) (core.StandardLightSampleP, bool) {
	p, pdfP, ok := l.surface.SamplePFromView(view, uPrimitive, uPoint, a)
	if !ok {
		return core.StandardLightSampleP{}, false
	}
	p.Light = l

	return core.StandardLightSampleP{
		P:    p,
		PdfP: pdfP,
		Le:   l.Le(p, view.Position.Subtract(p.Position)),
	}, true
}

// SamplePAndWo implements core.StandardLight: uniform point, cosine-weighted
// emission direction
func (l *DiffuseAreaLight) SamplePAndWo(uPrimitive float64, uPoint, uDirection core.Vec2, a *arena.Arena) (core.StandardLightSamplePWo, bool) {
	if l.color.IsZero() || l.strength == 0 {
		return core.StandardLightSamplePWo{}, false
	}

	p, pdfP, ok := l.surface.SampleP(uPrimitive, uPoint, a)
	if !ok {
		return core.StandardLightSamplePWo{}, false
	}
	p.Light = l

	frame := core.NewFrame(p.Normal)
	w := core.SampleHemisphereCosine(uDirection)

	return core.StandardLightSamplePWo{
		P:     p,
		Wo:    frame.LocalToWorld(w),
		PdfP:  pdfP,
		PdfWo: w.Y / math.Pi,
		Le:    l.color.Multiply(l.strength),
	}, true
}

// PdfP implements core.StandardLight
func (l *DiffuseAreaLight) PdfP(p *core.SurfacePoint) float64 {
	if p.Light != core.StandardLight(l) {
		return 0
	}
	return l.surface.PdfP(p)
}

// PdfWo implements core.StandardLight
func (l *DiffuseAreaLight) PdfWo(p *core.SurfacePoint, wo core.Vec3) float64 {
	if p.Light != core.StandardLight(l) || p.Surface != l.surface {
		return 0
	}
	cos := p.Normal.Dot(wo)
	if cos <= 0 {
		return 0
	}
	return cos / math.Pi
}
