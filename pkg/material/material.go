// Package material provides the surface materials that assemble per-hit
// BSDFs in the sample arena.
package material

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/arena"
	"github.com/lumen-render/go-lumen/pkg/bsdf"
	"github.com/lumen-render/go-lumen/pkg/core"
)

// perturbedNormal decodes a tangent-space normal map sample into the local
// shading frame (+Y up)
func perturbedNormal(normalMap core.TextureRG, uv core.Vec2) core.Vec3 {
	rg := normalMap.EvaluateRG(uv)
	x := 2.0*rg.X - 1.0
	z := 2.0*rg.Y - 1.0
	y := math.Sqrt(math.Max(0, 1.0-x*x-z*z))
	return core.Vec3{X: x, Y: y, Z: z}.Normalize()
}

// wrap applies the optional normal map to a lobe
func wrap(b bsdf.BxDF, normalMap core.TextureRG, uv core.Vec2) bsdf.BxDF {
	if normalMap == nil {
		return b
	}
	return bsdf.NewNormalMapped(perturbedNormal(normalMap, uv), b)
}

// Diffuse is an ideal lambertian surface
type Diffuse struct {
	Reflectance core.TextureRGB
	NormalMap   core.TextureRG
}

// NewDiffuse creates a diffuse material
func NewDiffuse(reflectance core.TextureRGB) *Diffuse {
	return &Diffuse{Reflectance: reflectance}
}

// EvaluateBSDF implements core.Material
func (m *Diffuse) EvaluateBSDF(p *core.SurfacePoint, a *arena.Arena) core.BSDF {
	return bsdf.New(a, p).
		Add(wrap(bsdf.LambertianReflection{Reflectance: m.Reflectance.Evaluate(p.UV)}, m.NormalMap, p.UV), 1, 1).
		Finalize()
}

// Mirror is an ideal reflector
type Mirror struct {
	Reflectance core.TextureRGB
}

// NewMirror creates a mirror material
func NewMirror(reflectance core.TextureRGB) *Mirror {
	return &Mirror{Reflectance: reflectance}
}

// EvaluateBSDF implements core.Material
func (m *Mirror) EvaluateBSDF(p *core.SurfacePoint, a *arena.Arena) core.BSDF {
	return bsdf.New(a, p).
		Add(bsdf.SpecularReflection{
			Reflectance: m.Reflectance.Evaluate(p.UV),
			Fresnel:     bsdf.FresnelOne{},
		}, 1, 1).
		Finalize()
}

// Metal is a conductor with a complex refraction index; smooth at zero
// roughness, Smith-GGX otherwise
type Metal struct {
	Reflectance core.TextureRGB
	Eta         core.Vec3
	K           core.Vec3
	Roughness   core.TextureR
	NormalMap   core.TextureRG
}

// NewMetal creates a metal material
func NewMetal(reflectance core.TextureRGB, eta, k core.Vec3, roughness core.TextureR) *Metal {
	return &Metal{Reflectance: reflectance, Eta: eta, K: k, Roughness: roughness}
}

// EvaluateBSDF implements core.Material
func (m *Metal) EvaluateBSDF(p *core.SurfacePoint, a *arena.Arena) core.BSDF {
	reflectance := m.Reflectance.Evaluate(p.UV)
	roughness := m.Roughness.EvaluateR(p.UV)

	var lobe bsdf.BxDF
	if roughness == 0 {
		lobe = bsdf.SpecularReflection{
			Reflectance: reflectance,
			Fresnel:     bsdf.FresnelConductor{Eta: m.Eta, K: m.K},
		}
	} else {
		lobe = bsdf.RoughConductor{
			Reflectance: reflectance,
			Eta:         m.Eta,
			K:           m.K,
			Model:       bsdf.GGX{Alpha: core.Vec2{X: roughness, Y: roughness}},
		}
	}
	return bsdf.New(a, p).Add(wrap(lobe, m.NormalMap, p.UV), 1, 1).Finalize()
}

// Glass is a dielectric interface. The interface indices come from the
// nested-dielectric helper, so the material itself carries no IOR.
type Glass struct {
	Reflectance   core.TextureRGB
	Transmittance core.TextureRGB
	Roughness     core.TextureR
}

// NewGlass creates a glass material
func NewGlass(reflectance, transmittance core.TextureRGB, roughness core.TextureR) *Glass {
	return &Glass{Reflectance: reflectance, Transmittance: transmittance, Roughness: roughness}
}

// EvaluateBSDF implements core.Material
func (m *Glass) EvaluateBSDF(p *core.SurfacePoint, a *arena.Arena) core.BSDF {
	reflectance := m.Reflectance.Evaluate(p.UV)
	transmittance := m.Transmittance.Evaluate(p.UV)
	roughness := m.Roughness.EvaluateR(p.UV)

	var lobe bsdf.BxDF
	if roughness == 0 {
		lobe = bsdf.SpecularGlass{Reflectance: reflectance, Transmittance: transmittance}
	} else {
		lobe = bsdf.MicrofacetGlass{
			Reflectance:   reflectance,
			Transmittance: transmittance,
			Model:         bsdf.GGX{Alpha: core.Vec2{X: roughness, Y: roughness}},
		}
	}
	return bsdf.New(a, p).Add(lobe, 1, 1).Finalize()
}

// Plastic is a diffuse base under a rough dielectric coat
type Plastic struct {
	Diffuse   core.TextureRGB
	Specular  core.TextureRGB
	IOR       float64
	Roughness core.TextureR
	NormalMap core.TextureRG
}

// NewPlastic creates a plastic material
func NewPlastic(diffuse, specular core.TextureRGB, ior float64, roughness core.TextureR) *Plastic {
	return &Plastic{Diffuse: diffuse, Specular: specular, IOR: ior, Roughness: roughness}
}

// EvaluateBSDF implements core.Material
func (m *Plastic) EvaluateBSDF(p *core.SurfacePoint, a *arena.Arena) core.BSDF {
	roughness := math.Max(0.001, m.Roughness.EvaluateR(p.UV))
	lobe := bsdf.RoughPlastic{
		Diffuse:  m.Diffuse.Evaluate(p.UV),
		Specular: m.Specular.Evaluate(p.UV),
		IOR:      m.IOR,
		Model:    bsdf.GGX{Alpha: core.Vec2{X: roughness, Y: roughness}},
	}
	return bsdf.New(a, p).Add(wrap(lobe, m.NormalMap, p.UV), 1, 1).Finalize()
}

// Standard is a metalness-workflow material: a dielectric layer (diffuse +
// coat) blended against a metallic layer by the metalness texture
type Standard struct {
	BaseColor core.TextureRGB
	Metalness core.TextureR
	Roughness core.TextureR
	IOR       core.TextureR
	NormalMap core.TextureRG
}

// NewStandard creates a standard material
func NewStandard(baseColor core.TextureRGB, metalness, roughness, ior core.TextureR) *Standard {
	return &Standard{BaseColor: baseColor, Metalness: metalness, Roughness: roughness, IOR: ior}
}

// EvaluateBSDF implements core.Material
func (m *Standard) EvaluateBSDF(p *core.SurfacePoint, a *arena.Arena) core.BSDF {
	baseColor := m.BaseColor.Evaluate(p.UV)
	metalness := m.Metalness.EvaluateR(p.UV)
	roughness := m.Roughness.EvaluateR(p.UV)

	c := bsdf.New(a, p)

	if metalness < 1 {
		ior := m.IOR.EvaluateR(p.UV)

		c.Add(wrap(bsdf.LambertianReflection{Reflectance: baseColor}, m.NormalMap, p.UV),
			1.0-metalness, (1.0-metalness)/2.0)

		var coat bsdf.BxDF
		if roughness == 0 {
			coat = bsdf.SpecularReflection{
				Reflectance: core.Vec3{X: 1, Y: 1, Z: 1},
				Fresnel:     bsdf.FresnelDielectric{},
				IOR:         ior,
			}
		} else {
			coat = bsdf.MicrofacetReflection{
				Reflectance: core.Vec3{X: 1, Y: 1, Z: 1},
				Model:       bsdf.GGX{Alpha: core.Vec2{X: roughness, Y: roughness}},
				Fresnel:     bsdf.FresnelDielectric{},
				IOR:         ior,
			}
		}
		c.Add(wrap(coat, m.NormalMap, p.UV), 1.0-metalness, (1.0-metalness)/2.0)
	}

	if metalness > 0 {
		var metallic bsdf.BxDF
		if roughness == 0 {
			metallic = bsdf.SpecularReflection{
				Reflectance: baseColor,
				Fresnel:     bsdf.FresnelOne{},
			}
		} else {
			metallic = bsdf.MicrofacetReflection{
				Reflectance: baseColor,
				Model:       bsdf.GGX{Alpha: core.Vec2{X: roughness, Y: roughness}},
				Fresnel:     bsdf.FresnelOne{},
			}
		}
		c.Add(wrap(metallic, m.NormalMap, p.UV), metalness, metalness)
	}

	return c.Finalize()
}
