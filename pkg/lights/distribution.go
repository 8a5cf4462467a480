package lights

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/core"
)

// UniformDistribution selects among the scene lights with equal probability.
// It serves both as the global and the spatial light distribution.
type UniformDistribution struct {
	lights []core.Light
}

// NewUniformDistribution creates a uniform light distribution
func NewUniformDistribution(lights []core.Light) *UniformDistribution {
	return &UniformDistribution{lights: lights}
}

// Sample implements core.LightDistribution
func (d *UniformDistribution) Sample(u float64) (core.Light, float64) {
	if len(d.lights) == 0 {
		return nil, 0
	}
	index := min(int(u*float64(len(d.lights))), len(d.lights)-1)
	return d.lights[index], 1.0 / float64(len(d.lights))
}

// Pdf implements core.LightDistribution
func (d *UniformDistribution) Pdf(core.Light) float64 {
	if len(d.lights) == 0 {
		return 0
	}
	return 1.0 / float64(len(d.lights))
}

// Get implements core.SpatialLightDistribution
func (d *UniformDistribution) Get(*core.SurfacePoint) core.LightDistribution {
	return d
}

// PowerDistribution selects lights proportionally to their power
type PowerDistribution struct {
	lights       []core.Light
	distribution *core.Distribution1D
}

// NewPowerDistribution creates a power-weighted light distribution. Lights
// must already know the scene bounds so Power is meaningful.
func NewPowerDistribution(lights []core.Light) *PowerDistribution {
	weights := make([]float64, len(lights))
	for i, l := range lights {
		weights[i] = math.Max(l.Power().Luminance(), 1e-9)
	}
	if len(weights) == 0 {
		weights = []float64{1}
	}
	return &PowerDistribution{lights: lights, distribution: core.NewDistribution1D(weights)}
}

// Sample implements core.LightDistribution
func (d *PowerDistribution) Sample(u float64) (core.Light, float64) {
	if len(d.lights) == 0 {
		return nil, 0
	}
	index, pdf := d.distribution.SampleDiscrete(u)
	return d.lights[index], pdf
}

// Pdf implements core.LightDistribution
func (d *PowerDistribution) Pdf(light core.Light) float64 {
	for i, l := range d.lights {
		if l == light {
			return d.distribution.PdfDiscrete(i)
		}
	}
	return 0
}

// Get implements core.SpatialLightDistribution
func (d *PowerDistribution) Get(*core.SurfacePoint) core.LightDistribution {
	return d
}
