// Package renderer drives the integrators: the perspective camera
// measurement, per-worker render targets, tile scheduling and raw image
// export.
package renderer

import (
	"github.com/lumen-render/go-lumen/pkg/core"
)

// RenderTarget accumulates radiance sample sums per pixel plus one sample
// counter shared by all pixels. Each worker owns its target exclusively, so
// no synchronisation happens on the hot path.
type RenderTarget struct {
	width, height int
	pixels        []core.Vec3
	sampleCount   uint64
}

// NewRenderTarget creates a zeroed render target
func NewRenderTarget(width, height int) *RenderTarget {
	return &RenderTarget{
		width:  width,
		height: height,
		pixels: make([]core.Vec3, width*height),
	}
}

// Width returns the horizontal resolution
func (rt *RenderTarget) Width() int { return rt.width }

// Height returns the vertical resolution
func (rt *RenderTarget) Height() int { return rt.height }

// AddSample accumulates a radiance sample into a pixel
func (rt *RenderTarget) AddSample(x, y int, value core.Vec3) {
	i := y*rt.width + x
	rt.pixels[i] = rt.pixels[i].Add(value)
}

// AddSampleCount advances the shared sample counter
func (rt *RenderTarget) AddSampleCount(n int) {
	rt.sampleCount += uint64(n)
}

// PixelSum returns the accumulated sample sum of a pixel
func (rt *RenderTarget) PixelSum(x, y int) core.Vec3 {
	return rt.pixels[y*rt.width+x]
}

// SampleCount returns the total sample count
func (rt *RenderTarget) SampleCount() uint64 {
	return rt.sampleCount
}
