package texture

import (
	"math"

	"github.com/lumen-render/go-lumen/pkg/core"
)

// Filter selects the reconstruction used when evaluating an image texture
type Filter int

const (
	// FilterNearest fetches the containing texel
	FilterNearest Filter = iota
	// FilterBilinear blends the four surrounding texels
	FilterBilinear
)

// ImageRGB is an RGB texture backed by an image
type ImageRGB struct {
	image               *Image
	filter              Filter
	integralSampleCount int
}

// NewImageRGB creates an image texture. integralSampleCount is the per-axis
// sample count used by box-filtered integration.
func NewImageRGB(image *Image, filter Filter, integralSampleCount int) *ImageRGB {
	return &ImageRGB{image: image, filter: filter, integralSampleCount: integralSampleCount}
}

// Evaluate implements core.TextureRGB
func (t *ImageRGB) Evaluate(uv core.Vec2) core.Vec3 {
	if t.filter == FilterBilinear {
		return t.bilinear(uv)
	}
	return t.nearest(uv)
}

func (t *ImageRGB) nearest(uv core.Vec2) core.Vec3 {
	x := min(int(uv.X*float64(t.image.width)), t.image.width-1)
	y := min(int(uv.Y*float64(t.image.height)), t.image.height-1)
	return t.image.RGB(max(x, 0), max(y, 0))
}

func (t *ImageRGB) bilinear(uv core.Vec2) core.Vec3 {
	ax := uv.X*float64(t.image.width) - 0.5
	ay := uv.Y*float64(t.image.height) - 0.5

	x0 := int(math.Floor(ax))
	y0 := int(math.Floor(ay))

	px0 := min(max(x0, 0), t.image.width-1)
	px1 := min(max(x0+1, 0), t.image.width-1)
	py0 := min(max(y0, 0), t.image.height-1)
	py1 := min(max(y0+1, 0), t.image.height-1)

	v00 := t.image.RGB(px0, py0)
	v10 := t.image.RGB(px1, py0)
	v01 := t.image.RGB(px0, py1)
	v11 := t.image.RGB(px1, py1)

	wx := ax - float64(x0)
	wy := ay - float64(y0)

	v0 := core.Lerp(v00, v10, wx)
	v1 := core.Lerp(v01, v11, wx)
	return core.Lerp(v0, v1, wy)
}

// Integrate implements core.TextureRGB: the integral of the texture over the
// uv rectangle [a, b], accumulated texel by texel with a midpoint rule so
// the reconstruction filter is honoured
func (t *ImageRGB) Integrate(a, b core.Vec2) core.Vec3 {
	w := float64(t.image.width)
	h := float64(t.image.height)

	x0 := int(math.Floor(a.X * w))
	y0 := int(math.Floor(a.Y * h))
	x1 := int(math.Ceil(b.X * w))
	y1 := int(math.Ceil(b.Y * h))

	var value core.Vec3
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			value = value.Add(t.integrateTexel(a, b, px, py))
		}
	}
	return value
}

func (t *ImageRGB) integrateTexel(a, b core.Vec2, px, py int) core.Vec3 {
	w := float64(t.image.width)
	h := float64(t.image.height)

	ax := math.Max(a.X, float64(px)/w)
	ay := math.Max(a.Y, float64(py)/h)
	bx := math.Min(b.X, float64(px+1)/w)
	by := math.Min(b.Y, float64(py+1)/h)

	n := t.integralSampleCount
	du := (bx - ax) / float64(n)
	dv := (by - ay) / float64(n)
	area := du * dv
	if area <= 0 {
		return core.Vec3{}
	}

	var value core.Vec3
	for i := 0; i < n; i++ {
		v := ay + (float64(i)+0.5)*dv
		for j := 0; j < n; j++ {
			u := ax + (float64(j)+0.5)*du
			value = value.Add(t.Evaluate(core.Vec2{X: u, Y: v}))
		}
	}
	return value.Multiply(area)
}

// ImageR is a scalar texture backed by an image
type ImageR struct {
	rgb ImageRGB
}

// NewImageR creates a scalar image texture
func NewImageR(image *Image, filter Filter) *ImageR {
	return &ImageR{rgb: ImageRGB{image: image, filter: filter, integralSampleCount: 1}}
}

// EvaluateR implements core.TextureR
func (t *ImageR) EvaluateR(uv core.Vec2) float64 {
	return t.rgb.Evaluate(uv).X
}

// ImageRG is a two-channel texture backed by an image (normal maps use the
// first two channels)
type ImageRG struct {
	rgb ImageRGB
}

// NewImageRG creates a two-channel image texture
func NewImageRG(image *Image, filter Filter) *ImageRG {
	return &ImageRG{rgb: ImageRGB{image: image, filter: filter, integralSampleCount: 1}}
}

// EvaluateRG implements core.TextureRG
func (t *ImageRG) EvaluateRG(uv core.Vec2) core.Vec2 {
	v := t.rgb.Evaluate(uv)
	return core.Vec2{X: v.X, Y: v.Y}
}

// ConstRGB is a constant color texture
type ConstRGB struct {
	value core.Vec3
}

// NewConstRGB creates a constant RGB texture
func NewConstRGB(value core.Vec3) *ConstRGB {
	return &ConstRGB{value: value}
}

// Evaluate implements core.TextureRGB
func (t *ConstRGB) Evaluate(uv core.Vec2) core.Vec3 {
	return t.value
}

// Integrate implements core.TextureRGB
func (t *ConstRGB) Integrate(a, b core.Vec2) core.Vec3 {
	return t.value.Multiply((b.X - a.X) * (b.Y - a.Y))
}

// ConstR is a constant scalar texture
type ConstR struct {
	value float64
}

// NewConstR creates a constant scalar texture
func NewConstR(value float64) *ConstR {
	return &ConstR{value: value}
}

// EvaluateR implements core.TextureR
func (t *ConstR) EvaluateR(uv core.Vec2) float64 {
	return t.value
}

// CheckerRGB alternates two colors on a uv grid
type CheckerRGB struct {
	a, b  core.Vec3
	scale float64
}

// NewCheckerRGB creates a checker texture with the given number of squares
// per unit uv
func NewCheckerRGB(a, b core.Vec3, scale float64) *CheckerRGB {
	return &CheckerRGB{a: a, b: b, scale: scale}
}

// Evaluate implements core.TextureRGB
func (t *CheckerRGB) Evaluate(uv core.Vec2) core.Vec3 {
	x := int(math.Floor(uv.X * t.scale))
	y := int(math.Floor(uv.Y * t.scale))
	if (x+y)%2 == 0 {
		return t.a
	}
	return t.b
}

// Integrate implements core.TextureRGB with the average of both colors times
// the area, which is exact for regions covering equally many squares of each
// color and close enough for distribution building
func (t *CheckerRGB) Integrate(a, b core.Vec2) core.Vec3 {
	area := (b.X - a.X) * (b.Y - a.Y)
	return t.a.Add(t.b).Multiply(0.5 * area)
}
