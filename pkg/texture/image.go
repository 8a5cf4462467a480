// Package texture provides 2D texture sources over RGB, RG and R channels
// with nearest or bilinear reconstruction and box-filtered integration.
package texture

import (
	"math"

	"github.com/pkg/errors"

	"github.com/lumen-render/go-lumen/pkg/core"
)

// Format enumerates the pixel layouts an Image accepts
type Format int

const (
	// FormatR8 is a single 8-bit linear channel
	FormatR8 Format = iota
	// FormatRGB8 is 8-bit linear RGB
	FormatRGB8
	// FormatSRGB8 is 8-bit sRGB-encoded RGB, linearised on fetch
	FormatSRGB8
	// FormatRGB32F is linear float RGB
	FormatRGB32F
)

// Image is a decoded pixel buffer. Fetches return linear values; sRGB data
// goes through the EOTF.
type Image struct {
	width  int
	height int
	format Format

	bytes  []uint8
	floats []float32
}

// NewImageBytes wraps an 8-bit pixel buffer
func NewImageBytes(width, height int, format Format, data []uint8) (*Image, error) {
	channels := 3
	if format == FormatR8 {
		channels = 1
	} else if format == FormatRGB32F {
		return nil, errors.New("float format requires NewImageFloats")
	}
	if len(data) != width*height*channels {
		return nil, errors.Errorf("image data size mismatch: %dx%d %d-channel image needs %d bytes, got %d",
			width, height, channels, width*height*channels, len(data))
	}
	return &Image{width: width, height: height, format: format, bytes: data}, nil
}

// NewImageFloats wraps a float RGB pixel buffer
func NewImageFloats(width, height int, data []float32) (*Image, error) {
	if len(data) != width*height*3 {
		return nil, errors.Errorf("image data size mismatch: %dx%d float image needs %d floats, got %d",
			width, height, width*height*3, len(data))
	}
	return &Image{width: width, height: height, format: FormatRGB32F, floats: data}, nil
}

// Width returns the horizontal resolution
func (img *Image) Width() int { return img.width }

// Height returns the vertical resolution
func (img *Image) Height() int { return img.height }

// RGB fetches the linear color of a pixel
func (img *Image) RGB(x, y int) core.Vec3 {
	i := y*img.width + x
	switch img.format {
	case FormatR8:
		v := float64(img.bytes[i]) / 255.0
		return core.Vec3{X: v, Y: v, Z: v}
	case FormatRGB8:
		return core.Vec3{
			X: float64(img.bytes[i*3]) / 255.0,
			Y: float64(img.bytes[i*3+1]) / 255.0,
			Z: float64(img.bytes[i*3+2]) / 255.0,
		}
	case FormatSRGB8:
		return core.Vec3{
			X: SRGBToLinear(float64(img.bytes[i*3]) / 255.0),
			Y: SRGBToLinear(float64(img.bytes[i*3+1]) / 255.0),
			Z: SRGBToLinear(float64(img.bytes[i*3+2]) / 255.0),
		}
	default:
		return core.Vec3{
			X: float64(img.floats[i*3]),
			Y: float64(img.floats[i*3+1]),
			Z: float64(img.floats[i*3+2]),
		}
	}
}

// R fetches the linear scalar value of a pixel (red channel for RGB formats)
func (img *Image) R(x, y int) float64 {
	return img.RGB(x, y).X
}

// SRGBToLinear applies the sRGB electro-optical transfer function
func SRGBToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// LinearToSRGB applies the inverse transfer function
func LinearToSRGB(v float64) float64 {
	if v <= 0.0031308 {
		return v * 12.92
	}
	return 1.055*math.Pow(v, 1.0/2.4) - 0.055
}
