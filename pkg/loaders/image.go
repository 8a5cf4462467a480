// Package loaders ingests external assets into the typed buffers the core
// consumes: PLY meshes and common image formats decoded to linear RGB.
package loaders

import (
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"io"
	"os"

	"github.com/pkg/errors"
	_ "golang.org/x/image/tiff" // TIFF decoder

	"github.com/lumen-render/go-lumen/pkg/texture"
)

// DecodeImage decodes a PNG, JPEG or TIFF stream into an sRGB image whose
// fetches return linear RGB
func DecodeImage(r io.Reader) (*texture.Image, error) {
	decoded, format, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decoding image")
	}

	bounds := decoded.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	data := make([]uint8, 0, width*height*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r16, g16, b16, _ := decoded.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			data = append(data, uint8(r16>>8), uint8(g16>>8), uint8(b16>>8))
		}
	}

	img, err := texture.NewImageBytes(width, height, texture.FormatSRGB8, data)
	return img, errors.Wrapf(err, "wrapping decoded %s image", format)
}

// LoadImage decodes an image file
func LoadImage(filename string) (*texture.Image, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening image %s", filename)
	}
	defer f.Close()
	return DecodeImage(f)
}

// LoadImageRGB32F wraps a raw float RGB file laid out as width*height
// records of three float32 values
func LoadImageRGB32F(width, height int, data []float32) (*texture.Image, error) {
	return texture.NewImageFloats(width, height, data)
}
