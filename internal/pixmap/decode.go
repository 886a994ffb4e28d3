// Package pixmap converts raster images into the bit-packed serial
// frames understood by the helmet matrix controller. It covers the
// full encoding pipeline: decoding a file into intensity samples,
// reordering them into the panel's physical scan order, and packing
// the thresholded bits into 9-byte row units behind a sync preamble.
package pixmap

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	// Register the two raster formats the map renderer produces.
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// ErrSizeMismatch is returned when a decoded sample buffer does not
// match the declared display dimensions.
var ErrSizeMismatch = fmt.Errorf("sample count does not match display dimensions")

// DecodeGray decodes a PNG or BMP image into one intensity byte per
// pixel, row-major. The caller is responsible for checking the sample
// count against the display dimensions.
func DecodeGray(r io.Reader) ([]byte, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	samples := make([]byte, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			samples = append(samples, color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
		}
	}
	return samples, nil
}

// Expand1Bit expands 1-bit packed pixel data into one intensity byte
// per pixel. Bits are taken least significant first; a set bit expands
// to intensity 255 and a clear bit to 0.
func Expand1Bit(packed []byte) []byte {
	samples := make([]byte, len(packed)*8)
	for i, b := range packed {
		for j := 0; j < 8; j++ {
			if b&(1<<j) != 0 {
				samples[i*8+j] = 0xFF
			}
		}
	}
	return samples
}

// Decode1Bit decodes an image whose pixel bytes carry eight packed
// display pixels each and expands them into one byte per pixel.
func Decode1Bit(r io.Reader) ([]byte, error) {
	packed, err := DecodeGray(r)
	if err != nil {
		return nil, err
	}
	return Expand1Bit(packed), nil
}

// DecodeAuto reads the image at path and decodes it for a width×height
// display. The file is decoded as grayscale first; if the sample count
// comes out to exactly one eighth of the display area the pixel data is
// actually 1-bit packed and is expanded instead. Any other sample count
// is a size mismatch and fails before a single byte reaches the wire.
func DecodeAuto(path string, width, height int) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	samples, err := DecodeGray(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	switch len(samples) {
	case width * height:
		return samples, nil
	case width * height / 8:
		return Expand1Bit(samples), nil
	default:
		return nil, fmt.Errorf("%w: %s decoded to %d samples, want %d or %d",
			ErrSizeMismatch, path, len(samples), width*height, width*height/8)
	}
}
