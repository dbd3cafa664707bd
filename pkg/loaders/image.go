package loaders

import (
	"fmt"
	"image"
	"image/draw"
	"io"

	"github.com/fogleman/gg"
)

// ImageData is a row-major RGBA8 frame as produced by the renderer
type ImageData struct {
	Width  int
	Height int
	Pix    []byte // 4 bytes per pixel, top row first
}

// NewImageData wraps a raw RGBA8 buffer, checking its length
func NewImageData(pix []byte, width, height int) (*ImageData, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if len(pix) != 4*width*height {
		return nil, fmt.Errorf("buffer has %d bytes, want %d for %dx%d", len(pix), 4*width*height, width, height)
	}
	return &ImageData{Width: width, Height: height, Pix: pix}, nil
}

// RGBA exposes the buffer as an image without copying
func (d *ImageData) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    d.Pix,
		Stride: 4 * d.Width,
		Rect:   image.Rect(0, 0, d.Width, d.Height),
	}
}

// SavePNG writes the image to a PNG file
func (d *ImageData) SavePNG(filename string) error {
	if err := gg.NewContextForRGBA(d.RGBA()).SavePNG(filename); err != nil {
		return fmt.Errorf("failed to save PNG: %w", err)
	}
	return nil
}

// EncodePNG writes the image as PNG to w
func (d *ImageData) EncodePNG(w io.Writer) error {
	if err := gg.NewContextForRGBA(d.RGBA()).EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// LoadImage loads a PNG or JPEG image and converts it to an RGBA8 buffer
func LoadImage(filename string) (*ImageData, error) {
	img, err := gg.LoadImage(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return &ImageData{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pix:    rgba.Pix,
	}, nil
}
