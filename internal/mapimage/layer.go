// Package mapimage provides loading and layer handling for scanned map rasters.
package mapimage

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/tiff"
)

// Layer is a loaded map raster with its display settings.
type Layer struct {
	Path    string      // Original file path
	Image   image.Image // Decoded raster
	Visible bool        // Layer visibility
	Opacity float64     // Layer opacity (0.0 - 1.0)
}

// NewLayer creates a Layer with default display settings.
func NewLayer() *Layer {
	return &Layer{
		Visible: true,
		Opacity: 1.0,
	}
}

// Load decodes a map image (PNG, JPEG, or TIFF) from the given path.
func Load(path string) (*Layer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open map image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode map image: %w", err)
	}

	layer := NewLayer()
	layer.Path = path
	layer.Image = img
	return layer, nil
}

// Width returns the raster width in pixels.
func (l *Layer) Width() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dx()
}

// Height returns the raster height in pixels.
func (l *Layer) Height() int {
	if l.Image == nil {
		return 0
	}
	return l.Image.Bounds().Dy()
}

// PixelAt returns the color at the specified pixel, or black outside bounds.
func (l *Layer) PixelAt(x, y int) color.Color {
	if l.Image == nil {
		return color.Black
	}
	bounds := l.Image.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return color.Black
	}
	return l.Image.At(x, y)
}

// Contains reports whether the pixel position lies on the raster.
func (l *Layer) Contains(x, y float64) bool {
	return x >= 0 && y >= 0 && x < float64(l.Width()) && y < float64(l.Height())
}
