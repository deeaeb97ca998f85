package mapimage

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	path := filepath.Join(t.TempDir(), "map.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create temp image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode temp image: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeTestPNG(t, 64, 48)

	layer, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if layer.Width() != 64 || layer.Height() != 48 {
		t.Errorf("size: got %dx%d, want 64x48", layer.Width(), layer.Height())
	}
	if !layer.Visible || layer.Opacity != 1.0 {
		t.Errorf("defaults: visible=%v opacity=%v", layer.Visible, layer.Opacity)
	}
	if layer.Path != path {
		t.Errorf("path: got %q, want %q", layer.Path, path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Error("Load succeeded on a missing file")
	}
}

func TestLayerBounds(t *testing.T) {
	path := writeTestPNG(t, 10, 10)
	layer, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		x, y float64
		want bool
	}{
		{0, 0, true},
		{9.9, 9.9, true},
		{10, 5, false},
		{-1, 5, false},
		{5, -0.1, false},
	}
	for _, tt := range tests {
		if got := layer.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}

	if c := layer.PixelAt(-5, -5); c != color.Color(color.Black) {
		t.Errorf("PixelAt outside bounds: got %v, want black", c)
	}
}
