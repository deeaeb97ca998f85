// Package ocr reads printed coordinate labels from scanned map margins.
package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// CoordinateChars is the character set for graticule label OCR. Restricting
// the whitelist keeps Tesseract from misreading degree marks as letters.
const CoordinateChars = "0123456789.,°'\"NSEW-+ "

// Engine provides OCR functionality using Tesseract.
type Engine struct {
	client *gosseract.Client
}

// NewEngine creates a new OCR engine tuned for coordinate labels.
func NewEngine() (*Engine, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Coordinate labels are not dictionary words; disable word correction so
	// Tesseract does not "fix" them.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	return &Engine{client: client}, nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// RecognizeRegion performs OCR on a rectangular region of the map image and
// returns the cleaned-up label text.
func (e *Engine) RecognizeRegion(img image.Image, region image.Rectangle) (string, error) {
	if img == nil {
		return "", fmt.Errorf("no image")
	}

	region = region.Intersect(img.Bounds())
	if region.Empty() {
		return "", fmt.Errorf("region outside image bounds")
	}

	crop := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			crop.Set(x-region.Min.X, y-region.Min.Y, img.At(x, y))
		}
	}

	cleaned, err := preprocessLabel(crop)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, cleaned); err != nil {
		return "", fmt.Errorf("failed to encode region: %w", err)
	}

	// Labels are a single line of text.
	if err := e.client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return "", fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := e.client.SetWhitelist(CoordinateChars); err != nil {
		return "", fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	text = strings.TrimSpace(text)
	text = strings.Join(strings.Fields(text), " ")
	return strings.ToUpper(text), nil
}

// ReadCoordinate recognizes a margin label and parses it as a coordinate in
// decimal degrees.
func (e *Engine) ReadCoordinate(img image.Image, region image.Rectangle) (float64, error) {
	text, err := e.RecognizeRegion(img, region)
	if err != nil {
		return 0, err
	}
	value, err := ParseCoordinate(text)
	if err != nil {
		return 0, fmt.Errorf("label %q: %w", text, err)
	}
	return value, nil
}
