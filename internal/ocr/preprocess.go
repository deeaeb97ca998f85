package ocr

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Upscale label crops so the glyphs reach a height Tesseract handles well.
const minLabelDim = 150

// preprocessLabel cleans a cropped margin label for OCR: upscales small
// crops, converts to grayscale, and applies Otsu thresholding so the faded
// ink of old scans separates cleanly from the paper.
func preprocessLabel(crop image.Image) (image.Image, error) {
	mat, err := gocv.ImageToMatRGBA(toRGBA(crop))
	if err != nil {
		return nil, fmt.Errorf("failed to convert label region: %w", err)
	}
	defer mat.Close()

	h, w := mat.Rows(), mat.Cols()
	minDim := h
	if w < minDim {
		minDim = w
	}

	scaled := gocv.NewMat()
	defer scaled.Close()
	if minDim > 0 && minDim < minLabelDim {
		scale := float64(minLabelDim) / float64(minDim)
		gocv.Resize(mat, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
	} else {
		mat.CopyTo(&scaled)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(scaled, &gray, gocv.ColorRGBAToGray)

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(gray, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)

	// Tesseract wants dark text on light paper. Margin labels on dark map
	// backgrounds come out inverted after thresholding.
	whiteCount := gocv.CountNonZero(binary)
	totalPixels := binary.Rows() * binary.Cols()
	if totalPixels > 0 && float64(whiteCount)/float64(totalPixels) < 0.5 {
		gocv.BitwiseNot(binary, &binary)
	}

	out, err := binary.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert preprocessed label: %w", err)
	}
	return out, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x-bounds.Min.X, y-bounds.Min.Y, img.At(x, y))
		}
	}
	return rgba
}
