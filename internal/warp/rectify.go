// Package warp rectifies a calibrated map raster into a north-up image.
package warp

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"map-georef/pkg/geomath"
)

// Result is a rectified raster together with its own calibration. The output
// is axis-aligned: north up, one constant degree step per pixel on each axis,
// so its transform has zero cross terms.
type Result struct {
	Image     image.Image
	Transform geomath.AffineTransform
	Width     int
	Height    int
}

// RectifyNorthUp warps the source raster so that latitude runs straight up
// and longitude straight right, covering the geographic extent of the source.
// maxDim bounds the longer output edge in pixels.
func RectifyNorthUp(src image.Image, t geomath.AffineTransform, maxDim int) (*Result, error) {
	if src == nil {
		return nil, fmt.Errorf("no source image")
	}
	if !t.Invertible() {
		return nil, fmt.Errorf("transform is not invertible")
	}
	if maxDim < 1 {
		return nil, fmt.Errorf("invalid output size %d", maxDim)
	}

	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	// Geographic extent from the source corners. The map may be rotated, so
	// every corner can contribute an extreme.
	corners := []geomath.PixelPoint{
		{0, 0},
		{float64(srcW), 0},
		{0, float64(srcH)},
		{float64(srcW), float64(srcH)},
	}
	latMin, latMax := math.Inf(1), math.Inf(-1)
	lngMin, lngMax := math.Inf(1), math.Inf(-1)
	for _, c := range corners {
		g := t.PixelToGeo(c)
		latMin = math.Min(latMin, g.Lat)
		latMax = math.Max(latMax, g.Lat)
		lngMin = math.Min(lngMin, g.Lng)
		lngMax = math.Max(lngMax, g.Lng)
	}

	latSpan := latMax - latMin
	lngSpan := lngMax - lngMin
	if latSpan <= 0 || lngSpan <= 0 {
		return nil, fmt.Errorf("degenerate geographic extent %g x %g", lngSpan, latSpan)
	}

	var outW, outH int
	if lngSpan >= latSpan {
		outW = maxDim
		outH = int(math.Max(1, math.Round(float64(maxDim)*latSpan/lngSpan)))
	} else {
		outH = maxDim
		outW = int(math.Max(1, math.Round(float64(maxDim)*lngSpan/latSpan)))
	}

	degPerPxX := lngSpan / float64(outW)
	degPerPxY := latSpan / float64(outH)

	// Destination pixel of a source pixel: run the calibration forward, then
	// invert the output grid. Both are affine, so they compose into one 2x3
	// warp matrix:
	//   x' = (D*x + E*y + F - lngMin) / degPerPxX
	//   y' = (latMax - A*x - B*y - C) / degPerPxY
	m := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	defer m.Close()
	m.SetDoubleAt(0, 0, t.D/degPerPxX)
	m.SetDoubleAt(0, 1, t.E/degPerPxX)
	m.SetDoubleAt(0, 2, (t.F-lngMin)/degPerPxX)
	m.SetDoubleAt(1, 0, -t.A/degPerPxY)
	m.SetDoubleAt(1, 1, -t.B/degPerPxY)
	m.SetDoubleAt(1, 2, (latMax-t.C)/degPerPxY)

	srcMat, err := gocv.ImageToMatRGBA(src)
	if err != nil {
		return nil, fmt.Errorf("failed to convert source image: %w", err)
	}
	defer srcMat.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.WarpAffineWithParams(srcMat, &dst, m, image.Point{X: outW, Y: outH},
		gocv.InterpolationLinear, gocv.BorderConstant, color.RGBA{})

	out, err := dst.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert warped image: %w", err)
	}

	return &Result{
		Image: out,
		Transform: geomath.AffineTransform{
			A: 0, B: -degPerPxY, C: latMax,
			D: degPerPxX, E: 0, F: lngMin,
		},
		Width:  outW,
		Height: outH,
	}, nil
}
