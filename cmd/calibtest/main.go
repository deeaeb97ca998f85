// Command calibtest fits a calibration from a correspondence file and prints
// the resulting transform, residuals, and round-trip errors.
//
// The points file has one correspondence per line:
//
//	pixelX pixelY latitude longitude
//
// Blank lines and lines starting with # are skipped.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"
	"strconv"
	"strings"

	"map-georef/internal/calibrate"
	"map-georef/internal/warp"
	"map-georef/pkg/geomath"

	_ "golang.org/x/image/tiff"
)

func main() {
	pointsFile := flag.String("points", "", "Path to correspondence file")
	mapFile := flag.String("map", "", "Path to map image (required for -rectify)")
	rectifyOut := flag.String("rectify", "", "Write a north-up PNG to this path")
	maxDim := flag.Int("maxdim", 4096, "Maximum output dimension for -rectify")
	flag.Parse()

	if *pointsFile == "" {
		fmt.Println("Usage: calibtest -points <file> [-map <image> -rectify <out.png>]")
		os.Exit(1)
	}

	refs, err := readPoints(*pointsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read points: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("=== Read %d correspondences from %s ===\n", len(refs), *pointsFile)

	cal := calibrate.NewCalibrator()
	for _, ref := range refs {
		if err := cal.AddReference(ref.Pixel, ref.Geo); err != nil &&
			!calibrate.IsNotCalibratable(err) {
			fmt.Fprintf(os.Stderr, "AddReference failed: %v\n", err)
			os.Exit(1)
		}
	}

	transform, ok := cal.Transform()
	if !ok {
		fmt.Fprintln(os.Stderr, "Calibration failed: points are insufficient, identical, or collinear")
		os.Exit(1)
	}

	fmt.Printf("\n=== Transform ===\n")
	fmt.Printf("lat = %+.8g*x %+.8g*y %+.8g\n", transform.A, transform.B, transform.C)
	fmt.Printf("lng = %+.8g*x %+.8g*y %+.8g\n", transform.D, transform.E, transform.F)
	rotation := math.Atan2(transform.A, transform.B) * 180 / math.Pi
	fmt.Printf("Rotation: %.4f°\n", rotation)

	fmt.Printf("\n=== Residuals ===\n")
	fmt.Printf("%-4s %24s %24s %12s\n", "#", "Pixel", "Geo", "Error (px)")
	var worst float64
	for i, ref := range refs {
		var errPx float64
		if p, ok := transform.GeoToPixel(ref.Geo); ok {
			errPx = p.Distance(ref.Pixel)
		} else {
			errPx = math.NaN()
		}
		if errPx > worst {
			worst = errPx
		}
		fmt.Printf("%-4d %11.2f,%11.2f %11.6f,%11.6f %12.4f\n",
			i+1, ref.Pixel.X, ref.Pixel.Y, ref.Geo.Lat, ref.Geo.Lng, errPx)
	}
	fmt.Printf("Worst: %.4f px\n", worst)

	if len(refs) >= 2 {
		fmt.Printf("\n=== Distances ===\n")
		for i := 1; i < len(refs); i++ {
			meters := geomath.Distance(refs[i-1].Geo, refs[i].Geo)
			fmt.Printf("Point %d to %d: %.1f m\n", i, i+1, meters)
		}
	}

	if *rectifyOut != "" {
		if *mapFile == "" {
			fmt.Fprintln(os.Stderr, "-rectify requires -map")
			os.Exit(1)
		}
		if err := rectify(*mapFile, *rectifyOut, transform, *maxDim); err != nil {
			fmt.Fprintf(os.Stderr, "Rectification failed: %v\n", err)
			os.Exit(1)
		}
	}
}

func readPoints(path string) ([]calibrate.ReferencePoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var refs []calibrate.ReferencePoint
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("line %d: want 4 fields, got %d", lineNo, len(fields))
		}
		var vals [4]float64
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			vals[i] = v
		}
		refs = append(refs, calibrate.ReferencePoint{
			Pixel: geomath.NewPixelPoint(vals[0], vals[1]),
			Geo:   geomath.NewGeoPoint(vals[2], vals[3]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return refs, nil
}

func rectify(mapPath, outPath string, t geomath.AffineTransform, maxDim int) error {
	f, err := os.Open(mapPath)
	if err != nil {
		return err
	}
	src, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decode %s: %w", mapPath, err)
	}

	fmt.Printf("\n=== Rectifying %s ===\n", mapPath)
	result, err := warp.RectifyNorthUp(src, t, maxDim)
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := png.Encode(out, result.Image); err != nil {
		return err
	}

	fmt.Printf("Wrote %dx%d north-up image to %s\n", result.Width, result.Height, outPath)
	fmt.Printf("Output transform: %.6f°/px lng, %.6f°/px lat\n",
		result.Transform.D, -result.Transform.B)
	return nil
}
