package calibrate

import (
	"errors"
	"math"
	"testing"

	"map-georef/pkg/geomath"
)

func TestCalibratorStateTransitions(t *testing.T) {
	c := NewCalibrator()

	if c.Calibrated() {
		t.Fatal("new calibrator should be uncalibrated")
	}

	err := c.AddReference(geomath.PixelPoint{X: 100, Y: 100}, geomath.GeoPoint{Lat: 50, Lng: 8})
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Errorf("after 1 point: got err %v, want ErrInsufficientPoints", err)
	}
	if c.Calibrated() {
		t.Error("calibrated after a single point")
	}

	if err := c.AddReference(geomath.PixelPoint{X: 500, Y: 400}, geomath.GeoPoint{Lat: 49, Lng: 9}); err != nil {
		t.Fatalf("two-point calibration failed: %v", err)
	}
	if !c.Calibrated() {
		t.Error("uncalibrated after two distinct points")
	}

	c.Reset()
	if c.Calibrated() || c.Count() != 0 {
		t.Error("reset did not clear the calibrator")
	}
	if _, ok := c.Transform(); ok {
		t.Error("Transform returned ok after reset")
	}
}

func TestTwoPointCalibration(t *testing.T) {
	c := NewCalibrator()

	p1 := geomath.PixelPoint{X: 100, Y: 600}
	g1 := geomath.GeoPoint{Lat: 48.0, Lng: 11.0}
	p2 := geomath.PixelPoint{X: 900, Y: 100}
	g2 := geomath.GeoPoint{Lat: 48.5, Lng: 11.8}

	if err := c.AddReference(p1, g1); !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.AddReference(p2, g2); err != nil {
		t.Fatalf("AddReference failed: %v", err)
	}

	tr, ok := c.Transform()
	if !ok {
		t.Fatal("no transform after two points")
	}

	// The restricted model has no rotation or shear terms.
	if tr.A != 0 || tr.E != 0 {
		t.Errorf("two-point model should be axis-aligned: A=%v E=%v", tr.A, tr.E)
	}

	// Each input reproduces its own coordinate.
	for _, ref := range []ReferencePoint{{p1, g1}, {p2, g2}} {
		got := tr.PixelToGeo(ref.Pixel)
		if math.Abs(got.Lat-ref.Geo.Lat) > 1e-9 || math.Abs(got.Lng-ref.Geo.Lng) > 1e-9 {
			t.Errorf("PixelToGeo(%v) = %v, want %v", ref.Pixel, got, ref.Geo)
		}
	}

	// Round trip at an arbitrary position.
	p := geomath.PixelPoint{X: 321.5, Y: 234.75}
	back, ok := tr.GeoToPixel(tr.PixelToGeo(p))
	if !ok {
		t.Fatal("GeoToPixel failed on non-degenerate transform")
	}
	if math.Abs(back.X-p.X) > 1e-6 || math.Abs(back.Y-p.Y) > 1e-6 {
		t.Errorf("round trip of %v: got %v", p, back)
	}
}

func TestTwoPointDegenerate(t *testing.T) {
	c := NewCalibrator()

	pixel := geomath.PixelPoint{X: 250, Y: 250}
	if err := c.AddReference(pixel, geomath.GeoPoint{Lat: 50, Lng: 8}); !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same pixel, different geo: no pixel delta to derive a scale from.
	err := c.AddReference(pixel, geomath.GeoPoint{Lat: 51, Lng: 9})
	if !errors.Is(err, ErrDegenerateInput) {
		t.Errorf("got err %v, want ErrDegenerateInput", err)
	}
	if c.Calibrated() {
		t.Error("calibrated from coincident pixels")
	}
	if _, ok := c.Transform(); ok {
		t.Error("Transform returned ok for degenerate input")
	}
}

// TestThirdPointSwitchesModel verifies that adding a third reference point
// replaces the restricted axis-aligned model with the general affine fit:
// on rotated data the cross terms A and E move off zero.
func TestThirdPointSwitchesModel(t *testing.T) {
	// A map rotated ~30 degrees: every coefficient of the true transform is
	// nonzero.
	truth := geomath.AffineTransform{
		A: 0.00026, B: -0.00045, C: 46.0,
		D: 0.00044, E: 0.00025, F: 7.0,
	}
	pixels := []geomath.PixelPoint{{X: 100, Y: 100}, {X: 800, Y: 200}, {X: 300, Y: 700}}

	c := NewCalibrator()
	for i, p := range pixels[:2] {
		if err := c.AddReference(p, truth.PixelToGeo(p)); err != nil && i > 0 {
			t.Fatalf("AddReference failed: %v", err)
		}
	}

	tr, ok := c.Transform()
	if !ok {
		t.Fatal("no transform after two points")
	}
	if tr.A != 0 || tr.E != 0 {
		t.Fatalf("two-point model not axis-aligned: A=%v E=%v", tr.A, tr.E)
	}

	if err := c.AddReference(pixels[2], truth.PixelToGeo(pixels[2])); err != nil {
		t.Fatalf("three-point refit failed: %v", err)
	}
	tr, ok = c.Transform()
	if !ok {
		t.Fatal("no transform after three points")
	}
	if tr.A == 0 || tr.E == 0 {
		t.Errorf("full affine fit left cross terms at zero: A=%v E=%v", tr.A, tr.E)
	}
	if math.Abs(tr.A-truth.A) > 1e-9 || math.Abs(tr.E-truth.E) > 1e-9 {
		t.Errorf("exact-fit recovery: A=%v want %v, E=%v want %v", tr.A, truth.A, tr.E, truth.E)
	}
}

func TestCollinearPointsUncalibrated(t *testing.T) {
	c := NewCalibrator()

	pts := []geomath.PixelPoint{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 20, Y: 20}}
	var lastErr error
	for i, p := range pts {
		lastErr = c.AddReference(p, geomath.GeoPoint{Lat: 50 + float64(i), Lng: 8 + float64(i)})
	}

	if !errors.Is(lastErr, ErrSingularMatrix) {
		t.Errorf("got err %v, want ErrSingularMatrix", lastErr)
	}
	if c.Calibrated() {
		t.Error("calibrated from collinear pixels")
	}
	if c.Count() != 3 {
		t.Errorf("reference set should survive a failed fit, got %d points", c.Count())
	}
}

func TestRemoveReferenceRefits(t *testing.T) {
	truth := geomath.AffineTransform{
		A: 0.0001, B: -0.0002, C: 50, D: 0.0003, E: 0.0004, F: 8,
	}
	pixels := []geomath.PixelPoint{{X: 0, Y: 0}, {X: 500, Y: 100}, {X: 200, Y: 600}, {X: 700, Y: 700}}

	c := NewCalibrator()
	for _, p := range pixels {
		_ = c.AddReference(p, truth.PixelToGeo(p))
	}
	if !c.Calibrated() {
		t.Fatal("four-point calibration failed")
	}

	// Dropping to three points keeps the full affine model.
	if err := c.RemoveReference(3); err != nil {
		t.Fatalf("RemoveReference failed: %v", err)
	}
	tr, ok := c.Transform()
	if !ok {
		t.Fatal("uncalibrated after removal with three points left")
	}
	if math.Abs(tr.A-truth.A) > 1e-9 {
		t.Errorf("A = %v, want %v", tr.A, truth.A)
	}

	// Dropping to two switches back to the restricted model.
	if err := c.RemoveReference(2); err != nil {
		t.Fatalf("RemoveReference failed: %v", err)
	}
	tr, ok = c.Transform()
	if !ok {
		t.Fatal("uncalibrated after removal with two points left")
	}
	if tr.A != 0 || tr.E != 0 {
		t.Errorf("expected restricted model after removal: A=%v E=%v", tr.A, tr.E)
	}

	// Dropping to one point is plain uncalibrated.
	if err := c.RemoveReference(1); !errors.Is(err, ErrInsufficientPoints) {
		t.Errorf("got err %v, want ErrInsufficientPoints", err)
	}
	if c.Calibrated() {
		t.Error("calibrated with one point")
	}

	if err := c.RemoveReference(5); err == nil {
		t.Error("RemoveReference accepted out-of-range index")
	}
}

func TestRefitIsDeterministic(t *testing.T) {
	pixels := []geomath.PixelPoint{{X: 10, Y: 20}, {X: 400, Y: 60}, {X: 120, Y: 500}}
	geos := []geomath.GeoPoint{{Lat: 50.1, Lng: 8.2}, {Lat: 50.3, Lng: 8.9}, {Lat: 49.8, Lng: 8.4}}

	fit := func() geomath.AffineTransform {
		c := NewCalibrator()
		for i := range pixels {
			_ = c.AddReference(pixels[i], geos[i])
		}
		tr, ok := c.Transform()
		if !ok {
			t.Fatal("calibration failed")
		}
		return tr
	}

	first := fit()
	second := fit()
	if first != second {
		t.Errorf("refit not deterministic: %+v vs %+v", first, second)
	}
}

func TestResiduals(t *testing.T) {
	truth := geomath.AffineTransform{
		A: 0.0002, B: -0.0001, C: 51, D: 0.0004, E: 0.0003, F: 9,
	}
	pixels := []geomath.PixelPoint{{X: 50, Y: 50}, {X: 600, Y: 80}, {X: 300, Y: 450}}

	c := NewCalibrator()
	for _, p := range pixels {
		_ = c.AddReference(p, truth.PixelToGeo(p))
	}

	res, ok := c.Residuals()
	if !ok {
		t.Fatal("Residuals failed on calibrated set")
	}
	for i, r := range res {
		if r > 1e-6 {
			t.Errorf("residual[%d] = %v px on exact-fit data", i, r)
		}
	}

	c.Reset()
	if _, ok := c.Residuals(); ok {
		t.Error("Residuals returned ok while uncalibrated")
	}
}
