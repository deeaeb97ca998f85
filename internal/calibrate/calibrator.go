package calibrate

import (
	"errors"
	"fmt"
	"math"

	"map-georef/pkg/geomath"
)

// ReferencePoint pairs a clicked pixel position with its known geographic
// coordinate.
type ReferencePoint struct {
	Pixel geomath.PixelPoint `json:"pixel"`
	Geo   geomath.GeoPoint   `json:"geo"`
}

// Calibrator owns the reference point set and the transform derived from it.
// Every addition or removal triggers a full refit; the transform is a pure
// function of the current set. Not safe for concurrent use; a calibration
// session has one owner.
type Calibrator struct {
	refs       []ReferencePoint
	transform  geomath.AffineTransform
	calibrated bool
}

// NewCalibrator creates an empty, uncalibrated Calibrator.
func NewCalibrator() *Calibrator {
	return &Calibrator{}
}

// AddReference appends a reference point and refits. The returned error is
// ErrInsufficientPoints while fewer than two points exist (the state is
// simply uncalibrated, nothing to report to the user), or a singular/
// degenerate fit error, in which case the calibrator reverts to uncalibrated.
func (c *Calibrator) AddReference(pixel geomath.PixelPoint, geo geomath.GeoPoint) error {
	c.refs = append(c.refs, ReferencePoint{Pixel: pixel, Geo: geo})
	return c.refit()
}

// RemoveReference removes the reference point at index i and refits.
func (c *Calibrator) RemoveReference(i int) error {
	if i < 0 || i >= len(c.refs) {
		return fmt.Errorf("reference index %d out of range [0,%d)", i, len(c.refs))
	}
	c.refs = append(c.refs[:i], c.refs[i+1:]...)
	return c.refit()
}

// Reset clears all reference points and returns to the uncalibrated state.
func (c *Calibrator) Reset() {
	c.refs = nil
	c.calibrated = false
	c.transform = geomath.AffineTransform{}
}

// Transform returns the current transform, or false while uncalibrated.
func (c *Calibrator) Transform() (geomath.AffineTransform, bool) {
	return c.transform, c.calibrated
}

// Calibrated reports whether a valid transform exists.
func (c *Calibrator) Calibrated() bool {
	return c.calibrated
}

// References returns a copy of the current reference point set.
func (c *Calibrator) References() []ReferencePoint {
	out := make([]ReferencePoint, len(c.refs))
	copy(out, c.refs)
	return out
}

// Count returns the number of reference points.
func (c *Calibrator) Count() int {
	return len(c.refs)
}

// Residuals returns the per-point pixel error of the current transform:
// for each reference, the distance between its pixel position and the
// inverse-mapped position of its geographic coordinate. Returns false while
// uncalibrated or when the transform cannot be inverted.
func (c *Calibrator) Residuals() ([]float64, bool) {
	if !c.calibrated {
		return nil, false
	}
	out := make([]float64, len(c.refs))
	for i, r := range c.refs {
		p, ok := c.transform.GeoToPixel(r.Geo)
		if !ok {
			return nil, false
		}
		out[i] = p.Distance(r.Pixel)
	}
	return out, true
}

// refit recomputes the transform from the current reference set. Two points
// get the axis-aligned shortcut; three or more get the full least-squares
// affine. Any failure leaves the calibrator uncalibrated.
func (c *Calibrator) refit() error {
	c.calibrated = false
	c.transform = geomath.AffineTransform{}

	var (
		t   geomath.AffineTransform
		err error
	)
	switch {
	case len(c.refs) < 2:
		return ErrInsufficientPoints
	case len(c.refs) == 2:
		t, err = fitTwoPoint(c.refs[0], c.refs[1])
	default:
		t, err = fitAffine(c.refs)
	}
	if err != nil {
		return err
	}

	c.transform = t
	c.calibrated = true
	return nil
}

// fitTwoPoint is the closed-form two-point calibration. Two points cannot
// determine six unknowns, so the mapping is assumed axis-aligned with
// independent per-axis scale and no rotation or shear: latitude varies only
// with y, longitude only with x. The three-point path replaces this with the
// general model; keep the asymmetry, callers depend on it.
func fitTwoPoint(r1, r2 ReferencePoint) (geomath.AffineTransform, error) {
	dx := r2.Pixel.X - r1.Pixel.X
	dy := r2.Pixel.Y - r1.Pixel.Y

	if math.Abs(dx) < pivotTolerance && math.Abs(dy) < pivotTolerance {
		return geomath.AffineTransform{}, fmt.Errorf("two-point calibration: %w", ErrDegenerateInput)
	}

	scaleLat := (r2.Geo.Lat - r1.Geo.Lat) / dy
	scaleLng := (r2.Geo.Lng - r1.Geo.Lng) / dx

	return geomath.AffineTransform{
		A: 0,
		B: scaleLat,
		C: r1.Geo.Lat - scaleLat*r1.Pixel.Y,
		D: scaleLng,
		E: 0,
		F: r1.Geo.Lng - scaleLng*r1.Pixel.X,
	}, nil
}

// IsNotCalibratable reports whether err is one of the expected "calibration
// not possible with these points" conditions rather than a programming error.
func IsNotCalibratable(err error) bool {
	return errors.Is(err, ErrSingularMatrix) ||
		errors.Is(err, ErrInsufficientPoints) ||
		errors.Is(err, ErrDegenerateInput)
}
