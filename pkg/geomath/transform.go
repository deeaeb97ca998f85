package geomath

import (
	"math"
)

// singularTolerance is the determinant magnitude below which the linear part
// of a transform is treated as non-invertible.
const singularTolerance = 1e-10

// AffineTransform maps pixel coordinates to geographic coordinates:
//
//	lat = A*x + B*y + C
//	lng = D*x + E*y + F
//
// The zero value is not a valid transform; obtain one from a calibrator.
type AffineTransform struct {
	A, B, C float64
	D, E, F float64
}

// PixelToGeo applies the forward mapping.
func (t AffineTransform) PixelToGeo(p PixelPoint) GeoPoint {
	return GeoPoint{
		Lat: t.A*p.X + t.B*p.Y + t.C,
		Lng: t.D*p.X + t.E*p.Y + t.F,
	}
}

// GeoToPixel inverts the 2x2 linear part and solves for the pixel position.
// Returns false when the linear part is singular within tolerance.
func (t AffineTransform) GeoToPixel(g GeoPoint) (PixelPoint, bool) {
	det := t.A*t.E - t.B*t.D
	if math.Abs(det) < singularTolerance {
		return PixelPoint{}, false
	}

	// Cramer's rule on [A B; D E] * [x y]^T = [lat-C, lng-F]^T
	u := g.Lat - t.C
	v := g.Lng - t.F
	return PixelPoint{
		X: (u*t.E - t.B*v) / det,
		Y: (t.A*v - u*t.D) / det,
	}, true
}

// Invertible reports whether GeoToPixel can succeed.
func (t AffineTransform) Invertible() bool {
	return math.Abs(t.A*t.E-t.B*t.D) >= singularTolerance
}
