package calibrate

import (
	"fmt"

	"map-georef/pkg/geomath"
)

// fitAffine fits the full 6-parameter affine map from at least three
// reference points. Each geographic axis is fitted independently as
// value = p*x + q*y + r by the normal equations: the design matrix rows are
// [x, y, 1], and A^T*A (3x3) and A^T*b are accumulated by summation, so the
// system size stays fixed no matter how many points the user adds. Normal
// equations are enough at this scale; n is a handful of clicks and the
// pivoting solver bounds the conditioning.
func fitAffine(refs []ReferencePoint) (geomath.AffineTransform, error) {
	if len(refs) < 3 {
		return geomath.AffineTransform{}, fmt.Errorf("affine fit needs at least 3 points, got %d: %w",
			len(refs), ErrInsufficientPoints)
	}

	lat, err := fitAxis(refs, func(r ReferencePoint) float64 { return r.Geo.Lat })
	if err != nil {
		return geomath.AffineTransform{}, err
	}
	lng, err := fitAxis(refs, func(r ReferencePoint) float64 { return r.Geo.Lng })
	if err != nil {
		return geomath.AffineTransform{}, err
	}

	return geomath.AffineTransform{
		A: lat[0], B: lat[1], C: lat[2],
		D: lng[0], E: lng[1], F: lng[2],
	}, nil
}

// fitAxis solves the normal equations for one geographic axis and returns the
// three coefficients [p, q, r].
func fitAxis(refs []ReferencePoint, value func(ReferencePoint) float64) ([]float64, error) {
	ata := [][]float64{
		make([]float64, 3),
		make([]float64, 3),
		make([]float64, 3),
	}
	atb := make([]float64, 3)

	for _, r := range refs {
		row := [3]float64{r.Pixel.X, r.Pixel.Y, 1}
		v := value(r)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				ata[i][j] += row[i] * row[j]
			}
			atb[i] += row[i] * v
		}
	}

	return solveLinear(ata, atb)
}
