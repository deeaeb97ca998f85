// Package calibrate derives the pixel-to-geographic affine calibration from
// user-supplied reference points.
package calibrate

import (
	"errors"
	"math"
)

// pivotTolerance is the magnitude below which a pivot is treated as zero.
const pivotTolerance = 1e-10

var (
	// ErrSingularMatrix means the linear system has no unique solution;
	// calibration is not possible with the current reference points.
	ErrSingularMatrix = errors.New("singular matrix")

	// ErrInsufficientPoints means fewer than two reference points exist.
	ErrInsufficientPoints = errors.New("insufficient reference points")

	// ErrDegenerateInput means the reference points coincide in pixel space.
	ErrDegenerateInput = errors.New("degenerate reference points")
)

// solveLinear solves the square system a*x = b by Gaussian elimination with
// partial pivoting. The inputs are copied, not mutated. Partial pivoting
// matters here: reference points clicked close together or nearly collinear
// produce badly conditioned systems, and naive elimination falls over on them.
func solveLinear(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)

	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		copy(m[i], a[i])
	}
	x := make([]float64, n)
	copy(x, b)

	for col := 0; col < n; col++ {
		// Pick the row at or below the diagonal with the largest magnitude.
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(m[pivot][col]) < pivotTolerance {
			return nil, ErrSingularMatrix
		}
		if pivot != col {
			m[col], m[pivot] = m[pivot], m[col]
			x[col], x[pivot] = x[pivot], x[col]
		}

		// Eliminate below the pivot.
		for row := col + 1; row < n; row++ {
			factor := m[row][col] / m[col][col]
			if factor == 0 {
				continue
			}
			for k := col; k < n; k++ {
				m[row][k] -= factor * m[col][k]
			}
			x[row] -= factor * x[col]
		}
	}

	// Back-substitution.
	for row := n - 1; row >= 0; row-- {
		sum := x[row]
		for k := row + 1; k < n; k++ {
			sum -= m[row][k] * x[k]
		}
		x[row] = sum / m[row][row]
	}

	return x, nil
}
