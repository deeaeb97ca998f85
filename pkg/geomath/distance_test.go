package geomath

import (
	"math"
	"testing"
)

func TestDistanceKnownValues(t *testing.T) {
	tests := []struct {
		name       string
		p1, p2     GeoPoint
		wantMeters float64
		tolerance  float64 // relative
	}{
		{"Berlin-Paris", GeoPoint{52.5200, 13.4050}, GeoPoint{48.8566, 2.3522}, 877000, 0.01},
		{"one degree along equator", GeoPoint{0, 0}, GeoPoint{0, 1}, 111195, 0.001},
		{"one degree of latitude", GeoPoint{10, 20}, GeoPoint{11, 20}, 111195, 0.001},
		{"antimeridian crossing", GeoPoint{0, 179.5}, GeoPoint{0, -179.5}, 111195, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.p1, tt.p2)
			if math.Abs(got-tt.wantMeters) > tt.wantMeters*tt.tolerance {
				t.Errorf("Distance = %.0f m, want %.0f m (±%.1f%%)",
					got, tt.wantMeters, tt.tolerance*100)
			}
		})
	}
}

func TestDistanceProperties(t *testing.T) {
	points := []GeoPoint{
		{0, 0},
		{52.52, 13.405},
		{-33.8688, 151.2093},
		{89.9, -170},
	}

	for _, p := range points {
		if d := Distance(p, p); d != 0 {
			t.Errorf("Distance(%v, %v) = %v, want 0", p, p, d)
		}
	}

	for i, p := range points {
		for _, q := range points[i+1:] {
			dpq := Distance(p, q)
			dqp := Distance(q, p)
			if math.Abs(dpq-dqp) > 1e-9 {
				t.Errorf("asymmetric: d(%v,%v)=%v d(%v,%v)=%v", p, q, dpq, q, p, dqp)
			}
			if dpq <= 0 {
				t.Errorf("Distance(%v, %v) = %v, want > 0", p, q, dpq)
			}
		}
	}
}
