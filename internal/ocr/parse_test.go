package ocr

import (
	"math"
	"testing"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		label string
		want  float64
	}{
		{"13.405", 13.405},
		{"-52.52", -52.52},
		{"+8.5", 8.5},
		{"52°31'12\"N", 52.52},
		{"52°31'12\"S", -52.52},
		{"8° 30' E", 8.5},
		{"8° 30' W", -8.5},
		{"W 8° 30'", -8.5},
		{"52 31 12", 52.52},
		{"11.5 W", -11.5},
		{"N52.52", 52.52},
		{"0", 0},
		{"13,405", 13.405}, // decimal comma on continental maps
		{"52° 30.6' N", 52.51},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseCoordinate(tt.label)
			if err != nil {
				t.Fatalf("ParseCoordinate(%q) failed: %v", tt.label, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseCoordinate(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestParseCoordinateInvalid(t *testing.T) {
	labels := []string{
		"",
		"   ",
		"NORTH",
		"52°31'12\"7\"", // four fields
		"1a.5",
		"12 -30",
	}

	for _, label := range labels {
		if _, err := ParseCoordinate(label); err == nil {
			t.Errorf("ParseCoordinate(%q) succeeded, want error", label)
		}
	}
}
