package ocr

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCoordinate converts a printed coordinate label to decimal degrees.
// Accepted forms include decimal ("13.405", "-52.52") and degree/minute/
// second notation with optional hemisphere letter:
//
//	52°31'12"N    8° 30' E    52 31 12 S    11.5 W
//
// S and W hemispheres negate the value, as does a leading minus sign.
func ParseCoordinate(label string) (float64, error) {
	s := strings.ToUpper(strings.TrimSpace(label))
	if s == "" {
		return 0, fmt.Errorf("empty coordinate")
	}

	sign := 1.0

	// Hemisphere letter may lead or trail.
	switch {
	case strings.HasSuffix(s, "S"), strings.HasSuffix(s, "W"):
		sign = -1
		s = strings.TrimSpace(s[:len(s)-1])
	case strings.HasSuffix(s, "N"), strings.HasSuffix(s, "E"):
		s = strings.TrimSpace(s[:len(s)-1])
	case strings.HasPrefix(s, "S"), strings.HasPrefix(s, "W"):
		sign = -1
		s = strings.TrimSpace(s[1:])
	case strings.HasPrefix(s, "N"), strings.HasPrefix(s, "E"):
		s = strings.TrimSpace(s[1:])
	}

	if strings.HasPrefix(s, "-") {
		sign = -sign
		s = strings.TrimSpace(s[1:])
	} else if strings.HasPrefix(s, "+") {
		s = strings.TrimSpace(s[1:])
	}

	// Normalize degree/minute/second marks and decimal commas to spaces so
	// the remainder splits into at most three numeric fields.
	s = strings.ReplaceAll(s, ",", ".")
	for _, mark := range []string{"°", "′", "″", "'", "\""} {
		s = strings.ReplaceAll(s, mark, " ")
	}

	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields) > 3 {
		return 0, fmt.Errorf("unrecognized coordinate format %q", label)
	}

	divisors := [3]float64{1, 60, 3600}
	var value float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, fmt.Errorf("unrecognized coordinate format %q", label)
		}
		if n < 0 {
			return 0, fmt.Errorf("unexpected sign inside coordinate %q", label)
		}
		value += n / divisors[i]
	}

	return sign * value, nil
}
