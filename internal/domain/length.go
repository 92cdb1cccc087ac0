package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const pixelsPerInch = 96.0

var unitToPixels = map[string]float64{
	"px": 1,
	"in": pixelsPerInch,
	"cm": 37.8,
	"mm": 3.78,
}

// ParseLength converts a CSS-style length ("20px", "1in", "2.5cm", "10mm", "15")
// to inches. A bare number is read as pixels and the empty string is zero.
func ParseLength(s string) (float64, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return 0, nil
	}

	factor := 1.0
	valueText := text
	if len(text) > 2 {
		if f, ok := unitToPixels[strings.ToLower(text[len(text)-2:])]; ok {
			factor = f
			valueText = strings.TrimSpace(text[:len(text)-2])
		}
	}

	v, err := strconv.ParseFloat(valueText, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: cannot parse length %q", ErrInvalidInput, s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative length %q", ErrInvalidInput, s)
	}
	return v * factor / pixelsPerInch, nil
}
