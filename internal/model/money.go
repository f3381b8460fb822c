package model

import (
	"fmt"
	"math"
)

// All account money is int64 cents. Rounding happens exactly once per
// operation, at the float→cents boundary, so repeated bookkeeping cannot
// drift.

// Cents converts a float amount (e.g. 103.75) to cents, rounding to the
// nearest cent.
func Cents(v float64) int64 {
	return int64(math.Round(v * 100))
}

// CentsToFloat converts cents back to a float amount for display and ratios.
func CentsToFloat(c int64) float64 {
	return float64(c) / 100
}

// FormatCents renders cents as a fixed two-decimal string, e.g. "103.75".
func FormatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
