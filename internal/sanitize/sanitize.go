// Package sanitize normalizes loosely-typed numeric input arriving from
// upstream JSON. Malformed values degrade to safe defaults instead of
// raising, so one bad field never aborts an underwriting pass and no
// NaN/Infinity can leak into any output.
package sanitize

import "math"

// Amount returns a finite, non-negative dollar amount. nil, NaN, ±Inf, and
// negative values all sanitize to 0.
func Amount(v *float64) float64 {
	if v == nil {
		return 0
	}
	f := *v
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// Number returns the value and whether it was a usable finite number.
// Unlike Amount, negative values are preserved; only nil/NaN/Inf are
// rejected.
func Number(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	f := *v
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Year returns the install year and whether it was usable. Zero and
// negative years are treated as absent.
func Year(v *int) (int, bool) {
	if v == nil || *v <= 0 {
		return 0, false
	}
	return *v, true
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NoNegZero maps IEEE negative zero to positive zero so negated totals
// serialize as 0, not -0.
func NoNegZero(v float64) float64 {
	if v == 0 {
		return 0
	}
	return v
}
