package models

import "math"

// SafeRatio returns num/den, or 0 when den is zero. Used for shares and
// ratios where an empty denominator means "nothing observed".
func SafeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// NaNRatio returns num/den, or NaN when den is zero. Used where a zero
// denominator leaves the ratio undefined rather than empty.
func NaNRatio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}
