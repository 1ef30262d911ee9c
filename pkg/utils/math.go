package utils

import "math"

// Min returns the minimum of two integers.
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// RoundKm rounds a distance to two decimal places for storage and display.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}

// Ptr returns a pointer to v. Handy for nullable columns and test fixtures.
func Ptr[T any](v T) *T {
	return &v
}
