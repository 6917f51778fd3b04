package utils

import "math"

// Round2 rounds an amount to two decimal places (cents).
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
