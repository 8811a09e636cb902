package utils

import "math"

// Round2 rounds x to 2 decimal places (half away from zero). Invoice
// math itself runs on decimals in the billing package; this is for the
// float64 edges (DTO normalization, payment rollups).
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
