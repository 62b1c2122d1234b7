//go:build !fastmath

package xmod

import "math"

// mathExp computes e^x using standard library math.
func mathExp(x float64) float64 {
	return math.Exp(x)
}

// mathExp2 computes 2^x using standard library math.
func mathExp2(x float64) float64 {
	return math.Exp2(x)
}
