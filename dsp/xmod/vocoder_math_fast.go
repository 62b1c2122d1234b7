//go:build fastmath

package xmod

import "github.com/meko-christian/algo-approx"

// ln2 is the natural logarithm of 2, used for exponent base conversion.
const ln2 = 0.693147180559945309417232121458

// mathExp computes e^x using fast approximation.
func mathExp(x float64) float64 {
	return approx.FastExp(x)
}

// mathExp2 computes 2^x using fast approximation.
// Uses the identity: 2^x = e^(x * ln(2))
func mathExp2(x float64) float64 {
	return approx.FastExp(x * ln2)
}
