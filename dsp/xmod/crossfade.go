package xmod

import "github.com/cwbudde/algo-modular/dsp/fixed"

// Crossfade blends x1 toward x2 as p rises from 0 to One. p is clamped
// to [0, One]; the result is saturated.
func Crossfade(x1, x2, p fixed.Q15) fixed.Q15 {
	p = fixed.Clamp(p, 0, fixed.One)
	a := (int64(x1) * int64(fixed.One-p)) >> 15
	b := (int64(x2) * int64(p)) >> 15
	return fixed.Sat(fixed.Q15(a + b))
}
