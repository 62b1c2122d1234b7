package xmod

import "github.com/cwbudde/algo-modular/dsp/fixed"

const (
	// chebyshevDegree is the highest polynomial order reachable via p1.
	chebyshevDegree = 16
	// chebyshevMinGain keeps the pre-gain away from zero so the final
	// renormalization cannot divide by zero or blow up.
	chebyshevMinGain = 64

	comboScale = 26214 // 0.8 in Q1.15
)

// Chebyshev shapes the saturated sum of both inputs through Chebyshev
// polynomials. p1 picks the order (integer part) and morphs toward the
// next order (fraction); p2 is a bipolar pre-gain whose magnitude is
// compensated on the way out.
func Chebyshev(x1, x2, p1, p2 fixed.Q15) fixed.Q15 {
	x := satQ15(int32(x1) + int32(x2))

	// Bipolar p2 to unipolar magnitude, clamped away from zero.
	p2mag := (int32(p2) + fixed.One) >> 1
	if p2mag < chebyshevMinGain {
		p2mag = chebyshevMinGain
	}
	if p2mag > fixed.One {
		p2mag = fixed.One
	}

	gain := p2mag << 1
	if gain > 2*fixed.One-1 {
		gain = 2*fixed.One - 1
	}
	x = satQ15(int32((int64(x) * int64(gain)) >> 15))

	n := int32(p1) << 4
	nInt := n >> 15
	if nInt < 0 {
		nInt = 0
	} else if nInt > chebyshevDegree {
		nInt = chebyshevDegree
	}
	nFrac := n & 0x7FFF

	// T1(x) = x, T2(x) = 2x^2 - 1; walk the recurrence up to the order.
	tPrev := x
	tCur := satQ15(mulQ15(x, x)<<1 - fixed.One)
	for steps := nInt - 1; steps > 0; steps-- {
		tNext := satQ15(mulQ15(x, tCur)<<1 - tPrev)
		tPrev, tCur = tCur, tNext
	}

	out := tPrev + mulQ15(tCur-tPrev, nFrac)

	// Undo the pre-gain, halve, saturate.
	out = int32((int64(out) << 15) / int64(p2mag))
	out >>= 1
	return fixed.Q15(satQ15(out))
}

// ComparatorChebyshev runs the comparator morph into a full-order
// Chebyshev stage and scales the result by 0.8.
func ComparatorChebyshev(mod, car, p1, p2 fixed.Q15) fixed.Q15 {
	comp := Comparator(mod, car, p1)
	cheb := Chebyshev(comp, 0, fixed.One, p2)
	return fixed.Q15(mulQ15(int32(cheb), comboScale))
}
