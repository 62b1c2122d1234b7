package xmod

import "github.com/cwbudde/algo-modular/dsp/fixed"

// comparatorThreshold gates the carrier at 0.05 in the threshold ops.
const comparatorThreshold = 1638

// Comparator morphs across four comparison ops with p: min of the
// inputs, a threshold gate on the carrier, the larger-magnitude input,
// and the signed magnitude choice |mod| vs -|car|.
func Comparator(mod, car, p fixed.Q15) fixed.Q15 {
	m, c := int32(mod), int32(car)

	direct := m
	if c < m {
		direct = c
	}

	threshold := m
	if c > comparatorThreshold {
		threshold = c
	}

	am, ac := absInt32(m), absInt32(c)

	window := c
	if am > ac {
		window = m
	}

	window2 := -ac
	if am > ac {
		window2 = am
	}

	x := int32(p) * 3
	idx := x >> 15
	if idx < 0 {
		idx = 0
	} else if idx > 2 {
		idx = 2
	}
	frac := x - idx<<15
	if frac < 0 {
		frac = 0
	} else if frac > int32(fixed.One) {
		frac = int32(fixed.One)
	}

	seq := [4]int32{direct, threshold, window, window2}
	a := seq[idx]
	b := seq[idx+1]
	// window2 is |mod|, which is One for the most negative input; the
	// morph can land on it exactly, so the result needs a final clamp.
	return fixed.Q15(satQ15(a + mulQ15(b-a, frac)))
}

// Comparator8 morphs across seven segments of paired comparison ops.
// Adjacent segments share an op, so the morph is continuous in p.
func Comparator8(mod, car, p fixed.Q15) fixed.Q15 {
	m, c := int32(mod), int32(car)
	am, ac := absInt32(m), absInt32(c)

	x := int32(p) * 7
	idx := x >> 15
	if idx < 0 {
		idx = 0
	} else if idx > 6 {
		idx = 6
	}
	frac := x - idx<<15
	if frac < 0 {
		frac = 0
	} else if frac > int32(fixed.One) {
		frac = int32(fixed.One)
	}

	var y1, y2 int32
	switch idx {
	case 0:
		y1 = satQ15(m + c)
		y2 = minInt32(m, c)
	case 1:
		y1 = minInt32(m, c)
		y2 = satQ15(maxInt32(am, ac)<<1 - fixed.One)
	case 2:
		y1 = satQ15(maxInt32(am, ac)<<1 - fixed.One)
		y2 = m
		if m < c {
			y2 = -c
		}
	case 3:
		y1 = m
		if m < c {
			y1 = -c
		}
		y2 = c
		if am > ac {
			y2 = m
		}
	case 4:
		y1 = c
		if am > ac {
			y1 = m
		}
		y2 = -ac
		if am > ac {
			y2 = am
		}
	case 5:
		y1 = -ac
		if am > ac {
			y1 = am
		}
		y2 = m
		if c > comparatorThreshold {
			y2 = c
		}
	default:
		y1 = m
		if c > comparatorThreshold {
			y1 = c
		}
		y2 = -am
		if c > comparatorThreshold {
			y2 = c
		}
	}

	return fixed.Q15(y1 + mulQ15(y2-y1, frac))
}

func minInt32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func maxInt32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
