package xmod

import "github.com/cwbudde/algo-modular/dsp/fixed"

// foldBaseGain keeps a trace of signal through the folder at p1 = 0.
const foldBaseGain = 655 // 0.02 in Q1.15

// Reflect folds a value back into Q1.15 range by mirroring at the rails.
// Each pass strictly reduces the excess, so the loop terminates for any
// int32 input.
func Reflect(x int32) fixed.Q15 {
	for x > fixed.Max {
		x = 2*fixed.Max - x
	}
	for x < fixed.Min {
		x = 2*fixed.Min - x
	}
	return fixed.Q15(x)
}

// Fold drives the cross-coupled sum of both inputs into a reflecting
// wavefolder. p1 sets the drive, p2 adds a bipolar offset before the
// fold.
func Fold(x1, x2, p1, p2 fixed.Q15) fixed.Q15 {
	// sum = x1 + x2 + 0.25*x1*x2
	sum := int64(x1) + int64(x2) + ((int64(x1) * int64(x2)) >> 17)

	gain := int64(p1) + foldBaseGain
	if gain < 0 {
		gain = 0
	}
	driven := int32((sum * gain) >> 15)

	return Reflect(driven + int32(p2))
}
