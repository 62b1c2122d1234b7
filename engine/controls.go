package engine

import (
	"github.com/cwbudde/algo-modular/dsp/fixed"
	"github.com/cwbudde/algo-modular/dsp/xmod"
)

// Controls carries one control snapshot in raw device units: knob
// positions are unsigned 12-bit, CVs signed 12-bit.
type Controls struct {
	Main uint16
	X    uint16
	Y    uint16
	CV1  int16
	CV2  int16
}

// CombineClamped sums a knob position and a CV, clamped to the 12-bit
// knob range. Normal parameters stop at the ends of their travel.
func CombineClamped(knob uint16, cv int16) uint16 {
	v := int32(knob) + int32(cv)
	if v < 0 {
		return 0
	}
	if v > fixed.KnobMax {
		return fixed.KnobMax
	}
	return uint16(v)
}

// CombineWrapped sums a knob position and a CV modulo 4096, so a CV
// past the top re-enters from the bottom. Used by the main selector
// only.
func CombineWrapped(knob uint16, cv int16) uint16 {
	return uint16(int32(knob)+int32(cv)) & 0x0FFF
}

// selectorThresholds holds the upper bound of each algorithm band: 14
// equal bands over the 12-bit selector range. A selector at a band's
// lower boundary belongs to that band.
var selectorThresholds [xmod.Count]uint16

func init() {
	for i := range selectorThresholds {
		selectorThresholds[i] = uint16(((i + 1) * 4096) / xmod.Count)
	}
}

// AlgorithmForSelector maps a wrapped 12-bit selector position to its
// algorithm band.
func AlgorithmForSelector(sel uint16) xmod.Algorithm {
	for i, limit := range selectorThresholds {
		if sel < limit {
			return xmod.Algorithm(i)
		}
	}
	return xmod.AlgorithmVocoder
}
