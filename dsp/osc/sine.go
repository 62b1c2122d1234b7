package osc

import (
	"math"

	"github.com/cwbudde/algo-modular/dsp/fixed"
)

// Amplitude of the sine table. Slightly below full scale so interpolation
// never overflows the Q15 range.
const sineAmplitude = 32000

const sineTableSize = 512

var sineTable [sineTableSize]int16

func init() {
	for i := range sineTable {
		angle := 2 * math.Pi * float64(i) / sineTableSize
		sineTable[i] = int16(math.Round(sineAmplitude * math.Sin(angle)))
	}
}

// SineAtPhase evaluates the sine table for a 32-bit phase (full cycle =
// 2^32) with linear interpolation: the top 9 bits index the table, the
// next 16 bits interpolate between adjacent entries.
func SineAtPhase(phase uint32) fixed.Q15 {
	idx := phase >> 23
	frac := int32((phase & 0x7FFFFF) >> 7)
	s1 := int32(sineTable[idx&(sineTableSize-1)])
	s2 := int32(sineTable[(idx+1)&(sineTableSize-1)])
	y := (s2*frac + s1*(65536-frac)) >> 16
	return fixed.Sat(fixed.Q15(y))
}

// CosineAtPhase is SineAtPhase a quarter cycle ahead. The frequency
// shifter uses the pair as its quadrature carrier.
func CosineAtPhase(phase uint32) fixed.Q15 {
	return SineAtPhase(phase + 0x40000000)
}
