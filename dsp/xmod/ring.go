package xmod

import "github.com/cwbudde/algo-modular/dsp/fixed"

const (
	diodeKnee  = 21845 // 2/3 in Q1.15
	diodeCoeff = 1418  // ~0.0432 in Q1.15
)

// diode models the dead zone of a diode ring: zero below the knee, then
// a squared rise, sign preserved.
func diode(x int32) int32 {
	dead := absInt32(x) - diodeKnee
	if dead < 0 {
		dead = 0
	}
	dead <<= 1
	y := mulQ15(diodeCoeff, mulQ15(dead, dead))
	if x < 0 {
		return -y
	}
	return y
}

// SoftLimit applies y = x/(1+|x|) in Q1.15. The input may be far beyond
// nominal range; the output is always strictly inside it.
func SoftLimit(x int32) fixed.Q15 {
	denom := int32(fixed.One) + absInt32(x)
	if denom == 0 {
		return 0
	}
	return fixed.Q15((int64(x) << 15) / int64(denom))
}

// RingAnalog runs a diode-model ring modulator: the carrier is doubled
// with saturation, sum and difference pass the diode shaper, and p sets
// a post-gain of 4..28 before soft limiting.
func RingAnalog(mod, car, p fixed.Q15) fixed.Q15 {
	car2 := int32(car) << 1
	car2 = satQ15(car2)

	sum := satQ15(int32(mod) + car2)
	diff := satQ15(int32(mod) - car2)

	ring := diode(sum) + diode(diff)
	gain := int64(4*fixed.One) + int64(p)*24
	amp := int32((int64(ring) * gain) >> 15)
	return SoftLimit(amp)
}

// RingDigital multiplies both inputs at full precision with a drive of
// 1..9 from p, then soft-limits. The pre-limit product deliberately
// overdrives nominal range.
func RingDigital(x1, x2, p fixed.Q15) fixed.Q15 {
	prod := (int64(x1) * int64(x2)) << 2
	gain := int32(fixed.One) + int32(p)<<3
	if gain < 0 {
		gain = 0
	}
	ring := int32((prod * int64(gain)) >> 32)
	return SoftLimit(ring)
}

// RingBlend morphs from the digital to the analog ring modulator as p1
// rises; p2 is the shared drive parameter of both.
func RingBlend(x1, x2, p1, p2 fixed.Q15) fixed.Q15 {
	ya := int32(RingAnalog(x1, x2, p2))
	yd := int32(RingDigital(x1, x2, p2))
	return fixed.Q15(yd + mulQ15(ya-yd, int32(p1)))
}
