package fixed

import "math"

// Q15 is a signed fixed-point value with 15 fractional bits. One (1.0)
// is 32768; representable values span [-1.0, 1.0). Q15 is backed by
// int32, so intermediates may exceed the nominal range until an explicit
// Sat.
type Q15 int32

// Domain constants. Device audio samples and CVs are signed 12-bit,
// knob positions are unsigned 12-bit.
const (
	One = 32768  // 1.0 in Q1.15
	Max = 32767  // largest representable Q15 value
	Min = -32768 // smallest representable Q15 value

	DeviceMax = 2047  // largest signed 12-bit device sample
	DeviceMin = -2048 // smallest signed 12-bit device sample
	KnobMax   = 4095  // largest 12-bit knob position
)

// Sat clamps x to the representable Q15 range [Min, Max].
func Sat(x Q15) Q15 {
	if x > Max {
		return Max
	}
	if x < Min {
		return Min
	}
	return x
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi Q15) Q15 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Mul returns the Q15 product (a*b)>>15 computed with a 64-bit
// intermediate and saturated to [Min, Max]. Factors may exceed the
// nominal range; the product is rescaled from full width before
// saturation.
func Mul(a, b Q15) Q15 {
	t := int64(a) * int64(b)
	return Sat(Q15(t >> 15))
}

// MulRound is Mul with round-half-up instead of truncation. The reverb
// feedback path uses it to keep quantization error unbiased across long
// recirculation.
func MulRound(a, b Q15) Q15 {
	t := int64(a)*int64(b) + (1 << 14)
	return Sat(Q15(t >> 15))
}

// Div returns the Q15 quotient (num<<15)/den saturated to [Min, Max].
// A zero denominator is clamped away from zero to the smallest positive
// step.
func Div(num, den Q15) Q15 {
	if den == 0 {
		den = 1
	}
	t := (int64(num) << 15) / int64(den)
	return Sat(Q15(t))
}

// Lerp interpolates from a to b by frac in [0, One]. Inputs inside
// [Min, Max] produce outputs inside [Min, Max]; no saturation is
// applied.
func Lerp(a, b, frac Q15) Q15 {
	return a + Q15((int64(b-a)*int64(frac))>>15)
}

// FromDevice converts a signed 12-bit device sample (-2048..2047) to Q15
// by left shift. The mapping is exact.
func FromDevice(s int16) Q15 {
	return Q15(s) << 4
}

// ToDevice converts a Q15 value to a signed 12-bit device sample with
// symmetric round-half-away-from-zero and clamping. ToDevice inverts
// FromDevice exactly for every device value.
func ToDevice(x Q15) int16 {
	v := int32(x)
	if v >= 0 {
		v = (v + 8) / 16
	} else {
		v = (v - 8) / 16
	}
	if v > DeviceMax {
		v = DeviceMax
	}
	if v < DeviceMin {
		v = DeviceMin
	}
	return int16(v)
}

// FromKnob converts an unsigned 12-bit knob position (0..4095) to a
// unipolar Q15 value in [0, One). Positions above KnobMax clamp.
func FromKnob(k uint16) Q15 {
	if k > KnobMax {
		k = KnobMax
	}
	return Q15(k) << 3
}

// FromKnobCentered converts an unsigned 12-bit knob position to a
// bipolar Q15 value with the midpoint 2048 mapping to zero.
func FromKnobCentered(k uint16) Q15 {
	if k > KnobMax {
		k = KnobMax
	}
	return (Q15(k) - 2048) << 4
}

// FromFloat converts a float in [-1, 1] to Q15, truncating toward zero
// and clamping out-of-range input. NaN maps to zero. Configuration-path
// and test use only; audio-rate code stays integer.
func FromFloat(x float64) Q15 {
	switch {
	case math.IsNaN(x):
		return 0
	case x >= 1:
		return Max
	case x <= -1:
		return Min
	}
	return Q15(x * One)
}

// ToFloat converts a Q15 value to float64 full scale (One maps to 1.0).
func ToFloat(x Q15) float64 {
	return float64(x) / One
}
