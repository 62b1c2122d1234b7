package xmod

import "github.com/cwbudde/algo-modular/dsp/fixed"

// bitcrushSteps is the number of OR-mask levels across the p1 sweep.
const bitcrushSteps = 37

// lerpInt16 interpolates between two int16 words with a Q1.15 fraction,
// saturating the result back to int16.
func lerpInt16(a, b int16, frac int32) int16 {
	diff := int32(b) - int32(a)
	v := int32(a) + int32((int64(diff)*int64(frac))>>15)
	if v > 32767 {
		v = 32767
	} else if v < -32768 {
		v = -32768
	}
	return int16(v)
}

// Bitcrush degrades both inputs by OR-ing their words with a rising mask
// (p1, squared response over 37 steps), then combines them with one of
// four ops morphed by p2: saturated sum, OR, XOR, and a signed shift of
// the first word by the top nibble of the second.
func Bitcrush(x1, x2, p1, p2 fixed.Q15) fixed.Q15 {
	s1 := int16(satQ15(int32(x1)))
	s2 := int16(satQ15(int32(x2)))

	p1sq := mulQ15(int32(p1), int32(p1))
	z := int64(p1sq) * bitcrushSteps
	zInt := int32(z >> 15)
	if zInt < 0 {
		zInt = 0
	} else if zInt >= bitcrushSteps {
		zInt = bitcrushSteps - 1
	}
	zFrac := int32(z - int64(zInt)<<15)
	if zFrac < 0 {
		zFrac = 0
	} else if zFrac > int32(fixed.One) {
		zFrac = int32(fixed.One)
	}

	mask1 := int16(satQ15(int32((int64(zInt) * fixed.One) / bitcrushSteps)))
	mask2 := int16(satQ15(int32((int64(zInt+1) * fixed.One) / bitcrushSteps)))

	s1m := lerpInt16(s1|mask1, s1|mask2, zFrac)
	s2m := lerpInt16(s2|mask1, s2|mask2, zFrac)

	op0 := satQ15(int32(s1m) + int32(s2m))
	op1 := int32(s1m | s2m)
	op2 := int32(s1m ^ s2m)

	var op3 int32
	if shift := int32(s2m) >> 12; shift < 0 {
		op3 = int32(s1m >> uint(-shift))
	} else {
		op3 = int32(s1m << uint(shift))
	}

	x := int32(p2) * 3
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

	ops := [4]int32{op0, op1, op2, op3}
	a := ops[idx]
	b := ops[idx+1]
	return fixed.Q15(a + int32((int64(b-a)*int64(frac))>>15))
}
