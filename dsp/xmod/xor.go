package xmod

import "github.com/cwbudde/algo-modular/dsp/fixed"

const xorSumWeight = 22938 // 0.7 in Q1.15

// XOR crosses the bit patterns of both inputs: the output morphs from a
// 0.7-weighted sum of the inputs toward their bitwise xor as p rises.
// The sum term can exceed nominal range; the dispatcher saturates.
func XOR(x1, x2, p fixed.Q15) fixed.Q15 {
	s1 := int16(satQ15(int32(x1)))
	s2 := int16(satQ15(int32(x2)))
	word := int32(s1 ^ s2)

	sum := mulQ15(int32(x1)+int32(x2), xorSumWeight)
	return fixed.Q15(sum + mulQ15(word-sum, int32(p)))
}
