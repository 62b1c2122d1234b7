package osc

import "github.com/cwbudde/algo-modular/dsp/fixed"

// Galois LFSR tap mask for the maximal-length 16-bit register.
const noiseTaps = 0xB400

// Noise is a deterministic 16-bit Galois LFSR noise source. The register
// never reaches zero from a non-zero state, so the sequence period is
// 65535.
type Noise struct {
	state uint16
}

// NewNoise returns a noise source seeded with Seed(seed).
func NewNoise(seed uint32) *Noise {
	n := &Noise{}
	n.Seed(seed)
	return n
}

// Seed reseeds the register. 32-bit seeds fold onto the 16-bit register
// so high-half entropy is not discarded; a zero result is replaced by 1
// (the all-zero state would lock the register).
func (n *Noise) Seed(seed uint32) {
	s := uint16(seed) ^ uint16(seed>>16)
	if s == 0 {
		s = 1
	}
	n.state = s
}

// NextRaw advances the register once and returns its new state.
func (n *Noise) NextRaw() uint16 {
	lsb := n.state & 1
	n.state >>= 1
	if lsb != 0 {
		n.state ^= noiseTaps
	}
	return n.state
}

// NextSample advances the register and returns white noise spread across
// the 12-bit device span, mapped to Q15.
func (n *Noise) NextSample() fixed.Q15 {
	v := int16(n.NextRaw()&0x0FFF) - 2048
	return fixed.FromDevice(v)
}
