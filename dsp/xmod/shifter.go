package xmod

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-modular/dsp/fixed"
	"github.com/cwbudde/algo-modular/dsp/osc"
)

const (
	maxShiftHz = 4000

	// Hilbert approximation allpass coefficients.
	shifterAllpassA1 = 16384 // 0.5
	shifterAllpassA2 = 6554  // 0.2
)

// allpassState is one first-order allpass section. The stored output is
// intentionally unsaturated; only the returned sample is clamped.
type allpassState struct {
	x1, y1 int32
}

func (st *allpassState) process(x, a int32) int32 {
	y := -mulQ15(a, x) + st.x1 + mulQ15(a, st.y1)
	st.x1 = x
	st.y1 = y
	return satQ15(y)
}

// FrequencyShifter shifts the spectrum of the louder input by a single
// sideband: a quadrature carrier from the sine table multiplies the
// in-phase and Hilbert-approximated paths, and p2 crossfades between the
// upper and lower sideband. p1 maps cubically to a shift of 0..4000 Hz.
type FrequencyShifter struct {
	sampleRate int64

	ap1, ap2 allpassState
	phase    uint32
}

// NewFrequencyShifter constructs a shifter for the given sample rate.
func NewFrequencyShifter(sampleRate float64) (*FrequencyShifter, error) {
	if !isFinite(sampleRate) || sampleRate <= 0 {
		return nil, fmt.Errorf("xmod: sample rate must be > 0 and finite: %f", sampleRate)
	}
	return &FrequencyShifter{sampleRate: int64(math.Round(sampleRate))}, nil
}

// Reset clears the allpass states and the carrier phase.
func (s *FrequencyShifter) Reset() {
	s.ap1 = allpassState{}
	s.ap2 = allpassState{}
	s.phase = 0
}

// Process shifts one sample. x1 and x2 compete by magnitude for the
// modulator role; p1 is the shift amount, p2 the sideband crossfade.
func (s *FrequencyShifter) Process(x1, x2, p1, p2 fixed.Q15) fixed.Q15 {
	src := int32(x1)
	if absInt32(int32(x1)) < absInt32(int32(x2)) {
		src = int32(x2)
	}

	// Cubic curve gives fine control near zero shift.
	p1sq := mulQ15(int32(p1), int32(p1))
	p1cu := mulQ15(p1sq, int32(p1))
	freqHz := (int64(maxShiftHz) * int64(p1cu)) >> 15

	// Integer phase increment for a 2^32 cycle.
	s.phase += uint32((freqHz << 32) / s.sampleRate)
	sin := int32(osc.SineAtPhase(s.phase))
	cos := int32(osc.CosineAtPhase(s.phase))

	// Two cascaded allpasses approximate a 90 degree shift.
	q := s.ap2.process(s.ap1.process(src, shifterAllpassA1), shifterAllpassA2)

	a := mulQ15(cos, src)
	b := mulQ15(sin, q)
	up := a - b
	down := a + b

	p := int64(fixed.Clamp(p2, 0, fixed.One))
	y := int32((int64(up)*(fixed.One-p) + int64(down)*p) >> 15)
	return fixed.Q15(satQ15(y))
}
