package xmod

import (
	"math"

	"github.com/cwbudde/algo-modular/dsp/fixed"
)

// Modulator dispatches the algorithm family and owns the state of the
// frequency shifter and vocoder variants.
type Modulator struct {
	shifter *FrequencyShifter
	vocoder *Vocoder
}

// NewModulator constructs a dispatcher for the given sample rate. The
// rate drives the frequency shifter carrier and the vocoder band
// coefficients.
func NewModulator(sampleRate float64) (*Modulator, error) {
	shifter, err := NewFrequencyShifter(sampleRate)
	if err != nil {
		return nil, err
	}

	vocoder, err := NewVocoder(sampleRate)
	if err != nil {
		return nil, err
	}

	return &Modulator{shifter: shifter, vocoder: vocoder}, nil
}

// Process runs one sample through the selected algorithm. Unknown
// algorithm values fall back to passthrough. The result is saturated to
// Q1.15 regardless of variant.
func (m *Modulator) Process(a Algorithm, x1, x2, p1, p2 fixed.Q15) fixed.Q15 {
	var y fixed.Q15
	switch a {
	case AlgorithmCrossfade:
		y = Crossfade(x1, x2, p1)
	case AlgorithmFold:
		y = Fold(x1, x2, p1, p2)
	case AlgorithmXOR:
		y = XOR(x1, x2, p1)
	case AlgorithmRingAnalog:
		y = RingAnalog(x1, x2, p1)
	case AlgorithmRingDigital:
		y = RingDigital(x1, x2, p1)
	case AlgorithmRingBlend:
		y = RingBlend(x1, x2, p1, p2)
	case AlgorithmComparator:
		y = Comparator(x1, x2, p1)
	case AlgorithmComparator8:
		y = Comparator8(x1, x2, p1)
	case AlgorithmChebyshev:
		y = Chebyshev(x1, x2, p1, p2)
	case AlgorithmComparatorChebyshev:
		y = ComparatorChebyshev(x1, x2, p1, p2)
	case AlgorithmBitcrusher:
		y = Bitcrush(x1, x2, p1, p2)
	case AlgorithmFrequencyShifter:
		y = m.shifter.Process(x1, x2, p1, p2)
	case AlgorithmVocoder:
		y = m.vocoder.Process(x1, x2, p1, p2)
	default:
		y = x1
	}
	return fixed.Sat(y)
}

// Reset clears the state of the stateful variants.
func (m *Modulator) Reset() {
	m.shifter.Reset()
	m.vocoder.Reset()
}

// mulQ15 is the raw Q1.15 multiply shared by the variant math. It does
// not saturate; several variants rely on intermediates beyond nominal
// range.
func mulQ15(a, b int32) int32 {
	return int32((int64(a) * int64(b)) >> 15)
}

func satQ15(v int32) int32 {
	if v > fixed.Max {
		return fixed.Max
	}
	if v < fixed.Min {
		return fixed.Min
	}
	return v
}

func absInt32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
