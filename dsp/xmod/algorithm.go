package xmod

import "fmt"

// Algorithm identifies one cross-modulation variant. The declaration
// order is the selector band order used by the engine.
type Algorithm int

const (
	AlgorithmPassthrough Algorithm = iota
	AlgorithmCrossfade
	AlgorithmFold
	AlgorithmXOR
	AlgorithmRingAnalog
	AlgorithmRingDigital
	AlgorithmRingBlend
	AlgorithmComparator
	AlgorithmComparator8
	AlgorithmChebyshev
	AlgorithmComparatorChebyshev
	AlgorithmBitcrusher
	AlgorithmFrequencyShifter
	AlgorithmVocoder
)

// Count is the number of algorithms.
const Count = 14

func (a Algorithm) String() string {
	switch a {
	case AlgorithmPassthrough:
		return "passthrough"
	case AlgorithmCrossfade:
		return "crossfade"
	case AlgorithmFold:
		return "fold"
	case AlgorithmXOR:
		return "xor"
	case AlgorithmRingAnalog:
		return "ring_analog"
	case AlgorithmRingDigital:
		return "ring_digital"
	case AlgorithmRingBlend:
		return "ring_blend"
	case AlgorithmComparator:
		return "comparator"
	case AlgorithmComparator8:
		return "comparator8"
	case AlgorithmChebyshev:
		return "chebyshev"
	case AlgorithmComparatorChebyshev:
		return "comparator_chebyshev"
	case AlgorithmBitcrusher:
		return "bitcrusher"
	case AlgorithmFrequencyShifter:
		return "frequency_shifter"
	case AlgorithmVocoder:
		return "vocoder"
	default:
		return "unknown"
	}
}

// ParseAlgorithm maps a name as produced by String back to its Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	for a := range Algorithm(Count) {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("xmod: unknown algorithm %q", s)
}
