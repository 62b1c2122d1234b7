// Package xmod implements a family of two-input cross-modulation
// algorithms in Q1.15 fixed point: wavefolding, ring modulation,
// comparators, Chebyshev shaping, bitcrushing, frequency shifting, and a
// four-band vocoder.
//
// Stateless variants are package-level functions; the stateful frequency
// shifter and vocoder are structs owned by a [Modulator], which dispatches
// by [Algorithm] and saturates every output to Q1.15. The variant
// functions themselves run their intermediates hot (the xor and ring
// paths deliberately exceed nominal range before limiting), so callers
// using them directly must saturate before converting to a narrower
// domain.
package xmod
