// Package osc provides the integer oscillator primitives of the engine: a
// phase-accumulator waveform oscillator, a shared 512-entry sine table,
// and a 16-bit LFSR noise source.
//
// The oscillator keeps its phase in a 32-bit accumulator where one full
// cycle spans the entire uint32 range; advancing the phase wraps by design
// (the one place wraparound is intentional rather than saturated). Frequency
// changes convert to a phase increment at control rate; audio-rate FM is
// expressed as an additive increment offset so the per-sample path stays
// integer-only.
package osc
