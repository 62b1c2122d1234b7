// Package svf provides an integer Chamberlin state-variable filter
// operating on Q1.15 samples.
//
// The per-sample path is integer-only: both state updates and the damping
// term run on int32 values with saturating adds, so a [Filter] can sit
// inside an audio-rate loop that tolerates no floating point. Coefficients
// are computed in float64 at control rate, either through the setters or
// via [CoefficientForHz], whose result feeds [Filter.ProcessModulated] for
// audio-rate cutoff modulation.
//
// Lowpass, bandpass, highpass, and notch taps of the Chamberlin topology
// are selectable through [Mode].
package svf
