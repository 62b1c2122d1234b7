// Package reverb provides an integer Schroeder reverberator on Q1.15
// samples: eight parallel lowpass-feedback combs per channel feeding a
// cascade of four allpasses, with the classic 44.1 kHz tunings rescaled
// to the target sample rate.
//
// The per-sample path is integer-only. Block processing works in the
// signed 12-bit device domain; comb state is kept in int16 so that
// freeze (unity feedback, zero damping, zero input gain) recirculates
// the tail bit-exactly. Float options configure the constructor; Q15
// setters serve the control path at runtime.
package reverb
