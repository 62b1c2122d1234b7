// Package fixed implements the Q1.15 fixed-point arithmetic kernel shared
// by every audio-rate component in the engine.
//
// Samples, control values and coefficients all live in the Q15 domain:
// One (32768) represents 1.0 and representable values span [-1.0, 1.0).
// Q15 is backed by int32 so intermediate sums keep headroom until an
// explicit Sat. The device domain is signed 12-bit (-2048..2047) for
// audio and CV, unsigned 12-bit (0..4095) for knob positions; FromDevice,
// ToDevice, FromKnob and FromKnobCentered convert between the domains.
//
// Audio-rate code must route multiplication and domain conversion through
// this package rather than open-coding shifts, so saturation and rounding
// behave identically everywhere. Float conversions exist for the
// configuration path and tests only.
package fixed
