package osc

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-modular/dsp/fixed"
)

// Shape selects the oscillator waveform.
type Shape int

const (
	ShapeSine Shape = iota
	ShapeSquare
	ShapeSaw
	ShapeTriangle
)

// String returns a human-readable shape name.
func (s Shape) String() string {
	switch s {
	case ShapeSine:
		return "sine"
	case ShapeSquare:
		return "square"
	case ShapeSaw:
		return "saw"
	case ShapeTriangle:
		return "triangle"
	default:
		return "unknown"
	}
}

type config struct {
	shape     Shape
	frequency float64
	amplitude fixed.Q15
	phase     uint32
}

func defaultConfig() config {
	return config{
		shape:     ShapeSine,
		frequency: 440,
		amplitude: fixed.One,
		phase:     0,
	}
}

// Option configures an Oscillator during construction.
type Option func(*config) error

// WithShape sets the waveform shape.
func WithShape(s Shape) Option {
	return func(cfg *config) error {
		if s < ShapeSine || s > ShapeTriangle {
			return fmt.Errorf("osc: unknown shape: %d", int(s))
		}
		cfg.shape = s
		return nil
	}
}

// WithFrequencyHz sets the initial frequency. Negative values are rejected
// here; New clamps to the supported range for the sample rate.
func WithFrequencyHz(hz float64) Option {
	return func(cfg *config) error {
		if !isFinite(hz) || hz < 0 {
			return fmt.Errorf("osc: frequency must be finite and non-negative: %f", hz)
		}
		cfg.frequency = hz
		return nil
	}
}

// WithAmplitude sets the output amplitude in Q15, clamped to [0, One].
func WithAmplitude(a fixed.Q15) Option {
	return func(cfg *config) error {
		cfg.amplitude = fixed.Clamp(a, 0, fixed.One)
		return nil
	}
}

// WithPhase sets the initial phase accumulator value (full cycle = 2^32).
func WithPhase(p uint32) Option {
	return func(cfg *config) error {
		cfg.phase = p
		return nil
	}
}

// Oscillator is a phase-accumulator waveform generator with integer
// audio-rate state. Instances are not safe for concurrent use.
type Oscillator struct {
	sampleRate float64
	shape      Shape
	amplitude  fixed.Q15
	frequency  float64
	increment  int32
	phase      uint32
	initPhase  uint32
}

// New returns an oscillator for the given sample rate.
func New(sampleRate float64, opts ...Option) (*Oscillator, error) {
	if !isFinite(sampleRate) || sampleRate <= 0 {
		return nil, fmt.Errorf("osc: sample rate must be positive: %f", sampleRate)
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	o := &Oscillator{
		sampleRate: sampleRate,
		shape:      cfg.shape,
		amplitude:  cfg.amplitude,
		phase:      cfg.phase,
		initPhase:  cfg.phase,
	}
	if err := o.SetFrequencyHz(cfg.frequency); err != nil {
		return nil, err
	}
	return o, nil
}

// SetFrequencyHz updates the base frequency, clamped to
// [0, 0.45*sampleRate]. The phase increment is recomputed here, at
// control rate, so NextSample stays float-free.
func (o *Oscillator) SetFrequencyHz(hz float64) error {
	if !isFinite(hz) {
		return fmt.Errorf("osc: frequency must be finite: %f", hz)
	}
	maxHz := 0.45 * o.sampleRate
	if hz < 0 {
		hz = 0
	}
	if hz > maxHz {
		hz = maxHz
	}
	o.frequency = hz
	o.increment = o.PhaseIncrement(hz)
	return nil
}

// SetAmplitude sets the output amplitude, clamped to [0, One].
func (o *Oscillator) SetAmplitude(a fixed.Q15) {
	o.amplitude = fixed.Clamp(a, 0, fixed.One)
}

// SetShape switches the waveform.
func (o *Oscillator) SetShape(s Shape) error {
	if s < ShapeSine || s > ShapeTriangle {
		return fmt.Errorf("osc: unknown shape: %d", int(s))
	}
	o.shape = s
	return nil
}

// SetPhase jumps the phase accumulator.
func (o *Oscillator) SetPhase(p uint32) { o.phase = p }

// Reset restores the initial phase. Frequency, shape and amplitude are
// kept.
func (o *Oscillator) Reset() { o.phase = o.initPhase }

// Frequency returns the clamped base frequency in Hz.
func (o *Oscillator) Frequency() float64 { return o.frequency }

// Amplitude returns the output amplitude.
func (o *Oscillator) Amplitude() fixed.Q15 { return o.amplitude }

// Shape returns the current waveform shape.
func (o *Oscillator) Shape() Shape { return o.shape }

// Phase returns the phase accumulator.
func (o *Oscillator) Phase() uint32 { return o.phase }

// SampleRate returns the configured sample rate.
func (o *Oscillator) SampleRate() float64 { return o.sampleRate }

// PhaseIncrement converts a frequency in Hz to a per-sample phase
// increment at the oscillator's rate. Intended for control-rate FM depth
// precomputation; offsets beyond ±0.45*sampleRate clamp so the increment
// sum cannot alias past Nyquist headroom.
func (o *Oscillator) PhaseIncrement(hz float64) int32 {
	maxHz := 0.45 * o.sampleRate
	if hz > maxHz {
		hz = maxHz
	}
	if hz < -maxHz {
		hz = -maxHz
	}
	return int32(math.Round(hz / o.sampleRate * (1 << 32)))
}

// NextSample advances the phase by the base increment plus fmOffset and
// returns the amplitude-scaled waveform sample. The phase sum wraps by
// design; nothing in this path saturates except the final amplitude
// multiply.
func (o *Oscillator) NextSample(fmOffset int32) fixed.Q15 {
	o.phase += uint32(o.increment) + uint32(fmOffset)
	var y fixed.Q15
	switch o.shape {
	case ShapeSquare:
		if o.phase&0x80000000 != 0 {
			y = -sineAmplitude
		} else {
			y = sineAmplitude
		}
	case ShapeSaw:
		y = fixed.Q15(int32(o.phase>>16) - 32768)
	case ShapeTriangle:
		r := int32(o.phase >> 16)
		if r >= 32768 {
			r = 65535 - r
		}
		y = fixed.Q15((r << 1) - 32768)
	default:
		y = SineAtPhase(o.phase)
	}
	return fixed.Mul(y, o.amplitude)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
