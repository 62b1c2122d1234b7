package engine

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-modular/dsp/fixed"
	"github.com/cwbudde/algo-modular/dsp/xmod"
)

// Control-rate work runs once every 128 samples.
const controlRateMask = 0x7F

// Inputs is one sample frame: both audio inputs in the signed 12-bit
// device domain plus the control snapshot.
type Inputs struct {
	Audio1 int16
	Audio2 int16
	Controls
}

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	algorithm xmod.Algorithm
	forced    bool
}

func defaultConfig() config {
	return config{}
}

// WithAlgorithm pins the algorithm instead of following the selector.
func WithAlgorithm(a xmod.Algorithm) Option {
	return func(cfg *config) error {
		if a < 0 || a >= xmod.Count {
			return fmt.Errorf("engine: invalid algorithm: %d", int(a))
		}

		cfg.algorithm = a
		cfg.forced = true

		return nil
	}
}

// Engine runs the modulator card processing chain: control combine,
// selector banding, and the per-sample modulator dispatch, all in the
// device domain. Instances are not safe for concurrent use.
type Engine struct {
	mod *xmod.Modulator

	algorithm xmod.Algorithm
	forced    bool

	p1 fixed.Q15
	p2 fixed.Q15

	counter uint32
	clipped uint64
}

// New constructs an engine for the given sample rate. The rate feeds the
// stateful modulator variants (frequency shifter carrier, vocoder band
// coefficients).
func New(sampleRate float64, opts ...Option) (*Engine, error) {
	if !isFinite(sampleRate) || sampleRate <= 0 {
		return nil, fmt.Errorf("engine: sample rate must be > 0 and finite: %f", sampleRate)
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

	mod, err := xmod.NewModulator(sampleRate)
	if err != nil {
		return nil, err
	}

	return &Engine{
		mod:       mod,
		algorithm: cfg.algorithm,
		forced:    cfg.forced,
	}, nil
}

// Algorithm returns the algorithm currently in effect.
func (e *Engine) Algorithm() xmod.Algorithm { return e.algorithm }

// ForceAlgorithm pins the algorithm, overriding the selector until
// FollowSelector is called. Out-of-range values are ignored. Diagnostic
// path; the device follows the selector.
func (e *Engine) ForceAlgorithm(a xmod.Algorithm) {
	if a < 0 || a >= xmod.Count {
		return
	}
	e.algorithm = a
	e.forced = true
}

// FollowSelector releases a forced algorithm back to selector control.
// The selector takes effect at the next control tick.
func (e *Engine) FollowSelector() {
	e.forced = false
}

// Clipped returns the number of processed samples that landed on a Q15
// rail before device conversion.
func (e *Engine) Clipped() uint64 { return e.clipped }

// ProcessSample advances the engine by one sample. Control work
// (control combine, selector banding) runs every 128 samples; the audio
// path runs every sample. out1 carries the processed signal, out2 the
// dry modulator input.
func (e *Engine) ProcessSample(in Inputs) (out1, out2 int16) {
	if e.counter&controlRateMask == 0 {
		e.updateControls(in.Controls)
	}
	e.counter++

	x1 := fixed.FromDevice(in.Audio1)
	x2 := fixed.FromDevice(in.Audio2)

	y := e.mod.Process(e.algorithm, x1, x2, e.p1, e.p2)
	if y == fixed.Max || y == fixed.Min {
		e.clipped++
	}

	return fixed.ToDevice(y), in.Audio1
}

// Reset clears modulator state and the counters. Control values refresh
// on the next sample.
func (e *Engine) Reset() {
	e.mod.Reset()
	e.counter = 0
	e.clipped = 0
	e.p1 = 0
	e.p2 = 0
}

func (e *Engine) updateControls(c Controls) {
	if !e.forced {
		e.algorithm = AlgorithmForSelector(CombineWrapped(c.Main, c.CV1))
	}
	e.p1 = fixed.FromKnob(CombineClamped(c.X, c.CV2))
	e.p2 = fixed.FromKnobCentered(c.Y)
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
