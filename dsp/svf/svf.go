package svf

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-modular/dsp/fixed"
)

const (
	defaultCutoffHz = 800.0
	defaultQ        = 2.0

	minCutoffHz = 5.0
	maxCutoffHz = 10000.0
	minQ        = 0.3
	maxQ        = 12.0

	// Damping is the Chamberlin q term (~1/Q).
	minDamping = 0.01
	maxDamping = 1.98

	// Frequency coefficients live in [0, 2) in Q1.15; values at or above
	// 2.0 make the integrator loop unstable.
	maxStableF     = 1.98
	maxCoefficient = 64881 // maxStableF in Q1.15
)

// Mode selects which tap of the Chamberlin topology is returned.
type Mode int

const (
	ModeLowpass Mode = iota
	ModeBandpass
	ModeHighpass
	ModeNotch
)

func (m Mode) String() string {
	switch m {
	case ModeLowpass:
		return "lowpass"
	case ModeBandpass:
		return "bandpass"
	case ModeHighpass:
		return "highpass"
	case ModeNotch:
		return "notch"
	default:
		return "unknown"
	}
}

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	mode     Mode
	cutoffHz float64
	q        float64
}

func defaultConfig() config {
	return config{
		mode:     ModeLowpass,
		cutoffHz: defaultCutoffHz,
		q:        defaultQ,
	}
}

// WithMode selects the filter output tap.
func WithMode(mode Mode) Option {
	return func(cfg *config) error {
		if !validMode(mode) {
			return fmt.Errorf("svf: invalid mode: %d", mode)
		}

		cfg.mode = mode

		return nil
	}
}

// WithCutoffHz sets the cutoff frequency in Hz, in [5, 10000].
func WithCutoffHz(cutoffHz float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(cutoffHz, minCutoffHz, maxCutoffHz, "cutoff"); err != nil {
			return err
		}

		cfg.cutoffHz = cutoffHz

		return nil
	}
}

// WithQ sets filter Q in [0.3, 12].
func WithQ(q float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(q, minQ, maxQ, "Q"); err != nil {
			return err
		}

		cfg.q = q

		return nil
	}
}

// WithResonance sets Q from a normalized resonance amount in [0, 1],
// mapped to Q in [0.5, 8].
func WithResonance(resonance float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(resonance, 0, 1, "resonance"); err != nil {
			return err
		}

		cfg.q = 0.5 + resonance*7.5

		return nil
	}
}

// Filter is an integer Chamberlin state-variable filter.
//
// Signals are Q1.15; coefficients are int32 values in [0, 64881]
// representing [0, 1.98] in Q1.15. Runtime setters clamp out-of-range
// control values instead of failing, so they can be driven directly
// from panel controls.
type Filter struct {
	sampleRate float64
	mode       Mode
	cutoffHz   float64
	q          float64

	fCoeff int32
	damp   int32

	low  fixed.Q15
	band fixed.Q15
}

// New constructs a state-variable filter for the given sample rate.
func New(sampleRate float64, opts ...Option) (*Filter, error) {
	if !isFinite(sampleRate) || sampleRate <= 0 {
		return nil, fmt.Errorf("svf: sample rate must be > 0 and finite: %f", sampleRate)
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

	f := &Filter{
		sampleRate: sampleRate,
		mode:       cfg.mode,
	}
	f.SetCutoffHz(cfg.cutoffHz)
	f.SetQ(cfg.q)

	return f, nil
}

// SampleRate returns the sample rate in Hz.
func (f *Filter) SampleRate() float64 { return f.sampleRate }

// Mode returns the selected output tap.
func (f *Filter) Mode() Mode { return f.mode }

// CutoffHz returns the cutoff frequency in Hz.
func (f *Filter) CutoffHz() float64 { return f.cutoffHz }

// Q returns the filter Q.
func (f *Filter) Q() float64 { return f.q }

// Coefficient returns the current frequency coefficient in Q1.15.
func (f *Filter) Coefficient() int32 { return f.fCoeff }

// SetSampleRate updates the sample rate and recomputes the frequency
// coefficient.
func (f *Filter) SetSampleRate(sampleRate float64) error {
	if !isFinite(sampleRate) || sampleRate <= 0 {
		return fmt.Errorf("svf: sample rate must be > 0 and finite: %f", sampleRate)
	}

	f.sampleRate = sampleRate
	f.fCoeff = CoefficientForHz(f.cutoffHz, f.sampleRate)

	return nil
}

// SetMode selects the filter output tap. Invalid values are ignored.
func (f *Filter) SetMode(mode Mode) {
	if validMode(mode) {
		f.mode = mode
	}
}

// SetCutoffHz updates the cutoff frequency. Non-finite values collapse to
// the minimum; out-of-range values clamp.
func (f *Filter) SetCutoffHz(cutoffHz float64) {
	if !isFinite(cutoffHz) {
		cutoffHz = 0
	}

	if cutoffHz < minCutoffHz {
		cutoffHz = minCutoffHz
	}

	if cutoffHz > maxCutoffHz {
		cutoffHz = maxCutoffHz
	}

	f.cutoffHz = cutoffHz
	f.fCoeff = CoefficientForHz(f.cutoffHz, f.sampleRate)
}

// SetQ updates filter Q. Non-finite values collapse to the minimum;
// out-of-range values clamp.
func (f *Filter) SetQ(q float64) {
	if !isFinite(q) {
		q = 0
	}

	if q < minQ {
		q = minQ
	}

	if q > maxQ {
		q = maxQ
	}

	f.q = q
	f.damp = dampingCoefficient(q)
}

// SetResonance updates Q from a normalized resonance amount in [0, 1],
// mapped to Q in [0.5, 8]. Out-of-range values clamp.
func (f *Filter) SetResonance(resonance float64) {
	if !isFinite(resonance) {
		resonance = 0
	}

	if resonance < 0 {
		resonance = 0
	}

	if resonance > 1 {
		resonance = 1
	}

	f.q = 0.5 + resonance*7.5
	f.damp = dampingCoefficient(f.q)
}

// Reset clears the integrator state. Coefficients are kept.
func (f *Filter) Reset() {
	f.low = 0
	f.band = 0
}

// ProcessSample filters one Q1.15 sample using the configured cutoff.
func (f *Filter) ProcessSample(x fixed.Q15) fixed.Q15 {
	return f.step(x, f.fCoeff)
}

// ProcessSamplePair mixes two inputs with saturation and filters the sum.
func (f *Filter) ProcessSamplePair(x1, x2 fixed.Q15) fixed.Q15 {
	return f.step(fixed.Sat(x1+x2), f.fCoeff)
}

// ProcessModulated filters one sample using an externally supplied
// frequency coefficient, as produced by [CoefficientForHz]. The
// coefficient is clamped to [0, 64881] so audio-rate modulation cannot
// push the loop unstable.
func (f *Filter) ProcessModulated(x fixed.Q15, fCoeff int32) fixed.Q15 {
	if fCoeff < 0 {
		fCoeff = 0
	}

	if fCoeff > maxCoefficient {
		fCoeff = maxCoefficient
	}

	return f.step(x, fCoeff)
}

func (f *Filter) step(x fixed.Q15, fc int32) fixed.Q15 {
	fBand := fixed.Q15((int64(fc) * int64(f.band)) >> 15)
	f.low = fixed.Sat(f.low + fBand)

	qBand := fixed.Q15((int64(f.damp) * int64(f.band)) >> 15)
	high := fixed.Sat(x - f.low - qBand)

	fHigh := fixed.Q15((int64(fc) * int64(high)) >> 15)
	f.band = fixed.Sat(f.band + fHigh)

	switch f.mode {
	case ModeBandpass:
		return f.band
	case ModeHighpass:
		return high
	case ModeNotch:
		return fixed.Sat(high + f.low)
	default:
		return f.low
	}
}

// CoefficientForHz converts a frequency in Hz to the Q1.15 coefficient
// consumed by [Filter.ProcessModulated]. The mapping is f = 2*sin(pi*hz/fs),
// clamped to [0, 1.98] for stability. Non-finite inputs yield 0.
func CoefficientForHz(hz, sampleRate float64) int32 {
	f := 2 * math.Sin(math.Pi*hz/sampleRate)
	if !isFinite(f) || f < 0 {
		f = 0
	}

	if f > maxStableF {
		f = maxStableF
	}

	fc := int32(f*fixed.One + 0.5)
	if fc < 0 {
		fc = 0
	}

	if fc > maxCoefficient {
		fc = maxCoefficient
	}

	return fc
}

func dampingCoefficient(q float64) int32 {
	damp := 1 / q
	if damp < minDamping {
		damp = minDamping
	}

	if damp > maxDamping {
		damp = maxDamping
	}

	return int32(damp*fixed.One + 0.5)
}

func validMode(mode Mode) bool {
	return mode >= ModeLowpass && mode <= ModeNotch
}

func validateFiniteRange(value, min, max float64, name string) error {
	if !isFinite(value) {
		return fmt.Errorf("svf: %s must be finite: %v", name, value)
	}

	if value < min || value > max {
		return fmt.Errorf("svf: %s must be in [%g, %g]: %f", name, min, max, value)
	}

	return nil
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
