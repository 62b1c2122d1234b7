package reverb

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-modular/dsp/delay"
	"github.com/cwbudde/algo-modular/dsp/fixed"
)

const (
	numCombs     = 8
	numAllpasses = 4

	// Line capacities cover the reference tunings rescaled up to roughly
	// 49 kHz plus the right-channel spread.
	combCapacity    = 2048
	allpassCapacity = 640

	referenceRate = 44100
	stereoSpread  = 23

	allpassFeedback = 16384 // 0.5

	// Room size maps to comb feedback as 0.28 + 0.7*size, damping to
	// 0.4*amount.
	roomScale  = 22937 // 0.7
	roomOffset = 9175  // 0.28
	dampScale  = 13107 // 0.4

	defaultRoomSize  = 0.5
	defaultDamping   = 0.5
	defaultWet       = 1.0 / 3.0
	defaultDry       = 1.0
	defaultWidth     = 1.0
	defaultInputGain = 0.10
)

// Classic Freeverb delay tunings in samples at the 44.1 kHz reference
// rate. The right channel runs the same lengths offset by stereoSpread.
var (
	combTuning    = [numCombs]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
	allpassTuning = [numAllpasses]int{556, 441, 341, 225}
)

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	roomSize  float64
	damping   float64
	wet       float64
	dry       float64
	width     float64
	inputGain float64
}

func defaultConfig() config {
	return config{
		roomSize:  defaultRoomSize,
		damping:   defaultDamping,
		wet:       defaultWet,
		dry:       defaultDry,
		width:     defaultWidth,
		inputGain: defaultInputGain,
	}
}

// WithRoomSize sets the room size in [0, 1]. Larger rooms decay slower.
func WithRoomSize(size float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(size, 0, 1, "room size"); err != nil {
			return err
		}

		cfg.roomSize = size

		return nil
	}
}

// WithDamping sets the high-frequency damping amount in [0, 1].
func WithDamping(amount float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(amount, 0, 1, "damping"); err != nil {
			return err
		}

		cfg.damping = amount

		return nil
	}
}

// WithWet sets the wet mix level in [0, 1].
func WithWet(level float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(level, 0, 1, "wet level"); err != nil {
			return err
		}

		cfg.wet = level

		return nil
	}
}

// WithDry sets the dry mix level in [0, 1].
func WithDry(level float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(level, 0, 1, "dry level"); err != nil {
			return err
		}

		cfg.dry = level

		return nil
	}
}

// WithWidth sets the stereo width of the wet signal in [0, 1]. Zero
// collapses the wet mix to mono.
func WithWidth(width float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(width, 0, 1, "width"); err != nil {
			return err
		}

		cfg.width = width

		return nil
	}
}

// WithInputGain sets the gain applied ahead of the comb bank, in
// (0, 1]. The low default keeps the eight-comb sum clear of the rails.
func WithInputGain(gain float64) Option {
	return func(cfg *config) error {
		if !isFinite(gain) || gain <= 0 || gain > 1 {
			return fmt.Errorf("reverb: input gain must be in (0, 1]: %f", gain)
		}

		cfg.inputGain = gain

		return nil
	}
}

// Reverb is a stereo Schroeder reverberator.
//
// Runtime setters clamp out-of-range control values instead of failing,
// so they can be driven directly from panel controls. room and damp
// hold the mapped parameter values the live coefficients return to when
// freeze releases.
type Reverb struct {
	sampleRate int
	cfg        config

	combL [numCombs]comb
	combR [numCombs]comb
	allpL [numAllpasses]allpass
	allpR [numAllpasses]allpass

	room      fixed.Q15
	damp      fixed.Q15
	feedback  fixed.Q15
	damp1     fixed.Q15
	wet       fixed.Q15
	dry       fixed.Q15
	width     fixed.Q15
	wet1      fixed.Q15
	wet2      fixed.Q15
	inputGain fixed.Q15
	frozen    bool
}

// New constructs a reverb for the given sample rate. Rescaled delay
// lengths beyond the line capacities (above roughly 49 kHz) clamp to
// the capacity, which detunes the tail but never fails.
func New(sampleRate int, opts ...Option) (*Reverb, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("reverb: sample rate must be > 0: %d", sampleRate)
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

	r := &Reverb{
		sampleRate: sampleRate,
		cfg:        cfg,
	}

	for i := range r.combL {
		n := scaleLength(combTuning[i], sampleRate)
		r.combL[i].line = newLine(combCapacity, n)
		r.combR[i].line = newLine(combCapacity, n+stereoSpread)
	}

	for i := range r.allpL {
		n := scaleLength(allpassTuning[i], sampleRate)
		r.allpL[i].line = newLine(allpassCapacity, n)
		r.allpR[i].line = newLine(allpassCapacity, n+stereoSpread)
	}

	r.applyConfig()

	return r, nil
}

// SampleRate returns the sample rate in Hz.
func (r *Reverb) SampleRate() int { return r.sampleRate }

// Frozen reports whether freeze is active.
func (r *Reverb) Frozen() bool { return r.frozen }

// SetRoomSize sets the room size from a unipolar Q15 value, clamping to
// [0, One]. Size maps to comb feedback in [0.28, 0.98]; writing a size
// while frozen resumes decay.
func (r *Reverb) SetRoomSize(size fixed.Q15) {
	r.room = fixed.Sat(fixed.MulRound(clampUnit(size), roomScale) + roomOffset)
	r.feedback = r.room
}

// SetDamping sets high-frequency damping from a unipolar Q15 value,
// clamping to [0, One].
func (r *Reverb) SetDamping(amount fixed.Q15) {
	r.damp = fixed.MulRound(clampUnit(amount), dampScale)
	r.damp1 = r.damp
}

// SetWet sets the wet mix level from a unipolar Q15 value, clamping to
// [0, One].
func (r *Reverb) SetWet(level fixed.Q15) {
	r.wet = clampUnit(level)
	r.updateWetMix()
}

// SetDry sets the dry mix level from a unipolar Q15 value, clamping to
// [0, One].
func (r *Reverb) SetDry(level fixed.Q15) {
	r.dry = clampUnit(level)
}

// SetWidth sets the stereo width of the wet signal from a unipolar Q15
// value, clamping to [0, One].
func (r *Reverb) SetWidth(width fixed.Q15) {
	r.width = clampUnit(width)
	r.updateWetMix()
}

// SetInputGain sets the gain applied ahead of the comb bank, clamping
// to [0, One].
func (r *Reverb) SetInputGain(gain fixed.Q15) {
	r.inputGain = clampUnit(gain)
}

// SetFreeze toggles freeze. Frozen combs recirculate their contents
// bit-exactly: feedback pins to unity, damping and input gain drop to
// zero, and the dry path stays live. Releasing freeze restores the
// mapped room and damping coefficients and the configured input gain.
func (r *Reverb) SetFreeze(on bool) {
	r.frozen = on

	if on {
		r.feedback = fixed.One
		r.damp1 = 0
		r.inputGain = 0
		return
	}

	r.feedback = r.room
	r.damp1 = r.damp
	r.inputGain = fixed.FromFloat(r.cfg.inputGain)
}

// ProcessBlock renders one block in the signed 12-bit device domain.
// outL and outR must have equal length. A nil inL feeds silence, so the
// tail keeps ringing; a nil inR mirrors the left input for mono
// sources. Identical state and input yield identical output blocks.
func (r *Reverb) ProcessBlock(inL, inR, outL, outR []int16) error {
	n := len(outL)
	if len(outR) != n {
		return fmt.Errorf("reverb: output length mismatch: left=%d right=%d", n, len(outR))
	}
	if inL != nil && len(inL) != n {
		return fmt.Errorf("reverb: input length mismatch: left=%d output=%d", len(inL), n)
	}
	if inR != nil && len(inR) != n {
		return fmt.Errorf("reverb: input length mismatch: right=%d output=%d", len(inR), n)
	}

	for i := range outL {
		var xL fixed.Q15
		if inL != nil {
			xL = fixed.FromDevice(inL[i])
		}
		xR := xL
		if inR != nil {
			xR = fixed.FromDevice(inR[i])
		}

		xinL := fixed.MulRound(xL, r.inputGain)
		xinR := fixed.MulRound(xR, r.inputGain)

		var accL, accR int32
		for c := range r.combL {
			accL += int32(r.combL[c].process(xinL, r.feedback, r.damp1))
			accR += int32(r.combR[c].process(xinR, r.feedback, r.damp1))
		}

		// Average the eight combs with rounding.
		yL := fixed.Q15((accL + 4) >> 3)
		yR := fixed.Q15((accR + 4) >> 3)

		for a := range r.allpL {
			yL = r.allpL[a].process(yL)
		}
		for a := range r.allpR {
			yR = r.allpR[a].process(yR)
		}

		// Each channel takes its own wet sum at wet1 and the opposite
		// one at wet2; the dry tap bypasses the input gain.
		mixL := int32(fixed.MulRound(yL, r.wet1)) + int32(fixed.MulRound(yR, r.wet2)) + int32(fixed.MulRound(xL, r.dry))
		mixR := int32(fixed.MulRound(yR, r.wet1)) + int32(fixed.MulRound(yL, r.wet2)) + int32(fixed.MulRound(xR, r.dry))

		outL[i] = fixed.ToDevice(fixed.Q15(mixL))
		outR[i] = fixed.ToDevice(fixed.Q15(mixR))
	}

	return nil
}

// Mute clears all delay lines and comb states, cutting the tail.
// Parameters keep their current values.
func (r *Reverb) Mute() {
	for i := range r.combL {
		r.combL[i].line.Reset()
		r.combL[i].store = 0
		r.combR[i].line.Reset()
		r.combR[i].store = 0
	}
	for i := range r.allpL {
		r.allpL[i].line.Reset()
		r.allpR[i].line.Reset()
	}
}

// Reset mutes the tail and restores the construction-time
// configuration, releasing freeze.
func (r *Reverb) Reset() {
	r.Mute()
	r.applyConfig()
}

func (r *Reverb) applyConfig() {
	r.frozen = false
	r.inputGain = fixed.FromFloat(r.cfg.inputGain)
	r.SetRoomSize(fixed.FromFloat(r.cfg.roomSize))
	r.SetDamping(fixed.FromFloat(r.cfg.damping))
	r.SetWet(fixed.FromFloat(r.cfg.wet))
	r.SetDry(fixed.FromFloat(r.cfg.dry))
	r.SetWidth(fixed.FromFloat(r.cfg.width))
}

// updateWetMix derives the stereo wet gains wet1 = wet*(width/2 + 0.5)
// and wet2 = wet*((1 - width)/2).
func (r *Reverb) updateWetMix() {
	w2 := (r.width + 1) >> 1
	r.wet1 = fixed.MulRound(r.wet, w2+16384)
	r.wet2 = fixed.MulRound(r.wet, 16384-w2)
}

// comb is a lowpass-feedback comb: the delayed output runs through a
// one-pole lowpass before feeding back, darkening the tail over time.
type comb struct {
	line  *delay.Line
	store int16
}

// process reads the delayed sample, refreshes the lowpass state in the
// feedback path, and writes input plus feedback back into the line. The
// store arithmetic stays int16 so a frozen line recirculates untouched.
func (c *comb) process(x, feedback, damp1 fixed.Q15) fixed.Q15 {
	y := c.line.Read()

	// One-pole lowpass in difference form: store = y + (store-y)*damp1,
	// algebraically y*(1-damp1) + store*damp1.
	diff := c.store - y
	c.store = y + int16(fixed.MulRound(fixed.Q15(diff), damp1))

	fb := fixed.MulRound(fixed.Q15(c.store), feedback)
	c.line.WriteAdvance(int32(x) + int32(fb))

	return fixed.Q15(y)
}

// allpass is the classic Freeverb allpass stage with feedback 0.5.
type allpass struct {
	line *delay.Line
}

func (a *allpass) process(x fixed.Q15) fixed.Q15 {
	bufout := fixed.Q15(a.line.Read())

	acc := fixed.Sat(x + fixed.MulRound(bufout, allpassFeedback))
	a.line.WriteAdvance(int32(acc))

	return fixed.Sat(bufout - fixed.MulRound(acc, allpassFeedback))
}

// scaleLength rescales a 44.1 kHz reference length to the target rate
// with rounding.
func scaleLength(base, sampleRate int) int {
	return int((int64(base)*int64(sampleRate) + referenceRate/2) / referenceRate)
}

func newLine(capacity, length int) *delay.Line {
	// Capacity is a positive compile-time constant; New cannot fail.
	l, err := delay.New(capacity)
	if err != nil {
		panic(err)
	}

	l.SetLength(length)

	return l
}

func clampUnit(v fixed.Q15) fixed.Q15 {
	if v < 0 {
		return 0
	}
	if v > fixed.One {
		return fixed.One
	}
	return v
}

func validateFiniteRange(value, min, max float64, name string) error {
	if !isFinite(value) {
		return fmt.Errorf("reverb: %s must be finite: %v", name, value)
	}

	if value < min || value > max {
		return fmt.Errorf("reverb: %s must be in [%g, %g]: %f", name, min, max, value)
	}

	return nil
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
