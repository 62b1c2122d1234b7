package engine

import (
	"github.com/cwbudde/algo-modular/dsp/fixed"
	"github.com/cwbudde/algo-modular/dsp/osc"
	"github.com/cwbudde/algo-modular/dsp/svf"
	"github.com/cwbudde/algo-modular/dsp/xmod"
)

const (
	// Voice control work runs every 128 samples, reseeding every 4096.
	voiceControlMask = 0x7F
	voiceReseedMask  = 0xFFF

	resoNoiseSeed = 0xA5A5F00D
)

// ResoNoiseVoice is the resonant-noise generator: LFSR noise mixed with
// a folded FM sine and driven through a bandpass filter whose cutoff
// tracks the pitch control. Knob readings are inverted (x = 1 - raw)
// and pitch responds quadratically, preserving the original panel feel.
// The noise reseeds periodically from the base seed XOR an accumulated
// control sum, so wiggling X varies the texture.
type ResoNoiseVoice struct {
	noise     *osc.Noise
	fmSine    *osc.Oscillator
	modSquare *osc.Oscillator
	filter    *svf.Filter

	baseSeed  uint32
	seedAccum uint32
	counter   uint32

	depthInc int32
	dcBias   fixed.Q15
}

// NewResoNoiseVoice constructs the voice for the given sample rate.
func NewResoNoiseVoice(sampleRate float64) (*ResoNoiseVoice, error) {
	fmSine, err := osc.New(sampleRate, osc.WithFrequencyHz(20))
	if err != nil {
		return nil, err
	}

	modSquare, err := osc.New(sampleRate, osc.WithShape(osc.ShapeSquare), osc.WithFrequencyHz(20))
	if err != nil {
		return nil, err
	}

	filter, err := svf.New(sampleRate,
		svf.WithMode(svf.ModeBandpass),
		svf.WithCutoffHz(8000),
		svf.WithQ(9))
	if err != nil {
		return nil, err
	}

	return &ResoNoiseVoice{
		noise:     osc.NewNoise(resoNoiseSeed),
		fmSine:    fmSine,
		modSquare: modSquare,
		filter:    filter,
		baseSeed:  resoNoiseSeed,
	}, nil
}

// SetBaseSeed replaces the reseed base. Zero falls back to the default.
func (v *ResoNoiseVoice) SetBaseSeed(seed uint32) {
	if seed == 0 {
		seed = resoNoiseSeed
	}
	v.baseSeed = seed
}

// NextSample renders one sample from the raw 12-bit knob positions,
// returning a device-domain sample.
func (v *ResoNoiseVoice) NextSample(x, y uint16) int16 {
	v.seedAccum += uint32(x)
	if v.counter&voiceReseedMask == 0 {
		v.noise.Seed(v.baseSeed ^ v.seedAccum)
	}
	if v.counter&voiceControlMask == 0 {
		v.updateControls(x, y)
	}
	v.counter++

	n := v.noise.NextSample()

	// The square FM-modulates the sine at full depth.
	m := v.modSquare.NextSample(0)
	fm := int32((int64(m) * int64(v.depthInc)) >> 15)
	s := v.fmSine.NextSample(fm)

	folded := xmod.Fold(s, 0, fixed.One, v.dcBias)

	out := v.filter.ProcessSamplePair(n, folded)

	// Post-filter makeup of 1.8.
	boosted := fixed.Sat(out + fixed.MulRound(out, 26214))
	return fixed.ToDevice(boosted)
}

// Reset rewinds the oscillators, clears filter state, and restores the
// base noise seed.
func (v *ResoNoiseVoice) Reset() {
	v.noise.Seed(v.baseSeed)
	v.fmSine.Reset()
	v.modSquare.Reset()
	v.filter.Reset()
	v.seedAccum = 0
	v.counter = 0
	v.depthInc = 0
	v.dcBias = 0
}

func (v *ResoNoiseVoice) updateControls(x, y uint16) {
	// Panel knobs read inverted; pitch responds quadratically.
	xr := 1 - float64(x)/fixed.KnobMax
	pitch := xr * xr
	modHz := 20 + pitch*7777
	sineHz := 20 + pitch*10000

	_ = v.modSquare.SetFrequencyHz(modHz)
	_ = v.fmSine.SetFrequencyHz(sineHz)
	v.depthInc = v.fmSine.PhaseIncrement(sineHz)

	v.filter.SetCutoffHz(400 + pitch*7600)

	yr := 1 - float64(y)/fixed.KnobMax
	v.dcBias = fixed.FromFloat(yr*0.2 + 0.03)
}

// CrossModRingVoice cross-FMs two sine oscillators with each other's
// previous output, rings the pair, and soft-limits the product. The Y
// control doubles as a chaos amount feeding DC, ring-feedback, and
// noise terms into both FM inputs.
type CrossModRingVoice struct {
	osc1  *osc.Oscillator
	osc2  *osc.Oscillator
	noise *osc.Noise

	prev1 fixed.Q15
	prev2 fixed.Q15

	counter uint32

	// FM scales and caps in phase-increment units, chaos terms in
	// Q16.16 of normalized deviation.
	depthInc1 int32
	depthInc2 int32
	capInc1   int32
	capInc2   int32
	chaosDC   int32
	ringAmt   int32
	noiseAmt  int32
}

// NewCrossModRingVoice constructs the voice for the given sample rate.
// The oscillators idle at the original pair of 1100 and 1367 Hz until
// the first control tick.
func NewCrossModRingVoice(sampleRate float64) (*CrossModRingVoice, error) {
	osc1, err := osc.New(sampleRate, osc.WithFrequencyHz(1100))
	if err != nil {
		return nil, err
	}

	osc2, err := osc.New(sampleRate, osc.WithFrequencyHz(1367))
	if err != nil {
		return nil, err
	}

	return &CrossModRingVoice{
		osc1:  osc1,
		osc2:  osc2,
		noise: osc.NewNoise(1),
	}, nil
}

// NextSample renders one sample from the raw 12-bit knob positions,
// returning a device-domain sample.
func (v *CrossModRingVoice) NextSample(x, y uint16) int16 {
	if v.counter&voiceControlMask == 0 {
		v.updateControls(x, y)
	}
	v.counter++

	// Normalized Q16.16 feedback terms from the previous sample.
	nrm1 := int32(v.prev1) * 2
	nrm2 := int32(v.prev2) * 2

	ringPrev := int32((int64(v.prev1)*int64(v.prev2))>>15) * 2
	ringContrib := int32((int64(ringPrev) * int64(v.ringAmt)) >> 16)

	noiseQ := int32(v.noise.NextSample()) * 2
	noiseContrib := int32((int64(noiseQ) * int64(v.noiseAmt)) >> 16)

	fmIn1 := clampQ16(nrm2 + v.chaosDC + ringContrib + noiseContrib)
	fmIn2 := clampQ16(nrm1 + v.chaosDC + ringContrib + noiseContrib)

	fm1 := clampAbs(int32((int64(fmIn1)*int64(v.depthInc1))>>16), v.capInc1)
	fm2 := clampAbs(int32((int64(fmIn2)*int64(v.depthInc2))>>16), v.capInc2)

	o1 := v.osc1.NextSample(fm1)
	o2 := v.osc2.NextSample(fm2)
	v.prev1 = o1
	v.prev2 = o2

	ring := int32((int64(o1) * int64(o2)) >> 15)
	shaped := xmod.SoftLimit(ring << 2)
	return fixed.ToDevice(shaped)
}

// Reset rewinds the oscillators and clears the feedback state.
func (v *CrossModRingVoice) Reset() {
	v.osc1.Reset()
	v.osc2.Reset()
	v.noise.Seed(1)
	v.prev1 = 0
	v.prev2 = 0
	v.counter = 0
}

func (v *CrossModRingVoice) updateControls(x, y uint16) {
	k1 := float64(x) / fixed.KnobMax
	k2 := float64(y) / fixed.KnobMax
	pitch1 := k1 * k1
	pitch2 := k2 * k2

	freq1 := 100 + pitch1*8000
	freq2 := 60 + pitch2*3000
	_ = v.osc1.SetFrequencyHz(freq1)
	_ = v.osc2.SetFrequencyHz(freq2)

	// Chaos squares the Y control for sensitivity; FM depth reaches one
	// octave of deviation at full chaos, capped so the increment sum
	// keeps moving forward.
	chaos := pitch2

	v.depthInc1 = v.osc1.PhaseIncrement(freq1 * chaos)
	v.depthInc2 = v.osc2.PhaseIncrement(freq2 * chaos)
	v.capInc1 = v.osc1.PhaseIncrement(0.8 * freq1)
	v.capInc2 = v.osc2.PhaseIncrement(0.8 * freq2)

	v.chaosDC = int32(chaos*65536 + 0.5)
	v.ringAmt = int32(0.6*chaos*65536 + 0.5)
	v.noiseAmt = int32(0.2*chaos*65536 + 0.5)
}

func clampQ16(v int32) int32 {
	if v < -65536 {
		return -65536
	}
	if v > 65536 {
		return 65536
	}
	return v
}

func clampAbs(v, limit int32) int32 {
	if v < -limit {
		return -limit
	}
	if v > limit {
		return limit
	}
	return v
}
