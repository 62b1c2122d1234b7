package xmod

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-modular/dsp/fixed"
)

// vocoderBands are the base band centers in Hz before formant shift.
var vocoderBands = [4]float64{300, 700, 1500, 3000}

// onePole is y += a*(x-y), the lowpass building block of the band stack.
type onePole struct {
	y     int32
	alpha int32
}

func (p *onePole) process(x int32) int32 {
	p.y += int32((int64(p.alpha) * int64(x-p.y)) >> 15)
	return p.y
}

// Vocoder is a four-band channel vocoder. Each band is a one-pole
// highpass/lowpass pair on modulator and carrier; the rectified
// modulator band drives an envelope follower that gates the carrier
// band. Coefficients are recomputed in float64 only when the p2 formant
// bucket changes, keeping the per-sample path integer-only.
type Vocoder struct {
	sampleRate float64

	inited     bool
	prevBucket int

	preLPMod  [4]onePole
	postLPMod [4]onePole
	preLPCar  [4]onePole
	postLPCar [4]onePole
	envLP     [4]onePole

	releaseAlpha int32
}

// NewVocoder constructs a vocoder for the given sample rate.
func NewVocoder(sampleRate float64) (*Vocoder, error) {
	if !isFinite(sampleRate) || sampleRate <= 0 {
		return nil, fmt.Errorf("xmod: sample rate must be > 0 and finite: %f", sampleRate)
	}
	return &Vocoder{sampleRate: sampleRate, prevBucket: -1}, nil
}

// Reset clears all filter and envelope state and forces coefficient
// recomputation on the next sample.
func (v *Vocoder) Reset() {
	for i := range v.preLPMod {
		v.preLPMod[i].y = 0
		v.postLPMod[i].y = 0
		v.preLPCar[i].y = 0
		v.postLPCar[i].y = 0
		v.envLP[i].y = 0
	}
	v.inited = false
	v.prevBucket = -1
}

// Process runs one sample. The louder input (gated at |x| >= 8) takes
// the carrier role for x1 and the modulator role for x2; p1 sets the
// envelope release (5..500 ms), p2 the formant shift (0.5x..2x).
func (v *Vocoder) Process(x1, x2, p1, p2 fixed.Q15) fixed.Q15 {
	if !v.inited {
		v.updateCoefficients(p1, p2)
		for i := range v.envLP {
			v.envLP[i].alpha = v.releaseAlpha
		}
		v.inited = true
	}

	bucket := int((uint32(fixed.Clamp(p2, 0, fixed.One)) * 32) >> 15)
	if bucket != v.prevBucket {
		v.updateCoefficients(p1, p2)
		for i := range v.envLP {
			v.envLP[i].alpha = v.releaseAlpha
		}
		v.prevBucket = bucket
	}

	// Near-silent inputs swap roles so a single patched signal still
	// speaks through the bank.
	car := int32(x1)
	if absInt32(car) < 8 {
		car = int32(x2)
	}
	mod := int32(x2)
	if absInt32(mod) < 8 {
		mod = int32(x1)
	}

	var acc int64
	for i := range vocoderBands {
		hpMod := mod - v.preLPMod[i].process(mod)
		bpMod := v.postLPMod[i].process(hpMod)
		env := v.envLP[i].process(absInt32(bpMod))

		hpCar := car - v.preLPCar[i].process(car)
		bpCar := v.postLPCar[i].process(hpCar)

		acc += int64(int32((int64(bpCar) * int64(env)) >> 15))
	}

	if acc > fixed.Max {
		acc = fixed.Max
	} else if acc < fixed.Min {
		acc = fixed.Min
	}
	return fixed.Q15(acc)
}

func (v *Vocoder) updateCoefficients(p1, p2 fixed.Q15) {
	p2u := fixed.Clamp(p2, 0, fixed.One)
	shift := mathExp2((float64(p2u)/fixed.One - 0.5) * 2)

	for i, cf := range vocoderBands {
		center := cf * shift
		aLow := alphaForHz(center/math.Sqrt2, v.sampleRate)
		aHigh := alphaForHz(center*math.Sqrt2, v.sampleRate)
		v.preLPMod[i].alpha = aLow
		v.postLPMod[i].alpha = aHigh
		v.preLPCar[i].alpha = aLow
		v.postLPCar[i].alpha = aHigh
	}

	relMS := 5 + (float64(p1)/fixed.One)*495
	aEnv := 1 - mathExp(-1/(relMS*0.001*v.sampleRate))
	if aEnv < 0.00005 {
		aEnv = 0.00005
	}
	if aEnv > 0.2 {
		aEnv = 0.2
	}
	v.releaseAlpha = q15Round(aEnv)
}

// alphaForHz converts a cutoff to a one-pole coefficient,
// a = 1 - exp(-2*pi*fc/fs), clamped to a stable range.
func alphaForHz(fc, fs float64) int32 {
	a := 1 - mathExp(-2*math.Pi*fc/fs)
	if a < 0.0001 {
		a = 0.0001
	}
	if a > 0.9999 {
		a = 0.9999
	}
	return q15Round(a)
}

func q15Round(x float64) int32 {
	v := int64(math.Round(x * fixed.One))
	if v > fixed.Max {
		v = fixed.Max
	}
	if v < fixed.Min {
		v = fixed.Min
	}
	return int32(v)
}
