package testutil

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-modular/dsp/fixed"
)

// SineQ15 generates a deterministic sine wave in Q1.15, rounded to the
// nearest step.
func SineQ15(freqHz, sampleRate float64, amplitude fixed.Q15, length int) []fixed.Q15 {
	out := make([]fixed.Q15, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = fixed.Sat(fixed.Q15(math.Round(float64(amplitude) * math.Sin(step*float64(i)))))
	}
	return out
}

// SquareQ15 generates a 50% duty square wave that starts on the high
// half-cycle. period is the full cycle length in samples.
func SquareQ15(period int, amplitude fixed.Q15, length int) []fixed.Q15 {
	out := make([]fixed.Q15, length)
	if period < 2 {
		period = 2
	}
	half := period / 2
	for i := range out {
		if i%period < half {
			out[i] = amplitude
		} else {
			out[i] = -amplitude
		}
	}
	return out
}

// NoiseQ15 generates white noise with a fixed seed for reproducibility.
func NoiseQ15(seed int64, amplitude fixed.Q15, length int) []fixed.Q15 {
	out := make([]fixed.Q15, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = fixed.Sat(fixed.Q15(math.Round((rng.Float64()*2 - 1) * float64(amplitude))))
	}
	return out
}

// ImpulseQ15 generates a single impulse of the given amplitude at pos.
func ImpulseQ15(length, pos int, amplitude fixed.Q15) []fixed.Q15 {
	out := make([]fixed.Q15, length)
	if pos >= 0 && pos < length {
		out[pos] = amplitude
	}
	return out
}

// DCQ15 generates a constant-valued signal.
func DCQ15(value fixed.Q15, length int) []fixed.Q15 {
	out := make([]fixed.Q15, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// ToFloat64 converts Q1.15 samples to [-1, 1) floats.
func ToFloat64(samples []fixed.Q15) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = fixed.ToFloat(s)
	}
	return out
}

// RMSQ15 returns the root mean square of the samples in Q1.15 steps.
func RMSQ15(samples []fixed.Q15) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
