package xmod

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-modular/dsp/fixed"
	"github.com/cwbudde/algo-modular/internal/testutil"
)

func TestNewVocoderValidation(t *testing.T) {
	for _, rate := range []float64{0, -44100, math.NaN(), math.Inf(-1)} {
		if _, err := NewVocoder(rate); err == nil {
			t.Errorf("NewVocoder(%f) expected error", rate)
		}
	}
	if _, err := NewVocoder(48000); err != nil {
		t.Fatalf("NewVocoder() error = %v", err)
	}
}

// Coefficients must only change when p2 crosses into another of the 32
// formant buckets; wiggling inside one bucket is inaudible by design.
func TestVocoderFormantBucketGating(t *testing.T) {
	const n = 2000
	car := testutil.SquareQ15(192, 12000, n)
	mod := testutil.SineQ15(700, 48000, 12000, n)

	steady, err := NewVocoder(48000)
	if err != nil {
		t.Fatalf("NewVocoder() error = %v", err)
	}
	wiggling, err := NewVocoder(48000)
	if err != nil {
		t.Fatalf("NewVocoder() error = %v", err)
	}
	shifted, err := NewVocoder(48000)
	if err != nil {
		t.Fatalf("NewVocoder() error = %v", err)
	}

	outSteady := make([]fixed.Q15, n)
	outWiggling := make([]fixed.Q15, n)
	outShifted := make([]fixed.Q15, n)
	for i := range n {
		// 13000 and 13100 share bucket 12; 14000 lands in bucket 13.
		p2 := fixed.Q15(13000)
		if i%2 == 1 {
			p2 = 13100
		}
		outSteady[i] = steady.Process(car[i], mod[i], 0, 13000)
		outWiggling[i] = wiggling.Process(car[i], mod[i], 0, p2)
		outShifted[i] = shifted.Process(car[i], mod[i], 0, 14000)
	}

	testutil.RequireQ15Equal(t, outWiggling, outSteady)

	same := true
	for i := range n {
		if outShifted[i] != outSteady[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("bucket change did not alter the band coefficients")
	}
}

func TestVocoderBandSelectivity(t *testing.T) {
	const (
		n      = 6000
		settle = 1200
	)
	car := testutil.SquareQ15(192, 12000, n)
	modInBand := testutil.SineQ15(700, 48000, 12000, n)
	modBelow := testutil.SineQ15(10, 48000, 12000, n)

	inBand, err := NewVocoder(48000)
	if err != nil {
		t.Fatalf("NewVocoder() error = %v", err)
	}
	below, err := NewVocoder(48000)
	if err != nil {
		t.Fatalf("NewVocoder() error = %v", err)
	}

	outInBand := make([]fixed.Q15, 0, n-settle)
	outBelow := make([]fixed.Q15, 0, n-settle)
	for i := range n {
		a := inBand.Process(car[i], modInBand[i], 0, 16384)
		b := below.Process(car[i], modBelow[i], 0, 16384)
		if i >= settle {
			outInBand = append(outInBand, a)
			outBelow = append(outBelow, b)
		}
	}

	rmsInBand := testutil.RMSQ15(outInBand)
	rmsBelow := testutil.RMSQ15(outBelow)
	if rmsInBand < 100 {
		t.Fatalf("in-band modulator barely speaks: rms = %.1f", rmsInBand)
	}
	if rmsBelow*2 > rmsInBand {
		t.Errorf("sub-band modulator not attenuated: in-band rms %.1f vs below %.1f", rmsInBand, rmsBelow)
	}
}

func TestVocoderReleaseOrdering(t *testing.T) {
	const (
		burst = 2400
		tail  = 2400
		n     = burst + tail
	)
	car := testutil.SquareQ15(192, 16000, n)
	mod := testutil.SineQ15(700, 48000, 24000, n)
	// The modulator goes near-silent (but stays above the role-swap gate)
	// after the burst; only the release time decides what remains.
	for i := burst; i < n; i++ {
		mod[i] = 16
	}

	fast, err := NewVocoder(48000)
	if err != nil {
		t.Fatalf("NewVocoder() error = %v", err)
	}
	slow, err := NewVocoder(48000)
	if err != nil {
		t.Fatalf("NewVocoder() error = %v", err)
	}

	lateFast := make([]fixed.Q15, 0, 600)
	lateSlow := make([]fixed.Q15, 0, 600)
	for i := range n {
		a := fast.Process(car[i], mod[i], 0, 16384)    // 5 ms release
		b := slow.Process(car[i], mod[i], 1172, 16384) // ~23 ms release
		if i >= n-600 {
			lateFast = append(lateFast, a)
			lateSlow = append(lateSlow, b)
		}
	}

	rmsFast := testutil.RMSQ15(lateFast)
	rmsSlow := testutil.RMSQ15(lateSlow)
	if rmsSlow < 10 {
		t.Fatalf("slow release decayed completely: rms = %.2f", rmsSlow)
	}
	if rmsFast*4 > rmsSlow {
		t.Errorf("release ordering violated: fast rms %.2f vs slow %.2f", rmsFast, rmsSlow)
	}
}

func TestVocoderResetRestoresSequence(t *testing.T) {
	v, err := NewVocoder(48000)
	if err != nil {
		t.Fatalf("NewVocoder() error = %v", err)
	}
	car := testutil.SquareQ15(192, 12000, 200)
	mod := testutil.SineQ15(700, 48000, 12000, 200)

	first := make([]fixed.Q15, 200)
	for i := range first {
		first[i] = v.Process(car[i], mod[i], 5000, 20000)
	}
	v.Reset()
	second := make([]fixed.Q15, 200)
	for i := range second {
		second[i] = v.Process(car[i], mod[i], 5000, 20000)
	}
	testutil.RequireQ15Equal(t, first, second)
}
