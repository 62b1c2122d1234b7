package engine

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-modular/dsp/fixed"
	"github.com/cwbudde/algo-modular/dsp/xmod"
	"github.com/cwbudde/algo-modular/internal/testutil"
)

// deviceNoise renders reproducible noise in device units.
func deviceNoise(seed int64, length int) []int16 {
	q := testutil.NoiseQ15(seed, 30000, length)
	out := make([]int16, length)
	for i, v := range q {
		out[i] = fixed.ToDevice(v)
	}
	return out
}

func TestNewValidation(t *testing.T) {
	for _, rate := range []float64{0, -48000, math.NaN(), math.Inf(1)} {
		if _, err := New(rate); err == nil {
			t.Errorf("New(%f) expected error", rate)
		}
	}

	if _, err := New(48000, WithAlgorithm(xmod.Algorithm(-1))); err == nil {
		t.Error("New() with negative algorithm expected error")
	}
	if _, err := New(48000, WithAlgorithm(xmod.Count)); err == nil {
		t.Error("New() with out-of-range algorithm expected error")
	}

	e, err := New(48000, nil, WithAlgorithm(xmod.AlgorithmFold))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := e.Algorithm(); got != xmod.AlgorithmFold {
		t.Errorf("Algorithm() = %v, want %v", got, xmod.AlgorithmFold)
	}
}

func TestProcessSamplePassthrough(t *testing.T) {
	e, err := New(48000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// The selector rests in the passthrough band; the audio path is an
	// exact device-domain round trip and out2 mirrors the raw input.
	for _, x := range []int16{0, 1, -1, 1000, -1000, 2047, -2047, -2048} {
		out1, out2 := e.ProcessSample(Inputs{Audio1: x, Audio2: -555})
		if out1 != x {
			t.Errorf("ProcessSample(%d) out1 = %d, want identity", x, out1)
		}
		if out2 != x {
			t.Errorf("ProcessSample(%d) out2 = %d, want raw input", x, out2)
		}
	}
}

func TestProcessSampleControlWiring(t *testing.T) {
	e, err := New(48000, WithAlgorithm(xmod.AlgorithmCrossfade))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// X at zero keeps the first input; X at full travel, or pushed
	// there by CV2, selects the second.
	tests := []struct {
		name string
		x    uint16
		cv2  int16
		a1   int16
		a2   int16
		want int16
	}{
		{"fade fully closed", 0, 0, 1000, -800, 1000},
		{"fade fully open", 4095, 0, 500, -800, -800},
		{"cv pushes fade open", 2048, 2047, 0, 1000, 1000},
		{"cv pulls fade closed", 2048, -2048, -700, 321, -700},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.Reset()
			out1, _ := e.ProcessSample(Inputs{
				Audio1:   tt.a1,
				Audio2:   tt.a2,
				Controls: Controls{X: tt.x, CV2: tt.cv2},
			})
			if out1 != tt.want {
				t.Errorf("crossfade out1 = %d, want %d", out1, tt.want)
			}
		})
	}
}

func TestControlRateBoundary(t *testing.T) {
	e, err := New(48000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// The first sample latches the selector.
	e.ProcessSample(Inputs{Controls: Controls{Main: 300}})
	if got := e.Algorithm(); got != xmod.AlgorithmCrossfade {
		t.Fatalf("Algorithm() = %v, want %v", got, xmod.AlgorithmCrossfade)
	}

	// Mid-block changes wait for the next 128-sample tick.
	for range 127 {
		e.ProcessSample(Inputs{Controls: Controls{Main: 3000}})
	}
	if got := e.Algorithm(); got != xmod.AlgorithmCrossfade {
		t.Errorf("Algorithm() mid-block = %v, want unchanged %v", got, xmod.AlgorithmCrossfade)
	}

	e.ProcessSample(Inputs{Controls: Controls{Main: 3000}})
	if got := e.Algorithm(); got != xmod.AlgorithmComparatorChebyshev {
		t.Errorf("Algorithm() at control tick = %v, want %v", got, xmod.AlgorithmComparatorChebyshev)
	}
}

func TestForceAlgorithmOverridesSelector(t *testing.T) {
	e, err := New(48000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	e.ForceAlgorithm(xmod.AlgorithmCrossfade)
	e.ProcessSample(Inputs{Controls: Controls{Main: 3000}})
	if got := e.Algorithm(); got != xmod.AlgorithmCrossfade {
		t.Errorf("Algorithm() = %v, want forced %v", got, xmod.AlgorithmCrossfade)
	}

	// Out-of-range requests are ignored.
	e.ForceAlgorithm(xmod.Algorithm(-3))
	e.ForceAlgorithm(xmod.Algorithm(99))
	if got := e.Algorithm(); got != xmod.AlgorithmCrossfade {
		t.Errorf("Algorithm() after invalid force = %v, want %v", got, xmod.AlgorithmCrossfade)
	}

	e.FollowSelector()
	e.Reset()
	e.ProcessSample(Inputs{Controls: Controls{Main: 3000}})
	if got := e.Algorithm(); got != xmod.AlgorithmComparatorChebyshev {
		t.Errorf("Algorithm() after FollowSelector = %v, want %v", got, xmod.AlgorithmComparatorChebyshev)
	}
}

func TestClippedCountsRailSamples(t *testing.T) {
	e, err := New(48000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// -2048 maps onto the negative Q15 rail; 2047 stays one step short
	// of the positive one.
	for range 3 {
		e.ProcessSample(Inputs{Audio1: -2048})
	}
	for range 2 {
		e.ProcessSample(Inputs{Audio1: 2047})
	}
	if got := e.Clipped(); got != 3 {
		t.Errorf("Clipped() = %d, want 3", got)
	}

	e.Reset()
	if got := e.Clipped(); got != 0 {
		t.Errorf("Clipped() after Reset = %d, want 0", got)
	}
}

func TestResetReproducesOutput(t *testing.T) {
	// The frequency shifter carries carrier phase across samples, so a
	// replay only matches after a full state reset.
	e, err := New(48000, WithAlgorithm(xmod.AlgorithmFrequencyShifter))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := deviceNoise(21, 200)
	ctrl := Controls{X: 2000, Y: 3000}

	first := make([]int16, len(in))
	for i, x := range in {
		first[i], _ = e.ProcessSample(Inputs{Audio1: x, Audio2: -x, Controls: ctrl})
	}

	e.Reset()
	for i, x := range in {
		got, _ := e.ProcessSample(Inputs{Audio1: x, Audio2: -x, Controls: ctrl})
		if got != first[i] {
			t.Fatalf("sample %d after Reset = %d, want %d", i, got, first[i])
		}
	}
}

func BenchmarkProcessSample(b *testing.B) {
	e, err := New(48000)
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}
	in := Inputs{Audio1: 1000, Audio2: -700, Controls: Controls{Main: 900, X: 2000, Y: 3000}}

	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		e.ProcessSample(in)
	}
}
