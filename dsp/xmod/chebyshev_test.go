package xmod

import (
	"testing"

	"github.com/cwbudde/algo-modular/dsp/fixed"
)

func TestChebyshevOrderOneIdentity(t *testing.T) {
	// p1 = 2048 selects T1 with zero fraction; unity pre-gain at p2 = 0
	// makes the whole stage an exact identity.
	for _, x := range []fixed.Q15{0, 1000, -1000, 16384, -16384, fixed.Max, fixed.Min} {
		if got := Chebyshev(x, 0, 2048, 0); got != x {
			t.Errorf("Chebyshev(%d, 0, 2048, 0) = %d, want %d", x, got, x)
		}
	}
}

func TestChebyshevOrderZeroHalvesDoubledGain(t *testing.T) {
	// p2 = One doubles the input into saturation; the output compensation
	// then divides by One and halves.
	if got := Chebyshev(16384, 0, 0, fixed.One); got != 16383 {
		t.Errorf("Chebyshev(16384, 0, 0, One) = %d, want 16383", got)
	}
}

func TestChebyshevSecondOrderNode(t *testing.T) {
	// T2 has a zero at x = cos(pi/4); 23170 lands one truncation step off.
	if got := Chebyshev(23170, 0, 4096, 0); got != -2 {
		t.Errorf("Chebyshev(23170, 0, 4096, 0) = %d, want -2", got)
	}
}

func TestChebyshevSaturatesInputSum(t *testing.T) {
	if got := Chebyshev(30000, 30000, 2048, 0); got != fixed.Max {
		t.Errorf("Chebyshev(30000, 30000, 2048, 0) = %d, want %d", got, fixed.Max)
	}
}

func TestChebyshevFullOrderAtZero(t *testing.T) {
	// T16(0) = cos(8*pi) = 1, reached through the saturating recurrence.
	if got := Chebyshev(0, 0, fixed.One, 0); got != fixed.Max {
		t.Errorf("Chebyshev(0, 0, One, 0) = %d, want %d", got, fixed.Max)
	}
}

func TestChebyshevOrderMorphContinuity(t *testing.T) {
	// The fraction morphs between adjacent polynomial orders; at each
	// integer boundary the outgoing target becomes the incoming start, so
	// the sweep never jumps.
	prev := Chebyshev(18000, 0, 0, 0)
	for p1 := fixed.Q15(1); p1 <= fixed.One; p1++ {
		cur := Chebyshev(18000, 0, p1, 0)
		diff := int32(cur) - int32(prev)
		if diff < 0 {
			diff = -diff
		}
		if diff > 64 {
			t.Fatalf("p1=%d: step %d exceeds 64 (prev %d, cur %d)", p1, diff, prev, cur)
		}
		prev = cur
	}
}

func TestChebyshevStaysInRange(t *testing.T) {
	xs := []fixed.Q15{fixed.Min, -18000, 0, 18000, fixed.Max}
	ps := []fixed.Q15{0, 2048, 4096, 16384, fixed.Max, fixed.One}
	gains := []fixed.Q15{fixed.Min, -16384, 0, 16384, fixed.Max}
	for _, x := range xs {
		for _, p1 := range ps {
			for _, p2 := range gains {
				got := Chebyshev(x, 0, p1, p2)
				if got > fixed.Max || got < fixed.Min {
					t.Fatalf("Chebyshev(%d, 0, %d, %d) = %d out of range", x, p1, p2, got)
				}
			}
		}
	}
}

func TestComparatorChebyshevScale(t *testing.T) {
	// Silent inputs run the full-order stage at T16(0) = 1, scaled 0.8.
	if got := ComparatorChebyshev(0, 0, 0, 0); got != 26213 {
		t.Errorf("ComparatorChebyshev(0, 0, 0, 0) = %d, want 26213", got)
	}
}
