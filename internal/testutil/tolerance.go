package testutil

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-modular/dsp/fixed"
)

// RequireQ15Equal fails t if got and want differ in length or in any
// element. Fixed-point pipelines are bit-exact, so most comparisons
// need no tolerance at all.
func RequireQ15Equal(t *testing.T, got, want []fixed.Q15) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

// RequireQ15Within fails t if got and want differ in length or if any
// element pair differs by more than tol steps.
func RequireQ15Within(t *testing.T, got, want []fixed.Q15, tol int32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		diff := int32(got[i]) - int32(want[i])
		if diff < 0 {
			diff = -diff
		}
		if diff > tol {
			t.Fatalf("index %d: got %d, want %d (diff %d > tol %d)", i, got[i], want[i], diff, tol)
		}
	}
}

// MaxAbsQ15 returns the largest magnitude in the samples.
func MaxAbsQ15(samples []fixed.Q15) int32 {
	var peak int32
	for _, s := range samples {
		v := int32(s)
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}

// RequireFinite fails t if any element is NaN or Inf.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}
