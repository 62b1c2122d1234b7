package engine

import (
	"testing"

	"github.com/cwbudde/algo-modular/dsp/xmod"
)

func TestCombineClamped(t *testing.T) {
	tests := []struct {
		name string
		knob uint16
		cv   int16
		want uint16
	}{
		{"zero", 0, 0, 0},
		{"plain sum", 2000, 100, 2100},
		{"negative cv", 3000, -1000, 2000},
		{"clamp top", 4000, 2047, 4095},
		{"clamp top from max", 4095, 1, 4095},
		{"clamp bottom", 100, -200, 0},
		{"clamp bottom from zero", 0, -1, 0},
		{"full swing", 4095, -2048, 2047},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CombineClamped(tt.knob, tt.cv); got != tt.want {
				t.Errorf("CombineClamped(%d, %d) = %d, want %d", tt.knob, tt.cv, got, tt.want)
			}
		})
	}
}

func TestCombineWrapped(t *testing.T) {
	tests := []struct {
		name string
		knob uint16
		cv   int16
		want uint16
	}{
		{"zero", 0, 0, 0},
		{"plain sum", 2000, 100, 2100},
		{"wrap below", 0, -1, 4095},
		{"wrap below further", 100, -200, 3996},
		{"wrap above", 4095, 1, 0},
		{"wrap above further", 4095, 2047, 2046},
		{"full period is identity", 0, -4096, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CombineWrapped(tt.knob, tt.cv); got != tt.want {
				t.Errorf("CombineWrapped(%d, %d) = %d, want %d", tt.knob, tt.cv, got, tt.want)
			}
		})
	}
}

func TestAlgorithmForSelector(t *testing.T) {
	// Band edges: a selector at a band's lower boundary belongs to that
	// band.
	tests := []struct {
		sel  uint16
		want xmod.Algorithm
	}{
		{0, xmod.AlgorithmPassthrough},
		{291, xmod.AlgorithmPassthrough},
		{292, xmod.AlgorithmCrossfade},
		{584, xmod.AlgorithmCrossfade},
		{585, xmod.AlgorithmFold},
		{877, xmod.AlgorithmXOR},
		{1170, xmod.AlgorithmRingAnalog},
		{1462, xmod.AlgorithmRingDigital},
		{1755, xmod.AlgorithmRingBlend},
		{2048, xmod.AlgorithmComparator},
		{2340, xmod.AlgorithmComparator8},
		{2633, xmod.AlgorithmChebyshev},
		{2925, xmod.AlgorithmComparatorChebyshev},
		{3218, xmod.AlgorithmBitcrusher},
		{3510, xmod.AlgorithmFrequencyShifter},
		{3803, xmod.AlgorithmVocoder},
		{4095, xmod.AlgorithmVocoder},
	}
	for _, tt := range tests {
		if got := AlgorithmForSelector(tt.sel); got != tt.want {
			t.Errorf("AlgorithmForSelector(%d) = %v, want %v", tt.sel, got, tt.want)
		}
	}
}

func TestSelectorBandsCoverRangeInOrder(t *testing.T) {
	var seen [xmod.Count]bool
	prev := xmod.AlgorithmPassthrough
	for sel := range uint16(4096) {
		a := AlgorithmForSelector(sel)
		if a < 0 || a >= xmod.Count {
			t.Fatalf("AlgorithmForSelector(%d) = %d out of range", sel, int(a))
		}
		if a < prev {
			t.Fatalf("AlgorithmForSelector(%d) = %v, below previous band %v", sel, a, prev)
		}
		seen[a] = true
		prev = a
	}
	for i, ok := range seen {
		if !ok {
			t.Errorf("algorithm %v has no selector band", xmod.Algorithm(i))
		}
	}
}

func TestSelectorWrapLandsInTopBand(t *testing.T) {
	// A CV pulling the selector below zero re-enters from the top.
	if got := AlgorithmForSelector(CombineWrapped(0, -1)); got != xmod.AlgorithmVocoder {
		t.Errorf("wrapped selector = %v, want %v", got, xmod.AlgorithmVocoder)
	}
}
