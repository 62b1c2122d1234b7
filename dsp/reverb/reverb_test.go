package reverb

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-modular/dsp/fixed"
	"github.com/cwbudde/algo-modular/internal/testutil"
)

func deviceNoise(seed int64, length int) []int16 {
	q := testutil.NoiseQ15(seed, fixed.Max, length)
	out := make([]int16, length)
	for i, v := range q {
		out[i] = fixed.ToDevice(v)
	}
	return out
}

func blockRMS(block []int16) float64 {
	if len(block) == 0 {
		return 0
	}
	var acc float64
	for _, v := range block {
		f := float64(v)
		acc += f * f
	}
	return math.Sqrt(acc / float64(len(block)))
}

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Error("New(0) expected error")
	}
	if _, err := New(-48000); err == nil {
		t.Error("New(-48000) expected error")
	}

	tests := []struct {
		name string
		opt  Option
	}{
		{"room size high", WithRoomSize(1.5)},
		{"room size NaN", WithRoomSize(math.NaN())},
		{"damping negative", WithDamping(-0.1)},
		{"wet high", WithWet(2)},
		{"dry negative", WithDry(-1)},
		{"width high", WithWidth(1.01)},
		{"input gain zero", WithInputGain(0)},
		{"input gain high", WithInputGain(1.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(48000, tt.opt); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := New(48000, nil, WithRoomSize(0.7)); err != nil {
		t.Fatalf("New() error = %v", err)
	}
}

func TestNewDefaults(t *testing.T) {
	r, err := New(48000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := r.feedback; got != 20644 {
		t.Errorf("feedback = %d, want 20644", got)
	}
	if got := r.damp1; got != 6554 {
		t.Errorf("damp1 = %d, want 6554", got)
	}
	if got := r.wet1; got != 10922 {
		t.Errorf("wet1 = %d, want 10922", got)
	}
	if got := r.wet2; got != 0 {
		t.Errorf("wet2 = %d, want 0", got)
	}
	if got := r.dry; got != fixed.Max {
		t.Errorf("dry = %d, want %d", got, fixed.Max)
	}
	if got := r.inputGain; got != 3276 {
		t.Errorf("inputGain = %d, want 3276", got)
	}

	if got := r.combL[0].line.Length(); got != 1215 {
		t.Errorf("comb 0 left length = %d, want 1215", got)
	}
	if got := r.combR[0].line.Length(); got != 1238 {
		t.Errorf("comb 0 right length = %d, want 1238", got)
	}
	if got := r.allpL[3].line.Length(); got != 245 {
		t.Errorf("allpass 3 left length = %d, want 245", got)
	}
}

func TestNewClampsLengthsToCapacity(t *testing.T) {
	// At 96 kHz every rescaled comb (2429 and up) and the three longest
	// allpasses exceed their line capacities; the lengths clamp there
	// instead of failing construction.
	r, err := New(96000)
	if err != nil {
		t.Fatalf("New(96000) error = %v", err)
	}

	for i := range r.combL {
		if got := r.combL[i].line.Length(); got != combCapacity {
			t.Errorf("comb %d left length = %d, want %d", i, got, combCapacity)
		}
		if got := r.combR[i].line.Length(); got != combCapacity {
			t.Errorf("comb %d right length = %d, want %d", i, got, combCapacity)
		}
	}
	for i := 0; i < 3; i++ {
		if got := r.allpL[i].line.Length(); got != allpassCapacity {
			t.Errorf("allpass %d left length = %d, want %d", i, got, allpassCapacity)
		}
	}
	// The shortest allpass still fits: (225*96000 + 22050) / 44100.
	if got := r.allpL[3].line.Length(); got != 490 {
		t.Errorf("allpass 3 left length = %d, want 490", got)
	}
	if got := r.allpR[3].line.Length(); got != 513 {
		t.Errorf("allpass 3 right length = %d, want 513", got)
	}

	in := make([]int16, 64)
	in[0] = 1000
	outL := make([]int16, 64)
	outR := make([]int16, 64)
	if err := r.ProcessBlock(in, nil, outL, outR); err != nil {
		t.Fatalf("ProcessBlock() error = %v", err)
	}
	if outL[0] != 1000 {
		t.Errorf("dry output at 96 kHz = %d, want 1000", outL[0])
	}
}

func TestSettersClamp(t *testing.T) {
	r, err := New(48000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	r.SetRoomSize(fixed.Q15(99999))
	if r.feedback != 32112 {
		t.Errorf("feedback = %d, want 32112", r.feedback)
	}

	r.SetRoomSize(-100)
	if r.feedback != roomOffset {
		t.Errorf("feedback = %d, want %d", r.feedback, roomOffset)
	}

	r.SetDamping(fixed.One)
	if r.damp1 != dampScale {
		t.Errorf("damp1 = %d, want %d", r.damp1, dampScale)
	}

	r.SetWet(fixed.One)
	r.SetWidth(0)
	if r.wet1 != 16384 || r.wet2 != 16384 {
		t.Errorf("zero width wet gains = (%d, %d), want (16384, 16384)", r.wet1, r.wet2)
	}

	r.SetInputGain(fixed.Q15(-5))
	if r.inputGain != 0 {
		t.Errorf("inputGain = %d, want 0", r.inputGain)
	}
}

func TestProcessBlockValidation(t *testing.T) {
	r, err := New(48000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	out := make([]int16, 64)
	if err := r.ProcessBlock(nil, nil, out, make([]int16, 32)); err == nil {
		t.Error("mismatched output lengths expected error")
	}
	if err := r.ProcessBlock(make([]int16, 32), nil, out, make([]int16, 64)); err == nil {
		t.Error("short left input expected error")
	}
	if err := r.ProcessBlock(nil, make([]int16, 128), out, make([]int16, 64)); err == nil {
		t.Error("long right input expected error")
	}
	if err := r.ProcessBlock(nil, nil, out, make([]int16, 64)); err != nil {
		t.Errorf("nil inputs: ProcessBlock() error = %v", err)
	}
}

func TestSilenceStaysSilent(t *testing.T) {
	r, err := New(48000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	outL := make([]int16, 256)
	outR := make([]int16, 256)
	if err := r.ProcessBlock(nil, nil, outL, outR); err != nil {
		t.Fatalf("ProcessBlock() error = %v", err)
	}

	for i := range outL {
		if outL[i] != 0 || outR[i] != 0 {
			t.Fatalf("sample %d = (%d, %d), want silence", i, outL[i], outR[i])
		}
	}
}

func TestDryPathIsImmediate(t *testing.T) {
	r, err := New(48000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := make([]int16, 8)
	in[0] = 1000
	in[1] = -1000
	outL := make([]int16, 8)
	outR := make([]int16, 8)
	if err := r.ProcessBlock(in, nil, outL, outR); err != nil {
		t.Fatalf("ProcessBlock() error = %v", err)
	}

	// The wet path is still inside the shortest comb delay, so the
	// first samples carry the dry tap alone.
	if outL[0] != 1000 || outL[1] != -1000 {
		t.Errorf("dry output = (%d, %d), want (1000, -1000)", outL[0], outL[1])
	}
	if outR[0] != 1000 {
		t.Errorf("mono right output = %d, want 1000", outR[0])
	}
}

func TestImpulseTailDecays(t *testing.T) {
	r, err := New(48000, WithDry(0), WithWet(1), WithInputGain(0.5))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const blockSize = 2048
	noise := deviceNoise(7, blockSize)
	outL := make([]int16, blockSize)
	outR := make([]int16, blockSize)

	var early, late float64
	for block := 0; block < 30; block++ {
		var src []int16
		if block < 2 {
			src = noise
		}
		if err := r.ProcessBlock(src, nil, outL, outR); err != nil {
			t.Fatalf("ProcessBlock() error = %v", err)
		}

		switch {
		case block >= 2 && block < 6:
			early += blockRMS(outL)
		case block >= 26:
			late += blockRMS(outL)
		}
	}

	if early == 0 {
		t.Fatal("no tail energy after input stops")
	}
	if late*8 > early {
		t.Errorf("tail failed to decay: early RMS sum = %f, late RMS sum = %f", early, late)
	}
}

func TestFreezeSustainsTail(t *testing.T) {
	r, err := New(48000, WithDry(0), WithWet(1), WithInputGain(0.5))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const blockSize = 2048
	noise := deviceNoise(9, blockSize)
	outL := make([]int16, blockSize)
	outR := make([]int16, blockSize)
	for block := 0; block < 4; block++ {
		if err := r.ProcessBlock(noise, nil, outL, outR); err != nil {
			t.Fatalf("ProcessBlock() error = %v", err)
		}
	}

	r.SetFreeze(true)
	if !r.Frozen() {
		t.Fatal("Frozen() = false after SetFreeze(true)")
	}

	var early, late float64
	for block := 0; block < 40; block++ {
		if err := r.ProcessBlock(nil, nil, outL, outR); err != nil {
			t.Fatalf("ProcessBlock() error = %v", err)
		}

		switch {
		case block >= 4 && block < 8:
			early += blockRMS(outL)
		case block >= 36:
			late += blockRMS(outL)
		}
	}

	if early == 0 {
		t.Fatal("no tail energy after freeze")
	}
	if late*2 < early {
		t.Errorf("frozen tail decayed: early RMS sum = %f, late RMS sum = %f", early, late)
	}
}

func TestFreezeIgnoresInput(t *testing.T) {
	newFrozen := func() *Reverb {
		t.Helper()

		r, err := New(48000, WithDry(0), WithWet(1), WithInputGain(0.5))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		seed := deviceNoise(11, 1024)
		outL := make([]int16, 1024)
		outR := make([]int16, 1024)
		for block := 0; block < 4; block++ {
			if err := r.ProcessBlock(seed, nil, outL, outR); err != nil {
				t.Fatalf("ProcessBlock() error = %v", err)
			}
		}

		r.SetFreeze(true)
		return r
	}

	fed := newFrozen()
	idle := newFrozen()

	in := deviceNoise(23, 1024)
	fedL := make([]int16, 1024)
	fedR := make([]int16, 1024)
	idleL := make([]int16, 1024)
	idleR := make([]int16, 1024)
	for block := 0; block < 10; block++ {
		if err := fed.ProcessBlock(in, in, fedL, fedR); err != nil {
			t.Fatalf("ProcessBlock() error = %v", err)
		}
		if err := idle.ProcessBlock(nil, nil, idleL, idleR); err != nil {
			t.Fatalf("ProcessBlock() error = %v", err)
		}

		for i := range fedL {
			if fedL[i] != idleL[i] || fedR[i] != idleR[i] {
				t.Fatalf("block %d sample %d: fed = (%d, %d), idle = (%d, %d)",
					block, i, fedL[i], fedR[i], idleL[i], idleR[i])
			}
		}
	}
}

func TestProcessBlockDeterminism(t *testing.T) {
	a, err := New(48000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	b, err := New(48000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := deviceNoise(3, 512)
	aL := make([]int16, 512)
	aR := make([]int16, 512)
	bL := make([]int16, 512)
	bR := make([]int16, 512)
	for block := 0; block < 8; block++ {
		if err := a.ProcessBlock(in, nil, aL, aR); err != nil {
			t.Fatalf("ProcessBlock() error = %v", err)
		}
		if err := b.ProcessBlock(in, nil, bL, bR); err != nil {
			t.Fatalf("ProcessBlock() error = %v", err)
		}

		for i := range aL {
			if aL[i] != bL[i] || aR[i] != bR[i] {
				t.Fatalf("block %d sample %d: a = (%d, %d), b = (%d, %d)",
					block, i, aL[i], aR[i], bL[i], bR[i])
			}
		}
	}
}

func TestNilRightInputMirrorsLeft(t *testing.T) {
	mono, err := New(48000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	stereo, err := New(48000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := deviceNoise(17, 512)
	mL := make([]int16, 512)
	mR := make([]int16, 512)
	sL := make([]int16, 512)
	sR := make([]int16, 512)
	for block := 0; block < 4; block++ {
		if err := mono.ProcessBlock(in, nil, mL, mR); err != nil {
			t.Fatalf("ProcessBlock() error = %v", err)
		}
		if err := stereo.ProcessBlock(in, in, sL, sR); err != nil {
			t.Fatalf("ProcessBlock() error = %v", err)
		}

		for i := range mL {
			if mL[i] != sL[i] || mR[i] != sR[i] {
				t.Fatalf("block %d sample %d: mono = (%d, %d), stereo = (%d, %d)",
					block, i, mL[i], mR[i], sL[i], sR[i])
			}
		}
	}
}

func TestMuteCutsTail(t *testing.T) {
	r, err := New(48000, WithDry(0))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	noise := deviceNoise(5, 1024)
	outL := make([]int16, 1024)
	outR := make([]int16, 1024)
	for block := 0; block < 3; block++ {
		if err := r.ProcessBlock(noise, nil, outL, outR); err != nil {
			t.Fatalf("ProcessBlock() error = %v", err)
		}
	}

	r.Mute()

	if err := r.ProcessBlock(nil, nil, outL, outR); err != nil {
		t.Fatalf("ProcessBlock() error = %v", err)
	}
	for i := range outL {
		if outL[i] != 0 || outR[i] != 0 {
			t.Fatalf("sample %d = (%d, %d) after Mute, want silence", i, outL[i], outR[i])
		}
	}
}

func TestResetRestoresConfiguration(t *testing.T) {
	r, err := New(48000, WithRoomSize(0.8), WithInputGain(0.25))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	wantFeedback := r.feedback
	wantGain := r.inputGain

	r.SetRoomSize(0)
	r.SetFreeze(true)

	noise := deviceNoise(13, 512)
	outL := make([]int16, 512)
	outR := make([]int16, 512)
	if err := r.ProcessBlock(noise, nil, outL, outR); err != nil {
		t.Fatalf("ProcessBlock() error = %v", err)
	}

	r.Reset()

	if r.Frozen() {
		t.Error("Frozen() = true after Reset")
	}
	if r.feedback != wantFeedback {
		t.Errorf("feedback = %d, want %d", r.feedback, wantFeedback)
	}
	if r.inputGain != wantGain {
		t.Errorf("inputGain = %d, want %d", r.inputGain, wantGain)
	}

	if err := r.ProcessBlock(nil, nil, outL, outR); err != nil {
		t.Fatalf("ProcessBlock() error = %v", err)
	}
	for i := range outL {
		if outL[i] != 0 || outR[i] != 0 {
			t.Fatalf("sample %d = (%d, %d) after Reset, want silence", i, outL[i], outR[i])
		}
	}
}

func BenchmarkProcessBlock(b *testing.B) {
	r, err := New(48000)
	if err != nil {
		b.Fatalf("New() error = %v", err)
	}

	in := deviceNoise(1, 128)
	outL := make([]int16, 128)
	outR := make([]int16, 128)

	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		if err := r.ProcessBlock(in, in, outL, outR); err != nil {
			b.Fatal(err)
		}
	}
}
