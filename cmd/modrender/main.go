// Command modrender renders the modulator card engine offline to a WAV
// file.
//
// Usage:
//
//	modrender [flags]
//
// Sources default to two built-in oscillator tones; -in and -mod replace
// them with 16-bit PCM WAV files, mixed to mono and truncated to the
// device domain (top 12 bits). -voice renders a generator voice instead
// of the modulator chain.
//
// Examples:
//
//	modrender -algo ring_digital -p1 0.7 -out ring.wav
//	modrender -selector 2100 -in carrier.wav -mod bass.wav -out mix.wav
//	modrender -voice resonoise -p1 0.3 -p2 0.8 -reverb -analyze
//	modrender -list
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"sort"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/cwbudde/algo-modular/dsp/fixed"
	"github.com/cwbudde/algo-modular/dsp/osc"
	"github.com/cwbudde/algo-modular/dsp/reverb"
	"github.com/cwbudde/algo-modular/dsp/xmod"
	"github.com/cwbudde/algo-modular/engine"
)

const (
	toneAmplitude = 26214 // 0.8 full scale for the built-in tones
	reverbBlock   = 128
	tailSeconds   = 2
)

func main() {
	var (
		inPath     = flag.String("in", "", "carrier WAV file (16-bit PCM; its rate overrides -rate)")
		modPath    = flag.String("mod", "", "modulator WAV file (16-bit PCM; rate must match the carrier)")
		algoName   = flag.String("algo", "", "pin the algorithm by name (see -list); empty follows -selector")
		selector   = flag.Int("selector", 0, "selector position 0..4095")
		p1         = flag.Float64("p1", 0.5, "X knob position 0..1")
		p2         = flag.Float64("p2", 0.5, "Y knob position 0..1")
		voiceName  = flag.String("voice", "", "render a generator voice instead: resonoise or crossmodring")
		withReverb = flag.Bool("reverb", false, "append the reverb (adds a two-second tail)")
		dur        = flag.Float64("dur", 0, "render length in seconds (0 = input length, or 2 s when synthesized)")
		rate       = flag.Int("rate", 48000, "sample rate in Hz for synthesized sources")
		outPath    = flag.String("out", "out.wav", "output WAV path")
		analyze    = flag.Bool("analyze", false, "print the top spectral peaks of the rendered output")
		carrierHz  = flag.Float64("carrier", 220, "built-in carrier tone frequency in Hz")
		modHz      = flag.Float64("modfreq", 137, "built-in modulator tone frequency in Hz")
		list       = flag.Bool("list", false, "list algorithm names and exit")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: modrender [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Renders the modulator card engine offline to a WAV file.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *list {
		for a := range xmod.Algorithm(xmod.Count) {
			fmt.Println(a)
		}
		return
	}

	if *selector < 0 || *selector > fixed.KnobMax {
		log.Fatalf("modrender: -selector must be in 0..%d: %d", fixed.KnobMax, *selector)
	}
	if !unitRange(*p1) {
		log.Fatalf("modrender: -p1 must be in [0, 1]: %v", *p1)
	}
	if !unitRange(*p2) {
		log.Fatalf("modrender: -p2 must be in [0, 1]: %v", *p2)
	}
	if *dur < 0 || math.IsNaN(*dur) {
		log.Fatalf("modrender: -dur must be >= 0: %v", *dur)
	}
	if *rate < 1 {
		log.Fatalf("modrender: -rate must be positive: %d", *rate)
	}
	if *voiceName != "" && (*inPath != "" || *modPath != "") {
		log.Fatal("modrender: -voice replaces the modulator chain; drop -in/-mod")
	}

	// Load file sources first so their rate wins over -rate.
	sampleRate := *rate
	var carrier, modulator []int16
	if *inPath != "" {
		data, fileRate, err := readDeviceWAV(*inPath)
		if err != nil {
			log.Fatalf("modrender: %v", err)
		}
		carrier, sampleRate = data, fileRate
	}
	if *modPath != "" {
		data, fileRate, err := readDeviceWAV(*modPath)
		if err != nil {
			log.Fatalf("modrender: %v", err)
		}
		if *inPath != "" && fileRate != sampleRate {
			log.Fatalf("modrender: rate mismatch: carrier %d Hz, modulator %d Hz", sampleRate, fileRate)
		}
		modulator, sampleRate = data, fileRate
	}

	// Render length: explicit duration, else input length, else two
	// seconds of synthesized tone.
	dry := int(*dur * float64(sampleRate))
	if dry == 0 {
		switch {
		case carrier != nil:
			dry = len(carrier)
		case modulator != nil:
			dry = len(modulator)
		default:
			dry = 2 * sampleRate
		}
	}
	if dry < 1 {
		log.Fatalf("modrender: nothing to render (duration %v s)", *dur)
	}

	total := dry
	if *withReverb {
		total += tailSeconds * sampleRate
	}

	src1, err := deviceSource(carrier, float64(sampleRate), *carrierHz)
	if err != nil {
		log.Fatalf("modrender: %v", err)
	}
	src2, err := deviceSource(modulator, float64(sampleRate), *modHz)
	if err != nil {
		log.Fatalf("modrender: %v", err)
	}

	ctrl := engine.Controls{
		Main: uint16(*selector),
		X:    knobFromUnit(*p1),
		Y:    knobFromUnit(*p2),
	}

	// The per-sample producer: a generator voice, or the full chain of
	// control combine, selector banding, and modulator dispatch.
	var next func() int16
	switch *voiceName {
	case "resonoise":
		v, err := engine.NewResoNoiseVoice(float64(sampleRate))
		if err != nil {
			log.Fatalf("modrender: %v", err)
		}
		next = func() int16 { return v.NextSample(ctrl.X, ctrl.Y) }
	case "crossmodring":
		v, err := engine.NewCrossModRingVoice(float64(sampleRate))
		if err != nil {
			log.Fatalf("modrender: %v", err)
		}
		next = func() int16 { return v.NextSample(ctrl.X, ctrl.Y) }
	case "":
		var opts []engine.Option
		if *algoName != "" {
			a, err := xmod.ParseAlgorithm(*algoName)
			if err != nil {
				log.Fatalf("modrender: %v (try -list)", err)
			}
			opts = append(opts, engine.WithAlgorithm(a))
		}
		eng, err := engine.New(float64(sampleRate), opts...)
		if err != nil {
			log.Fatalf("modrender: %v", err)
		}
		next = func() int16 {
			out1, _ := eng.ProcessSample(engine.Inputs{
				Audio1:   src1(),
				Audio2:   src2(),
				Controls: ctrl,
			})
			return out1
		}
	default:
		log.Fatalf("modrender: unknown voice %q (want resonoise or crossmodring)", *voiceName)
	}

	var bridge *engine.BlockBridge
	if *withReverb {
		rev, err := reverb.New(sampleRate)
		if err != nil {
			log.Fatalf("modrender: %v", err)
		}
		scratch := make([]int16, reverbBlock)
		bridge, err = engine.NewBlockBridge(reverbBlock, func(in, out []int16) error {
			return rev.ProcessBlock(in, nil, out, scratch)
		})
		if err != nil {
			log.Fatalf("modrender: %v", err)
		}
	}

	out := make([]int16, total)
	for i := range out {
		var y int16
		if i < dry {
			y = next()
		}
		if bridge != nil {
			if err := bridge.Push(y); err != nil {
				log.Fatalf("modrender: %v", err)
			}
			y = bridge.Pull()
		}
		out[i] = y
	}

	if err := writeDeviceWAV(*outPath, out, sampleRate); err != nil {
		log.Fatalf("modrender: %v", err)
	}
	log.Printf("wrote %s: %d samples, %.2f s at %d Hz",
		*outPath, len(out), float64(len(out))/float64(sampleRate), sampleRate)

	if *analyze {
		analyzeSpectrum(out, sampleRate)
	}
}

func unitRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

func knobFromUnit(v float64) uint16 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint16(v*fixed.KnobMax + 0.5)
}

// deviceSource returns a per-sample reader over file data, or a
// built-in tone when data is nil. File sources go silent past the end.
func deviceSource(data []int16, sampleRate, toneHz float64) (func() int16, error) {
	if data != nil {
		i := 0
		return func() int16 {
			if i >= len(data) {
				return 0
			}
			s := data[i]
			i++
			return s
		}, nil
	}

	o, err := osc.New(sampleRate, osc.WithFrequencyHz(toneHz), osc.WithAmplitude(toneAmplitude))
	if err != nil {
		return nil, err
	}
	return func() int16 {
		return fixed.ToDevice(o.NextSample(0))
	}, nil
}

// readDeviceWAV decodes a 16-bit PCM WAV file, mixes it to mono, and
// truncates to the signed 12-bit device domain.
func readDeviceWAV(path string) ([]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("not a valid WAV file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %v", path, err)
	}
	if dec.BitDepth != 16 {
		return nil, 0, fmt.Errorf("%s: want 16-bit PCM, got %d-bit", path, dec.BitDepth)
	}
	ch := buf.Format.NumChannels
	if ch < 1 {
		return nil, 0, fmt.Errorf("%s: no channels", path)
	}

	frames := len(buf.Data) / ch
	out := make([]int16, frames)
	for i := range frames {
		sum := 0
		for c := range ch {
			sum += buf.Data[i*ch+c]
		}
		out[i] = int16((sum / ch) >> 4)
	}
	return out, buf.Format.SampleRate, nil
}

// writeDeviceWAV writes device-domain samples as mono 16-bit PCM, the
// 12-bit payload in the top bits.
func writeDeviceWAV(path string, samples []int16, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(s) << 4
	}

	if err := enc.Write(buf); err != nil {
		enc.Close()
		f.Close()
		return fmt.Errorf("encode %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize %s: %v", path, err)
	}
	return f.Close()
}

// analyzeSpectrum prints the strongest spectral peaks of the rendered
// output, relative to the loudest one.
func analyzeSpectrum(samples []int16, sampleRate int) {
	n := 1
	for n*2 <= len(samples) && n < 8192 {
		n *= 2
	}
	if n < 256 {
		log.Printf("analysis skipped: %d samples is too short", len(samples))
		return
	}

	f := make([]float64, n)
	peak := 0.0
	for i := range f {
		f[i] = float64(samples[i])
		if a := math.Abs(f[i]); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		log.Printf("analysis skipped: output is silent")
		return
	}

	norm := make([]float64, n)
	vecmath.ScaleBlock(norm, f, 1/peak)
	data := window.Hann(norm)

	in := make([]complex128, n)
	for i, v := range data {
		in[i] = complex(v, 0)
	}
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		log.Fatalf("modrender: fft: %v", err)
	}
	coeffs := make([]complex128, n)
	if err := plan.Forward(coeffs, in); err != nil {
		log.Fatalf("modrender: fft: %v", err)
	}

	re := make([]float64, n/2+1)
	im := make([]float64, n/2+1)
	for k := 0; k <= n/2; k++ {
		re[k] = real(coeffs[k])
		im[k] = imag(coeffs[k])
	}
	mags := make([]float64, n/2+1)
	vecmath.Magnitude(mags, re, im)

	type binPeak struct {
		bin int
		mag float64
	}
	var peaks []binPeak
	for k := 2; k < n/2; k++ {
		if mags[k] > mags[k-1] && mags[k] >= mags[k+1] {
			peaks = append(peaks, binPeak{k, mags[k]})
		}
	}
	sort.Slice(peaks, func(i, j int) bool { return peaks[i].mag > peaks[j].mag })
	if len(peaks) > 5 {
		peaks = peaks[:5]
	}
	if len(peaks) == 0 || peaks[0].mag == 0 {
		log.Printf("no spectral peaks found")
		return
	}

	ref := peaks[0].mag
	fmt.Printf("top spectral peaks (%d-point FFT):\n", n)
	for i, p := range peaks {
		freq := float64(p.bin) * float64(sampleRate) / float64(n)
		fmt.Printf("  %d: %8.1f Hz  %7.2f dB\n", i+1, freq, 20*math.Log10(p.mag/ref))
	}
}
