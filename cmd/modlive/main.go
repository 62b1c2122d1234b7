// Command modlive plays the modulator card engine live and maps the
// keyboard to the front-panel controls.
//
// Usage:
//
//	modlive [flags]
//
// Keys:
//
//	a/z  selector up/down
//	s/x  X knob up/down
//	d/c  Y knob up/down
//	f    toggle reverb freeze (with -reverb)
//	q    quit
//
// The audio callback is the real-time lane of a DualLane pipeline; the
// whole synthesis chain runs on the worker lane, one sample behind.
package main

import (
	"context"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/cwbudde/algo-modular/dsp/fixed"
	"github.com/cwbudde/algo-modular/dsp/osc"
	"github.com/cwbudde/algo-modular/dsp/reverb"
	"github.com/cwbudde/algo-modular/dsp/xmod"
	"github.com/cwbudde/algo-modular/engine"
)

const (
	toneAmplitude = 26214 // 0.8 full scale for the two tones
	reverbBlock   = 128
	knobStep      = 64

	// How long the audio callback waits for the worker's result before
	// reusing the previous sample.
	spinBudget = 256
)

func main() {
	var (
		rate       = flag.Int("rate", 48000, "sample rate in Hz")
		algoName   = flag.String("algo", "", "pin the algorithm by name; empty follows the selector")
		withReverb = flag.Bool("reverb", false, "run the reverb after the modulator")
		carrierHz  = flag.Float64("carrier", 220, "carrier tone frequency in Hz")
		modHz      = flag.Float64("modfreq", 137, "modulator tone frequency in Hz")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: modlive [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Plays the modulator card engine live; keys move the panel controls.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *rate < 1 {
		log.Fatalf("modlive: -rate must be positive: %d", *rate)
	}

	if err := run(*rate, *algoName, *withReverb, *carrierHz, *modHz); err != nil {
		log.Fatalf("modlive: %v", err)
	}
}

func run(rate int, algoName string, withReverb bool, carrierHz, modHz float64) error {
	forced := xmod.Algorithm(-1)
	var opts []engine.Option
	if algoName != "" {
		a, err := xmod.ParseAlgorithm(algoName)
		if err != nil {
			return err
		}
		forced = a
		opts = append(opts, engine.WithAlgorithm(a))
	}

	eng, err := engine.New(float64(rate), opts...)
	if err != nil {
		return err
	}
	oscC, err := osc.New(float64(rate), osc.WithFrequencyHz(carrierHz), osc.WithAmplitude(toneAmplitude))
	if err != nil {
		return err
	}
	oscM, err := osc.New(float64(rate), osc.WithFrequencyHz(modHz), osc.WithAmplitude(toneAmplitude))
	if err != nil {
		return err
	}

	var rev *reverb.Reverb
	var bridge *engine.BlockBridge
	if withReverb {
		rev, err = reverb.New(rate)
		if err != nil {
			return err
		}
		scratch := make([]int16, reverbBlock)
		bridge, err = engine.NewBlockBridge(reverbBlock, func(in, out []int16) error {
			return rev.ProcessBlock(in, nil, out, scratch)
		})
		if err != nil {
			return err
		}
	}

	// Panel state shared between the key handler and the worker lane.
	var selector, knobX, knobY atomic.Uint32
	var freeze atomic.Bool
	selector.Store(2048)
	knobX.Store(2048)
	knobY.Store(2048)

	// The whole chain lives on the worker lane; the audio callback only
	// ticks the pipeline, so the engine needs no locking.
	frozen := false
	proc := func(_ int16, _ uint16) int16 {
		if rev != nil {
			if f := freeze.Load(); f != frozen {
				rev.SetFreeze(f)
				frozen = f
			}
		}
		out1, _ := eng.ProcessSample(engine.Inputs{
			Audio1: fixed.ToDevice(oscC.NextSample(0)),
			Audio2: fixed.ToDevice(oscM.NextSample(0)),
			Controls: engine.Controls{
				Main: uint16(selector.Load()),
				X:    uint16(knobX.Load()),
				Y:    uint16(knobY.Load()),
			},
		})
		if bridge != nil {
			if err := bridge.Push(out1); err != nil {
				return out1
			}
			out1 = bridge.Pull()
		}
		return out1
	}

	lane, err := engine.NewDualLane(proc)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := lane.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = lane.Stop() }()

	op := &oto.NewContextOptions{
		SampleRate:   rate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   20 * time.Millisecond,
	}
	octx, ready, err := oto.NewContext(op)
	if err != nil {
		return err
	}
	<-ready

	player := octx.NewPlayer(&laneStream{lane: lane})
	defer func() { _ = player.Close() }()
	player.Play()

	fmt.Println("modlive: a/z selector, s/x X, d/c Y, f freeze, q quit")

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("raw mode: %v", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	// Stdin has no cancelable read, so a detached goroutine feeds the
	// supervised handler through a channel.
	keys := make(chan byte, 8)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				close(keys)
				return
			}
			if n > 0 {
				keys <- buf[0]
			}
		}
	}()

	printStatus(forced, &selector, &knobX, &knobY, &freeze)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case k, ok := <-keys:
				if !ok {
					return nil
				}
				switch k {
				case 'q', 0x03, 0x04:
					return nil
				case 'a':
					bumpKnob(&selector, knobStep)
				case 'z':
					bumpKnob(&selector, -knobStep)
				case 's':
					bumpKnob(&knobX, knobStep)
				case 'x':
					bumpKnob(&knobX, -knobStep)
				case 'd':
					bumpKnob(&knobY, knobStep)
				case 'c':
					bumpKnob(&knobY, -knobStep)
				case 'f':
					if rev != nil {
						freeze.Store(!freeze.Load())
					}
				default:
					continue
				}
				printStatus(forced, &selector, &knobX, &knobY, &freeze)
			}
		}
	})

	err = g.Wait()
	fmt.Printf("\r\nunderruns %d  overruns %d\r\n", lane.Underruns(), lane.Overruns())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// laneStream adapts the real-time lane to oto's pull model. Each frame
// waits briefly for the worker's result so a healthy chain underruns
// only on the priming tick.
type laneStream struct {
	lane   *engine.DualLane
	primed bool
}

func (s *laneStream) Read(p []byte) (int, error) {
	n := len(p) &^ 1
	for i := 0; i < n; i += 2 {
		if s.primed {
			for spin := 0; spin < spinBudget && !s.lane.ResultReady(); spin++ {
				runtime.Gosched()
			}
		}
		y := s.lane.ProcessSample(0, 0)
		s.primed = true
		binary.LittleEndian.PutUint16(p[i:], uint16(y<<4))
	}
	return n, nil
}

func bumpKnob(k *atomic.Uint32, delta int) {
	v := int(k.Load()) + delta
	if v < 0 {
		v = 0
	}
	if v > fixed.KnobMax {
		v = fixed.KnobMax
	}
	k.Store(uint32(v))
}

func printStatus(forced xmod.Algorithm, selector, knobX, knobY *atomic.Uint32, freeze *atomic.Bool) {
	sel := uint16(selector.Load())
	name := engine.AlgorithmForSelector(sel)
	if forced >= 0 {
		name = forced
	}
	state := "off"
	if freeze.Load() {
		state = "on"
	}
	fmt.Printf("\rselector %4d (%s)  X %4d  Y %4d  freeze %-3s ",
		sel, name, knobX.Load(), knobY.Load(), state)
}
