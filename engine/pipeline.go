package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Pack packs one sample of work into a handoff word: parameter in the
// high half, sample in the low half.
func Pack(sample int16, param uint16) uint32 {
	return uint32(param)<<16 | uint32(uint16(sample))
}

// Unpack splits a handoff word back into sample and parameter.
func Unpack(w uint32) (int16, uint16) {
	return int16(uint16(w & 0xFFFF)), uint16(w >> 16)
}

// Handoff is a single-slot word mailbox between two goroutines, modeled
// on a hardware inter-core FIFO. The Try variants never block; the
// blocking variants respect context cancellation.
type Handoff struct {
	ch chan uint32
}

// NewHandoff returns an empty handoff.
func NewHandoff() *Handoff {
	return &Handoff{ch: make(chan uint32, 1)}
}

// TrySend posts a word unless the slot is occupied.
func (h *Handoff) TrySend(w uint32) bool {
	select {
	case h.ch <- w:
		return true
	default:
		return false
	}
}

// TryRecv pops the pending word, if any.
func (h *Handoff) TryRecv() (uint32, bool) {
	select {
	case w := <-h.ch:
		return w, true
	default:
		return 0, false
	}
}

// Send blocks until the slot accepts the word or ctx ends.
func (h *Handoff) Send(ctx context.Context, w uint32) error {
	select {
	case h.ch <- w:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recv blocks until a word arrives or ctx ends.
func (h *Handoff) Recv(ctx context.Context) (uint32, error) {
	select {
	case w := <-h.ch:
		return w, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Pending reports whether a word is waiting in the slot.
func (h *Handoff) Pending() bool {
	return len(h.ch) > 0
}

// Drain discards a pending word, if any.
func (h *Handoff) Drain() {
	select {
	case <-h.ch:
	default:
	}
}

// LaneOption mutates DualLane construction.
type LaneOption func(*DualLane)

// WithInitialOutput sets the sample held before the first worker result
// arrives.
func WithInitialOutput(v int16) LaneOption {
	return func(d *DualLane) {
		d.lastOut = v
	}
}

// DualLane splits per-sample DSP across two lanes with one sample of
// steady-state latency: lane A is the caller's real-time tick, lane B a
// worker goroutine running proc. Lane A never blocks. A missing result
// reuses the previous output and counts an underrun, unaccepted work
// counts an overrun and is dropped. The first tick underruns by
// construction while the pipe primes.
type DualLane struct {
	proc func(sample int16, param uint16) int16

	work   *Handoff
	result *Handoff

	lastOut int16

	underruns atomic.Uint64
	overruns  atomic.Uint64

	group   *errgroup.Group
	cancel  context.CancelFunc
	started bool
}

// NewDualLane constructs a stopped pipeline around the worker function.
func NewDualLane(proc func(sample int16, param uint16) int16, opts ...LaneOption) (*DualLane, error) {
	if proc == nil {
		return nil, fmt.Errorf("engine: lane processor must not be nil")
	}

	d := &DualLane{
		proc:   proc,
		work:   NewHandoff(),
		result: NewHandoff(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(d)
	}

	return d, nil
}

// Start drains both handoffs and launches the worker lane. Starting a
// running pipeline is an error.
func (d *DualLane) Start(ctx context.Context) error {
	if d.started {
		return fmt.Errorf("engine: pipeline already started")
	}

	d.work.Drain()
	d.result.Drain()

	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.laneB(ctx)
	})

	d.cancel = cancel
	d.group = g
	d.started = true

	return nil
}

// Stop cancels the worker lane and waits for it to finish its in-flight
// sample. Cancellation raised by Stop itself is not reported as an
// error. Stopping a stopped pipeline is a no-op.
func (d *DualLane) Stop() error {
	if !d.started {
		return nil
	}

	d.cancel()
	err := d.group.Wait()
	d.started = false

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ProcessSample runs one lane-A tick: collect the previous result if
// one is ready, then hand off this sample's work. Never blocks; without
// a live worker every tick underruns and holds the last output.
func (d *DualLane) ProcessSample(x int16, param uint16) int16 {
	if w, ok := d.result.TryRecv(); ok {
		out, _ := Unpack(w)
		d.lastOut = out
	} else {
		d.underruns.Add(1)
	}

	if !d.work.TrySend(Pack(x, param)) {
		d.overruns.Add(1)
	}

	return d.lastOut
}

// ResultReady reports whether the worker has posted a result for the
// next tick to collect. Callers with slack before their deadline can
// poll it to avoid an avoidable underrun.
func (d *DualLane) ResultReady() bool { return d.result.Pending() }

// Underruns returns the number of ticks that reused the previous
// output.
func (d *DualLane) Underruns() uint64 { return d.underruns.Load() }

// Overruns returns the number of work words dropped on a full handoff.
func (d *DualLane) Overruns() uint64 { return d.overruns.Load() }

// laneB is the worker loop: blocking receive, process, blocking send,
// until the context ends.
func (d *DualLane) laneB(ctx context.Context) error {
	for {
		w, err := d.work.Recv(ctx)
		if err != nil {
			return err
		}

		sample, param := Unpack(w)
		y := d.proc(sample, param)

		if err := d.result.Send(ctx, Pack(y, 0)); err != nil {
			return err
		}
	}
}
