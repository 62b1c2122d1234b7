// Package engine ties the DSP packages into the modulator card: control
// combine and selector banding, the per-sample modulator dispatch, two
// self-contained noise voices, and the plumbing that bridges the
// per-sample world to block processors and to a worker lane.
//
// Everything audio-rate stays integer and single-goroutine; the dual-lane
// pipeline owns the only cross-goroutine state (single-slot handoffs and
// atomic counters) and never blocks the real-time lane.
package engine
