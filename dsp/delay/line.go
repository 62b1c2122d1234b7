package delay

import "fmt"

// Line is a fixed-capacity circular delay line for int16 samples.
//
// Read returns the sample at the cursor (the value written Length calls
// ago) and WriteAdvance stores a new sample in its place, so a comb or
// allpass stage touches each buffer slot exactly once per sample.
type Line struct {
	buffer []int16
	length int
	pos    int
}

// New returns a delay line of the given capacity. The active length
// starts at the full capacity.
func New(capacity int) (*Line, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("delay capacity must be > 0: %d", capacity)
	}
	return &Line{buffer: make([]int16, capacity), length: capacity}, nil
}

// Capacity returns the allocated buffer size in samples.
func (d *Line) Capacity() int {
	return len(d.buffer)
}

// Length returns the active delay length in samples.
func (d *Line) Length() int {
	return d.length
}

// SetLength sets the active delay length, clamped to [1, capacity].
// The cursor folds back to the start when it would fall outside the new
// range.
func (d *Line) SetLength(n int) {
	if n < 1 {
		n = 1
	}
	if n > len(d.buffer) {
		n = len(d.buffer)
	}
	d.length = n
	if d.pos >= n {
		d.pos = 0
	}
}

// Read returns the sample at the cursor without advancing.
func (d *Line) Read() int16 {
	return d.buffer[d.pos]
}

// WriteAdvance stores a sample at the cursor, saturating to int16, and
// advances the cursor by one.
func (d *Line) WriteAdvance(sample int32) {
	if sample > 32767 {
		sample = 32767
	}
	if sample < -32768 {
		sample = -32768
	}
	d.buffer[d.pos] = int16(sample)
	d.pos++
	if d.pos >= d.length {
		d.pos = 0
	}
}

// Reset clears the buffer and rewinds the cursor.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.pos = 0
}
