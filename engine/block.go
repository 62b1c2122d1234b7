package engine

import "fmt"

// BlockBridge adapts a per-sample caller to a block processor with one
// block of latency. Push collects input; once a block has filled, it is
// processed lazily on the next Push, so the tick sequence Push-then-Pull
// reads the previous processed block to its last sample. Pull returns
// zeros until the first block completes.
type BlockBridge struct {
	proc func(in, out []int16) error

	in     []int16
	out    []int16
	idx    int
	last   int
	primed bool
}

// NewBlockBridge constructs a bridge for the given block size.
func NewBlockBridge(blockSize int, proc func(in, out []int16) error) (*BlockBridge, error) {
	if blockSize < 1 {
		return nil, fmt.Errorf("engine: block size must be >= 1: %d", blockSize)
	}
	if proc == nil {
		return nil, fmt.Errorf("engine: block processor must not be nil")
	}

	return &BlockBridge{
		proc: proc,
		in:   make([]int16, blockSize),
		out:  make([]int16, blockSize),
	}, nil
}

// BlockSize returns the configured block length in samples.
func (b *BlockBridge) BlockSize() int { return len(b.in) }

// Push appends one input sample. When a completed block is pending it
// is processed first, replacing the output block Pull reads from.
func (b *BlockBridge) Push(x int16) error {
	if b.idx == len(b.in) {
		if err := b.proc(b.in, b.out); err != nil {
			return err
		}
		b.primed = true
		b.idx = 0
	}

	b.in[b.idx] = x
	b.last = b.idx
	b.idx++

	return nil
}

// Pull returns the processed sample aligned with the most recent Push:
// the same block position, one block behind.
func (b *BlockBridge) Pull() int16 {
	if !b.primed {
		return 0
	}
	return b.out[b.last]
}

// Reset clears both blocks and the priming state.
func (b *BlockBridge) Reset() {
	for i := range b.in {
		b.in[i] = 0
		b.out[i] = 0
	}
	b.idx = 0
	b.last = 0
	b.primed = false
}
