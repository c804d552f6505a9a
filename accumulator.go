package audiopipe

import "fmt"

// BlockAccumulator re-chunks variable-length device frames into
// fixed-size encoder input blocks. It owns a single block of backing
// storage and a fill cursor; device frames of any length are absorbed
// and every completed block is handed to a callback before absorption
// continues.
//
// A BlockAccumulator is not safe for concurrent use. In the pipeline it
// is owned exclusively by the capture worker.
type BlockAccumulator struct {
	buf []byte
	off int
}

// NewBlockAccumulator creates an accumulator producing blocks of
// exactly capacity bytes.
func NewBlockAccumulator(capacity int) (*BlockAccumulator, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("block capacity must be positive, got %d", capacity)
	}
	return &BlockAccumulator{buf: make([]byte, capacity)}, nil
}

// Capacity returns the block size in bytes.
func (a *BlockAccumulator) Capacity() int { return len(a.buf) }

// Offset returns the current fill cursor. Bytes beyond the offset are
// stale and must not be read.
func (a *BlockAccumulator) Offset() int { return a.off }

// Empty reports whether no partial block is pending.
func (a *BlockAccumulator) Empty() bool { return a.off == 0 }

// Absorb copies p into the block storage, invoking emit once for every
// completed block. A single input may complete any number of blocks; an
// input that exactly fills the remaining capacity completes a block
// with zero leftover; a zero-length input is a no-op.
//
// The slice passed to emit is the accumulator's own storage and is only
// valid for the duration of the callback. Absorb does not allocate.
func (a *BlockAccumulator) Absorb(p []byte, emit func(block []byte)) {
	for off := 0; off < len(p); {
		n := copy(a.buf[a.off:], p[off:])
		a.off += n
		off += n
		if a.off == len(a.buf) {
			a.off = 0
			if emit != nil {
				emit(a.buf)
			}
		}
	}
}

// Reset discards any pending partial block.
func (a *BlockAccumulator) Reset() { a.off = 0 }
