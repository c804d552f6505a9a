package audiopipe

import "time"

// BlockClock derives presentation timestamps for encoder input blocks.
// It is seeded from the wall clock only when the accumulator is empty
// at the instant new data begins arriving, and advances by exactly one
// block duration per completed block. Anchoring to the wall clock only
// at buffer-empty instants keeps timestamps free of per-frame capture
// jitter while still tracking real elapsed time across gaps.
//
// Not safe for concurrent use; owned exclusively by the capture worker.
type BlockClock struct {
	currentMs  uint64
	durationMs uint64
	now        func() time.Time
}

// NewBlockClock creates a clock for blocks of capacityBytes raw PCM at
// the given sample rate, channel count and sample format. The block
// duration is truncated to whole milliseconds, matching the downstream
// timestamp granularity.
func NewBlockClock(capacityBytes, sampleRate, channels int, format AudioFormat) *BlockClock {
	bytesPerSecond := sampleRate * channels * format.BytesPerSample()
	return &BlockClock{
		durationMs: uint64(capacityBytes) * 1000 / uint64(bytesPerSecond),
		now:        time.Now,
	}
}

// Seed anchors the clock to the wall clock. The caller invokes this
// when data starts arriving into an empty accumulator.
func (c *BlockClock) Seed() {
	c.currentMs = uint64(c.now().UnixMilli())
}

// CurrentMs returns the presentation timestamp for the block currently
// being accumulated.
func (c *BlockClock) CurrentMs() uint64 { return c.currentMs }

// Advance moves the clock forward by one block duration. The caller
// invokes this once per completed block, after recording the block's
// timestamp.
func (c *BlockClock) Advance() { c.currentMs += c.durationMs }

// BlockDurationMs returns the duration of one block in milliseconds.
func (c *BlockClock) BlockDurationMs() uint64 { return c.durationMs }
