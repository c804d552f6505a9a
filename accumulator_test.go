package audiopipe

import (
	"bytes"
	"math/rand"
	"testing"
)

// collectBlocks absorbs each frame in order and returns copies of every
// completed block.
func collectBlocks(t *testing.T, acc *BlockAccumulator, frames [][]byte) [][]byte {
	t.Helper()
	var blocks [][]byte
	for _, f := range frames {
		acc.Absorb(f, func(block []byte) {
			cp := make([]byte, len(block))
			copy(cp, block)
			blocks = append(blocks, cp)
		})
	}
	return blocks
}

func sequentialBytes(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i)
	}
	return p
}

func TestNewBlockAccumulator_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		if _, err := NewBlockAccumulator(capacity); err == nil {
			t.Errorf("NewBlockAccumulator(%d) expected error, got nil", capacity)
		}
	}
}

func TestBlockAccumulator_ZeroLengthInput(t *testing.T) {
	acc, err := NewBlockAccumulator(16)
	if err != nil {
		t.Fatal(err)
	}

	called := false
	acc.Absorb(nil, func([]byte) { called = true })
	acc.Absorb([]byte{}, func([]byte) { called = true })

	if called {
		t.Error("zero-length input must not complete a block")
	}
	if acc.Offset() != 0 {
		t.Errorf("offset = %d, want 0", acc.Offset())
	}
}

func TestBlockAccumulator_ExactFill(t *testing.T) {
	acc, err := NewBlockAccumulator(16)
	if err != nil {
		t.Fatal(err)
	}

	// Partial fill, then an input exactly filling remaining capacity.
	blocks := collectBlocks(t, acc, [][]byte{
		sequentialBytes(10),
		sequentialBytes(6),
	})

	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if !acc.Empty() {
		t.Errorf("offset = %d, want 0 after exact fill", acc.Offset())
	}
}

func TestBlockAccumulator_MultiBlockSpanning(t *testing.T) {
	// A single frame 2.5x the capacity yields 2 blocks and a half-block
	// remainder.
	acc, err := NewBlockAccumulator(100)
	if err != nil {
		t.Fatal(err)
	}

	blocks := collectBlocks(t, acc, [][]byte{sequentialBytes(250)})

	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if acc.Offset() != 50 {
		t.Errorf("offset = %d, want 50", acc.Offset())
	}
}

func TestBlockAccumulator_BlockCompleteness(t *testing.T) {
	// Any sequence of frame lengths summing to k*capacity emits exactly
	// k blocks and ends empty.
	tests := []struct {
		name       string
		capacity   int
		frameSizes []int
		wantBlocks int
	}{
		{"single exact", 64, []int{64}, 1},
		{"two halves", 64, []int{32, 32}, 1},
		{"uneven split", 64, []int{1, 63, 64}, 2},
		{"large frame", 64, []int{256}, 4},
		{"many tiny", 8, []int{3, 3, 3, 3, 3, 1}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc, err := NewBlockAccumulator(tt.capacity)
			if err != nil {
				t.Fatal(err)
			}

			var frames [][]byte
			for _, n := range tt.frameSizes {
				frames = append(frames, sequentialBytes(n))
			}
			blocks := collectBlocks(t, acc, frames)

			if len(blocks) != tt.wantBlocks {
				t.Errorf("got %d blocks, want %d", len(blocks), tt.wantBlocks)
			}
			if !acc.Empty() {
				t.Errorf("offset = %d, want 0", acc.Offset())
			}
		})
	}
}

func TestBlockAccumulator_NoLossNoDuplication(t *testing.T) {
	// The concatenation of emitted blocks plus the retained remainder
	// equals the concatenation of all input frames, for a random
	// partition of the input.
	const capacity = 128
	rng := rand.New(rand.NewSource(42))

	input := make([]byte, 10000)
	rng.Read(input)

	var frames [][]byte
	for off := 0; off < len(input); {
		n := 1 + rng.Intn(500)
		if off+n > len(input) {
			n = len(input) - off
		}
		frames = append(frames, input[off:off+n])
		off += n
	}

	acc, err := NewBlockAccumulator(capacity)
	if err != nil {
		t.Fatal(err)
	}
	blocks := collectBlocks(t, acc, frames)

	var got bytes.Buffer
	for _, b := range blocks {
		got.Write(b)
	}

	wantFull := len(input) / capacity * capacity
	if got.Len() != wantFull {
		t.Fatalf("emitted %d bytes in blocks, want %d", got.Len(), wantFull)
	}
	if !bytes.Equal(got.Bytes(), input[:wantFull]) {
		t.Error("emitted block bytes differ from input")
	}
	if acc.Offset() != len(input)-wantFull {
		t.Errorf("offset = %d, want %d", acc.Offset(), len(input)-wantFull)
	}
}

func TestBlockAccumulator_Scenario1280(t *testing.T) {
	// Reference end-to-end chunking scenario: capacity 1280, frames of
	// 700, 900 and 2500 bytes. 4100 total = 3*1280 + 260 remainder.
	acc, err := NewBlockAccumulator(1280)
	if err != nil {
		t.Fatal(err)
	}

	input := sequentialBytes(4100)
	frames := [][]byte{input[:700], input[700:1600], input[1600:]}
	blocks := collectBlocks(t, acc, frames)

	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}
	for i, b := range blocks {
		if !bytes.Equal(b, input[i*1280:(i+1)*1280]) {
			t.Errorf("block %d content mismatch", i)
		}
	}
	if acc.Offset() != 260 {
		t.Errorf("offset = %d, want 260", acc.Offset())
	}
}

func TestBlockAccumulator_Reset(t *testing.T) {
	acc, err := NewBlockAccumulator(32)
	if err != nil {
		t.Fatal(err)
	}
	acc.Absorb(sequentialBytes(10), nil)
	if acc.Empty() {
		t.Fatal("expected pending partial block")
	}
	acc.Reset()
	if !acc.Empty() {
		t.Error("Reset must discard the partial block")
	}
}
