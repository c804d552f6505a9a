package audiopipe

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Common errors
var (
	ErrBufferTooSmall    = errors.New("buffer too small")
	ErrCodecNotSupported = errors.New("codec not supported")
)

// AudioEncoderConfig configures a block encoder.
type AudioEncoderConfig struct {
	Codec      AudioCodec    // Codec type
	SampleRate int           // Sample rate in Hz
	Channels   int           // Number of channels
	BitrateBps int           // Target bitrate in bits per second
	ObjectType AacObjectType // AAC object type
}

// BlockEncoder encodes fixed-size blocks of raw PCM into compressed
// frames. The required input block size is fixed at creation; feeding a
// block of any other length is a contract breach by the caller, not a
// runtime condition the encoder recovers from.
type BlockEncoder interface {
	io.Closer

	// EncodeBlock encodes exactly one input block into out and returns
	// the number of bytes written. A zero return with nil error means
	// the encoder produced no output for this block.
	EncodeBlock(pcm, out []byte) (int, error)

	// InputBlockSize returns the required input block size in bytes.
	InputBlockSize() int

	// MaxEncodedSize returns the maximum possible encoded frame size,
	// for sizing the output buffer once.
	MaxEncodedSize() int

	// Config returns the encoder configuration.
	Config() AudioEncoderConfig

	// Codec returns the codec type.
	Codec() AudioCodec
}

// --- Registry ---

type blockEncoderFactory func(AudioEncoderConfig) (BlockEncoder, error)

type encoderRegistry struct {
	mu        sync.RWMutex
	factories map[AudioCodec]blockEncoderFactory
}

var globalEncoderRegistry = &encoderRegistry{
	factories: make(map[AudioCodec]blockEncoderFactory),
}

// registerBlockEncoder registers a block encoder factory for a codec.
func registerBlockEncoder(codec AudioCodec, factory blockEncoderFactory) {
	globalEncoderRegistry.mu.Lock()
	defer globalEncoderRegistry.mu.Unlock()
	globalEncoderRegistry.factories[codec] = factory
}

// NewBlockEncoder creates a block encoder for the configured codec.
func NewBlockEncoder(config AudioEncoderConfig) (BlockEncoder, error) {
	globalEncoderRegistry.mu.RLock()
	factory, ok := globalEncoderRegistry.factories[config.Codec]
	globalEncoderRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCodecNotSupported, config.Codec)
	}

	return factory(config)
}

// IsBlockEncoderAvailable checks if an encoder is registered for the
// codec.
func IsBlockEncoderAvailable(codec AudioCodec) bool {
	globalEncoderRegistry.mu.RLock()
	defer globalEncoderRegistry.mu.RUnlock()
	_, ok := globalEncoderRegistry.factories[codec]
	return ok
}
