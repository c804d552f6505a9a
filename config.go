package audiopipe

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a pipeline configuration fails
// validation.
var ErrInvalidConfig = errors.New("invalid pipeline configuration")

// PipelineConfig configures an audio capture pipeline. It is immutable
// after construction; the pipeline keeps its own copy.
type PipelineConfig struct {
	DeviceID  int // Capture device identifier
	ChannelID int // Capture channel on the device

	SampleRate int         // Sample rate in Hz
	Channels   int         // Number of channels (1 or 2)
	Format     AudioFormat // Raw sample format

	Codec      AudioCodec    // Target codec
	ObjectType AacObjectType // AAC object type
	BitrateBps int           // Target bitrate in bits per second

	Volume int // Initial channel volume
	Gain   int // Initial input gain

	FrameDepth      int // Device frame queue depth
	SamplesPerFrame int // Samples per device frame (device hint, not a pipeline constraint)

	TrackName string // Track name reported in TrackInfo
}

// DefaultPipelineConfig returns the configuration used by the reference
// capture setup: 16 kHz mono S16 input encoded as 128 kbps AAC-LC.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		DeviceID:        1,
		ChannelID:       0,
		SampleRate:      16000,
		Channels:        1,
		Format:          AudioFormatS16,
		Codec:           AudioCodecAAC,
		ObjectType:      AacObjectTypeLC,
		BitrateBps:      128000,
		Volume:          60,
		Gain:            28,
		FrameDepth:      40,
		SamplesPerFrame: 640,
		TrackName:       "kvs_audio_track",
	}
}

// Validate checks the configuration for values the pipeline cannot work
// with. All reported problems wrap ErrInvalidConfig.
func (c PipelineConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.Channels < 1 || c.Channels > 2 {
		return fmt.Errorf("%w: channels must be 1 or 2, got %d", ErrInvalidConfig, c.Channels)
	}
	if c.Format.BytesPerSample() == 0 {
		return fmt.Errorf("%w: unsupported sample format %v", ErrInvalidConfig, c.Format)
	}
	if c.Codec == AudioCodecUnknown {
		return fmt.Errorf("%w: codec is required", ErrInvalidConfig)
	}
	if c.BitrateBps <= 0 {
		return fmt.Errorf("%w: bitrate must be positive, got %d", ErrInvalidConfig, c.BitrateBps)
	}
	return nil
}

// deviceConfig derives the capture device configuration from the
// pipeline configuration.
func (c PipelineConfig) deviceConfig() DeviceConfig {
	return DeviceConfig{
		DeviceID:        c.DeviceID,
		ChannelID:       c.ChannelID,
		SampleRate:      c.SampleRate,
		Channels:        c.Channels,
		Format:          c.Format,
		FrameDepth:      c.FrameDepth,
		SamplesPerFrame: c.SamplesPerFrame,
		Volume:          c.Volume,
		Gain:            c.Gain,
	}
}
