package audiopipe

import (
	"fmt"

	fdkaac "github.com/lizc2003/audio-fdkaac"
)

func init() {
	registerBlockEncoder(AudioCodecAAC, newFdkAacEncoder)
}

// fdkAacEncoder implements BlockEncoder on top of the FDK AAC encoder.
// One input block of aacSamplesPerFrame samples per channel yields one
// raw AAC frame (no ADTS framing; the codec-private blob carries the
// stream configuration instead).
type fdkAacEncoder struct {
	enc       *fdkaac.AacEncoder
	config    AudioEncoderConfig
	blockSize int
	maxOut    int
}

func newFdkAacEncoder(config AudioEncoderConfig) (BlockEncoder, error) {
	if config.ObjectType != AacObjectTypeLC {
		return nil, fmt.Errorf("%w: fdk-aac backend supports AAC-LC only, got %s",
			ErrCodecNotSupported, config.ObjectType)
	}

	enc, err := fdkaac.CreateAacEncoder(&fdkaac.AacEncoderConfig{
		TransMux:    fdkaac.TtMp4Raw,
		SampleRate:  config.SampleRate,
		MaxChannels: config.Channels,
		Bitrate:     config.BitrateBps,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fdk-aac encoder: %w", err)
	}

	blockSize := aacSamplesPerFrame * config.Channels * AudioFormatS16.BytesPerSample()
	return &fdkAacEncoder{
		enc:       enc,
		config:    config,
		blockSize: blockSize,
		maxOut:    enc.EstimateOutBufBytes(blockSize),
	}, nil
}

func (e *fdkAacEncoder) EncodeBlock(pcm, out []byte) (int, error) {
	if len(out) < e.maxOut {
		return 0, ErrBufferTooSmall
	}
	n, _, err := e.enc.Encode(pcm, out)
	if err != nil {
		return 0, fmt.Errorf("aac encode failed: %w", err)
	}
	return n, nil
}

func (e *fdkAacEncoder) InputBlockSize() int { return e.blockSize }

func (e *fdkAacEncoder) MaxEncodedSize() int { return e.maxOut }

func (e *fdkAacEncoder) Config() AudioEncoderConfig { return e.config }

func (e *fdkAacEncoder) Codec() AudioCodec { return AudioCodecAAC }

func (e *fdkAacEncoder) Close() error {
	e.enc.Close()
	return nil
}
