package audiopipe

import "fmt"

// AudioCodec identifies the audio codec type.
type AudioCodec int

const (
	AudioCodecUnknown AudioCodec = iota
	AudioCodecAAC
)

func (c AudioCodec) String() string {
	switch c {
	case AudioCodecAAC:
		return "AAC"
	default:
		return "Unknown"
	}
}

// MimeType returns the MIME type for this codec as used by RTP payload
// format registrations.
func (c AudioCodec) MimeType() string {
	switch c {
	case AudioCodecAAC:
		return "audio/mpeg4-generic"
	default:
		return ""
	}
}

// ContainerCodecID returns the codec identifier used by MKV-style
// containers for this codec.
func (c AudioCodec) ContainerCodecID() string {
	switch c {
	case AudioCodecAAC:
		return "A_AAC"
	default:
		return ""
	}
}

// AacObjectType is the MPEG-4 audio object type carried in the
// AudioSpecificConfig.
type AacObjectType uint8

const (
	AacObjectTypeMain AacObjectType = 1
	AacObjectTypeLC   AacObjectType = 2
	AacObjectTypeSSR  AacObjectType = 3
	AacObjectTypeLTP  AacObjectType = 4
)

func (t AacObjectType) String() string {
	switch t {
	case AacObjectTypeMain:
		return "Main"
	case AacObjectTypeLC:
		return "LC"
	case AacObjectTypeSSR:
		return "SSR"
	case AacObjectTypeLTP:
		return "LTP"
	default:
		return "Unknown"
	}
}

// aacSamplesPerFrame is the number of PCM samples per channel consumed
// by one AAC encode call.
const aacSamplesPerFrame = 1024

// aacSamplingFrequencyIndex maps a sample rate to its 4-bit index in the
// AudioSpecificConfig (ISO/IEC 14496-3 table 1.18).
func aacSamplingFrequencyIndex(sampleRate int) (uint8, bool) {
	switch sampleRate {
	case 96000:
		return 0, true
	case 88200:
		return 1, true
	case 64000:
		return 2, true
	case 48000:
		return 3, true
	case 44100:
		return 4, true
	case 32000:
		return 5, true
	case 24000:
		return 6, true
	case 22050:
		return 7, true
	case 16000:
		return 8, true
	case 12000:
		return 9, true
	case 11025:
		return 10, true
	case 8000:
		return 11, true
	case 7350:
		return 12, true
	default:
		return 0, false
	}
}

// AacCodecPrivateData builds the two-byte MPEG-4 AudioSpecificConfig for
// the given object type, sample rate and channel count. The result is
// the codec-private blob a downstream container expects for an AAC
// track:
//
//	5 bits object type | 4 bits frequency index | 4 bits channel config | 3 bits zero
func AacCodecPrivateData(objectType AacObjectType, sampleRate, channels int) ([]byte, error) {
	freqIndex, ok := aacSamplingFrequencyIndex(sampleRate)
	if !ok {
		return nil, fmt.Errorf("unsupported AAC sample rate: %d", sampleRate)
	}
	if channels < 1 || channels > 7 {
		return nil, fmt.Errorf("unsupported AAC channel count: %d", channels)
	}

	v := uint16(objectType)<<11 | uint16(freqIndex)<<7 | uint16(channels)<<3
	return []byte{byte(v >> 8), byte(v)}, nil
}
