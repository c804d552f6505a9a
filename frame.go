package audiopipe

// AudioFormat represents raw audio sample formats.
type AudioFormat int

const (
	AudioFormatUnknown AudioFormat = iota
	AudioFormatS16                 // Signed 16-bit little-endian PCM
)

func (a AudioFormat) String() string {
	switch a {
	case AudioFormatS16:
		return "S16"
	default:
		return "Unknown"
	}
}

// BytesPerSample returns the number of bytes per sample for this format.
func (a AudioFormat) BytesPerSample() int {
	switch a {
	case AudioFormatS16:
		return 2
	default:
		return 0
	}
}

// TrackType tags frames submitted to a sink.
type TrackType int

const (
	TrackTypeUnknown TrackType = iota
	TrackTypeAudio
	TrackTypeVideo
)

func (t TrackType) String() string {
	switch t {
	case TrackTypeAudio:
		return "audio"
	case TrackTypeVideo:
		return "video"
	default:
		return "unknown"
	}
}

// EncodedFrame holds one encoder output frame together with its
// presentation timestamp.
type EncodedFrame struct {
	Data        []byte    // Encoded bitstream data
	TimestampMs uint64    // Presentation timestamp in milliseconds
	Track       TrackType // Track the frame belongs to
}

// Clone creates a deep copy of the encoded frame.
func (f *EncodedFrame) Clone() *EncodedFrame {
	clone := &EncodedFrame{
		TimestampMs: f.TimestampMs,
		Track:       f.Track,
	}
	if f.Data != nil {
		clone.Data = make([]byte, len(f.Data))
		copy(clone.Data, f.Data)
	}
	return clone
}

// TrackInfo describes the encoded audio stream to a downstream
// container or streaming client. It is built once at pipeline creation
// and never mutated afterwards.
type TrackInfo struct {
	TrackName    string // Track name in the container
	CodecName    string // Container codec identifier (e.g. "A_AAC")
	SampleRate   int    // Sample rate in Hz
	Channels     int    // Number of channels
	CodecPrivate []byte // Codec-specific initialization bytes
}

// Clone creates a deep copy of the track info, including the
// codec-private blob. The returned value is self-contained and may
// outlive the pipeline that produced it.
func (t *TrackInfo) Clone() *TrackInfo {
	clone := &TrackInfo{
		TrackName:  t.TrackName,
		CodecName:  t.CodecName,
		SampleRate: t.SampleRate,
		Channels:   t.Channels,
	}
	if t.CodecPrivate != nil {
		clone.CodecPrivate = make([]byte, len(t.CodecPrivate))
		copy(clone.CodecPrivate, t.CodecPrivate)
	}
	return clone
}
