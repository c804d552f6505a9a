package audiopipe

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/yutopp/go-rtmp"
	rtmpmsg "github.com/yutopp/go-rtmp/message"
)

const (
	flvAudioChunkStreamID = 6

	// FLV AudioTagHeader first byte for AAC: SoundFormat=10 (AAC),
	// SoundRate=3, SoundSize=1, SoundType=1. For AAC the rate/size/type
	// bits are fixed regardless of the actual stream parameters.
	flvAacAudioHeader = 0xAF

	flvAacSequenceHeader = 0x00
	flvAacRaw            = 0x01
)

// RTMPSinkConfig configures an RTMP publishing sink.
type RTMPSinkConfig struct {
	// URL is the publish endpoint, e.g. rtmp://host:1935/app/streamKey.
	URL string

	// TrackInfo supplies the codec-private blob sent as the AAC
	// sequence header before the first audio frame.
	TrackInfo *TrackInfo

	ChunkSize uint32 // RTMP chunk size (0 = 128)
}

// RTMPSink publishes encoded AAC frames to an RTMP server as FLV audio
// tags. The AAC sequence header (AudioSpecificConfig) is sent once,
// before the first frame.
type RTMPSink struct {
	conn   *rtmp.ClientConn
	stream *rtmp.Stream

	codecPrivate []byte
	baseSet      bool
	baseMs       uint64
	headerSent   bool
	mu           sync.Mutex
}

// NewRTMPSink connects to the RTMP server named by config.URL and
// starts publishing.
func NewRTMPSink(config RTMPSinkConfig) (*RTMPSink, error) {
	if config.TrackInfo == nil || len(config.TrackInfo.CodecPrivate) == 0 {
		return nil, fmt.Errorf("track info with codec private data is required")
	}

	u, err := url.Parse(config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid RTMP URL %q: %w", config.URL, err)
	}
	host := u.Host
	if u.Port() == "" {
		host += ":1935"
	}
	app, streamKey := splitRTMPPath(u.Path)
	if app == "" || streamKey == "" {
		return nil, fmt.Errorf("RTMP URL %q must include app and stream key", config.URL)
	}

	conn, err := rtmp.Dial("rtmp", host, &rtmp.ConnConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to dial RTMP server: %w", err)
	}

	if err := conn.Connect(&rtmpmsg.NetConnectionConnect{
		Command: rtmpmsg.NetConnectionConnectCommand{
			App:   app,
			Type:  "nonprivate",
			TCURL: fmt.Sprintf("rtmp://%s/%s", host, app),
		},
	}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("RTMP connect failed: %w", err)
	}

	chunkSize := config.ChunkSize
	if chunkSize == 0 {
		chunkSize = 128
	}
	stream, err := conn.CreateStream(&rtmpmsg.NetConnectionCreateStream{}, chunkSize)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("RTMP createStream failed: %w", err)
	}

	if err := stream.Publish(&rtmpmsg.NetStreamPublish{
		PublishingName: streamKey,
		PublishingType: "live",
	}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("RTMP publish failed: %w", err)
	}

	return &RTMPSink{
		conn:         conn,
		stream:       stream,
		codecPrivate: config.TrackInfo.CodecPrivate,
	}, nil
}

// SubmitFrame implements FrameSink. Non-audio frames are ignored.
func (s *RTMPSink) SubmitFrame(data []byte, timestampMs uint64, track TrackType) error {
	if track != TrackTypeAudio {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.baseSet {
		s.baseMs = timestampMs
		s.baseSet = true
	}
	// RTMP timestamps are 32-bit and stream-relative.
	timestamp := uint32(timestampMs - s.baseMs)

	if !s.headerSent {
		if err := s.writeAudioTag(timestamp, flvAacSequenceHeader, s.codecPrivate); err != nil {
			return fmt.Errorf("failed to send AAC sequence header: %w", err)
		}
		s.headerSent = true
	}

	if err := s.writeAudioTag(timestamp, flvAacRaw, data); err != nil {
		return fmt.Errorf("failed to send AAC frame: %w", err)
	}
	return nil
}

func (s *RTMPSink) writeAudioTag(timestamp uint32, packetType byte, body []byte) error {
	payload := make([]byte, 0, 2+len(body))
	payload = append(payload, flvAacAudioHeader, packetType)
	payload = append(payload, body...)

	return s.stream.Write(flvAudioChunkStreamID, timestamp, &rtmpmsg.AudioMessage{
		Payload: bytes.NewReader(payload),
	})
}

// Close closes the publishing stream and the connection.
func (s *RTMPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs *multierror.Error
	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
		s.stream = nil
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
		s.conn = nil
	}
	return errs.ErrorOrNil()
}

// splitRTMPPath splits "/app/streamKey" (app may contain slashes) into
// its app and stream key parts.
func splitRTMPPath(path string) (app, streamKey string) {
	trimmed := strings.Trim(path, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return trimmed, ""
	}
	return trimmed[:idx], trimmed[idx+1:]
}
