package audiopipe

import (
	"github.com/pion/rtp"
)

// FrameSink is the downstream collaborator receiving encoded frames.
// SubmitFrame takes ownership of data; the pipeline never touches the
// slice again after a successful submit.
type FrameSink interface {
	SubmitFrame(data []byte, timestampMs uint64, track TrackType) error
}

// FrameSinkFunc adapts a function to the FrameSink interface.
type FrameSinkFunc func(data []byte, timestampMs uint64, track TrackType) error

func (f FrameSinkFunc) SubmitFrame(data []byte, timestampMs uint64, track TrackType) error {
	return f(data, timestampMs, track)
}

// RTPWriter writes RTP packets to a transport.
type RTPWriter interface {
	WriteRTP(p *rtp.Packet) error
}

// RTPSink packetizes encoded frames into RTP packets and forwards them
// to a writer.
type RTPSink struct {
	packetizer *AACPacketizer
	writer     RTPWriter
}

// NewRTPSink creates a sink that packetizes AAC frames per RFC 3640 and
// writes the packets to w.
func NewRTPSink(packetizer *AACPacketizer, w RTPWriter) *RTPSink {
	return &RTPSink{packetizer: packetizer, writer: w}
}

// SubmitFrame implements FrameSink.
func (s *RTPSink) SubmitFrame(data []byte, timestampMs uint64, track TrackType) error {
	if track != TrackTypeAudio {
		return nil
	}

	packets, err := s.packetizer.Packetize(&EncodedFrame{
		Data:        data,
		TimestampMs: timestampMs,
		Track:       track,
	})
	if err != nil {
		return err
	}

	for _, pkt := range packets {
		if err := s.writer.WriteRTP(pkt); err != nil {
			return err
		}
	}
	return nil
}
