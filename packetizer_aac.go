package audiopipe

import (
	"fmt"
	"sync"

	"github.com/pion/rtp"
)

// DefaultMTU is the default maximum transmission unit for RTP packets.
const DefaultMTU = 1200

const rtpHeaderSize = 12

// AACPacketizer packetizes AAC frames per RFC 3640 (mpeg4-generic) with
// one AU per access unit and 13-bit AU-size headers. Frames larger than
// the MTU are fragmented; every fragment repeats the AU header of the
// complete access unit and the marker is set on the final fragment.
type AACPacketizer struct {
	ssrc        uint32
	payloadType uint8
	clockRate   uint32
	mtu         int
	sequencer   rtp.Sequencer
	mu          sync.Mutex
}

// NewAACPacketizer creates a new AAC RTP packetizer. The clock rate is
// conventionally the sample rate of the stream.
func NewAACPacketizer(ssrc uint32, pt uint8, clockRate uint32, mtu int) (*AACPacketizer, error) {
	if clockRate == 0 {
		return nil, fmt.Errorf("clock rate is required")
	}
	if mtu <= 0 {
		mtu = DefaultMTU
	}
	return &AACPacketizer{
		ssrc:        ssrc,
		payloadType: pt,
		clockRate:   clockRate,
		mtu:         mtu,
		sequencer:   rtp.NewRandomSequencer(),
	}, nil
}

// Packetize converts one encoded AAC frame to RTP packets.
func (p *AACPacketizer) Packetize(frame *EncodedFrame) ([]*rtp.Packet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(frame.Data) == 0 {
		return nil, nil
	}
	if len(frame.Data) >= 1<<13 {
		return nil, fmt.Errorf("AAC frame exceeds 13-bit AU-size: %d bytes", len(frame.Data))
	}

	// AU-headers-length (bits), then one AU-header: 13-bit size, 3-bit index.
	auHeader := [4]byte{
		0x00, 0x10,
		byte(len(frame.Data) >> 5),
		byte(len(frame.Data) << 3),
	}

	timestamp := uint32(frame.TimestampMs * uint64(p.clockRate) / 1000)

	maxFragment := p.mtu - rtpHeaderSize - len(auHeader)
	if maxFragment <= 0 {
		return nil, fmt.Errorf("%w: mtu %d too small for AU headers", ErrBufferTooSmall, p.mtu)
	}

	var packets []*rtp.Packet
	for off := 0; off < len(frame.Data); off += maxFragment {
		end := off + maxFragment
		if end > len(frame.Data) {
			end = len(frame.Data)
		}

		payload := make([]byte, 0, len(auHeader)+end-off)
		payload = append(payload, auHeader[:]...)
		payload = append(payload, frame.Data[off:end]...)

		packets = append(packets, &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         end == len(frame.Data),
				PayloadType:    p.payloadType,
				SequenceNumber: p.sequencer.NextSequenceNumber(),
				Timestamp:      timestamp,
				SSRC:           p.ssrc,
			},
			Payload: payload,
		})
	}
	return packets, nil
}

// PacketizeToBytes converts one encoded AAC frame to raw RTP packet
// bytes.
func (p *AACPacketizer) PacketizeToBytes(frame *EncodedFrame) ([][]byte, error) {
	packets, err := p.Packetize(frame)
	if err != nil {
		return nil, err
	}
	result := make([][]byte, len(packets))
	for i, pkt := range packets {
		result[i], _ = pkt.Marshal()
	}
	return result, nil
}

func (p *AACPacketizer) SetSSRC(ssrc uint32) { p.mu.Lock(); p.ssrc = ssrc; p.mu.Unlock() }
func (p *AACPacketizer) SSRC() uint32        { p.mu.Lock(); defer p.mu.Unlock(); return p.ssrc }
func (p *AACPacketizer) PayloadType() uint8  { p.mu.Lock(); defer p.mu.Unlock(); return p.payloadType }
