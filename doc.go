// Package audiopipe implements a real-time audio capture-to-encode
// streaming pipeline: raw PCM is pulled from a capture device at the
// device's native frame granularity, re-chunked into the fixed-size
// blocks the encoder requires, encoded, and forwarded with
// monotonically advancing presentation timestamps to a downstream
// media sink.
//
// # Architecture
//
//	CaptureDevice -> capture worker -> BlockAccumulator -> BlockEncoder -> FrameSink
//
// A pipeline owns exactly one long-running worker goroutine; all
// per-frame work (accumulate, encode, dispatch) runs serially on it.
// The caller's goroutine only creates the pipeline, requests
// termination, and queries track metadata via TrackInfoClone, which is
// safe at any time while the worker runs.
//
// # Backends
//
// Device and encoder backends are pluggable through registries:
//   - DeviceTypeMiniaudio: hardware capture via miniaudio (malgo)
//   - DeviceTypeSimulated: synthetic tone generator
//   - AudioCodecAAC: AAC-LC via the FDK AAC encoder
//
// Sinks include an RTMP publisher (FLV audio tags with an AAC sequence
// header) and an RFC 3640 RTP packetizing sink; any FrameSink
// implementation can be supplied instead.
package audiopipe
