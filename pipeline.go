package audiopipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// pollTimeout bounds a single device poll. A timed-out poll is the
// worker's periodic opportunity to observe a termination request while
// no frames are arriving.
const pollTimeout = time.Second

// PipelineState represents the state of the capture worker.
type PipelineState int32

const (
	StateStarting    PipelineState = iota // Worker not yet running
	StateConfiguring                      // Applying device attributes
	StateRunning                          // Polling and encoding
	StateDraining                         // Tearing down the device
	StateStopped                          // Worker exited
)

func (s PipelineState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateConfiguring:
		return "configuring"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// PipelineStats provides pipeline counters.
type PipelineStats struct {
	FramesCaptured uint64 // Device frames fully absorbed
	PollTimeouts   uint64 // Device polls that timed out
	BlocksEncoded  uint64 // Encoder input blocks successfully dispatched
	BlocksDropped  uint64 // Blocks dropped on encode failure or empty output
	BytesSubmitted uint64 // Encoded bytes handed to the sink
	Errors         uint64 // Errors observed (transient and fatal)
}

// PipelineOption customizes an AudioPipeline.
type PipelineOption func(*AudioPipeline)

// WithLogger sets the pipeline's structured logger.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *AudioPipeline) { p.logger = logger }
}

// WithOnError sets a callback invoked for every error the pipeline
// absorbs while streaming.
func WithOnError(cb func(error)) PipelineOption {
	return func(p *AudioPipeline) { p.onError = cb }
}

// WithEncoder injects a block encoder instead of creating one from the
// registry. The pipeline takes ownership and closes it on terminate.
func WithEncoder(enc BlockEncoder) PipelineOption {
	return func(p *AudioPipeline) { p.encoder = enc }
}

// withNowFunc overrides the wall clock used to seed block timestamps.
func withNowFunc(now func() time.Time) PipelineOption {
	return func(p *AudioPipeline) { p.now = now }
}

// AudioPipeline pulls raw PCM from a capture device, re-chunks it into
// encoder input blocks, encodes each block and forwards the encoded
// frames with presentation timestamps to a sink. All per-frame work
// runs serially on one dedicated worker goroutine.
type AudioPipeline struct {
	id     string
	config PipelineConfig

	device  CaptureDevice
	encoder BlockEncoder
	sink    FrameSink

	acc       *BlockAccumulator
	clock     *BlockClock
	encodeBuf []byte
	now       func() time.Time

	trackInfo *TrackInfo
	trackMu   sync.Mutex

	state  atomic.Int32
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	terminateOnce sync.Once
	releaseOnce   sync.Once

	stats   PipelineStats
	statsMu sync.Mutex

	logger  *slog.Logger
	onError func(error)
}

// NewAudioPipeline creates a pipeline and starts its capture worker.
// Construction performs, in order: config validation, track metadata
// build, encoder creation (which fixes the accumulator capacity),
// buffer allocation and worker start. On any failure the partially
// built pipeline is torn down and an error is returned; the caller
// never receives both a handle and an error.
func NewAudioPipeline(config PipelineConfig, device CaptureDevice, sink FrameSink, opts ...PipelineOption) (*AudioPipeline, error) {
	if device == nil {
		return nil, errors.New("capture device is required")
	}
	if sink == nil {
		return nil, errors.New("frame sink is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &AudioPipeline{
		id:     uuid.NewString(),
		config: config,
		device: device,
		sink:   sink,
		now:    time.Now,
		logger: slog.Default(),
	}
	p.state.Store(int32(StateStarting))
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("pipeline", p.id)

	codecPrivate, err := AacCodecPrivateData(config.ObjectType, config.SampleRate, config.Channels)
	if err != nil {
		p.release()
		return nil, fmt.Errorf("failed to build codec private data: %w", err)
	}
	p.trackInfo = &TrackInfo{
		TrackName:    config.TrackName,
		CodecName:    config.Codec.ContainerCodecID(),
		SampleRate:   config.SampleRate,
		Channels:     config.Channels,
		CodecPrivate: codecPrivate,
	}

	if p.encoder == nil {
		enc, err := NewBlockEncoder(AudioEncoderConfig{
			Codec:      config.Codec,
			SampleRate: config.SampleRate,
			Channels:   config.Channels,
			BitrateBps: config.BitrateBps,
			ObjectType: config.ObjectType,
		})
		if err != nil {
			p.release()
			return nil, fmt.Errorf("failed to create encoder: %w", err)
		}
		p.encoder = enc
	}

	acc, err := NewBlockAccumulator(p.encoder.InputBlockSize())
	if err != nil {
		p.release()
		return nil, fmt.Errorf("bad encoder input block size: %w", err)
	}
	p.acc = acc
	p.clock = NewBlockClock(acc.Capacity(), config.SampleRate, config.Channels, config.Format)
	p.clock.now = p.now
	p.encodeBuf = make([]byte, p.encoder.MaxEncodedSize())

	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.wg.Add(1)
	go p.run()

	return p, nil
}

// ID returns the pipeline instance identifier.
func (p *AudioPipeline) ID() string { return p.id }

// State returns the current worker state.
func (p *AudioPipeline) State() PipelineState {
	return PipelineState(p.state.Load())
}

// Stats returns a snapshot of the pipeline counters.
func (p *AudioPipeline) Stats() PipelineStats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	return p.stats
}

// TrackInfoClone returns an independently owned deep copy of the track
// metadata, including the codec-private blob. Safe to call at any time
// after creation, concurrently with the running worker. Returns nil on
// a nil pipeline.
func (p *AudioPipeline) TrackInfoClone() *TrackInfo {
	if p == nil {
		return nil
	}
	p.trackMu.Lock()
	defer p.trackMu.Unlock()
	if p.trackInfo == nil {
		return nil
	}
	return p.trackInfo.Clone()
}

// Terminate requests cooperative shutdown, waits for the worker to
// drain and stop, then releases owned resources. The request does not
// interrupt an in-flight poll-and-process iteration; the worker
// finishes it, observes the request and drains. Safe to call multiple
// times and on a nil pipeline.
func (p *AudioPipeline) Terminate() {
	if p == nil {
		return
	}
	p.terminateOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
	})
	p.wg.Wait()
	p.release()
}

// release closes the collaborators the pipeline owns. Idempotent;
// teardown errors are logged, never escalated.
func (p *AudioPipeline) release() {
	p.releaseOnce.Do(func() {
		var errs *multierror.Error
		if p.encoder != nil {
			if err := p.encoder.Close(); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
		if p.device != nil {
			if err := p.device.Close(); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
		if err := errs.ErrorOrNil(); err != nil {
			p.logger.Error("pipeline resource release failed", "error", err)
		}
	})
}

func (p *AudioPipeline) setState(s PipelineState) {
	p.state.Store(int32(s))
}

// run is the capture worker. It configures the device, then polls,
// absorbs and encodes until termination is requested or a fatal device
// error occurs, then drains.
func (p *AudioPipeline) run() {
	defer p.wg.Done()
	defer p.setState(StateStopped)

	p.setState(StateConfiguring)
	if err := p.device.Configure(p.config.deviceConfig()); err != nil {
		p.logger.Error("failed to set up audio device", "error", err)
		p.handleError(err)
		return
	}

	p.setState(StateRunning)
	for p.ctx.Err() == nil {
		err := p.device.PollFrame(pollTimeout)
		if errors.Is(err, ErrPollTimeout) {
			p.logger.Debug("audio poll timed out, no frame")
			p.statsMu.Lock()
			p.stats.PollTimeouts++
			p.statsMu.Unlock()
			continue
		}
		if err != nil {
			p.logger.Error("audio frame poll failed", "error", err)
			p.handleError(err)
			break
		}

		frame, err := p.device.Frame()
		if err != nil {
			p.logger.Error("audio frame fetch failed", "error", err)
			p.handleError(err)
			break
		}
		p.processFrame(frame)
		p.device.ReleaseFrame()
	}

	p.setState(StateDraining)
	if err := p.device.Disable(); err != nil {
		// Teardown failures never block the stop transition.
		p.logger.Error("audio device disable failed", "error", err)
		p.handleError(err)
	}
}

// processFrame absorbs one device frame, encoding and dispatching every
// block it completes. The frame is fully consumed before it returns; no
// bytes are buffered anywhere but the accumulator.
func (p *AudioPipeline) processFrame(frame []byte) {
	if len(frame) == 0 {
		return
	}

	if p.acc.Empty() {
		p.clock.Seed()
	}

	p.acc.Absorb(frame, func(block []byte) {
		p.encodeAndDispatch(block, p.clock.CurrentMs())
		p.clock.Advance()
	})

	p.statsMu.Lock()
	p.stats.FramesCaptured++
	p.statsMu.Unlock()
}

// encodeAndDispatch encodes one completed block and submits the result
// to the sink. Encode failures and empty output drop the block; one
// lost block is preferable to killing the stream.
func (p *AudioPipeline) encodeAndDispatch(block []byte, timestampMs uint64) {
	n, err := p.encoder.EncodeBlock(block, p.encodeBuf)
	if err != nil {
		p.logger.Error("audio encode failed", "error", err)
		p.handleError(err)
		p.statsMu.Lock()
		p.stats.BlocksDropped++
		p.statsMu.Unlock()
		return
	}
	if n == 0 {
		p.statsMu.Lock()
		p.stats.BlocksDropped++
		p.statsMu.Unlock()
		return
	}

	data := make([]byte, n)
	copy(data, p.encodeBuf[:n])

	if err := p.sink.SubmitFrame(data, timestampMs, TrackTypeAudio); err != nil {
		p.logger.Error("frame submit failed", "error", err, "timestamp_ms", timestampMs)
		p.handleError(err)
		p.statsMu.Lock()
		p.stats.BlocksDropped++
		p.statsMu.Unlock()
		return
	}

	p.statsMu.Lock()
	p.stats.BlocksEncoded++
	p.stats.BytesSubmitted += uint64(n)
	p.statsMu.Unlock()
}

func (p *AudioPipeline) handleError(err error) {
	p.statsMu.Lock()
	p.stats.Errors++
	p.statsMu.Unlock()

	if p.onError != nil {
		go p.onError(err)
	}
}
