package audiopipe

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/hashicorp/go-multierror"
)

func init() {
	RegisterCaptureDevice(DeviceTypeMiniaudio, func(config interface{}) (CaptureDevice, error) {
		switch c := config.(type) {
		case nil:
			return NewMalgoDevice(MalgoDeviceConfig{}), nil
		case MalgoDeviceConfig:
			return NewMalgoDevice(c), nil
		case *MalgoDeviceConfig:
			return NewMalgoDevice(*c), nil
		default:
			return nil, fmt.Errorf("unexpected miniaudio device config type %T", config)
		}
	})
}

// MalgoDeviceConfig configures the miniaudio capture backend.
type MalgoDeviceConfig struct {
	Backends []malgo.Backend // Preferred backends (nil = miniaudio default order)
	DeviceID *malgo.DeviceID // Specific capture device (nil = system default)
	LogProc  func(message string)
}

// MalgoDevice is a CaptureDevice backed by miniaudio. Capture data
// arrives on miniaudio's own thread; a buffered channel bridges it to
// the pipeline's poll/get/release cycle. Volume and gain attributes are
// accepted but not applied, miniaudio exposes no capture gain control.
type MalgoDevice struct {
	config MalgoDeviceConfig

	ctx    *malgo.AllocatedContext
	dev    *malgo.Device
	frames chan []byte
	pool   sync.Pool

	current   []byte
	closeOnce sync.Once
	closeErr  error
}

// NewMalgoDevice creates an unconfigured miniaudio capture device.
func NewMalgoDevice(config MalgoDeviceConfig) *MalgoDevice {
	return &MalgoDevice{config: config}
}

// Configure implements CaptureDevice.
func (d *MalgoDevice) Configure(cfg DeviceConfig) error {
	if cfg.Format != AudioFormatS16 {
		return fmt.Errorf("miniaudio backend requires S16 capture, got %v", cfg.Format)
	}

	logProc := d.config.LogProc
	ctx, err := malgo.InitContext(d.config.Backends, malgo.ContextConfig{}, func(message string) {
		if logProc != nil {
			logProc(message)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to init miniaudio context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.Alsa.NoMMap = 1
	if cfg.SamplesPerFrame > 0 {
		deviceConfig.PeriodSizeInFrames = uint32(cfg.SamplesPerFrame)
	}
	if d.config.DeviceID != nil {
		deviceConfig.Capture.DeviceID = d.config.DeviceID.Pointer()
	}

	depth := cfg.FrameDepth
	if depth <= 0 {
		depth = 4
	}
	d.frames = make(chan []byte, depth)
	d.pool = sync.Pool{New: func() interface{} { return []byte(nil) }}

	onRecvFrames := func(_, pSamples []byte, _ uint32) {
		buf, _ := d.pool.Get().([]byte)
		buf = append(buf[:0], pSamples...)
		select {
		case d.frames <- buf:
		default:
			// Queue full; drop the frame rather than block the
			// capture thread.
			d.pool.Put(buf) //nolint:staticcheck
		}
	}

	dev, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onRecvFrames,
	})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to init capture device: %w", err)
	}

	if err := dev.Start(); err != nil {
		dev.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	d.ctx = ctx
	d.dev = dev
	return nil
}

// PollFrame implements CaptureDevice.
func (d *MalgoDevice) PollFrame(timeout time.Duration) error {
	select {
	case buf := <-d.frames:
		d.current = buf
		return nil
	case <-time.After(timeout):
		return ErrPollTimeout
	}
}

// Frame implements CaptureDevice.
func (d *MalgoDevice) Frame() ([]byte, error) {
	if d.current == nil {
		return nil, errors.New("no frame ready, poll first")
	}
	return d.current, nil
}

// ReleaseFrame implements CaptureDevice.
func (d *MalgoDevice) ReleaseFrame() {
	if d.current != nil {
		d.pool.Put(d.current) //nolint:staticcheck
		d.current = nil
	}
}

// Disable implements CaptureDevice.
func (d *MalgoDevice) Disable() error {
	if d.dev == nil {
		return nil
	}
	if err := d.dev.Stop(); err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}
	return nil
}

// Close implements io.Closer.
func (d *MalgoDevice) Close() error {
	d.closeOnce.Do(func() {
		var errs *multierror.Error
		if d.dev != nil {
			d.dev.Uninit()
			d.dev = nil
		}
		if d.ctx != nil {
			if err := d.ctx.Uninit(); err != nil {
				errs = multierror.Append(errs, err)
			}
			d.ctx.Free()
			d.ctx = nil
		}
		d.closeErr = errs.ErrorOrNil()
	})
	return d.closeErr
}
