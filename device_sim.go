package audiopipe

import (
	"errors"
	"fmt"
	"math"
	"time"
)

func init() {
	RegisterCaptureDevice(DeviceTypeSimulated, func(config interface{}) (CaptureDevice, error) {
		switch c := config.(type) {
		case nil:
			return NewSimulatedDevice(DefaultSimulatedDeviceConfig()), nil
		case SimulatedDeviceConfig:
			return NewSimulatedDevice(c), nil
		case *SimulatedDeviceConfig:
			return NewSimulatedDevice(*c), nil
		default:
			return nil, fmt.Errorf("unexpected simulated device config type %T", config)
		}
	})
}

// AudioPatternType defines the pattern generated by a simulated device.
type AudioPatternType int

const (
	AudioPatternSilence  AudioPatternType = iota // Silence
	AudioPatternSineWave                         // Sine wave tone
)

func (p AudioPatternType) String() string {
	switch p {
	case AudioPatternSilence:
		return "Silence"
	case AudioPatternSineWave:
		return "SineWave"
	default:
		return "Unknown"
	}
}

// SimulatedDeviceConfig configures a synthetic capture device.
type SimulatedDeviceConfig struct {
	Pattern   AudioPatternType // Pattern type
	Frequency float64          // Tone frequency in Hz
	Amplitude float64          // Amplitude 0.0-1.0
	Realtime  bool             // Pace frames at their nominal duration
}

// DefaultSimulatedDeviceConfig returns a default simulated device
// configuration: a 440 Hz tone delivered in real time.
func DefaultSimulatedDeviceConfig() SimulatedDeviceConfig {
	return SimulatedDeviceConfig{
		Pattern:   AudioPatternSineWave,
		Frequency: 440.0,
		Amplitude: 0.5,
		Realtime:  true,
	}
}

// SimulatedDevice is a CaptureDevice producing synthetic S16 PCM
// frames. It serves examples and soak tests that need a capture source
// without hardware.
type SimulatedDevice struct {
	config SimulatedDeviceConfig

	deviceCfg  DeviceConfig
	configured bool

	frame     []byte
	haveFrame bool
	phase     float64
	frameDur  time.Duration
	nextDue   time.Time
}

// NewSimulatedDevice creates an unconfigured simulated device.
func NewSimulatedDevice(config SimulatedDeviceConfig) *SimulatedDevice {
	if config.Amplitude <= 0 || config.Amplitude > 1.0 {
		config.Amplitude = 0.5
	}
	if config.Frequency <= 0 {
		config.Frequency = 440.0
	}
	return &SimulatedDevice{config: config}
}

// Configure implements CaptureDevice.
func (d *SimulatedDevice) Configure(cfg DeviceConfig) error {
	if cfg.Format != AudioFormatS16 {
		return fmt.Errorf("simulated device requires S16 capture, got %v", cfg.Format)
	}
	if cfg.SamplesPerFrame <= 0 {
		return fmt.Errorf("simulated device requires a positive samples-per-frame, got %d", cfg.SamplesPerFrame)
	}

	d.deviceCfg = cfg
	d.frame = make([]byte, cfg.SamplesPerFrame*cfg.Channels*cfg.Format.BytesPerSample())
	d.frameDur = time.Duration(cfg.SamplesPerFrame) * time.Second / time.Duration(cfg.SampleRate)
	d.nextDue = time.Now()
	d.configured = true
	return nil
}

// PollFrame implements CaptureDevice.
func (d *SimulatedDevice) PollFrame(timeout time.Duration) error {
	if !d.configured {
		return errors.New("simulated device not configured")
	}

	if d.config.Realtime {
		wait := time.Until(d.nextDue)
		if wait > timeout {
			time.Sleep(timeout)
			return ErrPollTimeout
		}
		if wait > 0 {
			time.Sleep(wait)
		}
		d.nextDue = d.nextDue.Add(d.frameDur)
	}

	d.generateFrame()
	d.haveFrame = true
	return nil
}

// Frame implements CaptureDevice.
func (d *SimulatedDevice) Frame() ([]byte, error) {
	if !d.haveFrame {
		return nil, errors.New("no frame ready, poll first")
	}
	return d.frame, nil
}

// ReleaseFrame implements CaptureDevice.
func (d *SimulatedDevice) ReleaseFrame() { d.haveFrame = false }

// Disable implements CaptureDevice.
func (d *SimulatedDevice) Disable() error { return nil }

// Close implements io.Closer.
func (d *SimulatedDevice) Close() error { return nil }

func (d *SimulatedDevice) generateFrame() {
	if d.config.Pattern == AudioPatternSilence {
		for i := range d.frame {
			d.frame[i] = 0
		}
		return
	}

	phaseInc := 2 * math.Pi * d.config.Frequency / float64(d.deviceCfg.SampleRate)
	for i := 0; i < d.deviceCfg.SamplesPerFrame; i++ {
		sample := int16(d.config.Amplitude * 32767 * math.Sin(d.phase))
		d.phase += phaseInc
		if d.phase > 2*math.Pi {
			d.phase -= 2 * math.Pi
		}
		for ch := 0; ch < d.deviceCfg.Channels; ch++ {
			idx := (i*d.deviceCfg.Channels + ch) * 2
			d.frame[idx] = byte(sample)
			d.frame[idx+1] = byte(sample >> 8)
		}
	}
}
