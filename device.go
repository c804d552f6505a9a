package audiopipe

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// ErrPollTimeout is returned by CaptureDevice.PollFrame when no frame
// became ready within the timeout. It is a transient condition; the
// caller is expected to poll again.
var ErrPollTimeout = errors.New("timed out waiting for device frame")

// DeviceType identifies the type of capture device backend.
type DeviceType int

const (
	DeviceTypeUnknown   DeviceType = iota
	DeviceTypeMiniaudio            // Hardware capture via miniaudio (malgo)
	DeviceTypeSimulated            // Synthetic tone generator
	DeviceTypeCustom               // User-provided device
)

func (d DeviceType) String() string {
	switch d {
	case DeviceTypeMiniaudio:
		return "Miniaudio"
	case DeviceTypeSimulated:
		return "Simulated"
	case DeviceTypeCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// DeviceConfig describes the capture attributes applied to a device
// before polling starts.
type DeviceConfig struct {
	DeviceID        int         // Device identifier
	ChannelID       int         // Channel on the device
	SampleRate      int         // Sample rate in Hz
	Channels        int         // Number of channels
	Format          AudioFormat // Raw sample format
	FrameDepth      int         // Device-side frame queue depth
	SamplesPerFrame int         // Samples per device frame (device hint)
	Volume          int         // Initial channel volume
	Gain            int         // Initial input gain
}

// CaptureDevice is the capture hardware collaborator. The pipeline
// drives it from a single worker: Configure once, then repeated
// PollFrame/Frame/ReleaseFrame cycles, then Disable on drain.
//
// PollFrame returns nil when a frame is ready, ErrPollTimeout when the
// wait expired (transient, poll again), and any other error for a fatal
// device condition. Frame returns the raw bytes of the ready frame; the
// slice is owned by the device and valid until ReleaseFrame.
type CaptureDevice interface {
	io.Closer

	// Configure applies capture attributes and enables the device and
	// channel, including volume and gain.
	Configure(cfg DeviceConfig) error

	// PollFrame blocks until a frame is ready or the timeout expires.
	PollFrame(timeout time.Duration) error

	// Frame returns the raw bytes of the frame made ready by the last
	// successful PollFrame.
	Frame() ([]byte, error)

	// ReleaseFrame returns the current frame buffer to the device.
	ReleaseFrame()

	// Disable disables the channel and the device. Called exactly once
	// when the capture worker drains.
	Disable() error
}

// CaptureDeviceFactory creates a capture device with the given
// backend-specific configuration.
type CaptureDeviceFactory func(config interface{}) (CaptureDevice, error)

type deviceRegistry struct {
	factories map[DeviceType]CaptureDeviceFactory
	mu        sync.RWMutex
}

var globalDeviceRegistry = &deviceRegistry{
	factories: make(map[DeviceType]CaptureDeviceFactory),
}

// RegisterCaptureDevice registers a capture device factory for a device
// type.
func RegisterCaptureDevice(dtype DeviceType, factory CaptureDeviceFactory) {
	globalDeviceRegistry.mu.Lock()
	defer globalDeviceRegistry.mu.Unlock()
	globalDeviceRegistry.factories[dtype] = factory
}

// NewCaptureDevice creates a capture device of the specified type.
func NewCaptureDevice(dtype DeviceType, config interface{}) (CaptureDevice, error) {
	globalDeviceRegistry.mu.RLock()
	factory, ok := globalDeviceRegistry.factories[dtype]
	globalDeviceRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("capture device type not available: %v", dtype)
	}

	return factory(config)
}

// IsCaptureDeviceAvailable checks if a capture device type is available.
func IsCaptureDeviceAvailable(dtype DeviceType) bool {
	globalDeviceRegistry.mu.RLock()
	defer globalDeviceRegistry.mu.RUnlock()
	_, ok := globalDeviceRegistry.factories[dtype]
	return ok
}

// AvailableCaptureDevices returns a list of available device types.
func AvailableCaptureDevices() []DeviceType {
	globalDeviceRegistry.mu.RLock()
	defer globalDeviceRegistry.mu.RUnlock()

	types := make([]DeviceType, 0, len(globalDeviceRegistry.factories))
	for t := range globalDeviceRegistry.factories {
		types = append(types, t)
	}
	return types
}
