package audiopipe

import (
	"encoding/binary"
	"testing"
	"time"
)

func simDeviceConfig() DeviceConfig {
	return DeviceConfig{
		SampleRate:      16000,
		Channels:        1,
		Format:          AudioFormatS16,
		SamplesPerFrame: 640,
	}
}

func TestSimulatedDevice_PollGetRelease(t *testing.T) {
	d := NewSimulatedDevice(SimulatedDeviceConfig{Pattern: AudioPatternSineWave, Frequency: 440, Amplitude: 0.5})
	defer d.Close()

	if _, err := d.Frame(); err == nil {
		t.Error("Frame before poll must fail")
	}

	if err := d.Configure(simDeviceConfig()); err != nil {
		t.Fatal(err)
	}
	if err := d.PollFrame(time.Second); err != nil {
		t.Fatal(err)
	}
	frame, err := d.Frame()
	if err != nil {
		t.Fatal(err)
	}
	if want := 640 * 2; len(frame) != want {
		t.Fatalf("frame length = %d, want %d", len(frame), want)
	}

	// A 440 Hz half-amplitude tone is not silence.
	silent := true
	for _, b := range frame {
		if b != 0 {
			silent = false
			break
		}
	}
	if silent {
		t.Error("sine wave frame is all zero")
	}

	d.ReleaseFrame()
	if _, err := d.Frame(); err == nil {
		t.Error("Frame after release must fail")
	}
}

func TestSimulatedDevice_Silence(t *testing.T) {
	d := NewSimulatedDevice(SimulatedDeviceConfig{Pattern: AudioPatternSilence})
	defer d.Close()

	if err := d.Configure(simDeviceConfig()); err != nil {
		t.Fatal(err)
	}
	if err := d.PollFrame(time.Second); err != nil {
		t.Fatal(err)
	}
	frame, err := d.Frame()
	if err != nil {
		t.Fatal(err)
	}
	for i, b := range frame {
		if b != 0 {
			t.Fatalf("silence frame has non-zero byte at %d", i)
		}
	}
}

func TestSimulatedDevice_SampleRangeRespectsAmplitude(t *testing.T) {
	d := NewSimulatedDevice(SimulatedDeviceConfig{Pattern: AudioPatternSineWave, Frequency: 1000, Amplitude: 0.25})
	defer d.Close()

	if err := d.Configure(simDeviceConfig()); err != nil {
		t.Fatal(err)
	}
	if err := d.PollFrame(time.Second); err != nil {
		t.Fatal(err)
	}
	frame, _ := d.Frame()

	limit := int16(0.25 * 32768)
	for i := 0; i+1 < len(frame); i += 2 {
		s := int16(binary.LittleEndian.Uint16(frame[i:]))
		if s > limit || s < -limit {
			t.Fatalf("sample %d = %d exceeds amplitude bound %d", i/2, s, limit)
		}
	}
}

func TestSimulatedDevice_ConfigureRejectsBadFormat(t *testing.T) {
	d := NewSimulatedDevice(DefaultSimulatedDeviceConfig())
	cfg := simDeviceConfig()
	cfg.Format = AudioFormatUnknown
	if err := d.Configure(cfg); err == nil {
		t.Error("expected error for unsupported sample format")
	}

	cfg = simDeviceConfig()
	cfg.SamplesPerFrame = 0
	if err := d.Configure(cfg); err == nil {
		t.Error("expected error for zero samples per frame")
	}
}

func TestSimulatedDevice_Registry(t *testing.T) {
	if !IsCaptureDeviceAvailable(DeviceTypeSimulated) {
		t.Fatal("simulated device not registered")
	}

	d, err := NewCaptureDevice(DeviceTypeSimulated, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	if _, ok := d.(*SimulatedDevice); !ok {
		t.Fatalf("registry built %T, want *SimulatedDevice", d)
	}

	if _, err := NewCaptureDevice(DeviceTypeSimulated, 42); err == nil {
		t.Error("expected error for unexpected config type")
	}
}
