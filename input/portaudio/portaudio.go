// Package portaudio provides a PortAudio capture backend.
package portaudio

import (
	"context"
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"

	"github.com/BurningKarl/LightOrgan/input"
)

func init() {
	input.RegisterBackend("portaudio", &Backend{})
}

// Backend represents the PortAudio backend. A zero-value instance is a valid
// instance.
type Backend struct {
	initialized bool
}

func (b *Backend) Init() error {
	if b.initialized {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return err
	}

	b.initialized = true
	return nil
}

func (b *Backend) Close() error {
	if !b.initialized {
		return nil
	}

	b.initialized = false
	return portaudio.Terminate()
}

func (b *Backend) Devices() ([]input.Device, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	gDevices := make([]input.Device, 0, len(devices))
	for _, device := range devices {
		if device.MaxInputChannels < 1 {
			continue
		}
		gDevices = append(gDevices, Device{device})
	}

	return gDevices, nil
}

func (b *Backend) DefaultDevice() (input.Device, error) {
	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get default input device")
	}

	return Device{device}, nil
}

func (b *Backend) Start(cfg input.SessionConfig) (input.Session, error) {
	return NewSession(cfg)
}

// Device represents a PortAudio device.
type Device struct {
	*portaudio.DeviceInfo
}

// String returns the device name.
func (d Device) String() string {
	return d.Name
}

// Session is an input source that pulls from PortAudio.
type Session struct {
	cfg    input.SessionConfig
	device Device
}

// NewSession creates a new PortAudio session.
func NewSession(cfg input.SessionConfig) (*Session, error) {
	dv, ok := cfg.Device.(Device)
	if !ok {
		return nil, fmt.Errorf("invalid device type %T", cfg.Device)
	}

	return &Session{cfg: cfg, device: dv}, nil
}

// Start opens the input stream and reads one buffer per block until ctx is
// canceled. Input overflow means PortAudio discarded samples between reads;
// the sequence number is advanced so the loss is visible downstream.
func (s *Session) Start(ctx context.Context, out chan<- input.Block) error {
	param := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   s.device.DeviceInfo,
			Latency:  s.device.DefaultLowInputLatency,
			Channels: 1,
		},
		SampleRate:      s.cfg.SampleRate,
		FramesPerBuffer: s.cfg.BlockSize,
	}

	buffer := make([]float32, s.cfg.BlockSize)

	stream, err := portaudio.OpenStream(param, buffer)
	if err != nil {
		return errors.Wrapf(input.ErrDevice, "failed to open stream: %v", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return errors.Wrapf(input.ErrDevice, "failed to start stream: %v", err)
	}
	defer stream.Stop()

	var seq uint64

	for {
		if err := stream.Read(); err != nil {
			if err == portaudio.InputOverflowed {
				seq++
			} else {
				if ctx.Err() != nil {
					return nil
				}
				return errors.Wrapf(input.ErrDevice, "stream read: %v", err)
			}
		}

		block := input.MakeBlock(seq, s.cfg.BlockSize)
		seq++

		for i, v := range buffer {
			block.Samples[i] = input.Sample(v)
		}

		select {
		case <-ctx.Done():
			return nil
		case out <- block:
		}
	}
}
