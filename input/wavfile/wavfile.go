// Package wavfile provides a capture backend that replays a wav file in real
// time. It is mainly useful for trying out visualizers without a microphone
// or loopback device.
package wavfile

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"

	"github.com/BurningKarl/LightOrgan/input"
)

func init() {
	input.RegisterBackend("wavfile", Backend{})
}

type Backend struct{}

func (w Backend) Init() error {
	return nil
}

func (w Backend) Close() error {
	return nil
}

func (w Backend) Devices() ([]input.Device, error) {
	return nil, nil
}

func (w Backend) DefaultDevice() (input.Device, error) {
	return nil, errors.New("wavfile backend needs an explicit file path device")
}

func (w Backend) Start(cfg input.SessionConfig) (input.Session, error) {
	return NewSession(cfg)
}

// Device is the path of the wav file to replay.
type Device string

func (d Device) String() string {
	return string(d)
}

// Session replays a wav file as a sequence of sample blocks, paced at the
// file's real-time rate.
type Session struct {
	cfg  input.SessionConfig
	path string
}

func NewSession(cfg input.SessionConfig) (*Session, error) {
	var path string

	switch dv := cfg.Device.(type) {
	case Device:
		path = string(dv)
	case nil:
		return nil, errors.New("no wav file given")
	default:
		return nil, fmt.Errorf("invalid device type %T", cfg.Device)
	}

	return &Session{cfg: cfg, path: path}, nil
}

func (s *Session) Start(ctx context.Context, out chan<- input.Block) error {
	f, err := os.Open(s.path)
	if err != nil {
		return errors.Wrapf(input.ErrDevice, "failed to open wav file: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return errors.Wrapf(input.ErrDevice, "%s is not a valid wav file", s.path)
	}

	channels := int(dec.NumChans)
	scale := 1.0 / float64(int(1)<<(dec.BitDepth-1))

	intBuf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  int(dec.SampleRate),
		},
		Data: make([]int, s.cfg.BlockSize*channels),
	}

	blockDuration := time.Duration(
		float64(s.cfg.BlockSize) / s.cfg.SampleRate * float64(time.Second))

	ticker := time.NewTicker(blockDuration)
	defer ticker.Stop()

	var seq uint64

	for {
		n, err := dec.PCMBuffer(intBuf)
		if err != nil {
			return errors.Wrapf(input.ErrDevice, "failed to decode wav: %v", err)
		}
		if n == 0 {
			// End of file. The device is gone as far as the pipeline is
			// concerned.
			return errors.Wrapf(input.ErrDevice, "%s: end of file", s.path)
		}

		block := input.MakeBlock(seq, s.cfg.BlockSize)
		seq++

		// Downmix interleaved channels to mono.
		for i := range block.Samples {
			sum := 0.0
			for ch := 0; ch < channels; ch++ {
				idx := i*channels + ch
				if idx < n {
					sum += float64(intBuf.Data[idx])
				}
			}
			block.Samples[i] = math.Max(-1, math.Min(1, sum*scale/float64(channels)))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		select {
		case <-ctx.Done():
			return nil
		case out <- block:
		}
	}
}
