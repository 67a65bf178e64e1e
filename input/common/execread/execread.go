// Package execread provides a shared session that reads audio samples from
// the stdout of a capture command such as parec or arecord.
package execread

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"os"
	"os/exec"
	"time"

	"github.com/BurningKarl/LightOrgan/input"
	"github.com/pkg/errors"
)

// Session reads little-endian PCM from a command's stdout and delivers it as
// fixed-size sample blocks.
type Session struct {
	// OnStart is called when the command starts. Nil by default.
	OnStart func(ctx context.Context, cmd *exec.Cmd) error

	argv []string
	cfg  input.SessionConfig

	// f32mode selects float32 input samples instead of signed 16-bit.
	f32mode bool
}

// NewSession creates a new execread session. It never returns an error.
func NewSession(argv []string, f32mode bool, cfg input.SessionConfig) *Session {
	if len(argv) < 1 {
		panic("argv has no arg0")
	}

	return &Session{
		argv:    argv,
		cfg:     cfg,
		f32mode: f32mode,
	}
}

// Start runs the capture command and sends one block per BlockSize samples
// read. The block sequence number advances even when a read stalls past its
// deadline, so consumers observe the stall as a sequence gap rather than as
// stale audio.
func (s *Session) Start(ctx context.Context, out chan<- input.Block) error {
	cmd := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...)
	cmd.Stderr = os.Stderr

	o, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "failed to get stdout pipe")
	}
	defer o.Close()

	// We need o as an *os.File for SetReadDeadline.
	of, ok := o.(*os.File)
	if !ok {
		return errors.New("stdout pipe is not an *os.File (bug)")
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(input.ErrDevice, "failed to start %s: %v", s.argv[0], err)
	}
	defer cmd.Wait()

	if s.OnStart != nil {
		if err := s.OnStart(ctx, cmd); err != nil {
			return err
		}
	}

	sampleBytes := 2
	if s.f32mode {
		sampleBytes = 4
	}

	raw := make([]byte, s.cfg.BlockSize*sampleBytes)

	reader := pcmReader{
		order: binary.LittleEndian,
		f32:   s.f32mode,
	}

	// A read that takes much longer than one block duration means the
	// device stopped producing; treat the missing block as lost.
	blockDuration := time.Duration(
		float64(s.cfg.BlockSize) / s.cfg.SampleRate * float64(time.Second))

	var seq uint64
	fill := 0

	for {
		if err := of.SetReadDeadline(time.Now().Add(4 * blockDuration)); err != nil {
			return errors.Wrap(err, "failed to set read deadline")
		}

		n, err := fillBlock(o, raw, fill)
		switch {
		case err == nil:
			fill = 0

		case errors.Is(err, os.ErrDeadlineExceeded):
			// Keep the partial bytes so the sample alignment of the stream
			// survives the stall, and skip the sequence number so the gap
			// is visible downstream.
			fill = n
			seq++
			continue

		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrapf(input.ErrDevice, "%s stream ended", s.argv[0])

		default:
			return errors.Wrapf(input.ErrDevice, "read from %s: %v", s.argv[0], err)
		}

		block := input.MakeBlock(seq, s.cfg.BlockSize)
		seq++

		reader.reset(raw)
		for n := range block.Samples {
			block.Samples[n] = reader.next()
		}

		select {
		case <-ctx.Done():
			return nil
		case out <- block:
		}
	}
}

// fillBlock tops raw up from r, resuming at offset fill. The returned offset
// equals len(raw) exactly when the block is complete.
func fillBlock(r io.Reader, raw []byte, fill int) (int, error) {
	n, err := io.ReadFull(r, raw[fill:])
	return fill + n, err
}

// pcmReader converts raw little-endian PCM bytes into float64 samples in the
// range [-1, 1].
type pcmReader struct {
	order binary.ByteOrder
	buf   []byte
	f32   bool
}

func (f *pcmReader) reset(b []byte) {
	f.buf = b
}

func (f *pcmReader) next() float64 {
	if f.f32 {
		b := f.buf[:4]
		f.buf = f.buf[4:]
		return float64(math.Float32frombits(f.order.Uint32(b)))
	}

	b := f.buf[:2]
	f.buf = f.buf[2:]
	return float64(int16(f.order.Uint16(b))) / (-math.MinInt16)
}
