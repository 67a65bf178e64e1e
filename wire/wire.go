// Package wire implements the line protocol between the analysis process and
// the process that owns the LED hardware.
//
// One frame is one UTF-8 text line: three integers per LED (red, green,
// blue), each in [0, 255], space separated, newline terminated. The producer
// flushes after every line; the consumer rejects malformed lines without
// applying them.
package wire

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/BurningKarl/LightOrgan/led"
)

var (
	// ErrTransportClosed reports that the consumer side of the stream is
	// gone. There is nothing to visualize for without a consumer, so this
	// is fatal for the producer.
	ErrTransportClosed = errors.New("transport closed")

	// ErrMalformedFrame reports a line that does not decode into a whole
	// pixel frame. The line is discarded; the stream stays usable.
	ErrMalformedFrame = errors.New("malformed frame")
)

// Encoder writes pixel frames to a byte stream, one line per frame, with no
// buffering across frames. Any buffering here would batch frames together
// and the strip would lag the audio.
type Encoder struct {
	w   io.Writer
	buf bytes.Buffer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Write encodes one frame and writes it as a single line. A failed write
// means the consumer went away and returns ErrTransportClosed.
func (e *Encoder) Write(frame led.Frame) error {
	e.buf.Reset()

	for i, px := range frame {
		if i > 0 {
			e.buf.WriteByte(' ')
		}
		e.buf.WriteString(strconv.Itoa(int(px.R)))
		e.buf.WriteByte(' ')
		e.buf.WriteString(strconv.Itoa(int(px.G)))
		e.buf.WriteByte(' ')
		e.buf.WriteString(strconv.Itoa(int(px.B)))
	}
	e.buf.WriteByte('\n')

	if _, err := e.w.Write(e.buf.Bytes()); err != nil {
		return errors.Wrapf(ErrTransportClosed, "%v", err)
	}

	if f, ok := e.w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return errors.Wrapf(ErrTransportClosed, "%v", err)
		}
	}

	return nil
}

// ReadyLine is what a consumer prints once it is ready to receive frames.
// Producers may wait for it before streaming; this one does not.
const ReadyLine = "READY"

// Announce writes the ready line to w.
func Announce(w io.Writer) error {
	_, err := io.WriteString(w, ReadyLine+"\n")
	return err
}

// Decoder reads pixel frames from a byte stream.
type Decoder struct {
	scanner  *bufio.Scanner
	ledCount int
}

func NewDecoder(r io.Reader, ledCount int) *Decoder {
	return &Decoder{
		scanner:  bufio.NewScanner(r),
		ledCount: ledCount,
	}
}

// Read decodes the next line into frame, which must hold the configured LED
// count. It returns ErrMalformedFrame for an undecodable line, leaving frame
// untouched, and io.EOF once the stream ends.
func (d *Decoder) Read(frame led.Frame) error {
	if len(frame) != d.ledCount {
		return errors.Errorf("frame holds %d LEDs, want %d", len(frame), d.ledCount)
	}

	if !d.scanner.Scan() {
		if err := d.scanner.Err(); err != nil {
			return err
		}
		return io.EOF
	}

	fields := bytes.Fields(d.scanner.Bytes())
	if len(fields) != 3*d.ledCount {
		return errors.Wrapf(ErrMalformedFrame,
			"got %d values, want %d", len(fields), 3*d.ledCount)
	}

	// Decode into a scratch frame first so a bad token cannot leave frame
	// half applied.
	decoded := make([]uint8, 0, 3*d.ledCount)
	for _, field := range fields {
		v, err := strconv.Atoi(string(field))
		if err != nil {
			return errors.Wrapf(ErrMalformedFrame, "bad value %q", field)
		}
		if v < 0 || v > 255 {
			return errors.Wrapf(ErrMalformedFrame, "value %d out of range", v)
		}
		decoded = append(decoded, uint8(v))
	}

	for i := range frame {
		frame[i] = led.Pixel{
			R: decoded[3*i],
			G: decoded[3*i+1],
			B: decoded[3*i+2],
		}
	}

	return nil
}
