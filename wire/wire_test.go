package wire

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/BurningKarl/LightOrgan/led"
)

var testFrame = led.Frame{
	{R: 0, G: 128, B: 255},
	{R: 1, G: 2, B: 3},
	{R: 255, G: 255, B: 255},
}

func TestEncodeLineFormat(t *testing.T) {
	var buf bytes.Buffer

	if err := NewEncoder(&buf).Write(testFrame); err != nil {
		t.Fatal(err)
	}

	want := "0 128 255 1 2 3 255 255 255\n"
	if got := buf.String(); got != want {
		t.Fatalf("encoded %q, want %q", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	enc := NewEncoder(&buf)
	for i := 0; i < 3; i++ {
		if err := enc.Write(testFrame); err != nil {
			t.Fatal(err)
		}
	}

	dec := NewDecoder(&buf, len(testFrame))
	got := led.MakeFrame(len(testFrame))

	for i := 0; i < 3; i++ {
		if err := dec.Read(got); err != nil {
			t.Fatal(err)
		}

		for j := range testFrame {
			if got[j] != testFrame[j] {
				t.Fatalf("frame %d pixel %d: got %+v, want %+v", i, j, got[j], testFrame[j])
			}
		}
	}

	if err := dec.Read(got); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after the last frame, got %v", err)
	}
}

func TestDecodeRejectsMalformedLines(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"too few values", "1 2 3 4 5\n"},
		{"too many values", "1 2 3 4 5 6 7\n"},
		{"not an integer", "1 2 3 4 x 6\n"},
		{"negative", "1 2 3 4 -5 6\n"},
		{"out of range", "1 2 3 4 256 6\n"},
		{"empty line", "\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dec := NewDecoder(strings.NewReader(tc.line), 2)
			frame := led.Frame{{R: 9, G: 9, B: 9}, {R: 9, G: 9, B: 9}}

			err := dec.Read(frame)
			if !errors.Is(err, ErrMalformedFrame) {
				t.Fatalf("got %v, want ErrMalformedFrame", err)
			}

			// A rejected line must not be partially applied.
			for i, px := range frame {
				if px != (led.Pixel{R: 9, G: 9, B: 9}) {
					t.Fatalf("pixel %d modified by a rejected line: %+v", i, px)
				}
			}
		})
	}
}

func TestDecodeSkipsBadLineAndContinues(t *testing.T) {
	in := "1 2 3 4 5 6\nnot a frame\n7 8 9 10 11 12\n"
	dec := NewDecoder(strings.NewReader(in), 2)
	frame := led.MakeFrame(2)

	if err := dec.Read(frame); err != nil {
		t.Fatal(err)
	}

	if err := dec.Read(frame); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("got %v, want ErrMalformedFrame", err)
	}

	if err := dec.Read(frame); err != nil {
		t.Fatalf("stream unusable after a bad line: %v", err)
	}

	want := led.Frame{{R: 7, G: 8, B: 9}, {R: 10, G: 11, B: 12}}
	for i := range want {
		if frame[i] != want[i] {
			t.Fatalf("pixel %d is %+v, want %+v", i, frame[i], want[i])
		}
	}
}

func TestAnnounce(t *testing.T) {
	var buf bytes.Buffer

	if err := Announce(&buf); err != nil {
		t.Fatal(err)
	}

	if got := buf.String(); got != ReadyLine+"\n" {
		t.Fatalf("announced %q, want %q", got, ReadyLine+"\n")
	}
}

type closedWriter struct{}

func (closedWriter) Write([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestEncodeClosedSinkIsTransportClosed(t *testing.T) {
	err := NewEncoder(closedWriter{}).Write(testFrame)
	if !errors.Is(err, ErrTransportClosed) {
		t.Fatalf("got %v, want ErrTransportClosed", err)
	}
}

type flushRecorder struct {
	bytes.Buffer
	flushes int
}

func (f *flushRecorder) Flush() error {
	f.flushes++
	return nil
}

func TestEncodeFlushesEveryFrame(t *testing.T) {
	var rec flushRecorder
	enc := NewEncoder(&rec)

	for i := 0; i < 5; i++ {
		if err := enc.Write(testFrame); err != nil {
			t.Fatal(err)
		}
	}

	if rec.flushes != 5 {
		t.Fatalf("flushed %d times for 5 frames", rec.flushes)
	}
}
