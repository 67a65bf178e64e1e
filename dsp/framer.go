package dsp

import (
	"github.com/BurningKarl/LightOrgan/dsp/window"
)

// Framer keeps a rolling buffer of the most recent samples and produces
// fixed-size windowed analysis frames from it. Because the buffer rolls,
// consecutive frames overlap by frameSize-blockSize samples, which keeps the
// time to the first full frame down without a bigger transform.
type Framer struct {
	ring     []float64
	head     int
	total    uint64
	windower window.Function
}

// NewFramer creates a framer producing frames of frameSize samples.
func NewFramer(frameSize int, windower window.Function) *Framer {
	return &Framer{
		ring:     make([]float64, frameSize),
		windower: windower,
	}
}

// Push appends samples to the rolling buffer, discarding the oldest ones.
func (f *Framer) Push(samples []float64) {
	if len(samples) > len(f.ring) {
		samples = samples[len(samples)-len(f.ring):]
	}

	for _, s := range samples {
		f.ring[f.head] = s
		f.head = (f.head + 1) % len(f.ring)
	}

	f.total += uint64(len(samples))
}

// Ready reports whether a full frame has accumulated.
func (f *Framer) Ready() bool {
	return f.total >= uint64(len(f.ring))
}

// Frame copies the current frame, oldest sample first, into dst and applies
// the window function. dst must have the frame size. The rolling buffer is
// left untouched, so the same buffer state always yields the same frame.
func (f *Framer) Frame(dst []float64) {
	n := copy(dst, f.ring[f.head:])
	copy(dst[n:], f.ring[:f.head])

	if f.windower != nil {
		f.windower(dst)
	}
}
