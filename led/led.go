// Package led maps per-band intensities onto per-LED colors.
package led

import (
	"math"

	"github.com/pkg/errors"
)

// Pixel is one LED's color. Channels are already clamped to [0, 255].
type Pixel struct {
	R, G, B uint8
}

// Frame is an ordered sequence of pixels, one per physical LED.
type Frame []Pixel

// MakeFrame returns an all-off frame for count LEDs.
func MakeFrame(count int) Frame {
	return make(Frame, count)
}

// Clear turns every pixel off.
func (f Frame) Clear() {
	for i := range f {
		f[i] = Pixel{}
	}
}

// Mapper converts one intensity vector into a pixel frame. Implementations
// must be deterministic: the same bands always yield the same frame.
type Mapper interface {
	// Map fills frame from bands. Intensities are in [0, dsp.MaxIntensity];
	// frame keeps the length it was created with.
	Map(bands []float64, frame Frame)
}

// NewMapper returns the named built-in mapper for a fixed LED and band count.
func NewMapper(name string, ledCount, bandCount int) (Mapper, error) {
	switch name {
	case "", "rainbow":
		return newRainbow(ledCount, bandCount), nil
	case "bands":
		return newBandGroups(ledCount, bandCount), nil
	case "mono":
		return newMono(), nil
	default:
		return nil, errors.Errorf("unknown visualizer %q", name)
	}
}

// MapperNames lists the built-in mappers for help output.
func MapperNames() []string {
	return []string{"rainbow", "bands", "mono"}
}

// bandForLED distributes bands across LEDs: with more LEDs than bands each
// band repeats over a run of LEDs, with more bands than LEDs the assignment
// skips through the bands evenly.
func bandForLED(led, ledCount, bandCount int) int {
	return led * bandCount / ledCount
}

// ledIntensity returns the intensity that drives one LED: the band's own
// value, or the mean of the band group when several bands share the LED.
func ledIntensity(bands []float64, led, ledCount int) float64 {
	lo := bandForLED(led, ledCount, len(bands))
	hi := bandForLED(led+1, ledCount, len(bands))
	if hi <= lo {
		hi = lo + 1
	}

	sum := 0.0
	for _, v := range bands[lo:hi] {
		sum += v
	}
	return sum / float64(hi-lo)
}

// clampChannel converts a [0, 1] channel value to its wire range.
func clampChannel(v float64) uint8 {
	v = math.Round(v * 255.0)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// hsvToRGB converts hue/saturation/value, each in [0, 1], to channel values
// in [0, 1].
func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	h = h - math.Floor(h)

	i := int(h * 6.0)
	f := h*6.0 - float64(i)
	p := v * (1.0 - s)
	q := v * (1.0 - f*s)
	t := v * (1.0 - (1.0-f)*s)

	switch i % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}
