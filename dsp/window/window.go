// Package window provides window functions for signal analysis.
//
// See https://wikipedia.org/wiki/Window_function
package window

import (
	"math"

	"github.com/pkg/errors"
)

// Function is applied in place to a sample buffer before analysis.
type Function func(buf []float64)

// Rectangle is just do nothing
func Rectangle(buf []float64) {
	// do nothing
}

// CosSum modifies the buffer to conform to a cosine sum window following a0
func CosSum(buf []float64, a0 float64) {
	size := len(buf)
	a1 := 1.0 - a0
	coef := 2.0 * math.Pi / float64(size)
	for n := 0; n < size; n++ {
		buf[n] *= (a0 - a1*math.Cos(coef*float64(n)))
	}
}

// Hamming modifies the buffer to a Hamming window
func Hamming(buf []float64) {
	CosSum(buf, 25.0/46.0)
}

// Hann modifies the buffer to a Hann window
func Hann(buf []float64) {
	CosSum(buf, 0.5)
}

// Bartlett modifies the buffer to a Bartlett window
func Bartlett(buf []float64) {
	size := len(buf)
	fSize := float64(size)
	for n := 0; n < size; n++ {
		buf[n] *= (1.0 - math.Abs((2.0*float64(n)-fSize)/fSize))
	}
}

// Lookup returns the named window function. The empty name means Hann, which
// every visualizer wants unless told otherwise.
func Lookup(name string) (Function, error) {
	switch name {
	case "", "hann":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "bartlett":
		return Bartlett, nil
	case "rectangle":
		return Rectangle, nil
	default:
		return nil, errors.Errorf("unknown window function %q", name)
	}
}
