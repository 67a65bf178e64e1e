// Package fft provides a reusable plan around gonum's real fourier transform.
package fft

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// Plan holds the buffers and gonum state for repeated transforms of one
// input buffer.
type Plan struct {
	input  []float64
	output []complex128
	fft    *fourier.FFT
}

// InitPlan initializes a plan in place. The output buffer must hold
// len(input)/2+1 coefficients.
func InitPlan(pointer **Plan, input []float64, output []complex128) {
	(*pointer) = &Plan{
		input:  input,
		output: output,
		fft:    fourier.NewFFT(len(input)),
	}
}

// Execute computes the coefficients of the current input buffer contents.
func (p *Plan) Execute() {
	p.fft.Coefficients(p.output, p.input)
}
