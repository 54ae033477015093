// Package dsp provides low-level real-time-safe DSP primitives: a biquad
// IIR filter, allocation-free in its per-sample Process path, used by the
// formant estimator's anti-aliasing cascade ahead of LPC resampling.
package dsp

import "math"

// Biquad implements a second-order IIR filter (Direct Form I), no heap
// allocations in Process.
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64

	x1, x2 float64
	y1, y2 float64
}

// NewBiquad creates a biquad filter with the given coefficients.
func NewBiquad(b0, b1, b2, a1, a2 float64) *Biquad {
	return &Biquad{b0: b0, b1: b1, b2: b2, a1: a1, a2: a2}
}

// Process runs one sample through the filter.
func (b *Biquad) Process(input float64) float64 {
	output := b.b0*input + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2
	b.x2 = b.x1
	b.x1 = input
	b.y2 = b.y1
	b.y1 = output
	return output
}

// Reset clears the filter state.
func (b *Biquad) Reset() {
	b.x1, b.x2 = 0, 0
	b.y1, b.y2 = 0, 0
}

// NewLowpass creates a Robert Bristow-Johnson cookbook lowpass biquad.
func NewLowpass(cutoff, sampleRate, q float64) *Biquad {
	w0 := 2.0 * math.Pi * cutoff / sampleRate
	alpha := math.Sin(w0) / (2.0 * q)
	cosw0 := math.Cos(w0)

	b0 := (1.0 - cosw0) / 2.0
	b1 := 1.0 - cosw0
	b2 := (1.0 - cosw0) / 2.0
	a0 := 1.0 + alpha
	a1 := -2.0 * cosw0
	a2 := 1.0 - alpha

	return NewBiquad(b0/a0, b1/a0, b2/a0, a1/a0, a2/a0)
}
