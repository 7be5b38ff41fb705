// Package analysis offers floating-point helpers for inspecting streams: an
// exact polar discriminator, spectra, peak frequencies, level statistics and
// a tap sink that captures a stream for them.
package analysis

import "math/cmplx"

// Discriminator is an exact polar FM discriminator. It serves as the
// reference the fixed-point demodulator is measured against.
type Discriminator struct {
	prev complex128
}

// NewDiscriminator creates a discriminator with a zeroed history.
func NewDiscriminator() *Discriminator {
	return &Discriminator{}
}

// Process returns the phase difference in radians between each sample and
// its predecessor. The first sample of the first call is compared against
// zero, which yields 0.
func (d *Discriminator) Process(samples []complex128) []float64 {
	if len(samples) == 0 {
		return nil
	}
	out := make([]float64, len(samples))
	prev := d.prev
	for i, current := range samples {
		// The angle of current times the conjugate of prev is the phase step.
		out[i] = cmplx.Phase(current * cmplx.Conj(prev))
		prev = current
	}
	d.prev = prev
	return out
}
