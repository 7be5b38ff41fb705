package analysis

import (
	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/dsp/fourier"
)

// MagnitudeSpectrum returns |X[k]| of the complex FFT of x in FFT bin order.
func MagnitudeSpectrum(x []complex128) []float64 {
	if len(x) == 0 {
		return nil
	}
	coeffs := fourier.NewCmplxFFT(len(x)).Coefficients(nil, x)
	return magnitude(coeffs)
}

// DominantFrequency returns the frequency in Hz of the strongest bin of the
// complex spectrum of x. Bins above Nyquist map to negative frequencies.
func DominantFrequency(x []complex128, sampleRate float64) float64 {
	if len(x) == 0 {
		return 0
	}
	fft := fourier.NewCmplxFFT(len(x))
	mags := magnitude(fft.Coefficients(nil, x))
	return fft.Freq(peak(mags)) * sampleRate
}

// PeakFrequency returns the frequency in Hz of the strongest non-DC bin of
// the spectrum of the real signal x.
func PeakFrequency(x []float64, sampleRate float64) float64 {
	if len(x) < 2 {
		return 0
	}
	fft := fourier.NewFFT(len(x))
	mags := magnitude(fft.Coefficients(nil, x))
	return fft.Freq(1+peak(mags[1:])) * sampleRate
}

func magnitude(coeffs []complex128) []float64 {
	re := make([]float64, len(coeffs))
	im := make([]float64, len(coeffs))
	for i, c := range coeffs {
		re[i], im[i] = real(c), imag(c)
	}
	out := make([]float64, len(coeffs))
	vecmath.Magnitude(out, re, im)
	return out
}

func peak(x []float64) int {
	best := 0
	for i, v := range x {
		if v > x[best] {
			best = i
		}
	}
	return best
}
