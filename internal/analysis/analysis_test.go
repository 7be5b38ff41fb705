package analysis

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-iq-demod/internal/buffer"
	"go-iq-demod/internal/sample"
	"go-iq-demod/internal/stream"
)

func exponential(n, bin int) []complex128 {
	x := make([]complex128, n)
	for i := range x {
		x[i] = cmplx.Exp(complex(0, 2*math.Pi*float64(bin*i)/float64(n)))
	}
	return x
}

func TestMagnitudeSpectrum(t *testing.T) {
	mags := MagnitudeSpectrum(exponential(64, 5))
	require.Len(t, mags, 64)
	for k, m := range mags {
		want := 0.0
		if k == 5 {
			want = 64
		}
		assert.InDelta(t, want, m, 1e-9, "bin %d", k)
	}
	assert.Nil(t, MagnitudeSpectrum(nil))
}

func TestDominantFrequency(t *testing.T) {
	assert.InDelta(t, 500.0, DominantFrequency(exponential(64, 5), 6400), 1e-9)
	assert.InDelta(t, -500.0, DominantFrequency(exponential(64, -5), 6400), 1e-9)
	assert.Zero(t, DominantFrequency(nil, 6400))
}

func TestPeakFrequency_IgnoresDC(t *testing.T) {
	x := make([]float64, 128)
	for i := range x {
		x[i] = 10 + math.Cos(2*math.Pi*8*float64(i)/128)
	}
	assert.InDelta(t, 800.0, PeakFrequency(x, 12800), 1e-9)
	assert.Zero(t, PeakFrequency([]float64{1}, 12800))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, 4})
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.StdDev, 1e-12)
	assert.InDelta(t, math.Sqrt(7.5), s.RMS, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)

	assert.Equal(t, Summary{}, Summarize(nil))
	one := Summarize([]float64{-3})
	assert.Equal(t, -3.0, one.Mean)
	assert.Equal(t, 3.0, one.RMS)
}

func TestTap_CapturesUpToLimit(t *testing.T) {
	tap := NewTap[int16](3)
	require.NoError(t, tap.Config(stream.New(sample.S16, 48000, 2, 1)))

	b := buffer.New[int16](2)
	copy(b.Samples(), []int16{-1, 2})
	tap.Process(b, true)
	tap.Process(b, true)

	assert.Equal(t, []float64{-1, 2, -1}, tap.Samples())
	assert.Equal(t, 48000.0, tap.SampleRate())
	assert.True(t, b.IsUnused(), "the tap must not keep a reference")
	assert.Equal(t, []int16{-1, 2}, b.Samples())
}

func TestTap_RejectsType(t *testing.T) {
	assert.ErrorIs(t, NewTap[uint8](4).Config(stream.New(sample.S16, 1, 1, 1)), stream.ErrConfig)
	assert.ErrorIs(t, NewIQTap[int16](4).Config(stream.New(sample.CS8, 1, 1, 1)), stream.ErrConfig)
}

func TestIQTap(t *testing.T) {
	tap := NewIQTap[int16](8)
	require.NoError(t, tap.Config(stream.New(sample.CS16, 2e6, 2, 1)))

	b := buffer.New[sample.IQ[int16]](2)
	copy(b.Samples(), []sample.IQ[int16]{{I: 1, Q: -2}, {I: 3, Q: 4}})
	tap.Process(b, false)

	assert.Equal(t, []complex128{complex(1, -2), complex(3, 4)}, tap.Samples())
	assert.Equal(t, 2e6, tap.SampleRate())
}
