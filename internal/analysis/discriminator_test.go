package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateTestSignal creates a complex signal with a constant phase rotation.
func generateTestSignal(numSamples int, phaseIncrement float64) []complex128 {
	samples := make([]complex128, numSamples)
	for i := range samples {
		phase := float64(i+1) * phaseIncrement
		samples[i] = complex(math.Cos(phase), math.Sin(phase))
	}
	return samples
}

func TestDiscriminator_ConstantFrequency(t *testing.T) {
	const phaseIncrement = math.Pi / 16
	output := NewDiscriminator().Process(generateTestSignal(128, phaseIncrement))

	require.Len(t, output, 128)
	assert.Zero(t, output[0], "the first sample is compared against the zero state")
	for i := 1; i < len(output); i++ {
		assert.InDelta(t, phaseIncrement, output[i], 1e-9, "sample %d", i)
	}
}

func TestDiscriminator_PhaseWrapAround(t *testing.T) {
	// A jump from +0.75π to -0.75π is reported as +0.5π.
	samples := []complex128{
		complex(1, 0),
		complex(math.Cos(0.75*math.Pi), math.Sin(0.75*math.Pi)),
		complex(math.Cos(-0.75*math.Pi), math.Sin(-0.75*math.Pi)),
	}
	output := NewDiscriminator().Process(samples)

	require.Len(t, output, 3)
	assert.InDelta(t, 0.75*math.Pi, output[1], 1e-9)
	assert.InDelta(t, 0.5*math.Pi, output[2], 1e-9)
}

func TestDiscriminator_Statefulness(t *testing.T) {
	const numSamples = 256
	const chunkSize = 64
	full := generateTestSignal(numSamples, -math.Pi/8)

	reference := NewDiscriminator().Process(full)

	chunked := NewDiscriminator()
	var got []float64
	for i := 0; i < numSamples; i += chunkSize {
		got = append(got, chunked.Process(full[i:i+chunkSize])...)
	}

	assert.InDeltaSlice(t, reference, got, 1e-12)
}

func TestDiscriminator_Empty(t *testing.T) {
	assert.Nil(t, NewDiscriminator().Process(nil))
}
