package demod

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-iq-demod/internal/sample"
	"go-iq-demod/internal/stream"
)

func configuredBPSK(t *testing.T, size int, rec *countingRecorder) (*BPSKDemod[int16], *collector[uint8]) {
	t.Helper()
	d := NewBPSKDemod[int16](WithRecorder(rec))
	out := &collector[uint8]{}
	require.NoError(t, d.Connect(out))
	cfg := stream.New(sample.CS16, 48000, size, 1)
	require.NoError(t, d.Signal().Config(cfg))
	require.Empty(t, out.configs, "output is configured once both inputs are")
	require.NoError(t, d.Reference().Config(cfg))
	return d, out
}

func feed(d *BPSKDemod[int16], signal, reference []sample.IQ[int16]) {
	d.Signal().Process(block(signal), false)
	d.Reference().Process(block(reference), false)
}

// keyed returns a rotating carrier and the same carrier with the sign of
// every sample flipped where symbols is negative.
func keyed(symbols []int) (signal, reference []sample.IQ[int16]) {
	reference = tone(len(symbols), 9000, 0.37)
	signal = make([]sample.IQ[int16], len(symbols))
	for i, s := range symbols {
		signal[i] = reference[i]
		if s < 0 {
			signal[i] = sample.IQ[int16]{I: -reference[i].I, Q: -reference[i].Q}
		}
	}
	return signal, reference
}

func expectedBits(symbols []int) []uint8 {
	bits := make([]uint8, len(symbols))
	for i := 1; i < len(symbols); i++ {
		if symbols[i] != symbols[i-1] {
			bits[i] = 1
		}
	}
	return bits
}

func TestBPSKDemod_OutputConfig(t *testing.T) {
	d, out := configuredBPSK(t, 32, newCountingRecorder())
	require.Len(t, out.configs, 1)
	assert.Equal(t, stream.New(sample.U8, 48000, 32, 1), out.configs[0])
	assert.Equal(t, out.configs[0], d.OutputConfig())
}

func TestBPSKDemod_InPhaseIsZero(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	in := make([]sample.IQ[int16], 32)
	for i := range in {
		in[i] = sample.IQ[int16]{I: int16(rng.Intn(20000) + 100), Q: int16(rng.Intn(20000) - 10000)}
	}

	d, out := configuredBPSK(t, 32, newCountingRecorder())
	feed(d, in, in)

	require.Len(t, out.blocks, 1)
	assert.Equal(t, make([]uint8, 32), out.blocks[0])
}

func TestBPSKDemod_AlternatingSign(t *testing.T) {
	symbols := make([]int, 16)
	for i := range symbols {
		symbols[i] = 1 - 2*(i%2)
	}
	signal, reference := keyed(symbols)

	d, out := configuredBPSK(t, 16, newCountingRecorder())
	feed(d, signal, reference)

	require.Len(t, out.blocks, 1)
	want := []uint8{0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	assert.Equal(t, want, out.blocks[0])
}

func TestBPSKDemod_SteadyOffsetIsZero(t *testing.T) {
	// A constant half-turn offset is not a phase change.
	symbols := make([]int, 8)
	for i := range symbols {
		symbols[i] = -1
	}
	signal, reference := keyed(symbols)

	d, out := configuredBPSK(t, 8, newCountingRecorder())
	feed(d, signal, reference)

	require.Len(t, out.blocks, 1)
	assert.Equal(t, make([]uint8, 8), out.blocks[0])
}

func TestBPSKDemod_DifferentialAcrossCalls(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	symbols := make([]int, 64)
	for i := range symbols {
		symbols[i] = 1 - 2*rng.Intn(2)
	}
	signal, reference := keyed(symbols)

	d, out := configuredBPSK(t, 16, newCountingRecorder())
	for i := 0; i < len(symbols); i += 16 {
		feed(d, signal[i:i+16], reference[i:i+16])
	}

	assert.Len(t, out.blocks, 4)
	assert.Equal(t, expectedBits(symbols), out.all())
}

func TestBPSKDemod_WaitsForBothStreams(t *testing.T) {
	symbols := []int{1, -1, -1, 1, 1, 1}
	signal, reference := keyed(symbols)

	d, out := configuredBPSK(t, 8, newCountingRecorder())
	d.Signal().Process(block(signal), false)
	assert.Empty(t, out.blocks)

	d.Reference().Process(block(reference[:2]), false)
	d.Reference().Process(block(reference[2:]), false)

	assert.Equal(t, expectedBits(symbols), out.all())
	for _, s := range d.combine.Streams() {
		assert.Zero(t, s.AvailableRead())
	}
}

func TestBPSKDemod_DropsInLockStep(t *testing.T) {
	rec := newCountingRecorder()
	d, out := configuredBPSK(t, 8, rec)
	out.hold = true

	signal, reference := keyed([]int{1, 1, -1, 1, -1, -1, 1, 1, -1, 1})
	feed(d, signal[:8], reference[:8])
	require.Len(t, out.blocks, 1)

	d.Signal().Process(block(signal), false)
	d.Reference().Process(block(reference[:6]), false)

	streams := d.combine.Streams()
	assert.Equal(t, 4, streams[0].AvailableRead())
	assert.Equal(t, 0, streams[1].AvailableRead())
	assert.Equal(t, 6, rec.dropped["BPSKDemod"])
	assert.Len(t, out.blocks, 1)
}

func TestBPSKDemod_ClampsToOutputSize(t *testing.T) {
	d, out := configuredBPSK(t, 4, newCountingRecorder())
	signal, reference := keyed([]int{1, -1, 1, 1, -1, -1, -1, 1})

	feed(d, signal, reference)
	require.Len(t, out.blocks, 1)
	assert.Equal(t, []uint8{0, 1, 1, 0}, out.blocks[0])
	for _, s := range d.combine.Streams() {
		assert.Equal(t, 4, s.AvailableRead())
	}

	// Any further delivery flushes the rest.
	d.Signal().Process(block([]sample.IQ[int16]{}), false)
	require.Len(t, out.blocks, 2)
	assert.Equal(t, []uint8{1, 0, 0, 1}, out.blocks[1])
}

func TestBPSKDemod_RejectsMismatchedInputs(t *testing.T) {
	d := NewBPSKDemod[int16]()
	err := d.Signal().Config(stream.New(sample.CS8, 48000, 8, 1))
	assert.ErrorIs(t, err, stream.ErrConfig)

	require.NoError(t, d.Signal().Config(stream.New(sample.CS16, 48000, 8, 1)))
	err = d.Reference().Config(stream.New(sample.CS16, 96000, 8, 1))
	assert.ErrorIs(t, err, stream.ErrConfig)
	assert.Nil(t, d.combine.Streams())
	assert.False(t, d.OutputConfig().HasType())
}

func TestBPSKDemod_QuarterTurnBoundary(t *testing.T) {
	// Phase steps just below and above a quarter turn relative to the carrier.
	reference := make([]sample.IQ[int16], 3)
	for i := range reference {
		reference[i] = sample.IQ[int16]{I: 10000}
	}
	rot := func(theta float64) sample.IQ[int16] {
		return sample.IQ[int16]{I: int16(math.Round(10000 * math.Cos(theta))), Q: int16(math.Round(10000 * math.Sin(theta)))}
	}
	signal := []sample.IQ[int16]{rot(0), rot(0.45 * math.Pi), rot(1.0 * math.Pi)}

	d, out := configuredBPSK(t, 3, newCountingRecorder())
	feed(d, signal, reference)
	assert.Equal(t, []uint8{0, 0, 1}, out.all())
}
