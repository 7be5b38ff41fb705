package buffer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-iq-demod/internal/sample"
)

func TestNewZeroFilled(t *testing.T) {
	b := New[int16](8)
	require.Equal(t, 8, b.Len())
	for i, v := range b.Samples() {
		if v != 0 {
			t.Fatalf("Samples()[%d] = %v, want 0", i, v)
		}
	}
	assert.True(t, b.IsUnused())
	assert.False(t, b.IsEmpty())
}

func TestNewNegativeLength(t *testing.T) {
	b := New[float32](-1)
	assert.Equal(t, 0, b.Len())
	assert.True(t, b.IsUnused())
}

func TestZeroValueIsEmpty(t *testing.T) {
	var b Block[int16]
	assert.True(t, b.IsEmpty())
	assert.False(t, b.IsUnused())
	assert.Equal(t, 0, b.Refs())
	b.Ref()
	b.Unref()
}

func TestRefCounting(t *testing.T) {
	b := New[uint8](4)
	head := b.Head(2)

	head.Ref()
	assert.Equal(t, 2, b.Refs())
	assert.False(t, b.IsUnused(), "a held prefix view keeps the storage in use")

	head.Unref()
	assert.True(t, b.IsUnused())
}

func TestUnrefBelowZeroPanics(t *testing.T) {
	b := New[uint8](1)
	b.Unref()
	assert.Panics(t, func() { b.Unref() })
}

func TestHeadSharesStorage(t *testing.T) {
	b := New[int16](4)
	h := b.Head(2)
	h.Samples()[1] = 42
	assert.Equal(t, int16(42), b.Samples()[1])
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 4, b.Head(100).Len())
	assert.Equal(t, 0, b.Head(-1).Len())
}

func TestAsSharesStorageAndCount(t *testing.T) {
	in := New[sample.IQ[int16]](3)
	out, err := As[int16](in)
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())

	out.Ref()
	assert.Equal(t, 2, in.Refs(), "views created with As share one holder count")
	out.Unref()

	// Element i of the narrow view lies inside element i of the wide view.
	in.Samples()[1] = sample.IQ[int16]{I: 7, Q: 9}
	out.Samples()[0] = 5
	assert.Equal(t, int16(7), in.Samples()[1].I)
	assert.Equal(t, int16(5), in.Samples()[0].I)
}

func TestAsRejectsLargerElements(t *testing.T) {
	in := New[sample.IQ[int8]](4)
	_, err := As[int32](in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFootprint))
}

func TestAsInPlaceForwardLoop(t *testing.T) {
	in := New[sample.IQ[int16]](16)
	src := in.Samples()
	for i := range src {
		src[i] = sample.IQ[int16]{I: int16(i), Q: int16(2 * i)}
	}
	out, err := As[int16](in)
	require.NoError(t, err)

	dst := out.Samples()
	for i := range dst {
		x := src[i]
		dst[i] = x.I + x.Q
	}
	for i, v := range dst {
		assert.Equal(t, int16(3*i), v, "index %d", i)
	}
}
