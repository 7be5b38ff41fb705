// Package buffer provides the reference-counted sample block shared between
// a producing node and its consumers.
//
// A Block is a typed view over a storage arena. Several views (prefixes via
// Head, reinterpretations via As) may share one arena; they all share one
// holder count. The creator of a block is its first holder, and a consumer
// that keeps a block beyond the Process call that delivered it must Ref it
// and Unref it once done. A producer may reuse a block only while IsUnused
// reports true.
//
// Element types must be fixed-size values without pointers.
package buffer

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"
)

// ErrFootprint is returned by As when the target element does not fit into
// the footprint of the source element.
var ErrFootprint = errors.New("buffer: element footprint too small")

type storage struct {
	// uint64 words keep every view 8-byte aligned.
	words []uint64
	refs  atomic.Int32
}

// Block is a typed view over reference-counted storage.
type Block[T any] struct {
	st   *storage
	data []T
}

// New allocates a zeroed block of n elements held once by the caller.
func New[T any](n int) Block[T] {
	if n < 0 {
		n = 0
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	st := &storage{words: make([]uint64, (n*size+7)/8)}
	st.refs.Store(1)
	b := Block[T]{st: st}
	if n > 0 && size > 0 {
		b.data = unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(st.words))), n)
	}
	return b
}

// Len returns the number of elements in the view.
func (b Block[T]) Len() int {
	return len(b.data)
}

// Samples returns the elements of the view. Writes are visible to every view
// sharing the storage.
func (b Block[T]) Samples() []T {
	return b.data
}

// IsEmpty reports whether the block has no storage.
func (b Block[T]) IsEmpty() bool {
	return b.st == nil
}

// Head returns a view of the first n elements. n is clamped to Len.
func (b Block[T]) Head(n int) Block[T] {
	if n < 0 {
		n = 0
	}
	if n > len(b.data) {
		n = len(b.data)
	}
	return Block[T]{st: b.st, data: b.data[:n]}
}

// Ref registers an additional holder.
func (b Block[T]) Ref() {
	if b.st != nil {
		b.st.refs.Add(1)
	}
}

// Unref releases one holder. Releasing an empty block is a no-op.
func (b Block[T]) Unref() {
	if b.st == nil {
		return
	}
	if b.st.refs.Add(-1) < 0 {
		panic("buffer: unref of released block")
	}
}

// Refs returns the number of current holders.
func (b Block[T]) Refs() int {
	if b.st == nil {
		return 0
	}
	return int(b.st.refs.Load())
}

// IsUnused reports whether the caller is the only holder of the storage.
// Empty blocks are never unused.
func (b Block[T]) IsUnused() bool {
	return b.st != nil && b.st.refs.Load() == 1
}

// As reinterprets b as a view of U elements over the same storage and with
// the same element count. Element i of the result overlaps at most element i
// of b, so a loop that reads in[i] before writing out[i] is safe in place.
func As[U, T any](b Block[T]) (Block[U], error) {
	var (
		u U
		t T
	)
	uSize, tSize := unsafe.Sizeof(u), unsafe.Sizeof(t)
	if uSize > tSize {
		return Block[U]{}, fmt.Errorf("%w: %d byte element over %d byte element", ErrFootprint, uSize, tSize)
	}
	out := Block[U]{st: b.st}
	if len(b.data) > 0 && uSize > 0 {
		out.data = unsafe.Slice((*U)(unsafe.Pointer(unsafe.SliceData(b.data))), len(b.data))
	}
	return out, nil
}
