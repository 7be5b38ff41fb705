package ringbuffer

import "sync"

// RingBuffer is a concurrent-safe ring buffer of samples.
//
// Write and Read block and are meant for a producer goroutine feeding a
// consumer goroutine. Put, At and Drop never block; they serve a single
// consumer that inspects what is buffered before consuming it.
type RingBuffer[T any] struct {
	buf        []T
	size       int
	readIndex  int
	writeIndex int
	closed     bool
	mu         sync.Mutex
	cond       *sync.Cond
}

// New creates a new RingBuffer able to hold size-1 samples.
func New[T any](size int) *RingBuffer[T] {
	if size < 2 {
		size = 2
	}
	rb := &RingBuffer[T]{
		buf:  make([]T, size),
		size: size,
	}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// Capacity returns the maximum number of buffered samples.
func (rb *RingBuffer[T]) Capacity() int {
	return rb.size - 1
}

func (rb *RingBuffer[T]) availableWrite() int {
	if rb.writeIndex >= rb.readIndex {
		return rb.size - (rb.writeIndex - rb.readIndex) - 1
	}
	return rb.readIndex - rb.writeIndex - 1
}

func (rb *RingBuffer[T]) availableRead() int {
	if rb.writeIndex >= rb.readIndex {
		return rb.writeIndex - rb.readIndex
	}
	return rb.size - rb.readIndex + rb.writeIndex
}

// AvailableWrite returns the number of samples that can be written without blocking.
func (rb *RingBuffer[T]) AvailableWrite() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.availableWrite()
}

// AvailableRead returns the number of samples available for reading.
func (rb *RingBuffer[T]) AvailableRead() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.availableRead()
}

// Close marks the buffer as closed, indicating no more writes will occur.
// It broadcasts to all waiting readers to wake them up.
func (rb *RingBuffer[T]) Close() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.closed = true
	rb.cond.Broadcast()
}

// copyIn copies as much of data as fits and returns the number of samples
// written. Must be called with mu held.
func (rb *RingBuffer[T]) copyIn(data []T) int {
	written := 0
	for written < len(data) && rb.availableWrite() > 0 {
		var n int
		if rb.writeIndex >= rb.readIndex {
			end := rb.size
			if rb.readIndex == 0 {
				// Keep one slot free so a full buffer is distinguishable from an empty one.
				end = rb.size - 1
			}
			n = copy(rb.buf[rb.writeIndex:end], data[written:])
		} else {
			n = copy(rb.buf[rb.writeIndex:rb.readIndex-1], data[written:])
		}
		rb.writeIndex = (rb.writeIndex + n) % rb.size
		written += n
	}
	return written
}

// Write adds data to the buffer, blocking until space is available.
func (rb *RingBuffer[T]) Write(data []T) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.closed {
		// A write after Close is a programming error.
		panic("write to closed ring buffer")
	}

	for i := 0; i < len(data); {
		for rb.availableWrite() == 0 {
			rb.cond.Wait()
		}
		i += rb.copyIn(data[i:])
		rb.cond.Broadcast()
	}
}

// Put adds as much of data as fits without blocking and returns the number
// of samples stored.
func (rb *RingBuffer[T]) Put(data []T) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	n := rb.copyIn(data)
	if n > 0 {
		rb.cond.Broadcast()
	}
	return n
}

// Read retrieves n samples from the buffer, blocking until they are available.
// If the buffer is closed and no more data is available, it returns nil.
func (rb *RingBuffer[T]) Read(n int) []T {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	// Once closed, the reader proceeds with whatever is left.
	for !rb.closed && rb.availableRead() < n {
		rb.cond.Wait()
	}

	readSize := n
	if rb.availableRead() < readSize {
		readSize = rb.availableRead()
	}
	if readSize == 0 {
		return nil
	}

	data := make([]T, readSize)
	if rb.readIndex+readSize <= rb.size {
		copy(data, rb.buf[rb.readIndex:rb.readIndex+readSize])
	} else {
		part1 := rb.size - rb.readIndex
		copy(data, rb.buf[rb.readIndex:])
		copy(data[part1:], rb.buf[0:readSize-part1])
	}
	rb.readIndex = (rb.readIndex + readSize) % rb.size
	rb.cond.Broadcast()
	return data
}

// At returns the i-th buffered sample without consuming it.
// It panics if i is not below AvailableRead.
func (rb *RingBuffer[T]) At(i int) T {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if i < 0 || i >= rb.availableRead() {
		panic("ring buffer index out of range")
	}
	return rb.buf[(rb.readIndex+i)%rb.size]
}

// Drop discards up to n of the oldest samples and returns how many were discarded.
func (rb *RingBuffer[T]) Drop(n int) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if avail := rb.availableRead(); n > avail {
		n = avail
	}
	if n <= 0 {
		return 0
	}
	rb.readIndex = (rb.readIndex + n) % rb.size
	rb.cond.Broadcast()
	return n
}

// Reset discards all buffered samples.
func (rb *RingBuffer[T]) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.readIndex, rb.writeIndex = 0, 0
	rb.cond.Broadcast()
}
