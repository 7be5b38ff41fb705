package demod

import (
	"math"
	"sync"

	"go-iq-demod/internal/buffer"
	"go-iq-demod/internal/sample"
	"go-iq-demod/internal/stream"
)

// collector records every block it receives. With hold set it keeps the last
// block referenced until release is called, like a slow consumer.
type collector[T any] struct {
	configs    []stream.Config
	blocks     [][]T
	overwrites []bool
	hold       bool
	held       []buffer.Block[T]
}

func (c *collector[T]) Config(cfg stream.Config) error {
	c.configs = append(c.configs, cfg)
	return nil
}

func (c *collector[T]) Process(b buffer.Block[T], allowOverwrite bool) {
	c.blocks = append(c.blocks, append([]T(nil), b.Samples()...))
	c.overwrites = append(c.overwrites, allowOverwrite)
	if c.hold {
		b.Ref()
		c.held = append(c.held, b)
	}
}

func (c *collector[T]) release() {
	for _, b := range c.held {
		b.Unref()
	}
	c.held = nil
}

func (c *collector[T]) all() []T {
	var out []T
	for _, b := range c.blocks {
		out = append(out, b...)
	}
	return out
}

type countingRecorder struct {
	mu        sync.Mutex
	processed map[string]int
	dropped   map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{processed: map[string]int{}, dropped: map[string]int{}}
}

func (r *countingRecorder) Processed(node string, samples int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed[node] += samples
}

func (r *countingRecorder) Dropped(node string, samples int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped[node] += samples
}

// block copies samples into a freshly allocated block.
func block[T any](samples []T) buffer.Block[T] {
	b := buffer.New[T](len(samples))
	copy(b.Samples(), samples)
	return b
}

// tone generates a complex exponential with a constant phase increment per
// sample. The first sample has phase dtheta.
func tone(n int, amplitude, dtheta float64) []sample.IQ[int16] {
	out := make([]sample.IQ[int16], n)
	for i := range out {
		phase := float64(i+1) * dtheta
		out[i] = sample.IQ[int16]{
			I: int16(math.Round(amplitude * math.Cos(phase))),
			Q: int16(math.Round(amplitude * math.Sin(phase))),
		}
	}
	return out
}
