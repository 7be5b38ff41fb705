package analysis

import (
	"sync"

	"go-iq-demod/internal/buffer"
	"go-iq-demod/internal/sample"
	"go-iq-demod/internal/stream"
)

// Tap is a sink that keeps a copy of the first Limit samples of a real
// stream. It never modifies or holds the blocks it receives.
type Tap[T sample.Scalar] struct {
	mu      sync.Mutex
	limit   int
	rate    float64
	samples []float64
}

// NewTap creates a tap capturing up to limit samples.
func NewTap[T sample.Scalar](limit int) *Tap[T] {
	return &Tap[T]{limit: limit}
}

func (t *Tap[T]) Config(cfg stream.Config) error {
	if !cfg.HasType() {
		return nil
	}
	if err := stream.CheckType("Tap", cfg, sample.TypeOf[T]()); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rate = cfg.SampleRate
	return nil
}

func (t *Tap[T]) Process(b buffer.Block[T], _ bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, v := range b.Samples() {
		if len(t.samples) >= t.limit {
			return
		}
		t.samples = append(t.samples, float64(v))
	}
}

// Samples returns the captured samples.
func (t *Tap[T]) Samples() []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]float64(nil), t.samples...)
}

// SampleRate returns the rate of the configured stream.
func (t *Tap[T]) SampleRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rate
}

// IQTap is the complex counterpart of Tap.
type IQTap[T sample.Scalar] struct {
	mu      sync.Mutex
	limit   int
	rate    float64
	samples []complex128
}

// NewIQTap creates a tap capturing up to limit IQ samples.
func NewIQTap[T sample.Scalar](limit int) *IQTap[T] {
	return &IQTap[T]{limit: limit}
}

func (t *IQTap[T]) Config(cfg stream.Config) error {
	if !cfg.HasType() {
		return nil
	}
	if err := stream.CheckType("IQTap", cfg, sample.TypeOf[sample.IQ[T]]()); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rate = cfg.SampleRate
	return nil
}

func (t *IQTap[T]) Process(b buffer.Block[sample.IQ[T]], _ bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, v := range b.Samples() {
		if len(t.samples) >= t.limit {
			return
		}
		t.samples = append(t.samples, complex(float64(v.I), float64(v.Q)))
	}
}

// Samples returns the captured samples.
func (t *IQTap[T]) Samples() []complex128 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]complex128(nil), t.samples...)
}

// SampleRate returns the rate of the configured stream.
func (t *IQTap[T]) SampleRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rate
}
