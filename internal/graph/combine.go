package graph

import (
	"fmt"

	"go.uber.org/zap"

	"go-iq-demod/internal/buffer"
	"go-iq-demod/internal/ringbuffer"
	"go-iq-demod/internal/sample"
	"go-iq-demod/internal/stream"
)

// Combiner is the processing side of a Combine.
type Combiner[T any] interface {
	// Config is called once every input stream is configured and consistent.
	Config(cfg stream.Config) error
	// Process is called when n samples are available on every stream. The
	// combiner consumes them with Drop; anything it leaves stays buffered.
	Process(streams []*ringbuffer.RingBuffer[T], n int)
}

// Combine buffers N input streams and hands the combiner the number of
// samples simultaneously available on all of them.
type Combine[T any] struct {
	name   string
	target Combiner[T]
	log    *zap.Logger
	inputs []*combineInput[T]
	rings  []*ringbuffer.RingBuffer[T]
}

type combineInput[T any] struct {
	parent *Combine[T]
	index  int
	cfg    stream.Config
}

// NewCombine creates a combine of n inputs feeding target.
func NewCombine[T any](name string, n int, target Combiner[T], log *zap.Logger) *Combine[T] {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Combine[T]{name: name, target: target, log: log}
	for i := 0; i < n; i++ {
		c.inputs = append(c.inputs, &combineInput[T]{parent: c, index: i})
	}
	return c
}

// Sink returns input i.
func (c *Combine[T]) Sink(i int) Sink[T] {
	return c.inputs[i]
}

// Streams returns the per-input ring buffers, nil before configuration.
func (c *Combine[T]) Streams() []*ringbuffer.RingBuffer[T] {
	return c.rings
}

func (in *combineInput[T]) Config(cfg stream.Config) error {
	if !cfg.HasType() || !cfg.HasBufferSize() {
		return nil
	}
	c := in.parent
	if err := stream.CheckType(c.name, cfg, sample.TypeOf[T]()); err != nil {
		return err
	}
	in.cfg = cfg

	first := c.inputs[0].cfg
	for _, other := range c.inputs {
		if !other.cfg.HasType() {
			// Wait for the remaining inputs.
			return nil
		}
		if other.cfg.Type != first.Type || other.cfg.SampleRate != first.SampleRate {
			return fmt.Errorf("%w: can not configure %s: input %d (%s) does not match input 0 (%s)",
				stream.ErrConfig, c.name, other.index, other.cfg, first)
		}
	}

	count := first.BufferCount
	if count < 1 {
		count = 1
	}
	rings := make([]*ringbuffer.RingBuffer[T], len(c.inputs))
	for i := range rings {
		rings[i] = ringbuffer.New[T](first.BufferSize*(count+1) + 1)
	}
	if err := c.target.Config(first); err != nil {
		return err
	}
	c.rings = rings
	return nil
}

func (in *combineInput[T]) Process(b buffer.Block[T], _ bool) {
	c := in.parent
	if c.rings == nil {
		c.log.Debug("combine input not configured, dropping block",
			zap.String("node", c.name), zap.Int("input", in.index), zap.Int("samples", b.Len()))
		return
	}
	if stored := c.rings[in.index].Put(b.Samples()); stored < b.Len() {
		c.log.Warn("combine input overflow, dropping samples",
			zap.String("node", c.name), zap.Int("input", in.index), zap.Int("dropped", b.Len()-stored))
	}

	n := c.rings[0].AvailableRead()
	for _, rb := range c.rings[1:] {
		n = min(n, rb.AvailableRead())
	}
	if n > 0 {
		c.target.Process(c.rings, n)
	}
}
