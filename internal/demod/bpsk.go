package demod

import (
	"math"

	"go.uber.org/zap"

	"go-iq-demod/internal/graph"
	"go-iq-demod/internal/ringbuffer"
	"go-iq-demod/internal/sample"
	"go-iq-demod/internal/stream"
)

// BPSKDemod demodulates binary phase shift keying against a reference
// carrier. Each signal/reference pair yields one bit: 1 if the phase of the
// signal relative to the carrier turned by more than a quarter turn since
// the previous pair, 0 otherwise.
type BPSKDemod[T sample.Scalar] struct {
	node[uint8]
	combine *graph.Combine[sample.IQ[T]]
	prev    complex128
}

// NewBPSKDemod creates a BPSK demodulator for IQ[T] signal and reference streams.
func NewBPSKDemod[T sample.Scalar](opts ...Option) *BPSKDemod[T] {
	d := &BPSKDemod[T]{node: newNode[uint8]("BPSKDemod", applyOptions(opts))}
	d.combine = graph.NewCombine[sample.IQ[T]](d.name, 2, d, d.log)
	return d
}

// Signal returns the sink for the modulated signal.
func (d *BPSKDemod[T]) Signal() graph.Sink[sample.IQ[T]] {
	return d.combine.Sink(0)
}

// Reference returns the sink for the reference carrier.
func (d *BPSKDemod[T]) Reference() graph.Sink[sample.IQ[T]] {
	return d.combine.Sink(1)
}

// Config configures the demodulator once both inputs agree on cfg. It
// clears the correlation history.
func (d *BPSKDemod[T]) Config(cfg stream.Config) error {
	ok, err := d.accept(cfg, sample.TypeOf[sample.IQ[T]]())
	if !ok {
		return err
	}
	d.realloc(cfg.BufferSize)
	d.prev = 0

	d.log.Debug("configured",
		zap.Stringer("input_type", cfg.Type),
		zap.Float64("sample_rate", cfg.SampleRate),
		zap.Int("buffer_size", cfg.BufferSize))

	return d.SetConfig(stream.New(sample.U8, cfg.SampleRate, d.buf.Len(), 1))
}

// Process consumes n signal/reference pairs. Both streams always advance by
// the same count, also when the input is dropped.
func (d *BPSKDemod[T]) Process(streams []*ringbuffer.RingBuffer[sample.IQ[T]], n int) {
	if n < 1 {
		return
	}
	if !d.buf.IsUnused() {
		for _, s := range streams {
			s.Drop(n)
		}
		d.drop(n)
		return
	}

	n = min(n, d.buf.Len())
	signal, reference := streams[0], streams[1]
	bits := d.buf.Samples()
	prev := d.prev
	for i := 0; i < n; i++ {
		s, r := signal.At(i), reference.At(i)
		corr := complex(float64(s.I), float64(s.Q)) * complex(float64(r.I), -float64(r.Q))
		a := real(prev)*real(corr) + imag(prev)*imag(corr)
		b := real(prev)*imag(corr) - imag(prev)*real(corr)
		bits[i] = 0
		if math.Abs(math.Atan2(b, a)) > math.Pi/2 {
			bits[i] = 1
		}
		prev = corr
	}
	d.prev = prev

	for _, s := range streams {
		s.Drop(n)
	}
	d.emit(d.buf.Head(n), n)
}
