package demod

import (
	"math"

	"go.uber.org/zap"

	"go-iq-demod/internal/buffer"
	"go-iq-demod/internal/sample"
	"go-iq-demod/internal/stream"
)

// AMDemod demodulates amplitude modulation by taking the magnitude of each
// I/Q sample.
type AMDemod[T sample.Scalar] struct {
	node[T]
}

// NewAMDemod creates an AM demodulator for IQ[T] input.
func NewAMDemod[T sample.Scalar](opts ...Option) *AMDemod[T] {
	return &AMDemod[T]{node: newNode[T]("AMDemod", applyOptions(opts))}
}

// Config configures the demodulator for an IQ[T] stream.
func (d *AMDemod[T]) Config(cfg stream.Config) error {
	ok, err := d.accept(cfg, sample.TypeOf[sample.IQ[T]]())
	if !ok {
		return err
	}
	d.realloc(cfg.BufferSize)

	d.log.Debug("configured",
		zap.Stringer("input_type", cfg.Type),
		zap.Stringer("output_type", sample.TypeOf[T]()),
		zap.Float64("sample_rate", cfg.SampleRate),
		zap.Int("buffer_size", cfg.BufferSize))

	// Output is produced in place whenever permitted, so the upstream block
	// count carries over.
	return d.SetConfig(stream.New(sample.TypeOf[T](), cfg.SampleRate, cfg.BufferSize, cfg.BufferCount))
}

// Process writes |x| for every sample x of in.
func (d *AMDemod[T]) Process(in buffer.Block[sample.IQ[T]], allowOverwrite bool) {
	if in.Len() == 0 {
		return
	}
	out, ok := target[T](in, d.buf, allowOverwrite)
	if !ok {
		d.drop(in.Len())
		return
	}

	src, dst := in.Samples(), out.Samples()
	n := min(len(src), len(dst))
	for i := 0; i < n; i++ {
		re, im := float64(src[i].I), float64(src[i].Q)
		dst[i] = sample.Saturate[T](math.Sqrt(re*re + im*im))
	}
	d.emit(out.Head(n), n)
}
