package demod

import (
	"go.uber.org/zap"

	"go-iq-demod/internal/buffer"
	"go-iq-demod/internal/sample"
	"go-iq-demod/internal/stream"
)

// USBDemod demodulates the upper sideband of an I/Q signal as (I+Q)/2.
type USBDemod[T sample.Scalar] struct {
	node[T]
}

// NewUSBDemod creates an upper sideband demodulator for IQ[T] input.
func NewUSBDemod[T sample.Scalar](opts ...Option) *USBDemod[T] {
	return &USBDemod[T]{node: newNode[T]("USBDemod", applyOptions(opts))}
}

// Config configures the demodulator for an IQ[T] stream.
func (d *USBDemod[T]) Config(cfg stream.Config) error {
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

	return d.SetConfig(stream.New(sample.TypeOf[T](), cfg.SampleRate, cfg.BufferSize, 1))
}

// Process writes (I+Q)/2 for every sample of in.
func (d *USBDemod[T]) Process(in buffer.Block[sample.IQ[T]], allowOverwrite bool) {
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
	if sample.IsFloat[T]() {
		for i := 0; i < n; i++ {
			dst[i] = T((float64(src[i].I) + float64(src[i].Q)) / 2)
		}
	} else {
		for i := 0; i < n; i++ {
			// The sum needs one bit more than T holds.
			dst[i] = T((int64(src[i].I) + int64(src[i].Q)) / 2)
		}
	}
	d.emit(out.Head(n), n)
}
