package demod

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"go-iq-demod/internal/buffer"
	"go-iq-demod/internal/sample"
	"go-iq-demod/internal/stream"
)

// ErrAngleBits is returned for an angular resolution the output type cannot hold.
var ErrAngleBits = errors.New("demod: invalid angular resolution")

// FMOutput is the set of output types of the FM demodulator.
type FMOutput interface {
	int8 | int16 | int32
}

// FMDemod demodulates frequency modulation from the phase difference between
// consecutive I/Q samples.
type FMDemod[In sample.Signed, Out FMOutput] struct {
	node[Out]
	angle        FixedAngle
	shift        int
	prev         sample.IQ[In]
	canOverwrite bool
}

// NewFMDemod creates an FM demodulator for IQ[In] input producing Out.
func NewFMDemod[In sample.Signed, Out FMOutput](opts ...Option) (*FMDemod[In, Out], error) {
	o := applyOptions(opts)
	outBits := 8 * sample.TypeOf[Out]().Size()
	inBits := 8 * sample.TypeOf[In]().Size()

	shift := outBits - inBits
	if o.outputShift != nil {
		shift = *o.outputShift
	}
	bits := outBits
	if o.angleBits != 0 {
		bits = o.angleBits
	}
	if bits < 4 || bits > outBits {
		return nil, fmt.Errorf("%w: %d bits for %s output", ErrAngleBits, bits, sample.TypeOf[Out]())
	}

	return &FMDemod[In, Out]{
		node:  newNode[Out]("FMDemod", o),
		angle: FixedAngle{Bits: bits, PreShift: 9 - shift},
		shift: shift,
	}, nil
}

// Angle returns the fixed-point angle policy in use.
func (d *FMDemod[In, Out]) Angle() FixedAngle {
	return d.angle
}

// Config configures the demodulator for an IQ[In] stream and clears the
// phase history.
func (d *FMDemod[In, Out]) Config(cfg stream.Config) error {
	ok, err := d.accept(cfg, sample.TypeOf[sample.IQ[In]]())
	if !ok {
		return err
	}
	d.realloc(cfg.BufferSize)
	d.prev = sample.IQ[In]{}
	d.canOverwrite = sample.TypeOf[sample.IQ[In]]().Size() >= sample.TypeOf[Out]().Size()

	d.log.Debug("configured",
		zap.Float64("sample_rate", cfg.SampleRate),
		zap.Stringer("input_type", cfg.Type),
		zap.Stringer("output_type", sample.TypeOf[Out]()),
		zap.Bool("in_place", d.canOverwrite),
		zap.Int("output_scale_log2", d.shift),
		zap.Int("angle_bits", d.angle.Bits))

	return d.SetConfig(stream.New(sample.TypeOf[Out](), cfg.SampleRate, cfg.BufferSize, 1))
}

// Process demodulates in. The first sample is taken relative to the last
// sample of the previous processed block.
func (d *FMDemod[In, Out]) Process(in buffer.Block[sample.IQ[In]], allowOverwrite bool) {
	if in.Len() == 0 {
		return
	}
	out, ok := target[Out](in, d.buf, allowOverwrite && d.canOverwrite)
	if !ok {
		d.drop(in.Len())
		return
	}

	src, dst := in.Samples(), out.Samples()
	n := min(len(src), len(dst))
	prev := d.prev
	for i := 0; i < n; i++ {
		x := src[i]
		a := int64(x.I)*int64(prev.I) + int64(x.Q)*int64(prev.Q)
		b := int64(x.Q)*int64(prev.I) - int64(x.I)*int64(prev.Q)
		// dst[i] may overlay src[i].
		prev = x
		dst[i] = Out(d.angle.Atan2(b, a))
	}
	d.prev = prev
	d.emit(out.Head(n), n)
}
