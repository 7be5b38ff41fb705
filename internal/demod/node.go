// Package demod implements the demodulator nodes: envelope (AM), upper
// sideband (USB), fixed-point phase difference (FM) and carrier-relative
// binary phase shift keying (BPSK).
//
// All nodes follow the same protocol. Config validates the incoming stream,
// allocates a private output block and resets the carried state. Process
// writes into the input block when the producer grants overwrite and the
// output elements fit into the input footprint, otherwise into the private
// block if no consumer still holds it, otherwise the input is dropped. A
// node never blocks and never queues.
package demod

import (
	"go.uber.org/zap"

	"go-iq-demod/internal/buffer"
	"go-iq-demod/internal/graph"
	"go-iq-demod/internal/metrics"
	"go-iq-demod/internal/sample"
	"go-iq-demod/internal/stream"
)

type options struct {
	log         *zap.Logger
	recorder    metrics.Recorder
	angleBits   int
	outputShift *int
}

// Option configures a demodulator at construction.
type Option func(*options)

// WithLogger sets the diagnostic logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithRecorder sets where processed and dropped sample counts are reported.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithAngleBits sets the angular resolution of the FM demodulator: ±π maps
// to ±2^(bits-2). Zero keeps the default of the output width in bits.
func WithAngleBits(bits int) Option {
	return func(o *options) {
		o.angleBits = bits
	}
}

// WithOutputShift overrides the FM rescale shift, which defaults to the
// width difference in bits between the output type and an input component.
func WithOutputShift(shift int) Option {
	return func(o *options) {
		o.outputShift = &shift
	}
}

func applyOptions(opts []Option) options {
	o := options{
		log:      zap.NewNop(),
		recorder: metrics.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// node carries what every demodulator shares: its output side, the private
// output block and the diagnostics.
type node[Out any] struct {
	graph.Source[Out]
	name string
	log  *zap.Logger
	rec  metrics.Recorder
	buf  buffer.Block[Out]
}

func newNode[Out any](name string, o options) node[Out] {
	return node[Out]{
		name: name,
		log:  o.log.Named(name),
		rec:  o.recorder,
	}
}

// accept applies the shared configuration rules. It reports false with a nil
// error for configurations that are still incomplete.
func (n *node[Out]) accept(cfg stream.Config, want sample.Type) (bool, error) {
	if !cfg.HasType() || !cfg.HasBufferSize() {
		return false, nil
	}
	if err := stream.CheckType(n.name, cfg, want); err != nil {
		return false, err
	}
	return true, nil
}

// realloc releases the private block and allocates a fresh one of size elements.
func (n *node[Out]) realloc(size int) {
	n.buf.Unref()
	n.buf = buffer.New[Out](size)
}

// drop accounts for an input that could not be processed.
func (n *node[Out]) drop(samples int) {
	n.log.Debug("output buffer still in use, dropping input", zap.Int("samples", samples))
	n.rec.Dropped(n.name, samples)
}

// emit forwards produced output. Both possible targets, the input block and
// the private block, may be overwritten by the consumer.
func (n *node[Out]) emit(out buffer.Block[Out], samples int) {
	n.rec.Processed(n.name, samples)
	n.Send(out, true)
}

// target picks the block the output of in is written to, or reports false
// if the input has to be dropped.
func target[Out, In any](in buffer.Block[In], own buffer.Block[Out], inPlace bool) (buffer.Block[Out], bool) {
	if inPlace {
		if out, err := buffer.As[Out](in); err == nil {
			return out, true
		}
	}
	if own.IsUnused() {
		return own, true
	}
	return buffer.Block[Out]{}, false
}
