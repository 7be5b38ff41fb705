package output

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"go-iq-demod/internal/buffer"
	"go-iq-demod/internal/sample"
	"go-iq-demod/internal/stream"
)

// RawWriter writes samples as headerless little-endian values, optionally
// as a single zstd frame.
type RawWriter[T sample.Scalar] struct {
	w       io.Writer
	zw      *zstd.Encoder
	log     *zap.Logger
	cfg     stream.Config
	samples int
	err     error
}

// NewRawWriter creates a writer on w. Close flushes the compressor but does
// not close w.
func NewRawWriter[T sample.Scalar](w io.Writer, compress bool, log *zap.Logger) (*RawWriter[T], error) {
	if log == nil {
		log = zap.NewNop()
	}
	rw := &RawWriter[T]{w: w, log: log.Named("RawWriter")}
	if compress {
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		rw.zw = zw
		rw.w = zw
	}
	return rw, nil
}

func (rw *RawWriter[T]) Config(cfg stream.Config) error {
	if !cfg.HasType() {
		return nil
	}
	if err := stream.CheckType("RawWriter", cfg, sample.TypeOf[T]()); err != nil {
		return err
	}
	rw.cfg = cfg
	rw.log.Debug("configured", zap.Stringer("config", cfg), zap.Bool("zstd", rw.zw != nil))
	return nil
}

func (rw *RawWriter[T]) Process(b buffer.Block[T], _ bool) {
	if !rw.cfg.HasType() {
		rw.log.Debug("not configured, dropping block", zap.Int("samples", b.Len()))
		return
	}
	if rw.err != nil || b.Len() == 0 {
		return
	}
	if err := binary.Write(rw.w, binary.LittleEndian, b.Samples()); err != nil {
		rw.err = err
		rw.log.Error("write failed", zap.Error(err))
		return
	}
	rw.samples += b.Len()
}

// Samples returns the number of samples written so far.
func (rw *RawWriter[T]) Samples() int {
	return rw.samples
}

// Err returns the first write error.
func (rw *RawWriter[T]) Err() error {
	return rw.err
}

// Close flushes and ends the zstd frame, if any.
func (rw *RawWriter[T]) Close() error {
	if rw.zw == nil {
		return rw.err
	}
	return errors.Join(rw.err, rw.zw.Close())
}
