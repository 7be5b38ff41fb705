// Package output holds the terminal sinks of a pipeline: a mono WAV writer
// for demodulated audio and a raw little-endian writer with optional zstd
// compression for anything else.
package output

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"go-iq-demod/internal/buffer"
	"go-iq-demod/internal/sample"
	"go-iq-demod/internal/stream"
)

// WAVWriter writes a mono PCM stream to a WAV container. The header is
// written on the first complete configuration, since it carries the rate.
type WAVWriter[T int16 | int32] struct {
	w      io.WriteSeeker
	log    *zap.Logger
	enc    *wav.Encoder
	buf    *audio.IntBuffer
	frames int
	err    error
}

// NewWAVWriter creates a writer on w. Close finalises the header but does
// not close w.
func NewWAVWriter[T int16 | int32](w io.WriteSeeker, log *zap.Logger) *WAVWriter[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &WAVWriter[T]{w: w, log: log.Named("WAVWriter")}
}

func (ww *WAVWriter[T]) Config(cfg stream.Config) error {
	if !cfg.HasType() || !cfg.HasSampleRate() {
		return nil
	}
	if err := stream.CheckType("WAVWriter", cfg, sample.TypeOf[T]()); err != nil {
		return err
	}
	rate := int(math.Round(cfg.SampleRate))
	if ww.enc != nil {
		if ww.enc.SampleRate != rate {
			return fmt.Errorf("%w: can not configure WAVWriter: sample rate changed from %d to %d",
				stream.ErrConfig, ww.enc.SampleRate, rate)
		}
		return nil
	}

	bitDepth := 8 * cfg.Type.Size()
	ww.enc = wav.NewEncoder(ww.w, rate, bitDepth, 1, 1)
	ww.buf = &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		SourceBitDepth: bitDepth,
	}
	ww.log.Debug("configured", zap.Int("sample_rate", rate), zap.Int("bit_depth", bitDepth))
	return nil
}

func (ww *WAVWriter[T]) Process(b buffer.Block[T], _ bool) {
	if ww.enc == nil {
		ww.log.Debug("not configured, dropping block", zap.Int("samples", b.Len()))
		return
	}
	if ww.err != nil || b.Len() == 0 {
		return
	}

	ww.buf.Data = ww.buf.Data[:0]
	for _, v := range b.Samples() {
		ww.buf.Data = append(ww.buf.Data, int(v))
	}
	if err := ww.enc.Write(ww.buf); err != nil {
		ww.err = err
		ww.log.Error("write failed", zap.Error(err))
		return
	}
	ww.frames += b.Len()
}

// Frames returns the number of samples written so far.
func (ww *WAVWriter[T]) Frames() int {
	return ww.frames
}

// Err returns the first write error.
func (ww *WAVWriter[T]) Err() error {
	return ww.err
}

// Close finalises the WAV header.
func (ww *WAVWriter[T]) Close() error {
	if ww.enc == nil {
		return errors.Join(ww.err, errors.New("WAVWriter was never configured"))
	}
	return errors.Join(ww.err, ww.enc.Close())
}
