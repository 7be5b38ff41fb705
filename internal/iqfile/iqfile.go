// Package iqfile reads interleaved 16-bit IQ recordings, either raw
// little-endian s16 pairs or a 16-bit stereo WAV container with I on the
// left and Q on the right channel.
package iqfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"go-iq-demod/internal/ringbuffer"
	"go-iq-demod/internal/sample"
)

// ErrFormat is returned for WAV files that do not hold 16-bit IQ pairs.
var ErrFormat = errors.New("unsupported IQ format")

// bytesPerSample is the size of one raw s16 IQ pair.
const bytesPerSample = 4

// Reader streams the samples of one recording.
type Reader struct {
	file       *os.File
	decoder    *wav.Decoder // nil for raw input
	sampleRate int
	chunkSize  int
	log        *zap.Logger
}

// Open opens path and detects its container. chunkSize is the number of IQ
// samples moved per read.
func Open(path string, chunkSize int, log *zap.Logger) (*Reader, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if chunkSize < 1 {
		chunkSize = 1
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := &Reader{file: file, chunkSize: chunkSize, log: log.With(zap.String("file", path))}

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		r.log.Info("not a valid WAV file, reading raw IQ")
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			file.Close()
			return nil, err
		}
		return r, nil
	}

	if err := decoder.FwdToPCM(); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to seek to PCM data: %w", err)
	}
	r.log.Info("detected WAV format",
		zap.Uint16("bit_depth", decoder.BitDepth),
		zap.Uint32("sample_rate", decoder.SampleRate),
		zap.Uint16("channels", decoder.NumChans))
	if decoder.BitDepth != 16 || decoder.NumChans != 2 {
		file.Close()
		return nil, fmt.Errorf("%w: %d-bit %d-channel WAV, want 16-bit stereo",
			ErrFormat, decoder.BitDepth, decoder.NumChans)
	}
	r.decoder = decoder
	r.sampleRate = int(decoder.SampleRate)
	return r, nil
}

// IsWAV reports whether the recording has a WAV container.
func (r *Reader) IsWAV() bool {
	return r.decoder != nil
}

// SampleRate returns the rate from the WAV header, 0 for raw input.
func (r *Reader) SampleRate() int {
	return r.sampleRate
}

// Pump writes every sample of the recording into rb and closes rb once the
// input is exhausted or fails. It blocks while rb is full.
func (r *Reader) Pump(rb *ringbuffer.RingBuffer[sample.IQ[int16]]) error {
	defer rb.Close()
	var (
		total int
		err   error
	)
	if r.decoder != nil {
		total, err = r.pumpWAV(rb)
	} else {
		total, err = r.pumpRaw(rb)
	}
	if err != nil {
		r.log.Error("read failed", zap.Int("samples", total), zap.Error(err))
		return err
	}
	r.log.Info("end of input reached", zap.Int("samples", total))
	return nil
}

func (r *Reader) pumpRaw(rb *ringbuffer.RingBuffer[sample.IQ[int16]]) (int, error) {
	in := bufio.NewReader(r.file)
	buf := make([]byte, r.chunkSize*bytesPerSample)
	total := 0
	for {
		n, err := io.ReadFull(in, buf)
		if samples := n / bytesPerSample; samples > 0 {
			iq := make([]sample.IQ[int16], samples)
			for i := range iq {
				iq[i].I = int16(binary.LittleEndian.Uint16(buf[i*bytesPerSample:]))
				iq[i].Q = int16(binary.LittleEndian.Uint16(buf[i*bytesPerSample+2:]))
			}
			rb.Write(iq)
			total += samples
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			if n%bytesPerSample != 0 {
				r.log.Warn("ignoring trailing partial sample", zap.Int("bytes", n%bytesPerSample))
			}
			return total, nil
		default:
			return total, err
		}
	}
}

func (r *Reader) pumpWAV(rb *ringbuffer.RingBuffer[sample.IQ[int16]]) (int, error) {
	buf := &audio.IntBuffer{
		Format: r.decoder.Format(),
		Data:   make([]int, r.chunkSize*2), // 2 = I+Q
	}
	total := 0
	for {
		n, err := r.decoder.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return total, err
		}
		if n == 0 {
			return total, nil
		}

		iq := make([]sample.IQ[int16], n/2)
		for i := range iq {
			iq[i] = sample.IQ[int16]{I: int16(buf.Data[2*i]), Q: int16(buf.Data[2*i+1])}
		}
		rb.Write(iq)
		total += len(iq)
		if errors.Is(err, io.EOF) {
			return total, nil
		}
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
