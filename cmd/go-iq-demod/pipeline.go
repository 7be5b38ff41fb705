package main

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"go-iq-demod/internal/analysis"
	"go-iq-demod/internal/buffer"
	"go-iq-demod/internal/config"
	"go-iq-demod/internal/demod"
	"go-iq-demod/internal/graph"
	"go-iq-demod/internal/iqfile"
	"go-iq-demod/internal/metrics"
	"go-iq-demod/internal/output"
	"go-iq-demod/internal/ringbuffer"
	"go-iq-demod/internal/sample"
	"go-iq-demod/internal/stream"
)

// tapLimit bounds how much demodulated output is kept for the summary.
const tapLimit = 1 << 16

type iq = sample.IQ[int16]

// audioDemod is a demodulator turning cs16 into s16.
type audioDemod interface {
	graph.Sink[iq]
	Connect(sink graph.Sink[int16]) error
}

func newAudioDemod(mode string, opts []demod.Option) (audioDemod, error) {
	switch mode {
	case config.ModeAM:
		return demod.NewAMDemod[int16](opts...), nil
	case config.ModeUSB:
		return demod.NewUSBDemod[int16](opts...), nil
	case config.ModeFM:
		d, err := demod.NewFMDemod[int16, int16](opts...)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, fmt.Errorf("%w: %q is not an audio mode", config.ErrInvalid, mode)
}

// pumps reads recordings into ring buffers on their own goroutines.
type pumps struct {
	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

func (p *pumps) start(r *iqfile.Reader, size int) *ringbuffer.RingBuffer[iq] {
	rb := ringbuffer.New[iq](size)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := r.Pump(rb); err != nil {
			p.mu.Lock()
			p.errs = append(p.errs, err)
			p.mu.Unlock()
		}
	}()
	return rb
}

func (p *pumps) wait() error {
	p.wg.Wait()
	return errors.Join(p.errs...)
}

// sendBlock moves up to n samples from rb into a fresh block and sends it.
// It reports false once rb is closed and drained.
func sendBlock(rb *ringbuffer.RingBuffer[iq], src *graph.Source[iq], n int) bool {
	raw := rb.Read(n)
	if raw == nil {
		return false
	}
	b := buffer.New[iq](len(raw))
	copy(b.Samples(), raw)
	src.Send(b, true)
	b.Unref()
	return true
}

func openInput(path string, cfg *config.Config, log *zap.Logger) (*iqfile.Reader, stream.Config, error) {
	r, err := iqfile.Open(path, cfg.ChunkSize, log)
	if err != nil {
		return nil, stream.Config{}, err
	}
	rate := cfg.IQSampleRate
	if r.SampleRate() > 0 {
		rate = r.SampleRate()
	}
	return r, stream.New(sample.CS16, float64(rate), cfg.SampleBlockSize, cfg.BufferCount), nil
}

func run(cfg *config.Config, log *zap.Logger, rec metrics.Recorder) error {
	opts := []demod.Option{
		demod.WithLogger(log),
		demod.WithRecorder(rec),
		demod.WithAngleBits(cfg.AngleBits),
	}
	if cfg.OutputShift != nil {
		opts = append(opts, demod.WithOutputShift(*cfg.OutputShift))
	}

	out, err := os.Create(cfg.Output)
	if err != nil {
		return err
	}
	defer out.Close()

	if cfg.Mode == config.ModeBPSK {
		return runBPSK(cfg, log, opts, out)
	}
	return runAudio(cfg, log, opts, out)
}

func runAudio(cfg *config.Config, log *zap.Logger, opts []demod.Option, out *os.File) error {
	in, iqCfg, err := openInput(cfg.Input, cfg, log)
	if err != nil {
		return err
	}
	defer in.Close()

	d, err := newAudioDemod(cfg.Mode, opts)
	if err != nil {
		return err
	}
	writer := output.NewWAVWriter[int16](out, log)
	tap := analysis.NewTap[int16](tapLimit)
	iqTap := analysis.NewIQTap[int16](cfg.SampleBlockSize)

	var head graph.Source[iq]
	if err := errors.Join(d.Connect(writer), d.Connect(tap), head.Connect(d), head.Connect(iqTap)); err != nil {
		return err
	}
	if err := head.SetConfig(iqCfg); err != nil {
		return err
	}

	var p pumps
	rb := p.start(in, cfg.RingBufferSize)
	blocks := 0
	for sendBlock(rb, &head, cfg.SampleBlockSize) {
		blocks++
	}
	if err := errors.Join(p.wait(), writer.Close()); err != nil {
		return err
	}

	log.Info("input analysed",
		zap.Float64("dominant_offset_hz", analysis.DominantFrequency(iqTap.Samples(), iqTap.SampleRate())))
	log.Info("done",
		zap.Int("blocks", blocks),
		zap.Int("frames", writer.Frames()),
		zap.Object("output", analysis.Summarize(tap.Samples())),
		zap.Float64("peak_hz", analysis.PeakFrequency(tap.Samples(), tap.SampleRate())))
	return nil
}

func runBPSK(cfg *config.Config, log *zap.Logger, opts []demod.Option, out *os.File) error {
	sigIn, sigCfg, err := openInput(cfg.Input, cfg, log)
	if err != nil {
		return err
	}
	defer sigIn.Close()
	refIn, refCfg, err := openInput(cfg.Reference, cfg, log)
	if err != nil {
		return err
	}
	defer refIn.Close()

	d := demod.NewBPSKDemod[int16](opts...)
	writer, err := output.NewRawWriter[uint8](out, cfg.Compress, log)
	if err != nil {
		return err
	}
	tap := analysis.NewTap[uint8](tapLimit)
	iqTap := analysis.NewIQTap[int16](cfg.SampleBlockSize)

	var sigHead, refHead graph.Source[iq]
	if err := errors.Join(d.Connect(writer), d.Connect(tap),
		sigHead.Connect(d.Signal()), sigHead.Connect(iqTap), refHead.Connect(d.Reference())); err != nil {
		return err
	}
	if err := errors.Join(sigHead.SetConfig(sigCfg), refHead.SetConfig(refCfg)); err != nil {
		return err
	}

	var p pumps
	sig := p.start(sigIn, cfg.RingBufferSize)
	ref := p.start(refIn, cfg.RingBufferSize)
	// Alternate so neither combine input runs ahead by more than a block.
	sigOpen, refOpen := true, true
	for sigOpen || refOpen {
		if sigOpen {
			sigOpen = sendBlock(sig, &sigHead, cfg.SampleBlockSize)
		}
		if refOpen {
			refOpen = sendBlock(ref, &refHead, cfg.SampleBlockSize)
		}
	}
	if err := errors.Join(p.wait(), writer.Close()); err != nil {
		return err
	}

	bits := analysis.Summarize(tap.Samples())
	log.Info("input analysed",
		zap.Float64("dominant_offset_hz", analysis.DominantFrequency(iqTap.Samples(), iqTap.SampleRate())))
	log.Info("done",
		zap.Int("bits", writer.Samples()),
		zap.Float64("ones_ratio", bits.Mean),
		zap.Bool("zstd", cfg.Compress))
	return nil
}
