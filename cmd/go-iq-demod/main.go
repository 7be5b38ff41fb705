package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-iq-demod/internal/config"
	"go-iq-demod/internal/logger"
	"go-iq-demod/internal/metrics"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	configPath := flag.String("config", "", "path to a yaml configuration file")
	mode := flag.String("mode", "", "demodulation mode: am, usb, fm or bpsk")
	in := flag.String("in", "", "IQ input, raw s16le or 16-bit stereo WAV")
	ref := flag.String("ref", "", "reference carrier input (bpsk)")
	out := flag.String("out", "", "output file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	// Flags take precedence over the file and the environment.
	for dst, v := range map[*string]string{&cfg.Mode: *mode, &cfg.Input: *in, &cfg.Reference: *ref, &cfg.Output: *out} {
		if v != "" {
			*dst = v
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	log := logger.New(cfg.Log)
	defer log.Sync()

	rec := metrics.Nop()
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		rec = metrics.NewPrometheus(reg)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer srv.Close()
		log.Info("serving metrics", zap.String("addr", cfg.MetricsAddr))
	}

	log.Info("starting",
		zap.String("mode", cfg.Mode),
		zap.String("input", cfg.Input),
		zap.String("output", cfg.Output),
		zap.Int("block_size", cfg.SampleBlockSize))

	if err := run(cfg, log, rec); err != nil {
		log.Error("demodulation failed", zap.Error(err))
		return 1
	}
	return 0
}
