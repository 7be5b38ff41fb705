// Package logger builds the zap logger used across the pipeline.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"go-iq-demod/internal/config"
)

// New creates a logger writing human-readable lines to stderr and, when
// cfg.File is set, to a rotated log file as well. Unknown levels fall back
// to info.
func New(cfg config.LogConfig) *zap.Logger {
	return build(cfg, os.Stderr)
}

func build(cfg config.LogConfig, console io.Writer) *zap.Logger {
	level := zap.InfoLevel
	if err := level.Set(cfg.Level); err != nil {
		level = zap.InfoLevel
	}
	atom := zap.NewAtomicLevelAt(level)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(console), atom)
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize, // megabytes
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge, // days
			Compress:   cfg.Compress,
		}
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotator), atom)
		core = zapcore.NewTee(core, fileCore)
	}

	return zap.New(core, zap.AddCaller())
}
