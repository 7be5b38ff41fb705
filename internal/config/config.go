package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Demodulation modes.
const (
	ModeAM   = "am"
	ModeUSB  = "usb"
	ModeFM   = "fm"
	ModeBPSK = "bpsk"
)

// envPrefix is prepended to the upper-cased yaml key of each override.
const envPrefix = "IQDEMOD_"

// LogConfig configures the logger and optional file rotation.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"` // megabytes
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
	Compress   bool   `yaml:"compress"`
}

// Config holds all the configuration parameters for the application.
type Config struct {
	Mode      string `yaml:"mode"`
	Input     string `yaml:"input"`
	Reference string `yaml:"reference"`
	Output    string `yaml:"output"`

	IQSampleRate    int `yaml:"iq_sample_rate"`
	SampleBlockSize int `yaml:"sample_block_size"`
	BufferCount     int `yaml:"buffer_count"`
	RingBufferSize  int `yaml:"ring_buffer_size"`
	ChunkSize       int `yaml:"chunk_size"`

	AngleBits   int  `yaml:"angle_bits"`
	OutputShift *int `yaml:"output_shift"`

	Compress    bool   `yaml:"compress"`
	MetricsAddr string `yaml:"metrics_addr"`

	Log LogConfig `yaml:"log"`
}

// New returns a new Config with default values.
func New() *Config {
	return &Config{
		Mode:            ModeFM,
		Output:          "out.wav",
		IQSampleRate:    2_000_000,
		SampleBlockSize: 4096,
		BufferCount:     2,
		RingBufferSize:  2 * 2_000_000, // 2s of IQ
		ChunkSize:       8192,
		AngleBits:       16,
		Log: LogConfig{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
		},
	}
}

// Load reads the yaml file at path on top of the defaults, then applies
// IQDEMOD_* environment overrides, including those from a .env file in the
// working directory. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := New()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// A missing .env is not an error; the process environment still applies.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"MODE":         &c.Mode,
		"INPUT":        &c.Input,
		"REFERENCE":    &c.Reference,
		"OUTPUT":       &c.Output,
		"METRICS_ADDR": &c.MetricsAddr,
		"LOG_LEVEL":    &c.Log.Level,
		"LOG_FILE":     &c.Log.File,
	}
	for key, dst := range strs {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"IQ_SAMPLE_RATE":    &c.IQSampleRate,
		"SAMPLE_BLOCK_SIZE": &c.SampleBlockSize,
		"BUFFER_COUNT":      &c.BufferCount,
		"RING_BUFFER_SIZE":  &c.RingBufferSize,
		"CHUNK_SIZE":        &c.ChunkSize,
		"ANGLE_BITS":        &c.AngleBits,
	}
	for key, dst := range ints {
		v, ok := lookup(envPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q: %v", ErrInvalid, envPrefix, key, v, err)
		}
		*dst = n
	}

	if v, ok := lookup(envPrefix + "OUTPUT_SHIFT"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sOUTPUT_SHIFT=%q: %v", ErrInvalid, envPrefix, v, err)
		}
		c.OutputShift = &n
	}
	if v, ok := lookup(envPrefix + "COMPRESS"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sCOMPRESS=%q: %v", ErrInvalid, envPrefix, v, err)
		}
		c.Compress = b
	}
	return nil
}

// Validate checks the values the pipeline depends on.
func (c *Config) Validate() error {
	var errs []error
	switch c.Mode {
	case ModeAM, ModeUSB, ModeFM:
	case ModeBPSK:
		if c.Reference == "" {
			errs = append(errs, fmt.Errorf("%w: mode %q needs a reference input", ErrInvalid, c.Mode))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown mode %q", ErrInvalid, c.Mode))
	}
	positive := []struct {
		name  string
		value int
	}{
		{"iq_sample_rate", c.IQSampleRate},
		{"sample_block_size", c.SampleBlockSize},
		{"buffer_count", c.BufferCount},
		{"ring_buffer_size", c.RingBufferSize},
		{"chunk_size", c.ChunkSize},
	}
	for _, p := range positive {
		if p.value < 1 {
			errs = append(errs, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalid, p.name, p.value))
		}
	}
	if c.RingBufferSize > 0 && c.RingBufferSize < c.SampleBlockSize {
		errs = append(errs, fmt.Errorf("%w: ring_buffer_size %d is smaller than sample_block_size %d",
			ErrInvalid, c.RingBufferSize, c.SampleBlockSize))
	}
	if c.AngleBits != 0 && (c.AngleBits < 4 || c.AngleBits > 32) {
		errs = append(errs, fmt.Errorf("%w: angle_bits must be in [4, 32], got %d", ErrInvalid, c.AngleBits))
	}
	return errors.Join(errs...)
}
