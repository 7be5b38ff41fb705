// Package stream holds the stream configuration negotiated between
// connected nodes.
package stream

import (
	"errors"
	"fmt"

	"go-iq-demod/internal/sample"
)

// ErrConfig is the common cause of every configuration error.
var ErrConfig = errors.New("configuration error")

// Config describes a stream: element type, sample rate, block size and the
// number of blocks a producer may have in flight. Zero fields are undeclared.
type Config struct {
	Type        sample.Type
	SampleRate  float64
	BufferSize  int
	BufferCount int
}

// New returns a fully declared stream configuration.
func New(t sample.Type, sampleRate float64, bufferSize, bufferCount int) Config {
	return Config{
		Type:        t,
		SampleRate:  sampleRate,
		BufferSize:  bufferSize,
		BufferCount: bufferCount,
	}
}

func (c Config) HasType() bool        { return c.Type != sample.Undefined }
func (c Config) HasSampleRate() bool  { return c.SampleRate > 0 }
func (c Config) HasBufferSize() bool  { return c.BufferSize > 0 }
func (c Config) HasBufferCount() bool { return c.BufferCount > 0 }

func (c Config) String() string {
	return fmt.Sprintf("type=%s rate=%g size=%d count=%d", c.Type, c.SampleRate, c.BufferSize, c.BufferCount)
}

// TypeError reports a stream whose element type does not match what a node
// consumes.
type TypeError struct {
	Node string
	Got  sample.Type
	Want sample.Type
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("can not configure %s: invalid type %s, expected %s", e.Node, e.Got, e.Want)
}

func (e *TypeError) Unwrap() error {
	return ErrConfig
}

// CheckType returns a *TypeError if cfg does not carry want.
func CheckType(node string, cfg Config, want sample.Type) error {
	if cfg.Type != want {
		return &TypeError{Node: node, Got: cfg.Type, Want: want}
	}
	return nil
}
