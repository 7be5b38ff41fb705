// Package graph defines how processing nodes are wired together: a Sink
// receives blocks, a Source fans blocks out to its sinks and a Combine joins
// several input streams sample by sample.
//
// Delivery is synchronous. A producer calls Process on its consumers and the
// call returns once the block has been handled or dropped.
package graph

import (
	"errors"

	"go-iq-demod/internal/buffer"
	"go-iq-demod/internal/stream"
)

// Sink consumes blocks of T.
type Sink[T any] interface {
	// Config negotiates the incoming stream. Incomplete configurations are
	// ignored; a type mismatch returns an error wrapping stream.ErrConfig.
	Config(cfg stream.Config) error
	// Process handles one block. allowOverwrite grants permission to reuse
	// the block's storage for output.
	Process(b buffer.Block[T], allowOverwrite bool)
}

// Source forwards blocks of T to every connected sink. Nodes embed it to
// gain their output side.
type Source[T any] struct {
	sinks []Sink[T]
	cfg   stream.Config
}

// Connect adds sink and hands it the current output configuration, if any.
func (s *Source[T]) Connect(sink Sink[T]) error {
	s.sinks = append(s.sinks, sink)
	if s.cfg.HasType() {
		return sink.Config(s.cfg)
	}
	return nil
}

// Disconnect removes sink. Unknown sinks are ignored.
func (s *Source[T]) Disconnect(sink Sink[T]) {
	for i, c := range s.sinks {
		if c == sink {
			s.sinks = append(s.sinks[:i], s.sinks[i+1:]...)
			return
		}
	}
}

// OutputConfig returns the last configuration declared with SetConfig.
func (s *Source[T]) OutputConfig() stream.Config {
	return s.cfg
}

// SetConfig stores cfg and propagates it to all sinks.
func (s *Source[T]) SetConfig(cfg stream.Config) error {
	s.cfg = cfg
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Config(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Send delivers b to every sink. Overwrite permission is only passed on when
// there is exactly one sink; shared blocks are read-only.
func (s *Source[T]) Send(b buffer.Block[T], allowOverwrite bool) {
	allowOverwrite = allowOverwrite && len(s.sinks) == 1
	for _, sink := range s.sinks {
		sink.Process(b, allowOverwrite)
	}
}
