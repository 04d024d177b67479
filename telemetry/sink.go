// Copyright 2026 The Hawk Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Sink receives encoded batches from the flusher. Each call carries
// one complete wire line (a single JSON object or a JSON array)
// without the trailing newline. Implementations append their own
// framing. Emit is only ever called from the flusher goroutine, so
// implementations need no internal locking unless they are shared.
type Sink interface {
	Emit(line []byte) error
	io.Closer
}

// WriterSink frames each batch as one newline-terminated line on an
// io.Writer. It is safe for use with writers shared with other
// producers (stdout in particular): each line is written with a
// single Write call under a mutex.
type WriterSink struct {
	mu    sync.Mutex
	w     io.Writer
	owned io.Closer
}

// NewWriterSink wraps w. If w implements io.Closer it is NOT closed
// by Close; use NewFileSink for sinks that own their writer.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// NewFileSink opens path for appending and returns a sink that owns
// the file handle. Close flushes and closes the file.
func NewFileSink(path string) (*WriterSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open sink file: %w", err)
	}
	return &WriterSink{w: f, owned: f}, nil
}

// StdoutSink returns the default sink: newline-delimited JSON on
// standard output, the stream a hawk-aware reader attaches to.
func StdoutSink() *WriterSink {
	return NewWriterSink(os.Stdout)
}

// Emit writes the line plus a trailing newline in one Write call.
func (s *WriterSink) Emit(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	if _, err := s.w.Write(buf); err != nil {
		return fmt.Errorf("%w: %v", ErrSinkWrite, err)
	}
	return nil
}

// Close closes the underlying writer if the sink owns it.
func (s *WriterSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owned != nil {
		return s.owned.Close()
	}
	return nil
}
