// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

package devio

import (
	"bufio"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// Stream associates a Handle with a traditional buffered-stream
// surface, the way fdopen associates a FILE with a file descriptor.
// Reads and writes are multiplexed onto the handle's contract through
// bufio; the handle's blocking mode governs whether Stream calls can
// suspend.
type Stream struct {
	mu       sync.Mutex
	h        Handle
	r        *bufio.Reader
	w        *bufio.Writer
	canRead  bool
	canWrite bool
	closed   bool
}

type streamMode struct {
	read   bool
	write  bool
	append bool
}

// parseStreamMode accepts the POSIX fopen mode vocabulary: "r", "w",
// "a", each optionally followed by "+" and/or "b" in either order.
func parseStreamMode(mode string) (streamMode, error) {
	var m streamMode
	if mode == "" {
		return m, errors.Errorf("devio: invalid stream mode %q", mode)
	}
	switch mode[0] {
	case 'r':
		m.read = true
	case 'w':
		m.write = true
	case 'a':
		m.write = true
		m.append = true
	default:
		return m, errors.Errorf("devio: invalid stream mode %q", mode)
	}
	plus, binary := false, false
	for _, c := range mode[1:] {
		switch {
		case c == '+' && !plus:
			plus = true
		case c == 'b' && !binary:
			binary = true
		default:
			return m, errors.Errorf("devio: invalid stream mode %q", mode)
		}
	}
	if plus {
		m.read, m.write = true, true
	}
	return m, nil
}

// OpenStream builds a buffered stream over h according to a POSIX
// fopen-style mode string. It fails if the mode string is invalid or
// the association cannot be honored; append modes seek the handle to
// its end when it is seekable.
func OpenStream(h Handle, mode string) (*Stream, error) {
	if h == nil {
		return nil, errors.New("devio: nil handle")
	}
	m, err := parseStreamMode(mode)
	if err != nil {
		return nil, err
	}
	s := &Stream{
		h:        h,
		canRead:  m.read,
		canWrite: m.write,
	}
	if m.read {
		s.r = bufio.NewReader(h)
	}
	if m.write {
		s.w = bufio.NewWriter(h)
	}
	if m.append {
		if _, err := h.Seek(0, io.SeekEnd); err != nil && !errors.Is(err, ErrNotSupported) {
			return nil, errors.Wrap(err, "devio: append seek")
		}
	}
	return s, nil
}

// Read reads buffered data from the stream. Pending writes are flushed
// first so that read-write streams observe their own output.
func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if !s.canRead {
		return 0, ErrNotSupported
	}
	if s.w != nil {
		if err := s.w.Flush(); err != nil {
			return 0, err
		}
	}
	return s.r.Read(p)
}

// Write buffers p into the stream.
func (s *Stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if !s.canWrite {
		return 0, ErrNotSupported
	}
	return s.w.Write(p)
}

// Flush forces buffered writes down to the handle.
func (s *Stream) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.w == nil {
		return nil
	}
	return s.w.Flush()
}

// Seek flushes pending writes, discards buffered input and moves the
// handle position.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if s.w != nil {
		if err := s.w.Flush(); err != nil {
			return 0, err
		}
	}
	if s.r != nil {
		s.r.Reset(s.h)
	}
	return s.h.Seek(offset, whence)
}

// Close flushes the stream and closes the underlying handle.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var ferr error
	if s.w != nil {
		ferr = s.w.Flush()
	}
	cerr := s.h.Close()
	if ferr != nil {
		return ferr
	}
	return cerr
}
