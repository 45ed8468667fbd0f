// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

// Package devio provides a file-like I/O contract and a blocking
// emulation engine that synthesizes POSIX-style blocking/non-blocking
// read, write and event polling on top of device drivers that expose
// only primitive non-blocking operations.
package devio

import (
	"io"
)

// Handle is the abstract capability set of a file-like object.
//
// Conventions follow POSIX translated to Go idiom: operations return a
// byte count or offset together with an error; Read returning (0, io.EOF)
// denotes end of stream; ErrWouldBlock reports that a non-blocking
// operation could make no progress.
type Handle interface {
	// Read reads up to len(p) bytes into p.
	//
	// With blocking mode set, Read waits until some data is available
	// and returns as soon as it has any, which may be fewer bytes than
	// requested. With non-blocking mode set it returns ErrWouldBlock
	// when no data is available.
	Read(p []byte) (int, error)

	// Write writes the contents of p.
	//
	// With blocking mode set, Write blocks until the device has
	// accepted all of p (stream handles) or one whole transfer
	// (datagram handles). With non-blocking mode set it returns
	// ErrWouldBlock when nothing can be written, or a partial count.
	Write(p []byte) (int, error)

	// Seek moves the position to offset relative to whence
	// (io.SeekStart, io.SeekCurrent, io.SeekEnd) and returns the new
	// absolute offset. Non-seekable handles return ErrNotSupported.
	Seek(offset int64, whence int) (int64, error)

	// Close closes the handle and releases any blocked reader or
	// writer with ErrClosed. No operation is valid afterwards.
	Close() error

	// Sync flushes any state associated with the handle down to the
	// device. Handles with nothing to flush return nil.
	Sync() error

	// IsTTY reports whether the handle is an interactive terminal.
	IsTTY() bool

	// SetBlocking switches the handle between blocking and
	// non-blocking mode. The default is blocking. Handles with a fixed
	// mode return ErrNotSupported and leave the mode unchanged.
	SetBlocking(blocking bool) error

	// Poll returns the subset of interest (or at the handle's
	// discretion, all events) that is currently true. It never blocks.
	// Handles with real blocking concerns must override the optimistic
	// Base default.
	Poll(interest Events) Events

	// PollWithWake behaves as Poll; additionally, if none of interest
	// is currently true and wake is set, it arms notification so that
	// the next occurrence of any bit in interest wakes blocked Poll
	// callers. Returns EventNval if the handle cannot arm wakes.
	// Always called from thread context inside a short critical
	// section; it must not block.
	PollWithWake(interest Events, wake bool) Events

	// Sigio registers fn to be called whenever the handle's readiness
	// state changes. At most one callback is registered; a new one
	// replaces the old, nil unregisters. The callback may run in the
	// device's asynchronous notifier context and must be cheap; it
	// carries no payload and is only a cue to recheck state via
	// Read/Write/Poll. Spurious invocations are permitted.
	Sigio(fn func())
}

// Readable reports whether h has data available to read,
// equivalent to h.Poll(EventIn).Has(EventIn).
func Readable(h Handle) bool {
	return h.Poll(EventIn).Has(EventIn)
}

// Writable reports whether h can accept data to write,
// equivalent to h.Poll(EventOut).Has(EventOut).
func Writable(h Handle) bool {
	return h.Poll(EventOut).Has(EventOut)
}

// Tell returns the current position of h, equivalent to
// h.Seek(0, io.SeekCurrent).
func Tell(h Handle) (int64, error) {
	return h.Seek(0, io.SeekCurrent)
}

// Rewind moves the position of h back to the start, discarding the
// resulting offset.
func Rewind(h Handle) {
	h.Seek(0, io.SeekStart)
}

// Size returns the size of h by seeking to its end and back.
func Size(h Handle) (int64, error) {
	off, err := h.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := h.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := h.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return end, nil
}
