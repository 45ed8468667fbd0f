// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

package devio

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Sentinel errors returned by handles and devices. Read returning
// (0, io.EOF) denotes end of stream and is not an error condition.
var (
	// ErrWouldBlock reports that the operation can make no progress
	// without waiting. It is retried inside blocking-mode loops and
	// surfaced verbatim in non-blocking mode.
	ErrWouldBlock = devError{error: errors.New("devio: operation would block"), temporary: true}
	// ErrClosed reports that the handle has been closed. A blocked
	// reader or writer is released with this error by Close.
	ErrClosed = devError{error: errors.New("devio: handle is closed")}
	// ErrNotSupported reports that the handle does not implement the
	// requested operation, e.g. SetBlocking on a fixed-mode handle.
	ErrNotSupported = devError{error: errors.New("devio: operation not supported")}
	// ErrTooLong reports a datagram payload larger than the device
	// can ever accept in one transfer.
	ErrTooLong = devError{error: errors.New("devio: message too long")}
)

// devError carries the net.Error-style Timeout/Temporary split so
// callers can classify failures without matching error strings.
type devError struct {
	error
	timeout   bool
	temporary bool
}

// Timeout returns whether the error is caused by timeout.
func (e devError) Timeout() bool {
	return e.timeout
}

// Temporary returns whether the error is temporary.
func (e devError) Temporary() bool {
	return e.temporary
}

// IsWouldBlock reports whether err means "no progress possible without
// waiting". Both ErrWouldBlock and a raw unix.EAGAIN/EWOULDBLOCK from a
// syscall-backed device satisfy it, so drivers may return errno values
// unwrapped.
func IsWouldBlock(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrWouldBlock) ||
		errors.Is(err, unix.EAGAIN) ||
		errors.Is(err, unix.EWOULDBLOCK)
}
