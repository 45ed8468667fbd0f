// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

package devio

// Base supplies the documented default behavior for every optional
// Handle operation, so that concrete handles embed it and implement
// only what they support. A Base on its own is inert: Read, Write and
// Seek all report ErrNotSupported.
type Base struct{}

// Read implements Handle.
func (Base) Read(p []byte) (int, error) {
	return 0, ErrNotSupported
}

// Write implements Handle.
func (Base) Write(p []byte) (int, error) {
	return 0, ErrNotSupported
}

// Seek implements Handle.
func (Base) Seek(offset int64, whence int) (int64, error) {
	return 0, ErrNotSupported
}

// Close implements Handle.
func (Base) Close() error {
	return nil
}

// Sync implements Handle. The default is a successful no-op.
func (Base) Sync() error {
	return nil
}

// IsTTY implements Handle. The default is false.
func (Base) IsTTY() bool {
	return false
}

// SetBlocking implements Handle. The default mode is fixed, so the
// default implementation fails with ErrNotSupported.
func (Base) SetBlocking(blocking bool) error {
	return ErrNotSupported
}

// Poll implements Handle. The default reports the handle as always
// ready in both directions, which suits trivially-ready handles such
// as regular files. It is a placeholder, not a guarantee: handles with
// real blocking concerns must override it.
func (Base) Poll(interest Events) Events {
	return EventIn | EventOut
}

// PollWithWake implements Handle. The default reports EventNval:
// handles predating wake support cannot arm notifications.
func (Base) PollWithWake(interest Events, wake bool) Events {
	return EventNval
}

// Sigio implements Handle. The default discards the callback, which is
// correct for handles that never change readiness state.
func (Base) Sigio(fn func()) {}
