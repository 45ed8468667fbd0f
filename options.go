// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

package devio

// Option configures a DeviceHandle.
type Option struct {
	f func(*options)
}

type options struct {
	nonblocking bool
	asyncSigio  bool
	name        string
}

// WithNonBlocking creates the handle in non-blocking mode instead of
// the blocking default. The mode can still be changed later through
// SetBlocking.
func WithNonBlocking() Option {
	return Option{func(op *options) {
		op.nonblocking = true
	}}
}

// WithAsyncSigio delivers sigio callbacks on the shared goroutine pool
// instead of inline in the notifier's context. Use it when a callback
// does more than flag state for later, so that it cannot slow down the
// device's event delivery.
func WithAsyncSigio() Option {
	return Option{func(op *options) {
		op.asyncSigio = true
	}}
}

// WithName attaches a name to the handle, used in log lines.
func WithName(name string) Option {
	return Option{func(op *options) {
		op.name = name
	}}
}
