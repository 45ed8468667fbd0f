// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

//go:build linux || freebsd || dragonfly || darwin
// +build linux freebsd dragonfly darwin

// Package poller runs a single background event loop (epoll on Linux,
// kqueue on the BSDs) that watches registered file descriptors and
// reports readiness transitions through a callback. It is the event
// source behind the fd-backed device driver.
package poller

import (
	"sync"
)

// Readiness bits reported to Desc.OnEvent.
const (
	In uint32 = 1 << iota
	Out
	Err
	Hup
)

// Desc registers a file descriptor with the poller. OnEvent is called
// from the poll loop goroutine on every readiness transition; it must
// not block the loop.
type Desc struct {
	FD      int
	OnEvent func(events uint32)
}

// Watcher monitors descriptors until closed.
type Watcher interface {
	// Add registers d. The descriptor must already be non-blocking.
	Add(d *Desc) error

	// Del removes d from the watch set.
	Del(d *Desc) error

	// Close stops the poll loop and releases the watcher.
	Close() error
}

var (
	defaultOnce    sync.Once
	defaultWatcher Watcher
	defaultErr     error
)

// Default returns the lazily created process-wide watcher.
func Default() (Watcher, error) {
	defaultOnce.Do(func() {
		defaultWatcher, defaultErr = NewWatcher()
	})
	return defaultWatcher, defaultErr
}
