// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

//go:build freebsd || dragonfly || darwin
// +build freebsd dragonfly darwin

package poller

import (
	"os"
	"sync"

	"github.com/devio-io/devio/log"
	"github.com/devio-io/devio/metrics"
	"golang.org/x/sys/unix"
)

const defaultEventCount = 64

type kqueue struct {
	fd int

	mu     sync.Mutex
	descs  map[int]*Desc
	closed bool
}

// NewWatcher creates a kqueue-backed watcher and starts its loop.
func NewWatcher() (Watcher, error) {
	kqueueFD, err := unix.Kqueue()
	if err != nil {
		return nil, os.NewSyscallError("kqueue", err)
	}
	// Provide FD_CLOEXEC for consistency with the Go runtime.
	if _, err := unix.FcntlInt(uintptr(kqueueFD), unix.F_SETFD, unix.FD_CLOEXEC); err != nil {
		unix.Close(kqueueFD)
		return nil, err
	}
	if _, err := unix.Kevent(kqueueFD, []unix.Kevent_t{
		kevent(0, unix.EVFILT_USER, unix.EV_ADD|unix.EV_CLEAR),
	}, nil, nil); err != nil {
		unix.Close(kqueueFD)
		return nil, os.NewSyscallError("kevent add|clear", err)
	}
	w := &kqueue{
		fd:    kqueueFD,
		descs: make(map[int]*Desc),
	}
	go w.wait()
	return w, nil
}

// Add implements Watcher.
func (w *kqueue) Add(d *Desc) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return unix.EBADF
	}
	w.descs[d.FD] = d
	w.mu.Unlock()
	_, err := unix.Kevent(w.fd, []unix.Kevent_t{
		kevent(d.FD, unix.EVFILT_READ, unix.EV_ADD|unix.EV_CLEAR),
		kevent(d.FD, unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_CLEAR),
	}, nil, nil)
	return os.NewSyscallError("kevent", err)
}

// Del implements Watcher.
func (w *kqueue) Del(d *Desc) error {
	w.mu.Lock()
	delete(w.descs, d.FD)
	w.mu.Unlock()
	_, err := unix.Kevent(w.fd, []unix.Kevent_t{
		kevent(d.FD, unix.EVFILT_READ, unix.EV_DELETE),
		kevent(d.FD, unix.EVFILT_WRITE, unix.EV_DELETE),
	}, nil, nil)
	return os.NewSyscallError("kevent", err)
}

// Close implements Watcher.
func (w *kqueue) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	trigger := kevent(0, unix.EVFILT_USER, 0)
	trigger.Fflags = unix.NOTE_TRIGGER
	_, err := unix.Kevent(w.fd, []unix.Kevent_t{trigger}, nil, nil)
	return os.NewSyscallError("kevent", err)
}

// kevent builds a Kevent_t portably across the per-arch field widths.
func kevent(fd int, filter, flags int) unix.Kevent_t {
	var ev unix.Kevent_t
	unix.SetKevent(&ev, fd, filter, flags)
	return ev
}

func (w *kqueue) wait() {
	events := make([]unix.Kevent_t, defaultEventCount)
	for {
		n, err := unix.Kevent(w.fd, nil, events, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			log.Errorf("devio poller: kevent: %v", err)
			return
		}
		for i := 0; i < n; i++ {
			ev := &events[i]
			if ev.Filter == unix.EVFILT_USER {
				w.shutdown()
				return
			}
			w.dispatch(int(ev.Ident), translateKevent(ev))
		}
	}
}

func (w *kqueue) dispatch(fd int, events uint32) {
	if events == 0 {
		return
	}
	w.mu.Lock()
	d := w.descs[fd]
	w.mu.Unlock()
	if d == nil || d.OnEvent == nil {
		return
	}
	metrics.Add(metrics.FDEvents, 1)
	d.OnEvent(events)
}

func (w *kqueue) shutdown() {
	w.mu.Lock()
	w.descs = make(map[int]*Desc)
	w.mu.Unlock()
	unix.Close(w.fd)
}

func translateKevent(ev *unix.Kevent_t) uint32 {
	var events uint32
	switch ev.Filter {
	case unix.EVFILT_READ:
		events |= In
	case unix.EVFILT_WRITE:
		events |= Out
	}
	if ev.Flags&unix.EV_EOF != 0 {
		events |= Hup | In
	}
	if ev.Flags&unix.EV_ERROR != 0 {
		events |= Err
	}
	return events
}
