// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

//go:build linux
// +build linux

package poller

import (
	"os"
	"sync"

	"github.com/devio-io/devio/log"
	"github.com/devio-io/devio/metrics"
	"golang.org/x/sys/unix"
)

const (
	// Edge-triggered registration: transitions are reported once and
	// the consumer drains until EAGAIN, which matches the accumulated
	// event model of the blocking-emulation engine.
	epollFlags = unix.EPOLLIN | unix.EPOLLOUT | unix.EPOLLRDHUP |
		unix.EPOLLHUP | unix.EPOLLERR | unix.EPOLLET

	defaultEventCount = 64
)

type epoll struct {
	fd     int
	wakeFD int

	mu     sync.Mutex
	descs  map[int32]*Desc
	closed bool
}

// NewWatcher creates an epoll-backed watcher and starts its loop.
func NewWatcher() (Watcher, error) {
	// Provide EPOLL_CLOEXEC/EFD_CLOEXEC for consistency with the Go
	// runtime.
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}
	wakeFD, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("eventfd", err)
	}
	w := &epoll{
		fd:     fd,
		wakeFD: wakeFD,
		descs:  make(map[int32]*Desc),
	}
	if err := unix.EpollCtl(fd, unix.EPOLL_CTL_ADD, wakeFD, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(wakeFD),
	}); err != nil {
		unix.Close(wakeFD)
		unix.Close(fd)
		return nil, os.NewSyscallError("epoll_ctl", err)
	}
	go w.wait()
	return w, nil
}

// Add implements Watcher.
func (w *epoll) Add(d *Desc) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return unix.EBADF
	}
	w.descs[int32(d.FD)] = d
	w.mu.Unlock()
	return os.NewSyscallError("epoll_ctl", unix.EpollCtl(w.fd, unix.EPOLL_CTL_ADD, d.FD, &unix.EpollEvent{
		Events: epollFlags,
		Fd:     int32(d.FD),
	}))
}

// Del implements Watcher.
func (w *epoll) Del(d *Desc) error {
	w.mu.Lock()
	delete(w.descs, int32(d.FD))
	w.mu.Unlock()
	return os.NewSyscallError("epoll_ctl", unix.EpollCtl(w.fd, unix.EPOLL_CTL_DEL, d.FD, nil))
}

// Close implements Watcher.
func (w *epoll) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	var one [8]byte
	one[0] = 1
	_, err := unix.Write(w.wakeFD, one[:])
	return os.NewSyscallError("write", err)
}

func (w *epoll) wait() {
	events := make([]unix.EpollEvent, defaultEventCount)
	for {
		n, err := unix.EpollWait(w.fd, events, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			log.Errorf("devio poller: epoll_wait: %v", err)
			return
		}
		for i := 0; i < n; i++ {
			ev := &events[i]
			if int(ev.Fd) == w.wakeFD {
				w.shutdown()
				return
			}
			w.dispatch(ev.Fd, translateEpoll(ev.Events))
		}
	}
}

func (w *epoll) dispatch(fd int32, events uint32) {
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

func (w *epoll) shutdown() {
	w.mu.Lock()
	w.descs = make(map[int32]*Desc)
	w.mu.Unlock()
	unix.Close(w.wakeFD)
	unix.Close(w.fd)
}

func translateEpoll(raw uint32) uint32 {
	var events uint32
	if raw&(unix.EPOLLIN|unix.EPOLLPRI) != 0 {
		events |= In
	}
	if raw&unix.EPOLLOUT != 0 {
		events |= Out
	}
	if raw&unix.EPOLLERR != 0 {
		events |= Err
	}
	if raw&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		events |= Hup | In
	}
	return events
}
