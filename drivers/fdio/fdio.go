// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

//go:build linux || freebsd || dragonfly || darwin
// +build linux freebsd dragonfly darwin

// Package fdio exposes a unix file descriptor as a devio device
// handle. The descriptor is switched to non-blocking mode and
// registered with the background poller, whose readiness transitions
// feed the handle's Notify hook; the blocking-emulation engine then
// provides POSIX blocking semantics on top, independent of the
// descriptor's own mode.
//
// Regular files are treated as trivially ready: they never enter the
// poller and poll unconditionally as readable and writable.
package fdio

import (
	"io"
	"os"

	"github.com/devio-io/devio"
	"github.com/devio-io/devio/internal/poller"
	"github.com/devio-io/devio/metrics"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Option configures an fd device.
type Option func(*config)

type config struct {
	datagram bool
	name     string
}

// WithDatagram marks the descriptor as message-oriented (for example a
// connected SOCK_DGRAM socket): blocking writes then never split a
// payload across transfers.
func WithDatagram() Option {
	return func(c *config) {
		c.datagram = true
	}
}

// WithName attaches a name to the handle, used in log lines.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// Open wraps fd in a device handle. Ownership of fd passes with the
// call: closing the handle closes the descriptor, and a failed Open
// closes it as well.
func Open(fd int, opts ...Option) (*devio.DeviceHandle, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("fstat", err)
	}
	d := &device{
		fd:       fd,
		datagram: cfg.datagram,
		regular:  st.Mode&unix.S_IFMT == unix.S_IFREG,
	}
	if !d.regular {
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(fd)
			return nil, os.NewSyscallError("set nonblock", err)
		}
		w, err := poller.Default()
		if err != nil {
			unix.Close(fd)
			return nil, errors.Wrap(err, "fdio: poller")
		}
		d.watcher = w
		d.desc = &poller.Desc{FD: fd, OnEvent: d.onEvent}
	}
	var hopts []devio.Option
	if cfg.name != "" {
		hopts = append(hopts, devio.WithName(cfg.name))
	}
	h := devio.NewDeviceHandle(d, hopts...)
	d.handle = h
	if d.desc != nil {
		if err := d.watcher.Add(d.desc); err != nil {
			// Tears the handle down through the normal path, which
			// closes the descriptor and balances the lifecycle
			// counters.
			h.Close()
			return nil, errors.Wrap(err, "fdio: register fd")
		}
	}
	return h, nil
}

type device struct {
	fd       int
	datagram bool
	regular  bool
	watcher  poller.Watcher
	desc     *poller.Desc
	handle   *devio.DeviceHandle
}

// onEvent runs on the poll loop goroutine; it only forwards the
// translated mask into the engine's notify path.
func (d *device) onEvent(raw uint32) {
	var ev devio.Events
	if raw&poller.In != 0 {
		ev |= devio.EventIn
	}
	if raw&poller.Out != 0 {
		ev |= devio.EventOut
	}
	if raw&poller.Err != 0 {
		ev |= devio.EventErr
	}
	if raw&poller.Hup != 0 {
		ev |= devio.EventHup
	}
	d.handle.Notify(ev)
}

// TryRead implements devio.Device.
func (d *device) TryRead(p []byte) (int, error) {
	metrics.Add(metrics.FDReadCalls, 1)
	n, err := unix.Read(d.fd, p)
	if err != nil {
		return 0, err
	}
	if n == 0 && !d.datagram && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// TryWrite implements devio.Device.
func (d *device) TryWrite(p []byte) (int, error) {
	metrics.Add(metrics.FDWriteCalls, 1)
	n, err := unix.Write(d.fd, p)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// IsStream implements devio.Device.
func (d *device) IsStream() bool {
	return !d.datagram
}

// Poll implements devio.Device with a zero-timeout poll syscall.
func (d *device) Poll(interest devio.Events) devio.Events {
	if d.regular {
		return devio.EventIn | devio.EventOut
	}
	pfd := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN | unix.POLLOUT}}
	if n, err := unix.Poll(pfd, 0); err != nil {
		return devio.EventErr
	} else if n == 0 {
		return 0
	}
	var ev devio.Events
	revents := pfd[0].Revents
	if revents&unix.POLLIN != 0 {
		ev |= devio.EventIn
	}
	if revents&unix.POLLOUT != 0 {
		ev |= devio.EventOut
	}
	if revents&unix.POLLERR != 0 {
		ev |= devio.EventErr
	}
	if revents&unix.POLLHUP != 0 {
		ev |= devio.EventHup | devio.EventIn
	}
	if revents&unix.POLLNVAL != 0 {
		ev |= devio.EventNval
	}
	return ev
}

// Seek implements io.Seeker for seekable descriptors; the kernel
// reports ESPIPE for the rest.
func (d *device) Seek(offset int64, whence int) (int64, error) {
	off, err := unix.Seek(d.fd, offset, whence)
	if err != nil {
		return 0, os.NewSyscallError("lseek", err)
	}
	return off, nil
}

// Sync implements the device sync capability.
func (d *device) Sync() error {
	return os.NewSyscallError("fsync", unix.Fsync(d.fd))
}

// IsTTY implements the device tty capability.
func (d *device) IsTTY() bool {
	_, err := unix.IoctlGetTermios(d.fd, ioctlReadTermios)
	return err == nil
}

// Close implements io.Closer; the engine calls it on handle close.
func (d *device) Close() error {
	if d.desc != nil {
		d.watcher.Del(d.desc)
	}
	return os.NewSyscallError("close", unix.Close(d.fd))
}
