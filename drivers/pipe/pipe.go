// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

// Package pipe provides an in-memory duplex pipe whose two ends are
// devio device handles. Each direction runs through a fixed-capacity
// buffer, so writers see genuine back-pressure and readers see genuine
// would-block conditions; the package is the reference driver for the
// blocking-emulation engine and a convenient transport for tests.
package pipe

import (
	"io"
	"sync"

	"github.com/devio-io/devio"
	"github.com/devio-io/devio/internal/ringbuf"
	"github.com/eapache/queue"
	"golang.org/x/sys/unix"
)

const defaultQueueDepth = 16

// Option configures a pipe.
type Option func(*config)

type config struct {
	datagram   bool
	queueDepth int
	name       string
}

// Datagram gives the pipe message semantics: every write is delivered
// whole or not at all, and the capacity argument of New bounds the
// size of a single message instead of the byte backlog.
func Datagram() Option {
	return func(c *config) {
		c.datagram = true
	}
}

// QueueDepth bounds the number of undelivered messages per direction
// of a datagram pipe. The default is 16.
func QueueDepth(n int) Option {
	return func(c *config) {
		c.queueDepth = n
	}
}

// Name attaches a name to both handles, used in log lines.
func Name(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// New creates a connected pair of handles. For a stream pipe, capacity
// is the buffered byte count per direction; for a datagram pipe it is
// the maximum message size.
func New(capacity int, opts ...Option) (*devio.DeviceHandle, *devio.DeviceHandle) {
	cfg := config{queueDepth: defaultQueueDepth}
	for _, opt := range opts {
		opt(&cfg)
	}
	a := newEndpoint(capacity, cfg)
	b := newEndpoint(capacity, cfg)
	a.peer, b.peer = b, a

	var hopts []devio.Option
	if cfg.name != "" {
		hopts = append(hopts, devio.WithName(cfg.name))
	}
	ha := devio.NewDeviceHandle(a, hopts...)
	hb := devio.NewDeviceHandle(b, hopts...)
	a.handle, b.handle = ha, hb
	return ha, hb
}

// endpoint is one end of the pipe. Its buffer holds the data readable
// at this end; the peer's TryWrite fills it. mu guards the buffer and
// the closed flag; Notify is always issued after mu is released so a
// sigio callback may reenter the pipe.
type endpoint struct {
	mu     sync.Mutex
	peer   *endpoint
	handle *devio.DeviceHandle
	closed bool

	// Stream transport.
	rb *ringbuf.Buffer

	// Datagram transport.
	datagram bool
	msgs     *queue.Queue
	maxMsg   int
	depth    int
}

func newEndpoint(capacity int, cfg config) *endpoint {
	e := &endpoint{datagram: cfg.datagram}
	if cfg.datagram {
		e.msgs = queue.New()
		e.maxMsg = capacity
		e.depth = cfg.queueDepth
	} else {
		e.rb = ringbuf.New(capacity)
	}
	return e
}

// IsStream implements devio.Device.
func (e *endpoint) IsStream() bool {
	return !e.datagram
}

// TryRead implements devio.Device. Reading frees space at this end, so
// it raises EventOut at the peer.
func (e *endpoint) TryRead(p []byte) (int, error) {
	// Sampled before the buffer check: the peer is the only producer
	// and its last write precedes its close, so "closed, then empty"
	// is a genuine end of stream while the reverse order could report
	// EOF past undelivered data.
	peerClosed := e.peer.isClosed()
	e.mu.Lock()
	if e.datagram {
		if e.msgs.Length() == 0 {
			e.mu.Unlock()
			if peerClosed {
				return 0, io.EOF
			}
			return 0, devio.ErrWouldBlock
		}
		msg := e.msgs.Remove().([]byte)
		n := copy(p, msg)
		e.mu.Unlock()
		e.peer.notify(devio.EventOut)
		return n, nil
	}
	if e.rb.Empty() {
		e.mu.Unlock()
		if peerClosed {
			return 0, io.EOF
		}
		return 0, devio.ErrWouldBlock
	}
	n := e.rb.Read(p)
	e.mu.Unlock()
	e.peer.notify(devio.EventOut)
	return n, nil
}

// TryWrite implements devio.Device. Writes land in the peer's buffer
// and raise EventIn there.
func (e *endpoint) TryWrite(p []byte) (int, error) {
	dst := e.peer
	dst.mu.Lock()
	if dst.closed {
		dst.mu.Unlock()
		return 0, unix.EPIPE
	}
	if e.datagram {
		if len(p) > dst.maxMsg {
			dst.mu.Unlock()
			return 0, devio.ErrTooLong
		}
		if dst.msgs.Length() >= dst.depth {
			dst.mu.Unlock()
			return 0, devio.ErrWouldBlock
		}
		msg := make([]byte, len(p))
		copy(msg, p)
		dst.msgs.Add(msg)
		dst.mu.Unlock()
		dst.notify(devio.EventIn)
		return len(p), nil
	}
	n := dst.rb.Write(p)
	dst.mu.Unlock()
	if n == 0 {
		return 0, devio.ErrWouldBlock
	}
	dst.notify(devio.EventIn)
	return n, nil
}

// Poll implements devio.Device. It is called from inside the engine's
// critical section, so it only takes the short endpoint lock.
func (e *endpoint) Poll(interest devio.Events) devio.Events {
	var ev devio.Events
	e.mu.Lock()
	if e.datagram {
		if e.msgs.Length() > 0 {
			ev |= devio.EventIn
		}
	} else if !e.rb.Empty() {
		ev |= devio.EventIn
	}
	e.mu.Unlock()

	e.peer.mu.Lock()
	if e.peer.closed {
		ev |= devio.EventHup
		// End of stream is readable state.
		ev |= devio.EventIn
	} else if e.datagram {
		if e.peer.msgs.Length() < e.peer.depth {
			ev |= devio.EventOut
		}
	} else if !e.peer.rb.Full() {
		ev |= devio.EventOut
	}
	e.peer.mu.Unlock()
	return ev
}

// Close implements io.Closer; the engine calls it when the handle is
// closed. The peer sees end of stream on read and EventHup on poll.
func (e *endpoint) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()
	e.peer.notify(devio.EventIn | devio.EventHup)
	return nil
}

func (e *endpoint) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// notify forwards events to the endpoint's handle once it is linked.
func (e *endpoint) notify(ev devio.Events) {
	if h := e.handle; h != nil {
		h.Notify(ev)
	}
}
