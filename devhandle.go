// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

package devio

import (
	"io"

	"github.com/devio-io/devio/internal/locker"
	"github.com/devio-io/devio/log"
	"github.com/devio-io/devio/metrics"
	"go.uber.org/atomic"
)

// Device is the set of primitives a concrete driver supplies to the
// blocking-emulation engine. All three methods must be callable from
// ordinary goroutine context; Poll additionally from within a short
// critical section, so it must not block or take unbounded locks.
//
// The driver must call DeviceHandle.Notify on every real hardware or
// software event; omitting a Notify leaves blocked consumers waiting
// indefinitely.
type Device interface {
	// TryRead reads whatever data is immediately available, returning
	// ErrWouldBlock (or a raw unix.EAGAIN) when there is none and
	// (0, io.EOF) at end of stream.
	TryRead(p []byte) (int, error)

	// TryWrite writes as much of p as the device immediately accepts,
	// returning ErrWouldBlock (or a raw unix.EAGAIN) when it accepts
	// nothing.
	TryWrite(p []byte) (int, error)

	// IsStream distinguishes byte-stream devices from datagram
	// devices. A blocking write on a stream device may be fulfilled by
	// several TryWrite attempts; on a datagram device one logical
	// write maps to exactly one accepted transfer.
	IsStream() bool

	// Poll returns the subset of interest currently true. Never blocks.
	Poll(interest Events) Events
}

// Optional device capabilities, discovered by interface assertion.
// A device may additionally implement io.Seeker, io.Closer,
// deviceSyncer or deviceTTY to enrich the handle surface.
type (
	deviceSyncer interface{ Sync() error }
	deviceTTY    interface{ IsTTY() bool }
)

const (
	// inputEvents are the bits that release a blocked reader.
	inputEvents = EventIn | EventErr
	// outputEvents are the bits that release a blocked writer.
	outputEvents = EventOut | EventHup | EventErr
)

// DeviceHandle composes a Device's non-blocking primitives and its
// Notify calls into a full dual-mode Handle: blocking and non-blocking
// read/write, poll with wake arming, and sigio callbacks.
//
// DeviceHandle creates no goroutines of its own. It coordinates at
// most one blocked reader and one blocked writer against one
// asynchronous notifier; the accumulated event bits and the sigio slot
// are the only state shared with the notifier, and both live behind a
// short spinlock critical section.
type DeviceHandle struct {
	dev  Device
	name string

	closer
	blocking   atomic.Bool
	asyncSigio bool

	// cs guards the accumulated sets, pollWake and sigioCB. It is the
	// critical section shared between consumer calls and Notify; hold
	// times must stay bounded because Notify may run in the driver's
	// async context.
	//
	// Each direction keeps its own accumulated set: EventErr belongs to
	// both, and a reader consuming its record must not destroy the
	// record the writer still needs.
	cs       locker.Locker
	accIn    Events
	accOut   Events
	pollWake Events
	sigioCB  func()

	// Direction triggers carry at most one pending token each; Notify
	// deposits a token together with the matching acc bits, so a
	// wakeup raced between check and wait is never lost.
	rxTrigger chan struct{}
	txTrigger chan struct{}
	done      chan struct{}
}

// DeviceHandle must implement Handle.
var _ Handle = (*DeviceHandle)(nil)

// NewDeviceHandle wraps dev in a blocking-emulation handle.
// The handle starts in blocking mode unless WithNonBlocking is given.
func NewDeviceHandle(dev Device, opts ...Option) *DeviceHandle {
	var o options
	for _, opt := range opts {
		opt.f(&o)
	}
	h := &DeviceHandle{
		dev:        dev,
		name:       o.name,
		asyncSigio: o.asyncSigio,
		rxTrigger:  make(chan struct{}, 1),
		txTrigger:  make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	h.blocking.Store(!o.nonblocking)
	metrics.Add(metrics.HandlesCreate, 1)
	return h
}

// Notify is the hook a driver calls on every real event, carrying the
// bits that changed. It wakes the matching blocked reader or writer,
// releases an armed Poll, and fires the registered sigio callback.
//
// Notify never blocks and tolerates both spurious calls and calls with
// no waiter present. It may run concurrently with any consumer call.
func (h *DeviceHandle) Notify(ev Events) {
	metrics.Add(metrics.NotifyCalls, 1)
	h.cs.Lock()
	if in := ev & inputEvents; in != 0 {
		h.accIn |= in
		select {
		case h.rxTrigger <- struct{}{}:
		default:
		}
	}
	if out := ev & outputEvents; out != 0 {
		h.accOut |= out
		select {
		case h.txTrigger <- struct{}{}:
		default:
		}
	}
	var pollFire bool
	if h.pollWake&ev != 0 {
		h.pollWake &^= ev
		pollFire = true
	}
	cb := h.sigioCB
	h.cs.Unlock()

	// The callback and the poll broadcast run outside the critical
	// section: both may take locks of their own.
	if pollFire {
		wakePoll()
	}
	if cb != nil {
		metrics.Add(metrics.SigioFires, 1)
		if h.asyncSigio {
			submitSigio(cb)
		} else {
			cb()
		}
	}
}

// Read reads up to len(p) bytes. In blocking mode it returns as soon
// as the device yields anything: the first non-would-block TryRead
// result, including a short count or (0, io.EOF), is final. It never
// loops to fill the buffer.
func (h *DeviceHandle) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if !h.beginJobSafely(apiRead) {
		return 0, ErrClosed
	}
	defer h.endJobSafely(apiRead)

	if !h.blocking.Load() {
		return normalize(h.dev.TryRead(p))
	}
	for {
		n, err := h.dev.TryRead(p)
		if !IsWouldBlock(err) {
			return n, err
		}
		if werr := h.wait(&h.accIn, h.rxTrigger, metrics.ReadWaits, metrics.ReadWakes); werr != nil {
			return 0, werr
		}
	}
}

// Write writes p. In blocking mode a stream device is driven until all
// of p is accepted or a real error occurs; a datagram device gets at
// most two TryWrite attempts so that one logical write is never split
// across transfers.
func (h *DeviceHandle) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if !h.beginJobSafely(apiWrite) {
		return 0, ErrClosed
	}
	defer h.endJobSafely(apiWrite)

	if !h.blocking.Load() {
		return normalize(h.dev.TryWrite(p))
	}
	if h.dev.IsStream() {
		return h.writeStream(p)
	}
	return h.writeDatagram(p)
}

// writeStream accumulates TryWrite results over the unwritten tail of
// p. Partial progress is never surfaced: the caller sees either the
// full count or the error that stopped the transfer.
func (h *DeviceHandle) writeStream(p []byte) (int, error) {
	var written int
	for written < len(p) {
		n, err := h.dev.TryWrite(p[written:])
		if err == nil {
			written += n
			continue
		}
		if !IsWouldBlock(err) {
			return 0, err
		}
		if werr := h.wait(&h.accOut, h.txTrigger, metrics.WriteWaits, metrics.WriteWakes); werr != nil {
			return 0, werr
		}
	}
	return written, nil
}

// writeDatagram performs at most two TryWrite attempts, waiting once
// for the output direction in between, and returns the second attempt
// verbatim. The payload is never split across attempts.
func (h *DeviceHandle) writeDatagram(p []byte) (int, error) {
	n, err := h.dev.TryWrite(p)
	if !IsWouldBlock(err) {
		return n, err
	}
	if werr := h.wait(&h.accOut, h.txTrigger, metrics.WriteWaits, metrics.WriteWakes); werr != nil {
		return 0, werr
	}
	return normalize(h.dev.TryWrite(p))
}

// wait suspends the calling direction until Notify signals it, or the
// handle is closed. acc is the direction's own accumulated set; its
// check, the arming clear and the decision to wait all happen inside
// the Notify critical section, so a bit set after arming is either
// observed here or has already deposited a trigger token.
func (h *DeviceHandle) wait(acc *Events, trigger chan struct{}, waitMetric, wakeMetric int) error {
	metrics.Add(waitMetric, 1)
	h.cs.Lock()
	if *acc != 0 {
		*acc = 0
		h.cs.Unlock()
		metrics.Add(wakeMetric, 1)
		return nil
	}
	// No pending bits for this direction: a leftover token belongs to
	// a record already consumed or cleared by PollWithWake arming,
	// drop it before waiting.
	select {
	case <-trigger:
	default:
	}
	h.cs.Unlock()

	select {
	case <-trigger:
		h.cs.Lock()
		*acc = 0
		h.cs.Unlock()
		metrics.Add(wakeMetric, 1)
		return nil
	case <-h.done:
		return ErrClosed
	}
}

// normalize maps raw would-block errnos from syscall-backed devices to
// the package sentinel, so callers match a single error value.
func normalize(n int, err error) (int, error) {
	if err != nil && IsWouldBlock(err) {
		return n, ErrWouldBlock
	}
	return n, err
}

// Seek delegates to the device when it is seekable.
func (h *DeviceHandle) Seek(offset int64, whence int) (int64, error) {
	if !h.beginJobSafely(apiCtrl) {
		return 0, ErrClosed
	}
	defer h.endJobSafely(apiCtrl)
	s, ok := h.dev.(io.Seeker)
	if !ok {
		return 0, ErrNotSupported
	}
	return s.Seek(offset, whence)
}

// Sync delegates to the device when it has anything to flush.
func (h *DeviceHandle) Sync() error {
	if !h.beginJobSafely(apiCtrl) {
		return ErrClosed
	}
	defer h.endJobSafely(apiCtrl)
	if s, ok := h.dev.(deviceSyncer); ok {
		return s.Sync()
	}
	return nil
}

// IsTTY delegates to the device; the default is false.
func (h *DeviceHandle) IsTTY() bool {
	if t, ok := h.dev.(deviceTTY); ok {
		return t.IsTTY()
	}
	return false
}

// SetBlocking switches between blocking and non-blocking mode.
func (h *DeviceHandle) SetBlocking(blocking bool) error {
	if !h.beginJobSafely(apiCtrl) {
		return ErrClosed
	}
	defer h.endJobSafely(apiCtrl)
	h.blocking.Store(blocking)
	return nil
}

// Poll returns the device's instantaneous readiness. A closed handle
// reports EventNval.
func (h *DeviceHandle) Poll(interest Events) Events {
	if h.closed() {
		return EventNval
	}
	return h.dev.Poll(interest)
}

// PollWithWake returns the device's instantaneous readiness and, if
// nothing in interest is true yet and wake is requested, arms the poll
// wake path: the accumulated interest bits are cleared and the next
// Notify carrying any of them broadcasts to blocked Poll callers. The
// readiness check and the arming share the Notify critical section.
func (h *DeviceHandle) PollWithWake(interest Events, wake bool) Events {
	if h.closed() {
		return EventNval
	}
	h.cs.Lock()
	r := h.dev.Poll(interest)
	if wake && r&interest == 0 {
		h.accIn &^= interest
		h.accOut &^= interest
		h.pollWake |= interest
	}
	h.cs.Unlock()
	return r
}

// Sigio registers fn as the handle's state-change callback, replacing
// any previous one; nil unregisters. If events are already pending
// when a callback is installed, it fires once immediately.
func (h *DeviceHandle) Sigio(fn func()) {
	if !h.beginJobSafely(apiCtrl) {
		return
	}
	defer h.endJobSafely(apiCtrl)
	h.cs.Lock()
	h.sigioCB = fn
	h.cs.Unlock()
	if fn == nil {
		return
	}
	if h.dev.Poll(AllEvents) != 0 {
		metrics.Add(metrics.SigioFires, 1)
		if h.asyncSigio {
			submitSigio(fn)
		} else {
			fn()
		}
	}
}

// Close closes the handle. Any blocked reader or writer is released
// immediately with ErrClosed, then the device itself is closed if it
// implements io.Closer. Close is safe to call multiple times
// concurrently; only the first call does the work.
func (h *DeviceHandle) Close() error {
	if !h.beginJobSafely(closeAll) {
		return nil
	}
	defer h.endJobSafely(closeAll)
	// Release blocked readers and writers first, then wait for them to
	// drain before barring new operations.
	close(h.done)
	h.closeAllJobs()
	h.cs.Lock()
	h.sigioCB = nil
	h.pollWake = 0
	h.cs.Unlock()
	// A Poll caller may be mid-wait on this handle; let it rescan and
	// observe EventNval.
	wakePoll()
	var err error
	if c, ok := h.dev.(io.Closer); ok {
		err = c.Close()
	}
	if err != nil {
		log.Debugf("devio: close %s: %v", h.logName(), err)
	}
	metrics.Add(metrics.HandlesClose, 1)
	return err
}

func (h *DeviceHandle) logName() string {
	if h.name != "" {
		return h.name
	}
	return "device handle"
}
