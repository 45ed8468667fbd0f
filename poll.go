// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

package devio

import (
	"sync"
	"time"

	"github.com/devio-io/devio/metrics"
)

// PollFD pairs a handle with the events of interest for one Poll call.
// Revents is filled in by Poll.
type PollFD struct {
	Handle   Handle
	Interest Events
	Revents  Events
}

// There is a single wake broadcast for the whole process, shared by
// every handle. Blocked Poll callers are few and rescans are cheap, so
// the spurious wakeups this causes are preferred over per-call wait
// lists.
var (
	pollMu sync.Mutex
	pollCh = make(chan struct{})
)

// pollGeneration returns the current broadcast channel. Callers must
// snapshot it before arming handles: a wake raced during the scan then
// shows up as the snapshot being closed already.
func pollGeneration() chan struct{} {
	pollMu.Lock()
	ch := pollCh
	pollMu.Unlock()
	return ch
}

// wakePoll releases every Poll caller currently waiting.
func wakePoll() {
	pollMu.Lock()
	close(pollCh)
	pollCh = make(chan struct{})
	pollMu.Unlock()
	metrics.Add(metrics.PollWakes, 1)
}

// Poll waits for one of the requested events to become true on any of
// the given handles, filling in Revents and returning the number of
// handles with a non-zero result. EventErr, EventHup and EventNval are
// always implicitly of interest. A nil Handle reports EventNval.
//
// timeout < 0 blocks until an event occurs, timeout == 0 performs a
// single non-blocking scan, and a positive timeout bounds the wait.
//
// Handles answering EventNval from PollWithWake lack wake support; as
// soon as one is seen the scan falls back to 1ms compatibility polling
// for the rest of the call.
func Poll(fds []PollFD, timeout time.Duration) int {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	wakeSupported := true
	for {
		ch := pollGeneration()
		count := 0
		for i := range fds {
			fd := &fds[i]
			if fd.Handle == nil {
				fd.Revents = EventNval
				count++
				continue
			}
			mask := fd.Interest | EventErr | EventHup | EventNval
			var r Events
			if wakeSupported {
				r = fd.Handle.PollWithWake(mask, count == 0 && timeout != 0)
				if r.Has(EventNval) {
					// No wake support on this handle; demote the whole
					// call to timed polling.
					wakeSupported = false
					metrics.Add(metrics.PollFallbacks, 1)
				}
			}
			if !wakeSupported {
				r = fd.Handle.Poll(mask)
			}
			fd.Revents = r & mask
			if fd.Revents != 0 {
				count++
			}
		}
		if count > 0 || timeout == 0 {
			return count
		}

		if wakeSupported {
			metrics.Add(metrics.PollWaits, 1)
			if timeout < 0 {
				<-ch
				continue
			}
			remaining := time.Until(deadline)
			if remaining <= 0 {
				timeout = 0 // final rescan
				continue
			}
			t := time.NewTimer(remaining)
			select {
			case <-ch:
				t.Stop()
			case <-t.C:
				timeout = 0 // final rescan
			}
			continue
		}

		// Compatibility path: 1ms polling for handles that cannot arm
		// wakes.
		if timeout > 0 && !time.Now().Before(deadline) {
			return count
		}
		time.Sleep(time.Millisecond)
	}
}
