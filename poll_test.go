// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

package devio_test

import (
	"testing"
	"time"

	"github.com/devio-io/devio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollImmediateReady(t *testing.T) {
	d := &fakeDevice{stream: true}
	d.setPoll(devio.EventIn)
	h := devio.NewDeviceHandle(d)
	defer h.Close()

	fds := []devio.PollFD{{Handle: h, Interest: devio.EventIn}}
	n := devio.Poll(fds, -1)
	assert.Equal(t, 1, n)
	assert.Equal(t, devio.EventIn, fds[0].Revents)
}

func TestPollZeroTimeoutScansOnce(t *testing.T) {
	d := &fakeDevice{stream: true}
	h := devio.NewDeviceHandle(d)
	defer h.Close()

	fds := []devio.PollFD{{Handle: h, Interest: devio.EventIn}}
	start := time.Now()
	n := devio.Poll(fds, 0)
	assert.Zero(t, n)
	assert.Zero(t, fds[0].Revents)
	assert.Less(t, time.Since(start), waitTimeout)
}

func TestPollTimeoutExpires(t *testing.T) {
	d := &fakeDevice{stream: true}
	h := devio.NewDeviceHandle(d)
	defer h.Close()

	fds := []devio.PollFD{{Handle: h, Interest: devio.EventIn}}
	start := time.Now()
	n := devio.Poll(fds, 30*time.Millisecond)
	assert.Zero(t, n)
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestPollWokenByNotify(t *testing.T) {
	d := &fakeDevice{stream: true}
	h := devio.NewDeviceHandle(d)
	defer h.Close()

	done := make(chan int, 1)
	fds := []devio.PollFD{{Handle: h, Interest: devio.EventIn}}
	go func() {
		done <- devio.Poll(fds, -1)
	}()

	// Give the poller a moment to arm, then make the handle readable.
	time.Sleep(10 * time.Millisecond)
	d.setPoll(devio.EventIn)
	h.Notify(devio.EventIn)

	select {
	case n := <-done:
		assert.Equal(t, 1, n)
		assert.Equal(t, devio.EventIn, fds[0].Revents)
	case <-time.After(waitTimeout):
		t.Fatal("poll was not woken by notify")
	}
}

func TestPollSecondHandleWakes(t *testing.T) {
	d1 := &fakeDevice{stream: true}
	d2 := &fakeDevice{stream: true}
	h1 := devio.NewDeviceHandle(d1)
	defer h1.Close()
	h2 := devio.NewDeviceHandle(d2)
	defer h2.Close()

	fds := []devio.PollFD{
		{Handle: h1, Interest: devio.EventIn},
		{Handle: h2, Interest: devio.EventIn},
	}
	done := make(chan int, 1)
	go func() {
		done <- devio.Poll(fds, -1)
	}()

	time.Sleep(10 * time.Millisecond)
	d2.setPoll(devio.EventIn)
	h2.Notify(devio.EventIn)

	select {
	case n := <-done:
		assert.Equal(t, 1, n)
		assert.Zero(t, fds[0].Revents)
		assert.Equal(t, devio.EventIn, fds[1].Revents)
	case <-time.After(waitTimeout):
		t.Fatal("poll was not woken by the second handle")
	}
}

func TestPollNilHandleReportsNval(t *testing.T) {
	fds := []devio.PollFD{{Handle: nil, Interest: devio.EventIn}}
	n := devio.Poll(fds, -1)
	assert.Equal(t, 1, n)
	assert.Equal(t, devio.EventNval, fds[0].Revents)
}

func TestPollErrorConditionsAlwaysReported(t *testing.T) {
	d := &fakeDevice{stream: true}
	d.setPoll(devio.EventHup)
	h := devio.NewDeviceHandle(d)
	defer h.Close()

	// Hup is reported even though only In was requested.
	fds := []devio.PollFD{{Handle: h, Interest: devio.EventIn}}
	n := devio.Poll(fds, -1)
	assert.Equal(t, 1, n)
	assert.Equal(t, devio.EventHup, fds[0].Revents)
}

// legacyHandle has no wake support: PollWithWake answers EventNval and
// Poll inherits the always-ready default.
type legacyHandle struct {
	devio.Base
}

func TestPollFallbackForHandlesWithoutWake(t *testing.T) {
	fds := []devio.PollFD{{Handle: &legacyHandle{}, Interest: devio.EventIn}}
	n := devio.Poll(fds, -1)
	assert.Equal(t, 1, n)
	assert.Equal(t, devio.EventIn, fds[0].Revents)
}

// idleLegacyHandle has neither wake support nor pending events, forcing
// the timed compatibility path to run to its deadline.
type idleLegacyHandle struct {
	devio.Base
}

func (*idleLegacyHandle) Poll(interest devio.Events) devio.Events { return 0 }

func TestPollFallbackHonorsTimeout(t *testing.T) {
	fds := []devio.PollFD{{Handle: &idleLegacyHandle{}, Interest: devio.EventIn}}
	start := time.Now()
	n := devio.Poll(fds, 20*time.Millisecond)
	assert.Zero(t, n)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestPollClosedHandleReportsNval(t *testing.T) {
	d := &fakeDevice{stream: true}
	h := devio.NewDeviceHandle(d)
	require.NoError(t, h.Close())

	fds := []devio.PollFD{{Handle: h, Interest: devio.EventIn}}
	n := devio.Poll(fds, -1)
	assert.Equal(t, 1, n)
	assert.Equal(t, devio.EventNval, fds[0].Revents)
}
