// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

//go:build linux || freebsd || dragonfly || darwin
// +build linux freebsd dragonfly darwin

package fdio_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devio-io/devio"
	"github.com/devio-io/devio/drivers/fdio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const waitTimeout = 2 * time.Second

func socketPair(t *testing.T) (*devio.DeviceHandle, *devio.DeviceHandle) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	a, err := fdio.Open(fds[0], fdio.WithName("sock-a"))
	require.NoError(t, err)
	b, err := fdio.Open(fds[1], fdio.WithName("sock-b"))
	require.NoError(t, err)
	return a, b
}

func TestSocketRoundTrip(t *testing.T) {
	a, b := socketPair(t)
	defer a.Close()
	defer b.Close()

	n, err := a.Write([]byte("over the wire"))
	require.NoError(t, err)
	assert.Equal(t, 13, n)

	buf := make([]byte, 64)
	n, err = b.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "over the wire", string(buf[:n]))
}

func TestSocketBlockingReadWokenByPeer(t *testing.T) {
	a, b := socketPair(t)
	defer a.Close()
	defer b.Close()

	got := make(chan string, 1)
	go func() {
		buf := make([]byte, 16)
		n, err := b.Read(buf)
		if err != nil {
			got <- err.Error()
			return
		}
		got <- string(buf[:n])
	}()

	time.Sleep(10 * time.Millisecond)
	_, err := a.Write([]byte("wake"))
	require.NoError(t, err)

	select {
	case s := <-got:
		assert.Equal(t, "wake", s)
	case <-time.After(waitTimeout):
		t.Fatal("reader was not woken by peer data")
	}
}

func TestSocketNonBlockingRead(t *testing.T) {
	a, b := socketPair(t)
	defer a.Close()
	defer b.Close()

	require.NoError(t, b.SetBlocking(false))
	_, err := b.Read(make([]byte, 8))
	assert.True(t, devio.IsWouldBlock(err))
}

func TestSocketPeerCloseDeliversEOF(t *testing.T) {
	a, b := socketPair(t)
	defer b.Close()

	done := make(chan error, 1)
	go func() {
		_, err := b.Read(make([]byte, 8))
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, a.Close())

	select {
	case err := <-done:
		assert.Equal(t, io.EOF, err)
	case <-time.After(waitTimeout):
		t.Fatal("peer close did not release the blocked reader")
	}
}

func TestSocketPollReadiness(t *testing.T) {
	a, b := socketPair(t)
	defer a.Close()
	defer b.Close()

	assert.False(t, b.Poll(devio.AllEvents).Has(devio.EventIn))
	assert.True(t, b.Poll(devio.AllEvents).Has(devio.EventOut))

	_, err := a.Write([]byte("x"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return b.Poll(devio.AllEvents).Has(devio.EventIn)
	}, waitTimeout, time.Millisecond)
}

func TestSocketPollMultiplexer(t *testing.T) {
	a, b := socketPair(t)
	defer a.Close()
	defer b.Close()

	fds := []devio.PollFD{{Handle: b, Interest: devio.EventIn}}
	done := make(chan int, 1)
	go func() {
		done <- devio.Poll(fds, -1)
	}()

	time.Sleep(10 * time.Millisecond)
	_, err := a.Write([]byte("go"))
	require.NoError(t, err)

	select {
	case n := <-done:
		assert.Equal(t, 1, n)
		assert.True(t, fds[0].Revents.Has(devio.EventIn))
	case <-time.After(waitTimeout):
		t.Fatal("poll over socketpair did not wake")
	}
}

func TestOpenInvalidDescriptor(t *testing.T) {
	_, err := fdio.Open(-1)
	assert.Error(t, err)

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	require.NoError(t, unix.Close(fds[0]))
	defer unix.Close(fds[1])

	_, err = fdio.Open(fds[0])
	assert.Error(t, err)
}

func TestRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(path, []byte("file contents"), 0o600))

	fd, err := unix.Open(path, unix.O_RDWR, 0)
	require.NoError(t, err)
	h, err := fdio.Open(fd, fdio.WithName("regular"))
	require.NoError(t, err)
	defer h.Close()

	// Regular files are trivially ready.
	assert.Equal(t, devio.EventIn|devio.EventOut, h.Poll(devio.AllEvents))
	assert.False(t, h.IsTTY())

	buf := make([]byte, 4)
	n, err := h.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "file", string(buf[:n]))

	size, err := devio.Size(h)
	require.NoError(t, err)
	assert.Equal(t, int64(13), size)

	// Size must not disturb the read position.
	pos, err := devio.Tell(h)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)

	_, err = h.Seek(0, io.SeekStart)
	require.NoError(t, err)
	n, err = h.Write([]byte("FILE"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	require.NoError(t, h.Sync())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "FILE contents", string(got))
}

func TestRegularFileEOF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	require.NoError(t, err)
	h, err := fdio.Open(fd)
	require.NoError(t, err)
	defer h.Close()

	_, err = h.Read(make([]byte, 4))
	assert.Equal(t, io.EOF, err)
}

func TestStreamOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log")
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0o600)
	require.NoError(t, err)
	h, err := fdio.Open(fd)
	require.NoError(t, err)

	s, err := devio.OpenStream(h, "w+")
	require.NoError(t, err)
	_, err = s.Write([]byte("buffered line\n"))
	require.NoError(t, err)
	require.NoError(t, s.Flush())

	_, err = s.Seek(0, io.SeekStart)
	require.NoError(t, err)
	buf := make([]byte, 32)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "buffered line\n", string(buf[:n]))
	require.NoError(t, s.Close())
}
