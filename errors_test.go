// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

package devio_test

import (
	"io"
	"testing"

	"github.com/devio-io/devio"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestIsWouldBlock(t *testing.T) {
	assert.True(t, devio.IsWouldBlock(devio.ErrWouldBlock))
	assert.True(t, devio.IsWouldBlock(unix.EAGAIN))
	assert.True(t, devio.IsWouldBlock(unix.EWOULDBLOCK))
	assert.True(t, devio.IsWouldBlock(errors.Wrap(devio.ErrWouldBlock, "ctx")))
	assert.True(t, devio.IsWouldBlock(errors.Wrap(unix.EAGAIN, "read")))
	assert.False(t, devio.IsWouldBlock(nil))
	assert.False(t, devio.IsWouldBlock(io.EOF))
	assert.False(t, devio.IsWouldBlock(devio.ErrClosed))
}

type temporaryError interface {
	Temporary() bool
	Timeout() bool
}

func TestSentinelClassification(t *testing.T) {
	var te temporaryError
	require.ErrorAs(t, error(devio.ErrWouldBlock), &te)
	assert.True(t, te.Temporary())
	assert.False(t, te.Timeout())

	require.ErrorAs(t, error(devio.ErrClosed), &te)
	assert.False(t, te.Temporary())
	require.ErrorAs(t, error(devio.ErrNotSupported), &te)
	assert.False(t, te.Temporary())
}
