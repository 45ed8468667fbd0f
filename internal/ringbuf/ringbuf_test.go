// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

package ringbuf_test

import (
	"testing"

	"github.com/devio-io/devio/internal/ringbuf"
	"github.com/stretchr/testify/assert"
)

func TestRingBufferBasic(t *testing.T) {
	b := ringbuf.New(8)
	assert.Equal(t, 8, b.Cap())
	assert.True(t, b.Empty())

	assert.Equal(t, 5, b.Write([]byte("hello")))
	assert.Equal(t, 5, b.Len())
	assert.Equal(t, 3, b.Free())

	p := make([]byte, 3)
	assert.Equal(t, 3, b.Read(p))
	assert.Equal(t, "hel", string(p))
	assert.Equal(t, 2, b.Len())
}

func TestRingBufferWrap(t *testing.T) {
	b := ringbuf.New(4)
	assert.Equal(t, 4, b.Write([]byte("abcd")))
	assert.True(t, b.Full())
	assert.Equal(t, 0, b.Write([]byte("x")))

	p := make([]byte, 2)
	assert.Equal(t, 2, b.Read(p))
	assert.Equal(t, "ab", string(p))

	// Write wraps around the end of the backing array.
	assert.Equal(t, 2, b.Write([]byte("efgh")))
	out := make([]byte, 4)
	assert.Equal(t, 4, b.Read(out))
	assert.Equal(t, "cdef", string(out))
	assert.True(t, b.Empty())
}

func TestRingBufferReset(t *testing.T) {
	b := ringbuf.New(4)
	b.Write([]byte("ab"))
	b.Reset()
	assert.True(t, b.Empty())
	assert.Equal(t, 0, b.Read(make([]byte, 2)))
}
