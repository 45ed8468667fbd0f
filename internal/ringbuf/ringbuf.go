// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

// Package ringbuf implements a fixed-capacity circular byte buffer.
// It does no locking of its own; callers serialize access.
package ringbuf

// Buffer is a circular byte buffer with fixed capacity.
type Buffer struct {
	buf  []byte
	head int
	size int
}

// New creates a Buffer with the given capacity.
func New(capacity int) *Buffer {
	return &Buffer{buf: make([]byte, capacity)}
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.buf)
}

// Len returns the number of buffered bytes.
func (b *Buffer) Len() int {
	return b.size
}

// Free returns the remaining space.
func (b *Buffer) Free() int {
	return len(b.buf) - b.size
}

// Empty reports whether no data is buffered.
func (b *Buffer) Empty() bool {
	return b.size == 0
}

// Full reports whether no space is left.
func (b *Buffer) Full() bool {
	return b.size == len(b.buf)
}

// Write copies as much of p as fits and returns the number of bytes
// taken, which may be 0 when the buffer is full.
func (b *Buffer) Write(p []byte) int {
	n := len(p)
	if free := b.Free(); n > free {
		n = free
	}
	if n == 0 {
		return 0
	}
	tail := (b.head + b.size) % len(b.buf)
	first := copy(b.buf[tail:], p[:n])
	if first < n {
		copy(b.buf, p[first:n])
	}
	b.size += n
	return n
}

// Read copies up to len(p) buffered bytes into p and returns the
// number copied, which may be 0 when the buffer is empty.
func (b *Buffer) Read(p []byte) int {
	n := len(p)
	if n > b.size {
		n = b.size
	}
	if n == 0 {
		return 0
	}
	first := copy(p[:n], b.buf[b.head:])
	if first < n {
		copy(p[first:n], b.buf)
	}
	b.head = (b.head + n) % len(b.buf)
	b.size -= n
	return n
}

// Reset drops all buffered data.
func (b *Buffer) Reset() {
	b.head = 0
	b.size = 0
}
