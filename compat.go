// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

package devio

// Legacy aliases kept for callers ported from fd-style APIs. They
// forward verbatim and introduce no behavior of their own.

// Lseek forwards to h.Seek.
//
// Deprecated: use Handle.Seek.
func Lseek(h Handle, offset int64, whence int) (int64, error) {
	return h.Seek(offset, whence)
}

// Fsync forwards to h.Sync.
//
// Deprecated: use Handle.Sync.
func Fsync(h Handle) error {
	return h.Sync()
}

// Flen forwards to Size.
//
// Deprecated: use Size.
func Flen(h Handle) (int64, error) {
	return Size(h)
}
