// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

//go:build freebsd || dragonfly || darwin
// +build freebsd dragonfly darwin

package fdio

import "golang.org/x/sys/unix"

const ioctlReadTermios = unix.TIOCGETA
