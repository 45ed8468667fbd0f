// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

package locker_test

import (
	"testing"

	"github.com/devio-io/devio/internal/locker"
	"github.com/stretchr/testify/assert"
)

func TestLocker(t *testing.T) {
	l := locker.New()
	assert.False(t, l.IsLocked())
	l.Lock()
	assert.True(t, l.IsLocked())
	assert.False(t, l.TryLock())
	l.Unlock()
	assert.False(t, l.IsLocked())

	assert.True(t, l.TryLock())
	assert.True(t, l.IsLocked())
	l.Unlock()
	assert.False(t, l.IsLocked())
}

func TestLockerConcurrent(t *testing.T) {
	l := locker.New()
	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 1000; j++ {
				l.Lock()
				assert.True(t, l.IsLocked())
				l.Unlock()
			}
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	assert.False(t, l.IsLocked())
}
