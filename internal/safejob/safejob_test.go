// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

package safejob_test

import (
	"sync"
	"testing"
	"time"

	"github.com/devio-io/devio/internal/safejob"
	"github.com/stretchr/testify/assert"
)

func TestExclusiveJob(t *testing.T) {
	job := &safejob.ExclusiveJob{}
	started := sync.WaitGroup{}
	started.Add(1)
	go func() {
		assert.True(t, job.Begin())
		started.Done()
		time.Sleep(5 * time.Millisecond)
		job.End()
	}()
	started.Wait()
	// Second caller blocks until the first has left.
	assert.True(t, job.Begin())
	job.End()
	assert.False(t, job.Closed())
}

func TestExclusiveJobClose(t *testing.T) {
	job := &safejob.ExclusiveJob{}
	assert.False(t, job.Closed())
	job.Close()
	assert.True(t, job.Closed())
	assert.False(t, job.Begin())
}

func TestConcurrentJob(t *testing.T) {
	job := &safejob.ConcurrentJob{}
	wg := sync.WaitGroup{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, job.Begin())
			job.End()
		}()
	}
	wg.Wait()
	job.Close()
	assert.False(t, job.Begin())
	assert.True(t, job.Closed())
}

func TestOnceJob(t *testing.T) {
	job := &safejob.OnceJob{}
	assert.False(t, job.Closed())
	assert.True(t, job.Begin())
	assert.False(t, job.Begin())
	assert.True(t, job.Closed())

	job = &safejob.OnceJob{}
	job.Close()
	assert.False(t, job.Begin())
}
