// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

package safejob

import (
	"sync"

	"go.uber.org/atomic"
)

// ExclusiveJob executes at most one caller at a time; a second caller
// blocks until the first has finished. It backs the "at most one
// blocked reader and one blocked writer" discipline.
type ExclusiveJob struct {
	mu     sync.Mutex
	closed atomic.Bool
}

// Begin enters the job, blocking while another caller runs it.
// It reports false if the job is closed.
func (j *ExclusiveJob) Begin() bool {
	j.mu.Lock()
	if j.closed.Load() {
		j.mu.Unlock()
		return false
	}
	return true
}

// End leaves the job.
func (j *ExclusiveJob) End() {
	j.mu.Unlock()
}

// Close closes the job, waiting for a running execution to end first.
func (j *ExclusiveJob) Close() {
	j.mu.Lock()
	j.closed.Store(true)
	j.mu.Unlock()
}

// Closed returns whether the job is closed.
func (j *ExclusiveJob) Closed() bool {
	return j.closed.Load()
}
