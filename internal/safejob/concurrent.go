// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

package safejob

import (
	"sync"

	"go.uber.org/atomic"
)

// ConcurrentJob admits any number of simultaneous callers, while Close
// still waits for all of them to leave before shutting the door.
type ConcurrentJob struct {
	mu     sync.RWMutex
	closed atomic.Bool
}

// Begin enters the job, reporting false if the job is closed.
func (j *ConcurrentJob) Begin() bool {
	j.mu.RLock()
	if j.closed.Load() {
		j.mu.RUnlock()
		return false
	}
	return true
}

// End leaves the job.
func (j *ConcurrentJob) End() {
	j.mu.RUnlock()
}

// Close closes the job once every running caller has left.
func (j *ConcurrentJob) Close() {
	j.mu.Lock()
	j.closed.Store(true)
	j.mu.Unlock()
}

// Closed returns whether the job is closed.
func (j *ConcurrentJob) Closed() bool {
	return j.closed.Load()
}
