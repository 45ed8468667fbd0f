// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

package safejob

import (
	"go.uber.org/atomic"
)

// OnceJob executes exactly once; beginning it marks it closed, so only
// the first caller wins. It backs Close itself.
type OnceJob struct {
	closed atomic.Bool
}

// Begin enters the job if nobody has before.
func (j *OnceJob) Begin() bool {
	return j.closed.CAS(false, true)
}

// End leaves the job.
func (j *OnceJob) End() {}

// Close closes the job without executing it.
func (j *OnceJob) Close() {
	j.closed.Store(true)
}

// Closed returns whether the job is closed.
func (j *OnceJob) Closed() bool {
	return j.closed.Load()
}
