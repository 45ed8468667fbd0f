// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

// Package safejob coordinates operations against a close that may
// happen concurrently: once a job is closed, no further execution of
// it can begin.
package safejob

// Job is an operation that can be executed repeatedly until it is
// closed, with begin/end bracketing to keep execution and close
// mutually safe.
type Job interface {
	// Begin enters the job, reporting false if the job is closed or
	// (for exclusive jobs) already running.
	Begin() bool

	// End leaves the job.
	End()

	// Close closes the job. After Close returns no new execution can
	// begin.
	Close()

	// Closed returns whether the job is closed.
	Closed() bool
}
