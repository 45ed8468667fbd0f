// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

package devio

import "github.com/devio-io/devio/internal/safejob"

type key int

const (
	apiRead key = iota
	apiWrite
	apiCtrl
	closeAll
)

// closer ensures the concurrent safety of the read/write process and
// the closing process of a handle: after a handle is closed, no more
// read, write or control operations are allowed to start. The
// exclusive read and write jobs also enforce the "at most one blocked
// reader and one blocked writer" discipline.
type closer struct {
	apiReadJob  safejob.ExclusiveJob
	apiWriteJob safejob.ExclusiveJob
	apiCtrlJob  safejob.ConcurrentJob
	closeAllJob safejob.OnceJob
}

// closed returns whether the handle is closed.
func (c *closer) closed() bool {
	return c.closeAllJob.Closed()
}

func (c *closer) getJob(k key) safejob.Job {
	switch k {
	case apiRead:
		return &c.apiReadJob
	case apiWrite:
		return &c.apiWriteJob
	case apiCtrl:
		return &c.apiCtrlJob
	case closeAll:
		return &c.closeAllJob
	default:
		return nil
	}
}

func (c *closer) beginJobSafely(k key) bool {
	if k < 0 || k > closeAll {
		return false
	}
	return c.getJob(k).Begin()
}

func (c *closer) endJobSafely(k key) {
	if k < 0 || k > closeAll {
		return
	}
	c.getJob(k).End()
}

func (c *closer) closeAllJobs() {
	c.apiReadJob.Close()
	c.apiWriteJob.Close()
	c.apiCtrlJob.Close()
}
