// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

package devio

import (
	"github.com/devio-io/devio/log"
	"github.com/panjf2000/ants/v2"
)

var (
	maxRoutines = 0 // meaning INT32_MAX.
	sigioPool, _ = ants.NewPool(maxRoutines)
)

// submitSigio hands a sigio callback to the shared pool. Delivery must
// never be dropped, so on pool failure the callback runs inline.
func submitSigio(fn func()) {
	if err := sigioPool.Submit(fn); err != nil {
		log.Errorf("devio: sigio pool submit: %v, running inline", err)
		fn()
	}
}

// Submit submits a task to the shared goroutine pool. Users can use
// this API to run work triggered by a sigio cue off the notifier path.
func Submit(task func()) error {
	return sigioPool.Submit(task)
}
