// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

package metrics_test

import (
	"testing"

	"github.com/devio-io/devio/metrics"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	base := metrics.Get(metrics.NotifyCalls)
	metrics.Add(metrics.NotifyCalls, 3)
	assert.Equal(t, base+3, metrics.Get(metrics.NotifyCalls))

	all := metrics.GetAll()
	assert.Equal(t, base+3, all[metrics.NotifyCalls])

	// Out-of-range names are ignored.
	metrics.Add(metrics.Max, 1)
	assert.Equal(t, uint64(0), metrics.Get(metrics.Max))
}
