// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

// Package metrics counts how often the blocking-emulation machinery
// waits, wakes and notifies. The counters expose how well a driver's
// event delivery matches consumer demand, which is the first thing to
// look at when a handle seems to stall.
package metrics

import (
	"time"

	"github.com/devio-io/devio/log"
	"go.uber.org/atomic"
)

// All metrics definitions.
const (
	// Blocking-emulation counters.

	ReadWaits = iota
	ReadWakes
	WriteWaits
	WriteWakes
	NotifyCalls
	SigioFires

	// Poll multiplexer counters.

	PollWaits
	PollWakes
	PollFallbacks

	// Handle lifecycle counters.

	HandlesCreate
	HandlesClose

	// File-descriptor driver counters.

	FDReadCalls
	FDWriteCalls
	FDEvents

	// Keep it last.

	Max
)

var metrics [Max]atomic.Uint64

// Add adds delta to a metrics counter.
func Add(name int, delta uint64) {
	if name >= Max {
		return
	}
	metrics[name].Add(delta)
}

// Get reads one metric counter.
func Get(name int) uint64 {
	if name >= Max {
		return 0
	}
	return metrics[name].Load()
}

// GetAll reads all metrics.
func GetAll() [Max]uint64 {
	var m [Max]uint64
	for i := range metrics {
		m[i] = metrics[i].Load()
	}
	return m
}

// ShowMetricsOfPeriod blocks for duration d, then prints the metric
// deltas accumulated over that period.
func ShowMetricsOfPeriod(d time.Duration) {
	old := GetAll()
	<-time.After(d)
	cur := GetAll()
	var m [Max]uint64
	for i := range metrics {
		m[i] = cur[i] - old[i]
	}
	showAll(m)
}

// ShowMetrics prints metric info through the log package.
func ShowMetrics() {
	showAll(GetAll())
}

func showAll(m [Max]uint64) {
	log.Debug("######### devio metrics (", time.Now().Format("2006-01-02 15:04:05"), ") ###########")
	log.Debugf("%-55s: %d", "# number of blocked-read waits", m[ReadWaits])
	log.Debugf("%-55s: %d", "# number of input-direction wakes", m[ReadWakes])
	log.Debugf("%-55s: %d", "# number of blocked-write waits", m[WriteWaits])
	log.Debugf("%-55s: %d", "# number of output-direction wakes", m[WriteWakes])
	log.Debugf("%-55s: %d", "# number of device Notify calls", m[NotifyCalls])
	log.Debugf("%-55s: %d", "# number of sigio callbacks fired", m[SigioFires])
	log.Debugf("%-55s: %d", "# number of Poll waits", m[PollWaits])
	log.Debugf("%-55s: %d", "# number of Poll wake broadcasts", m[PollWakes])
	log.Debugf("%-55s: %d", "# number of Poll compatibility fallbacks", m[PollFallbacks])
	log.Debugf("%-55s: %d", "# number of device handles created", m[HandlesCreate])
	log.Debugf("%-55s: %d", "# number of device handles closed", m[HandlesClose])
	log.Debugf("%-55s: %d", "# FD - number of read system calls", m[FDReadCalls])
	log.Debugf("%-55s: %d", "# FD - number of write system calls", m[FDWriteCalls])
	log.Debugf("%-55s: %d", "# FD - number of poller events", m[FDEvents])
	if m[ReadWaits] > 0 {
		log.Debugf("%-55s: %.2f", "# input wakes per wait", float64(m[ReadWakes])/float64(m[ReadWaits]))
	}
	if m[WriteWaits] > 0 {
		log.Debugf("%-55s: %.2f", "# output wakes per wait", float64(m[WriteWakes])/float64(m[WriteWaits]))
	}
}
