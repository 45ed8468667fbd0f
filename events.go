// Copyright (C) 2024 The devio authors. All rights reserved.
//
// devio is licensed under the Apache License, Version 2.0.

package devio

import (
	"strings"
)

// Events is a bitset of I/O readiness conditions. It is the shared
// vocabulary of Poll, PollWithWake and Notify: multiple bits may be set
// at once, and the set carries no payload beyond "these conditions
// changed, recheck now".
type Events uint32

// Event bits.
const (
	// EventIn reports that data is available to read.
	EventIn Events = 1 << iota
	// EventOut reports that the handle can accept data to write.
	EventOut
	// EventErr reports an error condition on the handle.
	EventErr
	// EventHup reports that the peer hung up.
	EventHup
	// EventNval reports that the request is not valid for this handle,
	// e.g. PollWithWake on a handle without wake support.
	EventNval
)

// AllEvents is the union of every event bit.
const AllEvents = EventIn | EventOut | EventErr | EventHup | EventNval

// Has returns whether any bit of ev is set in e.
func (e Events) Has(ev Events) bool {
	return e&ev != 0
}

// String implements fmt.Stringer.
func (e Events) String() string {
	if e == 0 {
		return "0"
	}
	var names []string
	for _, bit := range []struct {
		ev   Events
		name string
	}{
		{EventIn, "In"},
		{EventOut, "Out"},
		{EventErr, "Err"},
		{EventHup, "Hup"},
		{EventNval, "Nval"},
	} {
		if e.Has(bit.ev) {
			names = append(names, bit.name)
		}
	}
	return strings.Join(names, "|")
}
