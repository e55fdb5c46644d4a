// File: core/object/event.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Event: the simplest waitable object. One object-defined bit (SIGNALED)
// plus the user signal byte, all settable through object_signal.

package object

import "github.com/momentics/kobject/api"

// Event is a plain signalable dispatcher.
type Event struct {
	Base
}

// NewEvent returns a fresh, not-yet-adopted event and the maximal rights
// its first handle may hold.
func NewEvent() (*Event, api.Rights) {
	e := &Event{
		Base: newBase(api.TypeEvent, 0, api.SignalUserAll|api.EventSignaled),
	}
	return e, api.DefaultRights(api.TypeEvent)
}
