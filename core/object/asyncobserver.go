// File: core/object/asyncobserver.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// asyncObserver translates signal transitions into port packets: the
// asynchronous half of object waiting. OnStateChange runs under the target
// dispatcher's lock and only ever takes the port queue lock, per the
// subsystem lock order.

package object

import (
	"sync/atomic"

	"github.com/momentics/kobject/api"
)

type asyncObserver struct {
	port      *Port
	target    api.Dispatcher // relation for cancel/unbind, never ownership
	key       uint64
	mask      api.Signals
	repeating bool

	// spent flips once for once-mode delivery, cancellation, or teardown;
	// whoever flips it owns the final action on this binding.
	spent atomic.Bool
}

var _ api.StateObserver = (*asyncObserver)(nil)

func (o *asyncObserver) spend() bool {
	return o.spent.CompareAndSwap(false, true)
}

// OnStateChange queues a packet for the transition. Once-mode bindings
// deliver a single packet and unbind; repeating bindings queue one packet
// per qualifying transition, never coalesced.
func (o *asyncObserver) OnStateChange(observed api.Signals) bool {
	ptype := api.PacketTypeSignalRep
	if !o.repeating {
		if !o.spend() {
			return true
		}
		ptype = api.PacketTypeSignalOne
	} else if o.spent.Load() {
		return true
	}

	pkt := api.Packet{
		Key:    o.key,
		Type:   ptype,
		Status: api.StatusOK,
		Signal: api.PacketSignal{
			Trigger:  o.mask,
			Observed: observed,
			Count:    1,
		},
	}
	// Observer packets bypass the capacity bound: async delivery is
	// lossless as long as the binding lives.
	_ = o.port.enqueue(&pkt, o.target.Koid(), true)

	if !o.repeating {
		o.port.unbind(o)
		return true
	}
	return false
}

// OnCancel reports the target's teardown to the port: the binding handle
// set went away before (or while) the condition was being observed.
func (o *asyncObserver) OnCancel(observed api.Signals) {
	if !o.spend() {
		return
	}
	pkt := api.Packet{
		Key:    o.key,
		Type:   api.PacketTypeSignalOne,
		Status: api.StatusCanceled,
		Signal: api.PacketSignal{
			Trigger:  o.mask,
			Observed: observed,
			Count:    1,
		},
	}
	_ = o.port.enqueue(&pkt, o.target.Koid(), true)
	o.port.unbind(o)
}
