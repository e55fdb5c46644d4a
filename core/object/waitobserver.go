// File: core/object/waitobserver.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// WaitObserver bridges a state tracker to a blocked thread: the
// synchronous half of object waiting. One-shot: the first qualifying
// transition (or cancellation) records the observed state and wakes the
// waiter.

package object

import (
	"errors"
	"sync"

	"github.com/momentics/kobject/api"
	"github.com/momentics/kobject/core/concurrency"
)

// WaitObserver is a one-shot observer that suspends its creator until a
// signal in its interest mask is asserted.
type WaitObserver struct {
	mask api.Signals
	wq   *concurrency.WaitQueue
	w    *concurrency.Waiter

	mu       sync.Mutex
	done     bool
	observed api.Signals
}

var _ api.StateObserver = (*WaitObserver)(nil)

// NewWaitObserver creates an observer for the given interest mask. The
// calling thread is enqueued immediately; Wait parks it.
func NewWaitObserver(mask api.Signals) *WaitObserver {
	wq := concurrency.NewWaitQueue()
	return &WaitObserver{mask: mask, wq: wq, w: wq.Prepare()}
}

// OnStateChange records the post-transition state and wakes the waiter.
func (o *WaitObserver) OnStateChange(observed api.Signals) bool {
	o.mu.Lock()
	if o.done {
		o.mu.Unlock()
		return true
	}
	o.done = true
	o.observed = observed
	o.mu.Unlock()
	o.wq.WakeOne()
	return true
}

// OnCancel wakes the waiter with StatusCanceled: the object lost its last
// handle before the condition was met.
func (o *WaitObserver) OnCancel(observed api.Signals) {
	o.mu.Lock()
	if o.done {
		o.mu.Unlock()
		return
	}
	o.done = true
	o.observed = observed
	o.mu.Unlock()
	o.wq.CancelAll(api.StatusCanceled)
}

// Interrupt resumes the waiter as interrupted. The observation stays
// registered; the creator detaches it on the way out.
func (o *WaitObserver) Interrupt() {
	o.wq.InterruptAll()
}

// Wait blocks until notified, cancelled, or the deadline passes. On
// notification and cancellation the returned signals are the state
// observed at delivery; on timeout they are zero.
func (o *WaitObserver) Wait(deadline api.Deadline) (api.Signals, error) {
	err := o.wq.Block(o.w, deadline)
	if err == nil || errors.Is(err, api.ErrCanceled) {
		o.mu.Lock()
		observed := o.observed
		o.mu.Unlock()
		return observed, err
	}
	return 0, err
}
