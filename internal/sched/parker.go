// File: internal/sched/parker.go
// Package sched is the boundary to the external thread scheduler.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The object subsystem never talks to the scheduler beyond "block this
// thread" and "wake this thread". Parker models exactly that pair on top of
// the Go runtime: one parked goroutine per Parker, woken at most once.

package sched

import (
	"time"

	"github.com/momentics/kobject/api"
)

// WakeReason reports why Park returned.
type WakeReason uint8

const (
	// WakeSignaled means an Unpark call resumed the thread.
	WakeSignaled WakeReason = iota
	// WakeTimeout means the deadline elapsed first.
	WakeTimeout
	// WakeInterrupt means an asynchronous interrupt resumed the thread.
	WakeInterrupt
)

// Parker suspends and resumes a single thread. A Parker is single-use per
// wait: Prepare, Park, then discard or Reset.
type Parker struct {
	// 1-element buffered channel so wakers never block delivering a wake,
	// even when the waiter has already timed out (biscuit poll pattern).
	ch chan WakeReason
}

// NewParker returns a Parker ready for one Park/Unpark round.
func NewParker() *Parker {
	return &Parker{ch: make(chan WakeReason, 1)}
}

// Park blocks the calling thread until Unpark or the deadline.
func (p *Parker) Park(deadline api.Deadline) WakeReason {
	if deadline == api.DeadlineInfinite {
		return <-p.ch
	}
	d := time.Until(time.Unix(0, int64(deadline)))
	if d <= 0 {
		select {
		case r := <-p.ch:
			return r
		default:
			return WakeTimeout
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case r := <-p.ch:
		return r
	case <-timer.C:
		return WakeTimeout
	}
}

// Unpark resumes the parked thread. Only the first Unpark per round is
// consumed; later ones report false.
func (p *Parker) Unpark(reason WakeReason) bool {
	select {
	case p.ch <- reason:
		return true
	default:
		return false
	}
}

// Consume retrieves a wake that raced a timeout. Callers use it after
// losing the dequeue race: the wake is guaranteed to be in flight.
func (p *Parker) Consume() WakeReason {
	return <-p.ch
}

// DeadlineAfter converts a relative duration to an absolute deadline.
func DeadlineAfter(d time.Duration) api.Deadline {
	return api.Deadline(time.Now().Add(d).UnixNano())
}
