// File: core/concurrency/waitqueue.go
// Package concurrency provides the blocking primitives of the object model.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// WaitQueue suspends and resumes threads in strict FIFO order. It is the
// primitive under every synchronous wait: state-tracker wait observers,
// port waiters, and semaphores all block through it. The queue itself never
// blocks; only Block is a suspension point.

package concurrency

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/kobject/api"
	"github.com/momentics/kobject/internal/sched"
)

// Waiter is one thread's entry in a WaitQueue. Prepare enqueues it; Block
// parks the thread until a waker or the deadline dequeues it.
type Waiter struct {
	parker   *sched.Parker
	status   api.Status // written under the queue lock before unpark
	dequeued bool       // guarded by the queue lock
}

// WaitQueue is a FIFO of blocked threads.
type WaitQueue struct {
	mu sync.Mutex
	q  *queue.Queue // of *Waiter
}

// NewWaitQueue creates an empty wait queue.
func NewWaitQueue() *WaitQueue {
	return &WaitQueue{q: queue.New()}
}

// Prepare enqueues the calling thread. It must be followed by Block; the
// split lets callers publish the waiter under their own lock before
// releasing it, closing the lost-wakeup window.
func (wq *WaitQueue) Prepare() *Waiter {
	w := &Waiter{parker: sched.NewParker()}
	wq.mu.Lock()
	wq.q.Add(w)
	wq.mu.Unlock()
	return w
}

// Block parks the calling thread until a wake or the deadline. It returns
// nil on a plain wake, the waker's status as an error for cancellation
// paths, ErrTimedOut on deadline expiry, and ErrInterrupted on an
// asynchronous interrupt.
func (wq *WaitQueue) Block(w *Waiter, deadline api.Deadline) error {
	reason := w.parker.Park(deadline)
	if reason == sched.WakeTimeout {
		wq.mu.Lock()
		if w.dequeued {
			// A waker won the race; its wake is already in flight and
			// must be consumed, not dropped.
			wq.mu.Unlock()
			reason = w.parker.Consume()
		} else {
			wq.removeLocked(w)
			wq.mu.Unlock()
			return api.ErrTimedOut
		}
	}
	if reason == sched.WakeInterrupt {
		return api.ErrInterrupted
	}
	return w.status.Err()
}

// WakeOne resumes the longest-blocked thread; reports whether any thread
// was actually waiting.
func (wq *WaitQueue) WakeOne() bool {
	return wq.wake(api.StatusOK, sched.WakeSignaled, 1) > 0
}

// WakeAll resumes every blocked thread and returns how many were woken.
func (wq *WaitQueue) WakeAll() int {
	return wq.wake(api.StatusOK, sched.WakeSignaled, -1)
}

// CancelAll resumes every blocked thread with the given error status. Used
// on object teardown so no waiter outlives the object it waits on.
func (wq *WaitQueue) CancelAll(status api.Status) int {
	return wq.wake(status, sched.WakeSignaled, -1)
}

// InterruptAll resumes every blocked thread as interrupted.
func (wq *WaitQueue) InterruptAll() int {
	return wq.wake(api.StatusOK, sched.WakeInterrupt, -1)
}

// Len returns the number of currently blocked threads.
func (wq *WaitQueue) Len() int {
	wq.mu.Lock()
	defer wq.mu.Unlock()
	return wq.q.Length()
}

func (wq *WaitQueue) wake(status api.Status, reason sched.WakeReason, limit int) int {
	wq.mu.Lock()
	defer wq.mu.Unlock()
	woken := 0
	for wq.q.Length() > 0 && (limit < 0 || woken < limit) {
		w := wq.q.Remove().(*Waiter)
		w.dequeued = true
		w.status = status
		// Exactly one wake per waiter: dequeued guards re-delivery, so
		// the buffered unpark always lands.
		w.parker.Unpark(reason)
		woken++
	}
	return woken
}

// removeLocked drops a timed-out waiter. The backing queue only pops from
// the front, so the queue is rebuilt in place; timeout is the cold path.
func (wq *WaitQueue) removeLocked(target *Waiter) bool {
	n := wq.q.Length()
	found := false
	for i := 0; i < n; i++ {
		w := wq.q.Remove().(*Waiter)
		if w == target {
			target.dequeued = true
			found = true
			continue
		}
		wq.q.Add(w)
	}
	return found
}
