// File: core/concurrency/semaphore.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Counting semaphore built directly on WaitQueue. It exists both as a
// usable primitive and as the canonical consumer of the queue's FIFO wake
// ordering: posts hand off to waiters in arrival order, so no thread
// starves.

package concurrency

import (
	"sync"

	"github.com/momentics/kobject/api"
)

// Semaphore is a counting semaphore with FIFO-fair wakeups.
type Semaphore struct {
	mu    sync.Mutex
	count int64
	wq    *WaitQueue
}

// NewSemaphore creates a semaphore with the given initial count.
func NewSemaphore(initial int64) *Semaphore {
	if initial < 0 {
		initial = 0
	}
	return &Semaphore{count: initial, wq: NewWaitQueue()}
}

// Post releases one unit. A blocked waiter, if any, takes the unit directly
// (direct hand-off preserves FIFO fairness); otherwise the count grows.
func (s *Semaphore) Post() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wq.WakeOne() {
		return
	}
	s.count++
}

// Wait acquires one unit, blocking until one is available or the deadline
// passes. Returns ErrTimedOut on expiry, ErrInterrupted on interrupt.
func (s *Semaphore) Wait(deadline api.Deadline) error {
	s.mu.Lock()
	if s.count > 0 {
		s.count--
		s.mu.Unlock()
		return nil
	}
	// Enqueue before dropping the lock so a concurrent Post cannot slip
	// between the count check and the block.
	w := s.wq.Prepare()
	s.mu.Unlock()
	return s.wq.Block(w, deadline)
}

// TryWait acquires a unit without blocking; reports whether it did.
func (s *Semaphore) TryWait() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count > 0 {
		s.count--
		return true
	}
	return false
}

// Count returns the current free count, for introspection only.
func (s *Semaphore) Count() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
