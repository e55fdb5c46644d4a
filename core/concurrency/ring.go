// File: core/concurrency/ring.go
// Package concurrency implements lock-free ring buffers.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Ring is a bounded MPMC circular buffer with sequence-numbered cells
// (Dmitry Vyukov's scheme), padded to keep the head and tail indices off
// the same cache line. Fifo endpoints use one Ring per transfer direction.

package concurrency

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

type ringCell[T any] struct {
	sequence atomic.Uint64
	data     T
}

// Ring is a bounded lock-free MPMC queue.
type Ring[T any] struct {
	head  atomic.Uint64
	_     cpu.CacheLinePad
	tail  atomic.Uint64
	_     cpu.CacheLinePad
	mask  uint64
	cells []ringCell[T]
}

// NewRing allocates a ring buffer; capacity is rounded up to a power of two
// and is at least 2.
func NewRing[T any](capacity uint64) *Ring[T] {
	if capacity < 2 {
		capacity = 2
	}
	if capacity&(capacity-1) != 0 {
		n := capacity - 1
		n |= n >> 1
		n |= n >> 2
		n |= n >> 4
		n |= n >> 8
		n |= n >> 16
		n |= n >> 32
		capacity = n + 1
	}
	r := &Ring[T]{
		mask:  capacity - 1,
		cells: make([]ringCell[T], capacity),
	}
	for i := range r.cells {
		r.cells[i].sequence.Store(uint64(i))
	}
	return r
}

// Enqueue adds item; returns false if full.
func (r *Ring[T]) Enqueue(item T) bool {
	for {
		tail := r.tail.Load()
		c := &r.cells[tail&r.mask]
		seq := c.sequence.Load()
		dif := int64(seq) - int64(tail)

		if dif == 0 {
			if r.tail.CompareAndSwap(tail, tail+1) {
				c.data = item
				c.sequence.Store(tail + 1)
				return true
			}
		} else if dif < 0 {
			return false // full
		}
		// tail moved, retry
	}
}

// Dequeue removes and returns the oldest item; ok false if empty.
func (r *Ring[T]) Dequeue() (T, bool) {
	for {
		head := r.head.Load()
		c := &r.cells[head&r.mask]
		seq := c.sequence.Load()
		dif := int64(seq) - int64(head+1)

		if dif == 0 {
			if r.head.CompareAndSwap(head, head+1) {
				item := c.data
				var zero T
				c.data = zero
				c.sequence.Store(head + r.mask + 1)
				return item, true
			}
		} else if dif < 0 {
			var zero T
			return zero, false // empty
		}
		// head moved, retry
	}
}

// EnqueueBatch adds as many items as fit and returns the count added.
func (r *Ring[T]) EnqueueBatch(items []T) int {
	n := 0
	for _, it := range items {
		if !r.Enqueue(it) {
			break
		}
		n++
	}
	return n
}

// DequeueBatch fills dst with up to len(dst) items and returns the count.
func (r *Ring[T]) DequeueBatch(dst []T) int {
	n := 0
	for n < len(dst) {
		it, ok := r.Dequeue()
		if !ok {
			break
		}
		dst[n] = it
		n++
	}
	return n
}

// Len returns the number of items currently buffered.
func (r *Ring[T]) Len() int {
	head := r.head.Load()
	tail := r.tail.Load()
	return int(tail - head)
}

// Cap returns the fixed buffer capacity.
func (r *Ring[T]) Cap() int {
	return len(r.cells)
}
