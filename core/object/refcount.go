// File: core/object/refcount.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Intrusive atomic reference count shared by every kernel object. The
// count tracks co-owning handles, not transient borrows; misuse indicates
// a bug in kernel code and is fatal, never a recoverable error.

package object

import "sync/atomic"

// RefCounted is the intrusive reference count embedded in Base. The count
// starts at 1 and the object is "unadopted" until its first handle takes
// ownership; Retain before adoption, or after the count has reached zero,
// panics.
//
// Go atomics are sequentially consistent, which subsumes the
// acquire/release fencing the release-to-zero path requires: every
// mutation made before the final Release is visible to the thread that
// runs the destruction path.
type RefCounted struct {
	refs    atomic.Int64
	adopted atomic.Bool
}

func (rc *RefCounted) initRef() {
	rc.refs.Store(1)
}

// Adopt marks the object as owned by its first handle. Exactly once.
func (rc *RefCounted) Adopt() {
	if !rc.adopted.CompareAndSwap(false, true) {
		panic("kobject: dispatcher adopted twice")
	}
}

// Retain adds a co-owner.
func (rc *RefCounted) Retain() {
	if !rc.adopted.Load() {
		panic("kobject: retain of unadopted dispatcher")
	}
	if rc.refs.Add(1) <= 1 {
		panic("kobject: retain after zero (use-after-free)")
	}
}

// Release drops a co-owner; returns true exactly when the caller must run
// the destruction path.
func (rc *RefCounted) Release() bool {
	if !rc.adopted.Load() {
		panic("kobject: release of unadopted dispatcher")
	}
	n := rc.refs.Add(-1)
	if n < 0 {
		panic("kobject: release below zero")
	}
	return n == 0
}

// RefCount returns the current count, for tests and introspection.
func (rc *RefCounted) RefCount() int64 {
	return rc.refs.Load()
}
