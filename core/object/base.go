// File: core/object/base.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Base is the shared dispatcher core: koid, type tag, reference count, and
// the signal state tracker. A signal transition and its observer
// notifications happen under the per-object lock, so no thread can observe
// the new signal value before the notifications have been issued.

package object

import (
	"sync"

	"github.com/momentics/kobject/api"
)

type observerEntry struct {
	obs  api.StateObserver
	mask api.Signals
}

// Base implements the kind-independent part of api.Dispatcher. Concrete
// kinds embed it by value and override OnZeroHandles where teardown has
// kind-specific work (peers, queues, traps).
type Base struct {
	RefCounted
	koid api.Koid
	typ  api.ObjectType

	mu        sync.Mutex // per-object lock: signals + observer list
	signals   api.Signals
	observers []observerEntry
	userMask  api.Signals
}

var _ api.Dispatcher = (*Base)(nil)

func newBase(typ api.ObjectType, initial, userMask api.Signals) Base {
	b := Base{
		koid:     nextKoid(),
		typ:      typ,
		signals:  initial,
		userMask: userMask,
	}
	b.initRef()
	return b
}

// Koid returns the object's kernel object id.
func (b *Base) Koid() api.Koid { return b.koid }

// Type returns the concrete kind tag.
func (b *Base) Type() api.ObjectType { return b.typ }

// UserSignals returns the bits object_signal may touch on this kind.
func (b *Base) UserSignals() api.Signals { return b.userMask }

// State returns the currently asserted signal bits.
func (b *Base) State() api.Signals {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.signals
}

// UpdateState atomically clears then sets signal bits and notifies every
// observer whose interest intersects the newly set bits before returning.
// The prior value is returned so callers can skip no-op transitions.
func (b *Base) UpdateState(clear, set api.Signals) api.Signals {
	b.mu.Lock()
	old := b.signals
	b.signals = (old &^ clear) | set
	if newlySet := b.signals &^ old; newlySet != 0 {
		b.notifyLocked(newlySet)
	}
	b.mu.Unlock()
	return old
}

// AddObserver registers interest and returns the signal value at
// registration time. A bit already set when the observer registers shows
// up in the snapshot; the observer is only notified on later transitions.
func (b *Base) AddObserver(obs api.StateObserver, mask api.Signals) api.Signals {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, observerEntry{obs: obs, mask: mask})
	return b.signals
}

// RemoveObserver unregisters; reports whether the observer was present.
func (b *Base) RemoveObserver(obs api.StateObserver) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.observers {
		if b.observers[i].obs == obs {
			b.observers = append(b.observers[:i], b.observers[i+1:]...)
			return true
		}
	}
	return false
}

// OnZeroHandles is the default teardown: cancel every observer. Kinds with
// peers or queues override it and call cancelObservers themselves.
func (b *Base) OnZeroHandles() {
	b.cancelObservers()
}

// notifyLocked delivers the transition to qualifying observers and drops
// the ones that report themselves done. Runs with b.mu held; observer
// callbacks may take a port lock but never another dispatcher lock.
func (b *Base) notifyLocked(newlySet api.Signals) {
	kept := b.observers[:0]
	for _, e := range b.observers {
		if e.mask&newlySet != 0 && e.obs.OnStateChange(b.signals) {
			continue
		}
		kept = append(kept, e)
	}
	b.observers = kept
}

// cancelObservers removes and cancels every observer, delivering the final
// signal state. Each observer is cancelled at most once.
func (b *Base) cancelObservers() {
	b.mu.Lock()
	obs := b.observers
	b.observers = nil
	state := b.signals
	b.mu.Unlock()
	for _, e := range obs {
		e.obs.OnCancel(state | api.SignalHandleClosed)
	}
}
