// File: api/dispatcher.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Dispatcher is the contract every kernel object kind implements, and
// StateObserver is the contract for parties notified on signal transitions.

package api

// Dispatcher is the kernel-resident representation of an object. Concrete
// kinds (event, port, process, ...) implement it by embedding the shared
// base; handles co-own dispatchers through the lifecycle methods.
type Dispatcher interface {
	// Koid returns the object's kernel object id.
	Koid() Koid

	// Type returns the concrete kind tag.
	Type() ObjectType

	// State returns the currently asserted signal bits.
	State() Signals

	// UpdateState atomically clears then sets signal bits, notifying every
	// qualifying observer before returning. It returns the prior signal
	// value so callers can detect no-op transitions.
	UpdateState(clear, set Signals) Signals

	// AddObserver registers interest in mask and returns the signal value
	// at registration time, so an already-satisfied condition is visible
	// without racing a concurrent transition.
	AddObserver(obs StateObserver, mask Signals) Signals

	// RemoveObserver unregisters; reports whether the observer was present.
	// Removal is idempotent because cancellation and notification race.
	RemoveObserver(obs StateObserver) bool

	// UserSignals returns the bits object_signal may set or clear on this
	// kind through a handle.
	UserSignals() Signals

	// Adopt marks the object as owned by its first handle. Called exactly
	// once; a second call is a fatal error.
	Adopt()

	// Retain adds a co-owner. Fatal if the object was never adopted or has
	// already been destroyed.
	Retain()

	// Release drops a co-owner and reports whether the caller must run the
	// destruction path (the count reached zero).
	Release() bool

	// OnZeroHandles runs once, after the last handle is released: cancels
	// observers, notifies peers, and transitions the object to its closed
	// state.
	OnZeroHandles()
}

// PeeredDispatcher is implemented by kinds created in linked pairs.
type PeeredDispatcher interface {
	Dispatcher

	// PeerKoid returns the koid of the peer endpoint, or KoidInvalid once
	// the peer is gone. The link is a lookup relation, never ownership.
	PeerKoid() Koid

	// SignalPeer applies a user signal transition to the peer endpoint.
	SignalPeer(clear, set Signals) error
}

// StateObserver is notified of qualifying signal transitions. OnStateChange
// runs with the observed dispatcher's lock held: implementations must not
// call back into that dispatcher and must not block.
type StateObserver interface {
	// OnStateChange delivers the post-transition signal state; returning
	// true removes the observer (one-shot observers).
	OnStateChange(observed Signals) (remove bool)

	// OnCancel tells the observer its dispatcher is going away before any
	// qualifying transition happened.
	OnCancel(observed Signals)
}
