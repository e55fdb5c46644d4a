// File: api/signals.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Signal bitmask asserted on dispatchers and observed by waiters. The low
// bits are object-defined; the top byte is reserved for user signals.

package api

// Signals is a bitmask of asserted object state bits.
type Signals uint32

const (
	SignalNone Signals = 0

	// Object-defined bits. Each kind documents which of these it asserts.
	SignalReadable   Signals = 1 << 0
	SignalWritable   Signals = 1 << 1
	SignalPeerClosed Signals = 1 << 2
	SignalSignaled   Signals = 1 << 3

	// SignalHandleClosed is delivered to port observers whose last
	// binding handle went away mid-observation.
	SignalHandleClosed Signals = 1 << 23

	SignalUser0 Signals = 1 << 24
	SignalUser1 Signals = 1 << 25
	SignalUser2 Signals = 1 << 26
	SignalUser3 Signals = 1 << 27
	SignalUser4 Signals = 1 << 28
	SignalUser5 Signals = 1 << 29
	SignalUser6 Signals = 1 << 30
	SignalUser7 Signals = 1 << 31

	// SignalUserAll covers every user-settable bit common to all kinds.
	SignalUserAll Signals = 0xff000000
)

// Kind-specific aliases, matching the per-kind meaning of the shared bits.
const (
	EventSignaled       = SignalSignaled
	ProcessTerminated   = SignalSignaled
	GuestBellPending    = SignalSignaled
	FifoReadable        = SignalReadable
	FifoWritable        = SignalWritable
	FifoPeerClosed      = SignalPeerClosed
	EventPairPeerClosed = SignalPeerClosed
)
