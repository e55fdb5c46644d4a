// File: api/rights.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Handle rights bitmask. Rights scope what a given handle may do with the
// dispatcher it references; numeric values are ABI-stable.

package api

// Rights is a bitmask limiting the operations a handle permits.
type Rights uint32

const (
	RightNone       Rights = 0
	RightDuplicate  Rights = 1 << 0
	RightTransfer   Rights = 1 << 1
	RightRead       Rights = 1 << 2
	RightWrite      Rights = 1 << 3
	RightExecute    Rights = 1 << 4
	RightMap        Rights = 1 << 5
	RightGetProp    Rights = 1 << 6
	RightSetProp    Rights = 1 << 7
	RightEnumerate  Rights = 1 << 8
	RightDestroy    Rights = 1 << 9
	RightSignal     Rights = 1 << 12
	RightSignalPeer Rights = 1 << 13
	RightWait       Rights = 1 << 14
	RightInspect    Rights = 1 << 15

	// RightSameRights in a duplicate request asks for the source's rights
	// verbatim instead of a narrowed mask.
	RightSameRights Rights = 1 << 31
)

// RightsBasic is the baseline held by a freshly created handle of any kind.
const RightsBasic = RightDuplicate | RightTransfer | RightWait | RightInspect

// Contains reports whether every bit of want is present in r.
func (r Rights) Contains(want Rights) bool {
	return r&want == want
}

// DefaultRights returns the maximal rights a newly created handle of the
// given kind may hold.
func DefaultRights(t ObjectType) Rights {
	switch t {
	case TypeEvent:
		return RightsBasic | RightSignal
	case TypeEventPair, TypeFifo:
		return RightsBasic | RightRead | RightWrite | RightSignal | RightSignalPeer
	case TypePort:
		return RightDuplicate | RightTransfer | RightRead | RightWrite | RightInspect
	case TypeProcess:
		return RightsBasic | RightRead | RightWrite | RightSignal | RightEnumerate | RightDestroy
	case TypeGuest:
		return RightDuplicate | RightTransfer | RightWrite | RightInspect | RightSignal
	default:
		return RightsBasic
	}
}
