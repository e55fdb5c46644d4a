// File: api/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Shared API-level type declarations and constants.

package api

// Koid is a kernel object id: globally unique, monotonically assigned,
// never reused.
type Koid uint64

// KoidInvalid is never assigned to an object.
const KoidInvalid Koid = 0

// HandleValue is the per-table integer a process names a handle by.
type HandleValue uint32

// HandleInvalid is never a valid handle value in any table.
const HandleInvalid HandleValue = 0

// ObjectType discriminates the concrete dispatcher kind.
type ObjectType int

const (
	TypeNone ObjectType = iota
	TypeEvent
	TypeEventPair
	TypePort
	TypeProcess
	TypeGuest
	TypeFifo
	TypeSemaphore
)

func (t ObjectType) String() string {
	switch t {
	case TypeEvent:
		return "event"
	case TypeEventPair:
		return "eventpair"
	case TypePort:
		return "port"
	case TypeProcess:
		return "process"
	case TypeGuest:
		return "guest"
	case TypeFifo:
		return "fifo"
	case TypeSemaphore:
		return "semaphore"
	default:
		return "none"
	}
}

// Async wait options for object_wait_async.
const (
	// WaitAsyncOnce delivers a single packet, then the binding unbinds.
	WaitAsyncOnce uint32 = 0
	// WaitAsyncRepeating delivers one packet per qualifying transition,
	// uncoalesced, until cancelled.
	WaitAsyncRepeating uint32 = 1
)

// Deadline is an absolute wall-clock deadline in nanoseconds since the unix
// epoch. DeadlineInfinite blocks forever; DeadlinePast never blocks.
type Deadline int64

const (
	DeadlineInfinite Deadline = 1<<63 - 1
	DeadlinePast     Deadline = 0
)
