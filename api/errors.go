// File: api/errors.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Status codes and error types for the kobject kernel object model.
// Status values are the stable numeric codes surfaced at the syscall
// boundary; they must never be renumbered.

package api

import "fmt"

// Status is the numeric result code of a syscall-level operation.
type Status int32

const (
	StatusOK           Status = 0
	StatusInternal     Status = -1
	StatusNotSupported Status = -2
	StatusNoResources  Status = -3
	StatusNoMemory     Status = -4
	StatusInterrupted  Status = -6
	StatusInvalidArgs  Status = -10
	StatusBadHandle    Status = -11
	StatusWrongType    Status = -12
	StatusOutOfRange   Status = -14
	StatusBadState     Status = -20
	StatusTimedOut     Status = -21
	StatusShouldWait   Status = -22
	StatusCanceled     Status = -23
	StatusPeerClosed   Status = -24
	StatusNotFound     Status = -25
	StatusAccessDenied Status = -30
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInternal:
		return "internal"
	case StatusNotSupported:
		return "not supported"
	case StatusNoResources:
		return "no resources"
	case StatusNoMemory:
		return "no memory"
	case StatusInterrupted:
		return "interrupted"
	case StatusInvalidArgs:
		return "invalid args"
	case StatusBadHandle:
		return "bad handle"
	case StatusWrongType:
		return "wrong type"
	case StatusOutOfRange:
		return "out of range"
	case StatusBadState:
		return "bad state"
	case StatusTimedOut:
		return "timed out"
	case StatusShouldWait:
		return "should wait"
	case StatusCanceled:
		return "canceled"
	case StatusPeerClosed:
		return "peer closed"
	case StatusNotFound:
		return "not found"
	case StatusAccessDenied:
		return "access denied"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// Error is a structured error carrying the stable status code.
type Error struct {
	Status  Status
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return e.Status.String()
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

// NewError creates a structured error for a status code.
func NewError(status Status, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Common errors used across the library. Each is the canonical error value
// for its status code; callers compare with errors.Is or go through StatusOf.
var (
	ErrInternal     = NewError(StatusInternal, "")
	ErrNotSupported = NewError(StatusNotSupported, "")
	ErrNoResources  = NewError(StatusNoResources, "")
	ErrNoMemory     = NewError(StatusNoMemory, "")
	ErrInterrupted  = NewError(StatusInterrupted, "")
	ErrInvalidArgs  = NewError(StatusInvalidArgs, "")
	ErrBadHandle    = NewError(StatusBadHandle, "")
	ErrWrongType    = NewError(StatusWrongType, "")
	ErrOutOfRange   = NewError(StatusOutOfRange, "")
	ErrBadState     = NewError(StatusBadState, "")
	ErrTimedOut     = NewError(StatusTimedOut, "")
	ErrShouldWait   = NewError(StatusShouldWait, "")
	ErrCanceled     = NewError(StatusCanceled, "")
	ErrPeerClosed   = NewError(StatusPeerClosed, "")
	ErrNotFound     = NewError(StatusNotFound, "")
	ErrAccessDenied = NewError(StatusAccessDenied, "")
)

// Err returns the canonical error value for a status, or nil for StatusOK.
func (s Status) Err() error {
	switch s {
	case StatusOK:
		return nil
	case StatusInternal:
		return ErrInternal
	case StatusNotSupported:
		return ErrNotSupported
	case StatusNoResources:
		return ErrNoResources
	case StatusNoMemory:
		return ErrNoMemory
	case StatusInterrupted:
		return ErrInterrupted
	case StatusInvalidArgs:
		return ErrInvalidArgs
	case StatusBadHandle:
		return ErrBadHandle
	case StatusWrongType:
		return ErrWrongType
	case StatusOutOfRange:
		return ErrOutOfRange
	case StatusBadState:
		return ErrBadState
	case StatusTimedOut:
		return ErrTimedOut
	case StatusShouldWait:
		return ErrShouldWait
	case StatusCanceled:
		return ErrCanceled
	case StatusPeerClosed:
		return ErrPeerClosed
	case StatusNotFound:
		return ErrNotFound
	case StatusAccessDenied:
		return ErrAccessDenied
	default:
		return NewError(s, "")
	}
}

// StatusOf extracts the status code from an error. A nil error maps to
// StatusOK; an error that is not an *Error maps to StatusInternal.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	if e, ok := err.(*Error); ok {
		return e.Status
	}
	return StatusInternal
}

// Is reports whether target shares this error's status. It lets sentinel
// comparisons via errors.Is succeed for any error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Status == e.Status
}
