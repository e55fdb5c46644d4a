// File: core/object/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package object implements the kernel object model: reference-counted
// dispatchers, signal state tracking with observers, and the concrete
// object kinds (event, event pair, fifo, port, process, guest).
//
// Every kind embeds Base, which carries the koid, the type tag, the
// handle reference count, and the signal state tracker. Handles co-own
// dispatchers; the last handle to close runs the kind's OnZeroHandles
// hook exactly once.
package object
