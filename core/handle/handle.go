// File: core/handle/handle.go
// Package handle implements rights-scoped capabilities and the per-process
// handle table.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Handle is a (dispatcher reference, rights mask, owning process) triple:
// the unit of capability. Many handles may reference one dispatcher; each
// handle co-owns it, and the dispatcher lives exactly as long as its
// longest-lived handle.

package handle

import (
	"github.com/momentics/kobject/api"
)

// Handle is a single capability. It belongs to at most one table at a
// time; duplication creates a new Handle, never a shared one.
type Handle struct {
	disp   api.Dispatcher
	rights api.Rights
	owner  api.Koid
	value  api.HandleValue
}

// Adopt wraps a freshly created dispatcher into its first handle, taking
// over the creation reference.
func Adopt(d api.Dispatcher, rights api.Rights) *Handle {
	d.Adopt()
	return &Handle{disp: d, rights: rights}
}

// New wraps a dispatcher into an additional co-owning handle.
func New(d api.Dispatcher, rights api.Rights) *Handle {
	d.Retain()
	return &Handle{disp: d, rights: rights}
}

// Dispatcher returns the referenced dispatcher.
func (h *Handle) Dispatcher() api.Dispatcher { return h.disp }

// Rights returns the handle's rights mask.
func (h *Handle) Rights() api.Rights { return h.rights }

// Owner returns the koid of the owning process, KoidInvalid while the
// handle is not in any table.
func (h *Handle) Owner() api.Koid { return h.owner }

// Value returns the table value, HandleInvalid while not in a table.
func (h *Handle) Value() api.HandleValue { return h.value }

// HasRights reports whether every bit of want is granted.
func (h *Handle) HasRights(want api.Rights) bool {
	return h.rights.Contains(want)
}

// Duplicate creates an independent co-owning handle. Rights may only
// narrow: RightSameRights requests the source mask verbatim; any bit not
// held by the source fails with ErrAccessDenied, as does a source missing
// RightDuplicate. No handle is produced on failure.
func (h *Handle) Duplicate(newRights api.Rights) (*Handle, error) {
	if !h.rights.Contains(api.RightDuplicate) {
		return nil, api.ErrAccessDenied
	}
	if newRights == api.RightSameRights {
		newRights = h.rights
	} else if !h.rights.Contains(newRights) {
		return nil, api.ErrAccessDenied
	}
	return New(h.disp, newRights), nil
}

// Close drops this handle's ownership; the caller (normally the table)
// guarantees exactly-once. If this was the last handle, the dispatcher's
// zero-handles hook runs before Close returns.
func (h *Handle) Close() {
	d := h.disp
	h.disp = nil
	h.value = api.HandleInvalid
	if d.Release() {
		d.OnZeroHandles()
	}
}
