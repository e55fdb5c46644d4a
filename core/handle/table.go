// File: core/handle/table.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Table is the per-process handle table: the only path from a process to a
// kernel object. Slots are a generation-checked slot map, and values are
// salted per table, so a value leaked across processes never resolves.
//
// Lock ordering: a thread holding the table lock may take a dispatcher
// lock (Duplicate retains under it), never the reverse.

package handle

import (
	"sync"

	"github.com/momentics/kobject/api"
)

const (
	indexBits = 16
	indexMask = 1<<indexBits - 1
	maxSlots  = indexMask - 1
)

type slot struct {
	gen uint32 // bumped on free, so stale values miss
	h   *Handle
}

// Table maps per-table integer values to handles for one process.
type Table struct {
	mu       sync.Mutex
	owner    api.Koid
	salt     api.HandleValue
	slots    []slot
	free     []int // free slot indexes, LIFO
	count    int
	capacity int
}

// NewTable creates a table for the process identified by owner.
func NewTable(owner api.Koid, capacity int) *Table {
	if capacity < 1 || capacity > maxSlots {
		capacity = maxSlots
	}
	return &Table{
		owner: owner,
		// Fibonacci-hash the owner koid into the generation bits so two
		// tables never share a value encoding.
		salt:     api.HandleValue(uint32(uint64(owner)*0x9e3779b97f4a7c15>>40) << indexBits),
		capacity: capacity,
	}
}

// Owner returns the owning process koid.
func (t *Table) Owner() api.Koid { return t.owner }

// Count returns the number of live handles.
func (t *Table) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Capacity returns the table's handle bound.
func (t *Table) Capacity() int { return t.capacity }

// Add inserts a handle and returns its per-table value. Fails with
// ErrNoMemory at capacity; the handle is untouched on failure.
func (t *Table) Add(h *Handle) (api.HandleValue, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.addLocked(h)
}

func (t *Table) addLocked(h *Handle) (api.HandleValue, error) {
	if t.count >= t.capacity {
		return api.HandleInvalid, api.ErrNoMemory
	}
	var idx int
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		idx = len(t.slots)
		t.slots = append(t.slots, slot{})
	}
	t.slots[idx].h = h
	t.count++
	v := t.encode(idx, t.slots[idx].gen)
	h.value = v
	h.owner = t.owner
	return v, nil
}

// Get looks a value up and checks rights in one critical section, so the
// check can never be separated from the use by a concurrent table change.
// ErrBadHandle when absent; ErrAccessDenied when present without every
// required right.
func (t *Table) Get(v api.HandleValue, required api.Rights) (*Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.lookupLocked(v)
	if h == nil {
		return nil, api.ErrBadHandle
	}
	if !h.rights.Contains(required) {
		return nil, api.ErrAccessDenied
	}
	return h, nil
}

// GetDispatcher resolves a value to its dispatcher and granted rights,
// rights-checked under the table lock. The returned interface reference
// keeps the object reachable for the duration of the operation.
func (t *Table) GetDispatcher(v api.HandleValue, required api.Rights) (api.Dispatcher, api.Rights, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.lookupLocked(v)
	if h == nil {
		return nil, 0, api.ErrBadHandle
	}
	if !h.rights.Contains(required) {
		return nil, 0, api.ErrAccessDenied
	}
	return h.disp, h.rights, nil
}

// Duplicate narrows a handle into a new table entry in one critical
// section: lookup, rights checks, retain, and insert all under the table
// lock, so the source cannot be closed out from under the duplicate.
func (t *Table) Duplicate(v api.HandleValue, newRights api.Rights) (api.HandleValue, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	src := t.lookupLocked(v)
	if src == nil {
		return api.HandleInvalid, api.ErrBadHandle
	}
	dup, err := src.Duplicate(newRights)
	if err != nil {
		return api.HandleInvalid, err
	}
	nv, err := t.addLocked(dup)
	if err != nil {
		// Undo the retain; the source still holds a reference, so this
		// cannot reach zero.
		dup.disp.Release()
		return api.HandleInvalid, err
	}
	return nv, nil
}

// Remove detaches a handle and returns ownership of it to the caller, who
// then closes it.
func (t *Table) Remove(v api.HandleValue) (*Handle, error) {
	t.mu.Lock()
	h := t.removeLocked(v)
	t.mu.Unlock()
	if h == nil {
		return nil, api.ErrBadHandle
	}
	return h, nil
}

func (t *Table) removeLocked(v api.HandleValue) *Handle {
	h := t.lookupLocked(v)
	if h == nil {
		return nil
	}
	idx := int(uint32(v^t.salt)&indexMask) - 1
	t.slots[idx].h = nil
	t.slots[idx].gen++
	t.free = append(t.free, idx)
	t.count--
	h.value = api.HandleInvalid
	h.owner = api.KoidInvalid
	return h
}

// Clear removes and closes every handle. Invoked exactly once, at process
// exit; no handle outlives its owning process's table. Closes run outside
// the table lock, per the lock order.
func (t *Table) Clear() int {
	t.mu.Lock()
	var handles []*Handle
	for i := range t.slots {
		if h := t.slots[i].h; h != nil {
			t.slots[i].h = nil
			t.slots[i].gen++
			handles = append(handles, h)
		}
	}
	t.slots = nil
	t.free = nil
	t.count = 0
	t.mu.Unlock()

	for _, h := range handles {
		h.Close()
	}
	return len(handles)
}

func (t *Table) lookupLocked(v api.HandleValue) *Handle {
	if v == api.HandleInvalid {
		return nil
	}
	raw := uint32(v ^ t.salt)
	idx := int(raw&indexMask) - 1
	if idx < 0 || idx >= len(t.slots) {
		return nil
	}
	s := &t.slots[idx]
	if s.h == nil || t.encode(idx, s.gen) != v {
		return nil
	}
	return s.h
}

func (t *Table) encode(idx int, gen uint32) api.HandleValue {
	return (api.HandleValue(gen)<<indexBits | api.HandleValue(idx+1)) ^ t.salt
}
