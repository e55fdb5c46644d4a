// File: core/object/process.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process: the dispatcher kind that owns a handle table. The object model
// consumes only "process has exited, tear down its table" from the
// process subsystem proper; everything else about processes lives outside
// this core.

package object

import (
	"log"
	"sync/atomic"

	"github.com/momentics/kobject/api"
	"github.com/momentics/kobject/core/handle"
)

// Process is a handle-table-owning dispatcher. Its TERMINATED signal is
// waitable by holders of a process handle.
type Process struct {
	Base

	name    string
	table   *handle.Table
	exited  atomic.Bool
	retcode atomic.Int64
}

// NewProcess creates a process with an empty handle table of the given
// capacity, plus the default rights for its first handle.
func NewProcess(name string, tableCapacity int) (*Process, api.Rights) {
	p := &Process{
		Base: newBase(api.TypeProcess, 0, api.SignalUserAll),
		name: name,
	}
	p.table = handle.NewTable(p.Koid(), tableCapacity)
	return p, api.DefaultRights(api.TypeProcess)
}

// Name returns the process name.
func (p *Process) Name() string { return p.name }

// Table returns the process's handle table.
func (p *Process) Table() *handle.Table { return p.table }

// Exited reports whether Exit has run.
func (p *Process) Exited() bool { return p.exited.Load() }

// ReturnCode returns the exit code; valid once Exited reports true.
func (p *Process) ReturnCode() int64 { return p.retcode.Load() }

// Exit tears the process down: the handle table is cleared exactly once
// (closing every handle, cascading zero-handles hooks), then TERMINATED is
// asserted so waiters on the process handle observe the exit.
func (p *Process) Exit(code int64) {
	if !p.exited.CompareAndSwap(false, true) {
		return
	}
	p.retcode.Store(code)
	closed := p.table.Clear()
	p.UpdateState(0, api.ProcessTerminated)
	log.Printf("[object] process %d (%s) exited: code=%d handles_closed=%d",
		p.Koid(), p.name, code, closed)
}

// OnZeroHandles runs when the last handle to the process object closes.
// The table belongs to the process itself, not to its handles; it is torn
// down by Exit, not here.
func (p *Process) OnZeroHandles() {
	p.cancelObservers()
}
