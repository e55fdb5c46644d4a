// File: facade/system.go
// Unified facade layer for the kobject object model.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// This file defines the System struct, which aggregates the object model
// behind a single facade: process registry, resource limits, and the
// syscall-shaped operation surface in syscalls.go. External collaborators
// (scheduler, VM, process hierarchy) interact with the subsystem only
// through these entry points.

package facade

import (
	"sync"

	"github.com/momentics/kobject/api"
	"github.com/momentics/kobject/core/handle"
	"github.com/momentics/kobject/core/object"
)

// Config holds parameters immutable per run.
type Config struct {
	HandleTableCapacity int // Max handles per process table
	PortCapacity        int // Max synchronously queued packets per port
	FifoMaxBytes        int // Max elemCount*elemSize per fifo direction
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		HandleTableCapacity: 4096, // Per-process handle bound
		PortCapacity:        4096, // Per-port user packet bound
		FifoMaxBytes:        4096, // Fifo ring bound per direction
	}
}

// System is the facade over the object model.
type System struct {
	config *Config

	mu        sync.RWMutex
	processes map[api.Koid]*object.Process
}

// NewSystem constructs a System with the given configuration.
func NewSystem(cfg *Config) *System {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &System{
		config:    cfg,
		processes: make(map[api.Koid]*object.Process),
	}
}

// Config returns the immutable configuration.
func (s *System) Config() *Config { return s.config }

// CreateProcess creates a root process. Its process handle is placed in
// its own table, so the process object participates in the ordinary
// handle lifecycle.
func (s *System) CreateProcess(name string) (*object.Process, api.HandleValue, error) {
	p, rights := object.NewProcess(name, s.config.HandleTableCapacity)
	h := handle.Adopt(p, rights)
	v, err := p.Table().Add(h)
	if err != nil {
		h.Close()
		return nil, api.HandleInvalid, err
	}
	s.mu.Lock()
	s.processes[p.Koid()] = p
	s.mu.Unlock()
	return p, v, nil
}

// ProcessCreate creates a child process; the child's process handle goes
// into the parent's table.
func (s *System) ProcessCreate(parent *object.Process, name string) (*object.Process, api.HandleValue, error) {
	p, rights := object.NewProcess(name, s.config.HandleTableCapacity)
	h := handle.Adopt(p, rights)
	v, err := parent.Table().Add(h)
	if err != nil {
		h.Close()
		return nil, api.HandleInvalid, err
	}
	s.mu.Lock()
	s.processes[p.Koid()] = p
	s.mu.Unlock()
	return p, v, nil
}

// ProcessExit tears the process down: clears its handle table exactly
// once, asserts TERMINATED, and drops it from the registry.
func (s *System) ProcessExit(p *object.Process, code int64) {
	p.Exit(code)
	s.mu.Lock()
	delete(s.processes, p.Koid())
	s.mu.Unlock()
}

// Process resolves a registered process by koid.
func (s *System) Process(koid api.Koid) (*object.Process, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.processes[koid]
	return p, ok
}

// ProcessCount returns the number of live processes.
func (s *System) ProcessCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processes)
}

// addFirstHandle adopts a freshly created dispatcher into the caller's
// table. On insertion failure the creation reference is dropped and no
// reachable object remains.
func (s *System) addFirstHandle(p *object.Process, d api.Dispatcher, rights api.Rights) (api.HandleValue, error) {
	h := handle.Adopt(d, rights)
	v, err := p.Table().Add(h)
	if err != nil {
		h.Close()
		return api.HandleInvalid, err
	}
	return v, nil
}
