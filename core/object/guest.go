// File: core/object/guest.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Guest: the hypervisor-facing dispatcher kind, reduced to the part that
// belongs to the object model: trap registrations that turn guest bell
// accesses into port packets.

package object

import (
	"sync"

	"github.com/momentics/kobject/api"
)

type guestTrap struct {
	port *Port
	key  uint64
}

// Guest routes bell traps to bound ports.
type Guest struct {
	Base

	mu    sync.Mutex
	traps map[uint64]guestTrap
}

// NewGuest returns a fresh, not-yet-adopted guest and its default rights.
func NewGuest() (*Guest, api.Rights) {
	g := &Guest{
		Base:  newBase(api.TypeGuest, 0, api.SignalUserAll),
		traps: make(map[uint64]guestTrap),
	}
	return g, api.DefaultRights(api.TypeGuest)
}

// SetTrap binds a bell address to a port; a later Bell on the address
// queues a GUEST_BELL packet carrying key. Rebinding an address fails
// with ErrBadState until the trap is cleared by guest teardown.
func (g *Guest) SetTrap(addr uint64, port *Port, key uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.traps[addr]; ok {
		return api.ErrBadState
	}
	g.traps[addr] = guestTrap{port: port, key: key}
	return nil
}

// Bell fires the trap bound to addr. ErrNotFound without a binding.
func (g *Guest) Bell(addr uint64) error {
	g.mu.Lock()
	trap, ok := g.traps[addr]
	g.mu.Unlock()
	if !ok {
		return api.ErrNotFound
	}
	pkt := api.Packet{
		Key:    trap.key,
		Type:   api.PacketTypeGuestBell,
		Status: api.StatusOK,
		Bell:   api.PacketGuestBell{Addr: addr},
	}
	return trap.port.Queue(&pkt)
}

// OnZeroHandles drops every trap binding and cancels observers.
func (g *Guest) OnZeroHandles() {
	g.mu.Lock()
	g.traps = make(map[uint64]guestTrap)
	g.mu.Unlock()
	g.cancelObservers()
}
