// File: facade/syscalls.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Syscall-shaped operation surface. Every entry point resolves the handle
// with exactly the rights the operation needs — lookup and rights check
// are one critical section — then acts on the dispatcher. Caller errors
// are always surfaced; nothing is logged and swallowed.

package facade

import (
	"errors"

	"github.com/momentics/kobject/api"
	"github.com/momentics/kobject/core/object"
)

// EventCreate creates an event and returns its handle.
func (s *System) EventCreate(p *object.Process, options uint32) (api.HandleValue, error) {
	if options != 0 {
		return api.HandleInvalid, api.ErrInvalidArgs
	}
	ev, rights := object.NewEvent()
	return s.addFirstHandle(p, ev, rights)
}

// EventPairCreate creates a linked event pair and returns both handles.
func (s *System) EventPairCreate(p *object.Process, options uint32) (api.HandleValue, api.HandleValue, error) {
	if options != 0 {
		return api.HandleInvalid, api.HandleInvalid, api.ErrInvalidArgs
	}
	ep0, ep1, rights := object.NewEventPair()
	v0, err := s.addFirstHandle(p, ep0, rights)
	if err != nil {
		// ep1 was never reachable; drop its creation reference through
		// the ordinary lifecycle so the pair severs cleanly.
		s.discard(ep1)
		return api.HandleInvalid, api.HandleInvalid, err
	}
	v1, err := s.addFirstHandle(p, ep1, rights)
	if err != nil {
		s.HandleClose(p, v0)
		return api.HandleInvalid, api.HandleInvalid, err
	}
	return v0, v1, nil
}

// PortCreate creates a port and returns its handle.
func (s *System) PortCreate(p *object.Process, options uint32) (api.HandleValue, error) {
	if options != 0 {
		return api.HandleInvalid, api.ErrInvalidArgs
	}
	port, rights := object.NewPort(s.config.PortCapacity)
	return s.addFirstHandle(p, port, rights)
}

// FifoCreate creates a fifo pair and returns both handles. elemCount must
// be a power of two; elemCount*elemSize is bounded by config.
func (s *System) FifoCreate(p *object.Process, elemCount uint64, elemSize int) (api.HandleValue, api.HandleValue, error) {
	f0, f1, rights, err := object.NewFifoPair(elemCount, elemSize, s.config.FifoMaxBytes)
	if err != nil {
		return api.HandleInvalid, api.HandleInvalid, err
	}
	v0, err := s.addFirstHandle(p, f0, rights)
	if err != nil {
		s.discard(f1)
		return api.HandleInvalid, api.HandleInvalid, err
	}
	v1, err := s.addFirstHandle(p, f1, rights)
	if err != nil {
		s.HandleClose(p, v0)
		return api.HandleInvalid, api.HandleInvalid, err
	}
	return v0, v1, nil
}

// GuestCreate creates a guest and returns its handle.
func (s *System) GuestCreate(p *object.Process, options uint32) (api.HandleValue, error) {
	if options != 0 {
		return api.HandleInvalid, api.ErrInvalidArgs
	}
	g, rights := object.NewGuest()
	return s.addFirstHandle(p, g, rights)
}

// HandleDuplicate duplicates a handle with narrowed rights. The source
// stays valid and usable whether or not the duplicate succeeds.
func (s *System) HandleDuplicate(p *object.Process, v api.HandleValue, newRights api.Rights) (api.HandleValue, error) {
	return p.Table().Duplicate(v, newRights)
}

// HandleClose removes and closes a handle.
func (s *System) HandleClose(p *object.Process, v api.HandleValue) error {
	h, err := p.Table().Remove(v)
	if err != nil {
		return err
	}
	h.Close()
	return nil
}

// ObjectSignal asserts and deasserts signal bits on the object behind the
// handle. Requires the SIGNAL right; masks must stay within the bits the
// kind exposes to users.
func (s *System) ObjectSignal(p *object.Process, v api.HandleValue, clear, set api.Signals) error {
	d, _, err := p.Table().GetDispatcher(v, api.RightSignal)
	if err != nil {
		return err
	}
	if (clear|set)&^d.UserSignals() != 0 {
		return api.ErrInvalidArgs
	}
	d.UpdateState(clear, set)
	return nil
}

// ObjectSignalPeer applies a signal transition to the peer of a peered
// object. Requires the SIGNAL_PEER right.
func (s *System) ObjectSignalPeer(p *object.Process, v api.HandleValue, clear, set api.Signals) error {
	d, _, err := p.Table().GetDispatcher(v, api.RightSignalPeer)
	if err != nil {
		return err
	}
	pd, ok := d.(api.PeeredDispatcher)
	if !ok {
		return api.ErrWrongType
	}
	return pd.SignalPeer(clear, set)
}

// ObjectWaitOne blocks until one of the signals of interest is asserted
// on the object, the deadline passes, or the object loses its last
// handle. The observed signal state accompanies every outcome except
// interruption.
func (s *System) ObjectWaitOne(p *object.Process, v api.HandleValue, mask api.Signals, deadline api.Deadline) (api.Signals, error) {
	d, _, err := p.Table().GetDispatcher(v, api.RightWait)
	if err != nil {
		return 0, err
	}

	obs := object.NewWaitObserver(mask)
	initial := d.AddObserver(obs, mask)
	if initial&mask != 0 {
		d.RemoveObserver(obs)
		return initial, nil
	}
	if deadline == api.DeadlinePast {
		d.RemoveObserver(obs)
		return initial, api.ErrTimedOut
	}

	observed, err := obs.Wait(deadline)
	switch {
	case err == nil || errors.Is(err, api.ErrCanceled):
		// Notified or torn down: the tracker already dropped the entry.
		return observed, err
	case errors.Is(err, api.ErrTimedOut):
		d.RemoveObserver(obs)
		return d.State(), err
	default:
		// Interrupted: the entry must not outlive the wait.
		d.RemoveObserver(obs)
		return 0, err
	}
}

// ObjectWaitAsync binds a port as a signal observer on the object: on
// qualifying transitions a packet carrying key is queued to the port.
// Requires WAIT on the object handle and WRITE on the port handle.
func (s *System) ObjectWaitAsync(p *object.Process, v, portV api.HandleValue, key uint64, mask api.Signals, options uint32) error {
	if options != api.WaitAsyncOnce && options != api.WaitAsyncRepeating {
		return api.ErrInvalidArgs
	}
	d, _, err := p.Table().GetDispatcher(v, api.RightWait)
	if err != nil {
		return err
	}
	port, err := s.portFor(p, portV, api.RightWrite)
	if err != nil {
		return err
	}
	return port.BindObserver(d, key, mask, options == api.WaitAsyncRepeating)
}

// PortQueue appends a user packet to the port's FIFO.
func (s *System) PortQueue(p *object.Process, v api.HandleValue, pkt *api.Packet) error {
	if pkt == nil || pkt.Type != api.PacketTypeUser {
		return api.ErrInvalidArgs
	}
	port, err := s.portFor(p, v, api.RightWrite)
	if err != nil {
		return err
	}
	return port.Queue(pkt)
}

// PortWait blocks until a packet is available or the deadline passes and
// returns the head packet, FIFO order preserved.
func (s *System) PortWait(p *object.Process, v api.HandleValue, deadline api.Deadline) (api.Packet, error) {
	port, err := s.portFor(p, v, api.RightRead)
	if err != nil {
		return api.Packet{}, err
	}
	return port.Wait(deadline)
}

// PortCancel removes the async bindings registered on the port for the
// target handle's object under key, flushing matching queued packets.
func (s *System) PortCancel(p *object.Process, v, targetV api.HandleValue, key uint64) error {
	port, err := s.portFor(p, v, api.RightWrite)
	if err != nil {
		return err
	}
	target, _, err := p.Table().GetDispatcher(targetV, api.RightNone)
	if err != nil {
		return err
	}
	return port.Cancel(target.Koid(), key)
}

// GuestSetTrap binds a guest bell address to a port under key.
func (s *System) GuestSetTrap(p *object.Process, guestV api.HandleValue, addr uint64, portV api.HandleValue, key uint64) error {
	d, _, err := p.Table().GetDispatcher(guestV, api.RightWrite)
	if err != nil {
		return err
	}
	g, ok := d.(*object.Guest)
	if !ok {
		return api.ErrWrongType
	}
	port, err := s.portFor(p, portV, api.RightWrite)
	if err != nil {
		return err
	}
	return g.SetTrap(addr, port, key)
}

// GuestBell fires the trap bound to addr on the guest.
func (s *System) GuestBell(p *object.Process, guestV api.HandleValue, addr uint64) error {
	d, _, err := p.Table().GetDispatcher(guestV, api.RightWrite)
	if err != nil {
		return err
	}
	g, ok := d.(*object.Guest)
	if !ok {
		return api.ErrWrongType
	}
	return g.Bell(addr)
}

// FifoWrite copies whole elements into the fifo behind the handle.
func (s *System) FifoWrite(p *object.Process, v api.HandleValue, data []byte) (int, error) {
	d, _, err := p.Table().GetDispatcher(v, api.RightWrite)
	if err != nil {
		return 0, err
	}
	f, ok := d.(*object.Fifo)
	if !ok {
		return 0, api.ErrWrongType
	}
	return f.Write(data)
}

// FifoRead copies whole elements out of the fifo behind the handle.
func (s *System) FifoRead(p *object.Process, v api.HandleValue, dst []byte) (int, error) {
	d, _, err := p.Table().GetDispatcher(v, api.RightRead)
	if err != nil {
		return 0, err
	}
	f, ok := d.(*object.Fifo)
	if !ok {
		return 0, api.ErrWrongType
	}
	return f.Read(dst)
}

// portFor resolves a handle to a port dispatcher with the given rights.
func (s *System) portFor(p *object.Process, v api.HandleValue, required api.Rights) (*object.Port, error) {
	d, _, err := p.Table().GetDispatcher(v, required)
	if err != nil {
		return nil, err
	}
	port, ok := d.(*object.Port)
	if !ok {
		return nil, api.ErrWrongType
	}
	return port, nil
}

// discard drops the creation reference of a never-exposed dispatcher
// through the normal lifecycle, so peers observe the close.
func (s *System) discard(d api.Dispatcher) {
	d.Adopt()
	if d.Release() {
		d.OnZeroHandles()
	}
}
