// File: core/object/port.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Port: a dispatcher that is itself a FIFO queue of notification packets,
// fed synchronously by Queue or asynchronously by signal observers bound
// to other dispatchers. Packets are delivered strictly in queue order.
//
// Lock ordering: a dispatcher lock may be held while taking a port's queue
// lock (signal delivery enqueues a packet), never the reverse. Teardown
// therefore snapshots bindings under the port lock, releases it, and only
// then detaches from target dispatchers.

package object

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/kobject/api"
	"github.com/momentics/kobject/core/concurrency"
)

type portState uint8

const (
	portOpen portState = iota
	portClosing
	portClosed
)

type bindKey struct {
	target api.Koid
	key    uint64
}

// queuedPacket pairs a packet with the koid of the binding target that
// produced it: cancel flushes per (target, key), never per key alone, so a
// same-key binding on another object keeps its delivered packets.
type queuedPacket struct {
	pkt    api.Packet
	source api.Koid // KoidInvalid for user packets
}

// Port is the asynchronous notification object.
type Port struct {
	Base

	qmu      sync.Mutex   // queue lock: packets, bindings, lifecycle state
	packets  *queue.Queue // of api.Packet, FIFO
	bindings map[bindKey][]*asyncObserver
	state    portState
	capacity int // bound on user-queued packets; observer packets bypass it

	waiters *concurrency.WaitQueue
}

// NewPort returns a fresh, not-yet-adopted port and its default rights.
// capacity bounds synchronously queued packets; asynchronous observer
// packets are never dropped for capacity.
func NewPort(capacity int) (*Port, api.Rights) {
	if capacity < 1 {
		capacity = 1
	}
	p := &Port{
		Base:     newBase(api.TypePort, 0, api.SignalUserAll),
		packets:  queue.New(),
		bindings: make(map[bindKey][]*asyncObserver),
		capacity: capacity,
		waiters:  concurrency.NewWaitQueue(),
	}
	return p, api.DefaultRights(api.TypePort)
}

// Queue appends a packet to the FIFO. Fails with ErrBadState once the port
// is tearing down and ErrNoMemory when the user-packet bound is hit.
func (p *Port) Queue(pkt *api.Packet) error {
	return p.enqueue(pkt, api.KoidInvalid, false)
}

func (p *Port) enqueue(pkt *api.Packet, source api.Koid, fromObserver bool) error {
	p.qmu.Lock()
	if p.state == portClosed || (p.state == portClosing && !fromObserver) {
		p.qmu.Unlock()
		return api.ErrBadState
	}
	if !fromObserver && p.packets.Length() >= p.capacity {
		p.qmu.Unlock()
		return api.ErrNoMemory
	}
	wasEmpty := p.packets.Length() == 0
	p.packets.Add(queuedPacket{pkt: *pkt, source: source})
	p.qmu.Unlock()

	// Wake one waiter only on the empty->non-empty edge; Wait hands off
	// to the next waiter when it leaves packets behind.
	if wasEmpty {
		p.waiters.WakeOne()
	}
	return nil
}

// Wait blocks until a packet is available or the deadline passes, then
// pops and returns the head packet. A port mid-teardown still drains its
// remaining packets; waiters beyond the drain are cancelled.
func (p *Port) Wait(deadline api.Deadline) (api.Packet, error) {
	for {
		p.qmu.Lock()
		if p.packets.Length() > 0 {
			qp := p.packets.Remove().(queuedPacket)
			more := p.packets.Length() > 0
			p.qmu.Unlock()
			if more {
				p.waiters.WakeOne()
			}
			return qp.pkt, nil
		}
		if p.state != portOpen {
			p.qmu.Unlock()
			return api.Packet{}, api.ErrBadState
		}
		w := p.waiters.Prepare()
		p.qmu.Unlock()

		if err := p.waiters.Block(w, deadline); err != nil {
			return api.Packet{}, err
		}
		// Woken: re-check, another waiter may have raced us to the packet.
	}
}

// Depth returns the number of packets currently queued.
func (p *Port) Depth() int {
	p.qmu.Lock()
	defer p.qmu.Unlock()
	return p.packets.Length()
}

// BindObserver registers this port as a signal observer on target. Each
// qualifying transition synthesizes a packet carrying key and the observed
// state. In once mode the binding auto-unbinds after its first packet; in
// repeating mode every transition produces a packet, uncoalesced.
//
// A condition already satisfied at bind time queues a packet immediately.
func (p *Port) BindObserver(target api.Dispatcher, key uint64, mask api.Signals, repeating bool) error {
	if mask == 0 {
		return api.ErrInvalidArgs
	}
	obs := &asyncObserver{
		port:      p,
		target:    target,
		key:       key,
		mask:      mask,
		repeating: repeating,
	}

	p.qmu.Lock()
	if p.state != portOpen {
		p.qmu.Unlock()
		return api.ErrBadState
	}
	bk := bindKey{target: target.Koid(), key: key}
	p.bindings[bk] = append(p.bindings[bk], obs)
	p.qmu.Unlock()

	snapshot := target.AddObserver(obs, mask)
	if snapshot&mask != 0 {
		// Already satisfied: deliver now. The spent guard keeps a racing
		// transition from double-firing a once binding.
		if obs.OnStateChange(snapshot) {
			target.RemoveObserver(obs)
		}
	}
	return nil
}

// Cancel removes bindings for (target koid, key) and flushes matching
// signal packets that are still queued. A notification racing the cancel
// either completes (packet visible) or is fully suppressed; nothing is
// partially delivered. Returns ErrNotFound when nothing matched.
func (p *Port) Cancel(target api.Koid, key uint64) error {
	bk := bindKey{target: target, key: key}

	p.qmu.Lock()
	list := p.bindings[bk]
	delete(p.bindings, bk)
	flushed := p.flushPacketsLocked(target, key)
	p.qmu.Unlock()

	detached := 0
	for _, obs := range list {
		if obs.spend() {
			obs.target.RemoveObserver(obs)
			detached++
		}
	}
	if detached == 0 && flushed == 0 {
		return api.ErrNotFound
	}
	return nil
}

// flushPacketsLocked drops queued signal packets from the (target, key)
// binding. The FIFO only pops from the front, so it is rebuilt in place.
func (p *Port) flushPacketsLocked(target api.Koid, key uint64) int {
	n := p.packets.Length()
	dropped := 0
	for i := 0; i < n; i++ {
		qp := p.packets.Remove().(queuedPacket)
		if qp.source == target && qp.pkt.Key == key &&
			(qp.pkt.Type == api.PacketTypeSignalOne || qp.pkt.Type == api.PacketTypeSignalRep) {
			dropped++
			continue
		}
		p.packets.Add(qp)
	}
	return dropped
}

// unbind drops a spent observer's map entry.
func (p *Port) unbind(obs *asyncObserver) {
	bk := bindKey{target: obs.target.Koid(), key: obs.key}
	p.qmu.Lock()
	list := p.bindings[bk]
	for i := range list {
		if list[i] == obs {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(p.bindings, bk)
	} else {
		p.bindings[bk] = list
	}
	p.qmu.Unlock()
}

// OnZeroHandles tears the port down: no new observers may bind, bound
// observers are detached (in-flight notifications still land), then the
// port closes and blocked waiters are cancelled. Teardown runs strictly
// after observers are detached, so no waiter hangs and no packet is
// delivered to a dead port.
func (p *Port) OnZeroHandles() {
	p.qmu.Lock()
	if p.state != portOpen {
		p.qmu.Unlock()
		return
	}
	p.state = portClosing
	var snap []*asyncObserver
	for _, list := range p.bindings {
		snap = append(snap, list...)
	}
	p.bindings = make(map[bindKey][]*asyncObserver)
	p.qmu.Unlock()

	for _, obs := range snap {
		if obs.spend() {
			obs.target.RemoveObserver(obs)
		}
	}

	p.qmu.Lock()
	p.state = portClosed
	p.qmu.Unlock()

	p.waiters.CancelAll(api.StatusCanceled)
	p.cancelObservers()
}
