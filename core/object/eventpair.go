// File: core/object/eventpair.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// EventPair: two linked events. Each side can signal the other; when one
// side loses its last handle, the survivor observes PEER_CLOSED. The peer
// link is a lookup relation guarded by a shared lock, never ownership —
// neither side keeps the other alive.

package object

import (
	"sync"

	"github.com/momentics/kobject/api"
)

// EventPair is one endpoint of a peered event.
type EventPair struct {
	Base

	linkMu *sync.Mutex // shared by both endpoints
	peer   *EventPair  // nil once either side is gone
}

var _ api.PeeredDispatcher = (*EventPair)(nil)

// NewEventPair creates both endpoints, linked, and the default rights for
// their first handles.
func NewEventPair() (*EventPair, *EventPair, api.Rights) {
	userMask := api.SignalUserAll | api.SignalSignaled
	linkMu := &sync.Mutex{}
	ep0 := &EventPair{Base: newBase(api.TypeEventPair, 0, userMask), linkMu: linkMu}
	ep1 := &EventPair{Base: newBase(api.TypeEventPair, 0, userMask), linkMu: linkMu}
	ep0.peer, ep1.peer = ep1, ep0
	return ep0, ep1, api.DefaultRights(api.TypeEventPair)
}

// PeerKoid returns the peer's koid, or KoidInvalid once the peer is gone.
func (ep *EventPair) PeerKoid() api.Koid {
	ep.linkMu.Lock()
	defer ep.linkMu.Unlock()
	if ep.peer == nil {
		return api.KoidInvalid
	}
	return ep.peer.Koid()
}

// SignalPeer applies a user signal transition to the peer endpoint.
func (ep *EventPair) SignalPeer(clear, set api.Signals) error {
	ep.linkMu.Lock()
	peer := ep.peer
	ep.linkMu.Unlock()
	if peer == nil {
		return api.ErrPeerClosed
	}
	if clear|set != (clear|set)&peer.UserSignals() {
		return api.ErrInvalidArgs
	}
	peer.UpdateState(clear, set)
	return nil
}

// OnZeroHandles severs the link, cancels local observers, and asserts
// PEER_CLOSED on the survivor. The link is severed before the peer is
// signaled so a racing SignalPeer from the dying side cannot fire after
// the close is visible.
func (ep *EventPair) OnZeroHandles() {
	ep.linkMu.Lock()
	peer := ep.peer
	ep.peer = nil
	if peer != nil {
		peer.peer = nil
	}
	ep.linkMu.Unlock()

	ep.cancelObservers()
	if peer != nil {
		peer.UpdateState(0, api.EventPairPeerClosed)
	}
}
