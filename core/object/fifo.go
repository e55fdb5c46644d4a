// File: core/object/fifo.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fifo: a peered pair of endpoints moving fixed-size elements through one
// bounded ring per direction. READABLE/WRITABLE/PEER_CLOSED maintenance is
// atomic with the data operation: both run under the pair's shared lock.

package object

import (
	"sync"

	"github.com/momentics/kobject/api"
	"github.com/momentics/kobject/core/concurrency"
)

type fifoShared struct {
	elemSize int
	// rings[i] carries elements written by side i, read by side 1-i.
	rings [2]*concurrency.Ring[[]byte]
}

// Fifo is one endpoint of a peered fifo.
type Fifo struct {
	Base

	shared *fifoShared
	side   int

	linkMu *sync.Mutex // shared by both endpoints; guards link + data ops
	peer   *Fifo
}

var _ api.PeeredDispatcher = (*Fifo)(nil)

// NewFifoPair creates both endpoints. elemCount must be a power of two;
// elemCount*elemSize is bounded by maxBytes per direction.
func NewFifoPair(elemCount uint64, elemSize, maxBytes int) (*Fifo, *Fifo, api.Rights, error) {
	if elemCount == 0 || elemCount&(elemCount-1) != 0 || elemSize <= 0 {
		return nil, nil, 0, api.ErrInvalidArgs
	}
	if int(elemCount)*elemSize > maxBytes {
		return nil, nil, 0, api.ErrOutOfRange
	}
	shared := &fifoShared{
		elemSize: elemSize,
		rings: [2]*concurrency.Ring[[]byte]{
			concurrency.NewRing[[]byte](elemCount),
			concurrency.NewRing[[]byte](elemCount),
		},
	}
	linkMu := &sync.Mutex{}
	userMask := api.SignalUserAll
	f0 := &Fifo{Base: newBase(api.TypeFifo, api.FifoWritable, userMask), shared: shared, side: 0, linkMu: linkMu}
	f1 := &Fifo{Base: newBase(api.TypeFifo, api.FifoWritable, userMask), shared: shared, side: 1, linkMu: linkMu}
	f0.peer, f1.peer = f1, f0
	return f0, f1, api.DefaultRights(api.TypeFifo), nil
}

// ElemSize returns the fixed element size.
func (f *Fifo) ElemSize() int { return f.shared.elemSize }

// Write copies whole elements out of data into the outbound ring. It
// returns the element count written, ErrShouldWait when the ring is full,
// and ErrPeerClosed once the peer endpoint is gone.
func (f *Fifo) Write(data []byte) (int, error) {
	es := f.shared.elemSize
	if len(data) == 0 || len(data)%es != 0 {
		return 0, api.ErrInvalidArgs
	}

	f.linkMu.Lock()
	peer := f.peer
	if peer == nil {
		f.linkMu.Unlock()
		return 0, api.ErrPeerClosed
	}
	ring := f.shared.rings[f.side]
	n := 0
	for off := 0; off < len(data); off += es {
		elem := make([]byte, es)
		copy(elem, data[off:off+es])
		if !ring.Enqueue(elem) {
			break
		}
		n++
	}
	// Occupancy and the signal transitions are decided in one critical
	// section; a concurrent drain cannot interleave a stale transition.
	if n > 0 {
		peer.UpdateState(0, api.FifoReadable)
		if ring.Len() == ring.Cap() {
			f.UpdateState(api.FifoWritable, 0)
		}
	}
	f.linkMu.Unlock()

	if n == 0 {
		return 0, api.ErrShouldWait
	}
	return n, nil
}

// Read copies up to len(dst)/elemSize whole elements from the inbound
// ring. Reads drain remaining elements even after the peer closed;
// ErrPeerClosed is only surfaced once the ring is empty.
func (f *Fifo) Read(dst []byte) (int, error) {
	es := f.shared.elemSize
	max := len(dst) / es
	if max == 0 {
		return 0, api.ErrInvalidArgs
	}

	f.linkMu.Lock()
	peer := f.peer
	ring := f.shared.rings[1-f.side]
	n := 0
	for n < max {
		elem, ok := ring.Dequeue()
		if !ok {
			break
		}
		copy(dst[n*es:], elem)
		n++
	}
	if n > 0 {
		if peer != nil {
			peer.UpdateState(0, api.FifoWritable)
		}
		if ring.Len() == 0 {
			f.UpdateState(api.FifoReadable, 0)
		}
	}
	f.linkMu.Unlock()

	if n == 0 {
		if peer == nil {
			return 0, api.ErrPeerClosed
		}
		return 0, api.ErrShouldWait
	}
	return n, nil
}

// PeerKoid returns the peer's koid, or KoidInvalid once the peer is gone.
func (f *Fifo) PeerKoid() api.Koid {
	f.linkMu.Lock()
	defer f.linkMu.Unlock()
	if f.peer == nil {
		return api.KoidInvalid
	}
	return f.peer.Koid()
}

// SignalPeer applies a user signal transition to the peer endpoint.
func (f *Fifo) SignalPeer(clear, set api.Signals) error {
	f.linkMu.Lock()
	peer := f.peer
	f.linkMu.Unlock()
	if peer == nil {
		return api.ErrPeerClosed
	}
	if clear|set != (clear|set)&peer.UserSignals() {
		return api.ErrInvalidArgs
	}
	peer.UpdateState(clear, set)
	return nil
}

// OnZeroHandles severs the pair and asserts PEER_CLOSED on the survivor.
// The survivor also loses WRITABLE: nothing will drain its ring again.
func (f *Fifo) OnZeroHandles() {
	f.linkMu.Lock()
	peer := f.peer
	f.peer = nil
	if peer != nil {
		peer.peer = nil
	}
	f.linkMu.Unlock()

	f.cancelObservers()
	if peer != nil {
		peer.UpdateState(api.FifoWritable, api.FifoPeerClosed)
	}
}
