// File: api/packet.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Port packet DTOs. A packet is the unit of asynchronous notification
// delivered through a port's FIFO.

package api

// PacketType discriminates the packet payload.
type PacketType uint32

const (
	PacketTypeUser PacketType = iota
	PacketTypeSignalOne
	PacketTypeSignalRep
	PacketTypeGuestBell
)

// PacketSignal is the payload synthesized from a signal transition.
type PacketSignal struct {
	Trigger  Signals // interest mask the observer was bound with
	Observed Signals // signal state at delivery time
	Count    uint64  // transitions represented by this packet
}

// PacketGuestBell is the payload of a guest bell trap.
type PacketGuestBell struct {
	Addr uint64
}

// PacketUserSize is the fixed payload size of a user packet.
const PacketUserSize = 32

// Packet is a single port notification. Key is the caller-chosen
// correlation id bound at queue or observer-registration time.
type Packet struct {
	Key    uint64
	Type   PacketType
	Status Status

	Signal PacketSignal
	Bell   PacketGuestBell
	User   [PacketUserSize]byte
}
