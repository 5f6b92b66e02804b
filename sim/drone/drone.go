// Package drone implements the minimal black-box forwarding actor the
// endpoint core treats every intermediate hop as: it interprets nothing
// about message content, advances a packet's routing cursor one hop, and
// probabilistically drops MsgFragment packets at a configured rate,
// replying with a Dropped NACK when it does (§5 "Drones run as separate
// actors on peer threads").
package drone

import (
	"math/rand"

	log "github.com/sirupsen/logrus"

	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
)

// Options configures one Drone actor, named after the teacher's
// original_source counterpart's DroneOptions (controller channels,
// per-node packet channels, drop rate) translated into Go channels.
type Options struct {
	ID      protocol.NodeID
	PDR     float64
	Recv    <-chan protocol.Packet
	Send    map[protocol.NodeID]chan<- protocol.Packet
	Control <-chan Command
}

// Command is the closed sum of controller directives a Drone accepts.
type Command interface{ isCommand() }

// AddSender registers a new outbound channel to a neighbor.
type AddSender struct {
	ID   protocol.NodeID
	Send chan<- protocol.Packet
}

// RemoveSender deregisters a neighbor.
type RemoveSender struct{ ID protocol.NodeID }

// SetPDR changes the drone's drop rate at runtime.
type SetPDR struct{ PDR float64 }

// Crash terminates the drone's loop immediately.
type Crash struct{}

func (AddSender) isCommand()    {}
func (RemoveSender) isCommand() {}
func (SetPDR) isCommand()       {}
func (Crash) isCommand()        {}

// Drone is a running forwarding actor.
type Drone struct {
	id      protocol.NodeID
	pdr     float64
	recv    <-chan protocol.Packet
	send    map[protocol.NodeID]chan<- protocol.Packet
	control <-chan Command
	rng     *rand.Rand
}

// New constructs a Drone from Options. rngSeed lets simulation drivers
// reproduce a run deterministically.
func New(opt Options, rngSeed int64) *Drone {
	var send = make(map[protocol.NodeID]chan<- protocol.Packet, len(opt.Send))
	for id, ch := range opt.Send {
		send[id] = ch
	}
	return &Drone{
		id:      opt.ID,
		pdr:     opt.PDR,
		recv:    opt.Recv,
		send:    send,
		control: opt.Control,
		rng:     rand.New(rand.NewSource(rngSeed)),
	}
}

// Run processes packets and control commands until Crash, or the packet
// channel closes.
func (d *Drone) Run() {
	for {
		select {
		case cmd, ok := <-d.control:
			if !ok || d.onControl(cmd) {
				return
			}
		case pkt, ok := <-d.recv:
			if !ok {
				return
			}
			d.onPacket(pkt)
		}
	}
}

func (d *Drone) onControl(cmd Command) (crash bool) {
	switch c := cmd.(type) {
	case AddSender:
		d.send[c.ID] = c.Send
	case RemoveSender:
		delete(d.send, c.ID)
	case SetPDR:
		d.pdr = c.PDR
	case Crash:
		return true
	}
	return false
}

// onPacket advances the routing cursor and forwards, dropping a
// MsgFragment probabilistically and replying with a Dropped NACK.
func (d *Drone) onPacket(pkt protocol.Packet) {
	if fr, ok := pkt.Body.(protocol.FloodRequest); ok {
		d.onFloodRequest(pkt, fr)
		return
	}

	if !pkt.Header.Valid() || pkt.Header.CurrentHop() != d.id {
		return
	}
	if pkt.Header.IsTerminator(d.id) {
		return // Malformed: a drone should never be a packet's terminator.
	}

	if _, isFragment := pkt.Body.(protocol.MsgFragment); isFragment && d.rng.Float64() < d.pdr {
		d.nack(pkt, protocol.Nack{FragmentIndex: fragmentIndex(pkt.Body), Kind: protocol.Dropped})
		return
	}

	var next = pkt.Header.Hops[pkt.Header.HopIndex+1]
	var ch, ok = d.send[next]
	if !ok {
		d.nack(pkt, protocol.Nack{FragmentIndex: fragmentIndex(pkt.Body), Kind: protocol.ErrorInRouting, Node: next})
		return
	}

	var forwarded = pkt
	forwarded.Header.HopIndex++
	select {
	case ch <- forwarded:
	default:
		log.WithFields(log.Fields{"drone": d.id, "next": next}).Warn("drone: outbound channel full, dropping forwarded packet")
	}
}

// onFloodRequest appends itself to the trace and re-broadcasts to every
// neighbor but the one it arrived from.
func (d *Drone) onFloodRequest(pkt protocol.Packet, fr protocol.FloodRequest) {
	var arrivedFrom protocol.NodeID
	if len(fr.PathTrace) > 0 {
		arrivedFrom = fr.PathTrace[len(fr.PathTrace)-1].NodeID
	}

	var trace = append(append([]protocol.PathEntry{}, fr.PathTrace...),
		protocol.PathEntry{NodeID: d.id, NodeType: protocol.Drone})
	var next = protocol.Packet{
		Header:    protocol.RoutingHeader{HopIndex: 1, Hops: nil},
		SessionID: pkt.SessionID,
		Body:      protocol.FloodRequest{FloodID: fr.FloodID, InitiatorID: fr.InitiatorID, PathTrace: trace},
	}
	for id, ch := range d.send {
		if id == arrivedFrom {
			continue
		}
		select {
		case ch <- next:
		default:
			log.WithFields(log.Fields{"drone": d.id, "next": id}).Warn("drone: outbound channel full, dropping flood rebroadcast")
		}
	}
}

// nack replies to |pkt| along the exact reverse of the path it arrived on.
func (d *Drone) nack(pkt protocol.Packet, nack protocol.Nack) {
	var header = protocol.ReversedPrefix(pkt.Header.Hops, pkt.Header.HopIndex, d.id)
	var reply = protocol.Packet{Header: header, SessionID: pkt.SessionID, Body: nack}
	var next = reply.Header.CurrentHop()
	var ch, ok = d.send[next]
	if !ok {
		return
	}
	select {
	case ch <- reply:
	default:
		log.WithFields(log.Fields{"drone": d.id, "next": next}).Warn("drone: outbound channel full, dropping nack")
	}
}

func fragmentIndex(body protocol.Body) uint64 {
	if f, ok := body.(protocol.MsgFragment); ok {
		return f.Fragment.FragmentIndex
	}
	return 0
}
