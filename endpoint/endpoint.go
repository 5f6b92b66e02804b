// Package endpoint implements the Endpoint State Machine (§4.G): a
// single-threaded, cooperative event loop that owns one node's Topology
// Store, Session Manager, Reassembler, Flood Engine and Pending Message
// Queue, biased control-over-packet-over-internal-retry on every turn.
package endpoint

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Lockheed-Rustin/drone-network-sub000/assembler"
	"github.com/Lockheed-Rustin/drone-network-sub000/flood"
	"github.com/Lockheed-Rustin/drone-network-sub000/pending"
	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
	"github.com/Lockheed-Rustin/drone-network-sub000/router"
	"github.com/Lockheed-Rustin/drone-network-sub000/session"
	"github.com/Lockheed-Rustin/drone-network-sub000/topology"
)

// ErrUnknownNeighbor is logged (never returned to a caller) when an
// outbound packet names a next hop this endpoint has no channel for.
var ErrUnknownNeighbor = errors.New("endpoint: no channel registered for next hop")

// retryWork names one (session, fragment) pair the internal queue has been
// asked to re-attempt sending, lowest priority in the event loop's biased
// selection.
type retryWork struct {
	session protocol.SessionID
	index   uint64
}

// Endpoint is one node's event loop and owned mutable state. It is not
// safe for concurrent use; Run must be called from a single goroutine and
// owns every field below for its lifetime.
type Endpoint struct {
	self     protocol.NodeID
	selfType protocol.NodeType

	topo     *topology.Store
	sessions *session.Manager
	reasm    *assembler.Reassembler
	flooder  *flood.Engine
	pend     *pending.Queue

	neighbors map[protocol.NodeID]chan<- protocol.Packet

	control  <-chan Command
	packets  <-chan protocol.Packet
	internal chan retryWork
	events   chan<- Event

	sessionIDCounter protocol.SessionID
}

// NewEndpoint constructs an Endpoint for |self|, seeded with |neighbors|
// (every initial neighbor is a drone, per the topology configuration
// validation rules of §6). control and packets are the inbound channels
// Run selects over; events is where every emitted Event is sent.
func NewEndpoint(
	self protocol.NodeID,
	selfType protocol.NodeType,
	neighbors map[protocol.NodeID]chan<- protocol.Packet,
	control <-chan Command,
	packets <-chan protocol.Packet,
	events chan<- Event,
) *Endpoint {
	var topo = topology.NewStore(self, selfType)
	var e = &Endpoint{
		self:      self,
		selfType:  selfType,
		topo:      topo,
		sessions:  session.NewManager(),
		reasm:     assembler.NewReassembler(),
		flooder:   flood.NewEngine(self, selfType),
		pend:      pending.NewQueue(),
		neighbors: make(map[protocol.NodeID]chan<- protocol.Packet, len(neighbors)),
		control:   control,
		packets:   packets,
		internal:  make(chan retryWork, 256),
		events:    events,
	}
	for id, ch := range neighbors {
		e.neighbors[id] = ch
		topo.AddNode(id, protocol.Drone)
		topo.AddEdge(self, id)
	}
	return e
}

// Run executes the event loop until Return is received, or either inbound
// channel is closed (§4.G, §5 Cancellation). It blocks the calling
// goroutine for its entire lifetime.
func (e *Endpoint) Run() {
	log.WithFields(log.Fields{"self": e.self, "type": e.selfType}).Info("endpoint starting")
	e.broadcastFlood()

	for !e.step() {
	}

	log.WithField("self", e.self).Info("endpoint stopped")
}

// step runs one iteration of the biased event loop, returning done=true
// once the loop should exit. Priority is control > packet >
// internal-retry-queue (§4.G); the three non-blocking passes below implement
// that bias, falling back to a blocking select only when nothing is
// immediately ready.
func (e *Endpoint) step() (done bool) {
	select {
	case cmd, ok := <-e.control:
		return e.onControl(cmd, ok)
	default:
	}
	select {
	case pkt, ok := <-e.packets:
		if !ok {
			return true
		}
		e.onPacket(pkt)
		return false
	default:
	}
	select {
	case w := <-e.internal:
		e.onRetry(w)
		return false
	default:
	}

	select {
	case cmd, ok := <-e.control:
		return e.onControl(cmd, ok)
	case pkt, ok := <-e.packets:
		if !ok {
			return true
		}
		e.onPacket(pkt)
		return false
	case w := <-e.internal:
		e.onRetry(w)
		return false
	}
}

func (e *Endpoint) onControl(cmd Command, ok bool) (done bool) {
	if !ok {
		return true
	}
	switch c := cmd.(type) {
	case AddSender:
		e.onAddSender(c)
	case RemoveSender:
		e.onRemoveSender(c)
	case SendMessage:
		e.onSendMessage(c)
	case Return:
		return true
	default:
		log.WithField("command", cmd).Panic("endpoint: unrecognized command")
	}
	return false
}

func (e *Endpoint) onAddSender(c AddSender) {
	e.neighbors[c.ID] = c.Send
	e.topo.AddNode(c.ID, c.Type)
	e.topo.AddEdge(e.self, c.ID)
	e.flushReachable([]protocol.NodeID{c.ID})
}

func (e *Endpoint) onRemoveSender(c RemoveSender) {
	delete(e.neighbors, c.ID)
	e.topo.RemoveNode(c.ID)
	e.broadcastFlood()
}

func (e *Endpoint) onSendMessage(c SendMessage) {
	e.sendMessage(c.Body, c.Destination)
}

// onRetry re-attempts sending one previously waiting fragment.
func (e *Endpoint) onRetry(w retryWork) {
	e.retransmit(w.session, w.index)
}

// sendMessage implements the Control/SendMessage transition: §4.G.
func (e *Endpoint) sendMessage(msg protocol.Message, dest protocol.NodeID) {
	var path, ok = e.pathTo(dest)
	if !ok {
		e.pend.Enqueue(dest, msg)
		e.broadcastFlood()
		return
	}

	var frags = assembler.Fragment(protocol.Encode(msg))
	if len(frags) == 0 {
		return
	}

	var sid = e.nextSessionID()
	e.sessions.Open(sid, dest, frags)
	e.emit(MessageFragmented{Body: msg, From: e.self, To: dest})

	for _, f := range frags {
		e.sendFragmentOnPath(sid, f, path)
	}
}

// retransmit recovers the fragment recorded for (sid, index) and attempts
// to resend it on a freshly computed path, marking it waiting if none
// exists (§4.G "every retransmit consults §4.C for a fresh path").
func (e *Endpoint) retransmit(sid protocol.SessionID, index uint64) {
	var frag, dest, err = e.sessions.Recover(sid, index)
	if err != nil {
		return // Already acked, or the session no longer exists.
	}
	var path, ok = e.pathTo(dest)
	if !ok {
		e.sessions.MarkWaiting(sid, index)
		return
	}
	e.sendFragmentOnPath(sid, frag, path)
}

func (e *Endpoint) sendFragmentOnPath(sid protocol.SessionID, f protocol.Fragment, path router.Path) {
	var hops = make([]protocol.NodeID, len(path))
	copy(hops, path)
	e.send(protocol.Packet{
		Header:    protocol.RoutingHeader{HopIndex: 1, Hops: hops},
		SessionID: sid,
		Body:      protocol.MsgFragment{Fragment: f},
	})
}

// flushReachable drains the pending-message queue and the session manager's
// waiting-fragment set for each destination in |ids|, re-attempting every
// buffered whole message and every waiting fragment (§4.D, §4.E, §4.F).
func (e *Endpoint) flushReachable(ids []protocol.NodeID) {
	for _, id := range ids {
		for _, msg := range e.pend.Drain(id) {
			e.sendMessage(msg, id)
		}
		for _, wf := range e.sessions.FlushWaiting(id) {
			e.enqueueRetry(wf.SessionID, wf.Index)
		}
	}
}

// enqueueRetry schedules a retry at the internal queue's priority, falling
// back to an immediate inline retransmit if the (intentionally small)
// internal queue is momentarily full.
func (e *Endpoint) enqueueRetry(sid protocol.SessionID, index uint64) {
	select {
	case e.internal <- retryWork{session: sid, index: index}:
	default:
		e.retransmit(sid, index)
	}
}

// pathTo returns the cached path to |dest| if present, else computes and
// caches a fresh one via the router (§4.B, §4.C).
func (e *Endpoint) pathTo(dest protocol.NodeID) (router.Path, bool) {
	if p, ok := e.topo.CachedPath(dest); ok {
		return p, true
	}
	var p, ok = router.FindPath(e.topo, e.self, dest)
	if ok {
		e.topo.SetCachedPath(dest, p)
	}
	return p, ok
}

// nextSessionID returns the next monotonic session id scoped to this
// endpoint.
func (e *Endpoint) nextSessionID() protocol.SessionID {
	e.sessionIDCounter++
	return e.sessionIDCounter
}

// broadcastFlood initiates a new flood and sends the resulting
// FloodRequest to every registered neighbor (§4.F).
func (e *Endpoint) broadcastFlood() {
	var req = e.flooder.Initiate()
	var pkt = protocol.Packet{
		Header:    protocol.RoutingHeader{HopIndex: 1, Hops: nil},
		SessionID: e.nextSessionID(),
		Body:      req,
	}
	for _, ch := range e.neighbors {
		e.deliver(ch, pkt)
	}
	e.emit(PacketSent{Packet: pkt})
}

// send routes |pkt| to the neighbor named by its header's current hop.
func (e *Endpoint) send(pkt protocol.Packet) {
	if !pkt.Header.Valid() {
		log.WithField("header", pkt.Header).Panic("endpoint: invalid outbound routing header")
	}
	var next = pkt.Header.CurrentHop()
	var ch, ok = e.neighbors[next]
	if !ok {
		log.WithFields(log.Fields{"next": next, "packet": pkt}).Warn(ErrUnknownNeighbor.Error())
		return
	}
	e.deliver(ch, pkt)
	e.emit(PacketSent{Packet: pkt})
}

// deliver performs the actual non-blocking channel send (§5: "Sends on
// outbound channels must be non-blocking in steady state").
func (e *Endpoint) deliver(ch chan<- protocol.Packet, pkt protocol.Packet) {
	select {
	case ch <- pkt:
	default:
		log.WithField("packet", pkt).Warn("endpoint: neighbor channel full, dropping send")
	}
}

// emit sends |ev| to the controller's event channel, non-blocking.
func (e *Endpoint) emit(ev Event) {
	if e.events == nil {
		return
	}
	select {
	case e.events <- ev:
	default:
		log.WithField("event", ev).Warn("endpoint: event channel full, dropping event")
	}
}
