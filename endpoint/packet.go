package endpoint

import (
	log "github.com/sirupsen/logrus"

	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
)

// onPacket is the Packet-received transition of §4.G: notify the
// controller, validate routing, then dispatch by body type.
func (e *Endpoint) onPacket(pkt protocol.Packet) {
	e.emit(PacketReceived{Packet: pkt, Self: e.self})

	switch body := pkt.Body.(type) {
	case protocol.FloodRequest:
		e.onFloodRequest(body)
	case protocol.FloodResponse:
		if validReplyHeader(pkt.Header) {
			e.onFloodResponse(body)
		}
	case protocol.MsgFragment:
		if e.validateFragmentHeader(pkt) {
			e.onFragment(body.Fragment, pkt)
		}
	case protocol.Ack:
		if validReplyHeader(pkt.Header) {
			e.onAck(pkt.SessionID, body, pkt.Header)
		}
	case protocol.Nack:
		if validReplyHeader(pkt.Header) {
			e.onNack(pkt.SessionID, body, pkt.Header)
		}
	default:
		log.WithField("body", pkt.Body).Warn("endpoint: unrecognized packet body")
	}
}

// validReplyHeader is the routing-validation rule shared by Ack, Nack and
// FloodResponse: require at least two hops (§4.G "Packet routing
// validation").
func validReplyHeader(h protocol.RoutingHeader) bool {
	return len(h.Hops) >= 2
}

// validateFragmentHeader applies MsgFragment's routing-validation rule. If
// the header names this endpoint mid-route rather than as terminator, it
// replies with an UnexpectedRecipient NACK and reports the header invalid
// so the caller drops the packet.
func (e *Endpoint) validateFragmentHeader(pkt protocol.Packet) bool {
	var h = pkt.Header
	if len(h.Hops) < 2 || !h.Valid() || h.Hops[h.HopIndex] != e.self {
		return false
	}
	if h.HopIndex != len(h.Hops)-1 {
		e.sendUnexpectedRecipientNack(pkt)
		return false
	}
	return true
}

func (e *Endpoint) sendUnexpectedRecipientNack(pkt protocol.Packet) {
	var frag, ok = pkt.Body.(protocol.MsgFragment)
	if !ok {
		return
	}
	var header = protocol.ReversedPrefix(pkt.Header.Hops, pkt.Header.HopIndex, e.self)
	var nack = protocol.Nack{
		FragmentIndex: frag.Fragment.FragmentIndex,
		Kind:          protocol.UnexpectedRecipient,
		Node:          e.self,
	}
	e.send(protocol.Packet{Header: header, SessionID: pkt.SessionID, Body: nack})
}

// onFragment hands an arriving fragment to the reassembler, always
// acknowledging it, and notifies the controller once the message it
// belongs to completes and is addressed to this endpoint's own role.
func (e *Endpoint) onFragment(f protocol.Fragment, pkt protocol.Packet) {
	var sender = pkt.Header.Source()
	e.sendAck(f.FragmentIndex, sender, pkt.SessionID, pkt.Header.Hops)

	var raw, complete, err = e.reasm.Add(sender, pkt.SessionID, f)
	if err != nil {
		log.WithError(err).WithField("session", pkt.SessionID).Warn("endpoint: invalid fragment discarded")
		return
	}
	if !complete {
		return
	}

	var msg, decErr = protocol.Decode(raw)
	if decErr != nil {
		log.WithError(decErr).Warn("endpoint: failed to decode assembled message")
		return
	}
	if e.discards(msg.Kind) {
		return
	}
	e.emit(MessageAssembled{Body: msg, From: sender, To: e.self})
}

// discards reports whether a message of |kind| is addressed to the wrong
// role and must be silently ignored (§6): a Client discards Client(_)
// payloads (clients never message each other directly), a Server discards
// Server(_) payloads.
func (e *Endpoint) discards(kind protocol.MessageKind) bool {
	switch e.selfType {
	case protocol.Client:
		return kind == protocol.ClientKind
	case protocol.Server:
		return kind == protocol.ServerKind
	default:
		return false
	}
}

// sendAck replies to one arrived fragment along the exact reverse of the
// path it arrived on, hop_index reset to 1 (§4.G).
func (e *Endpoint) sendAck(index uint64, to protocol.NodeID, sid protocol.SessionID, arrivedPath []protocol.NodeID) {
	var header = protocol.RoutingHeader{Hops: arrivedPath}.Reversed()
	e.send(protocol.Packet{Header: header, SessionID: sid, Body: protocol.Ack{FragmentIndex: index}})
}

// onAck implements the Ack transition: update the PDR of every drone hop
// on the session's current path as a successful delivery, then clear the
// fragment from the session (§4.G, §4.D).
func (e *Endpoint) onAck(sid protocol.SessionID, ack protocol.Ack, header protocol.RoutingHeader) {
	if dest, ok := e.sessions.Destination(sid); ok {
		if path, ok := e.topo.CachedPath(dest); ok {
			e.markPathOutcome(path, false)
		}
	}
	e.sessions.Ack(sid, ack.FragmentIndex)
}

// markPathOutcome folds one delivery outcome into the PDR estimate of
// every intermediate drone hop of |path| (excluding the endpoints).
func (e *Endpoint) markPathOutcome(path []protocol.NodeID, dropped bool) {
	for i := 1; i+1 < len(path); i++ {
		e.topo.UpdatePDR(path[i], dropped)
	}
}
