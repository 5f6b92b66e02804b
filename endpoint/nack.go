package endpoint

import (
	log "github.com/sirupsen/logrus"

	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
)

// onNack dispatches an arriving Nack by kind (§4.G NACK handling, numbered
// 1-4).
func (e *Endpoint) onNack(sid protocol.SessionID, nack protocol.Nack, header protocol.RoutingHeader) {
	switch nack.Kind {
	case protocol.ErrorInRouting:
		e.onErrorInRouting(nack, header)
		e.recoverAfterNack(sid, nack.FragmentIndex, true)
	case protocol.DestinationIsDrone:
		e.topo.UpdateNodeType(header.Hops[0], protocol.Drone)
		e.recoverAfterNack(sid, nack.FragmentIndex, true)
	case protocol.Dropped:
		e.onDropped(sid, nack, header)
	case protocol.UnexpectedRecipient:
		e.recoverAfterNack(sid, nack.FragmentIndex, true)
	default:
		log.WithField("kind", nack.Kind).Warn("endpoint: unrecognized nack kind")
	}
}

// onErrorInRouting removes the topology edge the failing hop named:
// (hops[0], v), or (hops[1], v) if hops[0] is itself the failing node
// (§4.G rule 1).
func (e *Endpoint) onErrorInRouting(nack protocol.Nack, header protocol.RoutingHeader) {
	if header.Hops[0] == nack.Node {
		e.topo.RemoveEdge(header.Hops[1], nack.Node)
	} else {
		e.topo.RemoveEdge(header.Hops[0], nack.Node)
	}
}

// onDropped folds a dropped-delivery observation into the reporting
// drone's PDR estimate, then distinguishes a first-time drop of (sid,
// index) — retransmitted on the same path — from a repeat, which is
// treated as a persistent problem: invalidate the cached path and flood
// before retransmitting (§4.G rule 3).
func (e *Endpoint) onDropped(sid protocol.SessionID, nack protocol.Nack, header protocol.RoutingHeader) {
	e.topo.UpdatePDR(header.Hops[0], true)
	if firstTime := e.sessions.MarkDropped(sid, nack.FragmentIndex); firstTime {
		e.recoverAfterNack(sid, nack.FragmentIndex, false)
	} else {
		e.recoverAfterNack(sid, nack.FragmentIndex, true)
	}
}

// recoverAfterNack optionally invalidates the session destination's cached
// path and triggers a flood, then retransmits the named fragment.
func (e *Endpoint) recoverAfterNack(sid protocol.SessionID, index uint64, sendFlood bool) {
	if sendFlood {
		if dest, ok := e.sessions.Destination(sid); ok {
			e.topo.InvalidateCachedPath(dest)
		}
		e.broadcastFlood()
	}
	e.retransmit(sid, index)
}
