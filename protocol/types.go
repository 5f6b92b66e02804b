// Package protocol defines the wire-level data model shared by every node
// in a simulated drone network: node identity, source-routed headers,
// fixed-size message fragments, and the packet bodies exchanged between
// drones, clients and communication servers.
package protocol

import (
	"fmt"
	"strings"
)

// NodeID uniquely identifies a node within a single simulation run.
type NodeID uint8

// NodeType is the immutable role of a node, as observed by a peer.
type NodeType int

const (
	// Drone is a forwarding-only node that may probabilistically drop packets.
	Drone NodeType = iota
	// Client originates and terminates messages, and initiates flood discovery.
	Client
	// Server terminates and originates messages on behalf of content/chat services.
	Server
)

func (t NodeType) String() string {
	switch t {
	case Drone:
		return "drone"
	case Client:
		return "client"
	case Server:
		return "server"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

// FragmentPayloadSize is the maximum number of content bytes carried by a
// single MsgFragment, per §3/§4.A of the transport contract.
const FragmentPayloadSize = 128

// SessionID is monotonic and scoped to the originating endpoint.
type SessionID uint64

// FloodID is monotonic and scoped to the initiating endpoint.
type FloodID uint64

// RoutingHeader carries the full source route of a packet, plus a cursor
// onto the current hop. Hops[0] is the packet's originator; for any
// non-flood packet Hops[len(Hops)-1] is its intended terminator.
type RoutingHeader struct {
	HopIndex int
	Hops     []NodeID
}

// Valid reports whether the header satisfies the basic structural invariant
// 0 <= HopIndex < len(Hops). It does not check terminator/length rules,
// which are body-specific (see endpoint routing validation).
func (h RoutingHeader) Valid() bool {
	return h.HopIndex >= 0 && h.HopIndex < len(h.Hops)
}

// CurrentHop returns the node id at HopIndex.
func (h RoutingHeader) CurrentHop() NodeID { return h.Hops[h.HopIndex] }

// IsTerminator reports whether self is the intended terminator of this
// header: it appears at the last hop, and the cursor has reached it.
func (h RoutingHeader) IsTerminator(self NodeID) bool {
	return len(h.Hops) > 0 &&
		h.HopIndex == len(h.Hops)-1 &&
		h.Hops[h.HopIndex] == self
}

// Source returns the packet originator, Hops[0].
func (h RoutingHeader) Source() NodeID { return h.Hops[0] }

// Reversed returns the exact reverse of the full hop sequence, with
// HopIndex reset to 1 (the convention used by Ack/Nack/FloodResponse
// replies, which begin their traversal at the second hop of the reversed
// path since Hops[0] is always the replying node itself).
func (h RoutingHeader) Reversed() RoutingHeader {
	var rev = make([]NodeID, len(h.Hops))
	for i, n := range h.Hops {
		rev[len(h.Hops)-1-i] = n
	}
	return RoutingHeader{HopIndex: 1, Hops: rev}
}

// ReversedPrefix returns the reverse of Hops[0:upTo+1], with Hops[0]
// overwritten to |from|. Used to build the partial-path NACK reply sent by
// a node that receives a fragment mid-route (UnexpectedRecipient).
func ReversedPrefix(hops []NodeID, upTo int, from NodeID) RoutingHeader {
	var prefix = hops[:upTo+1]
	var rev = make([]NodeID, len(prefix))
	for i, n := range prefix {
		rev[len(prefix)-1-i] = n
	}
	rev[0] = from
	return RoutingHeader{HopIndex: 1, Hops: rev}
}

func (h RoutingHeader) String() string {
	var b strings.Builder
	for i, n := range h.Hops {
		if i > 0 {
			b.WriteByte('-')
		}
		if i == h.HopIndex {
			fmt.Fprintf(&b, "[%d]", n)
		} else {
			fmt.Fprintf(&b, "%d", n)
		}
	}
	return b.String()
}

// PathEntry is one step of a FloodRequest/FloodResponse's recorded trace.
type PathEntry struct {
	NodeID   NodeID
	NodeType NodeType
}
