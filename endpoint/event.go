package endpoint

import "github.com/Lockheed-Rustin/drone-network-sub000/protocol"

// Event is the closed sum of endpoint-to-controller notifications (§6).
type Event interface{ isEvent() }

// PacketReceived is emitted for every packet the endpoint accepts off its
// packet channel, before any side effects attributable to it (§5 ordering).
type PacketReceived struct {
	Packet protocol.Packet
	Self   protocol.NodeID
}

// PacketSent is emitted once per packet routed to a registered neighbor, and
// once per flood broadcast however many neighbors it reaches. It is emitted
// even when a full neighbor channel caused the send to be dropped.
type PacketSent struct {
	Packet protocol.Packet
}

// MessageAssembled is emitted once, strictly after the last fragment of a
// message has been acked locally, when the message is addressed to this
// endpoint's own role.
type MessageAssembled struct {
	Body protocol.Message
	From protocol.NodeID
	To   protocol.NodeID
}

// MessageFragmented is emitted when an outgoing message has been split
// into fragments and is about to be sent.
type MessageFragmented struct {
	Body protocol.Message
	From protocol.NodeID
	To   protocol.NodeID
}

func (PacketReceived) isEvent()    {}
func (PacketSent) isEvent()        {}
func (MessageAssembled) isEvent()  {}
func (MessageFragmented) isEvent() {}
