package endpoint

import "github.com/Lockheed-Rustin/drone-network-sub000/protocol"

// Command is the closed sum of controller-to-endpoint directives (§6).
type Command interface{ isCommand() }

// AddSender registers a new neighbor: its outbound packet channel and
// declared role, adding the corresponding topology edge.
type AddSender struct {
	ID   protocol.NodeID
	Type protocol.NodeType
	Send chan<- protocol.Packet
}

// RemoveSender deregisters a neighbor and removes that node, with all of its
// edges, from the topology.
type RemoveSender struct {
	ID protocol.NodeID
}

// SendMessage asks the endpoint to serialize, fragment and deliver |Body|
// to |Destination|.
type SendMessage struct {
	Body        protocol.Message
	Destination protocol.NodeID
}

// Return asks the endpoint to shut down its event loop.
type Return struct{}

func (AddSender) isCommand()    {}
func (RemoveSender) isCommand() {}
func (SendMessage) isCommand()  {}
func (Return) isCommand()       {}
