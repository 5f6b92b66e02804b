// Package pending buffers outgoing messages whose destination has no known
// path yet, draining them in FIFO order once topology discovery extends
// reachability (§4.E).
package pending

import (
	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
)

// Queue is a destination-keyed FIFO of buffered outgoing messages.
type Queue struct {
	byDest map[protocol.NodeID][]protocol.Message
}

// NewQueue returns an empty pending-message Queue.
func NewQueue() *Queue {
	return &Queue{byDest: make(map[protocol.NodeID][]protocol.Message)}
}

// Enqueue buffers |msg| for later delivery to |destination|.
func (q *Queue) Enqueue(destination protocol.NodeID, msg protocol.Message) {
	q.byDest[destination] = append(q.byDest[destination], msg)
}

// Drain returns and clears every message queued for |destination|, in the
// order they were enqueued.
func (q *Queue) Drain(destination protocol.NodeID) []protocol.Message {
	var msgs = q.byDest[destination]
	delete(q.byDest, destination)
	return msgs
}

// Len returns the number of messages currently buffered for |destination|.
func (q *Queue) Len(destination protocol.NodeID) int {
	return len(q.byDest[destination])
}
