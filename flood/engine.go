// Package flood implements topology discovery: initiating a flood,
// answering one arriving at this endpoint, and ingesting a flood response
// to extend the local topology.Store (§4.F).
package flood

import (
	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
	"github.com/Lockheed-Rustin/drone-network-sub000/topology"
)

// Engine issues and answers flood discovery packets for one endpoint. It
// owns only the monotonic flood-id counter; all topology state lives in
// the topology.Store it's given.
type Engine struct {
	self     protocol.NodeID
	selfType protocol.NodeType
	nextID   protocol.FloodID
}

// NewEngine returns a flood Engine for the endpoint identified by
// (self, selfType).
func NewEngine(self protocol.NodeID, selfType protocol.NodeType) *Engine {
	return &Engine{self: self, selfType: selfType}
}

// Initiate assigns the next flood id and returns a FloodRequest ready to be
// broadcast (with an empty routing header) to every neighbor.
func (e *Engine) Initiate() protocol.FloodRequest {
	e.nextID++
	return protocol.FloodRequest{
		FloodID:     e.nextID,
		InitiatorID: e.self,
		PathTrace:   []protocol.PathEntry{{NodeID: e.self, NodeType: e.selfType}},
	}
}

// Respond builds this endpoint's FloodResponse to an arriving FloodRequest,
// appending itself to the path trace and computing the reversed routing
// header the response must travel along (§4.F).
func (e *Engine) Respond(req protocol.FloodRequest) protocol.Packet {
	var trace = append(append([]protocol.PathEntry{}, req.PathTrace...),
		protocol.PathEntry{NodeID: e.self, NodeType: e.selfType})

	var hops = make([]protocol.NodeID, len(trace))
	for i, entry := range trace {
		hops[len(trace)-1-i] = entry.NodeID
	}
	if len(hops) == 0 || hops[len(hops)-1] != req.InitiatorID {
		hops = append(hops, req.InitiatorID)
	}

	return protocol.Packet{
		Header: protocol.RoutingHeader{HopIndex: 1, Hops: hops},
		Body: protocol.FloodResponse{
			FloodID:   req.FloodID,
			PathTrace: trace,
		},
	}
}

// Ingest folds a FloodResponse's path trace into |store|: every node is
// added with its declared type, every adjacent pair in the trace becomes
// an edge. It returns every node named in the trace, known or not, since a
// destination can already be known to |store| yet have pending whole
// messages or waiting fragments that only this flood response's arrival
// should re-trigger a drain for (a retransmit's MarkWaiting always targets
// an already-known destination, so restricting the flush to newly-learned
// nodes would never flush it).
func (e *Engine) Ingest(resp protocol.FloodResponse, store *topology.Store) []protocol.NodeID {
	var reachable = make([]protocol.NodeID, 0, len(resp.PathTrace))

	for _, entry := range resp.PathTrace {
		reachable = append(reachable, entry.NodeID)
		store.AddNode(entry.NodeID, entry.NodeType)
	}
	for i := 0; i+1 < len(resp.PathTrace); i++ {
		store.AddEdge(resp.PathTrace[i].NodeID, resp.PathTrace[i+1].NodeID)
	}

	return reachable
}
