// Package topology maintains an endpoint-local, undirected view of the
// network: node identities and roles, adjacency, per-drone drop-rate
// estimation, and a per-destination path cache (§4.B). All mutation is
// additive except for RemoveNode/RemoveEdge, which are driven only by
// RemoveSender, Crash, or an ErrorInRouting NACK (§3 Invariants).
package topology

import (
	log "github.com/sirupsen/logrus"

	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
)

// defaultPDR is the estimated packet drop rate assumed for a drone that
// has not yet been observed dropping or forwarding a packet.
const defaultPDR = 0.1

// pdrAlpha is the exponential moving average smoothing factor for PDR
// updates (§4.B); fixed per spec, not configurable.
const pdrAlpha = 0.1

// droneStats tracks the running PDR estimate for one drone.
type droneStats struct {
	estimatedPDR float64
	received     uint64
	dropped      uint64
}

// Store is an endpoint's local, mutable view of the network topology.
// It is not safe for concurrent use: like every other piece of core state,
// it is owned exclusively by its endpoint's single event-loop goroutine.
type Store struct {
	self protocol.NodeID

	types  map[protocol.NodeID]protocol.NodeType
	edges  map[protocol.NodeID]map[protocol.NodeID]struct{}
	drones map[protocol.NodeID]*droneStats

	cache map[protocol.NodeID][]protocol.NodeID
}

// NewStore returns a Store seeded with |self| as the owning endpoint.
func NewStore(self protocol.NodeID, selfType protocol.NodeType) *Store {
	var s = &Store{
		self:   self,
		types:  make(map[protocol.NodeID]protocol.NodeType),
		edges:  make(map[protocol.NodeID]map[protocol.NodeID]struct{}),
		drones: make(map[protocol.NodeID]*droneStats),
		cache:  make(map[protocol.NodeID][]protocol.NodeID),
	}
	s.AddNode(self, selfType)
	return s
}

// AddNode registers |id| with |t|, idempotently. The type, once set, is
// never implicitly changed by a later AddNode call (only UpdateNodeType
// reclassifies a node).
func (s *Store) AddNode(id protocol.NodeID, t protocol.NodeType) {
	if _, ok := s.types[id]; ok {
		return
	}
	s.types[id] = t
	if t == protocol.Drone {
		s.drones[id] = &droneStats{estimatedPDR: defaultPDR}
	}
}

// HasNode reports whether |id| has been observed.
func (s *Store) HasNode(id protocol.NodeID) bool {
	_, ok := s.types[id]
	return ok
}

// NodeType returns the observed type of |id|, or false if unknown.
func (s *Store) NodeType(id protocol.NodeID) (protocol.NodeType, bool) {
	var t, ok = s.types[id]
	return t, ok
}

// AddEdge adds an undirected edge between |a| and |b|, idempotently.
// Self-loops are rejected silently (the topology never contains them).
func (s *Store) AddEdge(a, b protocol.NodeID) {
	if a == b {
		return
	}
	s.link(a, b)
	s.link(b, a)
}

func (s *Store) link(from, to protocol.NodeID) {
	var m, ok = s.edges[from]
	if !ok {
		m = make(map[protocol.NodeID]struct{})
		s.edges[from] = m
	}
	m[to] = struct{}{}
}

// HasEdge reports whether an edge exists between |a| and |b|.
func (s *Store) HasEdge(a, b protocol.NodeID) bool {
	var m, ok = s.edges[a]
	if !ok {
		return false
	}
	_, ok = m[b]
	return ok
}

// Neighbors returns the adjacency set of |id|, or nil if |id| has no edges.
func (s *Store) Neighbors(id protocol.NodeID) map[protocol.NodeID]struct{} {
	return s.edges[id]
}

// RemoveNode removes |id| and all incident edges, and invalidates any
// cached path through it.
func (s *Store) RemoveNode(id protocol.NodeID) {
	for peer := range s.edges[id] {
		delete(s.edges[peer], id)
	}
	delete(s.edges, id)
	delete(s.types, id)
	delete(s.drones, id)

	s.invalidateContaining(id)
}

// RemoveEdge removes the undirected edge between |a| and |b|, and
// invalidates any cached path that traverses it.
func (s *Store) RemoveEdge(a, b protocol.NodeID) {
	if m, ok := s.edges[a]; ok {
		delete(m, b)
	}
	if m, ok := s.edges[b]; ok {
		delete(m, a)
	}
	s.invalidateEdge(a, b)
}

// UpdateNodeType reclassifies |id|, for example after a DestinationIsDrone
// NACK reveals that a node previously assumed to be an endpoint is in fact
// a drone (§4.B, §4.G NACK kind 2).
func (s *Store) UpdateNodeType(id protocol.NodeID, t protocol.NodeType) {
	var prev, had = s.types[id]
	s.types[id] = t

	if had && prev == protocol.Drone && t != protocol.Drone {
		delete(s.drones, id)
	} else if t == protocol.Drone {
		if _, ok := s.drones[id]; !ok {
			s.drones[id] = &droneStats{estimatedPDR: defaultPDR}
		}
	}
	// A node's role change can affect every path through it.
	s.invalidateContaining(id)
}

// EstimatedPDR returns the current drop-rate estimate for |drone|, or the
// default if it has not yet been observed (or is not known as a drone).
func (s *Store) EstimatedPDR(drone protocol.NodeID) float64 {
	if d, ok := s.drones[drone]; ok {
		return d.estimatedPDR
	}
	return defaultPDR
}

// UpdatePDR folds one observation of |drone| either dropping or forwarding
// a packet into its exponential moving average estimate (α = 0.1).
func (s *Store) UpdatePDR(drone protocol.NodeID, dropped bool) {
	var d, ok = s.drones[drone]
	if !ok {
		d = &droneStats{estimatedPDR: defaultPDR}
		s.drones[drone] = d
	}

	var x float64
	if dropped {
		x = 1
		d.dropped++
	}
	d.received++
	d.estimatedPDR = pdrAlpha*x + (1-pdrAlpha)*d.estimatedPDR

	if d.estimatedPDR < 0 {
		d.estimatedPDR = 0
	} else if d.estimatedPDR > 1 {
		d.estimatedPDR = 1
	}

	log.WithFields(log.Fields{
		"drone":    drone,
		"dropped":  dropped,
		"pdr":      d.estimatedPDR,
		"received": d.received,
	}).Debug("updated drone pdr estimate")
}

// CachedPath returns the memoized path to |dest|, if one is present.
func (s *Store) CachedPath(dest protocol.NodeID) ([]protocol.NodeID, bool) {
	var p, ok = s.cache[dest]
	return p, ok
}

// SetCachedPath memoizes |path| as the current route to |dest|.
func (s *Store) SetCachedPath(dest protocol.NodeID, path []protocol.NodeID) {
	s.cache[dest] = path
}

// InvalidateCachedPath drops any memoized path to |dest|.
func (s *Store) InvalidateCachedPath(dest protocol.NodeID) {
	delete(s.cache, dest)
}

// invalidateContaining drops every cached path that passes through |id|.
func (s *Store) invalidateContaining(id protocol.NodeID) {
	for dest, path := range s.cache {
		for _, hop := range path {
			if hop == id {
				delete(s.cache, dest)
				break
			}
		}
	}
}

// invalidateEdge drops every cached path that traverses the edge (a, b) in
// either direction.
func (s *Store) invalidateEdge(a, b protocol.NodeID) {
	for dest, path := range s.cache {
		for i := 0; i+1 < len(path); i++ {
			if (path[i] == a && path[i+1] == b) || (path[i] == b && path[i+1] == a) {
				delete(s.cache, dest)
				break
			}
		}
	}
}

// Self returns the NodeID this Store is local to.
func (s *Store) Self() protocol.NodeID { return s.self }
