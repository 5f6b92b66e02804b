// Package config decodes and validates a simulation's topology bootstrap
// configuration (§6): the set of nodes, their declared role, and their
// initial neighbor edges, consumed once at startup by a node before it
// constructs its endpoint.Endpoint.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
)

// NodeConfig is one node's declared role, optional per-drone drop rate,
// and initial neighbor set, as it appears in a Topology document. Type is
// spelled out ("drone", "client", "server") in the document for
// readability and parsed via parseNodeType.
type NodeConfig struct {
	ID        protocol.NodeID   `yaml:"id"`
	Type      string            `yaml:"type"`
	PDR       float64           `yaml:"pdr,omitempty"`
	Neighbors []protocol.NodeID `yaml:"neighbors"`

	// nodeType is Type parsed once by Validate; NodeType returns it.
	nodeType protocol.NodeType
}

// NodeType returns the parsed role of this node. It is only meaningful
// after Validate (or LoadTopology, which calls it) has succeeded.
func (n NodeConfig) NodeType() protocol.NodeType { return n.nodeType }

// parseNodeType converts a document's textual role into a protocol.NodeType.
func parseNodeType(s string) (protocol.NodeType, error) {
	switch s {
	case "drone":
		return protocol.Drone, nil
	case "client":
		return protocol.Client, nil
	case "server":
		return protocol.Server, nil
	default:
		return 0, errors.Errorf("unrecognized node type %q", s)
	}
}

// Topology is the decoded shape of a topology bootstrap document: every
// node in the simulation, keyed by declaration order.
type Topology struct {
	Nodes []NodeConfig `yaml:"nodes"`
}

// LoadTopology reads and validates a Topology document from |path|.
func LoadTopology(path string) (*Topology, error) {
	var b, err = os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading topology config")
	}
	var t Topology
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, errors.Wrap(err, "parsing topology config")
	}
	if err := t.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating topology config")
	}
	return &t, nil
}

// Validate enforces §6's topology validation rules: clients have 1-2 drone
// neighbors; servers have >= 2 drone neighbors; all neighbors of endpoints
// (clients and servers) must be drones; no self-loops; pdr in [0, 1].
func (t *Topology) Validate() error {
	var types = make(map[protocol.NodeID]protocol.NodeType, len(t.Nodes))
	for i := range t.Nodes {
		var nt, err = parseNodeType(t.Nodes[i].Type)
		if err != nil {
			return errors.Wrapf(err, "node %d", t.Nodes[i].ID)
		}
		t.Nodes[i].nodeType = nt

		if _, dup := types[t.Nodes[i].ID]; dup {
			return errors.Errorf("duplicate node id %d", t.Nodes[i].ID)
		}
		types[t.Nodes[i].ID] = nt
	}

	for _, n := range t.Nodes {
		if n.nodeType == protocol.Drone && (n.PDR < 0 || n.PDR > 1) {
			return errors.Errorf("node %d: pdr %v out of [0,1]", n.ID, n.PDR)
		}

		var droneNeighbors int
		for _, nb := range n.Neighbors {
			if nb == n.ID {
				return errors.Errorf("node %d: self-loop neighbor", n.ID)
			}
			var t2, known = types[nb]
			if !known {
				return errors.Errorf("node %d: unknown neighbor %d", n.ID, nb)
			}
			if n.nodeType != protocol.Drone {
				if t2 != protocol.Drone {
					return errors.Errorf("node %d: non-drone neighbor %d (endpoints may only neighbor drones)", n.ID, nb)
				}
				droneNeighbors++
			}
		}

		switch n.nodeType {
		case protocol.Client:
			if droneNeighbors < 1 || droneNeighbors > 2 {
				return errors.Errorf("client %d: must have 1-2 drone neighbors, has %d", n.ID, droneNeighbors)
			}
		case protocol.Server:
			if droneNeighbors < 2 {
				return errors.Errorf("server %d: must have >= 2 drone neighbors, has %d", n.ID, droneNeighbors)
			}
		}
	}
	return nil
}

// Neighbors returns the declared neighbor set of |id|, or nil if |id| is
// not present.
func (t *Topology) Neighbors(id protocol.NodeID) []protocol.NodeID {
	for _, n := range t.Nodes {
		if n.ID == id {
			return n.Neighbors
		}
	}
	return nil
}
