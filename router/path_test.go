package router

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
	"github.com/Lockheed-Rustin/drone-network-sub000/topology"
)

func TestFindPathSingleHop(t *testing.T) {
	var s = topology.NewStore(1, protocol.Client)
	s.AddNode(2, protocol.Drone)
	s.AddNode(3, protocol.Server)
	s.AddEdge(1, 2)
	s.AddEdge(2, 3)

	var p, ok = FindPath(s, 1, 3)
	require.True(t, ok)
	require.Equal(t, Path{1, 2, 3}, p)
}

func TestFindPathNoPathUnknownDestination(t *testing.T) {
	var s = topology.NewStore(1, protocol.Client)
	var _, ok = FindPath(s, 1, 99)
	require.False(t, ok)
}

func TestFindPathNoPathUnreachable(t *testing.T) {
	var s = topology.NewStore(1, protocol.Client)
	s.AddNode(2, protocol.Server) // Present, but disconnected.

	var _, ok = FindPath(s, 1, 2)
	require.False(t, ok)
}

func TestFindPathRejectsEndpointIntermediateHop(t *testing.T) {
	// 1(client) - 2(client) - 3(server): 2 cannot be traversed.
	var s = topology.NewStore(1, protocol.Client)
	s.AddNode(2, protocol.Client)
	s.AddNode(3, protocol.Server)
	s.AddEdge(1, 2)
	s.AddEdge(2, 3)

	var _, ok = FindPath(s, 1, 3)
	require.False(t, ok)
}

func TestFindPathPrefersLowerPDRPath(t *testing.T) {
	// Two parallel paths of equal hop length from 1 to 6:
	// 1-2-3-6 (drone 2, 3 lossy) and 1-4-5-6 (drone 4, 5 clean).
	var s = topology.NewStore(1, protocol.Client)
	for _, id := range []protocol.NodeID{2, 3, 4, 5} {
		s.AddNode(id, protocol.Drone)
	}
	s.AddNode(6, protocol.Server)

	s.AddEdge(1, 2)
	s.AddEdge(2, 3)
	s.AddEdge(3, 6)

	s.AddEdge(1, 4)
	s.AddEdge(4, 5)
	s.AddEdge(5, 6)

	for i := 0; i < 50; i++ {
		s.UpdatePDR(2, true)
		s.UpdatePDR(3, true)
		s.UpdatePDR(4, false)
		s.UpdatePDR(5, false)
	}

	var p, ok = FindPath(s, 1, 6)
	require.True(t, ok)
	require.Equal(t, Path{1, 4, 5, 6}, p)
}

func TestFindPathTieBreaksByLowestIDs(t *testing.T) {
	var s = topology.NewStore(1, protocol.Client)
	s.AddNode(2, protocol.Drone)
	s.AddNode(3, protocol.Drone)
	s.AddNode(9, protocol.Drone) // Equal-length alternate route via a higher id.
	s.AddNode(4, protocol.Server)

	s.AddEdge(1, 2)
	s.AddEdge(2, 4)
	s.AddEdge(1, 3)
	s.AddEdge(3, 4)
	s.AddEdge(1, 9)
	s.AddEdge(9, 4)

	var p, ok = FindPath(s, 1, 4)
	require.True(t, ok)
	require.Equal(t, Path{1, 2, 4}, p) // Equal weight; lowest intermediate id wins.
}

func TestFindPathSelfIsTrivial(t *testing.T) {
	var s = topology.NewStore(1, protocol.Client)
	var p, ok = FindPath(s, 1, 1)
	require.True(t, ok)
	require.Equal(t, Path{1}, p)
}
