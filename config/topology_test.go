package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	var path = filepath.Join(t.TempDir(), "topology.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

const validDoc = `
nodes:
  - id: 1
    type: client
    neighbors: [2]
  - id: 2
    type: drone
    pdr: 0.1
    neighbors: [1, 3]
  - id: 3
    type: server
    neighbors: [2, 4]
  - id: 4
    type: drone
    pdr: 0.05
    neighbors: [3]
`

func TestLoadTopologyValidDocument(t *testing.T) {
	var topo, err = LoadTopology(writeTemp(t, validDoc))
	require.NoError(t, err)
	require.Len(t, topo.Nodes, 4)
	require.Equal(t, []protocol.NodeID{2}, topo.Neighbors(1))
}

func TestValidateRejectsClientWithThreeDroneNeighbors(t *testing.T) {
	var _, err = LoadTopology(writeTemp(t, `
nodes:
  - id: 1
    type: client
    neighbors: [2, 3, 4]
  - id: 2
    type: drone
    neighbors: [1]
  - id: 3
    type: drone
    neighbors: [1]
  - id: 4
    type: drone
    neighbors: [1]
`))
	require.Error(t, err)
}

func TestValidateRejectsNonDroneNeighborOfClient(t *testing.T) {
	var _, err = LoadTopology(writeTemp(t, `
nodes:
  - id: 1
    type: client
    neighbors: [2]
  - id: 2
    type: client
    neighbors: [1]
`))
	require.Error(t, err)
}

func TestValidateRejectsOutOfRangePdr(t *testing.T) {
	var _, err = LoadTopology(writeTemp(t, `
nodes:
  - id: 1
    type: drone
    pdr: 1.5
    neighbors: []
`))
	require.Error(t, err)
}

func TestValidateRejectsSelfLoop(t *testing.T) {
	var _, err = LoadTopology(writeTemp(t, `
nodes:
  - id: 1
    type: drone
    neighbors: [1]
`))
	require.Error(t, err)
}
