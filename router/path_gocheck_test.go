package router

import (
	"testing"

	gc "github.com/go-check/check"

	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
	"github.com/Lockheed-Rustin/drone-network-sub000/topology"
)

// Test registers this package's gocheck suites with the standard testing
// runner, the historical table-driven-suite convention this codebase uses
// alongside plain testify-style tests.
func Test(t *testing.T) { gc.TestingT(t) }

type PathSuite struct{}

var _ = gc.Suite(&PathSuite{})

func (s *PathSuite) TestPrefersTheLowerDropRateDrone(c *gc.C) {
	var store = topology.NewStore(1, protocol.Client)
	store.AddNode(2, protocol.Drone)
	store.AddNode(3, protocol.Drone)
	store.AddNode(4, protocol.Server)
	store.AddEdge(1, 2)
	store.AddEdge(1, 3)
	store.AddEdge(2, 4)
	store.AddEdge(3, 4)

	// Repeated drops on node 3 push its EMA estimate up, so the cheaper
	// route through node 2 must win.
	for i := 0; i < 20; i++ {
		store.UpdatePDR(3, true)
	}

	var p, ok = FindPath(store, 1, 4)
	c.Assert(ok, gc.Equals, true)
	c.Check(p, gc.DeepEquals, Path{1, 2, 4})
}

func (s *PathSuite) TestUnreachableDestinationReportsFalse(c *gc.C) {
	var store = topology.NewStore(1, protocol.Client)
	store.AddNode(2, protocol.Server)

	var _, ok = FindPath(store, 1, 2)
	c.Check(ok, gc.Equals, false)
}
