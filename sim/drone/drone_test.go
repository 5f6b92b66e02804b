package drone

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
)

func TestForwardAdvancesHopIndex(t *testing.T) {
	var out = make(chan protocol.Packet, 1)
	var d = New(Options{
		ID:   2,
		PDR:  0,
		Send: map[protocol.NodeID]chan<- protocol.Packet{3: out},
	}, 1)

	d.onPacket(protocol.Packet{
		Header:    protocol.RoutingHeader{HopIndex: 1, Hops: []protocol.NodeID{1, 2, 3}},
		SessionID: 5,
		Body:      protocol.MsgFragment{Fragment: protocol.Fragment{FragmentIndex: 0, TotalNFragments: 1}},
	})

	select {
	case fwd := <-out:
		require.Equal(t, 2, fwd.Header.HopIndex)
	default:
		t.Fatal("expected the fragment to be forwarded")
	}
}

func TestAlwaysDropsSendsNack(t *testing.T) {
	var back = make(chan protocol.Packet, 1)
	var d = New(Options{
		ID:   2,
		PDR:  1,
		Send: map[protocol.NodeID]chan<- protocol.Packet{1: back},
	}, 1)

	d.onPacket(protocol.Packet{
		Header:    protocol.RoutingHeader{HopIndex: 1, Hops: []protocol.NodeID{1, 2, 3}},
		SessionID: 5,
		Body:      protocol.MsgFragment{Fragment: protocol.Fragment{FragmentIndex: 7, TotalNFragments: 9}},
	})

	select {
	case nack := <-back:
		var n, ok = nack.Body.(protocol.Nack)
		require.True(t, ok)
		require.Equal(t, protocol.Dropped, n.Kind)
		require.EqualValues(t, 7, n.FragmentIndex)
	default:
		t.Fatal("expected a Dropped nack")
	}
}

func TestUnknownNextHopSendsErrorInRouting(t *testing.T) {
	var back = make(chan protocol.Packet, 1)
	var d = New(Options{
		ID:   2,
		PDR:  0,
		Send: map[protocol.NodeID]chan<- protocol.Packet{1: back},
	}, 1)

	d.onPacket(protocol.Packet{
		Header:    protocol.RoutingHeader{HopIndex: 1, Hops: []protocol.NodeID{1, 2, 9}},
		SessionID: 5,
		Body:      protocol.MsgFragment{Fragment: protocol.Fragment{FragmentIndex: 0, TotalNFragments: 1}},
	})

	select {
	case nack := <-back:
		var n, ok = nack.Body.(protocol.Nack)
		require.True(t, ok)
		require.Equal(t, protocol.ErrorInRouting, n.Kind)
		require.EqualValues(t, 9, n.Node)
	default:
		t.Fatal("expected an ErrorInRouting nack")
	}
}

func TestFloodRequestRebroadcastsToAllButArrival(t *testing.T) {
	var toA = make(chan protocol.Packet, 1)
	var toB = make(chan protocol.Packet, 1)
	var d = New(Options{
		ID:  2,
		PDR: 0,
		Send: map[protocol.NodeID]chan<- protocol.Packet{
			1: toA,
			3: toB,
		},
	}, 1)

	d.onPacket(protocol.Packet{
		Header: protocol.RoutingHeader{HopIndex: 1, Hops: nil},
		Body: protocol.FloodRequest{
			FloodID:     1,
			InitiatorID: 1,
			PathTrace:   []protocol.PathEntry{{NodeID: 1, NodeType: protocol.Client}},
		},
	})

	select {
	case <-toA:
		t.Fatal("must not rebroadcast back to the arrival neighbor")
	default:
	}
	select {
	case fwd := <-toB:
		var fr, ok = fwd.Body.(protocol.FloodRequest)
		require.True(t, ok)
		require.Len(t, fr.PathTrace, 2)
		require.Equal(t, protocol.NodeID(2), fr.PathTrace[1].NodeID)
	default:
		t.Fatal("expected rebroadcast to the other neighbor")
	}
}
