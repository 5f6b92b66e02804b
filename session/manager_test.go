package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
)

func fragments(n int) []protocol.Fragment {
	var out = make([]protocol.Fragment, n)
	for i := range out {
		out[i] = protocol.Fragment{FragmentIndex: uint64(i), TotalNFragments: uint64(n), Length: 1}
	}
	return out
}

func TestSessionDestroyedOnceFullyAcked(t *testing.T) {
	var m = NewManager()
	m.Open(1, 3, fragments(2))
	require.True(t, m.Exists(1))

	m.Ack(1, 0)
	require.True(t, m.Exists(1))

	m.Ack(1, 1)
	require.False(t, m.Exists(1))
}

func TestMarkDroppedFirstTimeSemantics(t *testing.T) {
	var m = NewManager()
	m.Open(1, 3, fragments(1))

	require.True(t, m.MarkDropped(1, 0))
	require.False(t, m.MarkDropped(1, 0))
}

func TestRecoverReturnsFragmentAndDestination(t *testing.T) {
	var m = NewManager()
	m.Open(5, 9, fragments(1))

	var f, dst, err = m.Recover(5, 0)
	require.NoError(t, err)
	require.Equal(t, protocol.NodeID(9), dst)
	require.EqualValues(t, 0, f.FragmentIndex)
}

func TestRecoverUnknownSessionErrors(t *testing.T) {
	var m = NewManager()
	var _, _, err = m.Recover(123, 0)
	require.ErrorIs(t, err, ErrUnknownSession)
}

func TestFlushWaitingGroupsByDestination(t *testing.T) {
	var m = NewManager()
	m.Open(1, 10, fragments(2))
	m.Open(2, 10, fragments(1))
	m.Open(3, 20, fragments(1))

	m.MarkWaiting(1, 0)
	m.MarkWaiting(1, 1)
	m.MarkWaiting(2, 0)
	m.MarkWaiting(3, 0)

	var flushed = m.FlushWaiting(10)
	require.Len(t, flushed, 3)

	// Second flush of the same destination returns nothing further.
	require.Empty(t, m.FlushWaiting(10))

	// Destination 20 remains untouched.
	var flushed20 = m.FlushWaiting(20)
	require.Len(t, flushed20, 1)
}

func TestAckClearsWaitingMembership(t *testing.T) {
	var m = NewManager()
	m.Open(1, 10, fragments(1))
	m.MarkWaiting(1, 0)

	m.Ack(1, 0)
	require.Empty(t, m.FlushWaiting(10))
}
