package eventlog

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lockheed-Rustin/drone-network-sub000/endpoint"
)

// Log.Append/Replay need a real RocksDB handle; these tests cover the
// pure pieces that determine on-disk record ordering and labeling.

func TestSeqKeyOrdersLexicographically(t *testing.T) {
	require.True(t, bytes.Compare(seqKey(1), seqKey(2)) < 0)
	require.True(t, bytes.Compare(seqKey(255), seqKey(256)) < 0)
	require.True(t, bytes.Compare(seqKey(1<<32), seqKey(1<<32+1)) < 0)
}

func TestKindOfNamesEachVariant(t *testing.T) {
	require.Equal(t, "packet_received", kindOf(endpoint.PacketReceived{}))
	require.Equal(t, "packet_sent", kindOf(endpoint.PacketSent{}))
	require.Equal(t, "message_assembled", kindOf(endpoint.MessageAssembled{}))
	require.Equal(t, "message_fragmented", kindOf(endpoint.MessageFragmented{}))
}

func TestKindOfUnknownVariant(t *testing.T) {
	require.Equal(t, "unknown", kindOf(nil))
}
