package assembler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
)

func TestFragmentEmptyMessage(t *testing.T) {
	require.Nil(t, Fragment(nil))
	require.Nil(t, Fragment([]byte{}))
}

func TestFragmentExactMultiple(t *testing.T) {
	var payload = bytes.Repeat([]byte{0x42}, protocol.FragmentPayloadSize*2)
	var frags = Fragment(payload)

	require.Len(t, frags, 2)
	for i, f := range frags {
		require.EqualValues(t, i, f.FragmentIndex)
		require.EqualValues(t, 2, f.TotalNFragments)
		require.EqualValues(t, protocol.FragmentPayloadSize, f.Length)
	}
}

func TestFragmentPartialLast(t *testing.T) {
	var payload = append(bytes.Repeat([]byte{1}, protocol.FragmentPayloadSize), []byte{2, 3, 4}...)
	var frags = Fragment(payload)

	require.Len(t, frags, 2)
	require.EqualValues(t, protocol.FragmentPayloadSize, frags[0].Length)
	require.EqualValues(t, 3, frags[1].Length)
	require.Equal(t, []byte{2, 3, 4}, frags[1].Payload())
}

func TestFragmentRoundTrip(t *testing.T) {
	for _, size := range []int{1, 50, 128, 129, 200, 256, 257, 1000} {
		var payload = make([]byte, size)
		for i := range payload {
			payload[i] = byte(i)
		}

		var frags = Fragment(payload)
		var r = NewReassembler()

		var out []byte
		for _, f := range frags {
			var msg, done, err = r.Add(1, 7, f)
			require.NoError(t, err)
			if done {
				out = msg
			}
		}
		require.Equal(t, payload, out, "size=%d", size)
	}
}
