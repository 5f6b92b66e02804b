// Package assembler implements the fragmenting of a serialized message
// into fixed-size wire Fragments, and the reassembly of those fragments
// back into a message, with duplicate suppression (§4.A).
package assembler

import (
	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
)

// Fragment splits |payload| into ceil(len(payload)/128) protocol.Fragments.
// An empty payload yields zero fragments; the caller is expected to skip
// sending a message with no fragments.
func Fragment(payload []byte) []protocol.Fragment {
	if len(payload) == 0 {
		return nil
	}

	var n = (len(payload) + protocol.FragmentPayloadSize - 1) / protocol.FragmentPayloadSize
	var out = make([]protocol.Fragment, n)

	for i := 0; i < n; i++ {
		var begin = i * protocol.FragmentPayloadSize
		var end = begin + protocol.FragmentPayloadSize
		if end > len(payload) {
			end = len(payload)
		}

		out[i].FragmentIndex = uint64(i)
		out[i].TotalNFragments = uint64(n)
		out[i].Length = uint8(end - begin)
		copy(out[i].Data[:], payload[begin:end])
	}
	return out
}
