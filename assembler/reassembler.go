package assembler

import (
	"github.com/pkg/errors"

	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
)

// key identifies a reassembly buffer by its originating peer and session.
type key struct {
	peer    protocol.NodeID
	session protocol.SessionID
}

// buffer accumulates fragments of one (peer, session) message.
type buffer struct {
	total    uint64
	data     []byte
	lastLen  uint8 // Length of the final fragment, once observed.
	received map[uint64]struct{}
}

// Reassembler buffers incoming fragments per (peer, session) pair until a
// message is complete, discarding duplicate fragment indices (first-writer-
// wins) and freeing each buffer immediately upon completion (§4.A).
type Reassembler struct {
	buffers map[key]*buffer
}

// NewReassembler returns an empty Reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{buffers: make(map[key]*buffer)}
}

// ErrInvalidFragment is returned by Add for a structurally invalid Fragment
// (zero TotalNFragments, index out of range, or Length exceeding the
// payload size).
var ErrInvalidFragment = errors.New("invalid fragment")

// Add ingests one Fragment received from |peer| within |session|. It
// returns the assembled message and true once the final fragment of that
// (peer, session) arrives; otherwise it returns (nil, false).
//
// A fragment whose index was already received is ignored outright (I2): it
// neither alters the buffer nor affects completion. A Fragment reporting a
// TotalNFragments different from the value seen on the first fragment of
// this key is similarly ignored, preserving the first-observed value.
func (r *Reassembler) Add(peer protocol.NodeID, session protocol.SessionID, frag protocol.Fragment) ([]byte, bool, error) {
	if frag.TotalNFragments == 0 || frag.FragmentIndex >= frag.TotalNFragments || int(frag.Length) > protocol.FragmentPayloadSize {
		return nil, false, ErrInvalidFragment
	}

	var k = key{peer: peer, session: session}
	var b, ok = r.buffers[k]
	if !ok {
		b = &buffer{
			total:    frag.TotalNFragments,
			data:     make([]byte, protocol.FragmentPayloadSize*frag.TotalNFragments),
			lastLen:  protocol.FragmentPayloadSize,
			received: make(map[uint64]struct{}, frag.TotalNFragments),
		}
		r.buffers[k] = b
	}

	if frag.TotalNFragments != b.total {
		// Inconsistent framing for this key: keep the first-seen value.
		return nil, false, nil
	}
	if _, dup := b.received[frag.FragmentIndex]; dup {
		return nil, false, nil
	}

	var begin = int(frag.FragmentIndex) * protocol.FragmentPayloadSize
	copy(b.data[begin:begin+int(frag.Length)], frag.Payload())
	b.received[frag.FragmentIndex] = struct{}{}

	if frag.FragmentIndex == frag.TotalNFragments-1 {
		b.lastLen = frag.Length
	}

	if uint64(len(b.received)) != b.total {
		return nil, false, nil
	}

	// Complete: trim the final fragment's padding and free the buffer.
	var lastBegin = int(b.total-1) * protocol.FragmentPayloadSize
	var msg = b.data[:lastBegin+int(b.lastLen)]
	delete(r.buffers, k)

	return msg, true, nil
}

// Pending reports the number of (peer, session) reassembly buffers
// currently outstanding. Exposed for tests and diagnostics only.
func (r *Reassembler) Pending() int { return len(r.buffers) }
