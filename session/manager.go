// Package session tracks the outstanding state of outgoing messages: the
// fragments still awaiting acknowledgment, which fragment indices have
// already been reported dropped once (for NACK dedup), and which indices
// are waiting on topology discovery before they can be sent at all (§4.D).
package session

import (
	"github.com/pkg/errors"

	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
)

// entry is the per-session bookkeeping record.
type entry struct {
	destination    protocol.NodeID
	pending        map[uint64]protocol.Fragment
	alreadyDropped map[uint64]struct{}
	waitingForPath map[uint64]struct{}
}

// Manager owns every in-flight outgoing session of one endpoint. A session
// exists in the Manager iff it has at least one outstanding unacked
// fragment (I3).
type Manager struct {
	sessions map[protocol.SessionID]*entry
	// waitingByDest indexes waiting fragments by destination for O(1) flush.
	waitingByDest map[protocol.NodeID]map[protocol.SessionID]map[uint64]struct{}
}

// NewManager returns an empty session Manager.
func NewManager() *Manager {
	return &Manager{
		sessions:      make(map[protocol.SessionID]*entry),
		waitingByDest: make(map[protocol.NodeID]map[protocol.SessionID]map[uint64]struct{}),
	}
}

// ErrUnknownSession is returned by operations referencing a session which
// does not currently have any outstanding fragment. Per §7, encountering
// this for a normal (non-programming-error) code path is itself an
// invariant violation; callers outside of tests should treat it as such.
var ErrUnknownSession = errors.New("session: unknown session")

// Open registers a new outgoing session with all of |fragments| pending
// acknowledgment.
func (m *Manager) Open(sid protocol.SessionID, destination protocol.NodeID, fragments []protocol.Fragment) {
	var e = &entry{
		destination:    destination,
		pending:        make(map[uint64]protocol.Fragment, len(fragments)),
		alreadyDropped: make(map[uint64]struct{}),
		waitingForPath: make(map[uint64]struct{}),
	}
	for _, f := range fragments {
		e.pending[f.FragmentIndex] = f
	}
	m.sessions[sid] = e
}

// Ack removes |index| from the session's pending set. If no fragment
// remains pending, the session is destroyed (I3).
func (m *Manager) Ack(sid protocol.SessionID, index uint64) {
	var e, ok = m.sessions[sid]
	if !ok {
		return
	}
	delete(e.pending, index)
	m.unmarkWaiting(sid, e, index)

	if len(e.pending) == 0 {
		delete(m.sessions, sid)
	}
}

// MarkDropped records that |index| of |sid| was reported dropped. It
// returns firstTime = true iff this (session, index) pair had not
// previously been recorded as dropped.
func (m *Manager) MarkDropped(sid protocol.SessionID, index uint64) (firstTime bool) {
	var e, ok = m.sessions[sid]
	if !ok {
		return false
	}
	if _, seen := e.alreadyDropped[index]; seen {
		return false
	}
	e.alreadyDropped[index] = struct{}{}
	return true
}

// MarkWaiting records that |index| of |sid| cannot currently be sent
// because no path exists to the session's destination.
func (m *Manager) MarkWaiting(sid protocol.SessionID, index uint64) {
	var e, ok = m.sessions[sid]
	if !ok {
		return
	}
	e.waitingForPath[index] = struct{}{}

	var byDest, ok2 = m.waitingByDest[e.destination]
	if !ok2 {
		byDest = make(map[protocol.SessionID]map[uint64]struct{})
		m.waitingByDest[e.destination] = byDest
	}
	var bySession, ok3 = byDest[sid]
	if !ok3 {
		bySession = make(map[uint64]struct{})
		byDest[sid] = bySession
	}
	bySession[index] = struct{}{}
}

func (m *Manager) unmarkWaiting(sid protocol.SessionID, e *entry, index uint64) {
	delete(e.waitingForPath, index)
	if byDest, ok := m.waitingByDest[e.destination]; ok {
		if bySession, ok := byDest[sid]; ok {
			delete(bySession, index)
			if len(bySession) == 0 {
				delete(byDest, sid)
			}
		}
		if len(byDest) == 0 {
			delete(m.waitingByDest, e.destination)
		}
	}
}

// WaitingFragment names one fragment that was queued awaiting a path.
type WaitingFragment struct {
	SessionID protocol.SessionID
	Index     uint64
}

// FlushWaiting returns and clears every fragment waiting on a path to
// |destination|. Callers are expected to re-attempt sending each one,
// typically after a FloodResponse extends reachability.
func (m *Manager) FlushWaiting(destination protocol.NodeID) []WaitingFragment {
	var byDest, ok = m.waitingByDest[destination]
	if !ok {
		return nil
	}
	var out []WaitingFragment
	for sid, indices := range byDest {
		for idx := range indices {
			out = append(out, WaitingFragment{SessionID: sid, Index: idx})
			if e, ok := m.sessions[sid]; ok {
				delete(e.waitingForPath, idx)
			}
		}
	}
	delete(m.waitingByDest, destination)
	return out
}

// Recover returns the Fragment and destination needed to retransmit
// (sid, index). It returns ErrUnknownSession if the session no longer
// exists or the index is not (or no longer) pending.
func (m *Manager) Recover(sid protocol.SessionID, index uint64) (protocol.Fragment, protocol.NodeID, error) {
	var e, ok = m.sessions[sid]
	if !ok {
		return protocol.Fragment{}, 0, ErrUnknownSession
	}
	var f, ok2 = e.pending[index]
	if !ok2 {
		return protocol.Fragment{}, 0, ErrUnknownSession
	}
	return f, e.destination, nil
}

// Exists reports whether |sid| currently has any outstanding fragment.
func (m *Manager) Exists(sid protocol.SessionID) bool {
	_, ok := m.sessions[sid]
	return ok
}

// Destination returns the destination of |sid|, if it exists.
func (m *Manager) Destination(sid protocol.SessionID) (protocol.NodeID, bool) {
	var e, ok = m.sessions[sid]
	if !ok {
		return 0, false
	}
	return e.destination, true
}

// PendingCount returns the number of fragments still outstanding for |sid|.
func (m *Manager) PendingCount(sid protocol.SessionID) int {
	var e, ok = m.sessions[sid]
	if !ok {
		return 0
	}
	return len(e.pending)
}
