// Package router computes source-routed paths across an endpoint's
// topology.Store, honoring the traversal constraint that only drones may
// occupy intermediate hops (§4.C).
package router

import (
	"container/heap"

	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
	"github.com/Lockheed-Rustin/drone-network-sub000/topology"
)

// Path is an ordered sequence of hops from src to dst, inclusive of both
// endpoints.
type Path []protocol.NodeID

// key is the composite priority used to order candidate paths: primarily
// by accumulated weight, then by fewer hops, then by the lexicographically
// smallest hop sequence, per §4.C's tie-breaking rule.
type key struct {
	weight float64
	hops   int
	path   Path
}

// less reports whether |a| should be preferred over |b|.
func less(a, b key) bool {
	if a.weight != b.weight {
		return a.weight < b.weight
	}
	if a.hops != b.hops {
		return a.hops < b.hops
	}
	for i := 0; i < len(a.path) && i < len(b.path); i++ {
		if a.path[i] != b.path[i] {
			return a.path[i] < b.path[i]
		}
	}
	return len(a.path) < len(b.path)
}

// FindPath returns the lowest-weight path from |src| to |dst| within
// |store|, or (nil, false) if |dst| is unknown or unreachable under the
// traversal constraint that every intermediate hop must be a drone.
func FindPath(store *topology.Store, src, dst protocol.NodeID) (Path, bool) {
	if !store.HasNode(dst) {
		return nil, false
	}
	if src == dst {
		return Path{src}, true
	}

	var pq = &frontier{{weight: 0, hops: 0, path: Path{src}}}
	var best = map[protocol.NodeID]key{src: pq.at(0)}

	heap.Init(pq)
	for pq.Len() > 0 {
		var cur = heap.Pop(pq).(key)
		var u = cur.path[len(cur.path)-1]

		if b, ok := best[u]; ok && less(b, cur) {
			continue // Stale entry; a better path to |u| was already finalized.
		}
		if u == dst {
			return cur.path, true
		}

		for v := range store.Neighbors(u) {
			if v != dst {
				if t, ok := store.NodeType(v); !ok || t != protocol.Drone {
					continue // Intermediate hops must be drones (I4).
				}
			}
			var cost float64
			if v != dst {
				cost = 1 + store.EstimatedPDR(v)
			}

			var next = key{
				weight: cur.weight + cost,
				hops:   cur.hops + 1,
				path:   appendPath(cur.path, v),
			}
			if b, ok := best[v]; !ok || less(next, b) {
				best[v] = next
				heap.Push(pq, next)
			}
		}
	}
	return nil, false
}

func appendPath(p Path, v protocol.NodeID) Path {
	var next = make(Path, len(p)+1)
	copy(next, p)
	next[len(p)] = v
	return next
}

// frontier is a min-heap of candidate keys, ordered by less().
type frontier []key

func (f frontier) Len() int            { return len(f) }
func (f frontier) Less(i, j int) bool  { return less(f[i], f[j]) }
func (f frontier) Swap(i, j int)       { f[i], f[j] = f[j], f[i] }
func (f frontier) at(i int) key        { return f[i] }
func (f *frontier) Push(x interface{}) { *f = append(*f, x.(key)) }
func (f *frontier) Pop() interface{} {
	var old = *f
	var n = len(old)
	var last = old[n-1]
	*f = old[:n-1]
	return last
}
