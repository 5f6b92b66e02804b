package endpoint

import (
	"github.com/Lockheed-Rustin/drone-network-sub000/protocol"
)

// onFloodRequest answers an arriving FloodRequest per §4.F: append self to
// the trace and send the reply backward along the reversed path.
func (e *Endpoint) onFloodRequest(req protocol.FloodRequest) {
	e.send(e.flooder.Respond(req))
}

// onFloodResponse ingests a FloodResponse into the topology and re-attempts
// delivery for every node named in its path trace, known or newly learned
// (§4.F, §4.D, §4.E).
func (e *Endpoint) onFloodResponse(resp protocol.FloodResponse) {
	var reachable = e.flooder.Ingest(resp, e.topo)
	e.flushReachable(reachable)
}
