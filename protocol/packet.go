package protocol

import "fmt"

// Fragment is a fixed-size slice of a serialized message. All fragments of
// a message but the last carry a full 128-byte payload; the last carries
// only Length valid bytes, zero-padded.
type Fragment struct {
	FragmentIndex    uint64
	TotalNFragments  uint64
	Length           uint8
	Data             [FragmentPayloadSize]byte
}

// Payload returns the valid-byte slice of the fragment's data.
func (f Fragment) Payload() []byte { return f.Data[:f.Length] }

// NackKind enumerates the reasons a fragment was not deliverable.
type NackKind int

const (
	// ErrorInRouting names the node the routing edge could not reach.
	ErrorInRouting NackKind = iota
	// DestinationIsDrone indicates the intended terminator is in fact a drone.
	DestinationIsDrone
	// Dropped indicates the reporting drone discarded the packet probabilistically.
	Dropped
	// UnexpectedRecipient names the node that received a packet not addressed
	// to it as terminator.
	UnexpectedRecipient
)

func (k NackKind) String() string {
	switch k {
	case ErrorInRouting:
		return "ErrorInRouting"
	case DestinationIsDrone:
		return "DestinationIsDrone"
	case Dropped:
		return "Dropped"
	case UnexpectedRecipient:
		return "UnexpectedRecipient"
	default:
		return fmt.Sprintf("NackKind(%d)", int(k))
	}
}

// Nack carries a NackKind and, for ErrorInRouting/UnexpectedRecipient, the
// node id implicated by that kind.
type Nack struct {
	FragmentIndex uint64
	Kind          NackKind
	Node          NodeID // valid iff Kind == ErrorInRouting || Kind == UnexpectedRecipient
}

// Ack acknowledges successful delivery of one fragment.
type Ack struct {
	FragmentIndex uint64
}

// FloodRequest is broadcast by an initiator (and re-broadcast by drones, out
// of scope here) to discover topology. path_trace accumulates one PathEntry
// per node visited, in traversal order.
type FloodRequest struct {
	FloodID     FloodID
	InitiatorID NodeID
	PathTrace   []PathEntry
}

// FloodResponse is the symmetric completion of a FloodRequest, carrying the
// same FloodID and the final accumulated path trace.
type FloodResponse struct {
	FloodID   FloodID
	PathTrace []PathEntry
}

// Body is the closed sum of packet payload kinds. Exactly one concrete type
// below may occupy a Packet's Body field.
type Body interface {
	isBody()
}

// MsgFragment carries one Fragment of an in-flight message.
type MsgFragment struct {
	Fragment Fragment
}

func (MsgFragment) isBody()   {}
func (Ack) isBody()           {}
func (Nack) isBody()          {}
func (FloodRequest) isBody()  {}
func (FloodResponse) isBody() {}

// Packet is the unit of transmission between adjacent nodes. Its Header
// carries the full source route (empty for a freshly initiated
// FloodRequest, which has no route yet); SessionID scopes Ack/Nack/
// MsgFragment to an originating session.
type Packet struct {
	Header    RoutingHeader
	SessionID SessionID
	Body      Body
}

func (p Packet) String() string {
	return fmt.Sprintf("Packet{header: %s, session: %d, body: %T}", p.Header, p.SessionID, p.Body)
}
