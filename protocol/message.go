package protocol

// MessageKind distinguishes the two top-level variants of an application
// message body. The core never interprets Payload; it only uses Kind to
// let an endpoint discard a message addressed to the wrong role (a Client
// discards Client(_) payloads, a Server discards Server(_) payloads), per
// the wire-format contract of §6.
type MessageKind int

const (
	// ClientKind wraps an opaque ClientBody payload.
	ClientKind MessageKind = iota
	// ServerKind wraps an opaque ServerBody payload.
	ServerKind
)

func (k MessageKind) String() string {
	if k == ClientKind {
		return "client"
	}
	return "server"
}

// Message is the serialized, opaque application payload an endpoint
// fragments and sends, or reassembles and delivers. Its byte encoding is a
// collaborator concern (see Encode/Decode in wire.go for a reference JSON
// encoding);
// the core only ever fragments/reassembles and round-trips Payload intact.
type Message struct {
	Kind    MessageKind
	Payload []byte
}
