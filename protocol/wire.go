package protocol

import "encoding/json"

// wireMessage is the JSON envelope a Message is serialized to before
// fragmenting: a single JSON object with no trailing newline. It adapts the
// teacher's JSONFraming line-delimited JSON convention (one encode/decode
// call per message, no streaming framing or line delimiter needed here since
// a Message is always fragmented/reassembled as a whole).
type wireMessage struct {
	Kind    MessageKind `json:"kind"`
	Payload []byte      `json:"payload"`
}

// Encode serializes |m| to the bytes an endpoint fragments and sends. Kind
// travels inside the envelope so a receiving endpoint can recover it after
// reassembly without any out-of-band signaling.
func Encode(m Message) []byte {
	var b, _ = json.Marshal(wireMessage{Kind: m.Kind, Payload: m.Payload})
	return b
}

// Decode reverses Encode, recovering the Message an assembled byte stream
// represents.
func Decode(b []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(b, &w); err != nil {
		return Message{}, err
	}
	return Message{Kind: w.Kind, Payload: w.Payload}, nil
}
