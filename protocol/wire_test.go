package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var m = Message{Kind: ServerKind, Payload: []byte("hello")}
	var decoded, err = Decode(Encode(m))
	require.NoError(t, err)
	require.Equal(t, m, decoded)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	var _, err = Decode([]byte("not json"))
	require.Error(t, err)
}
