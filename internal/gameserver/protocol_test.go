package gameserver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClientMessage(t *testing.T) {
	msg, err := DecodeClientMessage([]byte(`{"type":"move","request_id":"7","direction":"north"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeMove, msg.Type)
	assert.Equal(t, "7", msg.RequestID)
	assert.Equal(t, "north", msg.Direction)

	_, err = DecodeClientMessage([]byte(`{"type":"fly"}`))
	assert.Error(t, err)

	_, err = DecodeClientMessage([]byte(`{not json`))
	assert.Error(t, err)
}

func TestEncode_OmitsEmptyPayloads(t *testing.T) {
	raw, err := Encode(&ServerEvent{
		Type:    EventMessage,
		Message: &Message{Scope: ScopeRoom, Sender: "Alice", Text: "hi"},
	})
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "message")
	assert.NotContains(t, decoded, "join")
	assert.NotContains(t, decoded, "error")
	assert.NotContains(t, decoded, "request_id")
}

func TestErrorEvent_CarriesKindAndRequestID(t *testing.T) {
	ev := errorEvent("42", reject(KindTargetOffline, "Bob is not online"))
	assert.Equal(t, EventError, ev.Type)
	assert.Equal(t, "42", ev.RequestID)
	assert.Equal(t, KindTargetOffline, ev.Error.Kind)
	assert.Equal(t, "Bob is not online", ev.Error.Message)
}
