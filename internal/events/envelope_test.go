package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	at := time.Date(2026, 2, 2, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	b, err := Encode(TypeMessagesRead, at, MessagesRead{From: "a", To: "b", Count: 3})
	require.NoError(t, err)

	env, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, TypeMessagesRead, env.EventType)
	assert.Equal(t, SchemaVersion, env.SchemaVersion)
	assert.True(t, env.OccurredAt.Equal(at))
	assert.Equal(t, time.UTC, env.OccurredAt.Location())

	var read MessagesRead
	require.NoError(t, json.Unmarshal(env.Payload, &read))
	assert.Equal(t, MessagesRead{From: "a", To: "b", Count: 3}, read)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "messaging.message.sent", Topic("messaging", TypeMessageSent))
	assert.Equal(t, "messaging.message.read", Topic("messaging", TypeMessagesRead))
	assert.Empty(t, Topic("messaging", "UNKNOWN"))
}
