package kafka

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	evt, err := NewEvent("auth.user.logged_in", "user-42", "auth-service", map[string]string{
		"username": "alice",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, evt.EventID)
	assert.Equal(t, "auth.user.logged_in", evt.EventType)
	assert.Equal(t, "user-42", evt.SubjectID)
	assert.Equal(t, "auth-service", evt.Source)
	assert.False(t, evt.Timestamp.IsZero())

	var data map[string]string
	require.NoError(t, evt.UnmarshalData(&data))
	assert.Equal(t, "alice", data["username"])
}

func TestNewEventUnmarshalableData(t *testing.T) {
	_, err := NewEvent("auth.user.logged_in", "user-42", "auth-service", make(chan int))
	assert.Error(t, err)
}

func TestEventCorrelationAndMetadata(t *testing.T) {
	evt, err := NewEvent("auth.token.revoked", "user-1", "auth-service", nil)
	require.NoError(t, err)

	evt.WithCorrelationID("corr-123").WithMetadata("ip", "10.0.0.1")

	raw, err := evt.Marshal()
	require.NoError(t, err)

	var decoded Event
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "corr-123", decoded.CorrelationID)
	assert.Equal(t, "10.0.0.1", decoded.Metadata["ip"])
}
