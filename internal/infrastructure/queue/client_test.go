package queue

import (
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalTaskSkipsRetryOnBadPayload(t *testing.T) {
	var v struct{ SessionID string }

	err := UnmarshalTask(asynq.NewTask("checkout:clear_session", []byte("{")), &v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	require.NoError(t, UnmarshalTask(asynq.NewTask("checkout:clear_session", []byte(`{"SessionID":"s"}`)), &v))
	assert.Equal(t, "s", v.SessionID)
}

func TestPrioritiesCoverEveryQueue(t *testing.T) {
	for _, q := range []string{QueueHigh, QueueDefault, QueueLow} {
		assert.Contains(t, Priorities, q)
	}
	assert.Greater(t, Priorities[QueueHigh], Priorities[QueueLow])
}
