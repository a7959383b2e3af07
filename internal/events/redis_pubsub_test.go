package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisPubSub_NilClient(t *testing.T) {
	pubsub := NewRedisPubSub(nil)

	assert.NotNil(t, pubsub)
	assert.Nil(t, pubsub.client)
	assert.Len(t, pubsub.subscribers, 0)
}

func TestRedisPubSub_Publish_NilClientIsNoOp(t *testing.T) {
	pubsub := NewRedisPubSub(nil)
	err := pubsub.Publish(context.Background(), NewEvent(EventWorkerSpawned, nil))
	assert.NoError(t, err)
}

func TestRedisPubSub_SubscribeAll_NilClientReturnsClosedChannel(t *testing.T) {
	pubsub := NewRedisPubSub(nil)

	ch, err := pubsub.SubscribeAll(context.Background())
	require.NoError(t, err)

	_, open := <-ch
	assert.False(t, open)
}

func TestRedisPubSub_channelName(t *testing.T) {
	pubsub := NewRedisPubSub(nil)

	tests := []struct {
		eventType EventType
		expected  string
	}{
		{EventWorkerSpawned, "pyqs:events:worker.spawned"},
		{EventWorkerRunning, "pyqs:events:worker.running"},
		{EventWorkerDraining, "pyqs:events:worker.draining"},
		{EventWorkerCrashed, "pyqs:events:worker.crashed"},
		{EventWorkerExited, "pyqs:events:worker.exited"},
		{EventQueueDepth, "pyqs:events:queue.depth"},
	}

	for _, tc := range tests {
		t.Run(string(tc.eventType), func(t *testing.T) {
			assert.Equal(t, tc.expected, pubsub.channelName(tc.eventType))
		})
	}
}

func TestRedisPubSub_Close_EmptySubscribers(t *testing.T) {
	pubsub := NewRedisPubSub(nil)
	assert.NoError(t, pubsub.Close())
	assert.Len(t, pubsub.subscribers, 0)
}

func TestChannelPrefix(t *testing.T) {
	assert.Equal(t, "pyqs:events:", channelPrefix)
}
