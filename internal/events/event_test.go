package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_ToJSONAndBack(t *testing.T) {
	e := NewEvent(EventWorkerSpawned, WorkerEventData("reader-1", "reader", "spawned", nil))

	data, err := e.ToJSON()
	require.NoError(t, err)

	decoded, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, EventWorkerSpawned, decoded.Type)
	assert.Equal(t, "reader-1", decoded.Data["worker_id"])
	assert.Equal(t, "spawned", decoded.Data["state"])
}

func TestWorkerEventData_MergesExtra(t *testing.T) {
	data := WorkerEventData("processor-1", "processor", "crashed", map[string]interface{}{"reason": "panic"})
	assert.Equal(t, "processor-1", data["worker_id"])
	assert.Equal(t, "crashed", data["state"])
	assert.Equal(t, "panic", data["reason"])
}

func TestQueueDepthData(t *testing.T) {
	assert.Equal(t, map[string]interface{}{"depth": 7}, QueueDepthData(7))
}

func TestFromJSON_Invalid(t *testing.T) {
	_, err := FromJSON([]byte("not json"))
	assert.Error(t, err)
}
