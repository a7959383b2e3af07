// Package events streams ManagerWorker lifecycle transitions
// (spec.md §4.7: spawned -> running -> {draining -> exited | crashed})
// to anything watching, for operator visibility only — nothing in the
// core pipeline subscribes to its own events.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// EventType names a worker lifecycle transition.
type EventType string

const (
	EventWorkerSpawned  EventType = "worker.spawned"
	EventWorkerRunning  EventType = "worker.running"
	EventWorkerDraining EventType = "worker.draining"
	EventWorkerCrashed  EventType = "worker.crashed"
	EventWorkerExited   EventType = "worker.exited"
	EventQueueDepth     EventType = "queue.depth"
)

// Event is a single lifecycle transition, or a periodic queue-depth
// sample.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// NewEvent builds an Event stamped with the current time.
func NewEvent(eventType EventType, data map[string]interface{}) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ToJSON serializes the event.
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON deserializes an event.
func FromJSON(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Publisher is anything that can broadcast and stream worker events.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	SubscribeAll(ctx context.Context) (<-chan *Event, error)
	Close() error
}

// WorkerEventData builds the Data payload for a worker lifecycle event.
func WorkerEventData(workerID, role, state string, extra map[string]interface{}) map[string]interface{} {
	data := map[string]interface{}{
		"worker_id": workerID,
		"role":      role,
		"state":     state,
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// QueueDepthData builds the Data payload for a queue-depth sample.
func QueueDepthData(depth int) map[string]interface{} {
	return map[string]interface{}{"depth": depth}
}
