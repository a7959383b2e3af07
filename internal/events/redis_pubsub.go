package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/pyqs-go/pyqs/internal/logger"
)

const channelPrefix = "pyqs:events:"

// RedisPubSub implements Publisher over Redis Pub/Sub. A nil client
// makes Publish/SubscribeAll no-ops so the dashboard is entirely
// optional infrastructure.
type RedisPubSub struct {
	client      *redis.Client
	subscribers map[string]*redis.PubSub
	mu          sync.RWMutex
}

// NewRedisPubSub builds a RedisPubSub. Pass a nil client to disable it.
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{
		client:      client,
		subscribers: make(map[string]*redis.PubSub),
	}
}

// Publish broadcasts an event. No-op when client is nil.
func (r *RedisPubSub) Publish(ctx context.Context, event *Event) error {
	if r.client == nil {
		return nil
	}

	channel := r.channelName(event.Type)
	data, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	if err := r.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	logger.Debug().Str("event_type", string(event.Type)).Str("channel", channel).Msg("event published")
	return nil
}

// SubscribeAll streams every event published under the pyqs events
// prefix. Returns a closed channel when client is nil.
func (r *RedisPubSub) SubscribeAll(ctx context.Context) (<-chan *Event, error) {
	if r.client == nil {
		ch := make(chan *Event)
		close(ch)
		return ch, nil
	}

	pattern := channelPrefix + "*"
	pubsub := r.client.PSubscribe(ctx, pattern)

	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	eventCh := make(chan *Event, 100)

	go func() {
		defer close(eventCh)
		ch := pubsub.Channel()

		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				event, err := FromJSON([]byte(msg.Payload))
				if err != nil {
					logger.Error().Err(err).Msg("failed to parse event")
					continue
				}

				select {
				case eventCh <- event:
				default:
					logger.Warn().Str("event_type", string(event.Type)).Msg("event channel full, dropping event")
				}
			}
		}
	}()

	return eventCh, nil
}

// Close closes all tracked subscriptions.
func (r *RedisPubSub) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, pubsub := range r.subscribers {
		pubsub.Close()
	}
	r.subscribers = make(map[string]*redis.PubSub)
	return nil
}

func (r *RedisPubSub) channelName(eventType EventType) string {
	return channelPrefix + string(eventType)
}

// PublishWorkerEvent is a helper for the Manager to publish a worker
// lifecycle transition.
func (r *RedisPubSub) PublishWorkerEvent(ctx context.Context, eventType EventType, workerID, role, state string, extra map[string]interface{}) error {
	event := NewEvent(eventType, WorkerEventData(workerID, role, state, extra))
	return r.Publish(ctx, event)
}
