package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	poisonStreamName = "pyqs:poison"
	poisonStreamCap  = 10000
)

// PoisonRecord is an entry appended to the poison log when a ReadWorker
// fails to decode a message. Task resolution failures in the
// ProcessWorker are logged and counted but not recorded here. It exists purely for
// operator visibility; nothing reads from this log to re-enqueue
// automatically, and there is no retry path here.
type PoisonRecord struct {
	Reason    string    `json:"reason"`
	Body      string    `json:"body"`
	Task      string    `json:"task,omitempty"`
	Detail    string    `json:"detail"`
	RecordedAt time.Time `json:"recorded_at"`
	StreamID  string    `json:"-"`
}

// PoisonLog is a bounded, append-only record of messages the pipeline
// could not process, backed by a capped Redis stream. It is optional:
// a nil *PoisonLog is safe to call Record on and simply drops the
// record, so deployments without Redis configured still run the core
// pipeline unaffected.
type PoisonLog struct {
	client *redis.Client
}

// NewPoisonLog wraps an existing Redis client. Pass a nil client to get
// a no-op log.
func NewPoisonLog(client *redis.Client) *PoisonLog {
	return &PoisonLog{client: client}
}

// Record appends a poison record. Safe to call on a nil *PoisonLog or
// one built with a nil client.
func (p *PoisonLog) Record(ctx context.Context, rec PoisonRecord) error {
	if p == nil || p.client == nil {
		return nil
	}
	rec.RecordedAt = time.Now()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal poison record: %w", err)
	}

	_, err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: poisonStreamName,
		MaxLen: poisonStreamCap,
		Approx: true,
		Values: map[string]interface{}{
			"reason": rec.Reason,
			"task":   rec.Task,
			"data":   string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("append poison record: %w", err)
	}
	return nil
}

// List returns up to count most recent poison records, newest first.
// Returns an empty slice (never an error) when no client is configured.
func (p *PoisonLog) List(ctx context.Context, count int64) ([]PoisonRecord, error) {
	if p == nil || p.client == nil {
		return []PoisonRecord{}, nil
	}
	if count <= 0 {
		count = 100
	}

	messages, err := p.client.XRevRangeN(ctx, poisonStreamName, "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("read poison log: %w", err)
	}

	records := make([]PoisonRecord, 0, len(messages))
	for _, msg := range messages {
		data, ok := msg.Values["data"].(string)
		if !ok {
			continue
		}
		var rec PoisonRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			continue
		}
		rec.StreamID = msg.ID
		records = append(records, rec)
	}
	return records, nil
}

// Clear removes every record from the poison log. Operator-triggered
// only, via the admin API.
func (p *PoisonLog) Clear(ctx context.Context) error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Del(ctx, poisonStreamName).Err()
}

// Size reports how many records are currently in the poison log.
func (p *PoisonLog) Size(ctx context.Context) (int64, error) {
	if p == nil || p.client == nil {
		return 0, nil
	}
	return p.client.XLen(ctx, poisonStreamName).Result()
}
