package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	registryKeyPrefix  = "pyqs:worker:"
	registrySetKey     = "pyqs:workers:active"
	heartbeatKeySuffix = ":heartbeat"
	infoKeySuffix      = ":info"
)

// WorkerRecord is what the registry publishes about a running worker
// for operator visibility (admin API, dashboard). Purely observational:
// nothing reads it back to make scheduling decisions.
type WorkerRecord struct {
	ID            string    `json:"id"`
	Role          string    `json:"role"`
	State         string    `json:"state"`
	StartedAt     time.Time `json:"started_at"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// Registry periodically publishes WorkerRecords to Redis so the admin
// API and dashboard can show which workers are alive. It is optional:
// a Registry built with a nil client runs its Start/Stop lifecycle as
// a no-op, so the core pipeline is unaffected when Redis isn't
// configured.
type Registry struct {
	client   *redis.Client
	interval time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	record  WorkerRecord
	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
}

// NewRegistry builds a Registry for a single worker. Pass a nil client
// to disable it.
func NewRegistry(client *redis.Client, id, role string, interval, timeout time.Duration) *Registry {
	return &Registry{
		client:   client,
		interval: interval,
		timeout:  timeout,
		record: WorkerRecord{
			ID:        id,
			Role:      role,
			State:     "spawned",
			StartedAt: time.Now(),
		},
		stopCh: make(chan struct{}),
	}
}

// Start begins the heartbeat loop. No-op when the registry has no
// client.
func (r *Registry) Start(ctx context.Context) {
	if r.client == nil {
		return
	}
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.loop(ctx)
}

// Stop ends the heartbeat loop and deregisters the worker.
func (r *Registry) Stop() {
	r.mu.Lock()
	started := r.started
	r.mu.Unlock()
	if !started {
		return
	}

	close(r.stopCh)
	r.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.deregister(ctx)
}

// SetState updates the worker's published state (running, draining,
// crashed, exited).
func (r *Registry) SetState(state string) {
	r.mu.Lock()
	r.record.State = state
	r.mu.Unlock()
}

func (r *Registry) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.heartbeat(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.heartbeat(ctx)
		}
	}
}

func (r *Registry) heartbeat(ctx context.Context) {
	r.mu.Lock()
	r.record.LastHeartbeat = time.Now()
	rec := r.record
	r.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		return
	}

	r.client.Set(ctx, r.heartbeatKey(rec.ID), rec.LastHeartbeat.Unix(), r.timeout)
	r.client.Set(ctx, r.infoKey(rec.ID), data, r.timeout*2)
	r.client.SAdd(ctx, registrySetKey, rec.ID)
}

func (r *Registry) deregister(ctx context.Context) {
	r.mu.Lock()
	id := r.record.ID
	r.mu.Unlock()

	r.client.SRem(ctx, registrySetKey, id)
	r.client.Del(ctx, r.heartbeatKey(id), r.infoKey(id))
}

func (r *Registry) heartbeatKey(id string) string {
	return fmt.Sprintf("%s%s%s", registryKeyPrefix, id, heartbeatKeySuffix)
}

func (r *Registry) infoKey(id string) string {
	return fmt.Sprintf("%s%s%s", registryKeyPrefix, id, infoKeySuffix)
}

// ListWorkers returns the WorkerRecords currently registered. Used by
// the admin API. Returns an empty slice when no client is configured.
func ListWorkers(ctx context.Context, client *redis.Client) ([]WorkerRecord, error) {
	if client == nil {
		return []WorkerRecord{}, nil
	}

	ids, err := client.SMembers(ctx, registrySetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list registered workers: %w", err)
	}

	records := make([]WorkerRecord, 0, len(ids))
	for _, id := range ids {
		data, err := client.Get(ctx, registryKeyPrefix+id+infoKeySuffix).Result()
		if err != nil {
			continue
		}
		var rec WorkerRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
