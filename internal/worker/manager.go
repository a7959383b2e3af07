package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pyqs-go/pyqs/internal/events"
	"github.com/pyqs-go/pyqs/internal/metrics"
	"github.com/pyqs-go/pyqs/internal/queue"
	"github.com/pyqs-go/pyqs/internal/task"
)

type role string

const (
	roleReader    role = "reader"
	roleProcessor role = "processor"
)

// runner is the minimal interface the manager needs to supervise a
// worker: run until ShouldExit reports true.
type runner interface {
	Run(ctx context.Context)
}

type readRunner struct{ *ReadWorker }

func (r readRunner) Run(ctx context.Context) { r.ReadWorker.Run(ctx) }

type processRunner struct{ *ProcessWorker }

func (r processRunner) Run(ctx context.Context) { r.ProcessWorker.Run() }

// funcRunner adapts a plain function to runner, used when a
// ReadWorker's remote client fails to construct: it backs off instead
// of busy-looping the respawn supervisor.
type funcRunner func(ctx context.Context)

func (f funcRunner) Run(ctx context.Context) { f(ctx) }

// RemoteFactory builds a fresh RemoteQueue for one reader's lifetime.
// Manager calls it once per spawn and again on every respawn, so that
// no two ReadWorkers — even across a crash/respawn of the same slot —
// ever share a remote-queue client.
type RemoteFactory func(ctx context.Context) (queue.RemoteQueue, error)

// ManagerConfig bundles the knobs Manager needs to build workers and
// their ambient infrastructure.
type ManagerConfig struct {
	BatchSize         int32
	ShortPollInterval time.Duration
	QueueLabel        string

	RegistryClient    *redis.Client // nil disables the worker registry
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration

	Publisher events.Publisher // nil disables lifecycle event publishing
}

// Manager owns the InternalQueue and the shared shutdown flag, and
// supervises the ReadWorker/ProcessWorker pool: spawning them,
// respawning any that exit unexpectedly, and driving a bounded
// shutdown drain. Lifecycle events published per worker: spawned, then
// running, then either exited (shutdown requested or context done) or
// crashed, which is always followed by a respawn in the same slot. No
// draining event is published.
type Manager struct {
	internal *queue.InternalQueue
	log      zerolog.Logger

	remoteFactory     RemoteFactory
	poison            *queue.PoisonLog
	resolver          *task.Resolver
	batchSize         int32
	shortPollInterval time.Duration
	queueLabel        string

	registryClient    *redis.Client
	heartbeatInterval time.Duration
	heartbeatTimeout  time.Duration
	publisher         events.Publisher

	shutdownFlag atomic.Bool
	mu           sync.Mutex
	wg           sync.WaitGroup
	cancel       context.CancelFunc
}

// NewManager builds a Manager. remoteFactory constructs a fresh
// RemoteQueue for each ReadWorker spawn and respawn; resolver is shared
// by every ProcessWorker.
func NewManager(internal *queue.InternalQueue, remoteFactory RemoteFactory, poison *queue.PoisonLog, resolver *task.Resolver, cfg ManagerConfig, log zerolog.Logger) *Manager {
	return &Manager{
		internal:          internal,
		log:               log.With().Str("role", "manager").Logger(),
		remoteFactory:     remoteFactory,
		poison:            poison,
		resolver:          resolver,
		batchSize:         cfg.BatchSize,
		shortPollInterval: cfg.ShortPollInterval,
		queueLabel:        cfg.QueueLabel,
		registryClient:    cfg.RegistryClient,
		heartbeatInterval: cfg.HeartbeatInterval,
		heartbeatTimeout:  cfg.HeartbeatTimeout,
		publisher:         cfg.Publisher,
	}
}

// Start spawns readerCount ReadWorkers and processorCount ProcessWorkers,
// each supervised: an unexpected exit triggers a respawn unless shutdown
// has been requested.
func (m *Manager) Start(ctx context.Context, readerCount, processorCount int) {
	ctx, m.cancel = context.WithCancel(ctx)

	metrics.SetActiveWorkers(string(roleReader), float64(readerCount))
	metrics.SetActiveWorkers(string(roleProcessor), float64(processorCount))

	for i := 0; i < readerCount; i++ {
		m.spawnSupervised(ctx, roleReader, m.newReadWorkerFactory())
	}
	for i := 0; i < processorCount; i++ {
		m.spawnSupervised(ctx, roleProcessor, m.newProcessWorkerFactory())
	}
}

func (m *Manager) newReadWorkerFactory() func(ctx context.Context, id string) runner {
	return func(ctx context.Context, id string) runner {
		remote, err := m.remoteFactory(ctx)
		if err != nil {
			m.log.Error().Err(err).Str("worker_id", id).Msg("failed to construct remote queue client, backing off before respawn")
			return funcRunner(func(ctx context.Context) {
				select {
				case <-time.After(time.Second):
				case <-ctx.Done():
				}
			})
		}
		w := NewReadWorker(id, remote, m.internal, m.poison, m.batchSize, m.queueLabel, &m.shutdownFlag, m.log)
		return readRunner{w}
	}
}

func (m *Manager) newProcessWorkerFactory() func(ctx context.Context, id string) runner {
	return func(ctx context.Context, id string) runner {
		w := NewProcessWorker(id, m.internal, m.resolver, m.shortPollInterval, &m.shutdownFlag, m.log)
		return processRunner{w}
	}
}

// spawnSupervised runs build() in a goroutine, publishing lifecycle
// events and driving a per-worker Registry heartbeat, and respawns a
// fresh worker whenever one exits while shutdown has not been
// requested. build runs fresh on every spawn and respawn, so a
// ReadWorker's remote-queue client is never reused across attempts.
func (m *Manager) spawnSupervised(ctx context.Context, r role, build func(ctx context.Context, id string) runner) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			id := fmt.Sprintf("%s-%s", r, uuid.NewString()[:8])
			w := build(ctx, id)

			reg := NewRegistry(m.registryClient, id, string(r), m.heartbeatInterval, m.heartbeatTimeout)
			reg.Start(ctx)
			m.publishLifecycle(ctx, events.EventWorkerSpawned, id, r, "spawned", nil)
			reg.SetState("running")
			m.publishLifecycle(ctx, events.EventWorkerRunning, id, r, "running", nil)

			w.Run(ctx)
			reg.Stop()

			shuttingDown := m.shutdownFlag.Load()
			if shuttingDown || ctx.Err() != nil {
				m.publishLifecycle(ctx, events.EventWorkerExited, id, r, "exited", nil)
				return
			}

			m.publishLifecycle(ctx, events.EventWorkerCrashed, id, r, "crashed", nil)
			m.log.Warn().Str("worker_role", string(r)).Str("worker_id", id).Msg("worker exited unexpectedly, respawning")
			metrics.RecordWorkerRespawn(string(r))
		}
	}()
}

func (m *Manager) publishLifecycle(ctx context.Context, eventType events.EventType, id string, r role, state string, extra map[string]interface{}) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(ctx, events.NewEvent(eventType, events.WorkerEventData(id, string(r), state, extra))); err != nil {
		m.log.Warn().Err(err).Msg("failed to publish worker lifecycle event")
	}
}

// Shutdown sets the shared shutdown flag — observed by every worker's
// BaseWorker.ShouldExit — and waits up to drainDeadline for workers to
// exit on their own. Past the deadline it cancels the workers' context
// and then waits, without a further bound, for every worker to return;
// a ProcessWorker does not observe the context, so a task body that is
// still running holds Shutdown until it finishes.
func (m *Manager) Shutdown(drainDeadline time.Duration) {
	m.shutdownFlag.Store(true)

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.log.Info().Msg("all workers drained")
	case <-time.After(drainDeadline):
		m.log.Warn().Msg("drain deadline exceeded, forcing shutdown")
		if m.cancel != nil {
			m.cancel()
		}
		<-done
	}

	m.internal.Close()
}
