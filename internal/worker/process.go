package worker

import (
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/pyqs-go/pyqs/internal/metrics"
	"github.com/pyqs-go/pyqs/internal/queue"
	"github.com/pyqs-go/pyqs/internal/task"
)

// ProcessWorker pulls invocations off the InternalQueue, resolves the
// named task, and executes it. It never touches the remote queue;
// deletion happens in the ReadWorker before hand-off.
type ProcessWorker struct {
	BaseWorker

	id                string
	internal          *queue.InternalQueue
	resolver          *task.Resolver
	shortPollInterval time.Duration
	log               zerolog.Logger
}

// NewProcessWorker builds a ProcessWorker.
func NewProcessWorker(id string, internal *queue.InternalQueue, resolver *task.Resolver, shortPollInterval time.Duration, shutdownFlag *atomic.Bool, log zerolog.Logger) *ProcessWorker {
	return &ProcessWorker{
		BaseWorker:        NewBaseWorker(shutdownFlag),
		id:                id,
		internal:          internal,
		resolver:          resolver,
		shortPollInterval: shortPollInterval,
		log:               log.With().Str("worker_id", id).Str("role", "processor").Logger(),
	}
}

// Run loops process_message until ShouldExit reports true.
func (w *ProcessWorker) Run() {
	for !w.ShouldExit() {
		w.ProcessMessage()
	}
}

// ProcessMessage implements spec.md §4.6. Task execution errors and
// panics are contained here; only a failure to get a handle on the
// queue itself would be unexpected, and InternalQueue never returns
// anything but EmptyError/nil, so this never terminates the worker.
func (w *ProcessWorker) ProcessMessage() {
	inv, err := w.internal.Get(w.shortPollInterval)
	if err != nil {
		return
	}

	taskLog := w.log.With().Str("task", inv.Task).Logger()

	fn, err := w.resolver.Resolve(inv.Task)
	if err != nil {
		taskLog.Error().Err(err).Msgf("failed to resolve task: %v", err)
		metrics.RecordResolutionError(inv.Task)
		return
	}

	start := time.Now()
	execErr := w.invoke(fn, inv)
	duration := time.Since(start).Seconds()

	argsRepr := task.FormatArgs(inv.Args)
	kwargsRepr := task.FormatKwargs(inv.Kwargs)

	if execErr != nil {
		taskLog.Error().Msgf("Task %s raised error: with args: %s and kwargs: %s: %s", inv.Task, argsRepr, kwargsRepr, execErr.Error())
		metrics.RecordTaskProcessed(inv.Task, "failure", duration)
		return
	}

	taskLog.Info().Msgf("Processed task %s with args: %s and kwargs: %s", inv.Task, argsRepr, kwargsRepr)
	metrics.RecordTaskProcessed(inv.Task, "success", duration)
}

// invoke calls fn, recovering any panic into an error carrying the full
// stack trace so a misbehaving task body cannot take this worker down.
func (w *ProcessWorker) invoke(fn task.Func, inv task.Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\nTraceback (most recent call last):\n%s", r, debug.Stack())
		}
	}()
	return fn(inv.Args, inv.Kwargs)
}
