// Package logger provides the process-wide "pyqs" named logging sink.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// SinkName is the logger name required by spec.md §6: a named sink
// "pyqs" that every emitted event carries as a field, mirroring the
// Python implementation's logging.getLogger("pyqs").
const SinkName = "pyqs"

var log zerolog.Logger

// Init configures the global logger. pretty enables a human-readable
// console writer instead of newline-delimited JSON.
func Init(level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var output io.Writer = os.Stdout
	if pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	log = zerolog.New(output).
		With().
		Timestamp().
		Str("logger", SinkName).
		Logger()
}

// Get returns the process-wide logger.
func Get() *zerolog.Logger {
	return &log
}

// Named returns a logger scoped to a pipeline component (reader,
// processor, manager).
func Named(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// WithWorker returns a logger scoped to a single worker instance.
func WithWorker(workerID string) zerolog.Logger {
	return log.With().Str("worker_id", workerID).Logger()
}

// WithTask returns a logger scoped to a task invocation.
func WithTask(taskName string) zerolog.Logger {
	return log.With().Str("task", taskName).Logger()
}

func Debug() *zerolog.Event { return log.Debug() }
func Info() *zerolog.Event  { return log.Info() }
func Warn() *zerolog.Event  { return log.Warn() }
func Error() *zerolog.Event { return log.Error() }
func Fatal() *zerolog.Event { return log.Fatal() }

// AddHook attaches a zerolog.Hook (e.g. internal/logger/testlog) to the
// global logger. Used by tests that need to assert on emitted messages.
func AddHook(hook zerolog.Hook) {
	log = log.Hook(hook)
}
