// Package tasks holds the example task bodies registered against the
// worker's task.Resolver, standing in for the dotted-path tasks a real
// deployment would register (tests.tasks.index_incrementer and
// friends). Unlike the suite this was ported from, results are written
// to an injected ResultSink rather than a package-level global, so
// tests can run concurrently without sharing state.
package tasks

import (
	"fmt"
	"sync"

	"github.com/pyqs-go/pyqs/internal/task"
)

// ResultSink collects the outcomes of example task executions. A real
// deployment would not need this; it exists so tests (and this demo
// task) have somewhere test-visible to record results instead of a
// process-global.
type ResultSink struct {
	mu      sync.Mutex
	results []interface{}
}

// NewResultSink returns an empty sink.
func NewResultSink() *ResultSink {
	return &ResultSink{}
}

// Append records a result.
func (s *ResultSink) Append(v interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, v)
}

// Results returns a copy of everything recorded so far.
func (s *ResultSink) Results() []interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]interface{}, len(s.results))
	copy(out, s.results)
	return out
}

// IndexIncrementer returns a task.Func bound to sink: it requires a
// string "message" kwarg and appends it to the sink, mirroring the
// dotted task tests.tasks.index_incrementer.
func IndexIncrementer(sink *ResultSink) task.Func {
	return func(args []interface{}, kwargs map[string]interface{}) error {
		message, ok := kwargs["message"]
		if !ok {
			return fmt.Errorf("index_incrementer requires a \"message\" kwarg")
		}
		s, ok := message.(string)
		if !ok {
			return fmt.Errorf("Need to be given basestring, was given %v", formatForError(message))
		}
		sink.Append(s)
		return nil
	}
}

func formatForError(v interface{}) string {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", v)
}
