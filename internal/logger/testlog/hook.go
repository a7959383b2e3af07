// Package testlog supplements the teacher's logger with a test-only
// capture hook, the Go analogue of the Python suite's
// MockLoggingHandler (original_source/tests/test_worker.py): a place to
// assert on the exact log substrings spec.md §6 and §4.5/§4.6 require,
// without scraping stdout.
package testlog

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Hook buffers emitted log messages per level for later inspection.
type Hook struct {
	mu       sync.Mutex
	messages map[zerolog.Level][]string
}

// NewHook creates an empty capture hook.
func NewHook() *Hook {
	return &Hook{messages: make(map[zerolog.Level][]string)}
}

// Run implements zerolog.Hook.
func (h *Hook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages[level] = append(h.messages[level], msg)
}

// Messages returns a copy of every message captured at the given level.
func (h *Hook) Messages(level zerolog.Level) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.messages[level]))
	copy(out, h.messages[level])
	return out
}

// Reset clears all captured messages.
func (h *Hook) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = make(map[zerolog.Level][]string)
}

// ContainsSubstring reports whether any message at the given level
// contains substr.
func (h *Hook) ContainsSubstring(level zerolog.Level, substr string) bool {
	for _, m := range h.Messages(level) {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}
