// Package task holds the normalized task invocation shape and the
// dotted-name registry that resolves an invocation to Go code.
package task

import "time"

// Invocation is the in-memory normalized form of a decoded queue
// message: a dotted task name plus positional and keyword arguments.
type Invocation struct {
	Task   string                 `json:"task"`
	Args   []interface{}          `json:"args"`
	Kwargs map[string]interface{} `json:"kwargs"`

	// FetchedAt is recorded at the moment the ReadWorker received the
	// message from the remote queue.
	FetchedAt time.Time `json:"-"`

	// VisibilityDeadline is FetchedAt + the source queue's visibility
	// timeout, computed once at fetch time.
	VisibilityDeadline time.Time `json:"-"`

	// ReceiptHandle identifies the underlying remote message so it can
	// be deleted once the invocation has been handed off.
	ReceiptHandle string `json:"-"`
}

// RemainingVisibility returns how long is left before VisibilityDeadline,
// relative to now. Negative once the deadline has passed.
func (i Invocation) RemainingVisibility(now time.Time) time.Duration {
	return i.VisibilityDeadline.Sub(now)
}

// Expired reports whether the invocation's visibility deadline has
// already passed at the given instant.
func (i Invocation) Expired(now time.Time) bool {
	return !now.Before(i.VisibilityDeadline)
}
