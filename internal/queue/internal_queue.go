// Package queue holds the bounded in-process buffer between ReadWorkers
// and ProcessWorkers, the remote-queue capability, and the optional
// poison-message visibility log.
package queue

import (
	"errors"
	"sync"
	"time"

	"github.com/pyqs-go/pyqs/internal/task"
)

// ErrTimeout is returned by Put when no capacity freed up before the
// deadline. It is a normal control signal, not a fault.
var ErrTimeout = errors.New("internal queue: put timed out waiting for capacity")

// ErrEmpty is returned by Get when no item arrived before the deadline.
var ErrEmpty = errors.New("internal queue: get timed out waiting for an item")

// InternalQueue is a bounded FIFO of task.Invocations shared between
// ReadWorkers and ProcessWorkers. It is safe for concurrent use by
// multiple producers and consumers.
type InternalQueue struct {
	capacity int
	mu       sync.Mutex
	items    []task.Invocation
	notEmpty *sync.Cond
	notFull  *sync.Cond
	closed   bool
}

// New returns an InternalQueue with the given capacity. Capacity must
// be positive.
func New(capacity int) *InternalQueue {
	if capacity <= 0 {
		capacity = 1
	}
	q := &InternalQueue{capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Put blocks up to timeout waiting for free capacity, then appends item.
// Returns ErrTimeout if no space freed up in time.
func (q *InternalQueue) Put(item task.Invocation, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) >= q.capacity && !q.closed {
		if !q.waitUntil(q.notFull, deadline) {
			return ErrTimeout
		}
	}
	if q.closed {
		return ErrTimeout
	}

	q.items = append(q.items, item)
	q.notEmpty.Signal()
	return nil
}

// Get blocks up to timeout waiting for an item, then removes and
// returns the oldest one. Returns ErrEmpty if nothing arrived in time.
func (q *InternalQueue) Get(timeout time.Duration) (task.Invocation, error) {
	deadline := time.Now().Add(timeout)

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		if q.closed {
			return task.Invocation{}, ErrEmpty
		}
		if !q.waitUntil(q.notEmpty, deadline) {
			return task.Invocation{}, ErrEmpty
		}
	}

	item := q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()
	return item, nil
}

// Len reports the current number of buffered items. Advisory only: the
// value may be stale by the time the caller acts on it.
func (q *InternalQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close marks the queue shut down. Pending and future Get calls drain
// whatever remains, then return ErrEmpty; future Put calls return
// ErrTimeout immediately.
func (q *InternalQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// waitUntil waits on cond until it is signalled or deadline passes.
// Reports whether it woke up before the deadline.
func (q *InternalQueue) waitUntil(cond *sync.Cond, deadline time.Time) bool {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return false
	}

	timedOut := make(chan struct{})
	timer := time.AfterFunc(remaining, func() {
		q.mu.Lock()
		close(timedOut)
		cond.Broadcast()
		q.mu.Unlock()
	})
	defer timer.Stop()

	select {
	case <-timedOut:
		return false
	default:
		cond.Wait()
		select {
		case <-timedOut:
			return false
		default:
			return true
		}
	}
}
