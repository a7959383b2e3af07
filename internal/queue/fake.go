package queue

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// FakeRemoteQueue is an in-memory RemoteQueue for tests: it lets test
// code seed message bodies and assert on which receipt handles were
// deleted, without talking to AWS.
type FakeRemoteQueue struct {
	mu                sync.Mutex
	pending           []RawMessage
	deleted           map[string]bool
	VisibilityTimeout time.Duration
	ReceiveErr        error
}

// NewFakeRemoteQueue returns an empty fake with the given visibility
// timeout.
func NewFakeRemoteQueue(visibilityTimeout time.Duration) *FakeRemoteQueue {
	return &FakeRemoteQueue{
		deleted:           make(map[string]bool),
		VisibilityTimeout: visibilityTimeout,
	}
}

// Seed appends a message body to the queue with a freshly generated
// receipt handle, returning that handle.
func (f *FakeRemoteQueue) Seed(body string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	handle := nextFakeReceiptHandle()
	f.pending = append(f.pending, RawMessage{
		Body:          body,
		ReceiptHandle: handle,
		FetchedAt:     time.Now(),
	})
	return handle
}

// Receive implements RemoteQueue.
func (f *FakeRemoteQueue) Receive(ctx context.Context, batchSize int32) ([]RawMessage, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReceiveErr != nil {
		return nil, 0, f.ReceiveErr
	}

	n := int(batchSize)
	if n > len(f.pending) {
		n = len(f.pending)
	}
	batch := make([]RawMessage, n)
	copy(batch, f.pending[:n])
	f.pending = f.pending[n:]
	return batch, f.VisibilityTimeout, nil
}

// Delete implements RemoteQueue.
func (f *FakeRemoteQueue) Delete(ctx context.Context, receiptHandle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted[receiptHandle] = true
	return nil
}

// Deleted reports whether Delete was called with this receipt handle.
func (f *FakeRemoteQueue) Deleted(receiptHandle string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleted[receiptHandle]
}

// Remaining reports how many messages are still queued for receive.
func (f *FakeRemoteQueue) Remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

var (
	fakeHandleMu  sync.Mutex
	fakeHandleSeq int
)

func nextFakeReceiptHandle() string {
	fakeHandleMu.Lock()
	defer fakeHandleMu.Unlock()
	fakeHandleSeq++
	return "fake-receipt-" + strconv.Itoa(fakeHandleSeq)
}
