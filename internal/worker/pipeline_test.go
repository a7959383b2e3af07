package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyqs-go/pyqs/internal/queue"
)

// TestPipeline_SeededMessageReachesTaskSink drives a message end to
// end: FakeRemoteQueue -> ReadWorker -> InternalQueue -> ProcessWorker
// -> index_incrementer, and checks it lands in the sink with the
// remote message deleted exactly once.
func TestPipeline_SeededMessageReachesTaskSink(t *testing.T) {
	remote := queue.NewFakeRemoteQueue(time.Minute)
	remoteFactory := func(ctx context.Context) (queue.RemoteQueue, error) { return remote, nil }
	internal := queue.New(4)
	poison := queue.NewPoisonLog(nil)
	resolver, sink := newResolverWithIndexIncrementer()
	log, _ := newTestLogger()

	handle := remote.Seed(`{"task":"tests.tasks.index_incrementer","args":[],"kwargs":{"message":"hello"}}`)

	m := NewManager(internal, remoteFactory, poison, resolver, ManagerConfig{
		BatchSize:          10,
		ShortPollInterval:  5 * time.Millisecond,
		QueueLabel:         "tasks",
	}, log)

	m.Start(context.Background(), 1, 1)

	require.Eventually(t, func() bool {
		return len(sink.Results()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []interface{}{"hello"}, sink.Results())
	assert.True(t, remote.Deleted(handle))

	done := make(chan struct{})
	go func() {
		m.Shutdown(time.Second)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete")
	}
}

// TestPipeline_UnresolvableTaskStillDrainsHandoff checks that a message
// naming an unregistered task is handed off and deleted from the remote
// queue same as any other decodable message; resolution failure is
// logged by the ProcessWorker and does not requeue or crash the pipeline.
func TestPipeline_UnresolvableTaskStillDrainsHandoff(t *testing.T) {
	remote := queue.NewFakeRemoteQueue(time.Minute)
	remoteFactory := func(ctx context.Context) (queue.RemoteQueue, error) { return remote, nil }
	internal := queue.New(4)
	poison := queue.NewPoisonLog(nil)
	resolver, sink := newResolverWithIndexIncrementer()
	log, _ := newTestLogger()

	handle := remote.Seed(`{"task":"tests.tasks.does_not_exist","args":[],"kwargs":{}}`)

	m := NewManager(internal, remoteFactory, poison, resolver, ManagerConfig{
		BatchSize:          10,
		ShortPollInterval:  5 * time.Millisecond,
		QueueLabel:         "tasks",
	}, log)

	m.Start(context.Background(), 1, 1)

	require.Eventually(t, func() bool {
		return remote.Deleted(handle)
	}, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		m.Shutdown(time.Second)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete")
	}

	assert.Empty(t, sink.Results())
}
