package worker

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pyqs-go/pyqs/internal/logger/testlog"
	"github.com/pyqs-go/pyqs/internal/queue"
)

func newTestLogger() (zerolog.Logger, *testlog.Hook) {
	hook := testlog.NewHook()
	log := zerolog.New(io.Discard).Hook(hook)
	return log, hook
}

const nativeBody = `{"task":"tests.tasks.index_incrementer","args":[],"kwargs":{"message":"Test message"}}`

func TestReadWorker_HappyPath_NativeJSON(t *testing.T) {
	remote := queue.NewFakeRemoteQueue(time.Minute)
	handle := remote.Seed(nativeBody)

	internal := queue.New(4)
	poison := queue.NewPoisonLog(nil)
	log, _ := newTestLogger()

	w := NewReadWorker("reader-1", remote, internal, poison, 10, "tasks", nil, log)

	require.NoError(t, w.ReadMessage(context.Background()))

	assert.Equal(t, 1, internal.Len())
	assert.True(t, remote.Deleted(handle))

	item, err := internal.Get(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Test message", item.Kwargs["message"])
}

func TestReadWorker_LegacyWrappedBody(t *testing.T) {
	remote := queue.NewFakeRemoteQueue(time.Minute)
	body := `{"body": "KGRwMApTJ3Rhc2snCnAxClMndGVzdHMudGFza3MuaW5kZXhfaW5jcmVtZW50ZXInCnAyCnNTJ2Fy\nZ3MnCnAzCihscDQKc1Mna3dhcmdzJwpwNQooZHA2ClMnbWVzc2FnZScKcDcKUydUZXN0IG1lc3Nh\nZ2UyJwpwOApzcy4=\n", "some stuff": "asdfasf"}`
	remote.Seed(body)

	internal := queue.New(4)
	poison := queue.NewPoisonLog(nil)
	log, _ := newTestLogger()

	w := NewReadWorker("reader-1", remote, internal, poison, 10, "tasks", nil, log)
	require.NoError(t, w.ReadMessage(context.Background()))

	item, err := internal.Get(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "Test message2", item.Kwargs["message"])
}

func TestReadWorker_BoundedBuffer(t *testing.T) {
	remote := queue.NewFakeRemoteQueue(time.Second)
	remote.Seed(nativeBody)
	remote.Seed(nativeBody)
	remote.Seed(nativeBody)

	internal := queue.New(2)
	poison := queue.NewPoisonLog(nil)
	log, _ := newTestLogger()

	w := NewReadWorker("reader-1", remote, internal, poison, 10, "tasks", nil, log)
	require.NoError(t, w.ReadMessage(context.Background()))

	assert.Equal(t, 2, internal.Len())

	_, err := internal.Get(time.Second)
	require.NoError(t, err)
	_, err = internal.Get(time.Second)
	require.NoError(t, err)

	_, err = internal.Get(time.Second)
	assert.ErrorIs(t, err, queue.ErrEmpty)
}

func TestReadWorker_VisibilityExceededLogsWarnings(t *testing.T) {
	remote := queue.NewFakeRemoteQueue(time.Second)
	remote.Seed(nativeBody)
	remote.Seed(nativeBody)
	remote.Seed(nativeBody)

	internal := queue.New(1)
	poison := queue.NewPoisonLog(nil)
	log, hook := newTestLogger()

	w := NewReadWorker("reader-1", remote, internal, poison, 10, "tasks", nil, log)
	require.NoError(t, w.ReadMessage(context.Background()))

	assert.True(t, hook.ContainsSubstring(zerolog.WarnLevel, "Timed out trying to add the following message to the internal queue"))
	assert.True(t, hook.ContainsSubstring(zerolog.WarnLevel, "Clearing Local messages since we exceeded their visibility_timeout"))

	assert.Equal(t, 1, internal.Len())
}

func TestReadWorker_DecodeErrorDeletesPoisonMessage(t *testing.T) {
	remote := queue.NewFakeRemoteQueue(time.Minute)
	handle := remote.Seed(`not valid json`)

	internal := queue.New(4)
	poison := queue.NewPoisonLog(nil)
	log, _ := newTestLogger()

	w := NewReadWorker("reader-1", remote, internal, poison, 10, "tasks", nil, log)
	require.NoError(t, w.ReadMessage(context.Background()))

	assert.Equal(t, 0, internal.Len())
	assert.True(t, remote.Deleted(handle))
}

func TestReadWorker_ZeroMessagesReturnsPromptly(t *testing.T) {
	remote := queue.NewFakeRemoteQueue(time.Minute)
	internal := queue.New(4)
	poison := queue.NewPoisonLog(nil)
	log, _ := newTestLogger()

	w := NewReadWorker("reader-1", remote, internal, poison, 10, "tasks", nil, log)
	require.NoError(t, w.ReadMessage(context.Background()))
	assert.Equal(t, 0, internal.Len())
}

func TestReadWorker_RunExitsWhenParentDead(t *testing.T) {
	remote := queue.NewFakeRemoteQueue(time.Minute)
	remote.Seed(nativeBody)

	internal := queue.New(4)
	poison := queue.NewPoisonLog(nil)
	log, _ := newTestLogger()

	w := NewReadWorker("reader-1", remote, internal, poison, 10, "tasks", nil, log)
	w.getppid = func() int { return 1 } // simulate orphaning: observed parent pid is the init/reaper pid

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit when parent pid observed as 1")
	}

	assert.Equal(t, 1, remote.Remaining(), "read_message must not be invoked once the parent is dead")
}
