package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseWorker_ShutdownIsIdempotent(t *testing.T) {
	b := NewBaseWorker(nil)
	assert.False(t, b.ShutdownRequested())

	b.Shutdown()
	b.Shutdown()
	assert.True(t, b.ShutdownRequested())
}

func TestBaseWorker_ParentAlive(t *testing.T) {
	b := NewBaseWorker(nil)
	b.getppid = func() int { return 4242 }
	assert.True(t, b.ParentIsAlive())
	assert.False(t, b.ShouldExit())
}

func TestBaseWorker_ParentDead(t *testing.T) {
	b := NewBaseWorker(nil)
	b.getppid = func() int { return 1 }
	assert.False(t, b.ParentIsAlive())
	assert.True(t, b.ShouldExit())
}

func TestBaseWorker_ShouldExitOnShutdown(t *testing.T) {
	b := NewBaseWorker(nil)
	b.getppid = func() int { return 4242 }
	assert.False(t, b.ShouldExit())

	b.Shutdown()
	assert.True(t, b.ShouldExit())
}
