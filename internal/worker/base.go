// Package worker implements the ReadWorker/ProcessWorker/ManagerWorker
// trio that move messages from the remote queue through the bounded
// internal buffer and into task execution.
//
// The original design isolates workers in separate OS processes so a
// misbehaving task cannot corrupt its peers. Go gives us a cheaper
// primitive with the same failure-containment property for in-process
// code: a goroutine plus a panic-recovering executor, supervised by
// the manager and respawned on unexpected exit. BaseWorker captures
// the contract shared by every role under that model.
package worker

import (
	"os"
	"sync/atomic"
)

// BaseWorker is the shared shutdown/liveness contract every worker
// role embeds. Per spec, workers communicate only through the bounded
// InternalQueue and a single shared shutdown flag — so shutdownFlag is
// a pointer the ManagerWorker hands out to every worker it spawns,
// never a private per-worker flag.
type BaseWorker struct {
	shutdownFlag *atomic.Bool
	getppid      func() int
}

// NewBaseWorker builds a BaseWorker that checks the real OS parent pid
// and shares shutdownFlag with every other worker the manager owns. A
// nil shutdownFlag gets a private one, useful for standalone tests.
func NewBaseWorker(shutdownFlag *atomic.Bool) BaseWorker {
	if shutdownFlag == nil {
		shutdownFlag = new(atomic.Bool)
	}
	return BaseWorker{shutdownFlag: shutdownFlag, getppid: os.Getppid}
}

// Shutdown sets the shutdown flag. Idempotent. Since the flag is
// shared, this also signals every other worker spawned from the same
// ManagerWorker.
func (b *BaseWorker) Shutdown() {
	b.shutdownFlag.Store(true)
}

// ShutdownRequested reports whether Shutdown has been called on this
// worker or any other worker sharing its flag.
func (b *BaseWorker) ShutdownRequested() bool {
	return b.shutdownFlag.Load()
}

// ParentIsAlive reports whether the process that spawned this worker
// still appears to be running. A parent pid of 1 means the original
// parent exited and init/the reaper adopted this process — treated as
// dead.
func (b *BaseWorker) ParentIsAlive() bool {
	getppid := b.getppid
	if getppid == nil {
		getppid = os.Getppid
	}
	return getppid() != 1
}

// ShouldExit reports whether the run loop should stop: shutdown was
// requested, or the parent process is gone.
func (b *BaseWorker) ShouldExit() bool {
	return b.ShutdownRequested() || !b.ParentIsAlive()
}
