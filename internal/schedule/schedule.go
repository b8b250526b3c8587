// internal/schedule/schedule.go
//
// Cancellable deferred work for game sessions.
// Defines:
//   - Scheduler: one-shot (After) and repeating (Every) task scheduling.
//   - Task: handle returned by a Scheduler; Stop cancels future runs.
//
// Implementations:
//   - Loop:   serial event loop backed by real timers (loop.go).
//   - Manual: virtual clock advanced explicitly by tests (manual.go).
//
// Both implementations guarantee that a stopped task's fn is never invoked
// after Stop returns, as long as Stop is called from the goroutine that runs
// the callbacks.

package schedule

import "time"

// Task is a handle to scheduled work.
type Task interface {
	// Stop cancels the task. Safe to call more than once.
	Stop()
}

// Scheduler arranges for functions to run later.
type Scheduler interface {
	// After runs fn once after d.
	After(d time.Duration, fn func()) Task

	// Every runs fn repeatedly, every d, until the task is stopped.
	Every(d time.Duration, fn func()) Task
}
