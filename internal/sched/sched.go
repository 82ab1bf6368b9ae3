// Package sched provides a small scheduled-task abstraction so timer-driven
// view effects (debounced scrolls, highlight dwells, deferred listener arming)
// can be cancelled with a single call instead of scattered clearTimeout-style
// bookkeeping.
package sched

import "time"

// Handle cancels a scheduled task. Cancelling an already-run or
// already-cancelled task is a no-op.
type Handle interface {
	Cancel()
}

// Scheduler runs a function once after a delay. A zero delay defers the
// function to run as soon as possible rather than synchronously, which
// callers rely on to avoid re-entrant event handling.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Handle
}

// Timers is the production Scheduler backed by time.AfterFunc.
type Timers struct{}

// NewTimers returns the real timer-backed scheduler.
func NewTimers() Timers {
	return Timers{}
}

// Schedule runs fn on its own goroutine after d elapses.
func (Timers) Schedule(d time.Duration, fn func()) Handle {
	return timerHandle{t: time.AfterFunc(d, fn)}
}

type timerHandle struct {
	t *time.Timer
}

func (h timerHandle) Cancel() {
	h.t.Stop()
}
