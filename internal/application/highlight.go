package application

import (
	"sync"
	"time"

	"github.com/threadboard/threadboard/internal/sched"
)

// HighlightStatus is the terminal outcome of a highlight request.
type HighlightStatus string

const (
	// HighlightApplied means the row was found, flashed, and the dwell elapsed.
	HighlightApplied HighlightStatus = "applied"
	// HighlightMissing means no row mounted for the target within the window.
	// Callers decide whether to retry navigation; this is not an error.
	HighlightMissing HighlightStatus = "missing"
)

// HighlightResult reports completion of a highlight request. Each request
// completes exactly once unless it is cancelled by a newer request or by
// Cancel, in which case it never completes.
type HighlightResult struct {
	TargetID string
	Status   HighlightStatus
}

// HighlightView is the host-rendered row surface the highlighter drives.
// The same contract serves comment rows in the thread list and task/file
// rows elsewhere in the dashboard.
type HighlightView interface {
	// IsMounted reports whether a row for the id is currently rendered.
	IsMounted(id string) bool
	// ScrollIntoView scrolls the row to the viewport center.
	ScrollIntoView(id string)
	// SetFlash toggles the transient flash class on the row.
	SetFlash(id string, on bool)
}

const (
	highlightPollInterval = 50 * time.Millisecond
	highlightMountWindow  = time.Second
	highlightDwell        = 1700 * time.Millisecond
)

// Highlighter scrolls a target row into view and applies a timed visual
// flash. A target that is not yet mounted is polled for up to the mount
// window before being reported missing. Retargeting or cancelling removes
// the flash immediately and suppresses the pending completion.
type Highlighter struct {
	mu     sync.Mutex
	sched  sched.Scheduler
	view   HighlightView
	active *highlightJob
}

type highlightJob struct {
	targetID string
	done     func(HighlightResult)
	handle   sched.Handle
	waited   time.Duration
	flashed  bool
}

// NewHighlighter creates a Highlighter over the host view.
func NewHighlighter(s sched.Scheduler, view HighlightView) *Highlighter {
	return &Highlighter{sched: s, view: view}
}

// Highlight starts a highlight request for targetID, cancelling any request
// already in progress. done may be nil.
func (h *Highlighter) Highlight(targetID string, done func(HighlightResult)) {
	h.mu.Lock()
	h.cancelLocked()

	job := &highlightJob{targetID: targetID, done: done}
	h.active = job
	h.mu.Unlock()

	h.step(job)
}

// Cancel aborts the in-progress request, removing the flash immediately.
// The request's completion callback never fires.
func (h *Highlighter) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cancelLocked()
}

// step checks for the target row, either flashing it, scheduling another
// poll, or giving up once the mount window is spent.
func (h *Highlighter) step(job *highlightJob) {
	h.mu.Lock()
	if h.active != job {
		h.mu.Unlock()
		return
	}

	if h.view.IsMounted(job.targetID) {
		job.flashed = true
		h.mu.Unlock()

		h.view.ScrollIntoView(job.targetID)
		h.view.SetFlash(job.targetID, true)

		h.mu.Lock()
		if h.active != job {
			// Cancelled while the flash was being applied; its removal in
			// cancelLocked ran before the class existed, so remove it here.
			h.mu.Unlock()
			h.view.SetFlash(job.targetID, false)
			return
		}
		job.handle = h.sched.Schedule(highlightDwell, func() { h.finishApplied(job) })
		h.mu.Unlock()
		return
	}

	if job.waited >= highlightMountWindow {
		h.active = nil
		done := job.done
		h.mu.Unlock()

		if done != nil {
			done(HighlightResult{TargetID: job.targetID, Status: HighlightMissing})
		}
		return
	}

	job.waited += highlightPollInterval
	job.handle = h.sched.Schedule(highlightPollInterval, func() { h.step(job) })
	h.mu.Unlock()
}

// finishApplied removes the flash after the dwell and reports completion.
func (h *Highlighter) finishApplied(job *highlightJob) {
	h.mu.Lock()
	if h.active != job {
		h.mu.Unlock()
		return
	}
	h.active = nil
	done := job.done
	h.mu.Unlock()

	h.view.SetFlash(job.targetID, false)
	if done != nil {
		done(HighlightResult{TargetID: job.targetID, Status: HighlightApplied})
	}
}

// cancelLocked tears down the active job under the caller's lock.
func (h *Highlighter) cancelLocked() {
	job := h.active
	if job == nil {
		return
	}

	h.active = nil
	if job.handle != nil {
		job.handle.Cancel()
	}
	if job.flashed {
		h.view.SetFlash(job.targetID, false)
	}
}
