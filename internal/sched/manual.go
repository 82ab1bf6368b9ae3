package sched

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler for tests. Scheduled tasks run only
// when the virtual clock is advanced past their due time, on the goroutine
// calling Advance.
type Manual struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	due       time.Duration
	seq       int
	fn        func()
	cancelled bool
}

// NewManual returns a Manual scheduler with the clock at zero.
func NewManual() *Manual {
	return &Manual{}
}

// Schedule registers fn to run when the clock reaches the current time plus d.
func (m *Manual) Schedule(d time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &manualTask{due: m.now + d, seq: m.seq, fn: fn}
	m.seq++
	m.tasks = append(m.tasks, t)
	return manualHandle{m: m, t: t}
}

// Advance moves the clock forward by d, running every pending task whose due
// time is reached, in due-time order. Tasks scheduled while advancing run in
// the same call if they fall within the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d

	for {
		next := m.popDue(target)
		if next == nil {
			break
		}
		if next.due > m.now {
			m.now = next.due
		}
		m.mu.Unlock()
		next.fn()
		m.mu.Lock()
	}

	m.now = target
	m.mu.Unlock()
}

// Pending returns the number of tasks that have not yet run or been cancelled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, t := range m.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// popDue removes and returns the earliest non-cancelled task due at or before
// target. Caller holds the lock.
func (m *Manual) popDue(target time.Duration) *manualTask {
	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].due != m.tasks[j].due {
			return m.tasks[i].due < m.tasks[j].due
		}
		return m.tasks[i].seq < m.tasks[j].seq
	})

	for i, t := range m.tasks {
		if t.cancelled {
			continue
		}
		if t.due > target {
			return nil
		}
		m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
		return t
	}
	return nil
}

type manualHandle struct {
	m *Manual
	t *manualTask
}

func (h manualHandle) Cancel() {
	h.m.mu.Lock()
	defer h.m.mu.Unlock()
	h.t.cancelled = true
}
