// Package application contains the discussion-engine orchestration services.
package application

import (
	"log/slog"
	"sync"
	"time"
)

const (
	defaultToastTTL  = 5 * time.Second
	defaultMaxToasts = 5
)

// Toast is a transient user-facing notice produced by a failure path or an
// informational event.
type Toast struct {
	Scope   string
	Message string
	IsError bool

	expiresAt time.Time
}

// Notifier is the single error-reporting sink every coordinator failure path
// funnels through. Failures are logged with an operation-scoped label and
// buffered as best-effort toasts; nothing propagates further.
type Notifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	now    func() time.Time
	toasts []Toast
}

// NewNotifier creates a Notifier logging through the given logger.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		logger: logger,
		now:    time.Now,
	}
}

// ReportError records a recovered failure under an operation-scoped label.
func (n *Notifier) ReportError(scope string, err error) {
	n.logger.Error("ui operation failed", "scope", scope, "error", err)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.push(Toast{
		Scope:     scope,
		Message:   err.Error(),
		IsError:   true,
		expiresAt: n.now().Add(defaultToastTTL),
	})
}

// Notice records an informational toast.
func (n *Notifier) Notice(scope, message string) {
	n.logger.Info("ui notice", "scope", scope, "message", message)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.push(Toast{
		Scope:     scope,
		Message:   message,
		expiresAt: n.now().Add(defaultToastTTL),
	})
}

// Active returns the non-expired toasts, oldest first, pruning the rest.
func (n *Notifier) Active() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	alive := n.toasts[:0]
	for _, t := range n.toasts {
		if t.expiresAt.After(now) {
			alive = append(alive, t)
		}
	}
	n.toasts = alive

	out := make([]Toast, len(n.toasts))
	copy(out, n.toasts)
	return out
}

// push appends under the caller's lock, evicting the oldest past the cap.
func (n *Notifier) push(t Toast) {
	n.toasts = append(n.toasts, t)
	if len(n.toasts) > defaultMaxToasts {
		n.toasts = n.toasts[len(n.toasts)-defaultMaxToasts:]
	}
}
