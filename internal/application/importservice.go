package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/threadboard/threadboard/internal/domain/port/driven"
)

// ImportBinding links one project to the external issue whose discussion is
// mirrored into it.
type ImportBinding struct {
	ProjectID    string
	RepoFullName string
	IssueNumber  int
}

// importRequest represents a manual sync trigger.
type importRequest struct {
	done chan error
}

// ImportService periodically mirrors a linked issue's comments into the
// comment store. Upserts are keyed by the external comment id, so repeated
// cycles converge instead of duplicating threads.
type ImportService struct {
	source   driven.IssueSync
	store    driven.ImportStore
	binding  ImportBinding
	interval time.Duration
	syncCh   chan importRequest
}

// NewImportService creates a new ImportService with all required dependencies.
func NewImportService(
	source driven.IssueSync,
	store driven.ImportStore,
	binding ImportBinding,
	interval time.Duration,
) *ImportService {
	return &ImportService{
		source:   source,
		store:    store,
		binding:  binding,
		interval: interval,
		syncCh:   make(chan importRequest),
	}
}

// Start begins the sync loop. It runs an immediate sync, then syncs on the
// configured interval. It also listens for manual sync requests. Start blocks
// until the context is canceled.
func (s *ImportService) Start(ctx context.Context) {
	if err := s.syncOnce(ctx); err != nil {
		slog.Error("initial issue sync failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("import service stopped")
			return
		case <-ticker.C:
			if err := s.syncOnce(ctx); err != nil {
				slog.Error("issue sync cycle failed", "error", err)
			}
		case req := <-s.syncCh:
			req.done <- s.syncOnce(ctx)
		}
	}
}

// SyncNow triggers a manual sync, bypassing the interval. It blocks until the
// sync completes or the context is canceled.
func (s *ImportService) SyncNow(ctx context.Context) error {
	done := make(chan error, 1)

	select {
	case s.syncCh <- importRequest{done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// syncOnce fetches the linked issue's comments and upserts each one. Per-
// comment failures are logged and counted but do not abort the cycle.
func (s *ImportService) syncOnce(ctx context.Context) error {
	start := time.Now()

	comments, err := s.source.FetchIssueComments(ctx, s.binding.RepoFullName, s.binding.IssueNumber)
	if err != nil {
		return err
	}

	var upsertErrors int
	for _, ic := range comments {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if _, err := s.store.UpsertImported(ctx, s.binding.ProjectID, ic); err != nil {
			slog.Error("upsert imported comment failed",
				"repo", s.binding.RepoFullName,
				"issue", s.binding.IssueNumber,
				"comment", ic.ExternalID,
				"error", err,
			)
			upsertErrors++
		}
	}

	slog.Info("issue sync complete",
		"repo", s.binding.RepoFullName,
		"issue", s.binding.IssueNumber,
		"comments", len(comments),
		"errors", upsertErrors,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return nil
}
