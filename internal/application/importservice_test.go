package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadboard/threadboard/internal/application"
	"github.com/threadboard/threadboard/internal/domain/model"
)

type fakeIssueSync struct {
	mu       sync.Mutex
	comments []model.ImportedComment
	err      error
	calls    int
}

func (f *fakeIssueSync) FetchIssueComments(_ context.Context, _ string, _ int) ([]model.ImportedComment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.ImportedComment(nil), f.comments...), nil
}

type importedCall struct {
	ProjectID string
	Comment   model.ImportedComment
}

type fakeImportStore struct {
	mu      sync.Mutex
	upserts []importedCall
	failID  int64
}

func (f *fakeImportStore) UpsertImported(_ context.Context, projectID string, ic model.ImportedComment) (model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failID != 0 && ic.ExternalID == f.failID {
		return model.Comment{}, errors.New("upsert rejected")
	}
	f.upserts = append(f.upserts, importedCall{ProjectID: projectID, Comment: ic})
	return model.Comment{ID: "imported"}, nil
}

func startImportService(t *testing.T, source *fakeIssueSync, store *fakeImportStore) (*application.ImportService, context.Context) {
	t.Helper()

	svc := application.NewImportService(source, store, application.ImportBinding{
		ProjectID:    "p1",
		RepoFullName: "acme/site",
		IssueNumber:  7,
	}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Let the initial sync settle so SyncNow results are deterministic.
	time.Sleep(50 * time.Millisecond)
	return svc, ctx
}

func TestImportService_SyncUpsertsEveryComment(t *testing.T) {
	source := &fakeIssueSync{comments: []model.ImportedComment{
		{ExternalID: 101, Author: "octocat", Body: "first"},
		{ExternalID: 102, Author: "hubber", Body: "second"},
	}}
	store := &fakeImportStore{}

	svc, ctx := startImportService(t, source, store)
	require.NoError(t, svc.SyncNow(ctx))

	store.mu.Lock()
	defer store.mu.Unlock()
	// Initial sync plus the manual one.
	require.Len(t, store.upserts, 4)
	assert.Equal(t, "p1", store.upserts[0].ProjectID)
	assert.Equal(t, int64(101), store.upserts[0].Comment.ExternalID)
}

func TestImportService_PartialFailureDoesNotAbortCycle(t *testing.T) {
	source := &fakeIssueSync{comments: []model.ImportedComment{
		{ExternalID: 101, Body: "ok"},
		{ExternalID: 102, Body: "rejected"},
		{ExternalID: 103, Body: "also ok"},
	}}
	store := &fakeImportStore{failID: 102}

	svc, ctx := startImportService(t, source, store)
	require.NoError(t, svc.SyncNow(ctx), "per-comment failures are logged, not returned")

	store.mu.Lock()
	defer store.mu.Unlock()
	var ids []int64
	for _, u := range store.upserts {
		ids = append(ids, u.Comment.ExternalID)
	}
	assert.NotContains(t, ids, int64(102))
	assert.Contains(t, ids, int64(101))
	assert.Contains(t, ids, int64(103))
}

func TestImportService_FetchFailureSurfacesFromSyncNow(t *testing.T) {
	source := &fakeIssueSync{err: errors.New("api unreachable")}
	store := &fakeImportStore{}

	svc, ctx := startImportService(t, source, store)
	require.Error(t, svc.SyncNow(ctx))

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.upserts)
}
