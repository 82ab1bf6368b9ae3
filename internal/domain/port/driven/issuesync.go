package driven

import (
	"context"

	"github.com/threadboard/threadboard/internal/domain/model"
)

// IssueSync defines the driven port for fetching an external issue tracker's
// discussion, used to mirror a linked issue's comments into a project.
type IssueSync interface {
	FetchIssueComments(ctx context.Context, repoFullName string, issueNumber int) ([]model.ImportedComment, error)
}

// ImportStore extends comment persistence with idempotent upserts keyed by the
// external comment id, so repeated import cycles converge instead of
// duplicating threads.
type ImportStore interface {
	UpsertImported(ctx context.Context, projectID string, ic model.ImportedComment) (model.Comment, error)
}
