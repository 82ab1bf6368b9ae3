package driven

import (
	"context"

	"github.com/threadboard/threadboard/internal/domain/model"
)

// ProjectDirectory defines the driven port for the host inputs that feed the
// mention catalog: the active project's tasks, files across all categories,
// and workspace members.
type ProjectDirectory interface {
	Tasks(ctx context.Context, projectID string) ([]model.TaskRef, error)
	Files(ctx context.Context, projectID string) ([]model.FileRef, error)
	Members(ctx context.Context, projectID string) ([]model.MemberRef, error)
}
