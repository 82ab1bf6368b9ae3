package driven

import (
	"context"
	"errors"

	"github.com/threadboard/threadboard/internal/domain/model"
)

// Sentinel errors returned by CommentStore implementations so driving
// adapters can distinguish caller mistakes from store failures.
var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrNotThreadRoot   = errors.New("comment is not a thread root")
	ErrInvalidCursor   = errors.New("invalid pagination cursor")
)

// CommentStore defines the driven port for persisting and querying comments.
// The store is the idempotency boundary for reactions: ToggleReaction flips
// the acting user's membership in the named emoji's user set, so two
// sequential calls by the same user restore the original state.
type CommentStore interface {
	// ListThreads returns one page of top-level thread roots for a project,
	// newest first. An empty cursor requests the first page; an empty
	// NextCursor in the result means the listing is exhausted.
	ListThreads(ctx context.Context, projectID, cursor string, limit int) (model.ThreadPage, error)
	// ListReplies returns the direct replies under a thread root, oldest first.
	ListReplies(ctx context.Context, parentID string) ([]model.Comment, error)
	Create(ctx context.Context, nc model.NewComment) (model.Comment, error)
	// UpdateContent replaces a comment's content and marks it edited.
	UpdateContent(ctx context.Context, id, content string) (model.Comment, error)
	Delete(ctx context.Context, id string) error
	// ToggleResolved flips resolution state on a thread root. Replies are
	// never independently resolved; passing a reply id is an error.
	ToggleResolved(ctx context.Context, id string) (model.Comment, error)
	ToggleReaction(ctx context.Context, id, emoji, userID string) (model.Comment, error)
}
