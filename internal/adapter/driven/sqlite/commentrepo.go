package sqlite

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/threadboard/threadboard/internal/domain/model"
	"github.com/threadboard/threadboard/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.CommentStore = (*CommentRepo)(nil)
	_ driven.ImportStore  = (*CommentRepo)(nil)
)

// defaultPageSize bounds ListThreads when the caller passes a non-positive limit.
const defaultPageSize = 20

// displayTimeFormat is how creation times are rendered into the opaque
// Timestamp field. Clients never re-parse it.
const displayTimeFormat = "Jan 2, 2006 3:04 PM"

// storedTimeFormat is the fixed-width representation written to created_at
// and updated_at. Fractional seconds are zero-padded to nine digits so the
// strings compare in time order; RFC3339Nano trims trailing zeros and would
// break ORDER BY and the keyset cursor predicate for sub-second neighbors.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// CommentRepo is the SQLite implementation of the CommentStore and
// ImportStore ports. Replies always attach directly to their thread root:
// creating a reply whose parent is itself a reply re-parents it onto the
// root, so the stored tree is exactly the flattened two-tier shape the
// renderer shows.
type CommentRepo struct {
	db    *DB
	now   func() time.Time
	newID func() string
}

// NewCommentRepo creates a CommentRepo backed by the given DB.
func NewCommentRepo(db *DB) *CommentRepo {
	return &CommentRepo{
		db:    db,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// threadCursor is the decoded form of the opaque pagination token: the keyset
// position of the last comment on the previous page.
type threadCursor struct {
	CreatedAt string `json:"created_at"`
	ID        string `json:"id"`
}

func encodeCursor(c model.Comment) string {
	raw, _ := json.Marshal(threadCursor{
		CreatedAt: c.CreatedAt.UTC().Format(storedTimeFormat),
		ID:        c.ID,
	})
	return base64.URLEncoding.EncodeToString(raw)
}

func decodeCursor(token string) (*threadCursor, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", driven.ErrInvalidCursor, err)
	}

	var c threadCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", driven.ErrInvalidCursor, err)
	}

	return &c, nil
}

const commentColumns = `
	c.id, c.project_id, c.parent_id, c.author_id, c.author_name, c.author_avatar_url,
	c.content, c.edited, c.resolved, c.reactions, c.created_at,
	(SELECT COUNT(*) FROM comments r WHERE r.parent_id = c.id)
`

// ListThreads returns one page of top-level thread roots for a project,
// newest first, using a keyset cursor over (created_at, id).
func (r *CommentRepo) ListThreads(ctx context.Context, projectID, cursor string, limit int) (model.ThreadPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	query := `
		SELECT ` + commentColumns + `
		FROM comments c
		WHERE c.project_id = ? AND c.parent_id IS NULL
	`
	args := []any{projectID}

	if cursor != "" {
		pos, err := decodeCursor(cursor)
		if err != nil {
			return model.ThreadPage{}, err
		}
		query += ` AND (c.created_at < ? OR (c.created_at = ? AND c.id < ?))`
		args = append(args, pos.CreatedAt, pos.CreatedAt, pos.ID)
	}

	// Fetch one extra row to detect whether another page exists.
	query += ` ORDER BY c.created_at DESC, c.id DESC LIMIT ?`
	args = append(args, limit+1)

	comments, err := r.queryComments(ctx, query, args...)
	if err != nil {
		return model.ThreadPage{}, fmt.Errorf("list threads for project %s: %w", projectID, err)
	}

	page := model.ThreadPage{Comments: comments}
	if len(comments) > limit {
		page.Comments = comments[:limit]
		page.NextCursor = encodeCursor(page.Comments[limit-1])
	}

	return page, nil
}

// ListReplies returns the replies under a thread root, oldest first.
func (r *CommentRepo) ListReplies(ctx context.Context, parentID string) ([]model.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments c
		WHERE c.parent_id = ?
		ORDER BY c.created_at ASC, c.id ASC
	`

	replies, err := r.queryComments(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("list replies for %s: %w", parentID, err)
	}

	return replies, nil
}

// Create inserts a new comment. Replies to replies are re-parented onto the
// thread root so stored threads stay two-tier.
func (r *CommentRepo) Create(ctx context.Context, nc model.NewComment) (model.Comment, error) {
	var parentID *string
	if nc.ParentID != nil {
		parent, err := r.getByID(ctx, r.db.Writer, *nc.ParentID)
		if err != nil {
			return model.Comment{}, fmt.Errorf("resolve parent %s: %w", *nc.ParentID, err)
		}
		rootID := parent.ID
		if parent.ParentID != nil {
			rootID = *parent.ParentID
		}
		parentID = &rootID
	}

	id := r.newID()
	now := r.now().UTC()

	const query = `
		INSERT INTO comments (
			id, project_id, parent_id, author_id, author_name, author_avatar_url,
			content, edited, resolved, reactions, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, '[]', ?, ?)
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		id, nc.ProjectID, parentID, nc.Author.UserID, nc.Author.Name, nc.Author.AvatarURL,
		nc.Content, now.Format(storedTimeFormat), now.Format(storedTimeFormat),
	)
	if err != nil {
		return model.Comment{}, fmt.Errorf("insert comment: %w", err)
	}

	created, err := r.getByID(ctx, r.db.Writer, id)
	if err != nil {
		return model.Comment{}, fmt.Errorf("read back comment %s: %w", id, err)
	}

	return *created, nil
}

// UpdateContent replaces a comment's content and sets the edited flag.
func (r *CommentRepo) UpdateContent(ctx context.Context, id, content string) (model.Comment, error) {
	const query = `UPDATE comments SET content = ?, edited = 1, updated_at = ? WHERE id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, content, r.now().UTC().Format(storedTimeFormat), id)
	if err != nil {
		return model.Comment{}, fmt.Errorf("update comment %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return model.Comment{}, fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return model.Comment{}, fmt.Errorf("update comment %s: %w", id, driven.ErrCommentNotFound)
	}

	updated, err := r.getByID(ctx, r.db.Writer, id)
	if err != nil {
		return model.Comment{}, fmt.Errorf("read back comment %s: %w", id, err)
	}

	return *updated, nil
}

// Delete removes a comment. Deleting a thread root cascades to its replies.
func (r *CommentRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.Writer.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comment %s: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete comment %s: %w", id, driven.ErrCommentNotFound)
	}

	return nil
}

// ToggleResolved flips the resolution flag on a thread root.
func (r *CommentRepo) ToggleResolved(ctx context.Context, id string) (model.Comment, error) {
	existing, err := r.getByID(ctx, r.db.Writer, id)
	if err != nil {
		return model.Comment{}, fmt.Errorf("toggle resolved %s: %w", id, err)
	}
	if existing.ParentID != nil {
		return model.Comment{}, fmt.Errorf("toggle resolved %s: %w", id, driven.ErrNotThreadRoot)
	}

	const query = `UPDATE comments SET resolved = 1 - resolved, updated_at = ? WHERE id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, r.now().UTC().Format(storedTimeFormat), id); err != nil {
		return model.Comment{}, fmt.Errorf("toggle resolved %s: %w", id, err)
	}

	updated, err := r.getByID(ctx, r.db.Writer, id)
	if err != nil {
		return model.Comment{}, fmt.Errorf("read back comment %s: %w", id, err)
	}

	return *updated, nil
}

// ToggleReaction flips userID's membership in the emoji's user set inside one
// writer transaction. The single-writer connection serializes concurrent
// toggles, making this the idempotency boundary for reactions.
func (r *CommentRepo) ToggleReaction(ctx context.Context, id, emoji, userID string) (model.Comment, error) {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return model.Comment{}, fmt.Errorf("begin toggle reaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := r.getByID(ctx, tx, id)
	if err != nil {
		return model.Comment{}, fmt.Errorf("toggle reaction %s: %w", id, err)
	}

	updated := model.ToggleReactions(existing.Reactions, emoji, userID)
	raw, err := json.Marshal(updated)
	if err != nil {
		return model.Comment{}, fmt.Errorf("marshal reactions: %w", err)
	}

	const query = `UPDATE comments SET reactions = ?, updated_at = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query, string(raw), r.now().UTC().Format(storedTimeFormat), id); err != nil {
		return model.Comment{}, fmt.Errorf("toggle reaction %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return model.Comment{}, fmt.Errorf("commit toggle reaction: %w", err)
	}

	existing.Reactions = updated
	return *existing, nil
}

// UpsertImported inserts or refreshes a mirrored external comment, keyed by
// its external id. Imported comments land as top-level threads.
func (r *CommentRepo) UpsertImported(ctx context.Context, projectID string, ic model.ImportedComment) (model.Comment, error) {
	const query = `
		INSERT INTO comments (
			id, project_id, parent_id, author_id, author_name, author_avatar_url,
			content, edited, resolved, reactions, external_id, created_at, updated_at
		) VALUES (?, ?, NULL, ?, ?, ?, ?, 0, 0, '[]', ?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			content = excluded.content,
			author_name = excluded.author_name,
			author_avatar_url = excluded.author_avatar_url,
			updated_at = excluded.updated_at
	`

	authorID := fmt.Sprintf("github:%s", ic.Author)
	_, err := r.db.Writer.ExecContext(ctx, query,
		r.newID(), projectID, authorID, ic.Author, ic.AvatarURL, ic.Body,
		ic.ExternalID,
		ic.CreatedAt.UTC().Format(storedTimeFormat),
		ic.UpdatedAt.UTC().Format(storedTimeFormat),
	)
	if err != nil {
		return model.Comment{}, fmt.Errorf("upsert imported comment %d: %w", ic.ExternalID, err)
	}

	const lookup = `
		SELECT ` + commentColumns + `
		FROM comments c
		WHERE c.external_id = ?
	`
	comment, err := scanComment(r.db.Writer.QueryRowContext(ctx, lookup, ic.ExternalID))
	if err != nil {
		return model.Comment{}, fmt.Errorf("read back imported comment %d: %w", ic.ExternalID, err)
	}

	return *comment, nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *CommentRepo) getByID(ctx context.Context, q querier, id string) (*model.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments c
		WHERE c.id = ?
	`

	comment, err := scanComment(q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, driven.ErrCommentNotFound
	}
	if err != nil {
		return nil, err
	}

	return comment, nil
}

func (r *CommentRepo) queryComments(ctx context.Context, query string, args ...any) ([]model.Comment, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

func scanComment(s scanner) (*model.Comment, error) {
	var c model.Comment
	var parentID sql.NullString
	var edited, resolved int
	var reactionsJSON, createdAt string

	err := s.Scan(
		&c.ID, &c.ProjectID, &parentID, &c.Author.UserID, &c.Author.Name, &c.Author.AvatarURL,
		&c.Content, &edited, &resolved, &reactionsJSON, &createdAt, &c.ReplyCount,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		c.ParentID = &parentID.String
	}
	c.Edited = edited != 0
	c.Resolved = resolved != 0

	if err := json.Unmarshal([]byte(reactionsJSON), &c.Reactions); err != nil {
		return nil, fmt.Errorf("unmarshal reactions: %w", err)
	}

	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	c.Timestamp = c.CreatedAt.Format(displayTimeFormat)

	return &c, nil
}
