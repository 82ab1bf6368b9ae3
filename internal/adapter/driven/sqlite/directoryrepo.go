package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/threadboard/threadboard/internal/domain/model"
	"github.com/threadboard/threadboard/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProjectDirectory = (*DirectoryRepo)(nil)

// DirectoryRepo is the SQLite implementation of the ProjectDirectory port.
// It also exposes upserts so the surrounding dashboard can keep the catalog
// sources current; the engine itself only reads.
type DirectoryRepo struct {
	db *DB
}

// NewDirectoryRepo creates a DirectoryRepo backed by the given DB.
func NewDirectoryRepo(db *DB) *DirectoryRepo {
	return &DirectoryRepo{db: db}
}

// Tasks returns the project's tasks in board order.
func (r *DirectoryRepo) Tasks(ctx context.Context, projectID string) ([]model.TaskRef, error) {
	const query = `
		SELECT id, title, due_date, completed
		FROM tasks
		WHERE project_id = ?
		ORDER BY position, id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.TaskRef
	for rows.Next() {
		var t model.TaskRef
		var due sql.NullString
		var completed int

		if err := rows.Scan(&t.ID, &t.Title, &due, &completed); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}

		if due.Valid && due.String != "" {
			t.DueDate, err = parseTime(due.String)
			if err != nil {
				return nil, fmt.Errorf("parse due_date: %w", err)
			}
		}
		t.Completed = completed != 0
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

// Files returns the project's files across all categories, category-major.
func (r *DirectoryRepo) Files(ctx context.Context, projectID string) ([]model.FileRef, error) {
	const query = `
		SELECT id, name, file_type, category
		FROM files
		WHERE project_id = ?
		ORDER BY category, position, id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var files []model.FileRef
	for rows.Next() {
		var f model.FileRef
		var category string

		if err := rows.Scan(&f.ID, &f.Name, &f.Type, &category); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		f.Category = model.FileCategory(category)
		files = append(files, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return files, nil
}

// Members returns the project's workspace members.
func (r *DirectoryRepo) Members(ctx context.Context, projectID string) ([]model.MemberRef, error) {
	const query = `
		SELECT user_id, name, role
		FROM members
		WHERE project_id = ?
		ORDER BY position, user_id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []model.MemberRef
	for rows.Next() {
		var m model.MemberRef
		if err := rows.Scan(&m.UserID, &m.Name, &m.Role); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}

	return members, nil
}

// UpsertTask inserts or replaces a task row.
func (r *DirectoryRepo) UpsertTask(ctx context.Context, projectID string, position int, t model.TaskRef) error {
	const query = `
		INSERT INTO tasks (id, project_id, title, due_date, completed, position)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			due_date = excluded.due_date,
			completed = excluded.completed,
			position = excluded.position
	`

	var due any
	if !t.DueDate.IsZero() {
		due = t.DueDate.UTC().Format(time.RFC3339Nano)
	}

	completed := 0
	if t.Completed {
		completed = 1
	}

	if _, err := r.db.Writer.ExecContext(ctx, query, t.ID, projectID, t.Title, due, completed, position); err != nil {
		return fmt.Errorf("upsert task %s: %w", t.ID, err)
	}

	return nil
}

// UpsertFile inserts or replaces a file row.
func (r *DirectoryRepo) UpsertFile(ctx context.Context, projectID string, position int, f model.FileRef) error {
	const query = `
		INSERT INTO files (id, project_id, name, file_type, category, position)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			file_type = excluded.file_type,
			category = excluded.category,
			position = excluded.position
	`

	if _, err := r.db.Writer.ExecContext(ctx, query, f.ID, projectID, f.Name, f.Type, string(f.Category), position); err != nil {
		return fmt.Errorf("upsert file %s: %w", f.ID, err)
	}

	return nil
}

// UpsertMember inserts or replaces a member row.
func (r *DirectoryRepo) UpsertMember(ctx context.Context, projectID string, position int, m model.MemberRef) error {
	const query = `
		INSERT INTO members (user_id, project_id, name, role, position)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(project_id, user_id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			position = excluded.position
	`

	if _, err := r.db.Writer.ExecContext(ctx, query, m.UserID, projectID, m.Name, m.Role, position); err != nil {
		return fmt.Errorf("upsert member %s: %w", m.UserID, err)
	}

	return nil
}
