package application_test

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/threadboard/threadboard/internal/domain/model"
	"github.com/threadboard/threadboard/internal/domain/port/driven"
)

// memStore is an in-memory CommentStore for exercising the orchestration
// services without sqlite. Pages are cursored by index into the newest-first
// root list, which is enough for the pagination contract under test.
type memStore struct {
	mu       sync.Mutex
	nextID   int
	comments []model.Comment

	listThreadsCalls int
	listRepliesCalls map[string]int
	createCalls      int

	failListThreads error
	failListReplies error
	failCreate      error
	failUpdate      error
	failDelete      error
	failResolve     error
	failReaction    error

	// listThreadsGate, when non-nil, is closed-waited inside ListThreads so a
	// test can hold a fetch open while it does something else.
	listThreadsGate chan struct{}
}

func newMemStore() *memStore {
	return &memStore{listRepliesCalls: make(map[string]int)}
}

func (s *memStore) add(projectID string, parentID *string, author, content string, resolved bool) model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	c := model.Comment{
		ID:        fmt.Sprintf("c%03d", s.nextID),
		ProjectID: projectID,
		ParentID:  parentID,
		Author:    model.Author{UserID: "u-" + author, Name: author},
		Content:   content,
		Resolved:  resolved,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(s.nextID) * time.Minute),
	}
	s.comments = append(s.comments, c)
	return c
}

func (s *memStore) seedThread(projectID, author, content string) model.Comment {
	return s.add(projectID, nil, author, content, false)
}

func (s *memStore) seedReply(parentID, author, content string) model.Comment {
	s.mu.Lock()
	var projectID string
	for _, c := range s.comments {
		if c.ID == parentID {
			projectID = c.ProjectID
		}
	}
	s.mu.Unlock()
	return s.add(projectID, &parentID, author, content, false)
}

func (s *memStore) get(id string) (model.Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.comments {
		if c.ID == id {
			return c, true
		}
	}
	return model.Comment{}, false
}

func (s *memStore) roots(projectID string) []model.Comment {
	var out []model.Comment
	for _, c := range s.comments {
		if c.ProjectID == projectID && c.ParentID == nil {
			out = append(out, c)
		}
	}
	// Newest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (s *memStore) ListThreads(_ context.Context, projectID, cursor string, limit int) (model.ThreadPage, error) {
	s.mu.Lock()
	s.listThreadsCalls++
	gate := s.listThreadsGate
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failListThreads != nil {
		return model.ThreadPage{}, s.failListThreads
	}

	roots := s.roots(projectID)
	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return model.ThreadPage{}, fmt.Errorf("%w: %w", driven.ErrInvalidCursor, err)
		}
		start = n
	}

	end := start + limit
	if end > len(roots) {
		end = len(roots)
	}
	page := model.ThreadPage{Comments: append([]model.Comment(nil), roots[start:end]...)}
	for i := range page.Comments {
		page.Comments[i].ReplyCount = s.replyCountLocked(page.Comments[i].ID)
	}
	if end < len(roots) {
		page.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}

func (s *memStore) replyCountLocked(parentID string) int {
	n := 0
	for _, c := range s.comments {
		if c.ParentID != nil && *c.ParentID == parentID {
			n++
		}
	}
	return n
}

func (s *memStore) ListReplies(_ context.Context, parentID string) ([]model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listRepliesCalls[parentID]++
	if s.failListReplies != nil {
		return nil, s.failListReplies
	}

	var out []model.Comment
	for _, c := range s.comments {
		if c.ParentID != nil && *c.ParentID == parentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) Create(_ context.Context, nc model.NewComment) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.createCalls++
	if s.failCreate != nil {
		return model.Comment{}, s.failCreate
	}

	parentID := nc.ParentID
	if parentID != nil {
		// Replies to replies attach to the thread root.
		for _, c := range s.comments {
			if c.ID == *parentID && c.ParentID != nil {
				root := *c.ParentID
				parentID = &root
				break
			}
		}
	}

	s.nextID++
	c := model.Comment{
		ID:        fmt.Sprintf("c%03d", s.nextID),
		ProjectID: nc.ProjectID,
		ParentID:  parentID,
		Author:    nc.Author,
		Content:   nc.Content,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(s.nextID) * time.Minute),
	}
	s.comments = append(s.comments, c)
	return c, nil
}

func (s *memStore) UpdateContent(_ context.Context, id, content string) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failUpdate != nil {
		return model.Comment{}, s.failUpdate
	}
	for i := range s.comments {
		if s.comments[i].ID == id {
			s.comments[i].Content = content
			s.comments[i].Edited = true
			return s.comments[i], nil
		}
	}
	return model.Comment{}, driven.ErrCommentNotFound
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failDelete != nil {
		return s.failDelete
	}
	kept := s.comments[:0]
	found := false
	for _, c := range s.comments {
		if c.ID == id || (c.ParentID != nil && *c.ParentID == id) {
			found = found || c.ID == id
			continue
		}
		kept = append(kept, c)
	}
	s.comments = kept
	if !found {
		return driven.ErrCommentNotFound
	}
	return nil
}

func (s *memStore) ToggleResolved(_ context.Context, id string) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failResolve != nil {
		return model.Comment{}, s.failResolve
	}
	for i := range s.comments {
		if s.comments[i].ID == id {
			if s.comments[i].ParentID != nil {
				return model.Comment{}, driven.ErrNotThreadRoot
			}
			s.comments[i].Resolved = !s.comments[i].Resolved
			return s.comments[i], nil
		}
	}
	return model.Comment{}, driven.ErrCommentNotFound
}

func (s *memStore) ToggleReaction(_ context.Context, id, emoji, userID string) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failReaction != nil {
		return model.Comment{}, s.failReaction
	}
	for i := range s.comments {
		if s.comments[i].ID == id {
			s.comments[i].Reactions = model.ToggleReactions(s.comments[i].Reactions, emoji, userID)
			return s.comments[i], nil
		}
	}
	return model.Comment{}, driven.ErrCommentNotFound
}

var _ driven.CommentStore = (*memStore)(nil)
