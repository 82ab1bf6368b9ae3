package application

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/threadboard/threadboard/internal/domain/model"
	"github.com/threadboard/threadboard/internal/domain/port/driven"
	"github.com/threadboard/threadboard/internal/sched"
)

// scrollToTopDelay debounces the scroll-to-top scheduled after a successful
// comment add, so rapid consecutive adds produce one scroll.
const scrollToTopDelay = 150 * time.Millisecond

// ThreadService coordinates the discussion view for one project: it
// translates user intents into store calls, owns the thread and reply caches
// through its Paginator and ReplyLoader, tracks expand/collapse and draft
// state, and funnels every failure through the shared Notifier. Optimistic
// state is limited to clearing inputs; the rendered lists always reflect the
// last successful read.
type ThreadService struct {
	mu    sync.Mutex
	store driven.CommentStore

	paginator *Paginator
	replies   *ReplyLoader
	overlay   *OverlayController
	highlight *Highlighter
	notifier  *Notifier
	sched     sched.Scheduler

	user      model.User
	projectID string

	expanded      map[string]bool
	draft         string
	replyDrafts   map[string]string
	openReplyForm string
	editingID     string

	scrollToTop  func()
	scrollHandle sched.Handle
	closed       bool
}

// NewThreadService creates the coordinator. overlay and highlight may be nil
// when the host wires those controllers separately.
func NewThreadService(
	store driven.CommentStore,
	notifier *Notifier,
	scheduler sched.Scheduler,
	user model.User,
	pageSize int,
	overlay *OverlayController,
	highlight *Highlighter,
) *ThreadService {
	return &ThreadService{
		store:       store,
		paginator:   NewPaginator(store, pageSize),
		replies:     NewReplyLoader(store),
		overlay:     overlay,
		highlight:   highlight,
		notifier:    notifier,
		sched:       scheduler,
		user:        user,
		expanded:    make(map[string]bool),
		replyDrafts: make(map[string]string),
	}
}

// Paginator exposes the top-level thread pagination state for rendering.
func (s *ThreadService) Paginator() *Paginator { return s.paginator }

// Replies exposes the per-parent reply caches for rendering.
func (s *ThreadService) Replies() *ReplyLoader { return s.replies }

// User returns the acting user's identity.
func (s *ThreadService) User() model.User { return s.user }

// SetScrollToTop registers the host callback invoked by the debounced
// scroll-to-top effect.
func (s *ThreadService) SetScrollToTop(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrollToTop = fn
}

// SwitchProject resets the entire view for a new active project: pagination,
// reply caches, collapse state, drafts, overlays, and any pending timers.
// The first page is loaded before returning.
func (s *ThreadService) SwitchProject(ctx context.Context, projectID string) {
	s.mu.Lock()
	s.projectID = projectID
	s.expanded = make(map[string]bool)
	s.draft = ""
	s.replyDrafts = make(map[string]string)
	s.openReplyForm = ""
	s.editingID = ""
	if s.scrollHandle != nil {
		s.scrollHandle.Cancel()
		s.scrollHandle = nil
	}
	s.mu.Unlock()

	s.replies.Reset()
	if s.overlay != nil {
		s.overlay.Reset()
	}
	if s.highlight != nil {
		s.highlight.Cancel()
	}

	s.paginator.Reset(projectID)
	if err := s.paginator.LoadFirstPage(ctx); err != nil {
		s.notifier.ReportError("load threads", err)
	}
}

// Close tears the view down, cancelling pending timers so no delayed effect
// touches the host after unmount.
func (s *ThreadService) Close() {
	s.mu.Lock()
	s.closed = true
	if s.scrollHandle != nil {
		s.scrollHandle.Cancel()
		s.scrollHandle = nil
	}
	s.mu.Unlock()

	if s.highlight != nil {
		s.highlight.Cancel()
	}
	if s.overlay != nil {
		s.overlay.Reset()
	}
}

// AddComment creates a new top-level thread. Empty trimmed text is a silent
// no-op. On success the composer draft is cleared and a debounced
// scroll-to-top is scheduled; on failure the draft stays intact for retry.
func (s *ThreadService) AddComment(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	projectID := s.projectID
	author := s.author()
	s.mu.Unlock()

	created, err := s.store.Create(ctx, model.NewComment{
		ProjectID: projectID,
		Author:    author,
		Content:   text,
	})
	if err != nil {
		s.notifier.ReportError("add comment", err)
		return err
	}

	s.paginator.PrependThread(created)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = ""
	if s.scrollHandle != nil {
		s.scrollHandle.Cancel()
	}
	s.scrollHandle = s.sched.Schedule(scrollToTopDelay, func() {
		s.mu.Lock()
		fn := s.scrollToTop
		closed := s.closed
		s.mu.Unlock()
		if !closed && fn != nil {
			fn()
		}
	})

	return nil
}

// Reply creates a reply under a thread. Empty trimmed text is a silent no-op.
// On success the reply draft is cleared, the form closes, the parent thread
// is expanded, and its reply list is force-reloaded so the new reply shows.
func (s *ThreadService) Reply(ctx context.Context, parentID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	projectID := s.projectID
	author := s.author()
	s.mu.Unlock()

	created, err := s.store.Create(ctx, model.NewComment{
		ProjectID: projectID,
		ParentID:  &parentID,
		Author:    author,
		Content:   text,
	})
	if err != nil {
		s.notifier.ReportError("reply", err)
		return err
	}

	// The store may have re-parented a reply-to-reply onto the thread root.
	rootID := parentID
	if created.ParentID != nil {
		rootID = *created.ParentID
	}

	s.mu.Lock()
	delete(s.replyDrafts, parentID)
	if s.openReplyForm == parentID {
		s.openReplyForm = ""
	}
	s.expanded[rootID] = true
	s.mu.Unlock()

	s.reloadReplies(ctx, rootID)
	return nil
}

// EditComment replaces a comment's content. Empty trimmed text is a silent
// no-op. On success edit mode exits and the affected reply list reloads so
// the edited flag and new content propagate.
func (s *ThreadService) EditComment(ctx context.Context, id, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	updated, err := s.store.UpdateContent(ctx, id, text)
	if err != nil {
		s.notifier.ReportError("edit comment", err)
		return err
	}

	s.mu.Lock()
	if s.editingID == id {
		s.editingID = ""
	}
	s.mu.Unlock()

	s.applyMutation(ctx, updated)
	return nil
}

// DeleteComment removes a comment. Confirmation, if any, is a presentation
// concern. Deleting a root drops the whole thread; deleting a reply reloads
// the parent's reply list and refreshes its cached count.
func (s *ThreadService) DeleteComment(ctx context.Context, id string) error {
	_, isRoot := s.paginator.Thread(id)
	parentID, isReply := s.replies.ParentOf(id)

	if err := s.store.Delete(ctx, id); err != nil {
		s.notifier.ReportError("delete comment", err)
		return err
	}

	switch {
	case isRoot:
		s.paginator.RemoveThread(id)
		s.replies.Remove(id)
		s.mu.Lock()
		delete(s.expanded, id)
		s.mu.Unlock()
	case isReply:
		s.reloadReplies(ctx, parentID)
	}

	return nil
}

// ToggleResolved flips a thread's resolution state. The permission predicate
// (author-only, roots-only) is consulted by the presentation layer; the
// coordinator performs the call unconditionally and trusts its caller.
func (s *ThreadService) ToggleResolved(ctx context.Context, id string) error {
	updated, err := s.store.ToggleResolved(ctx, id)
	if err != nil {
		s.notifier.ReportError("resolve thread", err)
		return err
	}

	s.applyMutation(ctx, updated)
	return nil
}

// ToggleReaction flips the acting user's membership in the emoji's user set.
// No client-side idempotency tracking: each invocation issues one store call,
// and the store is the idempotency boundary.
func (s *ThreadService) ToggleReaction(ctx context.Context, id, emoji string) error {
	updated, err := s.store.ToggleReaction(ctx, id, emoji, s.user.ID)
	if err != nil {
		s.notifier.ReportError("react", err)
		return err
	}

	s.applyMutation(ctx, updated)
	return nil
}

// ToggleThread expands or collapses a thread locally. First expansion loads
// the reply list; a load failure is reported but leaves any previously
// cached replies visible.
func (s *ThreadService) ToggleThread(ctx context.Context, id string) {
	s.mu.Lock()
	nowExpanded := !s.expanded[id]
	s.expanded[id] = nowExpanded
	s.mu.Unlock()

	if !nowExpanded || s.replies.Loaded(id) {
		return
	}

	if _, err := s.replies.Load(ctx, id, false); err != nil {
		s.notifier.ReportError("load replies", err)
	}
}

// Expanded reports whether a thread is expanded.
func (s *ThreadService) Expanded(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded[id]
}

// Draft state accessors. Drafts survive failed sends so the user can retry.

func (s *ThreadService) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *ThreadService) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
}

func (s *ThreadService) ReplyDraft(parentID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replyDrafts[parentID]
}

func (s *ThreadService) SetReplyDraft(parentID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replyDrafts[parentID] = text
	s.openReplyForm = parentID
}

// ReplyFormOpen returns the id of the thread whose reply form is open.
func (s *ThreadService) ReplyFormOpen() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openReplyForm, s.openReplyForm != ""
}

// StartEditing marks a comment as being edited.
func (s *ThreadService) StartEditing(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editingID = id
}

// Editing returns the id of the comment in edit mode.
func (s *ThreadService) Editing() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editingID, s.editingID != ""
}

// author builds the acting user's author record. Caller holds the lock.
func (s *ThreadService) author() model.Author {
	return model.Author{
		UserID:    s.user.ID,
		Name:      s.user.Name,
		AvatarURL: s.user.AvatarURL,
	}
}

// applyMutation folds a mutated comment back into the caches: roots replace
// their cached thread entry, and the affected reply list (the comment's own
// for roots, the parent's for replies) is invalidated and reloaded if it was
// ever loaded. The rest of the tree is untouched.
func (s *ThreadService) applyMutation(ctx context.Context, c model.Comment) {
	affected := c.ID
	if c.ParentID != nil {
		affected = *c.ParentID
	} else {
		s.paginator.ReplaceThread(c)
	}

	if s.replies.Loaded(affected) {
		s.reloadReplies(ctx, affected)
	}
}

// reloadReplies force-reloads one reply list and refreshes the cached count
// on its root.
func (s *ThreadService) reloadReplies(ctx context.Context, parentID string) {
	replies, err := s.replies.Load(ctx, parentID, true)
	if err != nil {
		s.notifier.ReportError("load replies", err)
		return
	}
	s.paginator.SetReplyCount(parentID, len(replies))
}
