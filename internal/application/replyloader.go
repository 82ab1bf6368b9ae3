package application

import (
	"context"
	"sync"

	"github.com/threadboard/threadboard/internal/domain/model"
	"github.com/threadboard/threadboard/internal/domain/port/driven"
)

// ReplyLoader lazily loads and caches the reply list for individual thread
// roots, independent of top-level pagination. A failed reload keeps the
// previously cached replies visible instead of blanking them.
type ReplyLoader struct {
	mu      sync.Mutex
	store   driven.CommentStore
	entries map[string]*replyEntry
}

type replyEntry struct {
	replies []model.Comment
	loaded  bool
	stale   bool
}

// NewReplyLoader creates a ReplyLoader over the given store.
func NewReplyLoader(store driven.CommentStore) *ReplyLoader {
	return &ReplyLoader{
		store:   store,
		entries: make(map[string]*replyEntry),
	}
}

// Load returns the replies under parentID, fetching from the store on first
// use, when the cache entry is stale, or when force is set. On a fetch error
// the previous cached replies are returned alongside the error.
func (l *ReplyLoader) Load(ctx context.Context, parentID string, force bool) ([]model.Comment, error) {
	l.mu.Lock()
	entry, ok := l.entries[parentID]
	if ok && entry.loaded && !entry.stale && !force {
		cached := copyComments(entry.replies)
		l.mu.Unlock()
		return cached, nil
	}
	l.mu.Unlock()

	replies, err := l.store.ListReplies(ctx, parentID)

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok = l.entries[parentID]
	if err != nil {
		if ok {
			return copyComments(entry.replies), err
		}
		return nil, err
	}

	if !ok {
		entry = &replyEntry{}
		l.entries[parentID] = entry
	}
	entry.replies = replies
	entry.loaded = true
	entry.stale = false

	return copyComments(replies), nil
}

// Loaded reports whether a reply list is cached for parentID.
func (l *ReplyLoader) Loaded(parentID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[parentID]
	return ok && entry.loaded
}

// Replies returns the cached replies for parentID without fetching.
func (l *ReplyLoader) Replies(parentID string) []model.Comment {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[parentID]
	if !ok {
		return nil
	}
	return copyComments(entry.replies)
}

// Invalidate marks a single cache entry stale so the next Load refetches it.
// The rest of the tree is untouched.
func (l *ReplyLoader) Invalidate(parentID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.entries[parentID]; ok {
		entry.stale = true
	}
}

// ParentOf searches the cached reply lists for a comment and returns the
// parent id it is cached under.
func (l *ReplyLoader) ParentOf(commentID string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for parentID, entry := range l.entries {
		for _, c := range entry.replies {
			if c.ID == commentID {
				return parentID, true
			}
		}
	}
	return "", false
}

// Remove drops the cache entry for a deleted thread root.
func (l *ReplyLoader) Remove(parentID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, parentID)
}

// Reset drops every cache entry, for a project switch.
func (l *ReplyLoader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string]*replyEntry)
}

func copyComments(in []model.Comment) []model.Comment {
	out := make([]model.Comment, len(in))
	copy(out, in)
	return out
}
