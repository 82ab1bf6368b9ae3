package application

import (
	"context"
	"sync"

	"github.com/threadboard/threadboard/internal/domain/model"
	"github.com/threadboard/threadboard/internal/domain/port/driven"
)

// scrollThresholdPx is how close to the bottom of the thread list (in pixels)
// the viewport must get before the next page is requested.
const scrollThresholdPx = 280

// ScrollMetrics is a snapshot of the thread-list scroll container's geometry
// as reported by the host renderer.
type ScrollMetrics struct {
	ScrollHeight int
	ScrollTop    int
	ClientHeight int
}

// Remaining is the distance in pixels between the viewport bottom and the end
// of the scrollable content.
func (m ScrollMetrics) Remaining() int {
	return m.ScrollHeight - m.ScrollTop - m.ClientHeight
}

// Paginator manages cursor-based loading of a project's top-level threads.
// A single in-flight guard ensures at most one outstanding page request per
// threshold crossing; repeated scroll events while a fetch is running are
// no-ops. Switching projects resets pagination wholesale, and a page that
// completes after a switch is dropped rather than applied.
type Paginator struct {
	mu        sync.Mutex
	store     driven.CommentStore
	pageSize  int
	projectID string
	status    model.ThreadsStatus
	cursor    string
	threads   []model.Comment
	inFlight  bool
	epoch     int
}

// NewPaginator creates a Paginator over the given store.
func NewPaginator(store driven.CommentStore, pageSize int) *Paginator {
	return &Paginator{
		store:    store,
		pageSize: pageSize,
		status:   model.ThreadsExhausted,
	}
}

// Reset switches to a new project, discarding cached threads, the cursor, and
// the in-flight guard. Any response still in flight for the old project is
// ignored when it lands.
func (p *Paginator) Reset(projectID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.projectID = projectID
	p.status = model.ThreadsLoadingFirstPage
	p.cursor = ""
	p.threads = nil
	p.inFlight = false
	p.epoch++
}

// LoadFirstPage fetches the first page after a Reset.
func (p *Paginator) LoadFirstPage(ctx context.Context) error {
	p.mu.Lock()
	if p.status != model.ThreadsLoadingFirstPage || p.inFlight {
		p.mu.Unlock()
		return nil
	}
	p.inFlight = true
	p.mu.Unlock()

	return p.fetch(ctx, "")
}

// HandleScroll evaluates scroll geometry and triggers a LoadMore when the
// viewport is within the threshold of the list bottom. It reports whether a
// load was actually issued.
func (p *Paginator) HandleScroll(ctx context.Context, m ScrollMetrics) (bool, error) {
	if m.Remaining() > scrollThresholdPx {
		return false, nil
	}
	return p.LoadMore(ctx)
}

// LoadMore requests the next page if one exists and no fetch is in flight.
func (p *Paginator) LoadMore(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.status != model.ThreadsCanLoadMore || p.inFlight {
		p.mu.Unlock()
		return false, nil
	}
	p.inFlight = true
	p.status = model.ThreadsLoadingMore
	cursor := p.cursor
	p.mu.Unlock()

	return true, p.fetch(ctx, cursor)
}

// fetch performs the store read and applies the page unless the project
// switched while the request was outstanding. The caller must have set the
// in-flight guard.
func (p *Paginator) fetch(ctx context.Context, cursor string) error {
	p.mu.Lock()
	projectID, limit, epoch := p.projectID, p.pageSize, p.epoch
	p.mu.Unlock()

	page, err := p.store.ListThreads(ctx, projectID, cursor, limit)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.epoch != epoch {
		// Stale response from before a project switch.
		return nil
	}

	p.inFlight = false
	if err != nil {
		// Keep whatever is cached; allow a retry on the next crossing.
		p.status = model.ThreadsCanLoadMore
		return err
	}

	p.threads = append(p.threads, page.Comments...)
	p.cursor = page.NextCursor
	if page.NextCursor == "" {
		p.status = model.ThreadsExhausted
	} else {
		p.status = model.ThreadsCanLoadMore
	}

	return nil
}

// Status returns the current pagination status.
func (p *Paginator) Status() model.ThreadsStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Threads returns a copy of the cached top-level thread roots in display order.
func (p *Paginator) Threads() []model.Comment {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]model.Comment, len(p.threads))
	copy(out, p.threads)
	return out
}

// Thread returns the cached root with the given id, if present.
func (p *Paginator) Thread(id string) (model.Comment, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.threads {
		if c.ID == id {
			return c, true
		}
	}
	return model.Comment{}, false
}

// PrependThread places a freshly created root at the top of the cached list.
func (p *Paginator) PrependThread(c model.Comment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.threads = append([]model.Comment{c}, p.threads...)
}

// ReplaceThread swaps the cached root with the same id for the given comment,
// preserving the cached reply count when the replacement reports none.
func (p *Paginator) ReplaceThread(c model.Comment) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.threads {
		if p.threads[i].ID == c.ID {
			if c.ReplyCount == 0 {
				c.ReplyCount = p.threads[i].ReplyCount
			}
			p.threads[i] = c
			return
		}
	}
}

// SetReplyCount updates the cached reply count on a root.
func (p *Paginator) SetReplyCount(id string, count int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.threads {
		if p.threads[i].ID == id {
			p.threads[i].ReplyCount = count
			return
		}
	}
}

// RemoveThread drops a deleted root from the cached list.
func (p *Paginator) RemoveThread(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.threads {
		if p.threads[i].ID == id {
			p.threads = append(p.threads[:i], p.threads[i+1:]...)
			return
		}
	}
}
