package model

import "time"

// ThreadsStatus represents the top-level pagination state for a project's
// thread list.
type ThreadsStatus string

const (
	ThreadsLoadingFirstPage ThreadsStatus = "loading_first_page"
	ThreadsCanLoadMore      ThreadsStatus = "can_load_more"
	ThreadsLoadingMore      ThreadsStatus = "loading_more"
	ThreadsExhausted        ThreadsStatus = "exhausted"
)

// ThreadPage is one page of top-level thread roots. NextCursor is an opaque
// token minted by the store; empty means the listing is exhausted.
type ThreadPage struct {
	Comments   []Comment
	NextCursor string
}

// ImportedComment is a discussion entry fetched from an external issue
// tracker, prior to being mirrored into a project's threads.
type ImportedComment struct {
	ExternalID int64
	Author     string
	AvatarURL  string
	Body       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
