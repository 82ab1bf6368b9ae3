package model

import "time"

// MentionType classifies a mentionable entity.
type MentionType string

const (
	MentionTask MentionType = "task"
	MentionFile MentionType = "file"
	MentionUser MentionType = "user"
)

// MentionItem is a resolvable target for an inline @Label token. The catalog
// is rebuilt from the active project's tasks, files, and members on every use;
// tokens resolve by exact label string, not by stored id.
type MentionItem struct {
	Type      MentionType
	ID        string
	Label     string
	Meta      string
	Completed bool // Tasks only.
}

// FileCategory identifies which file tab a file belongs to. The declaration
// order is the fixed priority order used when resolving file mention clicks.
type FileCategory string

const (
	FileCategoryAssets      FileCategory = "assets"
	FileCategoryContracts   FileCategory = "contracts"
	FileCategoryAttachments FileCategory = "attachments"
)

// FileCategories lists all categories in click-resolution priority order.
var FileCategories = []FileCategory{FileCategoryAssets, FileCategoryContracts, FileCategoryAttachments}

// TaskRef is the host-supplied view of a project task used to build the
// mention catalog.
type TaskRef struct {
	ID        string
	Title     string
	DueDate   time.Time
	Completed bool
}

// FileRef is the host-supplied view of a project file.
type FileRef struct {
	ID       string
	Name     string
	Type     string
	Category FileCategory
}

// MemberRef is the host-supplied view of a workspace member.
type MemberRef struct {
	UserID string
	Name   string
	Role   string
}

// User is the acting user's identity as supplied by the host.
type User struct {
	ID        string
	Name      string
	AvatarURL string
}
