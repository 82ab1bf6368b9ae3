package model

import "time"

// Author identifies the user who wrote a comment.
type Author struct {
	UserID    string
	Name      string
	AvatarURL string
}

// Reaction is a named emoji annotation with the ordered list of user ids who
// applied it. An entry with an empty user list is never stored; it is removed
// when the last user un-reacts.
type Reaction struct {
	Emoji string   `json:"emoji"`
	Users []string `json:"users"`
}

// Comment is a single discussion entry. Threads are kept flat: a comment with
// a nil ParentID is a thread root, and replies reference their root through
// ParentID rather than nesting.
type Comment struct {
	ID        string
	ProjectID string
	ParentID  *string // nil = top-level thread root.
	Author    Author
	Content   string
	Timestamp string // Display-formatted creation time; opaque, never re-parsed.
	Edited    bool
	Resolved  bool // Meaningful only on thread roots.
	Reactions []Reaction
	// ReplyCount is the number of direct replies under this root. Zero for replies.
	ReplyCount int

	// CreatedAt orders threads and backs the pagination cursor. Display code
	// uses Timestamp instead.
	CreatedAt time.Time
}

// NewComment carries the fields required to create a comment.
type NewComment struct {
	ProjectID string
	ParentID  *string
	Author    Author
	Content   string
}

// IsRoot reports whether the comment is a top-level thread root.
func (c Comment) IsRoot() bool {
	return c.ParentID == nil
}

// CanEdit reports whether the given user may edit this comment (author only).
func (c Comment) CanEdit(userID string) bool {
	return c.Author.UserID == userID
}

// CanDelete reports whether the given user may delete this comment (author only).
func (c Comment) CanDelete(userID string) bool {
	return c.Author.UserID == userID
}

// CanToggleResolved reports whether the given user may toggle resolution.
// Only thread roots carry resolution state, and only their author may flip it.
func (c Comment) CanToggleResolved(userID string) bool {
	return c.IsRoot() && c.Author.UserID == userID
}

// ToggleReactions flips userID's membership in the named emoji's user set and
// returns the updated list. A new emoji gets appended at the end; an entry
// whose user set empties is removed entirely.
func ToggleReactions(reactions []Reaction, emoji, userID string) []Reaction {
	for i, r := range reactions {
		if r.Emoji != emoji {
			continue
		}

		for j, u := range r.Users {
			if u == userID {
				users := append(r.Users[:j:j], r.Users[j+1:]...)
				if len(users) == 0 {
					return append(reactions[:i:i], reactions[i+1:]...)
				}
				updated := make([]Reaction, len(reactions))
				copy(updated, reactions)
				updated[i].Users = users
				return updated
			}
		}

		updated := make([]Reaction, len(reactions))
		copy(updated, reactions)
		updated[i].Users = append(r.Users[:len(r.Users):len(r.Users)], userID)
		return updated
	}

	return append(reactions[:len(reactions):len(reactions)], Reaction{Emoji: emoji, Users: []string{userID}})
}
