package application

import (
	"context"
	"strings"
	"unicode"

	"github.com/threadboard/threadboard/internal/domain/model"
	"github.com/threadboard/threadboard/internal/domain/port/driven"
)

// taskDueFormat renders a task's due date into its catalog meta line.
const taskDueFormat = "Jan 2, 2006"

// MentionIndex is the flat catalog of mentionable entities for one project,
// rebuilt from the host inputs on every use. Tokens resolve by exact label
// string; a token whose label no longer exists in the catalog degrades to
// plain text.
type MentionIndex struct {
	items []model.MentionItem
	tasks []model.TaskRef
	files []model.FileRef
}

// NewMentionIndex builds the catalog: every task, each distinct file across
// all categories, and every workspace member, in that order.
func NewMentionIndex(tasks []model.TaskRef, files []model.FileRef, members []model.MemberRef) *MentionIndex {
	idx := &MentionIndex{tasks: tasks, files: files}

	for _, t := range tasks {
		meta := ""
		switch {
		case t.Completed:
			meta = "Done"
		case !t.DueDate.IsZero():
			meta = t.DueDate.Format(taskDueFormat)
		}
		idx.items = append(idx.items, model.MentionItem{
			Type:      model.MentionTask,
			ID:        t.ID,
			Label:     t.Title,
			Meta:      meta,
			Completed: t.Completed,
		})
	}

	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		idx.items = append(idx.items, model.MentionItem{
			Type:  model.MentionFile,
			ID:    f.ID,
			Label: f.Name,
			Meta:  f.Type,
		})
	}

	for _, m := range members {
		idx.items = append(idx.items, model.MentionItem{
			Type:  model.MentionUser,
			ID:    m.UserID,
			Label: m.Name,
			Meta:  capitalize(m.Role),
		})
	}

	return idx
}

// LoadMentionIndex builds the catalog from the ProjectDirectory port.
func LoadMentionIndex(ctx context.Context, dir driven.ProjectDirectory, projectID string) (*MentionIndex, error) {
	tasks, err := dir.Tasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	files, err := dir.Files(ctx, projectID)
	if err != nil {
		return nil, err
	}
	members, err := dir.Members(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return NewMentionIndex(tasks, files, members), nil
}

// Items returns the catalog in picker order.
func (x *MentionIndex) Items() []model.MentionItem {
	out := make([]model.MentionItem, len(x.items))
	copy(out, x.items)
	return out
}

// Segment is one run of comment content: either plain text or a resolved
// mention token (Text then includes the leading @).
type Segment struct {
	Text    string
	Mention *model.MentionItem
}

// Tokenize scans content for @ followed by the longest matching catalog
// label. Unmatched @ runs stay plain text.
func (x *MentionIndex) Tokenize(content string) []Segment {
	var segments []Segment
	var text strings.Builder

	i := 0
	for i < len(content) {
		if content[i] != '@' {
			text.WriteByte(content[i])
			i++
			continue
		}

		item, ok := x.longestLabelMatch(content[i+1:])
		if !ok {
			text.WriteByte(content[i])
			i++
			continue
		}

		if text.Len() > 0 {
			segments = append(segments, Segment{Text: text.String()})
			text.Reset()
		}

		m := item
		segments = append(segments, Segment{Text: "@" + item.Label, Mention: &m})
		i += 1 + len(item.Label)
	}

	if text.Len() > 0 {
		segments = append(segments, Segment{Text: text.String()})
	}

	return segments
}

// longestLabelMatch finds the catalog item whose label is the longest exact
// prefix of rest. Catalog order breaks length ties.
func (x *MentionIndex) longestLabelMatch(rest string) (model.MentionItem, bool) {
	var best model.MentionItem
	found := false

	for _, item := range x.items {
		if item.Label == "" || !strings.HasPrefix(rest, item.Label) {
			continue
		}
		if !found || len(item.Label) > len(best.Label) {
			best = item
			found = true
		}
	}

	return best, found
}

// MentionTarget is the navigation outcome of a mention click.
type MentionTarget struct {
	Type model.MentionType
	// TaskID is set for task mentions; the host switches to the project's
	// detail view and flags this task.
	TaskID string
	// File is set for file mentions; the host activates File.Category's tab
	// and focuses the row.
	File model.FileRef
	// UserID is set for user mentions.
	UserID string
}

// ResolveClick resolves a clicked @Label token back to a navigable target.
// Matching is by exact label. File mentions search each category in the fixed
// priority order (assets, then contracts, then attachments) and take the
// first hit. A label no longer in the catalog resolves to nothing.
func (x *MentionIndex) ResolveClick(typ model.MentionType, label string) (MentionTarget, bool) {
	switch typ {
	case model.MentionTask:
		for _, t := range x.tasks {
			if t.Title == label {
				return MentionTarget{Type: model.MentionTask, TaskID: t.ID}, true
			}
		}

	case model.MentionFile:
		for _, category := range model.FileCategories {
			for _, f := range x.files {
				if f.Category == category && f.Name == label {
					return MentionTarget{Type: model.MentionFile, File: f}, true
				}
			}
		}

	case model.MentionUser:
		for _, item := range x.items {
			if item.Type == model.MentionUser && item.Label == label {
				return MentionTarget{Type: model.MentionUser, UserID: item.ID}, true
			}
		}
	}

	return MentionTarget{}, false
}

// capitalize upper-cases the first rune, for member role display.
func capitalize(s string) string {
	if s == "" {
		return ""
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
