package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/threadboard/threadboard/internal/application"
	"github.com/threadboard/threadboard/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// AuthorResponse is the JSON representation of a comment author.
type AuthorResponse struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ReactionResponse is the JSON representation of one emoji reaction entry.
type ReactionResponse struct {
	Emoji string   `json:"emoji"`
	Users []string `json:"users"`
}

// CommentResponse is the JSON representation of a comment. ContentHTML is the
// sanitized rendering of Content with mention tokens wrapped in annotated
// spans; clients that render their own markdown can ignore it. The Can*
// flags are evaluated against the acting user so clients can show or hide
// the matching controls without duplicating the rules.
type CommentResponse struct {
	ID          string             `json:"id"`
	ProjectID   string             `json:"project_id"`
	ParentID    *string            `json:"parent_id,omitempty"`
	Author      AuthorResponse     `json:"author"`
	Content     string             `json:"content"`
	ContentHTML string             `json:"content_html"`
	Timestamp   string             `json:"timestamp"`
	Edited      bool               `json:"edited"`
	Resolved    bool               `json:"resolved"`
	Reactions   []ReactionResponse `json:"reactions"`
	ReplyCount  int                `json:"reply_count"`
	CreatedAt   string             `json:"created_at"`
	CanEdit     bool               `json:"can_edit"`
	CanDelete   bool               `json:"can_delete"`
	CanResolve  bool               `json:"can_resolve"`
}

// ThreadPageResponse is one page of top-level threads plus the cursor for the
// next page. An empty cursor means the listing is exhausted.
type ThreadPageResponse struct {
	Threads    []CommentResponse `json:"threads"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// MentionItemResponse is one entry of the project's mention catalog.
type MentionItemResponse struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Label     string `json:"label"`
	Meta      string `json:"meta,omitempty"`
	Completed bool   `json:"completed,omitempty"`
}

// CreateCommentRequest is the JSON body for the create comment endpoint.
// ParentID, when set, makes the comment a reply under that thread.
type CreateCommentRequest struct {
	ParentID *string `json:"parent_id,omitempty"`
	Content  string  `json:"content"`
}

// UpdateCommentRequest is the JSON body for the edit comment endpoint.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// ToggleReactionRequest is the JSON body for the reaction endpoint.
type ToggleReactionRequest struct {
	Emoji string `json:"emoji"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toCommentResponse converts a domain Comment to its JSON representation,
// rendering content against the project's mention catalog. idx may be nil
// when no catalog is available; content then renders without mention spans.
func toCommentResponse(c model.Comment, idx *application.MentionIndex, actingUserID string) CommentResponse {
	reactions := make([]ReactionResponse, 0, len(c.Reactions))
	for _, r := range c.Reactions {
		users := r.Users
		if users == nil {
			users = []string{}
		}
		reactions = append(reactions, ReactionResponse{Emoji: r.Emoji, Users: users})
	}

	return CommentResponse{
		ID:          c.ID,
		ProjectID:   c.ProjectID,
		ParentID:    c.ParentID,
		Author:      AuthorResponse{UserID: c.Author.UserID, Name: c.Author.Name, AvatarURL: c.Author.AvatarURL},
		Content:     c.Content,
		ContentHTML: application.RenderCommentHTML(c.Content, idx),
		Timestamp:   c.Timestamp,
		Edited:      c.Edited,
		Resolved:    c.Resolved,
		Reactions:   reactions,
		ReplyCount:  c.ReplyCount,
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339),
		CanEdit:     c.CanEdit(actingUserID),
		CanDelete:   c.CanDelete(actingUserID),
		CanResolve:  c.CanToggleResolved(actingUserID),
	}
}

// toMentionItemResponse converts a catalog entry to its JSON representation.
func toMentionItemResponse(item model.MentionItem) MentionItemResponse {
	return MentionItemResponse{
		Type:      string(item.Type),
		ID:        item.ID,
		Label:     item.Label,
		Meta:      item.Meta,
		Completed: item.Completed,
	}
}
