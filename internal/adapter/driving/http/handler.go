package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/threadboard/threadboard/internal/application"
	"github.com/threadboard/threadboard/internal/domain/model"
	"github.com/threadboard/threadboard/internal/domain/port/driven"
)

// userHeader optionally overrides the acting user id for a single request, so
// multiple collaborators can share one deployment during development.
const userHeader = "X-Threadboard-User"

const maxPageSize = 100

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	store     driven.CommentStore
	dir       driven.ProjectDirectory
	importSvc *application.ImportService
	user      model.User
	pageSize  int
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. dir and
// importSvc may be nil; the mention catalog and sync endpoints then degrade
// gracefully.
func NewHandler(
	store driven.CommentStore,
	dir driven.ProjectDirectory,
	importSvc *application.ImportService,
	user model.User,
	pageSize int,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		store:     store,
		dir:       dir,
		importSvc: importSvc,
		user:      user,
		pageSize:  pageSize,
		logger:    logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/projects/{projectID}/threads", h.ListThreads)
	mux.HandleFunc("POST /api/v1/projects/{projectID}/comments", h.CreateComment)
	mux.HandleFunc("GET /api/v1/projects/{projectID}/mentions", h.ListMentions)
	mux.HandleFunc("GET /api/v1/comments/{id}/replies", h.ListReplies)
	mux.HandleFunc("PATCH /api/v1/comments/{id}", h.UpdateComment)
	mux.HandleFunc("DELETE /api/v1/comments/{id}", h.DeleteComment)
	mux.HandleFunc("POST /api/v1/comments/{id}/resolve", h.ToggleResolved)
	mux.HandleFunc("POST /api/v1/comments/{id}/reactions", h.ToggleReaction)
	mux.HandleFunc("POST /api/v1/sync", h.TriggerSync)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// ListThreads returns one page of a project's top-level threads, newest first.
func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectID")
	cursor := r.URL.Query().Get("cursor")

	limit := h.pageSize
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxPageSize {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	page, err := h.store.ListThreads(r.Context(), projectID, cursor, limit)
	if err != nil {
		if errors.Is(err, driven.ErrInvalidCursor) {
			writeError(w, http.StatusBadRequest, "invalid cursor")
			return
		}
		h.logger.Error("failed to list threads", "project", projectID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	idx := h.mentionIndex(r.Context(), projectID)
	actingID := h.actingUserID(r)
	threads := make([]CommentResponse, 0, len(page.Comments))
	for _, c := range page.Comments {
		threads = append(threads, toCommentResponse(c, idx, actingID))
	}

	writeJSON(w, http.StatusOK, ThreadPageResponse{Threads: threads, NextCursor: page.NextCursor})
}

// ListReplies returns the direct replies under a thread root, oldest first.
func (h *Handler) ListReplies(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	replies, err := h.store.ListReplies(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to list replies", "comment", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var idx *application.MentionIndex
	if len(replies) > 0 {
		idx = h.mentionIndex(r.Context(), replies[0].ProjectID)
	}

	actingID := h.actingUserID(r)
	resp := make([]CommentResponse, 0, len(replies))
	for _, c := range replies {
		resp = append(resp, toCommentResponse(c, idx, actingID))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateComment creates a top-level thread, or a reply when parent_id is set.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectID")

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		writeError(w, http.StatusUnprocessableEntity, "content must not be empty")
		return
	}

	created, err := h.store.Create(r.Context(), model.NewComment{
		ProjectID: projectID,
		ParentID:  req.ParentID,
		Author:    h.actingAuthor(r),
		Content:   content,
	})
	if err != nil {
		if errors.Is(err, driven.ErrCommentNotFound) {
			writeError(w, http.StatusNotFound, "parent comment not found")
			return
		}
		h.logger.Error("failed to create comment", "project", projectID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toCommentResponse(created, h.mentionIndex(r.Context(), projectID), h.actingUserID(r)))
}

// UpdateComment replaces a comment's content and marks it edited.
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		writeError(w, http.StatusUnprocessableEntity, "content must not be empty")
		return
	}

	updated, err := h.store.UpdateContent(r.Context(), id, content)
	if err != nil {
		if errors.Is(err, driven.ErrCommentNotFound) {
			writeError(w, http.StatusNotFound, "comment not found")
			return
		}
		h.logger.Error("failed to update comment", "comment", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toCommentResponse(updated, h.mentionIndex(r.Context(), updated.ProjectID), h.actingUserID(r)))
}

// DeleteComment removes a comment. Deleting a thread root removes its replies
// with it.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, driven.ErrCommentNotFound) {
			writeError(w, http.StatusNotFound, "comment not found")
			return
		}
		h.logger.Error("failed to delete comment", "comment", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleResolved flips resolution state on a thread root.
func (h *Handler) ToggleResolved(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	updated, err := h.store.ToggleResolved(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, driven.ErrCommentNotFound):
			writeError(w, http.StatusNotFound, "comment not found")
		case errors.Is(err, driven.ErrNotThreadRoot):
			writeError(w, http.StatusUnprocessableEntity, "only thread roots can be resolved")
		default:
			h.logger.Error("failed to toggle resolution", "comment", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, toCommentResponse(updated, h.mentionIndex(r.Context(), updated.ProjectID), h.actingUserID(r)))
}

// ToggleReaction flips the acting user's membership in an emoji's user set.
func (h *Handler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req ToggleReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Emoji) == "" {
		writeError(w, http.StatusUnprocessableEntity, "emoji must not be empty")
		return
	}

	updated, err := h.store.ToggleReaction(r.Context(), id, req.Emoji, h.actingUserID(r))
	if err != nil {
		if errors.Is(err, driven.ErrCommentNotFound) {
			writeError(w, http.StatusNotFound, "comment not found")
			return
		}
		h.logger.Error("failed to toggle reaction", "comment", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toCommentResponse(updated, h.mentionIndex(r.Context(), updated.ProjectID), h.actingUserID(r)))
}

// ListMentions returns the project's mention catalog in picker order.
func (h *Handler) ListMentions(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectID")

	if h.dir == nil {
		writeJSON(w, http.StatusOK, []MentionItemResponse{})
		return
	}

	idx, err := application.LoadMentionIndex(r.Context(), h.dir, projectID)
	if err != nil {
		h.logger.Error("failed to load mention catalog", "project", projectID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	items := idx.Items()
	resp := make([]MentionItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toMentionItemResponse(item))
	}

	writeJSON(w, http.StatusOK, resp)
}

// TriggerSync runs an immediate issue import cycle, bypassing the interval.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.importSvc == nil {
		writeError(w, http.StatusConflict, "issue sync is not configured")
		return
	}

	if err := h.importSvc.SyncNow(r.Context()); err != nil {
		h.logger.Error("manual sync failed", "error", err)
		writeError(w, http.StatusBadGateway, "sync failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// actingUserID resolves the acting user for a request, honoring the override
// header.
func (h *Handler) actingUserID(r *http.Request) string {
	if id := r.Header.Get(userHeader); id != "" {
		return id
	}
	return h.user.ID
}

// actingAuthor builds the author record for a created comment. An overridden
// user id keeps the id as its display name since no directory lookup is done.
func (h *Handler) actingAuthor(r *http.Request) model.Author {
	if id := r.Header.Get(userHeader); id != "" && id != h.user.ID {
		return model.Author{UserID: id, Name: id}
	}
	return model.Author{UserID: h.user.ID, Name: h.user.Name, AvatarURL: h.user.AvatarURL}
}

// mentionIndex builds the project's catalog for rendering, best effort. A
// directory failure only costs mention spans in content_html.
func (h *Handler) mentionIndex(ctx context.Context, projectID string) *application.MentionIndex {
	if h.dir == nil {
		return nil
	}
	idx, err := application.LoadMentionIndex(ctx, h.dir, projectID)
	if err != nil {
		h.logger.Warn("mention catalog unavailable", "project", projectID, "error", err)
		return nil
	}
	return idx
}
