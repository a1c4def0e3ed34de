package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamtube/backend/internal/logging"
	"github.com/streamtube/backend/internal/models"
)

// CommentHandler implements comments attached to videos.
type CommentHandler struct {
	Comments CommentStore
	NowFunc  func() time.Time
}

// ListForVideo handles GET /api/v1/comments/{videoId}. A video with no
// comments yields an empty list, not an error.
func (h CommentHandler) ListForVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := currentUser(ctx, w); !ok {
		return
	}

	comments, err := h.Comments.ListForVideo(ctx, r.PathValue("videoId"))
	if err != nil {
		logging.FromContext(ctx).Error("list comments", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondData(ctx, w, http.StatusOK, comments, "comments fetched successfully")
}

// Create handles POST /api/v1/comments/{videoId}.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   r.PathValue("videoId"),
		OwnerID:   ownerID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		respondRepoError(ctx, w, err, "video not found", "")
		return
	}

	respondData(ctx, w, http.StatusCreated, comment, "comment added successfully")
}

// Update handles PATCH /api/v1/comments/c/{commentId}. Only the owner's
// comments are reachable.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	comment, err := h.Comments.Update(ctx, r.PathValue("commentId"), ownerID, content)
	if err != nil {
		respondRepoError(ctx, w, err, "comment not found", "")
		return
	}

	respondData(ctx, w, http.StatusOK, comment, "comment updated successfully")
}

// Delete handles DELETE /api/v1/comments/c/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	if err := h.Comments.Delete(ctx, r.PathValue("commentId"), ownerID); err != nil {
		respondRepoError(ctx, w, err, "comment not found", "")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "comment deleted successfully")
}

type commentRequest struct {
	Content string `json:"content"`
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
