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

// PlaylistHandler implements user playlists and their membership edits.
type PlaylistHandler struct {
	Playlists PlaylistStore
	NowFunc   func() time.Time
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		logging.FromContext(ctx).Error("create playlist", "error", err, "ownerId", ownerID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create playlist")
		return
	}

	respondData(ctx, w, http.StatusCreated, playlist, "playlist created successfully")
}

// Get handles GET /api/v1/playlists/{playlistId}. The response resolves the
// playlist's entries into video summaries in playlist order.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := currentUser(ctx, w); !ok {
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, r.PathValue("playlistId"))
	if err != nil {
		respondRepoError(ctx, w, err, "playlist not found", "")
		return
	}

	respondData(ctx, w, http.StatusOK, playlist, "playlist fetched successfully")
}

// ListForUser handles GET /api/v1/playlists/user/{userId}.
func (h PlaylistHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := currentUser(ctx, w); !ok {
		return
	}

	playlists, err := h.Playlists.ListForUser(ctx, r.PathValue("userId"))
	if err != nil {
		logging.FromContext(ctx).Error("list playlists", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondData(ctx, w, http.StatusOK, playlists, "playlists fetched successfully")
}

// Update handles PATCH /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	playlist, err := h.Playlists.Update(ctx, r.PathValue("playlistId"), ownerID, title, strings.TrimSpace(req.Description))
	if err != nil {
		respondRepoError(ctx, w, err, "playlist not found", "")
		return
	}

	respondData(ctx, w, http.StatusOK, playlist, "playlist updated successfully")
}

// Delete handles DELETE /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	if err := h.Playlists.Delete(ctx, r.PathValue("playlistId"), ownerID); err != nil {
		respondRepoError(ctx, w, err, "playlist not found", "")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "playlist deleted successfully")
}

// AddVideo handles PATCH /api/v1/playlists/add/{playlistId}/{videoId}. The
// entry lands at the end of the playlist; adding a video that is already
// present is a conflict.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	err := h.Playlists.AddVideo(ctx, r.PathValue("playlistId"), ownerID, r.PathValue("videoId"))
	if err != nil {
		respondRepoError(ctx, w, err, "playlist or video not found", "video already in playlist")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "video added to playlist")
}

// RemoveVideo handles PATCH /api/v1/playlists/remove/{playlistId}/{videoId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	err := h.Playlists.RemoveVideo(ctx, r.PathValue("playlistId"), ownerID, r.PathValue("videoId"))
	if err != nil {
		respondRepoError(ctx, w, err, "playlist entry not found", "")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "video removed from playlist")
}

type playlistRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
