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

// TweetHandler implements short text posts.
type TweetHandler struct {
	Tweets  TweetStore
	NowFunc func() time.Time
}

// Create handles POST /api/v1/tweets.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	var req tweetRequest
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
	tweet := models.Tweet{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Tweets.Create(ctx, tweet); err != nil {
		logging.FromContext(ctx).Error("create tweet", "error", err, "ownerId", ownerID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create tweet")
		return
	}

	respondData(ctx, w, http.StatusCreated, tweet, "tweet created successfully")
}

// ListForUser handles GET /api/v1/tweets/user/{userId}. A user with no
// tweets yields an empty list.
func (h TweetHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := currentUser(ctx, w); !ok {
		return
	}

	tweets, err := h.Tweets.ListForUser(ctx, r.PathValue("userId"))
	if err != nil {
		logging.FromContext(ctx).Error("list tweets", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondData(ctx, w, http.StatusOK, tweets, "tweets fetched successfully")
}

// Update handles PATCH /api/v1/tweets/{tweetId}.
func (h TweetHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	var req tweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	tweet, err := h.Tweets.Update(ctx, r.PathValue("tweetId"), ownerID, content)
	if err != nil {
		respondRepoError(ctx, w, err, "tweet not found", "")
		return
	}

	respondData(ctx, w, http.StatusOK, tweet, "tweet updated successfully")
}

// Delete handles DELETE /api/v1/tweets/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	if err := h.Tweets.Delete(ctx, r.PathValue("tweetId"), ownerID); err != nil {
		respondRepoError(ctx, w, err, "tweet not found", "")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "tweet deleted successfully")
}

type tweetRequest struct {
	Content string `json:"content"`
}

func (h TweetHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
