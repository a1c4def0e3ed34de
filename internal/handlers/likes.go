package handlers

import (
	"net/http"

	"github.com/streamtube/backend/internal/logging"
	"github.com/streamtube/backend/internal/models"
)

// LikeHandler implements the like toggles and their read models.
type LikeHandler struct {
	Likes LikeStore
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeVideo, r.PathValue("videoId"), "video not found")
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeComment, r.PathValue("commentId"), "comment not found")
}

// ToggleTweet handles POST /api/v1/likes/toggle/t/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTweet, r.PathValue("tweetId"), "tweet not found")
}

// toggle flips the caller's like on the target and reports the resulting
// state plus the fresh count. The flip itself is a single atomic statement
// in the store, so concurrent toggles never double-insert.
func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, kind models.LikeKind, targetID, notFoundMsg string) {
	ctx := r.Context()

	userID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	liked, err := h.Likes.Toggle(ctx, userID, kind, targetID)
	if err != nil {
		respondRepoError(ctx, w, err, notFoundMsg, "")
		return
	}

	count, err := h.Likes.CountForTarget(ctx, kind, targetID)
	if err != nil {
		logging.FromContext(ctx).Error("count likes", "error", err, "kind", string(kind), "targetId", targetID)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		return
	}

	message := "unliked"
	if liked {
		message = "liked"
	}
	respondData(ctx, w, http.StatusOK, toggleLikeResponse{Liked: liked, Likes: count}, message)
}

// LikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	videos, err := h.Likes.ListLikedVideos(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("list liked videos", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondData(ctx, w, http.StatusOK, videos, "liked videos fetched successfully")
}

type toggleLikeResponse struct {
	Liked bool  `json:"liked"`
	Likes int64 `json:"likes"`
}
