package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamtube/backend/internal/logging"
	"github.com/streamtube/backend/internal/media"
	"github.com/streamtube/backend/internal/models"
)

// VideoHandler implements the video catalogue: listing, publishing,
// metadata updates, deletion, and the publish toggle.
type VideoHandler struct {
	Videos  VideoStore
	History HistoryStore
	Media   MediaStorage
	Stager  FileStager
	Prober  DurationProber
	NowFunc func() time.Time
}

// List handles GET /api/v1/videos. Pagination is page/limit; the store
// clamps the limit.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Videos == nil {
		logging.FromContext(ctx).Error("video store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "video catalogue unavailable")
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 20)
	if page < 1 {
		page = 1
	}

	videos, err := h.Videos.ListPublished(ctx, limit, (page-1)*limit)
	if err != nil {
		logging.FromContext(ctx).Error("list videos", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondData(ctx, w, http.StatusOK, videos, "videos fetched successfully")
}

// Publish handles POST /api/v1/videos. The upload is staged locally,
// probed for its duration, then pushed to the object store before the
// record is written; the response carries the finished video.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	ownerID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	if h.Videos == nil || h.Media == nil || h.Stager == nil || h.Prober == nil {
		logger.Error("video publish dependencies unavailable",
			"hasVideos", h.Videos != nil,
			"hasMedia", h.Media != nil,
			"hasStager", h.Stager != nil,
			"hasProber", h.Prober != nil)
		respondError(ctx, w, http.StatusInternalServerError, "video publishing unavailable")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		logger.Warn("invalid publish payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "expected multipart form data")
		return
	}

	ctx, span := logging.StartSpan(ctx, "video.publish", slog.String("owner_id", ownerID))
	defer span.End()
	logger = logging.FromContext(ctx)

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	videoFile, videoHeader, err := r.FormFile("videoFile")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "videoFile is required")
		return
	}
	defer videoFile.Close()

	stagedPath, err := h.Stager.Stage(videoFile, videoHeader)
	if err != nil {
		logger.Error("stage video upload", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store video")
		return
	}
	defer h.Stager.Discard(stagedPath)

	duration, err := h.Prober.Duration(ctx, stagedPath)
	if err != nil {
		if errors.Is(err, media.ErrProberUnavailable) {
			logger.Error("duration prober unavailable", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "video publishing unavailable")
			return
		}
		logger.Warn("probe video duration", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "uploaded file is not a playable video")
		return
	}

	staged, err := openStaged(stagedPath)
	if err != nil {
		logger.Error("reopen staged video", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store video")
		return
	}
	defer staged.Close()

	videoKey := fmt.Sprintf("videos/%s", filepath.Base(stagedPath))
	videoURL, err := h.Media.Save(ctx, videoKey, videoHeader.Header.Get("Content-Type"), staged)
	if err != nil {
		logger.Error("upload video", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store video")
		return
	}

	thumbnailURL := ""
	if thumbFile, thumbHeader, err := r.FormFile("thumbnail"); err == nil {
		defer thumbFile.Close()
		thumbnailURL, err = stageAndUpload(r, h.Stager, h.Media, thumbFile, thumbHeader, "thumbnails")
		if err != nil {
			logger.Error("upload thumbnail", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
			return
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		respondError(ctx, w, http.StatusBadRequest, "invalid thumbnail upload")
		return
	}

	now := h.now()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		VideoURL:     videoURL,
		ThumbnailURL: thumbnailURL,
		Title:        title,
		Description:  description,
		Duration:     duration,
		Published:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("create video", "error", err, "ownerId", ownerID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to publish video")
		return
	}

	logger.Info("video published", "videoId", video.ID, "ownerId", ownerID, "duration", duration)
	respondData(ctx, w, http.StatusCreated, video, "video published successfully")
}

// Get handles GET /api/v1/videos/{videoId}. Fetching a video records it in
// the viewer's watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewerID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	videoID := r.PathValue("videoId")
	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondRepoError(ctx, w, err, "video not found", "")
		return
	}

	if h.History != nil {
		if err := h.History.Record(ctx, viewerID, videoID); err != nil {
			// The fetched video is still served; only the history row is lost.
			logging.FromContext(ctx).Warn("record watch history", "error", err, "videoId", videoID)
		}
	}

	respondData(ctx, w, http.StatusOK, video, "video fetched successfully")
}

// Update handles PATCH /api/v1/videos/{videoId}. Title and description are
// form fields; a thumbnail file replaces the stored one when present and
// leaves it untouched when omitted.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	ownerID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "expected multipart form data")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	thumbnailURL := ""
	if thumbFile, thumbHeader, err := r.FormFile("thumbnail"); err == nil {
		defer thumbFile.Close()
		if h.Stager == nil || h.Media == nil {
			logger.Error("thumbnail upload dependencies unavailable",
				"hasStager", h.Stager != nil, "hasMedia", h.Media != nil)
			respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
			return
		}
		thumbnailURL, err = stageAndUpload(r, h.Stager, h.Media, thumbFile, thumbHeader, "thumbnails")
		if err != nil {
			logger.Error("upload thumbnail", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
			return
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		respondError(ctx, w, http.StatusBadRequest, "invalid thumbnail upload")
		return
	}

	video, err := h.Videos.Update(ctx, models.Video{
		ID:           r.PathValue("videoId"),
		Title:        title,
		Description:  strings.TrimSpace(r.FormValue("description")),
		ThumbnailURL: thumbnailURL,
	}, ownerID)
	if err != nil {
		respondRepoError(ctx, w, err, "video not found", "")
		return
	}

	respondData(ctx, w, http.StatusOK, video, "video updated successfully")
}

// Delete handles DELETE /api/v1/videos/{videoId}. Comments, likes,
// playlist entries, and history rows referencing the video go with it.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	if err := h.Videos.Delete(ctx, r.PathValue("videoId"), ownerID); err != nil {
		respondRepoError(ctx, w, err, "video not found", "")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "video deleted successfully")
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, ok := currentUser(ctx, w)
	if !ok {
		return
	}

	video, err := h.Videos.TogglePublish(ctx, r.PathValue("videoId"), ownerID)
	if err != nil {
		respondRepoError(ctx, w, err, "video not found", "")
		return
	}

	respondData(ctx, w, http.StatusOK, video, "publish state toggled successfully")
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
