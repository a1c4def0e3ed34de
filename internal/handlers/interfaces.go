package handlers

import (
	"context"
	"io"
	"mime/multipart"

	"github.com/streamtube/backend/internal/models"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByLogin(ctx context.Context, login string) (models.User, error)
	UpdateAccount(ctx context.Context, userID, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID, avatarURL string) (models.User, error)
	UpdateCoverImage(ctx context.Context, userID, coverImageURL string) (models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// ChannelReader serves the aggregated channel profile view.
type ChannelReader interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
}

// SessionManager issues, refreshes, and revokes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, user models.User) (models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, models.User, error)
	Revoke(ctx context.Context, userID string) error
}

// VideoStore captures persistence for videos.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListPublished(ctx context.Context, limit, offset int) ([]models.Video, error)
	Update(ctx context.Context, video models.Video, ownerID string) (models.Video, error)
	Delete(ctx context.Context, id, ownerID string) error
	TogglePublish(ctx context.Context, id, ownerID string) (models.Video, error)
}

// CommentStore captures persistence for comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	ListForVideo(ctx context.Context, videoID string) ([]models.CommentWithOwner, error)
	Update(ctx context.Context, id, ownerID, content string) (models.Comment, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// TweetStore captures persistence for tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	ListForUser(ctx context.Context, userID string) ([]models.Tweet, error)
	Update(ctx context.Context, id, ownerID, content string) (models.Tweet, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// LikeStore captures the like toggle and its read models.
type LikeStore interface {
	Toggle(ctx context.Context, userID string, kind models.LikeKind, targetID string) (bool, error)
	CountForTarget(ctx context.Context, kind models.LikeKind, targetID string) (int64, error)
	ListLikedVideos(ctx context.Context, userID string) ([]models.Video, error)
}

// SubscriptionStore captures the subscription toggle and its listings.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	ListSubscribers(ctx context.Context, channelID string) ([]models.OwnerSummary, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.OwnerSummary, error)
}

// PlaylistStore captures persistence for playlists.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.PlaylistWithVideos, error)
	ListForUser(ctx context.Context, userID string) ([]models.PlaylistWithVideos, error)
	Update(ctx context.Context, id, ownerID, title, description string) (models.Playlist, error)
	Delete(ctx context.Context, id, ownerID string) error
	AddVideo(ctx context.Context, playlistID, ownerID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, ownerID, videoID string) error
}

// HistoryStore records and serves the watch history read model.
type HistoryStore interface {
	Record(ctx context.Context, userID, videoID string) error
	ListForUser(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error)
}

// MediaStorage persists an uploaded asset and returns its durable URL.
type MediaStorage interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

// FileStager writes multipart uploads to local temporary storage before the
// handoff to MediaStorage.
type FileStager interface {
	Stage(file multipart.File, header *multipart.FileHeader) (string, error)
	Discard(path string)
}

// DurationProber derives the duration in seconds of a staged media file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}
