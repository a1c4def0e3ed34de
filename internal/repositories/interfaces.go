package repositories

import (
	"context"

	"github.com/streamtube/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, login string) (models.User, error)
	UpdateAccount(ctx context.Context, userID, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID, avatarURL string) (models.User, error)
	UpdateCoverImage(ctx context.Context, userID, coverImageURL string) (models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	SetRefreshToken(ctx context.Context, userID, token string) error
	RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string) error
	ClearRefreshToken(ctx context.Context, userID string) error
}

// ChannelReader builds the aggregated channel profile view.
type ChannelReader interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (models.ChannelProfile, error)
}

// VideoRepository defines persistence for videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListPublished(ctx context.Context, limit, offset int) ([]models.Video, error)
	Update(ctx context.Context, video models.Video, ownerID string) (models.Video, error)
	Delete(ctx context.Context, id, ownerID string) error
	TogglePublish(ctx context.Context, id, ownerID string) (models.Video, error)
}

// CommentRepository defines persistence for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	ListForVideo(ctx context.Context, videoID string) ([]models.CommentWithOwner, error)
	Update(ctx context.Context, id, ownerID, content string) (models.Comment, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// TweetRepository defines persistence for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) error
	ListForUser(ctx context.Context, userID string) ([]models.Tweet, error)
	Update(ctx context.Context, id, ownerID, content string) (models.Tweet, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// LikeRepository defines the toggle contract and the liked-videos read model.
type LikeRepository interface {
	Toggle(ctx context.Context, userID string, kind models.LikeKind, targetID string) (liked bool, err error)
	CountForTarget(ctx context.Context, kind models.LikeKind, targetID string) (int64, error)
	ListLikedVideos(ctx context.Context, userID string) ([]models.Video, error)
}

// SubscriptionRepository defines the toggle contract and subscription listings.
type SubscriptionRepository interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (subscribed bool, err error)
	ListSubscribers(ctx context.Context, channelID string) ([]models.OwnerSummary, error)
	ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.OwnerSummary, error)
}

// PlaylistRepository defines persistence for playlists and their entries.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.PlaylistWithVideos, error)
	ListForUser(ctx context.Context, userID string) ([]models.PlaylistWithVideos, error)
	Update(ctx context.Context, id, ownerID, title, description string) (models.Playlist, error)
	Delete(ctx context.Context, id, ownerID string) error
	AddVideo(ctx context.Context, playlistID, ownerID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, ownerID, videoID string) error
}

// HistoryRepository records watched videos and serves the history read model.
type HistoryRepository interface {
	Record(ctx context.Context, userID, videoID string) error
	ListForUser(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error)
}
