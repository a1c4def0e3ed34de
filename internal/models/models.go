package models

import "time"

// User represents an account on the platform. Password always holds the
// bcrypt hash, never the plaintext. RefreshToken is the single active
// refresh token for the account; empty means no session can be refreshed.
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	AvatarURL     string
	CoverImageURL string
	Password      string
	RefreshToken  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PublicUser is the projection of a user safe to return to clients.
type PublicUser struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatarUrl"`
	CoverImageURL string    `json:"coverImageUrl"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Public strips credential and session fields from a user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
	}
}

// OwnerSummary is the minimal owner projection embedded in read models.
type OwnerSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

// Video is an uploaded video owned by a user.
type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	VideoURL     string    `json:"videoUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Duration     float64   `json:"duration"`
	Published    bool      `json:"published"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Comment is a user comment attached to a video.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CommentWithOwner is the flattened comment row returned by the video
// comments read model.
type CommentWithOwner struct {
	Comment
	Owner OwnerSummary `json:"owner"`
}

// Tweet is a short text post owned by a user.
type Tweet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LikeKind identifies which entity a like targets.
type LikeKind string

const (
	LikeVideo   LikeKind = "video"
	LikeComment LikeKind = "comment"
	LikeTweet   LikeKind = "tweet"
)

// Subscription links a subscriber to a channel (another user).
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriberId"`
	ChannelID    string    `json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Playlist is an ordered, duplicate-free collection of videos.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistVideo is the summary projection of a playlist entry.
type PlaylistVideo struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	ThumbnailURL string  `json:"thumbnailUrl"`
	Duration     float64 `json:"duration"`
	Position     int     `json:"position"`
}

// PlaylistWithVideos resolves a playlist's entries into video summaries.
type PlaylistWithVideos struct {
	Playlist
	Videos []PlaylistVideo `json:"videos"`
}

// ChannelProfile is the aggregated public view of a user's channel.
type ChannelProfile struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	FullName          string    `json:"fullName"`
	AvatarURL         string    `json:"avatarUrl"`
	CoverImageURL     string    `json:"coverImageUrl"`
	SubscribersCount  int64     `json:"subscribersCount"`
	SubscribedToCount int64     `json:"subscribedToCount"`
	IsSubscribed      bool      `json:"isSubscribed"`
	CreatedAt         time.Time `json:"createdAt"`
}

// WatchHistoryEntry is one watched video with its owner projection,
// ordered most-recent-first by the repository.
type WatchHistoryEntry struct {
	Video     Video        `json:"video"`
	Owner     OwnerSummary `json:"owner"`
	WatchedAt time.Time    `json:"watchedAt"`
}

// TokenPair groups the signed credentials issued to authenticated users.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
