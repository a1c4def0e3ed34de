package handlers

import (
	"net/http"
	"time"

	"github.com/streamtube/backend/internal/middleware"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	users := UserHandler{
		Users:    deps.Users,
		Channels: deps.Channels,
		Sessions: deps.Sessions,
		History:  deps.History,
		Media:    deps.Media,
		Stager:   deps.Stager,
		Limiter:  deps.Limiter,
		NowFunc:  deps.NowFunc,
	}
	videos := VideoHandler{
		Videos:  deps.Videos,
		History: deps.History,
		Media:   deps.Media,
		Stager:  deps.Stager,
		Prober:  deps.Prober,
		NowFunc: deps.NowFunc,
	}
	comments := CommentHandler{Comments: deps.Comments, NowFunc: deps.NowFunc}
	tweets := TweetHandler{Tweets: deps.Tweets, NowFunc: deps.NowFunc}
	likes := LikeHandler{Likes: deps.Likes}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions}
	playlists := PlaylistHandler{Playlists: deps.Playlists, NowFunc: deps.NowFunc}

	reject := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(r.Context(), w, http.StatusUnauthorized, "authentication required")
	})
	authed := func(next http.HandlerFunc) http.Handler {
		return middleware.RequireAuth(deps.Auth, reject)(next)
	}

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/users/register", users.Register)
	mux.HandleFunc("POST /api/v1/users/login", users.Login)
	mux.HandleFunc("POST /api/v1/users/refresh-token", users.RefreshToken)
	mux.Handle("POST /api/v1/users/logout", authed(users.Logout))
	mux.Handle("POST /api/v1/users/change-password", authed(users.ChangePassword))
	mux.Handle("GET /api/v1/users/current", authed(users.Current))
	mux.Handle("PATCH /api/v1/users/update-account", authed(users.UpdateAccount))
	mux.Handle("PATCH /api/v1/users/avatar", authed(users.UpdateAvatar))
	mux.Handle("PATCH /api/v1/users/cover-image", authed(users.UpdateCoverImage))
	mux.Handle("GET /api/v1/users/c/{username}", authed(users.ChannelProfile))
	mux.Handle("GET /api/v1/users/watch-history", authed(users.WatchHistory))

	mux.Handle("GET /api/v1/videos", authed(videos.List))
	mux.Handle("POST /api/v1/videos", authed(videos.Publish))
	mux.Handle("GET /api/v1/videos/{videoId}", authed(videos.Get))
	mux.Handle("PATCH /api/v1/videos/{videoId}", authed(videos.Update))
	mux.Handle("DELETE /api/v1/videos/{videoId}", authed(videos.Delete))
	mux.Handle("PATCH /api/v1/videos/toggle/publish/{videoId}", authed(videos.TogglePublish))

	mux.Handle("GET /api/v1/comments/{videoId}", authed(comments.ListForVideo))
	mux.Handle("POST /api/v1/comments/{videoId}", authed(comments.Create))
	mux.Handle("PATCH /api/v1/comments/c/{commentId}", authed(comments.Update))
	mux.Handle("DELETE /api/v1/comments/c/{commentId}", authed(comments.Delete))

	mux.Handle("POST /api/v1/tweets", authed(tweets.Create))
	mux.Handle("GET /api/v1/tweets/user/{userId}", authed(tweets.ListForUser))
	mux.Handle("PATCH /api/v1/tweets/{tweetId}", authed(tweets.Update))
	mux.Handle("DELETE /api/v1/tweets/{tweetId}", authed(tweets.Delete))

	mux.Handle("POST /api/v1/likes/toggle/v/{videoId}", authed(likes.ToggleVideo))
	mux.Handle("POST /api/v1/likes/toggle/c/{commentId}", authed(likes.ToggleComment))
	mux.Handle("POST /api/v1/likes/toggle/t/{tweetId}", authed(likes.ToggleTweet))
	mux.Handle("GET /api/v1/likes/videos", authed(likes.LikedVideos))

	mux.Handle("POST /api/v1/subscriptions/c/{channelId}", authed(subscriptions.Toggle))
	mux.Handle("GET /api/v1/subscriptions/c/{channelId}", authed(subscriptions.Subscribers))
	mux.Handle("GET /api/v1/subscriptions/u/{subscriberId}", authed(subscriptions.SubscribedChannels))

	mux.Handle("POST /api/v1/playlists", authed(playlists.Create))
	mux.Handle("GET /api/v1/playlists/{playlistId}", authed(playlists.Get))
	mux.Handle("GET /api/v1/playlists/user/{userId}", authed(playlists.ListForUser))
	mux.Handle("PATCH /api/v1/playlists/{playlistId}", authed(playlists.Update))
	mux.Handle("DELETE /api/v1/playlists/{playlistId}", authed(playlists.Delete))
	mux.Handle("PATCH /api/v1/playlists/add/{playlistId}/{videoId}", authed(playlists.AddVideo))
	mux.Handle("PATCH /api/v1/playlists/remove/{playlistId}/{videoId}", authed(playlists.RemoveVideo))
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Channels      ChannelReader
	Sessions      SessionManager
	Auth          middleware.Authenticator
	Videos        VideoStore
	Comments      CommentStore
	Tweets        TweetStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
	Playlists     PlaylistStore
	History       HistoryStore
	Media         MediaStorage
	Stager        FileStager
	Prober        DurationProber
	Limiter       RateLimiter
	NowFunc       func() time.Time
}
