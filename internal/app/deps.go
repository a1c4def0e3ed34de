package app

import (
	"context"
	"fmt"
	"time"

	"github.com/streamtube/backend/internal/auth"
	"github.com/streamtube/backend/internal/config"
	"github.com/streamtube/backend/internal/db"
	"github.com/streamtube/backend/internal/handlers"
	"github.com/streamtube/backend/internal/media"
	"github.com/streamtube/backend/internal/middleware"
	"github.com/streamtube/backend/internal/repositories"
	"github.com/streamtube/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	signer, err := auth.NewTokenSigner(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	users := repositories.NewPostgresUserRepository(pool)
	sessions := auth.NewManager(signer, users)

	prober := media.NewFFProbe(cfg.FFProbePath, cfg.FFProbeTimeout)
	stager := media.NewStaging(cfg.UploadTempDir)

	var mediaStore handlers.MediaStorage
	if cfg.ObjectStore.Bucket != "" {
		s3Store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, fmt.Errorf("configure object storage: %w", err)
		}
		mediaStore = s3Store
	}

	return handlers.Dependencies{
		Users:         users,
		Channels:      repositories.NewCachingChannelReader(users, cfg.ChannelCacheTTL),
		Sessions:      sessions,
		Auth:          sessions,
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Tweets:        repositories.NewPostgresTweetRepository(pool),
		Likes:         repositories.NewPostgresLikeRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Playlists:     repositories.NewPostgresPlaylistRepository(pool),
		History:       repositories.NewPostgresHistoryRepository(pool),
		Media:         mediaStore,
		Stager:        stager,
		Prober:        prober,
		Limiter:       middleware.NewIPRateLimiter(10, time.Minute, 5, 10*time.Minute),
		NowFunc:       func() time.Time { return time.Now().UTC() },
	}, nil
}
