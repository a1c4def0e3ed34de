package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamtube/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateFindAndRotateToken(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	alice := createTestUser(t, repo, "alice")

	dup := alice
	dup.ID = uuid.NewString()
	dup.Email = "other@example.com"
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict creating duplicate username, got %v", err)
	}

	byUsername, err := repo.FindByLogin(ctx, alice.Username)
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	byEmail, err := repo.FindByLogin(ctx, alice.Email)
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byUsername.ID != alice.ID || byEmail.ID != alice.ID {
		t.Fatalf("login lookups disagree: %q vs %q", byUsername.ID, byEmail.ID)
	}

	if err := repo.SetRefreshToken(ctx, alice.ID, "token-one"); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}

	if err := repo.RotateRefreshToken(ctx, alice.ID, "wrong-token", "token-two"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound rotating with stale token, got %v", err)
	}
	if err := repo.RotateRefreshToken(ctx, alice.ID, "token-one", "token-two"); err != nil {
		t.Fatalf("rotate refresh token: %v", err)
	}
	if err := repo.RotateRefreshToken(ctx, alice.ID, "token-one", "token-three"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound replaying a rotated token, got %v", err)
	}

	fetched, err := repo.FindByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if fetched.RefreshToken != "token-two" {
		t.Fatalf("expected rotated token to persist, got %q", fetched.RefreshToken)
	}
}

func TestPostgresLikeRepository_ToggleIsInvolution(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	alice := createTestUser(t, userRepo, "alice")
	bob := createTestUser(t, userRepo, "bob")
	video := createTestVideo(t, alice.ID, "First upload")

	repo := NewPostgresLikeRepository(testPool)

	liked, err := repo.Toggle(ctx, alice.ID, models.LikeVideo, video.ID)
	if err != nil {
		t.Fatalf("toggle like on: %v", err)
	}
	if !liked {
		t.Fatal("expected first toggle to like")
	}

	liked, err = repo.Toggle(ctx, bob.ID, models.LikeVideo, video.ID)
	if err != nil {
		t.Fatalf("toggle like from second user: %v", err)
	}
	if !liked {
		t.Fatal("expected second user's toggle to like")
	}

	count, err := repo.CountForTarget(ctx, models.LikeVideo, video.ID)
	if err != nil {
		t.Fatalf("count likes: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 likes, got %d", count)
	}

	liked, err = repo.Toggle(ctx, alice.ID, models.LikeVideo, video.ID)
	if err != nil {
		t.Fatalf("toggle like off: %v", err)
	}
	if liked {
		t.Fatal("expected second toggle to unlike")
	}

	count, err = repo.CountForTarget(ctx, models.LikeVideo, video.ID)
	if err != nil {
		t.Fatalf("count likes after unlike: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 like after unlike, got %d", count)
	}

	if _, err := repo.Toggle(ctx, alice.ID, models.LikeVideo, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound liking a missing video, got %v", err)
	}
}

func TestPostgresVideoRepository_UpdatePreservesThumbnail(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	alice := createTestUser(t, userRepo, "alice")

	repo := NewPostgresVideoRepository(testPool)
	video := createTestVideo(t, alice.ID, "Original")

	withThumb := video
	withThumb.Title = "Original"
	withThumb.ThumbnailURL = "https://cdn.example.com/thumb.png"
	if _, err := repo.Update(ctx, withThumb, alice.ID); err != nil {
		t.Fatalf("set thumbnail: %v", err)
	}

	metadataOnly := video
	metadataOnly.Title = "Renamed"
	metadataOnly.ThumbnailURL = ""
	updated, err := repo.Update(ctx, metadataOnly, alice.ID)
	if err != nil {
		t.Fatalf("metadata-only update: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Fatalf("expected renamed video, got %q", updated.Title)
	}
	if updated.ThumbnailURL != "https://cdn.example.com/thumb.png" {
		t.Fatalf("metadata-only update must keep the thumbnail, got %q", updated.ThumbnailURL)
	}

	replaced := video
	replaced.Title = "Renamed"
	replaced.ThumbnailURL = "https://cdn.example.com/fresh.png"
	updated, err = repo.Update(ctx, replaced, alice.ID)
	if err != nil {
		t.Fatalf("thumbnail update: %v", err)
	}
	if updated.ThumbnailURL != "https://cdn.example.com/fresh.png" {
		t.Fatalf("expected replaced thumbnail, got %q", updated.ThumbnailURL)
	}
}

func TestPostgresSubscriptionRepository_ToggleAndChannelProfile(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	alice := createTestUser(t, userRepo, "alice")
	bob := createTestUser(t, userRepo, "bob")
	carol := createTestUser(t, userRepo, "carol")

	repo := NewPostgresSubscriptionRepository(testPool)

	subscribed, err := repo.Toggle(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("toggle subscription on: %v", err)
	}
	if !subscribed {
		t.Fatal("expected first toggle to subscribe")
	}

	if _, err := repo.Toggle(ctx, alice.ID, alice.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for self-subscription, got %v", err)
	}

	profile, err := userRepo.ChannelProfile(ctx, bob.Username, alice.ID)
	if err != nil {
		t.Fatalf("channel profile as subscriber: %v", err)
	}
	if !profile.IsSubscribed || profile.SubscribersCount != 1 {
		t.Fatalf("expected subscribed profile with 1 subscriber, got %+v", profile)
	}

	profile, err = userRepo.ChannelProfile(ctx, bob.Username, carol.ID)
	if err != nil {
		t.Fatalf("channel profile as stranger: %v", err)
	}
	if profile.IsSubscribed {
		t.Fatal("expected isSubscribed false for a non-subscriber")
	}

	if _, err := userRepo.ChannelProfile(ctx, "nobody", alice.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown username, got %v", err)
	}

	subscribed, err = repo.Toggle(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("toggle subscription off: %v", err)
	}
	if subscribed {
		t.Fatal("expected second toggle to unsubscribe")
	}

	profile, err = userRepo.ChannelProfile(ctx, bob.Username, alice.ID)
	if err != nil {
		t.Fatalf("channel profile after unsubscribe: %v", err)
	}
	if profile.IsSubscribed || profile.SubscribersCount != 0 {
		t.Fatalf("expected unsubscribed profile with 0 subscribers, got %+v", profile)
	}
}

func TestPostgresPlaylistRepository_AddVideoAssignsNextPosition(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	alice := createTestUser(t, userRepo, "alice")
	bob := createTestUser(t, userRepo, "bob")
	first := createTestVideo(t, alice.ID, "First")
	second := createTestVideo(t, alice.ID, "Second")
	third := createTestVideo(t, alice.ID, "Third")

	repo := NewPostgresPlaylistRepository(testPool)

	playlist := models.Playlist{
		ID:        uuid.NewString(),
		OwnerID:   alice.ID,
		Title:     "Favorites",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, playlist); err != nil {
		t.Fatalf("create playlist: %v", err)
	}

	if err := repo.AddVideo(ctx, playlist.ID, alice.ID, first.ID); err != nil {
		t.Fatalf("add first video: %v", err)
	}
	if err := repo.AddVideo(ctx, playlist.ID, alice.ID, second.ID); err != nil {
		t.Fatalf("add second video: %v", err)
	}

	if err := repo.AddVideo(ctx, playlist.ID, alice.ID, first.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict adding a duplicate video, got %v", err)
	}
	if err := repo.AddVideo(ctx, playlist.ID, bob.ID, third.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a non-owner append, got %v", err)
	}

	loaded, err := repo.FindByID(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("load playlist: %v", err)
	}
	if len(loaded.Videos) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(loaded.Videos))
	}
	if loaded.Videos[0].Position != 0 || loaded.Videos[1].Position != 1 {
		t.Fatalf("expected positions 0 and 1, got %d and %d",
			loaded.Videos[0].Position, loaded.Videos[1].Position)
	}

	if err := repo.RemoveVideo(ctx, playlist.ID, alice.ID, first.ID); err != nil {
		t.Fatalf("remove first video: %v", err)
	}
	if err := repo.AddVideo(ctx, playlist.ID, alice.ID, third.ID); err != nil {
		t.Fatalf("add third video: %v", err)
	}

	loaded, err = repo.FindByID(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("reload playlist: %v", err)
	}
	if len(loaded.Videos) != 2 {
		t.Fatalf("expected 2 entries after remove and append, got %d", len(loaded.Videos))
	}
	if loaded.Videos[1].ID != third.ID || loaded.Videos[1].Position != 2 {
		t.Fatalf("expected the appended video at position 2, got %+v", loaded.Videos[1])
	}
}

func TestPostgresHistoryRepository_RewatchBumpsEntry(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	alice := createTestUser(t, userRepo, "alice")
	bob := createTestUser(t, userRepo, "bob")
	first := createTestVideo(t, bob.ID, "First")
	second := createTestVideo(t, bob.ID, "Second")

	repo := NewPostgresHistoryRepository(testPool)

	if err := repo.Record(ctx, alice.ID, first.ID); err != nil {
		t.Fatalf("record first watch: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := repo.Record(ctx, alice.ID, second.ID); err != nil {
		t.Fatalf("record second watch: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := repo.Record(ctx, alice.ID, first.ID); err != nil {
		t.Fatalf("record rewatch: %v", err)
	}

	entries, err := repo.ListForUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list watch history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(entries))
	}
	if entries[0].Video.ID != first.ID {
		t.Fatalf("expected the rewatched video first, got %q", entries[0].Video.Title)
	}
	if entries[0].Owner.Username != bob.Username {
		t.Fatalf("expected owner projection %q, got %q", bob.Username, entries[0].Owner.Username)
	}

	if err := repo.Record(ctx, alice.ID, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound recording a missing video, got %v", err)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `TRUNCATE TABLE watch_history, playlist_videos, playlists,
		subscriptions, likes, comments, tweets, videos, users CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username string) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     username + "@example.com",
		FullName:  username,
		Password:  "password-hash",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user %s: %v", username, err)
	}
	return user
}

func createTestVideo(t *testing.T, ownerID, title string) models.Video {
	t.Helper()
	video := models.Video{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		VideoURL:  "https://cdn.example.com/" + uuid.NewString() + ".mp4",
		Title:     title,
		Duration:  42,
		Published: true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := NewPostgresVideoRepository(testPool).Create(context.Background(), video); err != nil {
		t.Fatalf("create test video %s: %v", title, err)
	}
	return video
}
