package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/streamtube/backend/internal/db"
	"github.com/streamtube/backend/internal/models"
)

// PostgresHistoryRepository records watched videos per user.
type PostgresHistoryRepository struct {
	pool db.Pool
}

// NewPostgresHistoryRepository constructs a watch history repository backed
// by PostgreSQL.
func NewPostgresHistoryRepository(pool db.Pool) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{pool: pool}
}

// Record notes that the user watched the video. Re-watching bumps the entry
// to the front of the history instead of duplicating it.
func (r *PostgresHistoryRepository) Record(ctx context.Context, userID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (user_id, video_id)
        DO UPDATE SET watched_at = NOW()
    `, userID, videoID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("upsert watch history: %w", err)
	}

	return nil
}

// ListForUser resolves the user's watched videos with a nested owner
// projection, most recently watched first. An empty history yields an empty
// slice, never an error.
func (r *PostgresHistoryRepository) ListForUser(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description,
               v.duration, v.published, v.created_at, v.updated_at,
               u.id, u.username, u.full_name, u.avatar_url,
               h.watched_at
        FROM watch_history h
        JOIN videos v ON v.id = h.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE h.user_id = $1
        ORDER BY h.watched_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	entries := []models.WatchHistoryEntry{}
	for rows.Next() {
		var e models.WatchHistoryEntry
		if err := rows.Scan(&e.Video.ID, &e.Video.OwnerID, &e.Video.VideoURL, &e.Video.ThumbnailURL,
			&e.Video.Title, &e.Video.Description, &e.Video.Duration, &e.Video.Published,
			&e.Video.CreatedAt, &e.Video.UpdatedAt,
			&e.Owner.ID, &e.Owner.Username, &e.Owner.FullName, &e.Owner.AvatarURL,
			&e.WatchedAt); err != nil {
			return nil, fmt.Errorf("scan watch history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return entries, nil
}

var _ HistoryRepository = (*PostgresHistoryRepository)(nil)
