package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/streamtube/backend/internal/db"
	"github.com/streamtube/backend/internal/models"
)

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

func likeColumn(kind models.LikeKind) (string, error) {
	switch kind {
	case models.LikeVideo:
		return "video_id", nil
	case models.LikeComment:
		return "comment_id", nil
	case models.LikeTweet:
		return "tweet_id", nil
	default:
		return "", fmt.Errorf("unknown like kind %q", kind)
	}
}

// Toggle creates the like when absent and removes it when present. The
// insert relies on the partial unique index over (user_id, target), so two
// concurrent toggles for the same pair can never both insert.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, userID string, kind models.LikeKind, targetID string) (bool, error) {
	column, err := likeColumn(kind)
	if err != nil {
		return false, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO likes (id, user_id, `+column+`, created_at)
        VALUES (gen_random_uuid(), $1, $2, NOW())
        ON CONFLICT (user_id, `+column+`) WHERE `+column+` IS NOT NULL DO NOTHING
    `, userID, targetID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("insert like: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return true, nil
	}

	if _, err := conn.Exec(ctx, `
        DELETE FROM likes
        WHERE user_id = $1 AND `+column+` = $2
    `, userID, targetID); err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}

	return false, nil
}

// CountForTarget returns the number of likes on the target entity.
func (r *PostgresLikeRepository) CountForTarget(ctx context.Context, kind models.LikeKind, targetID string) (int64, error) {
	column, err := likeColumn(kind)
	if err != nil {
		return 0, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int64
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM likes WHERE `+column+` = $1
    `, targetID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}

	return count, nil
}

// ListLikedVideos joins the user's video likes to the video records, most
// recently created video first. A user with no likes gets an empty slice.
func (r *PostgresLikeRepository) ListLikedVideos(ctx context.Context, userID string) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description,
               v.duration, v.published, v.created_at, v.updated_at
        FROM likes l
        JOIN videos v ON v.id = l.video_id
        WHERE l.user_id = $1 AND l.video_id IS NOT NULL
        ORDER BY v.created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate liked videos: %w", err)
	}

	return videos, nil
}

var _ LikeRepository = (*PostgresLikeRepository)(nil)
