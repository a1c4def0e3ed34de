package repositories

import (
	"context"
	"errors"
	"fmt"

	crdbpgxv5 "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamtube/backend/internal/db"
	"github.com/streamtube/backend/internal/models"
)

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for
// playlists and their ordered video entries.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by
// PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

// Create stores a new empty playlist.
func (r *PostgresPlaylistRepository) Create(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO playlists (id, owner_id, title, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, playlist.ID, playlist.OwnerID, playlist.Title, playlist.Description, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("insert playlist: %w", err)
	}

	return nil
}

// FindByID fetches a playlist with its entries resolved to video summaries.
func (r *PostgresPlaylistRepository) FindByID(ctx context.Context, id string) (models.PlaylistWithVideos, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.PlaylistWithVideos{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, title, description, created_at, updated_at
        FROM playlists
        WHERE id = $1
    `, id)

	var p models.PlaylistWithVideos
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PlaylistWithVideos{}, ErrNotFound
		}
		return models.PlaylistWithVideos{}, fmt.Errorf("select playlist: %w", err)
	}

	videos, err := r.listEntries(ctx, conn, p.ID)
	if err != nil {
		return models.PlaylistWithVideos{}, err
	}
	p.Videos = videos

	return p, nil
}

// ListForUser returns a user's playlists with resolved video summaries. A
// user with no playlists gets an empty slice.
func (r *PostgresPlaylistRepository) ListForUser(ctx context.Context, userID string) ([]models.PlaylistWithVideos, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, owner_id, title, description, created_at, updated_at
        FROM playlists
        WHERE owner_id = $1
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query user playlists: %w", err)
	}

	playlists := []models.PlaylistWithVideos{}
	for rows.Next() {
		var p models.PlaylistWithVideos
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate user playlists: %w", err)
	}
	rows.Close()

	for i := range playlists {
		videos, err := r.listEntries(ctx, conn, playlists[i].ID)
		if err != nil {
			return nil, err
		}
		playlists[i].Videos = videos
	}

	return playlists, nil
}

func (r *PostgresPlaylistRepository) listEntries(ctx context.Context, conn *pgxpool.Conn, playlistID string) ([]models.PlaylistVideo, error) {
	rows, err := conn.Query(ctx, `
        SELECT v.id, v.title, v.thumbnail_url, v.duration, pv.position
        FROM playlist_videos pv
        JOIN videos v ON v.id = pv.video_id
        WHERE pv.playlist_id = $1
        ORDER BY pv.position, pv.added_at
    `, playlistID)
	if err != nil {
		return nil, fmt.Errorf("query playlist videos: %w", err)
	}
	defer rows.Close()

	videos := []models.PlaylistVideo{}
	for rows.Next() {
		var v models.PlaylistVideo
		if err := rows.Scan(&v.ID, &v.Title, &v.ThumbnailURL, &v.Duration, &v.Position); err != nil {
			return nil, fmt.Errorf("scan playlist video: %w", err)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist videos: %w", err)
	}

	return videos, nil
}

// Update modifies title and description on a playlist the caller owns.
func (r *PostgresPlaylistRepository) Update(ctx context.Context, id, ownerID, title, description string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE playlists
        SET title = $3, description = $4, updated_at = NOW()
        WHERE id = $1 AND owner_id = $2
        RETURNING id, owner_id, title, description, created_at, updated_at
    `, id, ownerID, title, description)

	var p models.Playlist
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("update playlist: %w", err)
	}

	return p, nil
}

// Delete removes a playlist the caller owns together with its entries.
func (r *PostgresPlaylistRepository) Delete(ctx context.Context, id, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM playlists
        WHERE id = $1 AND owner_id = $2
    `, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// AddVideo appends a video to the caller's playlist. The position is computed
// and inserted inside a retrying transaction so concurrent appends to the
// same playlist serialize instead of writing colliding positions; the
// composite primary key rejects duplicate membership with ErrConflict.
func (r *PostgresPlaylistRepository) AddVideo(ctx context.Context, playlistID, ownerID, videoID string) error {
	err := crdbpgxv5.ExecuteTx(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.Serializable}, func(tx pgx.Tx) error {
		var owned bool
		if err := tx.QueryRow(ctx, `
            SELECT EXISTS (SELECT 1 FROM playlists WHERE id = $1 AND owner_id = $2)
        `, playlistID, ownerID).Scan(&owned); err != nil {
			return fmt.Errorf("check playlist ownership: %w", err)
		}
		if !owned {
			return ErrNotFound
		}

		tag, err := tx.Exec(ctx, `
            INSERT INTO playlist_videos (playlist_id, video_id, position, added_at)
            SELECT $1, $2, COALESCE(MAX(position) + 1, 0), NOW()
            FROM playlist_videos
            WHERE playlist_id = $1
            ON CONFLICT (playlist_id, video_id) DO NOTHING
        `, playlistID, videoID)
		if err != nil {
			return fmt.Errorf("insert playlist video: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrConflict
		}

		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrNotFound
		}
		return err
	}

	return nil
}

// RemoveVideo removes a video from the caller's playlist.
func (r *PostgresPlaylistRepository) RemoveVideo(ctx context.Context, playlistID, ownerID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM playlist_videos pv
        USING playlists p
        WHERE pv.playlist_id = p.id
          AND p.id = $1 AND p.owner_id = $2 AND pv.video_id = $3
    `, playlistID, ownerID, videoID)
	if err != nil {
		return fmt.Errorf("delete playlist video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

var _ PlaylistRepository = (*PostgresPlaylistRepository)(nil)
