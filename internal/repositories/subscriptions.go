package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/streamtube/backend/internal/db"
	"github.com/streamtube/backend/internal/models"
)

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for
// channel subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository
// backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle subscribes when no relation exists and unsubscribes otherwise. The
// UNIQUE(subscriber_id, channel_id) constraint makes the insert atomic under
// concurrent identical requests.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES (gen_random_uuid(), $1, $2, NOW())
        ON CONFLICT (subscriber_id, channel_id) DO NOTHING
    `, subscriberID, channelID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23503":
				return false, ErrNotFound
			case "23514":
				// subscriber = channel violates the self-subscription check
				return false, ErrConflict
			}
		}
		return false, fmt.Errorf("insert subscription: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return true, nil
	}

	if _, err := conn.Exec(ctx, `
        DELETE FROM subscriptions
        WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID); err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}

	return false, nil
}

// ListSubscribers returns the users subscribed to a channel.
func (r *PostgresSubscriptionRepository) ListSubscribers(ctx context.Context, channelID string) ([]models.OwnerSummary, error) {
	return r.listJoined(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar_url
        FROM subscriptions s
        JOIN users u ON u.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at DESC
    `, channelID)
}

// ListSubscribedChannels returns the channels a user subscribes to.
func (r *PostgresSubscriptionRepository) ListSubscribedChannels(ctx context.Context, subscriberID string) ([]models.OwnerSummary, error) {
	return r.listJoined(ctx, `
        SELECT u.id, u.username, u.full_name, u.avatar_url
        FROM subscriptions s
        JOIN users u ON u.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC
    `, subscriberID)
}

func (r *PostgresSubscriptionRepository) listJoined(ctx context.Context, query, arg string) ([]models.OwnerSummary, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	users := []models.OwnerSummary{}
	for rows.Next() {
		var u models.OwnerSummary
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan subscription user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}

	return users, nil
}

var _ SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
