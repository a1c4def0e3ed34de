package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/streamtube/backend/internal/models"
	"github.com/streamtube/backend/internal/repositories"
)

// SessionStore persists the single active refresh token on each user record.
type SessionStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
	// RotateRefreshToken atomically swaps oldToken for newToken and reports
	// repositories.ErrNotFound when the stored value no longer matches.
	RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string) error
	ClearRefreshToken(ctx context.Context, userID string) error
}

// Manager manages the session lifecycle: issuing pairs at login, rotating
// them on refresh, and revoking them at logout. The refresh token written to
// the user record is the rotation anchor; tokens already issued stay
// cryptographically valid until expiry but become unusable for refresh the
// moment the stored value changes.
type Manager struct {
	signer *TokenSigner
	store  SessionStore
}

// NewManager constructs a Manager from a signer and a session store.
func NewManager(signer *TokenSigner, store SessionStore) *Manager {
	if signer == nil {
		panic("auth: token signer must not be nil")
	}
	if store == nil {
		panic("auth: session store must not be nil")
	}
	return &Manager{signer: signer, store: store}
}

// Issue signs a new token pair for the user and persists the refresh token,
// overwriting any previous session.
func (m *Manager) Issue(ctx context.Context, user models.User) (models.TokenPair, error) {
	if user.ID == "" {
		return models.TokenPair{}, errors.New("user id must be provided")
	}

	pair, err := m.signer.Issue(user)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := m.store.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

// Authenticate validates an access token and resolves it to a user.
func (m *Manager) Authenticate(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrInvalidToken
	}

	claims, err := m.signer.VerifyAccess(token)
	if err != nil {
		return models.User{}, err
	}

	user, err := m.store.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, ErrInvalidToken
		}
		return models.User{}, err
	}

	return user, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token must
// carry a valid signature, decode to an existing user, and match the stored
// value byte for byte; any failure rejects the whole operation.
func (m *Manager) Refresh(ctx context.Context, presented string) (models.TokenPair, models.User, error) {
	if presented == "" {
		return models.TokenPair{}, models.User{}, ErrInvalidToken
	}

	userID, err := m.signer.VerifyRefresh(presented)
	if err != nil {
		return models.TokenPair{}, models.User{}, err
	}

	user, err := m.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.TokenPair{}, models.User{}, ErrInvalidToken
		}
		return models.TokenPair{}, models.User{}, err
	}

	if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(presented)) != 1 {
		return models.TokenPair{}, models.User{}, ErrTokenMismatch
	}

	pair, err := m.signer.Issue(user)
	if err != nil {
		return models.TokenPair{}, models.User{}, err
	}

	// Conditional swap: if another request rotated the token between the
	// comparison above and this update, zero rows match and the refresh fails
	// instead of minting a second pair for a stale token.
	if err := m.store.RotateRefreshToken(ctx, user.ID, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.TokenPair{}, models.User{}, ErrTokenMismatch
		}
		return models.TokenPair{}, models.User{}, err
	}

	return pair, user, nil
}

// Revoke clears the stored refresh token, ending the user's session.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}
	return m.store.ClearRefreshToken(ctx, userID)
}
