package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/streamtube/backend/internal/models"
)

// AccessClaims are carried by access tokens. Subject holds the user id.
type AccessClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// RefreshClaims are carried by refresh tokens; only the user id travels.
type RefreshClaims struct {
	jwt.RegisteredClaims
}

// TokenSigner issues and verifies the signed session tokens. Access and
// refresh tokens are signed with independent secrets so one can never be
// presented in place of the other.
type TokenSigner struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	// Now is overridable in tests.
	Now func() time.Time
}

// NewTokenSigner constructs a signer from explicit secrets. Secrets are
// injected here rather than read from ambient state.
func NewTokenSigner(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenSigner, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, fmt.Errorf("auth: token secrets must not be empty")
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenSigner{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		Now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

// Issue signs a fresh access/refresh pair for the provided user.
func (s *TokenSigner) Issue(user models.User) (models.TokenPair, error) {
	now := s.Now()
	accessExpires := now.Add(s.accessTTL)
	refreshExpires := now.Add(s.refreshTTL)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpires),
		},
	})
	accessToken, err := access.SignedString(s.accessSecret)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	// The jti makes every issued token distinct even when two issues share
	// the same second; rotation depends on old and new values differing.
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExpires),
		},
	})
	refreshToken, err := refresh.SignedString(s.refreshSecret)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return models.TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpires,
	}, nil
}

// VerifyAccess validates an access token and returns its claims.
func (s *TokenSigner) VerifyAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.Now))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token and returns the user id it names.
func (s *TokenSigner) VerifyRefresh(token string) (string, error) {
	claims := &RefreshClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.refreshSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.Now))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
