package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/streamtube/backend/internal/models"
)

func newTestSigner(t *testing.T) *TokenSigner {
	t.Helper()

	signer, err := NewTokenSigner("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return signer
}

func TestNewTokenSignerRequiresSecrets(t *testing.T) {
	if _, err := NewTokenSigner("", "refresh", time.Minute, time.Hour); err == nil {
		t.Fatal("expected error for empty access secret")
	}
	if _, err := NewTokenSigner("access", "", time.Minute, time.Hour); err == nil {
		t.Fatal("expected error for empty refresh secret")
	}
}

func TestTokenSignerIssuesDistinctTokensWithinSameSecond(t *testing.T) {
	signer := newTestSigner(t)
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	signer.Now = func() time.Time { return now }

	user := models.User{ID: "user-1", Username: "alice", Email: "alice@example.com"}

	first, err := signer.Issue(user)
	if err != nil {
		t.Fatalf("issue first pair: %v", err)
	}
	second, err := signer.Issue(user)
	if err != nil {
		t.Fatalf("issue second pair: %v", err)
	}

	if first.RefreshToken == second.RefreshToken {
		t.Fatal("expected refresh tokens issued at the same instant to differ")
	}
	if first.AccessToken == second.AccessToken {
		t.Fatal("expected access tokens issued at the same instant to differ")
	}
}

func TestTokenSignerIssueAndVerify(t *testing.T) {
	signer := newTestSigner(t)
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	signer.Now = func() time.Time { return now }

	user := models.User{ID: "user-1", Username: "alice", Email: "alice@example.com"}

	pair, err := signer.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be signed")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("expected distinct access and refresh tokens")
	}
	if !pair.AccessExpiresAt.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("unexpected access expiry %v", pair.AccessExpiresAt)
	}
	if !pair.RefreshExpiresAt.Equal(now.Add(24 * time.Hour)) {
		t.Fatalf("unexpected refresh expiry %v", pair.RefreshExpiresAt)
	}

	claims, err := signer.VerifyAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if claims.Subject != user.ID {
		t.Fatalf("expected subject %q got %q", user.ID, claims.Subject)
	}
	if claims.Username != user.Username {
		t.Fatalf("expected username %q got %q", user.Username, claims.Username)
	}

	subject, err := signer.VerifyRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if subject != user.ID {
		t.Fatalf("expected subject %q got %q", user.ID, subject)
	}
}

func TestTokenSignerRejectsCrossUse(t *testing.T) {
	signer := newTestSigner(t)

	pair, err := signer.Issue(models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Each token only verifies against its own secret.
	if _, err := signer.VerifyAccess(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
	if _, err := signer.VerifyRefresh(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
}

func TestTokenSignerRejectsExpired(t *testing.T) {
	signer := newTestSigner(t)
	issued := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	signer.Now = func() time.Time { return issued }

	pair, err := signer.Issue(models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	signer.Now = func() time.Time { return issued.Add(16 * time.Minute) }
	if _, err := signer.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token got %v", err)
	}

	signer.Now = func() time.Time { return issued.Add(25 * time.Hour) }
	if _, err := signer.VerifyRefresh(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired refresh token got %v", err)
	}
}

func TestTokenSignerRejectsForeignSignature(t *testing.T) {
	signer := newTestSigner(t)
	other, err := NewTokenSigner("other-access", "other-refresh", 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	pair, err := other.Issue(models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := signer.VerifyAccess(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
}
