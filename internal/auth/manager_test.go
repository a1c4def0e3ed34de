package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/streamtube/backend/internal/models"
)

func TestManagerIssueStoresRefreshToken(t *testing.T) {
	signer := newTestSigner(t)
	store := NewInMemorySessionStore()
	store.Put(models.User{ID: "user-1", Username: "alice"})

	manager := NewManager(signer, store)

	pair, err := manager.Issue(context.Background(), models.User{ID: "user-1", Username: "alice"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	stored, err := store.FindByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if stored.RefreshToken != pair.RefreshToken {
		t.Fatal("expected issued refresh token to be persisted")
	}
}

func TestManagerAuthenticate(t *testing.T) {
	signer := newTestSigner(t)
	store := NewInMemorySessionStore()
	store.Put(models.User{ID: "user-1", Username: "alice"})

	manager := NewManager(signer, store)

	pair, err := manager.Issue(context.Background(), models.User{ID: "user-1", Username: "alice"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	user, err := manager.Authenticate(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("expected user-1 got %q", user.ID)
	}

	if _, err := manager.Authenticate(context.Background(), "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
}

func TestManagerAuthenticateUnknownUser(t *testing.T) {
	signer := newTestSigner(t)
	manager := NewManager(signer, NewInMemorySessionStore())

	pair, err := signer.Issue(models.User{ID: "ghost"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := manager.Authenticate(context.Background(), pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
}

func TestManagerRefreshRotates(t *testing.T) {
	signer := newTestSigner(t)
	store := NewInMemorySessionStore()
	store.Put(models.User{ID: "user-1", Username: "alice"})

	manager := NewManager(signer, store)

	first, err := manager.Issue(context.Background(), models.User{ID: "user-1", Username: "alice"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	second, user, err := manager.Refresh(context.Background(), first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("expected user-1 got %q", user.ID)
	}

	stored, _ := store.FindByID(context.Background(), "user-1")
	if stored.RefreshToken != second.RefreshToken {
		t.Fatal("expected stored token to be the rotated one")
	}

	// The consumed token is no longer the stored anchor.
	if _, _, err := manager.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("expected ErrTokenMismatch for replayed token got %v", err)
	}

	// The fresh token keeps working.
	if _, _, err := manager.Refresh(context.Background(), second.RefreshToken); err != nil {
		t.Fatalf("refresh with rotated token: %v", err)
	}
}

func TestManagerRefreshAfterRevoke(t *testing.T) {
	signer := newTestSigner(t)
	store := NewInMemorySessionStore()
	store.Put(models.User{ID: "user-1"})

	manager := NewManager(signer, store)

	pair, err := manager.Issue(context.Background(), models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := manager.Revoke(context.Background(), "user-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if _, _, err := manager.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("expected ErrTokenMismatch after revoke got %v", err)
	}
}

func TestManagerRefreshRejectsGarbage(t *testing.T) {
	manager := NewManager(newTestSigner(t), NewInMemorySessionStore())

	if _, _, err := manager.Refresh(context.Background(), ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
	if _, _, err := manager.Refresh(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
}
