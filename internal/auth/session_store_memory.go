package auth

import (
	"context"
	"sync"

	"github.com/streamtube/backend/internal/models"
	"github.com/streamtube/backend/internal/repositories"
)

// InMemorySessionStore implements SessionStore for tests and local development.
type InMemorySessionStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// NewInMemorySessionStore returns a SessionStore backed by an in-memory map.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{users: make(map[string]models.User)}
}

// Put seeds a user record. Useful for tests.
func (s *InMemorySessionStore) Put(user models.User) {
	s.mu.Lock()
	s.users[user.ID] = user
	s.mu.Unlock()
}

// FindByID returns the stored user or repositories.ErrNotFound.
func (s *InMemorySessionStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	user, ok := s.users[id]
	s.mu.RUnlock()
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

// SetRefreshToken overwrites the user's stored refresh token.
func (s *InMemorySessionStore) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = token
	s.users[userID] = user
	return nil
}

// RotateRefreshToken swaps oldToken for newToken when the stored value matches.
func (s *InMemorySessionStore) RotateRefreshToken(_ context.Context, userID, oldToken, newToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok || user.RefreshToken != oldToken {
		return repositories.ErrNotFound
	}
	user.RefreshToken = newToken
	s.users[userID] = user
	return nil
}

// ClearRefreshToken removes the user's stored refresh token.
func (s *InMemorySessionStore) ClearRefreshToken(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.RefreshToken = ""
	s.users[userID] = user
	return nil
}

var _ SessionStore = (*InMemorySessionStore)(nil)
