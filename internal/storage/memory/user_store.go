package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/linkboard/internal/account"
)

// UserStore keeps accounts keyed by username.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]account.User
}

// NewUserStore constructs an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]account.User)}
}

// Create stores u unless the username is taken.
func (s *UserStore) Create(_ context.Context, u account.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.Username]; exists {
		return account.ErrUserExists
	}
	s.users[u.Username] = u
	return nil
}

// Get fetches a user.
func (s *UserStore) Get(_ context.Context, username string) (account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return account.User{}, account.ErrNotFound
	}
	return u, nil
}
