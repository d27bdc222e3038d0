// Package account registers users and checks their credentials.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/JakeFAU/linkboard/internal/logging"
)

var (
	// ErrUserExists is returned when signing up with a taken username.
	ErrUserExists = errors.New("username already taken")
	// ErrInvalidCredentials covers both unknown users and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNotFound is returned by stores for unknown usernames.
	ErrNotFound = errors.New("user not found")
	// ErrInvalidInput rejects blank usernames and passwords.
	ErrInvalidInput = errors.New("username and password are required")
)

// User is a registered account.
type User struct {
	Username     string
	PasswordHash []byte
	CreatedAt    int64
}

// Store persists users keyed by username.
type Store interface {
	// Create returns ErrUserExists when the username is taken.
	Create(ctx context.Context, u User) error
	// Get returns ErrNotFound for unknown usernames.
	Get(ctx context.Context, username string) (User, error)
}

// Clock supplies creation timestamps in epoch seconds.
type Clock interface {
	Unix() int64
}

// Service handles signup and login.
type Service struct {
	store  Store
	clock  Clock
	events *logging.Events
	cost   int
}

// Option customizes a Service.
type Option func(*Service)

// WithCost overrides the bcrypt cost.
func WithCost(cost int) Option {
	return func(s *Service) {
		s.cost = cost
	}
}

// NewService wires a Service using bcrypt.DefaultCost unless overridden.
func NewService(store Store, clock Clock, events *logging.Events, opts ...Option) *Service {
	s := &Service{store: store, clock: clock, events: events, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup creates a user with a hashed password.
func (s *Service) Signup(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	params := map[string]any{"username": username}
	if username == "" || password == "" {
		return User{}, ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	u := User{Username: username, PasswordHash: hash, CreatedAt: s.clock.Unix()}
	if err := s.store.Create(ctx, u); err != nil {
		if errors.Is(err, ErrUserExists) {
			s.events.Info(ctx, "signup", "Username already taken", params)
			return User{}, ErrUserExists
		}
		s.events.Error(ctx, "signup", "Failed to create user", params, err)
		return User{}, fmt.Errorf("create user: %w", err)
	}
	s.events.Info(ctx, "signup", "User signed up", params)
	return u, nil
}

// Authenticate verifies a username and password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	params := map[string]any{"username": username}
	u, err := s.store.Get(ctx, username)
	switch {
	case errors.Is(err, ErrNotFound):
		s.events.Info(ctx, "login", "Unknown username", params)
		return User{}, ErrInvalidCredentials
	case err != nil:
		s.events.Error(ctx, "login", "Failed to load user", params, err)
		return User{}, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		s.events.Info(ctx, "login", "Wrong password", params)
		return User{}, ErrInvalidCredentials
	}
	s.events.Info(ctx, "login", "User logged in", params)
	return u, nil
}
