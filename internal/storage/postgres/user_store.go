package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JakeFAU/linkboard/internal/account"
)

const (
	uniqueViolation   = "23505"
	numericOutOfRange = "22003"
)

// UserStore reads and writes the users table.
type UserStore struct {
	db DB
}

// NewUserStore wraps db.
func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts u; a primary key conflict maps to account.ErrUserExists.
func (s *UserStore) Create(ctx context.Context, u account.User) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES ($1, $2, $3)`,
		u.Username, u.PasswordHash, u.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return account.ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Get selects a user by username.
func (s *UserStore) Get(ctx context.Context, username string) (account.User, error) {
	var u account.User
	err := s.db.QueryRow(ctx,
		`SELECT username, password_hash, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&u.Username, &u.PasswordHash, &u.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return account.User{}, account.ErrNotFound
	case err != nil:
		return account.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}
