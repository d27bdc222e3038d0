// Package post owns link posts and their vote counters.
package post

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound signals an invalid or unknown post id.
	ErrNotFound = errors.New("post not found")
	// ErrInvalidLink rejects links that are not absolute http(s) URLs.
	ErrInvalidLink = errors.New("link must be an absolute http or https URL")
	// ErrInvalidTitle rejects blank titles.
	ErrInvalidTitle = errors.New("title is required")
	// ErrVoteOverflow rejects a vote that would push the total out of int64 range.
	ErrVoteOverflow = errors.New("vote count out of range")
)

// Post is one submitted link.
type Post struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Author    string    `json:"author,omitempty"`
	CreatedAt int64     `json:"created_at"`
	Votes     int64     `json:"votes"`
}

// Store persists posts.
type Store interface {
	Create(ctx context.Context, p Post) (Post, error)
	// List returns posts newest first.
	List(ctx context.Context) ([]Post, error)
	Get(ctx context.Context, id uuid.UUID) (Post, error)
	// IncrementVotes atomically adds delta to one post's votes and returns the
	// new total. A missing post yields ErrNotFound; no row is ever created.
	IncrementVotes(ctx context.Context, id uuid.UUID, delta int64) (int64, error)
}
