// Package comment owns comment documents: the model, the storage contract,
// and the request-facing service that creates and queries them.
//
// A comment references its post by the post's stringified identifier. The
// reference is never validated against the post store; the two stores are
// owned by different services and are only eventually consistent.
package comment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound signals that the requested comment does not exist.
var ErrNotFound = errors.New("comment not found")

// ErrUnavailable matches every StoreError of kind KindUnavailable.
var ErrUnavailable = errors.New("comment store unavailable")

// Comment is one persisted comment document.
type Comment struct {
	ID        uuid.UUID `json:"id"`
	PostID    string    `json:"post_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Body      string    `json:"body"`
	CreatedAt int64     `json:"created_at"`
}

// NewComment is the caller-supplied part of a comment. A zero CreatedAt is
// replaced with the current time.
type NewComment struct {
	PostID    string
	Name      string
	Email     string
	Body      string
	CreatedAt int64
}

// Store is the sole reader and writer of comment documents.
type Store interface {
	// Create persists c (whose ID is already assigned) and returns the stored document.
	Create(ctx context.Context, c Comment) (Comment, error)
	// ListByPost returns the comments for postID in insertion order.
	ListByPost(ctx context.Context, postID string) ([]Comment, error)
	// Get loads one comment or returns ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (Comment, error)
}

// Kind classifies store failures surfaced to callers.
type Kind string

// KindUnavailable covers an unreachable database or a failed operation.
const KindUnavailable Kind = "unavailable"

// StoreError is returned by Service when the underlying store fails.
type StoreError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("comment %s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes the storage-level cause.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *StoreError) Is(target error) bool {
	return target == ErrUnavailable && e.Kind == KindUnavailable
}

func unavailable(op string, err error) *StoreError {
	return &StoreError{Kind: KindUnavailable, Op: op, Err: err}
}
