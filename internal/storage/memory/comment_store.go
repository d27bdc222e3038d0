// Package memory provides in-memory stores for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/JakeFAU/linkboard/internal/comment"
)

// CommentStore keeps comments in insertion order.
type CommentStore struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]comment.Comment
	byPost map[string][]uuid.UUID
}

// NewCommentStore constructs an empty CommentStore.
func NewCommentStore() *CommentStore {
	return &CommentStore{
		byID:   make(map[uuid.UUID]comment.Comment),
		byPost: make(map[string][]uuid.UUID),
	}
}

// Create stores c.
func (s *CommentStore) Create(_ context.Context, c comment.Comment) (comment.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[c.ID] = c
	s.byPost[c.PostID] = append(s.byPost[c.PostID], c.ID)
	return c, nil
}

// ListByPost returns a copy of the post's comments.
func (s *CommentStore) ListByPost(_ context.Context, postID string) ([]comment.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byPost[postID]
	out := make([]comment.Comment, 0, len(ids))
	for _, commentID := range ids {
		out = append(out, s.byID[commentID])
	}
	return out, nil
}

// Get fetches a comment by id.
func (s *CommentStore) Get(_ context.Context, commentID uuid.UUID) (comment.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[commentID]
	if !ok {
		return comment.Comment{}, comment.ErrNotFound
	}
	return c, nil
}
