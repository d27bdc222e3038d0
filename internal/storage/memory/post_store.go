package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/JakeFAU/linkboard/internal/post"
)

// PostStore keeps posts in a map guarded by a mutex.
type PostStore struct {
	mu    sync.RWMutex
	posts map[uuid.UUID]post.Post
}

// NewPostStore constructs an empty PostStore.
func NewPostStore() *PostStore {
	return &PostStore{posts: make(map[uuid.UUID]post.Post)}
}

// Create stores p, rejecting duplicate ids.
func (s *PostStore) Create(_ context.Context, p post.Post) (post.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.posts[p.ID]; exists {
		return post.Post{}, errors.New("post already exists")
	}
	s.posts[p.ID] = p
	return p, nil
}

// List returns posts newest first; ties fall back to id order.
func (s *PostStore) List(_ context.Context) ([]post.Post, error) {
	s.mu.RLock()
	out := make([]post.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out, nil
}

// Get fetches a post by id.
func (s *PostStore) Get(_ context.Context, postID uuid.UUID) (post.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[postID]
	if !ok {
		return post.Post{}, post.ErrNotFound
	}
	return p, nil
}

// IncrementVotes adds delta under the write lock.
func (s *PostStore) IncrementVotes(_ context.Context, postID uuid.UUID, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return 0, post.ErrNotFound
	}
	if (delta > 0 && p.Votes > math.MaxInt64-delta) || (delta < 0 && p.Votes < math.MinInt64-delta) {
		return 0, post.ErrVoteOverflow
	}
	p.Votes += delta
	s.posts[postID] = p
	return p.Votes, nil
}
