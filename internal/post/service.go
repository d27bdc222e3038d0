package post

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/JakeFAU/linkboard/internal/id"
	"github.com/JakeFAU/linkboard/internal/logging"
)

// IDGenerator assigns identifiers to new posts.
type IDGenerator interface {
	NewID() (uuid.UUID, error)
}

// Clock supplies creation timestamps in epoch seconds.
type Clock interface {
	Unix() int64
}

// Service implements post operations.
type Service struct {
	store  Store
	ids    IDGenerator
	clock  Clock
	events *logging.Events
}

// NewService wires a Service.
func NewService(store Store, ids IDGenerator, clock Clock, events *logging.Events) *Service {
	return &Service{store: store, ids: ids, clock: clock, events: events}
}

// Create validates and stores a new post with zero votes.
func (s *Service) Create(ctx context.Context, title, link, author string) (Post, error) {
	params := map[string]any{"title": title, "link": link, "author": author}
	title = strings.TrimSpace(title)
	if title == "" {
		s.events.Warn(ctx, "add_post", "Rejected post without a title", params)
		return Post{}, ErrInvalidTitle
	}
	if !validLink(link) {
		s.events.Warn(ctx, "add_post", "Rejected post with an invalid link", params)
		return Post{}, ErrInvalidLink
	}
	postID, err := s.ids.NewID()
	if err != nil {
		return Post{}, fmt.Errorf("assign post id: %w", err)
	}
	p, err := s.store.Create(ctx, Post{
		ID:        postID,
		Title:     title,
		Link:      strings.TrimSpace(link),
		Author:    author,
		CreatedAt: s.clock.Unix(),
	})
	if err != nil {
		s.events.Error(ctx, "add_post", "Failed to create a post", params, err)
		return Post{}, fmt.Errorf("create post: %w", err)
	}
	s.events.Info(ctx, "add_post", "Successfully created a new post", params)
	return p, nil
}

// List returns every post newest first, never nil.
func (s *Service) List(ctx context.Context) ([]Post, error) {
	posts, err := s.store.List(ctx)
	if err != nil {
		s.events.Error(ctx, "list_posts", "Couldn't retrieve posts from DB", nil, err)
		return nil, fmt.Errorf("list posts: %w", err)
	}
	if posts == nil {
		posts = []Post{}
	}
	return posts, nil
}

// Get loads one post; invalid or unknown ids report found=false.
func (s *Service) Get(ctx context.Context, rawID string) (Post, bool, error) {
	postID, ok := id.Normalize(rawID)
	if !ok {
		return Post{}, false, nil
	}
	p, err := s.store.Get(ctx, postID)
	switch {
	case errors.Is(err, ErrNotFound):
		return Post{}, false, nil
	case err != nil:
		s.events.Error(ctx, "find_post", "Couldn't retrieve post from DB", map[string]any{"id": rawID}, err)
		return Post{}, false, fmt.Errorf("get post: %w", err)
	}
	return p, true, nil
}

// Vote adds delta to the post's vote count and returns the new total.
// Invalid and unknown ids both yield ErrNotFound.
func (s *Service) Vote(ctx context.Context, rawID string, delta int64) (int64, error) {
	params := map[string]any{"id": rawID, "delta": delta}
	postID, ok := id.Normalize(rawID)
	if !ok {
		s.events.Info(ctx, "vote", "Invalid post id", params)
		return 0, ErrNotFound
	}
	votes, err := s.store.IncrementVotes(ctx, postID, delta)
	switch {
	case errors.Is(err, ErrNotFound):
		s.events.Info(ctx, "vote", "Post not found", params)
		return 0, ErrNotFound
	case err != nil:
		s.events.Error(ctx, "vote", "Failed to update votes", params, err)
		return 0, fmt.Errorf("vote: %w", err)
	}
	params["votes"] = votes
	s.events.Info(ctx, "vote", "Vote recorded", params)
	return votes, nil
}

func validLink(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
