package comment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/linkboard/internal/id"
	"github.com/JakeFAU/linkboard/internal/logging"
)

// EventCreated is the notification type published after a comment is stored.
const EventCreated = "comment.created"

const publishTimeout = 5 * time.Second

// IDGenerator assigns identifiers to new comments.
type IDGenerator interface {
	NewID() (uuid.UUID, error)
}

// Clock supplies creation timestamps in epoch seconds.
type Clock interface {
	Unix() int64
}

// Counter is incremented once per successfully created comment.
type Counter interface {
	IncComments()
}

// Publisher fans comment notifications out to other services.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// CreatedEvent is the payload published for EventCreated.
type CreatedEvent struct {
	Type    string  `json:"type"`
	Comment Comment `json:"comment"`
}

// Service implements the comment operations behind the HTTP surface.
type Service struct {
	store     Store
	ids       IDGenerator
	clock     Clock
	counter   Counter
	events    *logging.Events
	publisher Publisher
	topic     string

	inflight sync.WaitGroup
}

// Option customizes a Service.
type Option func(*Service)

// WithPublisher publishes EventCreated notifications to topic.
func WithPublisher(p Publisher, topic string) Option {
	return func(s *Service) {
		s.publisher = p
		s.topic = topic
	}
}

// NewService wires the comment store with its collaborators.
func NewService(
	store Store,
	ids IDGenerator,
	clock Clock,
	counter Counter,
	events *logging.Events,
	opts ...Option,
) *Service {
	s := &Service{
		store:   store,
		ids:     ids,
		clock:   clock,
		counter: counter,
		events:  events,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists a new comment. A post reference that parses as an id is
// stored in canonical form, anything else as given; existence is not checked.
// comment_count is incremented only on success.
func (s *Service) Create(ctx context.Context, in NewComment) (Comment, error) {
	params := map[string]any{
		"post_id":     in.PostID,
		"name":        in.Name,
		"body_length": len(in.Body),
		"created_at":  in.CreatedAt,
	}
	commentID, err := s.ids.NewID()
	if err != nil {
		s.events.Error(ctx, "add_comment", "Failed to assign a comment id", params, err)
		return Comment{}, unavailable("create", err)
	}
	postID := in.PostID
	if canonical, ok := id.Normalize(postID); ok {
		postID = canonical.String()
	}
	c := Comment{
		ID:        commentID,
		PostID:    postID,
		Name:      in.Name,
		Email:     in.Email,
		Body:      in.Body,
		CreatedAt: in.CreatedAt,
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = s.clock.Unix()
	}

	saved, err := s.store.Create(ctx, c)
	if err != nil {
		s.events.Error(ctx, "add_comment", "Failed to create a comment", params, err)
		return Comment{}, unavailable("create", err)
	}
	s.events.Info(ctx, "add_comment", "Successfully created a new comment", params)
	s.counter.IncComments()
	s.notify(ctx, saved)
	return saved, nil
}

// ListByPost returns the comments of the post identified by rawPostID. An id
// that does not normalize yields an empty list without touching the store.
func (s *Service) ListByPost(ctx context.Context, rawPostID string) ([]Comment, error) {
	params := map[string]any{"id": rawPostID}
	postID, ok := id.Normalize(rawPostID)
	if !ok {
		s.events.Info(ctx, "find_post_comments", "Invalid post id, returning no comments", params)
		return []Comment{}, nil
	}
	comments, err := s.store.ListByPost(ctx, postID.String())
	if err != nil {
		s.events.Error(ctx, "find_post_comments", "Couldn't retrieve comments from DB", params, err)
		return nil, unavailable("list", err)
	}
	if comments == nil {
		comments = []Comment{}
	}
	s.events.Info(ctx, "find_post_comments", "Successfully retrieved post comments from DB", params)
	return comments, nil
}

// Get loads one comment. Invalid or unknown ids report found=false with a
// nil error.
func (s *Service) Get(ctx context.Context, rawID string) (Comment, bool, error) {
	params := map[string]any{"id": rawID}
	commentID, ok := id.Normalize(rawID)
	if !ok {
		s.events.Info(ctx, "find_comment", "Invalid comment id", params)
		return Comment{}, false, nil
	}
	c, err := s.store.Get(ctx, commentID)
	switch {
	case errors.Is(err, ErrNotFound):
		s.events.Info(ctx, "find_comment", "Comment not found", params)
		return Comment{}, false, nil
	case err != nil:
		s.events.Error(ctx, "find_comment", "Couldn't retrieve comment from DB", params, err)
		return Comment{}, false, unavailable("get", err)
	}
	s.events.Info(ctx, "find_comment", "Successfully retrieved comment from DB", params)
	return c, true, nil
}

// Wait blocks until in-flight notifications finish or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck // caller-owned context
	}
}

func (s *Service) notify(ctx context.Context, c Comment) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		params := map[string]any{"comment_id": c.ID.String(), "topic": s.topic}
		if _, err := s.publisher.Publish(pubCtx, s.topic, CreatedEvent{Type: EventCreated, Comment: c}); err != nil {
			s.events.Warn(pubCtx, "publish_comment", "Failed to publish comment notification: "+err.Error(), params)
			return
		}
		s.events.Info(pubCtx, "publish_comment", "Published comment notification", params)
	}()
}
