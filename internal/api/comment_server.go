package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/linkboard/internal/comment"
	"github.com/JakeFAU/linkboard/internal/health"
	"github.com/JakeFAU/linkboard/internal/logging"
	"github.com/JakeFAU/linkboard/internal/metrics"
	"github.com/JakeFAU/linkboard/internal/middleware"
)

// HealthSource exposes the most recent health report.
type HealthSource interface {
	Latest() health.Report
}

// WriteLimiter throttles write routes.
type WriteLimiter interface {
	Middleware(next http.Handler) http.Handler
}

// CommentServer wires the comment service to HTTP.
type CommentServer struct {
	router   chi.Router
	comments *comment.Service
	health   HealthSource
	events   *logging.Events
}

// NewCommentServer constructs the comment router. limiter may be nil.
func NewCommentServer(
	comments *comment.Service,
	healthSource HealthSource,
	sink *metrics.Sink,
	events *logging.Events,
	limiter WriteLimiter,
	logger *zap.Logger,
) *CommentServer {
	s := &CommentServer{
		comments: comments,
		health:   healthSource,
		events:   events,
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger, "comment"))
	r.Use(middleware.Recover(logger))
	r.Use(sink.Middleware)
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Get("/healthcheck", s.healthcheck)
	r.Method(http.MethodGet, "/metrics", sink.Handler())
	r.Get("/{id}/comments", s.findPostComments)
	r.Get("/comment/{id}", s.getComment)

	writes := r.With()
	if limiter != nil {
		writes = r.With(limiter.Middleware)
	}
	writes.Post("/add_comment", s.addComment)
	writes.Post("/add_comment/", s.addComment)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *CommentServer) Handler() http.Handler {
	return s.router
}

func (s *CommentServer) healthcheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.health.Latest())
}

func (s *CommentServer) findPostComments(w http.ResponseWriter, r *http.Request) {
	list, err := s.comments.ListByPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "comment store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *CommentServer) getComment(w http.ResponseWriter, r *http.Request) {
	c, found, err := s.comments.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err != nil:
		writeError(w, http.StatusInternalServerError, "comment store unavailable")
	case !found:
		writeJSON(w, http.StatusOK, struct{}{})
	default:
		writeJSON(w, http.StatusOK, c)
	}
}

func (s *CommentServer) addComment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.events.Warn(r.Context(), "add_comment", "Bad input data: "+err.Error(), nil)
		writeError(w, http.StatusBadRequest, "malformed form body")
		return
	}
	in := comment.NewComment{
		PostID: r.PostForm.Get("post_id"),
		Name:   r.PostForm.Get("name"),
		Email:  r.PostForm.Get("email"),
		Body:   r.PostForm.Get("body"),
	}
	rawCreatedAt := strings.TrimSpace(r.PostForm.Get("created_at"))
	createdAt, err := strconv.ParseInt(rawCreatedAt, 10, 64)
	if err != nil || createdAt <= 0 {
		s.events.Warn(r.Context(), "add_comment", "Bad input data, created_at replaced with server time",
			map[string]any{"created_at": rawCreatedAt})
		createdAt = 0
	}
	in.CreatedAt = createdAt

	c, err := s.comments.Create(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "comment store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, c)
}
