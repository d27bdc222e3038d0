package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/linkboard/internal/account"
	"github.com/JakeFAU/linkboard/internal/comment"
	"github.com/JakeFAU/linkboard/internal/metrics"
	"github.com/JakeFAU/linkboard/internal/middleware"
	"github.com/JakeFAU/linkboard/internal/post"
	"github.com/JakeFAU/linkboard/internal/session"
)

// User-facing notice texts.
const (
	msgLoginToVote      = "You need to log in before you can vote"
	msgLoginToComment   = "You need to log in before you can comment"
	msgInvalidVote      = "Invalid vote"
	msgPostNotFound     = "Post not found"
	msgVoteFailed       = "Can't save your vote, some problems with the post service"
	msgInvalidURL       = "Invalid URL"
	msgInvalidTitle     = "Title is required"
	msgPostPublished    = "Post successfully published"
	msgPostFailed       = "Can't save your post, some problems with the post service"
	msgUserCreated      = "User created"
	msgUserExists       = "User already exists"
	msgSignupInvalid    = "Username and password are required"
	msgSignupFailed     = "Can't create your account, please try again later"
	msgWrongCredentials = "Wrong username or password"
	msgLoginFailed      = "Can't log you in, please try again later"
	msgCommentPublished = "Comment successfully published"
	msgCommentFailed    = "Can't save your comment, some problems with the comment service"
)

const homePath = "/posts"

// PostServer wires posts, votes and accounts to HTTP.
type PostServer struct {
	router   chi.Router
	posts    *post.Service
	accounts *account.Service
	comments *comment.Service
	sessions *session.Manager
}

// NewPostServer constructs the post router. comments and limiter may be nil;
// without comments the comment submission route is not mounted.
func NewPostServer(
	posts *post.Service,
	accounts *account.Service,
	comments *comment.Service,
	sessions *session.Manager,
	sink *metrics.Sink,
	limiter WriteLimiter,
	logger *zap.Logger,
) *PostServer {
	s := &PostServer{
		posts:    posts,
		accounts: accounts,
		comments: comments,
		sessions: sessions,
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger, "post"))
	r.Use(middleware.Recover(logger))
	r.Use(sink.Middleware)
	r.Use(sessions.Middleware)
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Method(http.MethodGet, "/metrics", sink.Handler())
	r.Get("/posts", s.listPosts)
	r.Get("/post/{id}", s.getPost)
	r.Get("/notices", s.popNotices)
	r.Get("/logout", s.logout)

	writes := r.With()
	if limiter != nil {
		writes = r.With(limiter.Middleware)
	}
	writes.Post("/add_post", s.addPost)
	writes.Put("/post/{id}/vote/{type}", s.vote)
	writes.Post("/signup", s.signup)
	writes.Post("/login", s.login)
	if comments != nil {
		writes.Post("/post/{id}/comment", s.addComment)
	}

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *PostServer) Handler() http.Handler {
	return s.router
}

func (s *PostServer) notice(w http.ResponseWriter, r *http.Request, kind, msg string) {
	s.sessions.AddNotice(w, r, session.Notice{Type: kind, Message: msg})
}

func (s *PostServer) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.posts.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "post store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *PostServer) getPost(w http.ResponseWriter, r *http.Request) {
	p, found, err := s.posts.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err != nil:
		writeError(w, http.StatusInternalServerError, "post store unavailable")
	case !found:
		writeJSON(w, http.StatusOK, struct{}{})
	default:
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *PostServer) popNotices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.PopNotices(w, r))
}

func (s *PostServer) addPost(w http.ResponseWriter, r *http.Request) {
	_, err := s.posts.Create(r.Context(), r.FormValue("title"), r.FormValue("link"), s.sessions.Username(r))
	switch {
	case errors.Is(err, post.ErrInvalidLink):
		s.notice(w, r, session.NoticeDanger, msgInvalidURL)
		redirectBack(w, r, homePath)
	case errors.Is(err, post.ErrInvalidTitle):
		s.notice(w, r, session.NoticeDanger, msgInvalidTitle)
		redirectBack(w, r, homePath)
	case err != nil:
		s.notice(w, r, session.NoticeDanger, msgPostFailed)
		http.Redirect(w, r, homePath, http.StatusSeeOther)
	default:
		s.notice(w, r, session.NoticeSuccess, msgPostPublished)
		http.Redirect(w, r, homePath, http.StatusSeeOther)
	}
}

// vote requires a signed-in user; every outcome redirects back.
func (s *PostServer) vote(w http.ResponseWriter, r *http.Request) {
	defer redirectBack(w, r, homePath)
	if s.sessions.Username(r) == "" {
		s.notice(w, r, session.NoticeDanger, msgLoginToVote)
		return
	}
	delta, err := strconv.ParseInt(chi.URLParam(r, "type"), 10, 64)
	if err != nil {
		s.notice(w, r, session.NoticeDanger, msgInvalidVote)
		return
	}
	if _, err := s.posts.Vote(r.Context(), chi.URLParam(r, "id"), delta); err != nil {
		if errors.Is(err, post.ErrNotFound) {
			s.notice(w, r, session.NoticeDanger, msgPostNotFound)
			return
		}
		s.notice(w, r, session.NoticeDanger, msgVoteFailed)
	}
}

func (s *PostServer) signup(w http.ResponseWriter, r *http.Request) {
	u, err := s.accounts.Signup(r.Context(), r.FormValue("username"), r.FormValue("password"))
	switch {
	case errors.Is(err, account.ErrUserExists):
		s.notice(w, r, session.NoticeDanger, msgUserExists)
		redirectBack(w, r, homePath)
	case errors.Is(err, account.ErrInvalidInput):
		s.notice(w, r, session.NoticeDanger, msgSignupInvalid)
		redirectBack(w, r, homePath)
	case err != nil:
		s.notice(w, r, session.NoticeDanger, msgSignupFailed)
		redirectBack(w, r, homePath)
	default:
		s.sessions.SignIn(w, r, u.Username)
		s.notice(w, r, session.NoticeSuccess, msgUserCreated)
		http.Redirect(w, r, homePath, http.StatusSeeOther)
	}
}

func (s *PostServer) login(w http.ResponseWriter, r *http.Request) {
	u, err := s.accounts.Authenticate(r.Context(), r.FormValue("username"), r.FormValue("password"))
	switch {
	case errors.Is(err, account.ErrInvalidCredentials):
		s.notice(w, r, session.NoticeDanger, msgWrongCredentials)
		redirectBack(w, r, homePath)
	case err != nil:
		s.notice(w, r, session.NoticeDanger, msgLoginFailed)
		redirectBack(w, r, homePath)
	default:
		s.sessions.SignIn(w, r, u.Username)
		http.Redirect(w, r, homePath, http.StatusSeeOther)
	}
}

func (s *PostServer) logout(w http.ResponseWriter, r *http.Request) {
	s.sessions.SignOut(w, r)
	redirectBack(w, r, homePath)
}

// addComment posts a comment as the signed-in user.
func (s *PostServer) addComment(w http.ResponseWriter, r *http.Request) {
	defer redirectBack(w, r, homePath)
	username := s.sessions.Username(r)
	if username == "" {
		s.notice(w, r, session.NoticeDanger, msgLoginToComment)
		return
	}
	p, found, err := s.posts.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil || !found {
		s.notice(w, r, session.NoticeDanger, msgPostNotFound)
		return
	}
	_, err = s.comments.Create(r.Context(), comment.NewComment{
		PostID: p.ID.String(),
		Name:   username,
		Body:   r.FormValue("body"),
	})
	if err != nil {
		s.notice(w, r, session.NoticeDanger, msgCommentFailed)
		return
	}
	s.notice(w, r, session.NoticeSuccess, msgCommentPublished)
}
