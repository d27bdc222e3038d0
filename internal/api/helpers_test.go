package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/JakeFAU/linkboard/internal/account"
	"github.com/JakeFAU/linkboard/internal/comment"
	"github.com/JakeFAU/linkboard/internal/health"
	"github.com/JakeFAU/linkboard/internal/id"
	"github.com/JakeFAU/linkboard/internal/logging"
	"github.com/JakeFAU/linkboard/internal/metrics"
	"github.com/JakeFAU/linkboard/internal/post"
	"github.com/JakeFAU/linkboard/internal/session"
	"github.com/JakeFAU/linkboard/internal/storage/memory"
)

const testNow = int64(1700000500)

type fixedClock struct{}

func (fixedClock) Unix() int64 { return testNow }

type staticHealth struct{ report health.Report }

func (s staticHealth) Latest() health.Report { return s.report }

type downStore struct{}

func (downStore) Create(context.Context, comment.Comment) (comment.Comment, error) {
	return comment.Comment{}, errors.New("connection refused")
}

func (downStore) ListByPost(context.Context, string) ([]comment.Comment, error) {
	return nil, errors.New("connection refused")
}

func (downStore) Get(context.Context, uuid.UUID) (comment.Comment, error) {
	return comment.Comment{}, errors.New("connection refused")
}

type commentFixture struct {
	server *CommentServer
	sink   *metrics.Sink
	logs   *observer.ObservedLogs
}

func newCommentFixture(t *testing.T, store comment.Store, report health.Report) commentFixture {
	t.Helper()
	sink, err := metrics.NewSink()
	require.NoError(t, err)
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	events := logging.NewEvents(logger, "comment")
	svc := comment.NewService(store, id.NewGenerator(), fixedClock{}, sink, events)
	return commentFixture{
		server: NewCommentServer(svc, staticHealth{report: report}, sink, events, nil, logger),
		sink:   sink,
		logs:   logs,
	}
}

func (f commentFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func commentCount(t *testing.T, sink *metrics.Sink) float64 {
	t.Helper()
	families, err := sink.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == metrics.CommentCount {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("%s not registered", metrics.CommentCount)
	return 0
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

type postFixture struct {
	server *PostServer
	posts  *post.Service
	store  *memory.PostStore
	cookie []*http.Cookie
}

func newPostFixture(t *testing.T) *postFixture {
	t.Helper()
	sink, err := metrics.NewSink()
	require.NoError(t, err)
	events := logging.NewEvents(zap.NewNop(), "post")
	store := memory.NewPostStore()
	posts := post.NewService(store, id.NewGenerator(), fixedClock{}, events)
	accounts := account.NewService(memory.NewUserStore(), fixedClock{}, events, account.WithCost(bcrypt.MinCost))
	comments := comment.NewService(memory.NewCommentStore(), id.NewGenerator(), fixedClock{}, sink, events)
	return &postFixture{
		server: NewPostServer(posts, accounts, comments, session.NewManager("", false), sink, nil, zap.NewNop()),
		posts:  posts,
		store:  store,
	}
}

// do sends req with the fixture's cookies and remembers any new ones.
func (f *postFixture) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range f.cookie {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		f.cookie = cookies
	}
	return rec
}
