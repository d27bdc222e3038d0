package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/JakeFAU/linkboard/internal/comment"
	"github.com/JakeFAU/linkboard/internal/health"
	"github.com/JakeFAU/linkboard/internal/storage/memory"
)

func TestAddCommentThenList(t *testing.T) {
	t.Parallel()

	f := newCommentFixture(t, memory.NewCommentStore(), health.Report{})
	postID := "65f0a1b2-0000-7000-8000-0000000000aa"

	req := formRequest(http.MethodPost, "/add_comment", url.Values{
		"post_id":    {postID},
		"name":       {"ann"},
		"email":      {"a@x"},
		"body":       {"hi"},
		"created_at": {"1700000000"},
	})
	req.Header.Set("Request-Id", "r1")
	rec := f.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	var created comment.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEqual(t, uuid.Nil, created.ID)
	require.Equal(t, postID, created.PostID)
	require.Equal(t, "ann", created.Name)
	require.EqualValues(t, 1700000000, created.CreatedAt)
	require.InDelta(t, 1.0, commentCount(t, f.sink), 0)

	entries := f.logs.FilterField(zap.String("event", "add_comment")).All()
	require.NotEmpty(t, entries)
	require.Equal(t, "r1", entries[0].ContextMap()["request_id"])

	rec = f.do(httptest.NewRequest(http.MethodGet, "/"+postID+"/comments", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []comment.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, created.ID, list[0].ID)
}

func TestAddCommentUppercasePostIDIsListable(t *testing.T) {
	t.Parallel()

	f := newCommentFixture(t, memory.NewCommentStore(), health.Report{})
	postID := "65F0A1B2-0000-7000-8000-0000000000AA"

	rec := f.do(formRequest(http.MethodPost, "/add_comment", url.Values{"post_id": {postID}, "body": {"hi"}, "created_at": {"5"}}))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/"+postID+"/comments", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []comment.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, "65f0a1b2-0000-7000-8000-0000000000aa", list[0].PostID)
}

func TestAddCommentTrailingSlash(t *testing.T) {
	t.Parallel()

	f := newCommentFixture(t, memory.NewCommentStore(), health.Report{})
	rec := f.do(formRequest(http.MethodPost, "/add_comment/", url.Values{"post_id": {"p"}, "body": {"b"}, "created_at": {"5"}}))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAddCommentMissingTimestampUsesServerClock(t *testing.T) {
	t.Parallel()

	f := newCommentFixture(t, memory.NewCommentStore(), health.Report{})
	rec := f.do(formRequest(http.MethodPost, "/add_comment", url.Values{"post_id": {"p"}, "body": {"b"}, "created_at": {"yesterday"}}))

	require.Equal(t, http.StatusOK, rec.Code)
	var created comment.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, testNow, created.CreatedAt)
	require.Equal(t, 1, f.logs.FilterLevelExact(zapcore.WarnLevel).FilterField(zap.String("event", "add_comment")).Len())
}

func TestAddCommentStoreDown(t *testing.T) {
	t.Parallel()

	f := newCommentFixture(t, downStore{}, health.Report{})
	rec := f.do(formRequest(http.MethodPost, "/add_comment", url.Values{"post_id": {"p"}, "body": {"b"}}))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.InDelta(t, 0.0, commentCount(t, f.sink), 0)
	require.Equal(t, 1, f.logs.FilterLevelExact(zapcore.ErrorLevel).FilterField(zap.String("event", "add_comment")).Len())
}

func TestFindPostCommentsInvalidID(t *testing.T) {
	t.Parallel()

	f := newCommentFixture(t, downStore{}, health.Report{})
	rec := f.do(httptest.NewRequest(http.MethodGet, "/abc/comments", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestFindPostCommentsStoreDown(t *testing.T) {
	t.Parallel()

	f := newCommentFixture(t, downStore{}, health.Report{})
	rec := f.do(httptest.NewRequest(http.MethodGet, "/"+uuid.NewString()+"/comments", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetCommentMissingReturnsEmptyObject(t *testing.T) {
	t.Parallel()

	f := newCommentFixture(t, memory.NewCommentStore(), health.Report{})
	rec := f.do(httptest.NewRequest(http.MethodGet, "/comment/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{}`, rec.Body.String())
}

func TestHealthcheckServesLatestReport(t *testing.T) {
	t.Parallel()

	report := health.Report{Status: 1, DependentServices: health.DependentServices{CommentDB: 1}, Version: "1.4.0"}
	f := newCommentFixture(t, memory.NewCommentStore(), report)
	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthcheck", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":1,"dependent_services":{"commentdb":1},"version":"1.4.0"}`, rec.Body.String())
}

func TestUnknownRouteIsPlainNotFound(t *testing.T) {
	t.Parallel()

	f := newCommentFixture(t, memory.NewCommentStore(), health.Report{})
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/nope", nil),
		httptest.NewRequest(http.MethodDelete, "/healthcheck", nil),
	} {
		rec := f.do(req)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "Page not found", rec.Body.String())
		require.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	f := newCommentFixture(t, memory.NewCommentStore(), health.Report{})
	rec := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "comment_count")
}
