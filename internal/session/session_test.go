package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// serve runs fn behind the middleware and returns the recorder.
func serve(m *Manager, cookies []*http.Cookie, fn func(w http.ResponseWriter, r *http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	m.Middleware(http.HandlerFunc(fn)).ServeHTTP(rec, req)
	return rec
}

func TestNoticesAreReturnedOnce(t *testing.T) {
	t.Parallel()

	m := NewManager("", false)
	rec := serve(m, nil, func(w http.ResponseWriter, r *http.Request) {
		m.AddNotice(w, r, Notice{Type: NoticeDanger, Message: "You need to log in before you can vote"})
		m.AddNotice(w, r, Notice{Type: NoticeSuccess, Message: "second"})
	})
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, DefaultCookieName, cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)

	var first, second []Notice
	serve(m, cookies, func(w http.ResponseWriter, r *http.Request) { first = m.PopNotices(w, r) })
	serve(m, cookies, func(w http.ResponseWriter, r *http.Request) { second = m.PopNotices(w, r) })

	require.Equal(t, []Notice{
		{Type: NoticeDanger, Message: "You need to log in before you can vote"},
		{Type: NoticeSuccess, Message: "second"},
	}, first)
	require.NotNil(t, second)
	require.Empty(t, second)
}

func TestSignInAndOut(t *testing.T) {
	t.Parallel()

	m := NewManager("sid", true)
	rec := serve(m, nil, func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, m.Username(r))
		m.SignIn(w, r, "ada")
		require.Equal(t, "ada", m.Username(r))
	})
	cookies := rec.Result().Cookies()
	require.True(t, cookies[0].Secure)

	serve(m, cookies, func(_ http.ResponseWriter, r *http.Request) {
		require.Equal(t, "ada", m.Username(r))
	})
	serve(m, cookies, func(w http.ResponseWriter, r *http.Request) {
		m.SignOut(w, r)
	})
	serve(m, cookies, func(_ http.ResponseWriter, r *http.Request) {
		require.Empty(t, m.Username(r))
	})
}

func TestUnknownCookieStartsFreshSession(t *testing.T) {
	t.Parallel()

	m := NewManager("", false)
	forged := []*http.Cookie{{Name: DefaultCookieName, Value: "forged"}}
	rec := serve(m, forged, func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, m.Username(r))
		m.SignIn(w, r, "mallory")
	})
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.NotEqual(t, "forged", cookies[0].Value)
}

func TestIdleSessionsAreSwept(t *testing.T) {
	t.Parallel()

	m := NewManager("", false)
	now := time.Unix(1700000000, 0)
	m.now = func() time.Time { return now }

	rec := serve(m, nil, func(w http.ResponseWriter, r *http.Request) { m.SignIn(w, r, "ada") })
	old := rec.Result().Cookies()

	now = now.Add(DefaultIdleTTL + time.Minute)
	serve(m, nil, func(w http.ResponseWriter, r *http.Request) { m.SignIn(w, r, "grace") })

	serve(m, old, func(_ http.ResponseWriter, r *http.Request) {
		require.Empty(t, m.Username(r))
	})
}
