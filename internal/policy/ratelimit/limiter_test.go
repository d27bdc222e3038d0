package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAllowIsPerClient(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: 0.001, Burst: 2}, zap.NewNop())
	require.True(t, l.Allow("10.0.0.1"))
	require.True(t, l.Allow("10.0.0.1"))
	require.False(t, l.Allow("10.0.0.1"))
	require.True(t, l.Allow("10.0.0.2"))
}

func TestNonPositiveRateIsUnlimited(t *testing.T) {
	t.Parallel()

	l := New(Config{}, nil)
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("c"))
	}
}

func TestMiddlewareReturns429(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: 0.001, Burst: 1}, zap.NewNop())
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodPost, "/add_comment", nil)
	first.RemoteAddr = "192.0.2.1:4000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	second := httptest.NewRequest(http.MethodPost, "/add_comment", nil)
	second.RemoteAddr = "192.0.2.1:4001"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestIdleClientsAreEvicted(t *testing.T) {
	t.Parallel()

	l := New(Config{RPS: 0.001, Burst: 1, IdleTTL: time.Minute}, zap.NewNop())
	now := time.Unix(1700000000, 0)
	l.now = func() time.Time { return now }

	require.True(t, l.Allow("10.0.0.1"))
	require.True(t, l.Allow("10.0.0.2"))
	require.Len(t, l.limiters, 2)

	now = now.Add(30 * time.Second)
	require.False(t, l.Allow("10.0.0.2"))

	now = now.Add(45 * time.Second)
	require.True(t, l.Allow("10.0.0.3"))
	require.Len(t, l.limiters, 2)
	require.NotContains(t, l.limiters, "10.0.0.1")
	require.Contains(t, l.limiters, "10.0.0.2")
}
