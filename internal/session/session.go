// Package session keeps signed-in users and one-shot notices in process
// memory, keyed by an opaque cookie.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notice kinds.
const (
	NoticeSuccess = "success"
	NoticeDanger  = "danger"
)

// DefaultCookieName is used when none is configured.
const DefaultCookieName = "linkboard_session"

// DefaultIdleTTL is how long an untouched session survives.
const DefaultIdleTTL = 24 * time.Hour

// Notice is a message shown to the user exactly once.
type Notice struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type state struct {
	username string
	notices  []Notice
	lastSeen time.Time
}

type handle struct {
	id string
}

type ctxKey struct{}

// Manager owns every live session. Sessions are created lazily, on the
// first write, so anonymous readers cost nothing.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*state

	cookieName string
	secure     bool
	idleTTL    time.Duration
	now        func() time.Time
}

// NewManager builds a Manager using cookieName for the session cookie.
func NewManager(cookieName string, secure bool) *Manager {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Manager{
		sessions:   make(map[string]*state),
		cookieName: cookieName,
		secure:     secure,
		idleTTL:    DefaultIdleTTL,
		now:        time.Now,
	}
}

// Middleware attaches the caller's session handle to the request context.
// It must wrap every handler that uses the Manager.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := &handle{}
		if c, err := r.Cookie(m.cookieName); err == nil && m.touch(c.Value) {
			h.id = c.Value
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, h)))
	})
}

// Username returns the signed-in user, or "" for anonymous requests.
func (m *Manager) Username(r *http.Request) string {
	h := handleFrom(r)
	if h == nil || h.id == "" {
		return ""
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[h.id]; ok {
		return s.username
	}
	return ""
}

// SignIn marks the session as belonging to username.
func (m *Manager) SignIn(w http.ResponseWriter, r *http.Request, username string) {
	m.update(w, r, func(s *state) { s.username = username })
}

// SignOut clears the user but keeps pending notices.
func (m *Manager) SignOut(w http.ResponseWriter, r *http.Request) {
	m.update(w, r, func(s *state) { s.username = "" })
}

// AddNotice queues n for the next PopNotices call.
func (m *Manager) AddNotice(w http.ResponseWriter, r *http.Request, n Notice) {
	m.update(w, r, func(s *state) { s.notices = append(s.notices, n) })
}

// PopNotices returns and clears the queued notices. The result is never nil.
func (m *Manager) PopNotices(_ http.ResponseWriter, r *http.Request) []Notice {
	h := handleFrom(r)
	if h == nil || h.id == "" {
		return []Notice{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[h.id]
	if !ok || len(s.notices) == 0 {
		return []Notice{}
	}
	out := s.notices
	s.notices = nil
	return out
}

func (m *Manager) update(w http.ResponseWriter, r *http.Request, fn func(*state)) {
	h := handleFrom(r)
	if h == nil {
		// no middleware; nothing can carry the session back to the client
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[h.id]
	if h.id == "" || !ok {
		m.sweepLocked()
		h.id = uuid.NewString()
		s = &state{}
		m.sessions[h.id] = s
		http.SetCookie(w, &http.Cookie{
			Name:     m.cookieName,
			Value:    h.id,
			Path:     "/",
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	s.lastSeen = m.now()
	fn(s)
}

func (m *Manager) touch(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if ok {
		s.lastSeen = m.now()
	}
	return ok
}

func (m *Manager) sweepLocked() {
	cutoff := m.now().Add(-m.idleTTL)
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}

func handleFrom(r *http.Request) *handle {
	h, _ := r.Context().Value(ctxKey{}).(*handle)
	return h
}
