package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bibliojobs/sift/internal/globaltime"
)

// Session is one authenticated API session.
type Session struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

// SessionManager issues and validates opaque session tokens. Sessions live
// in memory only; a process restart logs everyone out.
type SessionManager struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]Session
}

func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 168 * time.Hour
	}
	return &SessionManager{
		ttl:      ttl,
		sessions: map[string]Session{},
	}
}

// Issue creates a session for username. Expired sessions are purged on the
// way so the map cannot grow without bound.
func (m *SessionManager) Issue(username string) Session {
	now := globaltime.UTC()
	session := Session{
		Token:     uuid.NewString(),
		Username:  NormalizeUsername(username),
		ExpiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeLocked(now)
	m.sessions[session.Token] = session
	return session
}

// Lookup returns the session for token if it exists and has not expired.
// An expired session is removed on lookup.
func (m *SessionManager) Lookup(token string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[token]
	if !ok {
		return Session{}, false
	}
	if !session.ExpiresAt.After(globaltime.UTC()) {
		delete(m.sessions, token)
		return Session{}, false
	}
	return session, true
}

func (m *SessionManager) Revoke(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

func (m *SessionManager) purgeLocked(now time.Time) {
	for token, session := range m.sessions {
		if !session.ExpiresAt.After(now) {
			delete(m.sessions, token)
		}
	}
}
