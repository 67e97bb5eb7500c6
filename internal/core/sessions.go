package core

// sessions.go keeps the in-memory registry of open sessions.
//
// Sessions are never persisted. A background janitor discards sessions that
// have been idle longer than the configured TTL; nothing survives a restart
// unless it was exported first.

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxSessions caps open sessions when no limit is configured.
const DefaultMaxSessions = 100

// DefaultSessionTTL is the idle time after which a session is discarded.
const DefaultSessionTTL = 2 * time.Hour

// SessionManagerConfig holds settings for the session registry.
// Zero values fall back to defaults.
type SessionManagerConfig struct {
	MaxSessions int
	IdleTTL     time.Duration
	Schema      Schema // Defaults to DefaultSchema()
	Logger      *slog.Logger
}

// SessionManager is a concurrency-safe registry of sessions.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	max    int
	ttl    time.Duration
	schema Schema
	logger *slog.Logger
}

// NewSessionManager creates an empty registry.
func NewSessionManager(cfg SessionManagerConfig) *SessionManager {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultSessionTTL
	}
	if len(cfg.Schema) == 0 {
		cfg.Schema = DefaultSchema()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &SessionManager{
		sessions: make(map[string]*Session),
		max:      cfg.MaxSessions,
		ttl:      cfg.IdleTTL,
		schema:   cfg.Schema,
		logger:   cfg.Logger,
	}
}

// Create opens a new, empty session.
func (m *SessionManager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.max {
		return nil, fmt.Errorf("%w (limit %d)", ErrTooManySessions, m.max)
	}

	id := uuid.NewString()
	s := NewSession(id, m.schema, m.logger)
	m.sessions[id] = s

	m.logger.Debug("session created", "session_id", id, "open", len(m.sessions))
	return s, nil
}

// Get returns a session by id and marks it as recently used.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.touch()
	return s, nil
}

// Delete ends a session. Unknown ids are ignored.
func (m *SessionManager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		m.logger.Debug("session deleted", "session_id", id)
	}
}

// Count returns the number of open sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs returns the open session ids, sorted.
func (m *SessionManager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EvictIdle removes sessions idle since before now-TTL and returns how many
// were removed.
func (m *SessionManager) EvictIdle(now time.Time) int {
	cutoff := now.Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

// StartJanitor evicts idle sessions every interval until ctx is cancelled.
func (m *SessionManager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	m.logger.Info("session janitor started",
		"interval", interval.String(),
		"idle_ttl", m.ttl.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("session janitor stopped")
			return
		case now := <-ticker.C:
			if n := m.EvictIdle(now); n > 0 {
				m.logger.Info("evicted idle sessions", "count", n, "open", m.Count())
			}
		}
	}
}
