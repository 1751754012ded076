package server

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/datacopilot/internal/models"
	"github.com/raphaelgruber/datacopilot/internal/schema"
)

// Session holds one user session's externalized pipeline state. State is
// read and written only by that session's own requests; the manager-level
// lock covers the map, the session lock covers the fields.
type Session struct {
	ID        string
	State     models.SessionState
	Summary   *schema.Summary
	CreatedAt time.Time
	UpdatedAt time.Time

	mu sync.Mutex

	// subMu guards the subscriber map separately from the state lock so the
	// pipeline can broadcast stage events while a request holds the session.
	subMu       sync.Mutex
	subscribers map[uint64]chan any
	nextSubID   uint64
}

// Lock acquires the session for a request. Requests for the same session
// serialize; there is at most one active model call per session.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Subscribe registers a stage-event channel and returns its id.
func (s *Session) Subscribe() (uint64, chan any) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.subscribers == nil {
		s.subscribers = make(map[uint64]chan any)
	}
	s.nextSubID++
	id := s.nextSubID
	ch := make(chan any, 16)
	s.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a stage-event channel.
func (s *Session) Unsubscribe(id uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if ch, ok := s.subscribers[id]; ok {
		delete(s.subscribers, id)
		close(ch)
	}
}

// Broadcast sends an event to every subscriber without blocking the
// pipeline: a slow consumer just misses events.
func (s *Session) Broadcast(ev any) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SessionManager tracks sessions in memory. Nothing is persisted: session
// state lives only for the running process.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	logger   *slog.Logger
}

// NewSessionManager creates a session manager with the given idle TTL.
func NewSessionManager(ttl time.Duration, logger *slog.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		logger:   logger,
	}
}

// Create registers a fresh session.
func (m *SessionManager) Create() *Session {
	session := &Session{
		ID:        uuid.New().String()[:8], // Short ID for convenience
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", session.ID)
	return session
}

// Get retrieves a session by ID, or nil.
func (m *SessionManager) Get(id string) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Touch refreshes a session's idle timer.
func (m *SessionManager) Touch(session *Session) {
	m.mu.Lock()
	session.UpdatedAt = time.Now()
	m.mu.Unlock()
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle past the TTL and returns how many were removed.
func (m *SessionManager) Sweep() int {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, session := range m.sessions {
		if session.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("expired sessions swept", "removed", removed, "remaining", len(m.sessions))
	}
	return removed
}
