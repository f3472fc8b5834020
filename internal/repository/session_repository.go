package repository

import (
	"fmt"
	"sync"
	"time"

	"pdf-suite-server/internal/domain"
)

// SessionRepository implements the domain.SessionRepository interface in
// memory. Sessions hold open documents and are never persisted.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	logger   domain.Logger
}

func NewSessionRepository(logger domain.Logger) *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]*domain.Session),
		logger:   logger,
	}
}

func (r *SessionRepository) Create(session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[session.ID]; exists {
		return fmt.Errorf("session %s already exists", session.ID)
	}
	r.sessions[session.ID] = session
	return nil
}

func (r *SessionRepository) Get(id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return s, nil
}

// Delete removes the session and closes its viewer.
func (r *SessionRepository) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	r.close(s)
	return nil
}

// Sweep removes sessions idle since before cutoff and closes their viewers.
func (r *SessionRepository) Sweep(cutoff time.Time) int {
	var expired []*domain.Session
	r.mu.Lock()
	for id, s := range r.sessions {
		if s.IdleSince(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		r.close(s)
	}
	return len(expired)
}

// Len returns the number of open sessions.
func (r *SessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *SessionRepository) close(s *domain.Session) {
	if s.Viewer == nil {
		return
	}
	if err := s.Viewer.Close(); err != nil {
		r.logger.Warn("Failed to close session viewer", "session", s.ID, "error", err)
	}
}
