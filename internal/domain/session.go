package domain

import (
	"sync"
	"time"

	"pdf-suite-server/internal/pagerange"
)

// Session is the state of one open document in the viewer: its bytes, the
// split cuts chosen so far and the render slot. Handlers read it; only the
// session service mutates it.
type Session struct {
	ID     string
	Name   string
	PDF    []byte
	Info   DocumentInfo
	Viewer Viewer

	mu       sync.Mutex
	cuts     *pagerange.CutSet
	lastUsed time.Time
}

// NewSession wraps an opened document.
func NewSession(id, name string, pdf []byte, info DocumentInfo, viewer Viewer, now time.Time) *Session {
	return &Session{
		ID:       id,
		Name:     name,
		PDF:      pdf,
		Info:     info,
		Viewer:   viewer,
		cuts:     pagerange.NewCutSet(info.PageCount),
		lastUsed: now,
	}
}

// WithCuts runs fn with the session's cut set held exclusively.
func (s *Session) WithCuts(fn func(c *pagerange.CutSet) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.cuts)
}

// Touch records activity on the session.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

// IdleSince reports whether the session has been unused since before cutoff.
func (s *Session) IdleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed.Before(cutoff)
}
