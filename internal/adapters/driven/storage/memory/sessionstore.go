package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore is an in-memory implementation of driven.SessionStore.
// It backs tests and the --ephemeral flag, where nothing touches disk.
type SessionStore struct {
	mu      sync.RWMutex
	session *domain.Session
	saves   int
	deletes int
}

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Load returns a copy of the stored session, or nil if none exists.
func (s *SessionStore) Load(_ context.Context) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil, nil
	}
	cp := *s.session
	return &cp, nil
}

// Save stores a copy of the session, replacing any existing one.
func (s *SessionStore) Save(_ context.Context, session *domain.Session) error {
	if session == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.session = &cp
	s.saves++
	return nil
}

// Delete removes the stored session.
func (s *SessionStore) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	s.deletes++
	return nil
}

// Close is a no-op for the memory store.
func (s *SessionStore) Close() error {
	return nil
}

// Saves returns how many times Save succeeded.
func (s *SessionStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Deletes returns how many times Delete was called.
func (s *SessionStore) Deletes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deletes
}
