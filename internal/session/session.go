// Package session keeps the loaded conversation scopes the API serves
// turns against. A session owns an immutable transaction list and the
// locale answers are rendered in; turn serialization per session is
// enforced here so two concurrent asks can never interleave on the same
// scope.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"finassist/internal/domain"
)

// ErrNotFound is returned when a session ID does not exist in the store.
var ErrNotFound = errors.New("session not found")

// Session is one loaded conversation scope. Transactions is immutable
// after creation, so copies returned by the store may share it safely.
type Session struct {
	ID           string
	Locale       domain.UserLocale
	Transactions []domain.Transaction
	Meta         domain.DatasetMeta
	CreatedAt    time.Time
}

// Store is an in-memory session store. It is safe for concurrent use.
// Data is lost on service restart.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

type entry struct {
	session Session
	busy    bool
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*entry)}
}

// Create registers a new session over the given transactions and returns
// it with a generated ID.
func (s *Store) Create(locale domain.UserLocale, transactions []domain.Transaction, meta domain.DatasetMeta) Session {
	session := Session{
		ID:           uuid.New().String(),
		Locale:       locale,
		Transactions: transactions,
		Meta:         meta,
		CreatedAt:    time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = &entry{session: session}

	return session
}

// Get retrieves a session by ID. The returned value is a copy; its
// transaction slice is shared and must not be mutated.
func (s *Store) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("Get %q: %w", id, ErrNotFound)
	}
	return e.session, nil
}

// Delete removes a session. Deleting an unknown ID is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// TryLockTurn marks the session as having a turn in flight. It returns
// false without blocking when another turn already holds the lock, so
// callers can reject the second ask instead of queueing it.
func (s *Store) TryLockTurn(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return false, fmt.Errorf("TryLockTurn %q: %w", id, ErrNotFound)
	}
	if e.busy {
		return false, nil
	}
	e.busy = true
	return true, nil
}

// UnlockTurn releases the session's turn lock. Unlocking an unknown or
// idle session is a no-op.
func (s *Store) UnlockTurn(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[id]; ok {
		e.busy = false
	}
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
