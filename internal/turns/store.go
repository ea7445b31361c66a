package turns

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned when a turn ID does not exist in the store.
var ErrNotFound = errors.New("turn not found")

// Store is an in-memory turn store. It is safe for concurrent use; data is
// lost on service restart.
type Store struct {
	mu    sync.RWMutex
	turns map[string]*Turn
}

// NewStore creates an empty turn store.
func NewStore() *Store {
	return &Store{turns: make(map[string]*Turn)}
}

// Save stores or replaces a turn by ID. The stored value is a copy.
func (s *Store) Save(turn *Turn) error {
	if turn.ID == "" {
		return errors.New("Save: turn ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	turnCopy := *turn
	s.turns[turn.ID] = &turnCopy
	return nil
}

// Get retrieves a turn by ID. The returned value is a copy.
func (s *Store) Get(id string) (*Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turn, ok := s.turns[id]
	if !ok {
		return nil, fmt.Errorf("Get %q: %w", id, ErrNotFound)
	}
	turnCopy := *turn
	return &turnCopy, nil
}
