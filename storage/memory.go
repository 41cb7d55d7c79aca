package storage

import (
	"context"
	"sync"
)

// InMemoryStorage implements TranscriptStorage using an in-memory map.
// Data is lost when process terminates.
type InMemoryStorage struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
	order    []string // most recently updated last
}

// NewInMemoryStorage creates a new in-memory storage.
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		sessions: make(map[string][]Turn),
	}
}

// Append adds a turn to a session.
func (s *InMemoryStorage) Append(ctx context.Context, sessionID string, turn Turn) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = append(s.sessions[sessionID], turn)
	s.touch(sessionID)
	return nil
}

// Load loads the turns of a session.
// Returns empty slice if session doesn't exist.
func (s *InMemoryStorage) Load(ctx context.Context, sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[sessionID]
	copied := make([]Turn, len(turns))
	copy(copied, turns)
	return copied, nil
}

// Delete deletes a session.
func (s *InMemoryStorage) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	s.removeFromOrder(sessionID)
	return nil
}

// ListSessions lists all session IDs, most recently updated first.
func (s *InMemoryStorage) ListSessions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		sessions = append(sessions, s.order[i])
	}
	return sessions, nil
}

// Exists checks if a session exists.
func (s *InMemoryStorage) Exists(ctx context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sessions[sessionID]
	return ok, nil
}

// touch moves sessionID to the most recent position. Caller holds mu.
func (s *InMemoryStorage) touch(sessionID string) {
	s.removeFromOrder(sessionID)
	s.order = append(s.order, sessionID)
}

func (s *InMemoryStorage) removeFromOrder(sessionID string) {
	for i, id := range s.order {
		if id == sessionID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Verify InMemoryStorage implements TranscriptStorage
var _ TranscriptStorage = (*InMemoryStorage)(nil)
