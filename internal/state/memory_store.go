package state

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryStore implements an in-memory state store
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	counters map[string]int64
	markers  map[string]string
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		counters: make(map[string]int64),
		markers:  make(map[string]string),
	}
}

// SaveSession saves a session
func (s *MemoryStore) SaveSession(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

// GetSession retrieves a session
func (s *MemoryStore) GetSession(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	return nil, fmt.Errorf("session not found: %s", id)
}

// ListSessions lists recent sessions
func (s *MemoryStore) ListSessions(limit int) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}

	// Sort by start time descending
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})

	if len(sessions) > limit {
		sessions = sessions[:limit]
	}

	return sessions, nil
}

// DeleteSession deletes a session
func (s *MemoryStore) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// IncrementCounter bumps a counter and returns the new value
func (s *MemoryStore) IncrementCounter(name string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[name] += delta
	return s.counters[name], nil
}

// GetCounter returns a counter value
func (s *MemoryStore) GetCounter(name string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[name], nil
}

// SetMarker stores a marker value
func (s *MemoryStore) SetMarker(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[name] = value
	return nil
}

// GetMarker returns a marker value
func (s *MemoryStore) GetMarker(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.markers[name], nil
}

// Close closes the store (no-op for memory)
func (s *MemoryStore) Close() error {
	return nil
}
