package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store defines the interface for state storage backends
type Store interface {
	SaveSession(sess *Session) error
	GetSession(id string) (*Session, error)
	ListSessions(limit int) ([]*Session, error)
	DeleteSession(id string) error

	IncrementCounter(name string, delta int64) (int64, error)
	GetCounter(name string) (int64, error)

	SetMarker(name, value string) error
	GetMarker(name string) (string, error)

	Close() error
}

// Manager manages session state
type Manager struct {
	store      Store
	mu         sync.RWMutex
	activeSess *Session
}

// NewManager creates a new state manager
func NewManager(driver, path string) (*Manager, error) {
	var store Store
	var err error

	switch driver {
	case "memory", "":
		store = NewMemoryStore()
	case "sqlite":
		store, err = NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite store: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported state driver: %s", driver)
	}

	return &Manager{store: store}, nil
}

// Close closes the state manager
func (m *Manager) Close() error {
	return m.store.Close()
}

// StartSession creates and returns a new session
func (m *Manager) StartSession(tool string, metadata map[string]interface{}) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := NewSession(uuid.New().String(), tool)
	if metadata != nil {
		sess.Metadata = metadata
	}

	if err := m.store.SaveSession(sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	m.activeSess = sess
	return sess, nil
}

// RecordOp appends an operation to the active session and persists it
func (m *Manager) RecordOp(op OpRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeSess == nil {
		return fmt.Errorf("no active session")
	}

	m.activeSess.Record(op)
	if err := m.store.SaveSession(m.activeSess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// CompleteSession marks the active session as complete
func (m *Manager) CompleteSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeSess == nil {
		return fmt.Errorf("no active session")
	}

	m.activeSess.Status = "completed"
	m.activeSess.CompletedAt = time.Now()

	if err := m.store.SaveSession(m.activeSess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return m.saveSessionFile(m.activeSess)
}

// FailSession marks the active session as failed
func (m *Manager) FailSession(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeSess == nil {
		return fmt.Errorf("no active session")
	}

	m.activeSess.Status = "failed"
	m.activeSess.CompletedAt = time.Now()
	m.activeSess.Error = err.Error()

	if saveErr := m.store.SaveSession(m.activeSess); saveErr != nil {
		return fmt.Errorf("failed to save session: %w", saveErr)
	}

	return nil
}

// GetActiveSession returns the current active session
func (m *Manager) GetActiveSession() (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.activeSess != nil {
		return m.activeSess, nil
	}

	// Try to find an active session in storage
	sessions, err := m.store.ListSessions(1)
	if err != nil {
		return nil, err
	}

	for _, sess := range sessions {
		if sess.IsActive() {
			return sess, nil
		}
	}

	return nil, nil
}

// ListSessions lists recent sessions
func (m *Manager) ListSessions(limit int) ([]*Session, error) {
	return m.store.ListSessions(limit)
}

// GetSession loads a session by ID
func (m *Manager) GetSession(id string) (*Session, error) {
	return m.store.GetSession(id)
}

// IncrementCounter bumps a persistent counter and returns the new value
func (m *Manager) IncrementCounter(name string, delta int64) (int64, error) {
	return m.store.IncrementCounter(name, delta)
}

// GetCounter returns a persistent counter value
func (m *Manager) GetCounter(name string) (int64, error) {
	return m.store.GetCounter(name)
}

// SetMarker stores a named marker value
func (m *Manager) SetMarker(name, value string) error {
	return m.store.SetMarker(name, value)
}

// GetMarker returns a named marker value, or empty string if unset
func (m *Manager) GetMarker(name string) (string, error) {
	return m.store.GetMarker(name)
}

// SetMetadata sets a key-value pair on the active session's metadata.
func (m *Manager) SetMetadata(key string, value interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeSess == nil {
		return
	}
	if m.activeSess.Metadata == nil {
		m.activeSess.Metadata = make(map[string]interface{})
	}
	m.activeSess.Metadata[key] = value
}

// saveSessionFile saves a completed session to a file for recovery
func (m *Manager) saveSessionFile(sess *Session) error {
	dir := ".lore/sessions"
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create sessions dir: %w", err)
	}

	filename := filepath.Join(dir, sess.ID+".json")
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return os.WriteFile(filename, data, 0644)
}
