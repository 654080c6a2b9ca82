package state

import (
	"time"
)

// Session represents one agent working session against the memory tree
type Session struct {
	ID          string                 `json:"id"`
	Tool        string                 `json:"tool"`
	Status      string                 `json:"status"` // active, completed, failed
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt time.Time              `json:"completed_at,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Ops         []OpRecord             `json:"ops"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// OpRecord represents one memory operation performed during a session
type OpRecord struct {
	Kind   string    `json:"kind"` // write, search, reconcile, rebalance, archive
	Domain string    `json:"domain,omitempty"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
	Error  string    `json:"error,omitempty"`
}

// NewSession creates a new session record
func NewSession(id, tool string) *Session {
	return &Session{
		ID:        id,
		Tool:      tool,
		Status:    "active",
		StartedAt: time.Now(),
		Ops:       []OpRecord{},
		Metadata:  make(map[string]interface{}),
	}
}

// Record appends an operation record to the session
func (s *Session) Record(op OpRecord) {
	if op.At.IsZero() {
		op.At = time.Now()
	}
	s.Ops = append(s.Ops, op)
}

// IsActive returns true while the session has not finished
func (s *Session) IsActive() bool {
	return s.Status == "active"
}

// OpCount returns the number of operations of the given kind
func (s *Session) OpCount(kind string) int {
	n := 0
	for _, op := range s.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}
