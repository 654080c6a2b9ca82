package event

import "time"

// EventType identifies the kind of lifecycle event.
type EventType string

const (
	// Tree lifecycle
	TreeInitialized EventType = "tree.initialized"
	TreeRebalanced  EventType = "tree.rebalanced"

	// Entry lifecycle
	EntryCreated  EventType = "entry.created"
	EntryUpdated  EventType = "entry.updated"
	EntryArchived EventType = "entry.archived"

	// Index maintenance
	IndexUpdated   EventType = "index.updated"
	VerifyRepaired EventType = "verify.repaired"

	// File-index reconciliation
	ReconcileUpdated   EventType = "reconcile.updated"
	ReconcileUnchanged EventType = "reconcile.unchanged"

	// Write sessions
	SessionStarted   EventType = "session.started"
	SessionCompleted EventType = "session.completed"
	SessionFailed    EventType = "session.failed"
)

// Event carries data about a lifecycle occurrence.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, data map[string]interface{}) Event {
	return Event{
		Type:      t,
		Timestamp: time.Now(),
		Data:      data,
	}
}
