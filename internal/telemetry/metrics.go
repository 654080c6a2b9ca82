package telemetry

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects runtime metrics
type Metrics struct {
	mu sync.RWMutex

	// Counters
	EntriesCreated  int64
	EntriesUpdated  int64
	EntriesArchived int64
	Searches        int64
	Reconciles      int64
	Rebalances      int64
	VerifyRepairs   int64

	// Gauges
	ActiveSessions int64

	// Histograms (simplified)
	writeDurations  []time.Duration
	searchLatencies []time.Duration

	// Exporter (optional)
	exporter MetricsExporter
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		writeDurations:  make([]time.Duration, 0, 1000),
		searchLatencies: make([]time.Duration, 0, 1000),
	}
}

// IncEntriesCreated increments the entries created counter
func (m *Metrics) IncEntriesCreated() {
	atomic.AddInt64(&m.EntriesCreated, 1)
}

// IncEntriesUpdated increments the entries updated counter
func (m *Metrics) IncEntriesUpdated() {
	atomic.AddInt64(&m.EntriesUpdated, 1)
}

// IncEntriesArchived increments the entries archived counter
func (m *Metrics) IncEntriesArchived() {
	atomic.AddInt64(&m.EntriesArchived, 1)
}

// IncSearches increments the searches counter
func (m *Metrics) IncSearches() {
	atomic.AddInt64(&m.Searches, 1)
}

// IncReconciles increments the reconciles counter
func (m *Metrics) IncReconciles() {
	atomic.AddInt64(&m.Reconciles, 1)
}

// IncRebalances increments the rebalances counter
func (m *Metrics) IncRebalances() {
	atomic.AddInt64(&m.Rebalances, 1)
}

// IncVerifyRepairs increments the verification repair counter
func (m *Metrics) IncVerifyRepairs() {
	atomic.AddInt64(&m.VerifyRepairs, 1)
}

// SessionStarted increments the active sessions gauge
func (m *Metrics) SessionStarted() {
	atomic.AddInt64(&m.ActiveSessions, 1)
}

// SessionEnded decrements the active sessions gauge
func (m *Metrics) SessionEnded() {
	atomic.AddInt64(&m.ActiveSessions, -1)
}

// RecordWriteDuration records a write operation duration
func (m *Metrics) RecordWriteDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeDurations = append(m.writeDurations, d)
}

// RecordSearchLatency records a search latency
func (m *Metrics) RecordSearchLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchLatencies = append(m.searchLatencies, d)
}

// GetSummary returns a summary of collected metrics
func (m *Metrics) GetSummary() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := map[string]interface{}{
		"entries_created":  atomic.LoadInt64(&m.EntriesCreated),
		"entries_updated":  atomic.LoadInt64(&m.EntriesUpdated),
		"entries_archived": atomic.LoadInt64(&m.EntriesArchived),
		"searches":         atomic.LoadInt64(&m.Searches),
		"reconciles":       atomic.LoadInt64(&m.Reconciles),
		"rebalances":       atomic.LoadInt64(&m.Rebalances),
		"verify_repairs":   atomic.LoadInt64(&m.VerifyRepairs),
		"active_sessions":  atomic.LoadInt64(&m.ActiveSessions),
	}

	// Add duration stats
	if len(m.writeDurations) > 0 {
		var total time.Duration
		for _, d := range m.writeDurations {
			total += d
		}
		summary["avg_write_duration_ms"] = total.Milliseconds() / int64(len(m.writeDurations))
	}

	if len(m.searchLatencies) > 0 {
		var total time.Duration
		for _, d := range m.searchLatencies {
			total += d
		}
		summary["avg_search_latency_ms"] = total.Milliseconds() / int64(len(m.searchLatencies))
	}

	return summary
}

// Reset resets all metrics
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	atomic.StoreInt64(&m.EntriesCreated, 0)
	atomic.StoreInt64(&m.EntriesUpdated, 0)
	atomic.StoreInt64(&m.EntriesArchived, 0)
	atomic.StoreInt64(&m.Searches, 0)
	atomic.StoreInt64(&m.Reconciles, 0)
	atomic.StoreInt64(&m.Rebalances, 0)
	atomic.StoreInt64(&m.VerifyRepairs, 0)
	atomic.StoreInt64(&m.ActiveSessions, 0)

	m.writeDurations = m.writeDurations[:0]
	m.searchLatencies = m.searchLatencies[:0]
}

// SetExporter attaches a metrics exporter.
func (m *Metrics) SetExporter(e MetricsExporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exporter = e
}

// Flush exports the current metrics snapshot with the given event label.
func (m *Metrics) Flush(event string, labels map[string]string) {
	m.mu.RLock()
	exporter := m.exporter
	m.mu.RUnlock()

	if exporter == nil {
		return
	}

	snapshot := MetricsSnapshot{
		Timestamp: time.Now(),
		Event:     event,
		Metrics:   m.GetSummary(),
		Labels:    labels,
	}
	// Best-effort export.
	_ = exporter.Export(snapshot)
}
