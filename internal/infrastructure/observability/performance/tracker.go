// Package performance provides lightweight operation tracking for the bridge.
package performance

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Marker represents a single performance measurement for an operation
type Marker struct {
	ID        string        `json:"id"`
	Operation string        `json:"operation"` // e.g. "get_events_request"
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Completed bool          `json:"completed"`
}

// Complete marks the operation as finished and records its duration.
func (m *Marker) Complete() {
	if m.Completed {
		return
	}
	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.Completed = true
}

// SetSuccess marks the operation as successful or failed.
func (m *Marker) SetSuccess(success bool) {
	m.Success = success
}

// SetError records an error message and marks the operation as failed.
func (m *Marker) SetError(err error) {
	if err != nil {
		m.Error = err.Error()
		m.Success = false
	}
}

// Tracker retains a bounded window of recent operation markers.
type Tracker struct {
	mu         sync.Mutex
	markers    []*Marker
	maxMarkers int
}

// NewTracker creates a tracker retaining at most maxMarkers recent markers.
func NewTracker(maxMarkers int) *Tracker {
	if maxMarkers < 1 {
		maxMarkers = 1000
	}
	return &Tracker{maxMarkers: maxMarkers}
}

// StartOperation begins tracking a new operation and returns its marker.
func (t *Tracker) StartOperation(operation string) *Marker {
	marker := &Marker{
		ID:        ulid.Make().String(),
		Operation: operation,
		StartTime: time.Now(),
	}

	t.mu.Lock()
	t.markers = append(t.markers, marker)
	if len(t.markers) > t.maxMarkers {
		t.markers = t.markers[len(t.markers)-t.maxMarkers:]
	}
	t.mu.Unlock()

	return marker
}

// RecentMarkers returns a copy of the retained markers, newest last.
func (t *Tracker) RecentMarkers() []*Marker {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Marker, len(t.markers))
	copy(out, t.markers)
	return out
}
