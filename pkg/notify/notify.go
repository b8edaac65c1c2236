// Package notify delivers stats-changed events to an external sink, with
// per-key debouncing so request bursts collapse into one notification.
package notify

import "time"

// Scope identifies what an event is about.
type Scope string

const (
	ScopeProject Scope = "project"
	ScopeOrg     Scope = "org"
	ScopeUser    Scope = "user"
)

// EventStatsChanged signals that a project's usage counters moved.
const EventStatsChanged = "stats_changed"

// Event is one notification.
type Event struct {
	Type      string         `json:"type"`
	Scope     Scope          `json:"scope"`
	ScopeID   string         `json:"scopeId"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Sink receives events. Implementations must be safe for concurrent use.
type Sink interface {
	Notify(event Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(event Event)

// Notify calls f.
func (f SinkFunc) Notify(event Event) { f(event) }

// NopSink discards all events.
type NopSink struct{}

// Notify does nothing.
func (NopSink) Notify(Event) {}
