package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity levels for events and rules, ordered from least to most severe.
const (
	SeverityInfo     = "info"
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// severityRank maps severity names to their ordering.
var severityRank = map[string]int{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// ValidSeverity reports whether s is a known severity level.
func ValidSeverity(s string) bool {
	_, ok := severityRank[s]
	return ok
}

// SeverityAtLeast reports whether severity s is at least min.
func SeverityAtLeast(s, min string) bool {
	return severityRank[s] >= severityRank[min]
}

// Event represents the common schema for all normalized security events.
// Events are created by the ingestion pipeline and are read-only inside
// the detection engine.
type Event struct {
	EventID    string                 `json:"event_id" example:"event-123"`
	Timestamp  time.Time              `json:"timestamp" example:"2023-10-31T12:00:00Z"`
	Source     string                 `json:"source" example:"firewall-01"`
	SourceType string                 `json:"source_type,omitempty" example:"firewall"`
	EventType  string                 `json:"event_type" example:"login_attempt"`
	Severity   string                 `json:"severity" example:"info"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// NewEvent creates a new Event with a generated UUID and the current time.
func NewEvent() *Event {
	return &Event{
		EventID:   uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Fields:    make(map[string]interface{}),
	}
}

// Normalize fills in the fields the engine requires: a generated event ID
// when the ingestion pipeline did not assign one, and an ingestion-time
// timestamp when the event carries no event time.
func (e *Event) Normalize() {
	if e.EventID == "" {
		e.EventID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Severity == "" {
		e.Severity = SeverityInfo
	}
}

// Field resolves a field by name against the unified view of the event:
// the normalized top-level fields merged with the open extension map.
// Dot notation navigates into nested maps (e.g. "network.dst_port").
// The second return value reports whether the field is present.
func (e *Event) Field(name string) (interface{}, bool) {
	parts := strings.Split(name, ".")

	val, ok := e.topLevel(parts[0])
	if !ok {
		val, ok = e.Fields[parts[0]]
		if !ok {
			return nil, false
		}
	}

	for _, part := range parts[1:] {
		m, isMap := val.(map[string]interface{})
		if !isMap {
			return nil, false
		}
		val, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return val, true
}

// topLevel resolves the normalized envelope fields by name.
func (e *Event) topLevel(name string) (interface{}, bool) {
	switch name {
	case "event_id":
		return e.EventID, true
	case "timestamp":
		return e.Timestamp, true
	case "source":
		return e.Source, true
	case "source_type":
		if e.SourceType == "" {
			return nil, false
		}
		return e.SourceType, true
	case "event_type":
		return e.EventType, true
	case "severity":
		return e.Severity, true
	}
	return nil, false
}
