package core

import (
	"fmt"
	"time"
)

// CorrelationType defines the grouping strategy of a correlation rule.
// Only grouped correlation is implemented; other values are reserved.
const (
	CorrelationTypeGrouped = "grouped"
)

// CorrelationRule fires when events sharing a grouping key reach a count
// within a sliding time window. The grouping key is built by joining the
// values of GroupingFields; events missing any of those fields cannot be
// grouped and are excluded from the rule.
type CorrelationRule struct {
	ID              string      `json:"id" yaml:"id" example:"port_scan_detection"`
	Name            string      `json:"name" yaml:"name" example:"Port Scan Detection"`
	Description     string      `json:"description,omitempty" yaml:"description,omitempty"`
	Enabled         bool        `json:"enabled" yaml:"enabled" example:"true"`
	Severity        string      `json:"severity" yaml:"severity" example:"medium"`
	CorrelationType string      `json:"correlation_type" yaml:"correlation_type" example:"grouped"`
	EventConditions []Condition `json:"event_conditions" yaml:"event_conditions"`
	GroupingFields  []string    `json:"grouping_fields" yaml:"grouping_fields" example:"source_ip"`
	TimeWindow      int         `json:"time_window" yaml:"time_window" example:"300"` // seconds
	MinEvents       int         `json:"min_events" yaml:"min_events" example:"10"`
	CreatedAt       time.Time   `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt       time.Time   `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// GetID returns the correlation rule ID.
func (r CorrelationRule) GetID() string { return r.ID }

// GetName returns the correlation rule name.
func (r CorrelationRule) GetName() string { return r.Name }

// GetSeverity returns the correlation rule severity.
func (r CorrelationRule) GetSeverity() string { return r.Severity }

// GetKind returns the trigger kind for correlation rules.
func (r CorrelationRule) GetKind() string { return RuleKindCorrelation }

// Window returns the rule's time window as a duration.
func (r CorrelationRule) Window() time.Duration {
	return time.Duration(r.TimeWindow) * time.Second
}

// Validate checks the correlation rule definition.
func (r *CorrelationRule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("correlation rule id cannot be empty")
	}
	if r.Name == "" {
		return fmt.Errorf("correlation rule name cannot be empty")
	}
	if !ValidSeverity(r.Severity) {
		return fmt.Errorf("invalid severity %q", r.Severity)
	}
	if r.CorrelationType != CorrelationTypeGrouped {
		return fmt.Errorf("unsupported correlation_type %q (only %q is implemented)", r.CorrelationType, CorrelationTypeGrouped)
	}
	if len(r.GroupingFields) == 0 {
		return fmt.Errorf("correlation rule requires at least one grouping field")
	}
	if r.MinEvents < 1 {
		return fmt.Errorf("correlation rule requires min_events >= 1, got %d", r.MinEvents)
	}
	if r.TimeWindow < 1 {
		return fmt.Errorf("correlation rule requires time_window >= 1 second, got %d", r.TimeWindow)
	}
	for i := range r.EventConditions {
		if err := r.EventConditions[i].Validate(); err != nil {
			return fmt.Errorf("event condition %d: %w", i, err)
		}
	}
	return nil
}
