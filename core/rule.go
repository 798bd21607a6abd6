package core

import (
	"fmt"
	"time"
)

// Detection rule types.
const (
	RuleTypeSimple    = "simple"
	RuleTypeThreshold = "threshold"
)

// Rule kinds reported on trigger records.
const (
	RuleKindDetection   = "detection"
	RuleKindCorrelation = "correlation"
)

// Triggerable is implemented by rules that can produce trigger records.
type Triggerable interface {
	GetID() string
	GetName() string
	GetSeverity() string
	GetKind() string
}

// DetectionRule matches individual events against an AND-ed condition
// list. A simple rule fires on every matching event; a threshold rule
// fires when the count of matches within the trailing time window reaches
// the threshold.
type DetectionRule struct {
	ID          string      `json:"id" yaml:"id" example:"failed_login_attempts"`
	Name        string      `json:"name" yaml:"name" example:"Failed Login Attempts"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Enabled     bool        `json:"enabled" yaml:"enabled" example:"true"`
	Severity    string      `json:"severity" yaml:"severity" example:"high"`
	RuleType    string      `json:"rule_type" yaml:"rule_type" example:"threshold"`
	Conditions  []Condition `json:"conditions" yaml:"conditions"`
	Threshold   int         `json:"threshold,omitempty" yaml:"threshold,omitempty" example:"5"`
	TimeWindow  int         `json:"time_window,omitempty" yaml:"time_window,omitempty" example:"300"` // seconds
	CreatedAt   time.Time   `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt   time.Time   `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// GetID returns the rule ID.
func (r DetectionRule) GetID() string { return r.ID }

// GetName returns the rule name.
func (r DetectionRule) GetName() string { return r.Name }

// GetSeverity returns the rule severity.
func (r DetectionRule) GetSeverity() string { return r.Severity }

// GetKind returns the trigger kind for detection rules.
func (r DetectionRule) GetKind() string { return RuleKindDetection }

// Window returns the rule's time window as a duration.
func (r DetectionRule) Window() time.Duration {
	return time.Duration(r.TimeWindow) * time.Second
}

// Validate checks the rule definition. Invalid rules are rejected at load
// time and never enter the registry.
func (r *DetectionRule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule id cannot be empty")
	}
	if r.Name == "" {
		return fmt.Errorf("rule name cannot be empty")
	}
	if !ValidSeverity(r.Severity) {
		return fmt.Errorf("invalid severity %q", r.Severity)
	}
	switch r.RuleType {
	case RuleTypeSimple:
	case RuleTypeThreshold:
		if r.Threshold < 1 {
			return fmt.Errorf("threshold rule requires threshold >= 1, got %d", r.Threshold)
		}
		if r.TimeWindow < 1 {
			return fmt.Errorf("threshold rule requires time_window >= 1 second, got %d", r.TimeWindow)
		}
	default:
		return fmt.Errorf("unknown rule_type %q (must be %q or %q)", r.RuleType, RuleTypeSimple, RuleTypeThreshold)
	}
	for i := range r.Conditions {
		if err := r.Conditions[i].Validate(); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
	}
	return nil
}
