package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TriggerRecord is produced when a rule's firing condition is satisfied.
// It is handed to the external Alert collaborator, which owns alert
// identity, status and lifecycle; the engine never mutates alerts.
type TriggerRecord struct {
	TriggerID       string    `json:"trigger_id" example:"7f9c2ba4-e88f-4a93-b167-12f5a38cdb1d"`
	RuleID          string    `json:"rule_id" example:"failed_login_attempts"`
	RuleKind        string    `json:"rule_kind" example:"detection"` // detection or correlation
	RuleName        string    `json:"rule_name" example:"Failed Login Attempts"`
	Severity        string    `json:"severity" example:"high"`
	MatchedEventIDs []string  `json:"matched_event_ids"`
	GroupKey        string    `json:"group_key,omitempty" example:"9.9.9.9"` // correlation only
	Count           int       `json:"count" example:"5"`
	TriggeredAt     time.Time `json:"triggered_at"`
}

// NewTriggerRecord builds a trigger record for a satisfied rule condition.
func NewTriggerRecord(rule Triggerable, matchedEventIDs []string, groupKey string, count int, triggeredAt time.Time) *TriggerRecord {
	return &TriggerRecord{
		TriggerID:       uuid.New().String(),
		RuleID:          rule.GetID(),
		RuleKind:        rule.GetKind(),
		RuleName:        rule.GetName(),
		Severity:        rule.GetSeverity(),
		MatchedEventIDs: matchedEventIDs,
		GroupKey:        groupKey,
		Count:           count,
		TriggeredAt:     triggeredAt,
	}
}

// TriggerSink receives trigger records from the engine. Implementations
// may block; the engine always calls Emit from a dispatcher goroutine
// decoupled from the event hot path.
type TriggerSink interface {
	Emit(ctx context.Context, trigger *TriggerRecord) error
}
