package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validThresholdRule() DetectionRule {
	return DetectionRule{
		ID:         "failed_login_attempts",
		Name:       "Failed Login Attempts",
		Enabled:    true,
		Severity:   SeverityHigh,
		RuleType:   RuleTypeThreshold,
		Threshold:  5,
		TimeWindow: 300,
		Conditions: []Condition{
			{Field: "event_type", Operator: OpEquals, Value: "login_attempt"},
		},
	}
}

func TestDetectionRuleValidate_Valid(t *testing.T) {
	rule := validThresholdRule()
	assert.NoError(t, rule.Validate())

	simple := DetectionRule{ID: "s1", Name: "Simple", Severity: SeverityLow, RuleType: RuleTypeSimple}
	assert.NoError(t, simple.Validate())
}

func TestDetectionRuleValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DetectionRule)
	}{
		{"empty id", func(r *DetectionRule) { r.ID = "" }},
		{"empty name", func(r *DetectionRule) { r.Name = "" }},
		{"bad severity", func(r *DetectionRule) { r.Severity = "urgent" }},
		{"unknown rule type", func(r *DetectionRule) { r.RuleType = "aggregate" }},
		{"threshold zero", func(r *DetectionRule) { r.Threshold = 0 }},
		{"negative threshold", func(r *DetectionRule) { r.Threshold = -1 }},
		{"window zero", func(r *DetectionRule) { r.TimeWindow = 0 }},
		{"bad condition operator", func(r *DetectionRule) {
			r.Conditions = []Condition{{Field: "f", Operator: "between", Value: 1}}
		}},
		{"condition missing field", func(r *DetectionRule) {
			r.Conditions = []Condition{{Operator: OpEquals, Value: 1}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := validThresholdRule()
			tt.mutate(&rule)
			assert.Error(t, rule.Validate())
		})
	}
}

func TestDetectionRuleValidate_SimpleIgnoresThresholdFields(t *testing.T) {
	rule := DetectionRule{ID: "s1", Name: "Simple", Severity: SeverityLow, RuleType: RuleTypeSimple}
	assert.NoError(t, rule.Validate())
}

func TestDetectionRuleWindow(t *testing.T) {
	rule := validThresholdRule()
	assert.Equal(t, 300*time.Second, rule.Window())
}

func TestDetectionRuleTriggerable(t *testing.T) {
	rule := validThresholdRule()
	assert.Equal(t, "failed_login_attempts", rule.GetID())
	assert.Equal(t, "Failed Login Attempts", rule.GetName())
	assert.Equal(t, SeverityHigh, rule.GetSeverity())
	assert.Equal(t, RuleKindDetection, rule.GetKind())
}

func TestConditionValidate(t *testing.T) {
	valid := []Condition{
		{Field: "event_type", Operator: OpEquals, Value: "login_attempt"},
		{Field: "attempts", Operator: OpGreaterThan, Value: 5},
		{Field: "username", Operator: OpIn, Value: []interface{}{"root", "admin"}},
		{Field: "username", Operator: OpRegex, Value: "^adm"},
		{Field: "username", Operator: OpExists},
		{Field: "username", Operator: OpNotExists},
	}
	for _, c := range valid {
		assert.NoError(t, c.Validate(), c.Operator)
	}

	invalid := []Condition{
		{Operator: OpEquals, Value: "x"},
		{Field: "f", Operator: "between", Value: 1},
		{Field: "f", Operator: OpEquals},
		{Field: "f", Operator: OpIn, Value: "not-a-list"},
		{Field: "f", Operator: OpRegex, Value: 42},
	}
	for _, c := range invalid {
		assert.Error(t, c.Validate(), c.Operator)
	}
}

func TestValidOperator(t *testing.T) {
	for _, op := range []string{OpEquals, OpNotEquals, OpContains, OpGreaterThan, OpLessThan, OpIn, OpExists, OpNotExists, OpRegex} {
		assert.True(t, ValidOperator(op), op)
	}
	assert.False(t, ValidOperator("between"))
	assert.False(t, ValidOperator(""))
}

func TestNewTriggerRecord(t *testing.T) {
	rule := validThresholdRule()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	trig := NewTriggerRecord(rule, []string{"e0", "e1"}, "", 5, ts)

	require.NotNil(t, trig)
	assert.NotEmpty(t, trig.TriggerID)
	assert.Equal(t, rule.ID, trig.RuleID)
	assert.Equal(t, RuleKindDetection, trig.RuleKind)
	assert.Equal(t, rule.Name, trig.RuleName)
	assert.Equal(t, SeverityHigh, trig.Severity)
	assert.Equal(t, []string{"e0", "e1"}, trig.MatchedEventIDs)
	assert.Empty(t, trig.GroupKey)
	assert.Equal(t, 5, trig.Count)
	assert.Equal(t, ts, trig.TriggeredAt)

	other := NewTriggerRecord(rule, nil, "", 1, ts)
	assert.NotEqual(t, trig.TriggerID, other.TriggerID)
}
