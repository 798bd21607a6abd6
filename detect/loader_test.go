package detect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"blackcross/core"
)

func writeRuleFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRuleFile_JSON(t *testing.T) {
	path := writeRuleFile(t, "rules.json", `{
		"rules": [
			{
				"id": "failed_login_attempts",
				"name": "Failed Login Attempts",
				"enabled": true,
				"severity": "high",
				"rule_type": "threshold",
				"threshold": 5,
				"time_window": 300,
				"conditions": [
					{"field": "event_type", "operator": "equals", "value": "login_attempt"},
					{"field": "outcome", "operator": "equals", "value": "failure"}
				]
			}
		],
		"correlation_rules": [
			{
				"id": "port_scan_detection",
				"name": "Port Scan Detection",
				"enabled": true,
				"severity": "medium",
				"correlation_type": "grouped",
				"event_conditions": [
					{"field": "event_type", "operator": "equals", "value": "connection_attempt"}
				],
				"grouping_fields": ["source_ip"],
				"time_window": 60,
				"min_events": 10
			}
		]
	}`)

	file, err := LoadRuleFile(path, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	require.Len(t, file.Rules, 1)
	require.Len(t, file.CorrelationRules, 1)

	rule := file.Rules[0]
	assert.Equal(t, "failed_login_attempts", rule.ID)
	assert.Equal(t, core.RuleTypeThreshold, rule.RuleType)
	assert.Equal(t, 5, rule.Threshold)
	assert.Equal(t, 300, rule.TimeWindow)
	require.Len(t, rule.Conditions, 2)
	assert.Equal(t, core.OpEquals, rule.Conditions[0].Operator)

	corr := file.CorrelationRules[0]
	assert.Equal(t, "port_scan_detection", corr.ID)
	assert.Equal(t, []string{"source_ip"}, corr.GroupingFields)
	assert.Equal(t, 10, corr.MinEvents)
}

func TestLoadRuleFile_YAML(t *testing.T) {
	path := writeRuleFile(t, "rules.yaml", `
rules:
  - id: critical_events
    name: Critical Events
    enabled: true
    severity: critical
    rule_type: simple
    conditions:
      - field: severity
        operator: equals
        value: critical
correlation_rules:
  - id: port_scan_detection
    name: Port Scan Detection
    enabled: true
    severity: medium
    correlation_type: grouped
    grouping_fields: [source_ip]
    time_window: 60
    min_events: 10
`)

	file, err := LoadRuleFile(path, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	require.Len(t, file.Rules, 1)
	assert.Equal(t, core.RuleTypeSimple, file.Rules[0].RuleType)
	assert.Equal(t, "critical", file.Rules[0].Conditions[0].Value)
	require.Len(t, file.CorrelationRules, 1)
	assert.Equal(t, 60, file.CorrelationRules[0].TimeWindow)
}

func TestLoadRuleFile_MissingRequiredField(t *testing.T) {
	// rule_type is required by the schema.
	path := writeRuleFile(t, "rules.json", `{
		"rules": [{"id": "r1", "name": "Rule"}]
	}`)

	_, err := LoadRuleFile(path, zaptest.NewLogger(t).Sugar())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadRuleFile_UnknownRuleType(t *testing.T) {
	path := writeRuleFile(t, "rules.json", `{
		"rules": [{"id": "r1", "name": "Rule", "rule_type": "aggregate"}]
	}`)

	_, err := LoadRuleFile(path, zaptest.NewLogger(t).Sugar())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadRuleFile_MalformedYAML(t *testing.T) {
	path := writeRuleFile(t, "rules.yaml", "rules:\n  - id: [unclosed")

	_, err := LoadRuleFile(path, zaptest.NewLogger(t).Sugar())
	require.Error(t, err)
}

func TestLoadRuleFile_MissingFile(t *testing.T) {
	_, err := LoadRuleFile(filepath.Join(t.TempDir(), "absent.json"), zaptest.NewLogger(t).Sugar())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}

func TestLoadRuleFile_LoadsIntoRegistry(t *testing.T) {
	path := writeRuleFile(t, "rules.yml", `
rules:
  - id: any_event
    name: Any Event
    enabled: true
    severity: info
    rule_type: simple
`)

	logger := zaptest.NewLogger(t).Sugar()
	file, err := LoadRuleFile(path, logger)
	require.NoError(t, err)

	reg := NewRegistry(DefaultRegexTimeout, logger)
	errs := reg.Replace(file.Rules, file.CorrelationRules)
	assert.Empty(t, errs)
	assert.Len(t, reg.Snapshot().DetectionRules, 1)
}
