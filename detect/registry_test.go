package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"blackcross/core"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(DefaultRegexTimeout, zaptest.NewLogger(t).Sugar())
}

func TestRegistry_StartsEmpty(t *testing.T) {
	reg := testRegistry(t)
	snap := reg.Snapshot()
	require.NotNil(t, snap)
	assert.Empty(t, snap.DetectionRules)
	assert.Empty(t, snap.CorrelationRules)
}

func TestRegistry_ReplaceInstallsValidRules(t *testing.T) {
	reg := testRegistry(t)

	errs := reg.Replace([]core.DetectionRule{
		{
			ID: "critical_events", Name: "Critical Events", Enabled: true,
			Severity: core.SeverityCritical, RuleType: core.RuleTypeSimple,
			Conditions: []core.Condition{{Field: "severity", Operator: core.OpEquals, Value: "critical"}},
		},
		*thresholdRule(5, 300),
	}, []core.CorrelationRule{*portScanRule()})

	assert.Empty(t, errs)
	snap := reg.Snapshot()
	assert.Len(t, snap.DetectionRules, 2)
	assert.Len(t, snap.CorrelationRules, 1)
}

func TestRegistry_InvalidRulesRejectedValidInstalled(t *testing.T) {
	reg := testRegistry(t)

	errs := reg.Replace([]core.DetectionRule{
		{
			ID: "good", Name: "Good", Enabled: true,
			Severity: core.SeverityLow, RuleType: core.RuleTypeSimple,
		},
		{
			// Threshold rule missing its threshold.
			ID: "bad_threshold", Name: "Bad", Enabled: true,
			Severity: core.SeverityLow, RuleType: core.RuleTypeThreshold, TimeWindow: 60,
		},
		{
			ID: "bad_severity", Name: "Bad", Enabled: true,
			Severity: "urgent", RuleType: core.RuleTypeSimple,
		},
	}, nil)

	require.Len(t, errs, 2)
	ids := []string{errs[0].RuleID, errs[1].RuleID}
	assert.Contains(t, ids, "bad_threshold")
	assert.Contains(t, ids, "bad_severity")

	snap := reg.Snapshot()
	require.Len(t, snap.DetectionRules, 1)
	assert.Equal(t, "good", snap.DetectionRules[0].ID)
}

func TestRegistry_BadRegexRejected(t *testing.T) {
	reg := testRegistry(t)

	errs := reg.Replace([]core.DetectionRule{
		{
			ID: "bad_regex", Name: "Bad Regex", Enabled: true,
			Severity: core.SeverityLow, RuleType: core.RuleTypeSimple,
			Conditions: []core.Condition{{Field: "username", Operator: core.OpRegex, Value: "(unclosed"}},
		},
	}, nil)

	require.Len(t, errs, 1)
	assert.Equal(t, "bad_regex", errs[0].RuleID)
	assert.Empty(t, reg.Snapshot().DetectionRules)
}

func TestRegistry_DisabledRulesExcluded(t *testing.T) {
	reg := testRegistry(t)

	disabled := *thresholdRule(5, 300)
	disabled.Enabled = false
	corr := *portScanRule()
	corr.Enabled = false

	errs := reg.Replace([]core.DetectionRule{disabled}, []core.CorrelationRule{corr})
	assert.Empty(t, errs)
	snap := reg.Snapshot()
	assert.Empty(t, snap.DetectionRules)
	assert.Empty(t, snap.CorrelationRules)
}

func TestRegistry_UnsupportedCorrelationTypeRejected(t *testing.T) {
	reg := testRegistry(t)

	corr := *portScanRule()
	corr.CorrelationType = "sequence"

	errs := reg.Replace(nil, []core.CorrelationRule{corr})
	require.Len(t, errs, 1)
	assert.Equal(t, corr.ID, errs[0].RuleID)
	assert.Empty(t, reg.Snapshot().CorrelationRules)
}

func TestRegistry_ReplaceIsAtomic(t *testing.T) {
	reg := testRegistry(t)

	reg.Replace([]core.DetectionRule{*thresholdRule(5, 300)}, nil)
	old := reg.Snapshot()

	reg.Replace(nil, []core.CorrelationRule{*portScanRule()})
	fresh := reg.Snapshot()

	// The prior snapshot is untouched; readers holding it keep a
	// consistent view.
	assert.Len(t, old.DetectionRules, 1)
	assert.Empty(t, fresh.DetectionRules)
	assert.Len(t, fresh.CorrelationRules, 1)
	assert.True(t, fresh.CompiledAt.After(old.CompiledAt) || fresh.CompiledAt.Equal(old.CompiledAt))
}

func TestRuleLoadError_Error(t *testing.T) {
	err := RuleLoadError{RuleID: "r1", Err: "boom"}
	assert.Equal(t, "rule r1: boom", err.Error())
}

func TestRegistry_EmptyReplaceClearsRules(t *testing.T) {
	reg := testRegistry(t)
	reg.Replace([]core.DetectionRule{*thresholdRule(5, 300)}, []core.CorrelationRule{*portScanRule()})

	errs := reg.Replace(nil, nil)
	assert.Empty(t, errs)
	snap := reg.Snapshot()
	assert.Empty(t, snap.DetectionRules)
	assert.Empty(t, snap.CorrelationRules)
	assert.False(t, snap.CompiledAt.IsZero())
}
