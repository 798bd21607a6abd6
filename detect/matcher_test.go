package detect

import (
	"testing"

	"blackcross/core"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestMatches_EmptyConditionsMatchEverything(t *testing.T) {
	ev := NewEvaluator(zaptest.NewLogger(t).Sugar())

	assert.True(t, ev.Matches(nil, testEvent()))
	assert.True(t, ev.Matches([]core.Condition{}, core.NewEvent()))
}

func TestMatches_AllConditionsMustHold(t *testing.T) {
	ev := NewEvaluator(zaptest.NewLogger(t).Sugar())
	event := testEvent()

	conds := []core.Condition{
		{Field: "event_type", Operator: core.OpEquals, Value: "login_attempt"},
		{Field: "outcome", Operator: core.OpEquals, Value: "failure"},
	}
	assert.True(t, ev.Matches(conds, event))

	conds[1].Value = "success"
	assert.False(t, ev.Matches(conds, event))
}

func TestMatches_SeverityCondition(t *testing.T) {
	ev := NewEvaluator(zaptest.NewLogger(t).Sugar())

	event := core.NewEvent()
	event.Severity = core.SeverityCritical
	event.EventType = "security_breach"

	conds := []core.Condition{{Field: "severity", Operator: core.OpEquals, Value: "critical"}}
	assert.True(t, ev.Matches(conds, event))
}

func TestMatches_Idempotent(t *testing.T) {
	ev := NewEvaluator(zaptest.NewLogger(t).Sugar())
	event := testEvent()

	conds := []core.Condition{
		{Field: "event_type", Operator: core.OpEquals, Value: "login_attempt"},
		{Field: "attempts", Operator: core.OpGreaterThan, Value: float64(5)},
	}

	first := ev.Matches(conds, event)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, ev.Matches(conds, event))
	}
}
