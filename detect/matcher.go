package detect

import (
	"fmt"
	"time"

	"blackcross/core"
)

// Matches reports whether the event satisfies every condition in the
// list. An empty condition list matches every event, which lets operators
// define pure rate detectors with no field filter.
//
// This is the single matching function in the engine: both live event
// evaluation and the stateless rule-test API go through it, so dry-run
// results are guaranteed representative of production behavior. It is a
// pure function of its inputs; re-evaluating the same immutable event and
// conditions always yields the same result.
func (ev *Evaluator) Matches(conditions []core.Condition, event *core.Event) bool {
	for i := range conditions {
		if !ev.Evaluate(&conditions[i], event) {
			return false
		}
	}
	return true
}

// CompileConditions compiles the regex operators in a condition list so
// repeated evaluation does not recompile patterns. Returns the first
// compile error; rules with uncompilable patterns are rejected at load.
func CompileConditions(conditions []core.Condition, timeout time.Duration) error {
	for i := range conditions {
		cond := &conditions[i]
		if cond.Operator != core.OpRegex {
			continue
		}
		pattern, ok := cond.Value.(string)
		if !ok {
			return fmt.Errorf("condition %d: regex operator requires a string pattern", i)
		}
		re, err := CompileRegex(pattern, timeout)
		if err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
		cond.Regex = re
	}
	return nil
}
