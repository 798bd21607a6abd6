package detect

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"blackcross/core"
	"blackcross/metrics"

	"github.com/dlclark/regexp2"
	"go.uber.org/zap"
)

// DefaultRegexTimeout bounds backtracking on regex conditions so a
// pathological pattern cannot stall event evaluation.
const DefaultRegexTimeout = 500 * time.Millisecond

// Evaluator evaluates field conditions against events. Evaluation has no
// side effects beyond logging; a malformed condition or incompatible field
// value evaluates to false rather than erroring.
type Evaluator struct {
	logger *zap.SugaredLogger
}

// NewEvaluator creates a condition evaluator.
func NewEvaluator(logger *zap.SugaredLogger) *Evaluator {
	return &Evaluator{logger: logger}
}

// Evaluate evaluates a single condition against the event.
func (ev *Evaluator) Evaluate(cond *core.Condition, event *core.Event) bool {
	fieldValue, present := event.Field(cond.Field)

	switch cond.Operator {
	case core.OpExists:
		return present
	case core.OpNotExists:
		return !present
	}

	if !present {
		return false
	}

	switch cond.Operator {
	case core.OpEquals:
		return valuesEqual(fieldValue, cond.Value)
	case core.OpNotEquals:
		return !valuesEqual(fieldValue, cond.Value)
	case core.OpContains:
		return ev.evaluateContains(fieldValue, cond.Value)
	case core.OpGreaterThan:
		return ev.compareNumbers(cond, fieldValue, func(a, b float64) bool { return a > b })
	case core.OpLessThan:
		return ev.compareNumbers(cond, fieldValue, func(a, b float64) bool { return a < b })
	case core.OpIn:
		list, ok := cond.Value.([]interface{})
		if !ok {
			ev.logger.Errorw("Operator 'in' requires a list value", "field", cond.Field)
			metrics.EvaluationErrors.WithLabelValues("bad_condition_value").Inc()
			return false
		}
		for _, candidate := range list {
			if valuesEqual(fieldValue, candidate) {
				return true
			}
		}
		return false
	case core.OpRegex:
		return ev.evaluateRegex(cond, fieldValue)
	}

	// Unknown operators are rejected at rule-load time; reaching here means
	// an ad-hoc condition bypassed validation.
	ev.logger.Errorw("Unknown condition operator", "operator", cond.Operator, "field", cond.Field)
	metrics.EvaluationErrors.WithLabelValues("unknown_operator").Inc()
	return false
}

// evaluateContains handles string substring match and list membership.
func (ev *Evaluator) evaluateContains(fieldValue, condValue interface{}) bool {
	switch v := fieldValue.(type) {
	case string:
		needle, ok := condValue.(string)
		if !ok {
			return false
		}
		return strings.Contains(v, needle)
	case []interface{}:
		for _, elem := range v {
			if valuesEqual(elem, condValue) {
				return true
			}
		}
		return false
	case []string:
		needle, ok := condValue.(string)
		if !ok {
			return false
		}
		for _, elem := range v {
			if elem == needle {
				return true
			}
		}
		return false
	}
	return false
}

// evaluateRegex matches a compiled pattern with a backtracking timeout.
// Ad-hoc conditions that skipped compilation are compiled on the fly.
func (ev *Evaluator) evaluateRegex(cond *core.Condition, fieldValue interface{}) bool {
	str, ok := fieldValue.(string)
	if !ok {
		return false
	}

	re := cond.Regex
	if re == nil {
		pattern, ok := cond.Value.(string)
		if !ok {
			return false
		}
		compiled, err := CompileRegex(pattern, DefaultRegexTimeout)
		if err != nil {
			ev.logger.Errorw("Invalid regex pattern", "field", cond.Field, "error", err)
			metrics.EvaluationErrors.WithLabelValues("bad_regex").Inc()
			return false
		}
		re = compiled
	}

	matched, err := re.MatchString(str)
	if err != nil {
		// regexp2 returns an error when MatchTimeout is exceeded.
		ev.logger.Warnw("Regex evaluation failed", "field", cond.Field, "error", err)
		metrics.EvaluationErrors.WithLabelValues("regex_timeout").Inc()
		return false
	}
	return matched
}

// compareNumbers compares the field value and condition value as numbers.
// Incompatible types evaluate to false and are logged at debug so one
// malformed event cannot halt evaluation of other rules.
func (ev *Evaluator) compareNumbers(cond *core.Condition, fieldValue interface{}, cmp func(float64, float64) bool) bool {
	fa, ok := toFloat(fieldValue)
	if !ok {
		ev.logger.Debugw("Field value is not numeric", "field", cond.Field, "value", fieldValue)
		metrics.EvaluationErrors.WithLabelValues("type_mismatch").Inc()
		return false
	}
	fb, ok := toFloat(cond.Value)
	if !ok {
		ev.logger.Debugw("Condition value is not numeric", "field", cond.Field, "value", cond.Value)
		metrics.EvaluationErrors.WithLabelValues("type_mismatch").Inc()
		return false
	}
	return cmp(fa, fb)
}

// CompileRegex compiles a pattern with a match timeout. Used both by the
// rule registry at load time and by the evaluator for ad-hoc conditions.
func CompileRegex(pattern string, timeout time.Duration) (*regexp2.Regexp, error) {
	if pattern == "" {
		return nil, fmt.Errorf("regex pattern cannot be empty")
	}
	re, err := regexp2.Compile(pattern, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to compile regex pattern: %w", err)
	}
	re.MatchTimeout = timeout
	return re, nil
}

// valuesEqual compares two dynamic values, treating numbers of different
// Go types (JSON float64 vs native int) as comparable.
func valuesEqual(a, b interface{}) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if okA && okB {
		return fa == fb
	}
	return false
}

// toFloat converts numeric values and numeric strings to float64.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}
