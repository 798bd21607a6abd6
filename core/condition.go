package core

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// Condition operators supported by the detection engine.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpContains    = "contains"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
	OpIn          = "in"
	OpExists      = "exists"
	OpNotExists   = "not_exists"
	OpRegex       = "regex"
)

var validOperators = map[string]bool{
	OpEquals:      true,
	OpNotEquals:   true,
	OpContains:    true,
	OpGreaterThan: true,
	OpLessThan:    true,
	OpIn:          true,
	OpExists:      true,
	OpNotExists:   true,
	OpRegex:       true,
}

// ValidOperator reports whether op is a supported condition operator.
func ValidOperator(op string) bool {
	return validOperators[op]
}

// Condition is a single field test within a rule. Pure value object.
// Regex is populated at rule-compile time for the "regex" operator and
// carries a match timeout to bound pathological patterns.
type Condition struct {
	Field    string          `json:"field" yaml:"field" example:"event_type"`
	Operator string          `json:"operator" yaml:"operator" example:"equals"`
	Value    interface{}     `json:"value,omitempty" yaml:"value,omitempty"`
	Regex    *regexp2.Regexp `json:"-" yaml:"-"`
}

// Validate checks the condition is structurally usable. Operator and value
// shape problems are configuration errors caught at rule-load time.
func (c *Condition) Validate() error {
	if c.Field == "" {
		return fmt.Errorf("condition field cannot be empty")
	}
	if !ValidOperator(c.Operator) {
		return fmt.Errorf("unknown operator %q", c.Operator)
	}
	switch c.Operator {
	case OpIn:
		if _, ok := c.Value.([]interface{}); !ok {
			return fmt.Errorf("operator %q requires a list value", c.Operator)
		}
	case OpRegex:
		if _, ok := c.Value.(string); !ok {
			return fmt.Errorf("operator %q requires a string pattern", c.Operator)
		}
	case OpExists, OpNotExists:
		// No value required.
	default:
		if c.Value == nil {
			return fmt.Errorf("operator %q requires a value", c.Operator)
		}
	}
	return nil
}
