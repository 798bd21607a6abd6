package detect

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"blackcross/core"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ruleFileSchema validates the structural shape of rule files before
// unmarshalling. Semantic validation (thresholds, operators, grouping
// fields) happens in the registry.
const ruleFileSchema = `{
  "type": "object",
  "properties": {
    "rules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "rule_type"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "enabled": {"type": "boolean"},
          "severity": {"type": "string"},
          "rule_type": {"type": "string", "enum": ["simple", "threshold"]},
          "conditions": {"type": "array"},
          "threshold": {"type": "integer"},
          "time_window": {"type": "integer"}
        }
      }
    },
    "correlation_rules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name", "grouping_fields", "time_window", "min_events"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "enabled": {"type": "boolean"},
          "severity": {"type": "string"},
          "correlation_type": {"type": "string"},
          "event_conditions": {"type": "array"},
          "grouping_fields": {"type": "array", "items": {"type": "string"}},
          "time_window": {"type": "integer"},
          "min_events": {"type": "integer"}
        }
      }
    }
  }
}`

// RuleFile is the on-disk rule set consumed at bootstrap. In production
// deployments the rule-management collaborator replaces the registry over
// the API; rule files cover development and cold starts.
type RuleFile struct {
	Rules            []core.DetectionRule   `json:"rules" yaml:"rules"`
	CorrelationRules []core.CorrelationRule `json:"correlation_rules" yaml:"correlation_rules"`
}

// LoadRuleFile reads a JSON or YAML rule file. The document is checked
// against the structural schema first so malformed files are rejected
// with positional errors rather than partial unmarshals.
func LoadRuleFile(filename string, logger *zap.SugaredLogger) (*RuleFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var file RuleFile
	if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		// Round-trip through JSON so the schema validator sees the same
		// document shape for both formats.
		var doc map[string]interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML rules file: %w", err)
		}
		data, err = json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to normalize YAML rules file: %w", err)
		}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(ruleFileSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to validate rules file: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return nil, fmt.Errorf("rules file validation failed: %s", strings.Join(errs, "; "))
	}

	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rules file: %w", err)
	}

	logger.Infow("Loaded rule file",
		"file", filename,
		"rules", len(file.Rules),
		"correlation_rules", len(file.CorrelationRules))
	return &file, nil
}
