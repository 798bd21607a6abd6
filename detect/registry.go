package detect

import (
	"fmt"
	"sync/atomic"
	"time"

	"blackcross/core"
	"blackcross/metrics"

	"go.uber.org/zap"
)

// Snapshot is an immutable compiled rule set. Readers always evaluate
// against exactly one snapshot; rule changes replace the whole snapshot
// atomically so an event is never evaluated against a partially-updated
// set.
type Snapshot struct {
	DetectionRules   []core.DetectionRule
	CorrelationRules []core.CorrelationRule
	CompiledAt       time.Time
}

// RuleLoadError reports why one rule was rejected during a registry
// replacement. The engine keeps running with the remaining valid rules.
type RuleLoadError struct {
	RuleID string `json:"rule_id"`
	Err    string `json:"error"`
}

func (e RuleLoadError) Error() string {
	return fmt.Sprintf("rule %s: %s", e.RuleID, e.Err)
}

// Registry holds the active compiled rule set. Replacement validates and
// compiles every rule; invalid rules are rejected with per-rule errors
// and the valid remainder is installed.
type Registry struct {
	snap         atomic.Pointer[Snapshot]
	regexTimeout time.Duration
	logger       *zap.SugaredLogger
}

// NewRegistry creates a registry with an empty snapshot installed.
func NewRegistry(regexTimeout time.Duration, logger *zap.SugaredLogger) *Registry {
	if regexTimeout <= 0 {
		regexTimeout = DefaultRegexTimeout
	}
	r := &Registry{regexTimeout: regexTimeout, logger: logger}
	r.snap.Store(&Snapshot{CompiledAt: time.Now().UTC()})
	return r
}

// Snapshot returns the active rule set. The returned snapshot is
// read-only and shared; callers must not mutate it.
func (r *Registry) Snapshot() *Snapshot {
	return r.snap.Load()
}

// Replace validates, compiles and atomically installs a new rule set.
// Disabled rules are accepted but kept out of the snapshot. Rules that
// fail validation or regex compilation are reported and skipped.
func (r *Registry) Replace(rules []core.DetectionRule, correlationRules []core.CorrelationRule) []RuleLoadError {
	var loadErrs []RuleLoadError

	snap := &Snapshot{CompiledAt: time.Now().UTC()}

	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			loadErrs = append(loadErrs, RuleLoadError{RuleID: rule.ID, Err: err.Error()})
			r.logger.Errorw("Rejecting detection rule", "rule_id", rule.ID, "error", err)
			continue
		}
		if !rule.Enabled {
			continue
		}
		if err := CompileConditions(rule.Conditions, r.regexTimeout); err != nil {
			loadErrs = append(loadErrs, RuleLoadError{RuleID: rule.ID, Err: err.Error()})
			r.logger.Errorw("Rejecting detection rule", "rule_id", rule.ID, "error", err)
			continue
		}
		snap.DetectionRules = append(snap.DetectionRules, rule)
	}

	for _, rule := range correlationRules {
		if err := rule.Validate(); err != nil {
			loadErrs = append(loadErrs, RuleLoadError{RuleID: rule.ID, Err: err.Error()})
			r.logger.Errorw("Rejecting correlation rule", "rule_id", rule.ID, "error", err)
			continue
		}
		if !rule.Enabled {
			continue
		}
		if err := CompileConditions(rule.EventConditions, r.regexTimeout); err != nil {
			loadErrs = append(loadErrs, RuleLoadError{RuleID: rule.ID, Err: err.Error()})
			r.logger.Errorw("Rejecting correlation rule", "rule_id", rule.ID, "error", err)
			continue
		}
		snap.CorrelationRules = append(snap.CorrelationRules, rule)
	}

	r.snap.Store(snap)

	metrics.RegistryRules.WithLabelValues(core.RuleKindDetection).Set(float64(len(snap.DetectionRules)))
	metrics.RegistryRules.WithLabelValues(core.RuleKindCorrelation).Set(float64(len(snap.CorrelationRules)))
	r.logger.Infow("Rule registry replaced",
		"detection_rules", len(snap.DetectionRules),
		"correlation_rules", len(snap.CorrelationRules),
		"rejected", len(loadErrs))

	return loadErrs
}
