package api

import (
	"net/http"

	"blackcross/core"
	"blackcross/detect"
)

// ReplaceRulesRequest carries the full rule set from the rule-management
// collaborator. The registry snapshot is replaced atomically so events
// are never evaluated against a partially-updated set.
type ReplaceRulesRequest struct {
	Rules            []core.DetectionRule   `json:"rules"`
	CorrelationRules []core.CorrelationRule `json:"correlation_rules"`
}

// ReplaceRulesResponse reports the installed counts and the rules that
// were rejected during validation or compilation.
type ReplaceRulesResponse struct {
	DetectionRules   int                    `json:"detection_rules"`
	CorrelationRules int                    `json:"correlation_rules"`
	Rejected         []detect.RuleLoadError `json:"rejected,omitempty"`
}

// handleReplaceRules installs a new rule set. Invalid rules are rejected
// per-rule; the engine keeps running with the valid remainder.
func (a *API) handleReplaceRules(w http.ResponseWriter, r *http.Request) {
	var req ReplaceRulesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule set payload", err, a.logger)
		return
	}

	loadErrs := a.registry.Replace(req.Rules, req.CorrelationRules)
	snap := a.registry.Snapshot()

	writeJSON(w, http.StatusOK, ReplaceRulesResponse{
		DetectionRules:   len(snap.DetectionRules),
		CorrelationRules: len(snap.CorrelationRules),
		Rejected:         loadErrs,
	}, a.logger)
}
