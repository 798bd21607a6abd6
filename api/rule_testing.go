package api

import (
	"net/http"
	"time"

	"blackcross/core"
	"blackcross/detect"
)

// RuleTestRequest tests an ad-hoc rule body against one sample event
// without touching any window state.
type RuleTestRequest struct {
	Rule struct {
		Conditions []core.Condition `json:"conditions"`
	} `json:"rule" validate:"required"`
	Event *core.Event `json:"event" validate:"required"`
}

// RuleTestResponse reports the match outcome.
type RuleTestResponse struct {
	Matches          bool    `json:"matches"`
	EvaluationTimeMs float64 `json:"evaluation_time_ms"`
}

// handleTestRule runs the stateless rule test. It uses the exact matcher
// the live engine uses, so test results are representative of production
// behavior.
func (a *API) handleTestRule(w http.ResponseWriter, r *http.Request) {
	var req RuleTestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid rule test payload", err, a.logger)
		return
	}
	if err := a.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "rule and event are required", err, a.logger)
		return
	}

	for i := range req.Rule.Conditions {
		if err := req.Rule.Conditions[i].Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid condition: "+err.Error(), err, a.logger)
			return
		}
	}
	if err := detect.CompileConditions(req.Rule.Conditions, detect.DefaultRegexTimeout); err != nil {
		writeError(w, http.StatusBadRequest, "invalid regex condition: "+err.Error(), err, a.logger)
		return
	}

	req.Event.Normalize()

	start := time.Now()
	matches := a.evaluator.Matches(req.Rule.Conditions, req.Event)
	elapsed := time.Since(start)

	writeJSON(w, http.StatusOK, RuleTestResponse{
		Matches:          matches,
		EvaluationTimeMs: float64(elapsed.Microseconds()) / 1000.0,
	}, a.logger)
}
