package api

import (
	"net/http"

	"blackcross/core"
)

// BatchIngestRequest carries a batch of normalized events from the
// ingestion collaborator.
type BatchIngestRequest struct {
	Events []*core.Event `json:"events" validate:"required,min=1,dive,required"`
}

// BatchIngestResponse reports how many events entered the engine.
type BatchIngestResponse struct {
	Accepted int `json:"accepted"`
	Dropped  int `json:"dropped"`
}

// handleIngestEvent accepts one normalized event.
func (a *API) handleIngestEvent(w http.ResponseWriter, r *http.Request) {
	var event core.Event
	if err := decodeJSON(w, r, &event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event payload", err, a.logger)
		return
	}
	if event.Source == "" {
		writeError(w, http.StatusBadRequest, "event source is required", nil, a.logger)
		return
	}
	if event.Severity != "" && !core.ValidSeverity(event.Severity) {
		writeError(w, http.StatusBadRequest, "invalid event severity", nil, a.logger)
		return
	}

	if err := a.engine.Submit(&event); err != nil {
		writeError(w, http.StatusServiceUnavailable, "ingestion queue full", err, a.logger)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"event_id": event.EventID}, a.logger)
}

// handleIngestBatch accepts a batch of normalized events. Each event is
// processed independently; a full queue drops the remainder rather than
// failing the batch.
func (a *API) handleIngestBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchIngestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid batch payload", err, a.logger)
		return
	}
	if err := a.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "batch must contain at least one event", err, a.logger)
		return
	}
	for _, event := range req.Events {
		if event.Source == "" {
			writeError(w, http.StatusBadRequest, "every event requires a source", nil, a.logger)
			return
		}
		if event.Severity != "" && !core.ValidSeverity(event.Severity) {
			writeError(w, http.StatusBadRequest, "invalid event severity", nil, a.logger)
			return
		}
	}

	accepted := a.engine.SubmitBatch(req.Events)
	writeJSON(w, http.StatusAccepted, BatchIngestResponse{
		Accepted: accepted,
		Dropped:  len(req.Events) - accepted,
	}, a.logger)
}
