// Package notify implements the trigger sinks that hand satisfied rule
// conditions to the external Alert collaborator.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"blackcross/core"

	"go.uber.org/zap"
)

// WebhookSink posts trigger records to the alert collaborator, which is
// responsible for turning them into persisted alerts with status "open".
type WebhookSink struct {
	url     string
	method  string
	headers map[string]string
	client  *http.Client
	logger  *zap.SugaredLogger
}

// NewWebhookSink creates a webhook sink.
func NewWebhookSink(url, method string, headers map[string]string, timeout time.Duration, logger *zap.SugaredLogger) *WebhookSink {
	if method == "" {
		method = http.MethodPost
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSink{
		url:     url,
		method:  method,
		headers: headers,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Emit delivers one trigger record to the collaborator.
func (s *WebhookSink) Emit(ctx context.Context, trigger *core.TriggerRecord) error {
	payload, err := json.Marshal(trigger)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, s.method, s.url, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create trigger request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Black-Cross-SIEM/1.0")
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("trigger webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("trigger webhook returned status %d", resp.StatusCode)
	}

	s.logger.Debugw("Trigger delivered",
		"rule_id", trigger.RuleID, "rule_kind", trigger.RuleKind, "status", resp.StatusCode)
	return nil
}

// LogSink writes trigger records to the engine log. Used in development
// and as a fallback when no alert collaborator is configured.
type LogSink struct {
	logger *zap.SugaredLogger
}

// NewLogSink creates a log sink.
func NewLogSink(logger *zap.SugaredLogger) *LogSink {
	return &LogSink{logger: logger}
}

// Emit logs the trigger record.
func (s *LogSink) Emit(_ context.Context, trigger *core.TriggerRecord) error {
	s.logger.Infow("Rule triggered",
		"trigger_id", trigger.TriggerID,
		"rule_id", trigger.RuleID,
		"rule_kind", trigger.RuleKind,
		"severity", trigger.Severity,
		"group_key", trigger.GroupKey,
		"count", trigger.Count,
		"matched_events", len(trigger.MatchedEventIDs))
	return nil
}
