package detect

import (
	"blackcross/core"
)

// ThresholdTracker implements count-over-time-window threshold rules on
// top of a WindowStore. One tracker exists per engine shard; the shard
// serializes all access for the rule IDs hashed to it.
type ThresholdTracker struct {
	windows *WindowStore
}

// NewThresholdTracker creates a tracker over the given window store.
func NewThresholdTracker(windows *WindowStore) *ThresholdTracker {
	return &ThresholdTracker{windows: windows}
}

// Observe records a matching event for a threshold rule and reports the
// resulting in-window count and whether the threshold is reached. Window
// time is event-time: "now" is the triggering event's timestamp.
func (t *ThresholdTracker) Observe(rule *core.DetectionRule, event *core.Event) (count int, satisfied bool) {
	t.windows.Record(rule.ID, WindowEntry{Timestamp: event.Timestamp, EventID: event.EventID})
	count = t.windows.Count(rule.ID, event.Timestamp, rule.Window())
	return count, count >= rule.Threshold
}

// MatchedEventIDs returns the IDs of the events currently inside the
// rule's window, oldest first.
func (t *ThresholdTracker) MatchedEventIDs(rule *core.DetectionRule, event *core.Event) []string {
	entries := t.windows.Entries(rule.ID, event.Timestamp, rule.Window())
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.EventID)
	}
	return ids
}
