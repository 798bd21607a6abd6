package detect

import (
	"fmt"
	"strings"

	"blackcross/core"
)

// groupKeySep separates grouping-field values and the rule ID from the
// group key in window-state keys. Unit separator avoids collisions with
// values containing common punctuation.
const groupKeySep = "\x1f"

// GroupKey builds the composite grouping key for a correlation rule from
// the event's grouping-field values. Returns false when any referenced
// field is absent: such events cannot be grouped and are excluded from
// correlation for this rule.
func GroupKey(rule *core.CorrelationRule, event *core.Event) (string, bool) {
	parts := make([]string, 0, len(rule.GroupingFields))
	for _, field := range rule.GroupingFields {
		val, ok := event.Field(field)
		if !ok {
			return "", false
		}
		parts = append(parts, fmt.Sprintf("%v", val))
	}
	return strings.Join(parts, groupKeySep), true
}

// CorrelationEngine implements "N events sharing a key within T seconds"
// detection on top of a WindowStore. Distinct group keys are fully
// independent: state is keyed by (rule ID, group key). One engine exists
// per shard; the shard serializes all access for the keys hashed to it.
type CorrelationEngine struct {
	windows *WindowStore
}

// NewCorrelationEngine creates a correlation engine over the window store.
func NewCorrelationEngine(windows *WindowStore) *CorrelationEngine {
	return &CorrelationEngine{windows: windows}
}

// stateKey namespaces a group key under its rule.
func (c *CorrelationEngine) stateKey(rule *core.CorrelationRule, groupKey string) string {
	return rule.ID + groupKeySep + groupKey
}

// Observe records an event that passed the rule's event conditions under
// its group key and reports the in-window count for that exact key and
// whether min_events is reached. Window time is event-time.
func (c *CorrelationEngine) Observe(rule *core.CorrelationRule, groupKey string, event *core.Event) (count int, satisfied bool) {
	key := c.stateKey(rule, groupKey)
	c.windows.Record(key, WindowEntry{Timestamp: event.Timestamp, EventID: event.EventID})
	count = c.windows.Count(key, event.Timestamp, rule.Window())
	return count, count >= rule.MinEvents
}

// MatchedEventIDs returns the IDs of the events currently inside the
// window for the rule's group key, oldest first.
func (c *CorrelationEngine) MatchedEventIDs(rule *core.CorrelationRule, groupKey string, event *core.Event) []string {
	entries := c.windows.Entries(c.stateKey(rule, groupKey), event.Timestamp, rule.Window())
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.EventID)
	}
	return ids
}
