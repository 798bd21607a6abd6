package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	ev := NewEvent()
	assert.NotEmpty(t, ev.EventID)
	assert.False(t, ev.Timestamp.IsZero())
	assert.NotNil(t, ev.Fields)
}

func TestEventNormalize_FillsMissingFields(t *testing.T) {
	ev := &Event{Source: "firewall-01"}
	ev.Normalize()

	assert.NotEmpty(t, ev.EventID)
	assert.False(t, ev.Timestamp.IsZero())
	assert.Equal(t, SeverityInfo, ev.Severity)
}

func TestEventNormalize_PreservesEventTime(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := &Event{EventID: "e0", Timestamp: ts, Severity: SeverityHigh}
	ev.Normalize()

	assert.Equal(t, "e0", ev.EventID)
	assert.Equal(t, ts, ev.Timestamp)
	assert.Equal(t, SeverityHigh, ev.Severity)
}

func TestEventField_TopLevel(t *testing.T) {
	ev := &Event{
		EventID:    "e0",
		Source:     "firewall-01",
		SourceType: "firewall",
		EventType:  "login_attempt",
		Severity:   SeverityHigh,
	}

	for name, want := range map[string]interface{}{
		"event_id":    "e0",
		"source":      "firewall-01",
		"source_type": "firewall",
		"event_type":  "login_attempt",
		"severity":    "high",
	} {
		val, ok := ev.Field(name)
		require.True(t, ok, name)
		assert.Equal(t, want, val, name)
	}
}

func TestEventField_EmptySourceTypeAbsent(t *testing.T) {
	ev := &Event{EventID: "e0"}
	_, ok := ev.Field("source_type")
	assert.False(t, ok)
}

func TestEventField_ExtensionMap(t *testing.T) {
	ev := &Event{Fields: map[string]interface{}{"username": "admin"}}

	val, ok := ev.Field("username")
	require.True(t, ok)
	assert.Equal(t, "admin", val)

	_, ok = ev.Field("hostname")
	assert.False(t, ok)
}

func TestEventField_NestedNavigation(t *testing.T) {
	ev := &Event{Fields: map[string]interface{}{
		"network": map[string]interface{}{
			"dst_port": 443.0,
			"geo":      map[string]interface{}{"country": "NL"},
		},
	}}

	val, ok := ev.Field("network.dst_port")
	require.True(t, ok)
	assert.Equal(t, 443.0, val)

	val, ok = ev.Field("network.geo.country")
	require.True(t, ok)
	assert.Equal(t, "NL", val)

	_, ok = ev.Field("network.src_port")
	assert.False(t, ok)

	// Navigating into a scalar fails rather than panicking.
	_, ok = ev.Field("network.dst_port.deeper")
	assert.False(t, ok)
}

func TestEventField_NilFieldsMap(t *testing.T) {
	ev := &Event{EventID: "e0"}
	_, ok := ev.Field("username")
	assert.False(t, ok)
}

func TestValidSeverity(t *testing.T) {
	for _, s := range []string{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		assert.True(t, ValidSeverity(s), s)
	}
	assert.False(t, ValidSeverity("urgent"))
	assert.False(t, ValidSeverity(""))
	assert.False(t, ValidSeverity("HIGH"))
}

func TestSeverityAtLeast(t *testing.T) {
	assert.True(t, SeverityAtLeast(SeverityCritical, SeverityHigh))
	assert.True(t, SeverityAtLeast(SeverityHigh, SeverityHigh))
	assert.False(t, SeverityAtLeast(SeverityMedium, SeverityHigh))
}
