// Package metrics defines the Prometheus collectors exposed by the
// detection engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blackcross_siem_events_processed_total",
			Help: "Total number of events evaluated by the detection engine",
		},
		[]string{"source"},
	)

	EventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blackcross_siem_events_dropped_total",
			Help: "Total number of events dropped because the ingestion queue was full",
		},
	)

	RuleMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blackcross_siem_rule_matches_total",
			Help: "Total number of per-event rule matches",
		},
		[]string{"rule_kind"},
	)

	TriggersEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blackcross_siem_triggers_emitted_total",
			Help: "Total number of trigger records handed to the alert sink",
		},
		[]string{"rule_kind", "severity"},
	)

	TriggersSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blackcross_siem_triggers_suppressed_total",
			Help: "Total number of satisfied conditions suppressed as duplicates of an armed rule",
		},
		[]string{"rule_kind"},
	)

	TriggersDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blackcross_siem_triggers_dropped_total",
			Help: "Total number of trigger records dropped because the emitter queue was full or the sink failed",
		},
	)

	EvaluationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blackcross_siem_evaluation_errors_total",
			Help: "Total number of condition evaluation errors (type mismatches, regex timeouts)",
		},
		[]string{"reason"},
	)

	EventProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "blackcross_siem_event_processing_duration_seconds",
			Help:    "Time taken to evaluate one event against the rule set",
			Buckets: prometheus.DefBuckets,
		},
	)

	WindowKeysTracked = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "blackcross_siem_window_keys_tracked",
			Help: "Number of distinct keys currently tracked in sliding-window state, per shard",
		},
		[]string{"shard"},
	)

	RegistryRules = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "blackcross_siem_registry_rules",
			Help: "Number of enabled rules in the active registry snapshot",
		},
		[]string{"rule_kind"},
	)

	WorkerPoolActiveWorkers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "blackcross_worker_pool_active_workers",
			Help: "Number of active workers in a worker pool (-1 indicates failed shutdown)",
		},
		[]string{"pool_type"},
	)

	WorkerPoolQueueSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "blackcross_worker_pool_queue_size",
			Help: "Current task queue size of a worker pool",
		},
		[]string{"pool_type"},
	)

	WorkerPoolTasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blackcross_worker_pool_tasks_processed_total",
			Help: "Total number of tasks processed by a worker pool",
		},
		[]string{"pool_type"},
	)
)
