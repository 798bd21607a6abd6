package detect

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"blackcross/core"
	"blackcross/metrics"

	"go.uber.org/zap"
)

// EngineConfig holds the sizing knobs for the detection engine.
type EngineConfig struct {
	Workers        int // evaluation workers pulling from the ingestion queue
	QueueSize      int // ingestion queue capacity
	Shards         int // window-state shard workers
	ShardQueueSize int // per-shard update queue capacity
	MaxWindowKeys  int // per-shard bound on tracked window keys

	EmitTimeout time.Duration // per-trigger sink delivery timeout
}

// withDefaults fills unset fields with production defaults.
func (c EngineConfig) withDefaults() EngineConfig {
	if c.Workers < 1 {
		c.Workers = 4
	}
	if c.QueueSize < 1 {
		c.QueueSize = 1000
	}
	if c.Shards < 1 {
		c.Shards = 8
	}
	if c.ShardQueueSize < 1 {
		c.ShardQueueSize = 256
	}
	if c.MaxWindowKeys < 1 {
		c.MaxWindowKeys = 10000
	}
	if c.EmitTimeout <= 0 {
		c.EmitTimeout = 30 * time.Second
	}
	return c
}

// stateUpdate carries one matched event to the shard owning the state of
// its (rule, group key).
type stateUpdate struct {
	thresholdRule   *core.DetectionRule
	correlationRule *core.CorrelationRule
	groupKey        string
	event           *core.Event
}

// shard owns a partition of window and suppression state. All state the
// shard holds is touched only from its own goroutine, giving per-key
// serialization without a global lock.
type shard struct {
	id          int
	updates     chan stateUpdate
	windows     *WindowStore
	thresholds  *ThresholdTracker
	correlation *CorrelationEngine
	supp        *suppressor
}

// Engine is the detection and correlation engine: it evaluates incoming
// normalized events against the active rule snapshot, maintains sliding
// window state, and emits trigger records to the alert sink.
//
// Rule matching is stateless and runs on a worker pool; every state
// mutation for a (rule, group key) is forwarded to the shard worker
// owning that key, so same-key events are applied in arrival order.
type Engine struct {
	registry  *Registry
	evaluator *Evaluator
	emitter   *Emitter
	pool      *core.WorkerPool
	shards    []*shard
	cfg       EngineConfig
	logger    *zap.SugaredLogger
	shardWg   sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewEngine creates the engine. The sink receives trigger records through
// the emitter's bounded queue.
func NewEngine(ctx context.Context, cfg EngineConfig, registry *Registry, sink core.TriggerSink, logger *zap.SugaredLogger) (*Engine, error) {
	cfg = cfg.withDefaults()

	e := &Engine{
		registry:  registry,
		evaluator: NewEvaluator(logger),
		emitter:   NewEmitter(sink, cfg.QueueSize, cfg.EmitTimeout, logger),
		cfg:       cfg,
		logger:    logger,
	}
	e.pool = core.NewWorkerPool(ctx, cfg.Workers, cfg.QueueSize, "detection-engine", logger)

	e.shards = make([]*shard, cfg.Shards)
	for i := range e.shards {
		sh := &shard{
			id:      i,
			updates: make(chan stateUpdate, cfg.ShardQueueSize),
			supp:    newSuppressor(),
		}
		windows, err := NewWindowStore(cfg.MaxWindowKeys, sh.onKeyEvicted)
		if err != nil {
			return nil, fmt.Errorf("failed to create window store for shard %d: %w", i, err)
		}
		sh.windows = windows
		sh.thresholds = NewThresholdTracker(windows)
		sh.correlation = NewCorrelationEngine(windows)
		e.shards[i] = sh
	}

	return e, nil
}

// onKeyEvicted clears suppression state when the window store discards a
// key, so an evicted key re-arms like one whose count dropped to zero.
func (s *shard) onKeyEvicted(key string) {
	s.supp.disarm(key)
}

// Start launches the emitter, shard workers and evaluation workers.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true

	e.emitter.Start()
	for _, sh := range e.shards {
		e.shardWg.Add(1)
		go e.runShard(sh)
	}
	e.pool.Start()
	e.logger.Infow("Detection engine started",
		"workers", e.cfg.Workers, "shards", e.cfg.Shards, "queue_size", e.cfg.QueueSize)
}

// Stop drains in-flight events and shuts the engine down: intake stops,
// queued events finish evaluation, shard queues drain, then the emitter
// flushes to the sink.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.mu.Unlock()

	e.pool.Stop()
	for _, sh := range e.shards {
		close(sh.updates)
	}
	e.shardWg.Wait()
	e.emitter.Stop()
	e.logger.Info("Detection engine stopped")
}

// Submit hands one normalized event to the engine. Returns an error when
// the ingestion queue is full; the event is dropped, not queued.
func (e *Engine) Submit(event *core.Event) error {
	event.Normalize()
	err := e.pool.Submit(func() { e.process(event) })
	if err != nil {
		metrics.EventsDropped.Inc()
		e.logger.Warnw("Ingestion queue full, dropping event", "event_id", event.EventID)
		return err
	}
	return nil
}

// SubmitBatch submits a batch of events, returning the number accepted.
// Batch ingestion delivers many events at once; each is processed
// independently.
func (e *Engine) SubmitBatch(events []*core.Event) int {
	accepted := 0
	for _, event := range events {
		if err := e.Submit(event); err == nil {
			accepted++
		}
	}
	return accepted
}

// process evaluates one event against the active snapshot. Matching is
// pure; state updates are forwarded to the owning shard.
func (e *Engine) process(event *core.Event) {
	start := time.Now()
	snap := e.registry.Snapshot()

	for i := range snap.DetectionRules {
		rule := &snap.DetectionRules[i]
		if !e.evaluator.Matches(rule.Conditions, event) {
			continue
		}
		metrics.RuleMatches.WithLabelValues(core.RuleKindDetection).Inc()

		if rule.RuleType == core.RuleTypeSimple {
			// A simple rule's single match is itself the satisfied condition.
			trigger := core.NewTriggerRecord(rule, []string{event.EventID}, "", 1, event.Timestamp)
			e.emitter.Enqueue(trigger)
			continue
		}
		e.dispatch(rule.ID, stateUpdate{thresholdRule: rule, event: event})
	}

	for i := range snap.CorrelationRules {
		rule := &snap.CorrelationRules[i]
		if !e.evaluator.Matches(rule.EventConditions, event) {
			continue
		}
		groupKey, ok := GroupKey(rule, event)
		if !ok {
			continue
		}
		metrics.RuleMatches.WithLabelValues(core.RuleKindCorrelation).Inc()
		e.dispatch(rule.ID+groupKeySep+groupKey, stateUpdate{correlationRule: rule, groupKey: groupKey, event: event})
	}

	metrics.EventsProcessed.WithLabelValues(event.Source).Inc()
	metrics.EventProcessingDuration.Observe(time.Since(start).Seconds())
}

// dispatch routes a state update to the shard owning stateKey. The send
// blocks when the shard is saturated: window counts must observe every
// matched event, so updates are never dropped.
func (e *Engine) dispatch(stateKey string, upd stateUpdate) {
	h := fnv.New32a()
	h.Write([]byte(stateKey))
	e.shards[h.Sum32()%uint32(len(e.shards))].updates <- upd
}

// runShard applies state updates for the shard's key partition.
func (e *Engine) runShard(sh *shard) {
	defer e.shardWg.Done()
	gauge := metrics.WindowKeysTracked.WithLabelValues(strconv.Itoa(sh.id))

	for upd := range sh.updates {
		if upd.thresholdRule != nil {
			e.applyThreshold(sh, upd.thresholdRule, upd.event)
		} else if upd.correlationRule != nil {
			e.applyCorrelation(sh, upd.correlationRule, upd.groupKey, upd.event)
		}
		gauge.Set(float64(sh.windows.Keys()))
	}
}

// applyThreshold records a matched event for a threshold rule and emits
// once per fresh breach.
func (e *Engine) applyThreshold(sh *shard, rule *core.DetectionRule, event *core.Event) {
	count, satisfied := sh.thresholds.Observe(rule, event)
	fire := sh.supp.observe(rule.ID, satisfied)
	if !fire {
		if satisfied {
			metrics.TriggersSuppressed.WithLabelValues(core.RuleKindDetection).Inc()
		}
		return
	}
	ids := sh.thresholds.MatchedEventIDs(rule, event)
	e.emitter.Enqueue(core.NewTriggerRecord(rule, ids, "", count, event.Timestamp))
}

// applyCorrelation records a matched event under its group key and emits
// once per fresh breach of that key.
func (e *Engine) applyCorrelation(sh *shard, rule *core.CorrelationRule, groupKey string, event *core.Event) {
	count, satisfied := sh.correlation.Observe(rule, groupKey, event)
	suppKey := rule.ID + groupKeySep + groupKey
	fire := sh.supp.observe(suppKey, satisfied)
	if !fire {
		if satisfied {
			metrics.TriggersSuppressed.WithLabelValues(core.RuleKindCorrelation).Inc()
		}
		return
	}
	ids := sh.correlation.MatchedEventIDs(rule, groupKey, event)
	e.emitter.Enqueue(core.NewTriggerRecord(rule, ids, groupKey, count, event.Timestamp))
}

// EngineStats is a point-in-time view of engine state for the health
// surface.
type EngineStats struct {
	Pool        core.WorkerPoolStats `json:"pool"`
	TrackedKeys int                  `json:"tracked_window_keys"`
	Shards      int                  `json:"shards"`
}

// Stats returns current engine statistics.
func (e *Engine) Stats() EngineStats {
	keys := 0
	for _, sh := range e.shards {
		keys += sh.windows.Keys()
	}
	return EngineStats{
		Pool:        e.pool.GetStats(),
		TrackedKeys: keys,
		Shards:      len(e.shards),
	}
}
