package detect

import (
	"context"
	"sync"
	"time"

	"blackcross/core"
	"blackcross/metrics"

	"go.uber.org/zap"
)

// suppressor tracks per-key armed state implementing the re-arm policy:
// once a key has fired, further satisfied observations are suppressed
// until the count first drops below the threshold, after which a fresh
// breach fires again. One suppressor exists per shard and is only touched
// from that shard's goroutine.
type suppressor struct {
	armed map[string]struct{}
}

func newSuppressor() *suppressor {
	return &suppressor{armed: make(map[string]struct{})}
}

// observe feeds the latest satisfied/unsatisfied observation for a key
// and reports whether a trigger should be emitted now.
func (s *suppressor) observe(key string, satisfied bool) bool {
	if !satisfied {
		delete(s.armed, key)
		return false
	}
	if _, isArmed := s.armed[key]; isArmed {
		return false
	}
	s.armed[key] = struct{}{}
	return true
}

// disarm forgets a key, re-arming it for the next breach. Called when the
// window store evicts the key's state.
func (s *suppressor) disarm(key string) {
	delete(s.armed, key)
}

// Emitter hands trigger records to the external alert sink through a
// bounded queue so a slow sink can never stall event ingestion. When the
// queue is full the emission is dropped with a logged error, trading
// completeness for availability; the drop counter exposes sink
// unavailability to operators.
type Emitter struct {
	sink        core.TriggerSink
	queue       chan *core.TriggerRecord
	emitTimeout time.Duration
	logger      *zap.SugaredLogger
	wg          sync.WaitGroup
	startOnce   sync.Once
	stopOnce    sync.Once
}

// NewEmitter creates an emitter dispatching to sink.
func NewEmitter(sink core.TriggerSink, queueSize int, emitTimeout time.Duration, logger *zap.SugaredLogger) *Emitter {
	if queueSize < 1 {
		queueSize = 1
	}
	if emitTimeout <= 0 {
		emitTimeout = 30 * time.Second
	}
	return &Emitter{
		sink:        sink,
		queue:       make(chan *core.TriggerRecord, queueSize),
		emitTimeout: emitTimeout,
		logger:      logger,
	}
}

// Start launches the dispatcher goroutine.
func (e *Emitter) Start() {
	e.startOnce.Do(func() {
		e.wg.Add(1)
		go e.dispatch()
	})
}

// Enqueue hands a trigger to the dispatcher without blocking. Returns
// false when the queue is full and the trigger was dropped.
func (e *Emitter) Enqueue(trigger *core.TriggerRecord) bool {
	select {
	case e.queue <- trigger:
		return true
	default:
		e.logger.Errorw("Trigger queue full, dropping trigger",
			"rule_id", trigger.RuleID, "rule_kind", trigger.RuleKind, "group_key", trigger.GroupKey)
		metrics.TriggersDropped.Inc()
		return false
	}
}

// Stop drains the queue and waits for the dispatcher to finish.
func (e *Emitter) Stop() {
	e.stopOnce.Do(func() {
		close(e.queue)
		e.wg.Wait()
	})
}

// dispatch delivers queued triggers to the sink. Sink failures are logged
// and dropped, never retried synchronously: a retry loop here would back
// up into the shard workers.
func (e *Emitter) dispatch() {
	defer e.wg.Done()
	for trigger := range e.queue {
		ctx, cancel := context.WithTimeout(context.Background(), e.emitTimeout)
		err := e.sink.Emit(ctx, trigger)
		cancel()
		if err != nil {
			e.logger.Errorw("Alert sink rejected trigger",
				"rule_id", trigger.RuleID, "rule_kind", trigger.RuleKind, "error", err)
			metrics.TriggersDropped.Inc()
			continue
		}
		metrics.TriggersEmitted.WithLabelValues(trigger.RuleKind, trigger.Severity).Inc()
	}
}
