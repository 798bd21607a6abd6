package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"blackcross/metrics"

	"go.uber.org/zap"
)

// Worker pool errors.
var (
	ErrWorkerPoolNotRunning = errors.New("worker pool is not running")
	ErrWorkerPoolQueueFull  = errors.New("worker pool task queue is full")
)

// WorkerPool is a generic bounded worker pool for parallel task
// processing. The engine uses one pool for event evaluation.
type WorkerPool struct {
	workers   int
	queueSize int
	taskCh    chan func()
	wg        sync.WaitGroup
	logger    *zap.SugaredLogger
	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	mu        sync.RWMutex
	poolType  string // metrics label
}

// NewWorkerPool creates a worker pool. Workers do not start until Start
// is called; cancelling parentCtx stops them.
func NewWorkerPool(parentCtx context.Context, workers, queueSize int, poolType string, logger *zap.SugaredLogger) *WorkerPool {
	if poolType == "" {
		poolType = "default"
	}
	ctx, cancel := context.WithCancel(parentCtx)
	return &WorkerPool{
		workers:   workers,
		queueSize: queueSize,
		taskCh:    make(chan func(), queueSize),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		poolType:  poolType,
	}
}

// Start begins processing tasks.
func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running {
		return
	}
	wp.running = true
	wp.logger.Infow("Starting worker pool", "pool_type", wp.poolType, "workers", wp.workers, "queue_size", wp.queueSize)
	metrics.WorkerPoolActiveWorkers.WithLabelValues(wp.poolType).Set(float64(wp.workers))

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop gracefully shuts down the pool, draining queued tasks. If workers
// do not finish within 30 seconds the goroutines are abandoned so that
// shutdown cannot deadlock.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if !wp.running {
		return
	}
	wp.running = false
	wp.logger.Infow("Stopping worker pool", "pool_type", wp.poolType)

	close(wp.taskCh)

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.logger.Infow("Worker pool stopped", "pool_type", wp.poolType)
	case <-time.After(30 * time.Second):
		wp.logger.Errorw("Worker pool shutdown timed out, goroutines leaked", "pool_type", wp.poolType)
		metrics.WorkerPoolActiveWorkers.WithLabelValues(wp.poolType).Set(-1)
	}
	wp.cancel()
}

// Submit queues a task for execution. Returns ErrWorkerPoolQueueFull when
// the queue is at capacity rather than blocking the caller.
func (wp *WorkerPool) Submit(task func()) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if !wp.running {
		return ErrWorkerPoolNotRunning
	}

	select {
	case wp.taskCh <- task:
		metrics.WorkerPoolQueueSize.WithLabelValues(wp.poolType).Set(float64(len(wp.taskCh)))
		return nil
	default:
		return ErrWorkerPoolQueueFull
	}
}

// WorkerPoolStats contains statistics about the worker pool.
type WorkerPoolStats struct {
	Workers     int  `json:"workers"`
	Running     bool `json:"running"`
	QueuedTasks int  `json:"queued_tasks"`
	Capacity    int  `json:"capacity"`
}

// GetStats returns current worker pool statistics.
func (wp *WorkerPool) GetStats() WorkerPoolStats {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	return WorkerPoolStats{
		Workers:     wp.workers,
		Running:     wp.running,
		QueuedTasks: len(wp.taskCh),
		Capacity:    cap(wp.taskCh),
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			return
		case task, ok := <-wp.taskCh:
			if !ok {
				return
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						wp.logger.Errorw("Task panicked in worker", "worker_id", id, "panic", r)
					}
				}()
				task()
				metrics.WorkerPoolTasksProcessed.WithLabelValues(wp.poolType).Inc()
			}()
		}
	}
}
