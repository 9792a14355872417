// Package worker evaluates queued snapshots and applies them to the ranking.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/bookability/internal/domain/bookability"
	"github.com/okian/bookability/internal/domain/model"
	"github.com/okian/bookability/pkg/logger"
	"github.com/okian/bookability/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	metricsUpdateInterval   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Snapshot is what workers read off the queue.
type Snapshot = model.Snapshot

// Evaluator computes the bookability result for a snapshot's counts.
type Evaluator interface {
	Evaluate(ctx context.Context, in bookability.Input) (bookability.Result, error)
}

// Updater applies an evaluation to the ranking. It reports false when the
// snapshot is older than the one already ranked.
type Updater interface {
	Upsert(ctx context.Context, ev model.Evaluation) (bool, error)
}

// Recorder persists evaluations. Failures never block ranking.
type Recorder interface {
	Record(ctx context.Context, ev model.Evaluation) error
}

// Queue defines how workers receive snapshots.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Snapshot
}

// Worker processes snapshots until stopped.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker drains a Queue through an Evaluator into an Updater.
type InMemoryWorker struct {
	queue     Queue
	evaluator Evaluator
	updater   Updater
	recorder  Recorder
	name      string

	processed atomic.Int64

	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, evaluator Evaluator, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		evaluator: evaluator,
		updater:   updater,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run processes snapshots until ctx is done, Shutdown is called, or the
// queue is closed and drained.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	snapshots := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-snapshots:
			if !ok {
				return
			}
			if err := w.process(ctx, s); err != nil {
				w.logger.Error(ctx, "error processing snapshot", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker after its current snapshot.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns how many snapshots this worker has handled.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

func (w *InMemoryWorker) stop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

func (w *InMemoryWorker) process(ctx context.Context, s Snapshot) error { //nolint:gocritic // hugeParam: channel payload is a value
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	result, err := w.evaluator.Evaluate(ctx, s.Input())
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "evaluation_error")
		metrics.RecordErrorByType("evaluation_error", "high")
		return fmt.Errorf("evaluate snapshot %s: %w", s.SnapshotID, err)
	}

	ev := model.Evaluation{Snapshot: s, Result: result}
	updated, err := w.updater.Upsert(ctx, ev)
	if err != nil {
		metrics.RecordLeaderboardError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "leaderboard_error")
		metrics.RecordErrorByType("leaderboard_error", "high")
		return fmt.Errorf("rank snapshot %s: %w", s.SnapshotID, err)
	}
	if updated {
		metrics.RecordLeaderboardUpdate()
		metrics.RecordSnapshotProcessed()
	} else {
		metrics.RecordSnapshotStale()
		w.logger.Debug(ctx, "stale snapshot ignored by ranking",
			logger.String("snapshot_id", s.SnapshotID),
			logger.String("dj_id", s.DJID),
		)
	}

	if w.recorder != nil {
		if err := w.recorder.Record(ctx, ev); err != nil {
			metrics.RecordHistoryWriteError()
			metrics.RecordErrorByComponent("worker", "history_error")
			w.logger.Warn(ctx, "history write failed",
				logger.String("snapshot_id", s.SnapshotID),
				logger.Error(err),
			)
		} else {
			metrics.RecordHistoryWrite()
		}
	}

	w.processed.Add(1)
	return nil
}

// Pool manages a fixed set of workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	started  atomic.Bool
	stopOnce sync.Once
	shutdown chan struct{}

	lastProcessed     int64
	lastProcessedTime time.Time

	logger logger.Logger
}

// NewPool creates workerCount workers. A count below one selects a multiple
// of the CPU count. Options apply to every worker.
func NewPool(workerCount int, q Queue, evaluator Evaluator, updater Updater, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	p := &Pool{
		workers:           make([]*InMemoryWorker, workerCount),
		queue:             q,
		shutdown:          make(chan struct{}),
		lastProcessedTime: time.Now(),
		logger:            logger.Get().Named("worker-pool"),
	}
	for i := range workerCount {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, evaluator, updater, wopts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerMessagesPerSecond(0)

	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of snapshots handled by all workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Start launches every worker and the throughput updater.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

func (p *Pool) updateMetrics() {
	now := time.Now()
	total := p.Processed()
	if elapsed := now.Sub(p.lastProcessedTime).Seconds(); elapsed > 0 {
		metrics.UpdateWorkerMessagesPerSecond(float64(total-p.lastProcessed) / elapsed)
	}
	p.lastProcessed = total
	p.lastProcessedTime = now
}

// Stop signals every worker to exit without draining the queue.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.shutdown) })
	for _, w := range p.workers {
		w.stop()
	}
	if !p.started.Load() {
		return
	}
	for _, w := range p.workers {
		<-w.done
	}
}

// Shutdown closes the queue and lets workers drain it. Workers still busy
// when ctx (capped at 30s) expires are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	p.stopOnce.Do(func() { close(p.shutdown) })
	if !p.started.Load() {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			w.stop()
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
