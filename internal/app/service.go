// Package service wires the scoring engine, the snapshot pipeline and the
// ranking into the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/okian/bookability/internal/adapters/history"
	"github.com/okian/bookability/internal/adapters/mq/queue"
	"github.com/okian/bookability/internal/adapters/mq/worker"
	"github.com/okian/bookability/internal/adapters/repository"
	"github.com/okian/bookability/internal/domain/bookability"
	"github.com/okian/bookability/internal/domain/dedupe"
	"github.com/okian/bookability/internal/domain/model"
	"github.com/okian/bookability/internal/domain/types"
	"github.com/okian/bookability/pkg/logger"
	"github.com/okian/bookability/pkg/metrics"
)

// ErrNotStarted is returned by ranking reads before Start.
var ErrNotStarted = errors.New("service not started")

const defaultShutdownTimeout = 10 * time.Second

// Service implements the API dependencies for the bookability system.
type Service struct {
	mu sync.RWMutex

	// Core components, built by Start.
	store   *repository.TreapStore
	deduper dedupe.Deduper
	queue   *queue.InMemoryQueue
	pool    *worker.Pool
	history history.Store

	// Configuration
	workerCount      int
	queueSize        int
	dedupeSize       int
	topCacheSize     int
	snapshotInterval time.Duration
	shutdownTimeout  time.Duration

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the snapshot queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the snapshot id cache; <= 0 means unbounded.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		s.dedupeSize = size
	}
}

// WithTopCacheSize sets how many leaders each ranking summary keeps.
func WithTopCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.topCacheSize = size
		}
	}
}

// WithSnapshotInterval sets how often the ranking summary is rebuilt.
func WithSnapshotInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.snapshotInterval = d
		}
	}
}

// WithShutdownTimeout bounds how long Stop waits for the queue to drain.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// WithHistory records every evaluation into h. The caller owns h and closes it.
func WithHistory(h history.Store) Option {
	return func(s *Service) {
		if h != nil {
			s.history = h
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Nothing runs until Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:      runtime.NumCPU() * 4,
		queueSize:        100_000,
		dedupeSize:       500_000,
		topCacheSize:     500,
		snapshotInterval: time.Second,
		shutdownTimeout:  defaultShutdownTimeout,
		history:          history.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start builds the ranking, the queue and the worker pool and starts the
// workers. Workers stop when ctx is done or on Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.store = repository.NewTreapStore(ctx,
		repository.WithTopCacheSize(s.topCacheSize),
		repository.WithSnapshotInterval(s.snapshotInterval),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))

	wopts := []worker.Option{worker.WithLogger(s.logger.Named("worker"))}
	if s.history.Enabled() {
		wopts = append(wopts, worker.WithRecorder(s.history))
	}
	s.pool = worker.NewPool(s.workerCount, s.queue, s, s.store, wopts...)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "bookability service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Bool("history", s.history.Enabled()),
	)
	return nil
}

// Stop drains the queue within the shutdown timeout and stops the ranking.
func (s *Service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "service shutdown incomplete", logger.Error(err))
	}
}

// Shutdown stops accepting snapshots, waits for queued ones to be evaluated
// until ctx is done, then stops the ranking's background loops.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping bookability service...")

	err := s.pool.Shutdown(ctx)
	_ = s.store.Close()

	s.started = false
	s.logger.Info(ctx, "bookability service stopped", logger.Int64("processed", s.pool.Processed()))
	return err
}

// Evaluate scores in. It is the evaluator used by both the synchronous
// score endpoint and the workers.
func (s *Service) Evaluate(_ context.Context, in bookability.Input) (bookability.Result, error) {
	start := time.Now()
	res := bookability.Evaluate(in)
	metrics.RecordEvaluation(res.TotalScore, res.Level, float64(time.Since(start).Microseconds())/1000)
	return res, nil
}

// SeenAndRecord atomically checks if a snapshot id was seen and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	d := s.dedupe()
	if d == nil {
		return false
	}
	return d.SeenAndRecord(ctx, id)
}

// Unrecord forgets a snapshot id so it can be resubmitted.
func (s *Service) Unrecord(ctx context.Context, id string) {
	if d := s.dedupe(); d != nil {
		d.Unrecord(ctx, id)
	}
}

// Size returns the number of remembered snapshot ids.
func (s *Service) Size() int64 {
	d := s.dedupe()
	if d == nil {
		return 0
	}
	return d.Size()
}

// Enqueue submits a snapshot for asynchronous evaluation. It returns false on
// backpressure or when the service is not running.
func (s *Service) Enqueue(ctx context.Context, snap model.Snapshot) bool { //nolint:gocritic // hugeParam: forwarded by value to the queue
	s.mu.RLock()
	q := s.queue
	started := s.started
	s.mu.RUnlock()
	if !started {
		return false
	}

	s.logger.Debug(ctx, "enqueueing snapshot",
		logger.String("snapshot_id", snap.SnapshotID),
		logger.String("dj_id", snap.DJID),
	)
	return q.Enqueue(ctx, snap)
}

// TopN returns the top n ranked DJs.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	store, err := s.ranking()
	if err != nil {
		return nil, err
	}
	return store.TopN(ctx, n)
}

// Rank returns the ranked entry of one DJ.
func (s *Service) Rank(ctx context.Context, djID string) (types.Entry, error) {
	store, err := s.ranking()
	if err != nil {
		return types.Entry{}, err
	}
	return store.Rank(ctx, djID)
}

// History lists a DJ's recorded evaluations, newest first.
func (s *Service) History(ctx context.Context, djID string, limit int) ([]history.Row, error) {
	return s.history.List(ctx, djID, limit)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":        s.started,
		"workerCount":    s.workerCount,
		"queueSize":      s.queueSize,
		"dedupeSize":     s.dedupeSize,
		"historyEnabled": s.history.Enabled(),
	}
	if !s.started {
		return stats
	}

	queueLen := s.queue.Len(ctx)
	totalDJs := s.store.Count(ctx)
	sum := s.store.Summary()

	stats["queueLength"] = queueLen
	stats["queueCapacity"] = s.queue.Capacity()
	stats["workers"] = s.pool.Size()
	stats["processed"] = s.pool.Processed()
	stats["totalDJs"] = totalDJs
	stats["dedupeEntries"] = s.deduper.Size()
	stats["levelDistribution"] = s.store.Distribution()
	stats["topCache"] = sum.TopCache
	stats["summaryBuiltAt"] = sum.BuiltAt

	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateTotalDJs(totalDJs)
	metrics.UpdateWorkerCount(s.pool.Size())
	return stats
}

func (s *Service) dedupe() dedupe.Deduper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deduper
}

func (s *Service) ranking() (*repository.TreapStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}
