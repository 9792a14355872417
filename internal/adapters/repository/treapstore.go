package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/okian/bookability/internal/domain/bookability"
	"github.com/okian/bookability/internal/domain/model"
	"github.com/okian/bookability/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: total score DESC, then DJ id ASC. "less" means ranks earlier, so
// an in-order traversal yields the leaderboard from best to worst. Node
// priorities are a hash of the DJ id: scores only span 0-100, and
// score-derived priorities would degrade the treap into long chains.

const (
	defaultSnapshotInterval      = time.Second
	defaultTopCacheSize          = 500
	defaultMetricsUpdateInterval = 5 * time.Second
)

// Summary is an immutable, periodically rebuilt view of the ranking.
type Summary struct {
	TopCache    []Entry     // leaders, best first
	LevelCounts map[int]int // level number -> ranked DJs at that level
	Total       int
	BuiltAt     time.Time
}

type node struct {
	id    string
	score int
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aScore, aID) ranks before (bScore, bID).
func less(aScore int, aID string, bScore int, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score int) *node {
	if n == nil {
		return &node{id: id, score: score, prio: xxhash.Sum64String(id), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score int) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// walk visits nodes in rank order until visit returns false.
func walk(n *node, visit func(*node) bool) bool {
	if n == nil {
		return true
	}
	if !walk(n.left, visit) {
		return false
	}
	if !visit(n) {
		return false
	}
	return walk(n.right, visit)
}

// TreapStore is the in-memory ranking.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]model.Evaluation
	// scoreCount[s] is the number of DJs whose total score is s.
	scoreCount [bookability.MaxScore + 1]int

	snapshotInterval      time.Duration
	topCacheSize          int
	metricsUpdateInterval time.Duration

	summary atomic.Pointer[Summary]

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewTreapStore constructs a store and starts its background summary and
// metrics loops. They run until ctx is done or Close is called.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:                  make(map[string]model.Evaluation),
		snapshotInterval:      defaultSnapshotInterval,
		topCacheSize:          defaultTopCacheSize,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.publishSummary()
	s.every(ctx, s.snapshotInterval, s.publishSummary)
	s.every(ctx, s.metricsUpdateInterval, s.updateMetrics)

	return s
}

func (s *TreapStore) every(ctx context.Context, interval time.Duration, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// Close stops the background loops.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Upsert implements Store.Upsert in O(log n) expected time.
func (s *TreapStore) Upsert(_ context.Context, ev model.Evaluation) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	djID := ev.Snapshot.DJID
	score := ev.Result.TotalScore
	if djID == "" {
		return false, ErrInvalidDJ
	}
	if score < 0 || score > bookability.MaxScore {
		return false, fmt.Errorf("dj %s score %d: %w", djID, score, ErrScoreOutOfRange)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byID[djID]; ok {
		if ev.Snapshot.TakenAt.Before(old.Snapshot.TakenAt) {
			return false, nil
		}
		s.root = deleteNode(s.root, djID, old.Result.TotalScore)
		s.scoreCount[old.Result.TotalScore]--
	}
	s.byID[djID] = ev
	s.root = insert(s.root, djID, score)
	s.scoreCount[score]++
	return true, nil
}

// denseRank returns 1 + the number of distinct scores above score.
// Caller holds the lock.
func (s *TreapStore) denseRank(score int) int {
	rank := 1
	for hi := score + 1; hi <= bookability.MaxScore; hi++ {
		if s.scoreCount[hi] > 0 {
			rank++
		}
	}
	return rank
}

// Rank implements Store.Rank. Ties share a rank and ranks are consecutive.
func (s *TreapStore) Rank(_ context.Context, djID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.byID[djID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	return toEntry(s.denseRank(ev.Result.TotalScore), ev), nil
}

// Get implements Store.Get.
func (s *TreapStore) Get(_ context.Context, djID string) (model.Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.byID[djID]
	if !ok {
		return model.Evaluation{}, ErrNotFound
	}
	return ev, nil
}

// TopN implements Store.TopN.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectTop(n), nil
}

// collectTop walks the treap in order assigning dense ranks. Caller holds the lock.
func (s *TreapStore) collectTop(n int) []Entry {
	out := make([]Entry, 0, min(n, len(s.byID)))
	rank, prev := 0, -1
	walk(s.root, func(nd *node) bool {
		if nd.score != prev {
			rank++
			prev = nd.score
		}
		out = append(out, toEntry(rank, s.byID[nd.id]))
		return len(out) < n
	})
	return out
}

// Count implements Store.Count.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Distribution returns the live number of ranked DJs per level.
func (s *TreapStore) Distribution() map[int]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.distribution()
}

func (s *TreapStore) distribution() map[int]int {
	out := make(map[int]int, len(bookability.Levels()))
	for _, b := range bookability.Levels() {
		out[b.Level.Number] = 0
	}
	for score, c := range s.scoreCount {
		if c > 0 {
			out[bookability.LevelFromScore(score).Number] += c
		}
	}
	return out
}

// Summary returns the most recently published view.
func (s *TreapStore) Summary() Summary {
	return *s.summary.Load()
}

func (s *TreapStore) publishSummary() {
	start := time.Now()

	s.mu.RLock()
	sum := &Summary{
		TopCache:    s.collectTop(s.topCacheSize),
		LevelCounts: s.distribution(),
		Total:       len(s.byID),
		BuiltAt:     start,
	}
	s.mu.RUnlock()

	s.summary.Store(sum)
	metrics.RecordRepositorySnapshot(float64(time.Since(start).Microseconds())/1000, start.Unix())
}

func (s *TreapStore) updateMetrics() {
	sum := s.Summary()
	metrics.UpdateTotalDJs(sum.Total)
	for level, count := range sum.LevelCounts {
		metrics.UpdateLevelDistribution(level, count)
	}
}

func toEntry(rank int, ev model.Evaluation) Entry {
	return Entry{
		Rank:               rank,
		DJID:               ev.Snapshot.DJID,
		TotalScore:         ev.Result.TotalScore,
		Level:              ev.Result.Level,
		LevelName:          ev.Result.LevelName,
		InstagramScore:     ev.Result.InstagramScore,
		SpotifyScore:       ev.Result.SpotifyScore,
		InstagramFollowers: ev.Snapshot.InstagramFollowers,
		SpotifyListeners:   ev.Snapshot.SpotifyListeners,
		SnapshotID:         ev.Snapshot.SnapshotID,
		TakenAt:            ev.Snapshot.TakenAt,
	}
}
