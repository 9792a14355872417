// Package dedupe tracks snapshot ids so each snapshot is evaluated at most once.
package dedupe

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMaxSize = 50_000

// Deduper records seen snapshot IDs.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a rejected submission can be retried, e.g.
	// after queue backpressure.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// inMemoryDeduper keeps ids in an LRU cache when bounded and in a plain map
// when maxSize <= 0. Hits never refresh recency, so the oldest recorded id
// is the one evicted.
type inMemoryDeduper struct {
	maxSize int

	recent *lru.Cache[string, struct{}]

	mu  sync.Mutex
	all map[string]struct{}
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}

	if d.maxSize <= 0 {
		d.all = make(map[string]struct{})
		return d
	}
	// lru.New only fails for a non-positive size.
	d.recent, _ = lru.New[string, struct{}](d.maxSize)
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	if d.recent != nil {
		seen, _ := d.recent.ContainsOrAdd(id, struct{}{})
		return seen
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.all[id]; ok {
		return true
	}
	d.all[id] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, id string) {
	if d.recent != nil {
		d.recent.Remove(id)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.all, id)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	if d.recent != nil {
		return int64(d.recent.Len())
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.all))
}
