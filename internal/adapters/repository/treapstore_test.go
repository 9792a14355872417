package repository

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/okian/bookability/internal/domain/bookability"
	"github.com/okian/bookability/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// eval builds an evaluation whose total score is exactly total.
func eval(djID string, total int, at time.Time) model.Evaluation {
	lvl := bookability.LevelFromScore(total)
	return model.Evaluation{
		Snapshot: model.Snapshot{SnapshotID: djID + "@" + at.Format(time.RFC3339Nano), DJID: djID, TakenAt: at},
		Result:   bookability.Result{TotalScore: total, Level: lvl.Number, LevelName: lvl.Name},
	}
}

func newStore(t *testing.T, opts ...Option) *TreapStore {
	t.Helper()
	s := NewTreapStore(context.Background(), opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTreapStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	assert.Equal(t, 0, store.Count(ctx))

	updated, err := store.Upsert(ctx, eval("dj-1", 60, t0))
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, 1, store.Count(ctx))

	entry, err := store.Rank(ctx, "dj-1")
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Rank)
	assert.Equal(t, 60, entry.TotalScore)
	assert.Equal(t, 3, entry.Level)
	assert.Equal(t, t0, entry.TakenAt)

	entries, err := store.TopN(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "dj-1", entries[0].DJID)

	ev, err := store.Get(ctx, "dj-1")
	require.NoError(t, err)
	assert.Equal(t, 60, ev.Result.TotalScore)
}

func TestTreapStore_ReplacesWithNewerSnapshots(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Upsert(ctx, eval("dj-1", 80, t0))
	require.NoError(t, err)

	// Bookability is recomputed, so a newer lower score replaces a higher one.
	updated, err := store.Upsert(ctx, eval("dj-1", 25, t0.Add(time.Hour)))
	require.NoError(t, err)
	assert.True(t, updated)

	entry, err := store.Rank(ctx, "dj-1")
	require.NoError(t, err)
	assert.Equal(t, 25, entry.TotalScore)
	assert.Equal(t, 2, entry.Level)

	// Same timestamp still replaces.
	updated, err = store.Upsert(ctx, eval("dj-1", 30, t0.Add(time.Hour)))
	require.NoError(t, err)
	assert.True(t, updated)

	// Older snapshots are ignored.
	updated, err = store.Upsert(ctx, eval("dj-1", 100, t0))
	require.NoError(t, err)
	assert.False(t, updated)

	entry, err = store.Rank(ctx, "dj-1")
	require.NoError(t, err)
	assert.Equal(t, 30, entry.TotalScore)
	assert.Equal(t, 1, store.Count(ctx))
}

func TestTreapStore_DenseRanks(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for id, score := range map[string]int{"a": 90, "b": 90, "c": 70, "d": 50, "e": 50, "f": 10} {
		_, err := store.Upsert(ctx, eval(id, score, t0))
		require.NoError(t, err)
	}

	entries, err := store.TopN(ctx, 10)
	require.NoError(t, err)

	var got []string
	for _, e := range entries {
		got = append(got, fmt.Sprintf("%d:%s:%d", e.Rank, e.DJID, e.TotalScore))
	}
	assert.Equal(t, []string{"1:a:90", "1:b:90", "2:c:70", "3:d:50", "3:e:50", "4:f:10"}, got)

	for _, e := range entries {
		r, err := store.Rank(ctx, e.DJID)
		require.NoError(t, err)
		assert.Equal(t, e.Rank, r.Rank, "Rank and TopN disagree for %s", e.DJID)
	}

	top2, err := store.TopN(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, top2, 2)
}

func TestTreapStore_Errors(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	_, err := store.Rank(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.TopN(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)

	_, err = store.Upsert(ctx, eval("", 10, t0))
	assert.ErrorIs(t, err, ErrInvalidDJ)

	_, err = store.Upsert(ctx, eval("dj", 101, t0))
	assert.ErrorIs(t, err, ErrScoreOutOfRange)

	_, err = store.Upsert(ctx, eval("dj", -1, t0))
	assert.ErrorIs(t, err, ErrScoreOutOfRange)
}

func TestTreapStore_SummaryAndDistribution(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, WithSnapshotInterval(10*time.Millisecond), WithTopCacheSize(2))

	for id, score := range map[string]int{"a": 5, "b": 20, "c": 55, "d": 85, "e": 100, "f": 99} {
		_, err := store.Upsert(ctx, eval(id, score, t0))
		require.NoError(t, err)
	}

	assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 1, 4: 2, 5: 1}, store.Distribution())

	require.Eventually(t, func() bool { return store.Summary().Total == 6 }, 2*time.Second, 5*time.Millisecond)
	sum := store.Summary()
	require.Len(t, sum.TopCache, 2)
	assert.Equal(t, "e", sum.TopCache[0].DJID)
	assert.Equal(t, "f", sum.TopCache[1].DJID)
	assert.Equal(t, 2, sum.LevelCounts[4])
}

func TestTreapStore_EmptySummary(t *testing.T) {
	store := newStore(t)

	sum := store.Summary()
	assert.Equal(t, 0, sum.Total)
	assert.Empty(t, sum.TopCache)
	assert.Len(t, sum.LevelCounts, 5)
}

// checkTreap verifies BST order, heap order on priorities, and subtree sizes.
func checkTreap(t *testing.T, n *node) int {
	t.Helper()
	if n == nil {
		return 0
	}
	if n.left != nil {
		assert.True(t, less(n.left.score, n.left.id, n.score, n.id), "left child out of order at %s", n.id)
		assert.LessOrEqual(t, n.left.prio, n.prio, "heap order broken at %s", n.id)
	}
	if n.right != nil {
		assert.True(t, less(n.score, n.id, n.right.score, n.right.id), "right child out of order at %s", n.id)
		assert.LessOrEqual(t, n.right.prio, n.prio, "heap order broken at %s", n.id)
	}
	size := 1 + checkTreap(t, n.left) + checkTreap(t, n.right)
	assert.Equal(t, size, n.size, "size mismatch at %s", n.id)
	return size
}

func TestTreapStore_MatchesReferenceRanking(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	rng := rand.New(rand.NewSource(42)) //nolint:gosec // deterministic test data

	latest := map[string]model.Evaluation{}
	for i := range 5000 {
		id := fmt.Sprintf("dj-%03d", rng.Intn(300))
		ev := eval(id, rng.Intn(bookability.MaxScore+1), t0.Add(time.Duration(rng.Intn(1000))*time.Second))
		updated, err := store.Upsert(ctx, ev)
		require.NoError(t, err, "upsert %d", i)

		cur, seen := latest[id]
		want := !seen || !ev.Snapshot.TakenAt.Before(cur.Snapshot.TakenAt)
		assert.Equal(t, want, updated)
		if want {
			latest[id] = ev
		}
	}

	checkTreap(t, store.root)

	ref := make([]model.Evaluation, 0, len(latest))
	for _, ev := range latest {
		ref = append(ref, ev)
	}
	sort.Slice(ref, func(i, j int) bool {
		return less(ref[i].Result.TotalScore, ref[i].Snapshot.DJID, ref[j].Result.TotalScore, ref[j].Snapshot.DJID)
	})

	entries, err := store.TopN(ctx, len(ref)+10)
	require.NoError(t, err)
	require.Len(t, entries, len(ref))

	rank := 0
	for i, ev := range ref {
		if i == 0 || ev.Result.TotalScore != ref[i-1].Result.TotalScore {
			rank++
		}
		assert.Equal(t, ev.Snapshot.DJID, entries[i].DJID)
		assert.Equal(t, rank, entries[i].Rank)
	}
}

func TestTreapStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, WithSnapshotInterval(time.Millisecond))

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := range 500 {
				id := fmt.Sprintf("dj-%d", (w*500+i)%200)
				_, err := store.Upsert(ctx, eval(id, (w+i)%101, t0.Add(time.Duration(i)*time.Second)))
				assert.NoError(t, err)
				_, _ = store.Rank(ctx, id)
				_, _ = store.TopN(ctx, 10)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 200, store.Count(ctx))
	total := 0
	for _, c := range store.Distribution() {
		total += c
	}
	assert.Equal(t, 200, total)
	checkTreap(t, store.root)
}

func TestTreapStore_CloseIsIdempotent(t *testing.T) {
	store := NewTreapStore(context.Background())
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func BenchmarkTreapStore_Upsert(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	ids := make([]string, 10000)
	for i := range ids {
		ids[i] = fmt.Sprintf("dj-%05d", i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Upsert(ctx, eval(ids[i%len(ids)], i%101, t0.Add(time.Duration(i))))
	}
}

func BenchmarkTreapStore_Rank(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	for i := range 10000 {
		_, _ = store.Upsert(ctx, eval(fmt.Sprintf("dj-%05d", i), i%101, t0))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Rank(ctx, fmt.Sprintf("dj-%05d", i%10000))
	}
}

func BenchmarkTreapStore_TopN(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore(ctx)
	defer store.Close()

	for i := range 10000 {
		_, _ = store.Upsert(ctx, eval(fmt.Sprintf("dj-%05d", i), i%101, t0))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.TopN(ctx, 100)
	}
}
