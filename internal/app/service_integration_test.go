package service_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/bookability/internal/adapters/history"
	service "github.com/okian/bookability/internal/app"
	"github.com/okian/bookability/internal/domain/bookability"
	"github.com/okian/bookability/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

func snapshot(id, dj string, ig, sp uint64, at time.Time) model.Snapshot {
	return model.Snapshot{SnapshotID: id, DJID: dj, InstagramFollowers: ig, SpotifyListeners: sp, TakenAt: at}
}

func startService(t *testing.T, opts ...service.Option) (*service.Service, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	opts = append([]service.Option{
		service.WithWorkerCount(4),
		service.WithQueueSize(1000),
		service.WithSnapshotInterval(20 * time.Millisecond),
	}, opts...)
	svc := service.New(opts...)
	require.NoError(t, svc.Start(ctx))
	t.Cleanup(svc.Stop)
	return svc, ctx
}

func waitProcessed(t *testing.T, svc *service.Service, n int64) {
	t.Helper()
	require.Eventually(t, func() bool {
		p, _ := svc.GetStats()["processed"].(int64)
		return p >= n
	}, 5*time.Second, 5*time.Millisecond)
}

func TestServiceIntegration_EndToEnd(t *testing.T) {
	svc, ctx := startService(t)

	snaps := []model.Snapshot{
		snapshot("s1", "dj-a", 800, 500, base),                       // 5 + 0
		snapshot("s2", "dj-b", 60_000, 600_000, base),                // 40 + 75
		snapshot("s3", "dj-c", 12_000, 60_000, base),                 // 30 + 20
		snapshot("s4", "dj-a", 45_300, 250_000, base.Add(time.Hour)), // newer: 30 + 50
		snapshot("s5", "dj-d", 12_000, 60_000, base),                 // ties dj-c
	}
	for _, s := range snaps {
		require.True(t, svc.Enqueue(ctx, s))
	}
	waitProcessed(t, svc, int64(len(snaps)))

	entries, err := svc.TopN(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, "dj-b", entries[0].DJID)
	assert.Equal(t, 100, entries[0].TotalScore)
	assert.Equal(t, "Légende", entries[0].LevelName)
	assert.Equal(t, 1, entries[0].Rank)

	assert.Equal(t, "dj-a", entries[1].DJID)
	assert.Equal(t, 80, entries[1].TotalScore)
	assert.Equal(t, 2, entries[1].Rank)

	// dj-c and dj-d tie and share a dense rank, ordered by id.
	assert.Equal(t, []string{"dj-c", "dj-d"}, []string{entries[2].DJID, entries[3].DJID})
	assert.Equal(t, 3, entries[2].Rank)
	assert.Equal(t, 3, entries[3].Rank)

	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].TotalScore, entries[i].TotalScore)
	}

	entry, err := svc.Rank(ctx, "dj-a")
	require.NoError(t, err)
	assert.Equal(t, "s4", entry.SnapshotID)
	assert.Equal(t, uint64(45_300), entry.InstagramFollowers)

	_, err = svc.Rank(ctx, "nobody")
	assert.Error(t, err)

	stats := svc.GetStats()
	assert.Equal(t, 4, stats["totalDJs"])
	dist, ok := stats["levelDistribution"].(map[int]int)
	require.True(t, ok)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 2, 4: 1, 5: 1}, dist)
}

func TestServiceIntegration_StaleSnapshotKeepsRanking(t *testing.T) {
	svc, ctx := startService(t, service.WithWorkerCount(1))

	require.True(t, svc.Enqueue(ctx, snapshot("new", "dj-x", 150_000, 2_000_000, base.Add(time.Hour))))
	waitProcessed(t, svc, 1)
	require.True(t, svc.Enqueue(ctx, snapshot("old", "dj-x", 10, 10, base)))
	waitProcessed(t, svc, 2)

	entry, err := svc.Rank(ctx, "dj-x")
	require.NoError(t, err)
	assert.Equal(t, "new", entry.SnapshotID)
	assert.Equal(t, 100, entry.TotalScore)
}

func TestServiceIntegration_HistoryRecordsEverySnapshot(t *testing.T) {
	store, err := history.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc, ctx := startService(t, service.WithHistory(store))
	assert.Equal(t, true, svc.GetStats()["historyEnabled"])

	for i := range 5 {
		followers := uint64(1_000 * (i + 1))
		s := snapshot(fmt.Sprintf("h%d", i), "dj-h", followers, 20_000, base.Add(time.Duration(i)*time.Hour))
		require.True(t, svc.Enqueue(ctx, s))
	}
	waitProcessed(t, svc, 5)

	rows, err := svc.History(ctx, "dj-h", 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "h4", rows[0].SnapshotID)
	assert.Equal(t, "h3", rows[1].SnapshotID)

	want := bookability.Evaluate(bookability.Input{InstagramFollowers: 5_000, SpotifyListeners: 20_000})
	assert.Equal(t, want.TotalScore, rows[0].TotalScore)
	assert.Equal(t, want.LevelName, rows[0].LevelName)
}

func TestServiceIntegration_Backpressure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A one-slot queue cannot keep up with a tight enqueue loop.
	svc := service.New(service.WithWorkerCount(1), service.WithQueueSize(1))
	require.NoError(t, svc.Start(ctx))
	defer svc.Stop()

	rejected := 0
	for i := range 10_000 {
		if !svc.Enqueue(ctx, snapshot(fmt.Sprintf("bp-%d", i), "dj", 1, 1, base)) {
			rejected++
		}
	}
	assert.Positive(t, rejected)
}
