package history

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/bookability/internal/domain/bookability"
	"github.com/okian/bookability/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

func evaluation(id, dj string, ig, sp uint64, at time.Time) model.Evaluation {
	s := model.Snapshot{SnapshotID: id, DJID: dj, InstagramFollowers: ig, SpotifyListeners: sp, TakenAt: at}
	return model.Evaluation{Snapshot: s, Result: bookability.Evaluate(s.Input())}
}

func openTemp(t *testing.T) *SQLiteStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "history.db")
	s, err := OpenSQLite(context.Background(), dsn, WithClock(func() time.Time { return t0.Add(time.Minute) }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_EmptyDSNDisablesHistory(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, "")
	require.NoError(t, err)
	assert.False(t, s.Enabled())

	require.NoError(t, s.Record(ctx, evaluation("s1", "dj", 1, 1, t0)))
	_, err = s.List(ctx, "dj", 10)
	assert.ErrorIs(t, err, ErrDisabled)
	assert.NoError(t, s.Close())
}

func TestSQLiteStore_RecordAndList(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	assert.True(t, s.Enabled())

	require.NoError(t, s.Record(ctx, evaluation("s1", "dj-1", 1_200, 9_000, t0)))
	require.NoError(t, s.Record(ctx, evaluation("s2", "dj-1", 12_000, 60_000, t0.Add(48*time.Hour))))
	require.NoError(t, s.Record(ctx, evaluation("s3", "dj-1", 150_000, 2_000_000, t0.Add(24*time.Hour))))
	require.NoError(t, s.Record(ctx, evaluation("other", "dj-2", 5, 5, t0)))

	rows, err := s.List(ctx, "dj-1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"s2", "s3", "s1"}, []string{rows[0].SnapshotID, rows[1].SnapshotID, rows[2].SnapshotID})

	newest := rows[0]
	assert.Equal(t, "dj-1", newest.DJID)
	assert.Equal(t, uint64(12_000), newest.InstagramFollowers)
	assert.Equal(t, uint64(60_000), newest.SpotifyListeners)
	assert.Equal(t, 30, newest.InstagramScore)
	assert.Equal(t, 20, newest.SpotifyScore)
	assert.Equal(t, 50, newest.TotalScore)
	assert.Equal(t, 3, newest.Level)
	assert.Equal(t, "Confirmé", newest.LevelName)
	assert.True(t, newest.TakenAt.Equal(t0.Add(48*time.Hour)))
	assert.True(t, newest.RecordedAt.Equal(t0.Add(time.Minute)))

	assert.Equal(t, 100, rows[1].TotalScore)
	assert.Equal(t, "Légende", rows[1].LevelName)

	limited, err := s.List(ctx, "dj-1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "s2", limited[0].SnapshotID)

	none, err := s.List(ctx, "nobody", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStore_DuplicateSnapshotIgnored(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	require.NoError(t, s.Record(ctx, evaluation("s1", "dj-1", 100, 100, t0)))
	require.NoError(t, s.Record(ctx, evaluation("s1", "dj-1", 999_999, 999_999, t0)))

	rows, err := s.List(ctx, "dj-1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, uint64(100), rows[0].InstagramFollowers)
}

func TestSQLiteStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	_, err := s.List(ctx, "dj-1", 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)

	err = s.Record(ctx, evaluation("big", "dj-1", math.MaxUint64, 0, t0))
	assert.ErrorIs(t, err, ErrCountOverflow)
}

func TestSQLiteStore_ReopenKeepsRowsAndSkipsMigrations(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "history.db")

	first, err := OpenSQLite(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, first.Record(ctx, evaluation("s1", "dj-1", 10, 10, t0)))
	require.NoError(t, first.Close())

	second, err := OpenSQLite(ctx, dsn)
	require.NoError(t, err)
	defer second.Close()

	rows, err := second.List(ctx, "dj-1", 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSQLiteStore_TimestampsOutsideNanosecondRange(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	future := time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)
	past := time.Date(1600, 3, 1, 12, 0, 0, 0, time.UTC)
	precise := time.Date(2025, 6, 1, 20, 0, 0, 123_456_789, time.UTC)

	require.NoError(t, s.Record(ctx, evaluation("past", "dj-1", 10, 10, past)))
	require.NoError(t, s.Record(ctx, evaluation("future", "dj-1", 20, 20, future)))
	require.NoError(t, s.Record(ctx, evaluation("now", "dj-1", 30, 30, precise)))

	rows, err := s.List(ctx, "dj-1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"future", "now", "past"}, []string{rows[0].SnapshotID, rows[1].SnapshotID, rows[2].SnapshotID})
	assert.True(t, rows[0].TakenAt.Equal(future), "got %s", rows[0].TakenAt)
	assert.True(t, rows[1].TakenAt.Equal(precise), "got %s", rows[1].TakenAt)
	assert.True(t, rows[2].TakenAt.Equal(past), "got %s", rows[2].TakenAt)
}
