// Package history persists every evaluated snapshot so a DJ's bookability
// can be charted over time.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/okian/bookability/internal/domain/model"
	"github.com/okian/bookability/pkg/logger"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const driverName = "sqlite"

// Row is one persisted evaluation.
type Row struct {
	SnapshotID         string    `json:"snapshot_id"`
	DJID               string    `json:"dj_id"`
	InstagramFollowers uint64    `json:"instagram_followers"`
	SpotifyListeners   uint64    `json:"spotify_listeners"`
	InstagramScore     int       `json:"instagram_score"`
	SpotifyScore       int       `json:"spotify_score"`
	TotalScore         int       `json:"total_score"`
	Level              int       `json:"level"`
	LevelName          string    `json:"level_name"`
	TakenAt            time.Time `json:"taken_at"`
	RecordedAt         time.Time `json:"recorded_at"`
}

// Store records evaluations and lists them per DJ, newest first.
type Store interface {
	Record(ctx context.Context, ev model.Evaluation) error
	List(ctx context.Context, djID string, limit int) ([]Row, error)
	Enabled() bool
	Close() error
}

// Nop is the Store used when history is disabled.
type Nop struct{}

// Record discards ev.
func (Nop) Record(context.Context, model.Evaluation) error { return nil }

// List always fails with ErrDisabled.
func (Nop) List(context.Context, string, int) ([]Row, error) { return nil, ErrDisabled }

// Enabled reports false.
func (Nop) Enabled() bool { return false }

// Close is a no-op.
func (Nop) Close() error { return nil }

// SQLiteStore is a Store backed by a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	now    func() time.Time
	logger logger.Logger
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithClock overrides the recorded_at clock.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		if now != nil {
			s.now = now
		}
	}
}

// Open returns Nop for an empty dsn, otherwise a migrated SQLiteStore.
func Open(ctx context.Context, dsn string, opts ...Option) (Store, error) {
	if dsn == "" {
		return Nop{}, nil
	}
	return OpenSQLite(ctx, dsn, opts...)
}

// OpenSQLite opens dsn and applies the embedded migrations.
func OpenSQLite(ctx context.Context, dsn string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// SQLite serialises writers; one connection also keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history database: %w", err)
	}
	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteStore{
		db:     db,
		now:    time.Now,
		logger: logger.Get().Named("history"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger.Info(ctx, "snapshot history enabled", logger.String("dsn", dsn))
	return s, nil
}

func toInt64(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%d: %w", v, ErrCountOverflow)
	}
	return int64(v), nil
}

// Record inserts ev. Re-recording a snapshot id is ignored.
func (s *SQLiteStore) Record(ctx context.Context, ev model.Evaluation) error {
	ig, err := toInt64(ev.Snapshot.InstagramFollowers)
	if err != nil {
		return fmt.Errorf("instagram followers: %w", err)
	}
	sp, err := toInt64(ev.Snapshot.SpotifyListeners)
	if err != nil {
		return fmt.Errorf("spotify listeners: %w", err)
	}

	recorded := s.now()
	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO snapshots (
			snapshot_id, dj_id, instagram_followers, spotify_listeners,
			instagram_score, spotify_score, total_score, level, level_name,
			taken_at, taken_at_nanos, recorded_at, recorded_at_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Snapshot.SnapshotID, ev.Snapshot.DJID, ig, sp,
		ev.Result.InstagramScore, ev.Result.SpotifyScore, ev.Result.TotalScore,
		ev.Result.Level, ev.Result.LevelName,
		ev.Snapshot.TakenAt.Unix(), ev.Snapshot.TakenAt.Nanosecond(),
		recorded.Unix(), recorded.Nanosecond(),
	)
	if err != nil {
		return fmt.Errorf("record snapshot %s: %w", ev.Snapshot.SnapshotID, err)
	}
	return nil
}

// List returns up to limit rows for djID ordered by taken_at descending.
func (s *SQLiteStore) List(ctx context.Context, djID string, limit int) ([]Row, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT snapshot_id, dj_id, instagram_followers, spotify_listeners,
			instagram_score, spotify_score, total_score, level, level_name,
			taken_at, taken_at_nanos, recorded_at, recorded_at_nanos
		FROM snapshots
		WHERE dj_id = ?
		ORDER BY taken_at DESC, taken_at_nanos DESC, recorded_at DESC, recorded_at_nanos DESC
		LIMIT ?`, djID, limit)
	if err != nil {
		return nil, fmt.Errorf("list history for %s: %w", djID, err)
	}
	defer rows.Close()

	out := make([]Row, 0, limit)
	for rows.Next() {
		var (
			r                     Row
			ig, sp                int64
			taken, takenNanos     int64
			recorded, recordNanos int64
		)
		if err := rows.Scan(&r.SnapshotID, &r.DJID, &ig, &sp,
			&r.InstagramScore, &r.SpotifyScore, &r.TotalScore, &r.Level, &r.LevelName,
			&taken, &takenNanos, &recorded, &recordNanos); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		r.InstagramFollowers = uint64(ig) //nolint:gosec // stored from a non-negative int64
		r.SpotifyListeners = uint64(sp)   //nolint:gosec // stored from a non-negative int64
		r.TakenAt = time.Unix(taken, takenNanos).UTC()
		r.RecordedAt = time.Unix(recorded, recordNanos).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return out, nil
}

// Enabled reports true.
func (s *SQLiteStore) Enabled() bool { return true }

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
