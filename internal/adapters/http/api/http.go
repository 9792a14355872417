// Package api declares the HTTP contract of the bookability service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/bookability/internal/adapters/history"
	"github.com/okian/bookability/internal/domain/bookability"
	"github.com/okian/bookability/internal/domain/dedupe"
	"github.com/okian/bookability/internal/domain/model"
	"github.com/okian/bookability/internal/domain/types"
	"github.com/okian/bookability/pkg/logger"
)

// Entry mirrors the read shape returned by ranking queries.
type Entry = types.Entry

// ScoreDependencies evaluates counts synchronously.
type ScoreDependencies interface {
	Evaluate(ctx context.Context, in bookability.Input) (bookability.Result, error)
}

// SnapshotDependencies accepts snapshots for asynchronous evaluation.
type SnapshotDependencies interface {
	dedupe.Deduper
	// Enqueue returns false on backpressure.
	Enqueue(ctx context.Context, s model.Snapshot) bool
}

// LeaderboardDependencies reads the top of the ranking.
type LeaderboardDependencies interface {
	TopN(ctx context.Context, n int) ([]Entry, error)
}

// DJDependencies reads a single DJ.
type DJDependencies interface {
	Rank(ctx context.Context, djID string) (Entry, error)
	History(ctx context.Context, djID string, limit int) ([]history.Row, error)
}

// StatsProvider reports service statistics.
type StatsProvider interface {
	GetStats() map[string]any
}

// Dependencies bundles everything the handlers need.
type Dependencies interface {
	ScoreDependencies
	SnapshotDependencies
	LeaderboardDependencies
	DJDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	maxLeaderboardLimit int
	maxHistoryLimit     int
	limiter             *RateLimiter
	logger              logger.Logger

	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	scoreHandler       *ScoreHandler
	levelsHandler      *LevelsHandler
	snapshotsHandler   *SnapshotsHandler
	leaderboardHandler *LeaderboardHandler
	djHandler          *DJHandler
}

// NewServer creates an API server with all handlers.
func NewServer(deps Dependencies, stats StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxLeaderboardLimit: defaultMaxLeaderboardLimit,
		maxHistoryLimit:     defaultMaxHistoryLimit,
		logger:              logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(stats)
	s.scoreHandler = NewScoreHandler(deps, s.logger)
	s.levelsHandler = NewLevelsHandler()
	s.snapshotsHandler = NewSnapshotsHandler(deps, s.logger)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLeaderboardLimit, s.logger)
	s.djHandler = NewDJHandler(deps, s.maxHistoryLimit, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/bookability/score", MetricsMiddleware(s.scoreHandler.HandleScore, "score"))
	mux.HandleFunc("/bookability/tables", MetricsMiddleware(s.scoreHandler.HandleTables, "tables"))
	mux.HandleFunc("/levels", MetricsMiddleware(s.levelsHandler.HandleLevels, "levels"))
	mux.HandleFunc("/snapshots",
		MetricsMiddleware(s.limiter.Limit(s.snapshotsHandler.HandlePostSnapshot, "snapshots"), "snapshots"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/djs/", MetricsMiddleware(s.djHandler.HandleDJ, "djs"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// respond writes err with the status its kind maps to. Server-side failures
// are logged and answered with a generic message.
func respond(ctx context.Context, w http.ResponseWriter, l logger.Logger, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		l.Error(ctx, "request failed", logger.Error(err))
		writeError(w, status, code, nil)
		return
	}
	writeError(w, status, code, err)
}

// parseLimit reads a required positive ?limit= bounded by maxLimit.
func parseLimit(op string, r *http.Request, maxLimit int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, WrapKind(op, ErrBadRequest, errors.New("missing limit"))
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, WrapKind(op, ErrBadRequest, errors.New("limit must be a positive integer"))
	}
	if n > maxLimit {
		return 0, WrapKind(op, ErrBadRequest, errors.New("limit exceeds maximum of "+strconv.Itoa(maxLimit)))
	}
	return n, nil
}
