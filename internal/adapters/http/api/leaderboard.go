package api

import (
	"net/http"

	"github.com/okian/bookability/pkg/logger"
)

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
	logger   logger.Logger
}

// NewLeaderboardHandler creates a leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int, l logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps, maxLimit: maxLimit, logger: l}
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n, err := parseLimit(op, r, h.maxLimit)
	if err != nil {
		respond(r.Context(), w, h.logger, err)
		return
	}
	entries, err := h.deps.TopN(r.Context(), n)
	if err != nil {
		respond(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
