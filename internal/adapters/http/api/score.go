package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/bookability/internal/domain/bookability"
	"github.com/okian/bookability/internal/domain/display"
	"github.com/okian/bookability/pkg/logger"
)

type scoreRequest struct {
	InstagramFollowers int64 `json:"instagram_followers"`
	SpotifyListeners   int64 `json:"spotify_listeners"`
}

// scoreResponse is a Result plus everything a client needs to render it.
type scoreResponse struct {
	bookability.Result
	Color                     string               `json:"color"`
	Gradient                  string               `json:"gradient"`
	InstagramFollowersDisplay string               `json:"instagram_followers_display"`
	SpotifyListenersDisplay   string               `json:"spotify_listeners_display"`
	Progress                  bookability.Progress `json:"progress"`
}

type tablesResponse struct {
	Instagram bookability.Table `json:"instagram"`
	Spotify   bookability.Table `json:"spotify"`
	MaxScore  int               `json:"max_score"`
}

// ScoreHandler serves synchronous scoring.
type ScoreHandler struct {
	deps   ScoreDependencies
	logger logger.Logger
}

// NewScoreHandler creates a score handler.
func NewScoreHandler(deps ScoreDependencies, l logger.Logger) *ScoreHandler {
	return &ScoreHandler{deps: deps, logger: l}
}

// HandleScore handles POST /bookability/score.
func (h *ScoreHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(r.Context(), w, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}
	in, err := bookability.NewInput(req.InstagramFollowers, req.SpotifyListeners)
	if err != nil {
		respond(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	res, err := h.deps.Evaluate(r.Context(), in)
	if err != nil {
		respond(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{
		Result:                    res,
		Color:                     display.LevelColor(res.Level),
		Gradient:                  display.LevelGradient(res.Level),
		InstagramFollowersDisplay: display.FormatNumber(req.InstagramFollowers),
		SpotifyListenersDisplay:   display.FormatNumber(req.SpotifyListeners),
		Progress:                  bookability.NextLevel(res.TotalScore),
	})
}

// HandleTables handles GET /bookability/tables.
func (h *ScoreHandler) HandleTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, tablesResponse{
		Instagram: bookability.InstagramTable(),
		Spotify:   bookability.SpotifyTable(),
		MaxScore:  bookability.MaxScore,
	})
}
