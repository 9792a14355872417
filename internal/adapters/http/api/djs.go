package api

import (
	"net/http"
	"strings"

	"github.com/okian/bookability/internal/adapters/history"
	"github.com/okian/bookability/internal/domain/bookability"
	"github.com/okian/bookability/internal/domain/display"
	"github.com/okian/bookability/pkg/logger"
)

type djResponse struct {
	Entry
	Color    string               `json:"color"`
	Gradient string               `json:"gradient"`
	Progress bookability.Progress `json:"progress"`
}

type historyResponse struct {
	DJID      string        `json:"dj_id"`
	Snapshots []history.Row `json:"snapshots"`
}

// DJHandler serves /djs/{id} and /djs/{id}/history.
type DJHandler struct {
	deps     DJDependencies
	maxLimit int
	logger   logger.Logger
}

// NewDJHandler creates a DJ handler.
func NewDJHandler(deps DJDependencies, maxHistoryLimit int, l logger.Logger) *DJHandler {
	return &DJHandler{deps: deps, maxLimit: maxHistoryLimit, logger: l}
}

// HandleDJ dispatches on the path below /djs/.
func (h *DJHandler) HandleDJ(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/djs/"), "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		h.handleGet(w, r, parts[0])
	case len(parts) == 2 && parts[0] != "" && parts[1] == "history":
		h.handleHistory(w, r, parts[0])
	default:
		writeError(w, http.StatusBadRequest, "bad_request", NewKind("api.get_dj", ErrBadRequest))
	}
}

func (h *DJHandler) handleGet(w http.ResponseWriter, r *http.Request, djID string) {
	const op = "api.get_dj"
	entry, err := h.deps.Rank(r.Context(), djID)
	if err != nil {
		respond(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, djResponse{
		Entry:    entry,
		Color:    display.LevelColor(entry.Level),
		Gradient: display.LevelGradient(entry.Level),
		Progress: bookability.NextLevel(entry.TotalScore),
	})
}

func (h *DJHandler) handleHistory(w http.ResponseWriter, r *http.Request, djID string) {
	const op = "api.get_dj_history"
	n, err := parseLimit(op, r, h.maxLimit)
	if err != nil {
		respond(r.Context(), w, h.logger, err)
		return
	}
	rows, err := h.deps.History(r.Context(), djID, n)
	if err != nil {
		respond(r.Context(), w, h.logger, Wrap(op, err))
		return
	}
	if rows == nil {
		rows = []history.Row{}
	}
	writeJSON(w, http.StatusOK, historyResponse{DJID: djID, Snapshots: rows})
}
