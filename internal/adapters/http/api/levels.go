package api

import (
	"net/http"

	"github.com/okian/bookability/internal/domain/bookability"
	"github.com/okian/bookability/internal/domain/display"
)

type levelView struct {
	bookability.LevelBand
	Color    string `json:"color"`
	Gradient string `json:"gradient"`
}

// LevelsHandler lists the level bands.
type LevelsHandler struct {
	levels []levelView
}

// NewLevelsHandler builds the static level listing once.
func NewLevelsHandler() *LevelsHandler {
	bands := bookability.Levels()
	views := make([]levelView, len(bands))
	for i, b := range bands {
		views[i] = levelView{
			LevelBand: b,
			Color:     display.LevelColor(b.Number),
			Gradient:  display.LevelGradient(b.Number),
		}
	}
	return &LevelsHandler{levels: views}
}

// HandleLevels handles GET /levels.
func (h *LevelsHandler) HandleLevels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.levels)
}
