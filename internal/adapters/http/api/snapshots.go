package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/bookability/internal/domain/bookability"
	"github.com/okian/bookability/internal/domain/model"
	"github.com/okian/bookability/pkg/logger"
	"github.com/okian/bookability/pkg/metrics"
)

// snapshotRequest mirrors the OpenAPI schema for POST /snapshots.
type snapshotRequest struct {
	SnapshotID         string `json:"snapshot_id"`
	DJID               string `json:"dj_id"`
	InstagramFollowers int64  `json:"instagram_followers"`
	SpotifyListeners   int64  `json:"spotify_listeners"`
	TakenAt            string `json:"taken_at"`
}

// toSnapshot validates the request. A missing snapshot id gets a random
// UUID and a missing taken_at defaults to now.
func (req snapshotRequest) toSnapshot(now time.Time) (model.Snapshot, error) {
	if strings.TrimSpace(req.DJID) == "" {
		return model.Snapshot{}, errors.New("missing dj_id")
	}
	// /djs/{id} could never address it.
	if strings.Contains(req.DJID, "/") {
		return model.Snapshot{}, errors.New("dj_id must not contain '/'")
	}
	in, err := bookability.NewInput(req.InstagramFollowers, req.SpotifyListeners)
	if err != nil {
		return model.Snapshot{}, err
	}
	takenAt := now
	if req.TakenAt != "" {
		if takenAt, err = time.Parse(time.RFC3339, req.TakenAt); err != nil {
			return model.Snapshot{}, errors.New("invalid taken_at; must be RFC3339")
		}
	}
	id := strings.TrimSpace(req.SnapshotID)
	if id == "" {
		id = uuid.NewString()
	}
	return model.Snapshot{
		SnapshotID:         id,
		DJID:               strings.TrimSpace(req.DJID),
		InstagramFollowers: in.InstagramFollowers,
		SpotifyListeners:   in.SpotifyListeners,
		TakenAt:            takenAt.UTC(),
	}, nil
}

type ackResponse struct {
	Status     string `json:"status"`
	Duplicate  bool   `json:"duplicate"`
	SnapshotID string `json:"snapshot_id"`
}

// SnapshotsHandler accepts snapshots for asynchronous evaluation.
type SnapshotsHandler struct {
	deps   SnapshotDependencies
	logger logger.Logger
	now    func() time.Time
}

// NewSnapshotsHandler creates a snapshots handler.
func NewSnapshotsHandler(deps SnapshotDependencies, l logger.Logger) *SnapshotsHandler {
	return &SnapshotsHandler{deps: deps, logger: l, now: time.Now}
}

// HandlePostSnapshot handles POST /snapshots.
func (h *SnapshotsHandler) HandlePostSnapshot(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_snapshot"
	ctx := r.Context()
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(ctx, w, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}
	snap, err := req.toSnapshot(h.now())
	if err != nil {
		if errors.Is(err, bookability.ErrNegativeCount) {
			respond(ctx, w, h.logger, Wrap(op, err))
			return
		}
		respond(ctx, w, h.logger, WrapKind(op, ErrBadRequest, err))
		return
	}

	// Mark as seen first so concurrent retries of the same id collapse.
	if h.deps.SeenAndRecord(ctx, snap.SnapshotID) {
		metrics.RecordSnapshotDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, SnapshotID: snap.SnapshotID})
		return
	}
	if !h.deps.Enqueue(ctx, snap) {
		// Forget the id so the client can retry after backpressure.
		h.deps.Unrecord(ctx, snap.SnapshotID)
		respond(ctx, w, h.logger, NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", SnapshotID: snap.SnapshotID})
}
