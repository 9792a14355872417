// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/bookability/internal/domain/bookability"
)

// Snapshot is a point-in-time read of a DJ's statistics record.
type Snapshot struct {
	SnapshotID         string    // unique id for idempotency
	DJID               string    // owner of the statistics record
	InstagramFollowers uint64    // validated at the API boundary
	SpotifyListeners   uint64    // monthly listeners
	TakenAt            time.Time // when the metrics were read
}

// Input returns the scoring engine input for this snapshot.
func (s Snapshot) Input() bookability.Input { //nolint:gocritic // hugeParam: Snapshot flows by value through the queue
	return bookability.Input{
		InstagramFollowers: s.InstagramFollowers,
		SpotifyListeners:   s.SpotifyListeners,
	}
}

// Evaluation pairs a snapshot with its computed result.
type Evaluation struct {
	Snapshot Snapshot
	Result   bookability.Result
}
