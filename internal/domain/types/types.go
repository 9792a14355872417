// Package types contains common types used across the application
package types

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a DJ has no ranked snapshot.
var ErrNotFound = errors.New("dj not found")

// Entry represents a ranked DJ and their latest bookability result.
type Entry struct {
	Rank               int       `json:"rank"`
	DJID               string    `json:"dj_id"`
	TotalScore         int       `json:"total_score"`
	Level              int       `json:"level"`
	LevelName          string    `json:"level_name"`
	InstagramScore     int       `json:"instagram_score"`
	SpotifyScore       int       `json:"spotify_score"`
	InstagramFollowers uint64    `json:"instagram_followers"`
	SpotifyListeners   uint64    `json:"spotify_listeners"`
	SnapshotID         string    `json:"snapshot_id,omitempty"`
	TakenAt            time.Time `json:"taken_at"`
}
