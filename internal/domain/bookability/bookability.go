// Package bookability computes a DJ's 0-100 bookability score and career
// level from social and streaming metrics.
//
// Every function in this package is pure: no I/O, no clock, no shared
// mutable state. Results may be cached or computed concurrently.
package bookability

import "fmt"

// MaxScore caps the aggregate score.
const MaxScore = 100

// Input holds validated, non-negative metric counts.
type Input struct {
	InstagramFollowers uint64 `json:"instagram_followers"`
	SpotifyListeners   uint64 `json:"spotify_listeners"`
}

// NewInput validates raw counts coming from an external data layer.
// Negative values are rejected rather than clamped.
func NewInput(instagramFollowers, spotifyListeners int64) (Input, error) {
	if instagramFollowers < 0 {
		return Input{}, fmt.Errorf("instagram followers %d: %w", instagramFollowers, ErrNegativeCount)
	}
	if spotifyListeners < 0 {
		return Input{}, fmt.Errorf("spotify listeners %d: %w", spotifyListeners, ErrNegativeCount)
	}
	return Input{
		InstagramFollowers: uint64(instagramFollowers),
		SpotifyListeners:   uint64(spotifyListeners),
	}, nil
}

// Result is the derived score for one Input. It is recomputed, never updated.
type Result struct {
	InstagramScore int    `json:"instagram_score"`
	SpotifyScore   int    `json:"spotify_score"`
	TotalScore     int    `json:"total_score"`
	Level          int    `json:"level"`
	LevelName      string `json:"level_name"`
}

// TotalScore is a saturating add of the two sub-scores.
func TotalScore(instagramScore, spotifyScore int) int {
	return min(instagramScore+spotifyScore, MaxScore)
}

// Evaluate computes the full result for in.
func Evaluate(in Input) Result {
	ig := InstagramScore(in.InstagramFollowers)
	sp := SpotifyScore(in.SpotifyListeners)
	total := TotalScore(ig, sp)
	lvl := LevelFromScore(total)
	return Result{
		InstagramScore: ig,
		SpotifyScore:   sp,
		TotalScore:     total,
		Level:          lvl.Number,
		LevelName:      lvl.Name,
	}
}
