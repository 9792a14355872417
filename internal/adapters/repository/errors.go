package repository

import (
	"errors"

	"github.com/okian/bookability/internal/domain/types"
)

// Sentinel kinds for ranking errors.
var (
	ErrNotFound        = types.ErrNotFound
	ErrInvalidLimit    = errors.New("invalid leaderboard limit")
	ErrInvalidDJ       = errors.New("dj id is required")
	ErrScoreOutOfRange = errors.New("total score out of range")
)
