// Package repository keeps the live bookability ranking of DJs.
package repository

import (
	"context"

	"github.com/okian/bookability/internal/domain/model"
	"github.com/okian/bookability/internal/domain/types"
)

// Entry is a ranked leaderboard row.
type Entry = types.Entry

// Store provides read/write access to the ranking state.
type Store interface {
	// Upsert replaces the DJ's ranked result unless the snapshot is older
	// than the one already held. It reports whether the ranking changed.
	Upsert(ctx context.Context, ev model.Evaluation) (bool, error)

	// Rank returns the DJ's dense rank and latest result, or ErrNotFound.
	Rank(ctx context.Context, djID string) (Entry, error)

	// TopN returns the top-n entries ordered by score desc, DJ id asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Get returns the evaluation currently ranked for a DJ.
	Get(ctx context.Context, djID string) (model.Evaluation, error)

	// Count returns the number of ranked DJs.
	Count(ctx context.Context) int
}
