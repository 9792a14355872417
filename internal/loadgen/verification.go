package loadgen

import (
	"strconv"

	"github.com/okian/bookability/internal/domain/bookability"
	"github.com/okian/bookability/internal/domain/types"
)

// expectation is what the server must rank for one DJ.
type expectation struct {
	djID       string
	snapshotID string
	result     bookability.Result
}

func firstAccepted(ok []bool) int {
	for i, v := range ok {
		if v {
			return i
		}
	}
	return -1
}

// latestAccepted picks the newest snapshot the server accepted. Snapshots
// are generated oldest first, so that is the last accepted index.
func latestAccepted(p Plan, ok []bool) (expectation, bool) {
	for i := len(ok) - 1; i >= 0; i-- {
		if ok[i] {
			s := p.Snapshots[i]
			return expectation{djID: p.DJID, snapshotID: s.SnapshotID, result: expected(s)}, true
		}
	}
	return expectation{}, false
}

func compareEntry(want expectation, got types.Entry) []Mismatch {
	var out []Mismatch
	check := func(field, w, g string) {
		if w != g {
			out = append(out, Mismatch{DJID: want.djID, Field: field, Expected: w, Actual: g})
		}
	}
	check("snapshot_id", want.snapshotID, got.SnapshotID)
	check("instagram_score", strconv.Itoa(want.result.InstagramScore), strconv.Itoa(got.InstagramScore))
	check("spotify_score", strconv.Itoa(want.result.SpotifyScore), strconv.Itoa(got.SpotifyScore))
	check("total_score", strconv.Itoa(want.result.TotalScore), strconv.Itoa(got.TotalScore))
	check("level", strconv.Itoa(want.result.Level), strconv.Itoa(got.Level))
	check("level_name", want.result.LevelName, got.LevelName)
	return out
}

// checkLeaderboard verifies non-increasing scores and dense ranks.
func checkLeaderboard(board []types.Entry) []Mismatch {
	var out []Mismatch
	for i := 1; i < len(board); i++ {
		prev, cur := board[i-1], board[i]
		if cur.TotalScore > prev.TotalScore {
			out = append(out, Mismatch{
				DJID:     cur.DJID,
				Field:    "leaderboard_order",
				Expected: "<= " + strconv.Itoa(prev.TotalScore),
				Actual:   strconv.Itoa(cur.TotalScore),
			})
			continue
		}
		wantRank := prev.Rank
		if cur.TotalScore < prev.TotalScore {
			wantRank++
		}
		if cur.Rank != wantRank {
			out = append(out, Mismatch{
				DJID:     cur.DJID,
				Field:    "rank",
				Expected: strconv.Itoa(wantRank),
				Actual:   strconv.Itoa(cur.Rank),
			})
		}
	}
	return out
}
