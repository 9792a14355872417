package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/okian/bookability/internal/apiclient"
	"github.com/okian/bookability/internal/domain/display"
	"github.com/okian/bookability/internal/domain/types"
	"github.com/spf13/cobra"
)

// NewLeaderboardCommand creates the leaderboard command.
func NewLeaderboardCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top ranked DJs of a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return errors.New("--limit must be positive")
			}
			client := apiclient.New(rootOpts.Server, rootOpts.Timeout)
			entries, err := client.Leaderboard(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("fetch leaderboard: %w", err)
			}
			if entries == nil {
				entries = []types.Entry{}
			}
			return write(cmd.OutOrStdout(), rootOpts.Format, entries, func(w io.Writer) error {
				return renderLeaderboard(w, entries)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of entries")
	return cmd
}

func renderLeaderboard(w io.Writer, entries []types.Entry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(e.Rank),
			e.DJID,
			strconv.Itoa(e.TotalScore),
			levelLabel(e.Level, e.LevelName),
			display.FormatNumber(int64(e.InstagramFollowers)), //nolint:gosec // display only
			display.FormatNumber(int64(e.SpotifyListeners)),   //nolint:gosec // display only
		})
	}
	return renderTable(w, []string{"Rank", "DJ", "Score", "Level", "Instagram", "Spotify"}, rows)
}
