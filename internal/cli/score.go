package cli

import (
	"io"
	"strconv"

	"github.com/okian/bookability/internal/domain/bookability"
	"github.com/okian/bookability/internal/domain/display"
	"github.com/spf13/cobra"
)

type scoreView struct {
	bookability.Result
	InstagramFollowers int64                `json:"instagram_followers"`
	SpotifyListeners   int64                `json:"spotify_listeners"`
	InstagramDisplay   string               `json:"instagram_followers_display"`
	SpotifyDisplay     string               `json:"spotify_listeners_display"`
	Progress           bookability.Progress `json:"progress"`
}

// NewScoreCommand creates the score command.
func NewScoreCommand(rootOpts *RootOptions) *cobra.Command {
	var instagram, spotify int64

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute a bookability score locally",
		Long: `Score Instagram followers and Spotify monthly listeners with the same
engine the server uses. No server is contacted.`,
		Example: "  bookctl score --instagram 45300 --spotify 250000",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := bookability.NewInput(instagram, spotify)
			if err != nil {
				return err
			}
			res := bookability.Evaluate(in)
			view := scoreView{
				Result:             res,
				InstagramFollowers: instagram,
				SpotifyListeners:   spotify,
				InstagramDisplay:   display.FormatNumber(instagram),
				SpotifyDisplay:     display.FormatNumber(spotify),
				Progress:           bookability.NextLevel(res.TotalScore),
			}
			return write(cmd.OutOrStdout(), rootOpts.Format, view, func(w io.Writer) error {
				return renderScore(w, view)
			})
		},
	}

	cmd.Flags().Int64Var(&instagram, "instagram", 0, "Instagram followers")
	cmd.Flags().Int64Var(&spotify, "spotify", 0, "Spotify monthly listeners")
	return cmd
}

func renderScore(w io.Writer, v scoreView) error { //nolint:gocritic // hugeParam: view is built once per call
	next := "max level"
	if !v.Progress.Max {
		next = strconv.Itoa(v.Progress.PointsToNext) + " to " + levelLabel(v.Progress.Next.Number, v.Progress.Next.Name)
	}
	rows := [][]string{
		{"Instagram", v.InstagramDisplay, strconv.Itoa(v.InstagramScore)},
		{"Spotify", v.SpotifyDisplay, strconv.Itoa(v.SpotifyScore)},
		{"Total", "", strconv.Itoa(v.TotalScore) + "/" + strconv.Itoa(bookability.MaxScore)},
		{"Level", levelLabel(v.Level, v.LevelName), strconv.Itoa(v.Level)},
		{"Next", next, ""},
	}
	return renderTable(w, []string{"Metric", "Value", "Points"}, rows)
}
