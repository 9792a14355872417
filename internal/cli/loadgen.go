package cli

import (
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/okian/bookability/internal/loadgen"
	"github.com/spf13/cobra"
)

// NewLoadgenCommand creates the loadgen command.
func NewLoadgenCommand(rootOpts *RootOptions) *cobra.Command {
	var cfg loadgen.Config

	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Drive a server with synthetic DJs and verify every result",
		Long: `Generate DJs across audience profiles, submit their snapshots out of order,
wait for the server to evaluate them, then check each DJ against the local
scoring engine and the leaderboard ordering. Exits non-zero on any mismatch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.BaseURL = rootOpts.Server
			cfg.Timeout = rootOpts.Timeout

			rep, runErr := loadgen.Run(cmd.Context(), cfg)
			if rep != nil {
				err := write(cmd.OutOrStdout(), rootOpts.Format, rep, func(w io.Writer) error {
					return renderReport(w, rep)
				})
				if err != nil {
					return err
				}
			}
			return runErr
		},
	}

	cmd.Flags().IntVar(&cfg.DJs, "djs", 1000, "synthetic DJs to create")
	cmd.Flags().IntVar(&cfg.SnapshotsPerDJ, "snapshots", 3, "snapshots per DJ")
	cmd.Flags().IntVar(&cfg.DuplicateEvery, "duplicate-every", 10, "resubmit a snapshot of every Nth DJ (-1 disables)")
	cmd.Flags().IntVar(&cfg.TopN, "top", 100, "leaderboard entries to check")
	cmd.Flags().IntVarP(&cfg.Workers, "workers", "w", 0, "concurrent requests (0 = 2x CPUs)")
	cmd.Flags().DurationVar(&cfg.DrainTimeout, "drain-timeout", 2*time.Minute, "how long to wait for the queue to drain")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", 0, "random seed (0 = time based)")
	return cmd
}

func renderReport(w io.Writer, rep *loadgen.Report) error {
	rows := [][]string{
		{"Seed", strconv.FormatUint(rep.Seed, 10)},
		{"DJs", strconv.Itoa(rep.DJs)},
		{"Generated", strconv.Itoa(rep.Generated)},
		{"Accepted", strconv.Itoa(rep.Accepted)},
		{"Duplicates", strconv.Itoa(rep.Duplicates)},
		{"Retries", strconv.Itoa(rep.Retries)},
		{"Failed", strconv.Itoa(rep.Failed)},
		{"Verified", strconv.Itoa(rep.Verified)},
		{"Mismatches", strconv.Itoa(rep.Mismatches)},
		{"Leaderboard", strconv.Itoa(rep.LeaderboardEntries)},
		{"Duration", rep.Duration.Round(time.Millisecond).String()},
		{"Snapshots/s", strconv.FormatFloat(rep.SnapshotsPerSecond, 'f', 1, 64)},
	}
	profiles := make([]string, 0, len(rep.ByProfile))
	for name := range rep.ByProfile {
		profiles = append(profiles, name)
	}
	sort.Strings(profiles)
	for _, name := range profiles {
		rows = append(rows, []string{"Profile " + name, strconv.Itoa(rep.ByProfile[name])})
	}
	if err := renderTable(w, []string{"Metric", "Value"}, rows); err != nil {
		return err
	}

	if len(rep.Samples) == 0 {
		return nil
	}
	samples := make([][]string, 0, len(rep.Samples))
	for _, m := range rep.Samples {
		samples = append(samples, []string{m.DJID, m.Field, m.Expected, m.Actual})
	}
	return renderTable(w, []string{"DJ", "Field", "Expected", "Actual"}, samples)
}
