// Package cli implements the bookctl command line tool.
package cli

import (
	"fmt"
	"slices"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format  string // "table" | "json" | "yaml"
	Server  string
	Timeout time.Duration
	NoColor bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"table", "json", "yaml"}

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand creates the bookctl root command.
func NewRootCommand(build BuildInfo) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "bookctl",
		Short: "bookctl scores DJs and inspects a bookability server",
		Long: `Compute bookability scores locally, list career levels, read a running
server's leaderboard and drive it with synthetic load.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.NoColor {
				color.NoColor = true
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "o", "table", "output format (table|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.Server, "server", "http://localhost:9080", "bookability server base URL")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "per-request timeout")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable coloured output")

	cmd.AddCommand(NewScoreCommand(opts))
	cmd.AddCommand(NewLevelsCommand(opts))
	cmd.AddCommand(NewLeaderboardCommand(opts))
	cmd.AddCommand(NewLoadgenCommand(opts))
	cmd.AddCommand(NewVersionCommand(build))

	return cmd
}
