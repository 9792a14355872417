package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCommand shows the build details for diagnostic purposes.
func NewVersionCommand(build BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of bookctl",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("bookctl CLI\n")
			cmd.Printf("  Version: %s\n", build.Version)
			cmd.Printf("  Commit:  %s\n", build.Commit)
			cmd.Printf("  Built:   %s\n", build.Date)
			cmd.Printf("  Runtime: %s\n", runtime.Version())
		},
	}
}
