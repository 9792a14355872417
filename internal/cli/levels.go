package cli

import (
	"io"
	"strconv"

	"github.com/okian/bookability/internal/domain/bookability"
	"github.com/spf13/cobra"
)

// NewLevelsCommand creates the levels command.
func NewLevelsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "List the five career levels and their score ranges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bands := bookability.Levels()
			return write(cmd.OutOrStdout(), rootOpts.Format, bands, func(w io.Writer) error {
				rows := make([][]string, 0, len(bands))
				for _, b := range bands {
					rows = append(rows, []string{
						strconv.Itoa(b.Number),
						levelLabel(b.Number, b.Name),
						strconv.Itoa(b.MinScore) + "-" + strconv.Itoa(b.MaxScore),
					})
				}
				return renderTable(w, []string{"Level", "Name", "Score"}, rows)
			})
		},
	}
}
