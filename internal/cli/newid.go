package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/lakeidx/internal/ident"
)

// NewNewIDCommand creates the newid command.
func NewNewIDCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newid <noun>",
		Short: "Mint a record id",
		Long: `Mint a fresh time-sortable id tagged with the noun.

Example:
  lakeidx newid location`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			id := ident.New(args[0])
			return f.Success(id, PutResult{ID: id, Noun: args[0]})
		},
	}

	return cmd
}
