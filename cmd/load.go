package cmd

import "github.com/spf13/cobra"

// newLoadCmd creates the 'load' subcommand.
func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load the staged dataset into the graph",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, a App) error {
			report, err := a.Runner().LoadStaged(cmd.Context())
			return finishReport(cmd.OutOrStdout(), a.Logger(), report, err)
		}),
	}
}
