package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errClearNotConfirmed = errors.New("refusing to clear the graph without --yes")

// newClearCmd creates the 'clear' subcommand, which empties the graph store.
func newClearCmd() *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every node and relationship from the graph store",
		Long: `clear removes the whole graph, including Update log nodes. Staged data
is kept, so a following 'load' rebuilds the graph without scraping.`,
		Args: cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, a App) error {
			if !confirmed {
				return errClearNotConfirmed
			}
			deleted, err := a.Runner().Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d nodes\n", deleted)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm deletion of the whole graph")
	return cmd
}
