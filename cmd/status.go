package cmd

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// newStatusCmd creates the 'status' subcommand, printing node counts.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print node counts per label",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, a App) error {
			counts, err := a.Runner().Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			labels := make([]string, 0, len(counts))
			for label := range counts {
				if label != "total" {
					labels = append(labels, label)
				}
			}
			sort.Strings(labels)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LABEL\tNODES")
			for _, label := range labels {
				fmt.Fprintf(tw, "%s\t%d\n", label, counts[label])
			}
			fmt.Fprintf(tw, "total\t%d\n", counts["total"])
			return tw.Flush()
		}),
	}
}
