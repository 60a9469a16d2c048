package cmd

import (
	"github.com/spf13/cobra"

	"github.com/JakeFAU/senado-graph-ingest/internal/pipeline"
)

// newScrapeCmd creates the 'scrape' subcommand, which only writes staging.
func newScrapeCmd() *cobra.Command {
	var phase string
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape one phase into staging",
		Long: `Scrapes a phase and writes it to the staging store without touching the
graph. The votes phase reads its laws from staging, so "scrape --phase laws"
followed by "scrape --phase votes" is equivalent to "scrape --phase all"
without the entity listings.`,
		Args: cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, a App) error {
			report, err := a.Runner().Scrape(cmd.Context(), phase)
			return finishReport(cmd.OutOrStdout(), a.Logger(), report, err)
		}),
	}
	cmd.Flags().StringVar(&phase, "phase", pipeline.PhaseAll, "all, laws, votes or entities")
	return cmd
}
