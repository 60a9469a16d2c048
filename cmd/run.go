package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
)

// newRunCmd creates the 'run' subcommand: a full scrape, stage and load.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Scrape, stage and load in one pass",
		Long: `Walks the entity listings, fetches every day in the configured window,
fetches the votes of each law found, stages the raw dataset and loads the
resolved, deduplicated graph together with the similarity edges.`,
		Args: cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, a App) error {
			report, err := a.Runner().Run(cmd.Context())
			return finishReport(cmd.OutOrStdout(), a.Logger(), report, err)
		}),
	}
}

// finishReport prints report as JSON and returns runErr, so a run that
// aborted still leaves its summary on stdout.
func finishReport(w io.Writer, logger *zap.Logger, report ingest.RunReport, runErr error) error {
	if report.RunID != "" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			logger.Warn("print run report failed", zap.Error(err))
		}
	}
	if runErr != nil {
		return fmt.Errorf("%s: %w", report.Command, runErr)
	}
	return nil
}
