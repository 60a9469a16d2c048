// Package cmd defines the senado-ingest command line: a cobra root that loads
// configuration through viper and the run, scrape, load, status and clear
// subcommands that drive the ingestion pipeline.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JakeFAU/senado-graph-ingest/internal/app"
	"github.com/JakeFAU/senado-graph-ingest/internal/config"
	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
	"github.com/JakeFAU/senado-graph-ingest/internal/logging"
)

// version is overridden at build time with -ldflags "-X".
var version = "dev"

// Runner is the part of the pipeline the subcommands drive.
type Runner interface {
	Run(ctx context.Context) (ingest.RunReport, error)
	Scrape(ctx context.Context, phase string) (ingest.RunReport, error)
	LoadStaged(ctx context.Context) (ingest.RunReport, error)
	Status(ctx context.Context) (map[string]int, error)
	Clear(ctx context.Context) (int, error)
}

// App is what a subcommand needs from the service container.
type App interface {
	Runner() Runner
	Logger() *zap.Logger
	Close(ctx context.Context)
}

// appFactory builds the services for a loaded configuration. Tests swap it
// for a fake.
type appFactory func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error)

type appAdapter struct {
	*app.App
}

func (a appAdapter) Runner() Runner {
	return a.Pipeline()
}

func defaultFactory(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
	a, err := app.New(ctx, cfg, logger, app.Options{Version: version})
	if err != nil {
		return nil, err
	}
	return appAdapter{a}, nil
}

// appKeyType is the key for storing the session in the command context.
type appKeyType string

const appKey appKeyType = "app"

// session is one initialized invocation: the services plus the process
// deadline derived from run.timeout_minutes.
type session struct {
	app    App
	cancel context.CancelFunc
}

func (s *session) close(ctx context.Context) {
	s.app.Close(ctx)
	s.cancel()
	_ = s.app.Logger().Sync()
}

// newRootCmd creates the root command with every subcommand attached.
func newRootCmd(factory appFactory) *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "senado-ingest",
		Short: "Ingests Chilean Senate legislative data into a property graph.",
		Long: `senado-ingest scrapes laws, authorships, votes, senators and lobby
records from the Chilean Senate, resolves senator names, derives voting
similarity and loads the result into Neo4j. Scraping and loading can run
as one command or as separate steps exchanging a staged dataset.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		// Builds the services once config and flags are parsed and stores
		// them in the context for the subcommand.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWith(v, cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RunTimeout())
			a, err := factory(ctx, cfg, logger)
			if err != nil {
				cancel()
				_ = logger.Sync()
				return fmt.Errorf("initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(ctx, appKey, &session{app: a, cancel: cancel}))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.Bool("dev", true, "development logging")
	flags.Int("days", 0, "days of history to scrape (overrides fanout.days)")
	flags.String("similarity-mode", "", "local or store (overrides similarity.mode)")
	flags.Int("port", 0, "admin server port, 0 disables it (overrides server.port)")
	for key, name := range map[string]string{
		"logging.development": "dev",
		"fanout.days":         "days",
		"similarity.mode":     "similarity-mode",
		"server.port":         "port",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	cmd.AddCommand(newRunCmd(), newScrapeCmd(), newLoadCmd(), newStatusCmd(), newClearCmd())
	return cmd
}

// withSession resolves the session built by the root and closes it once fn
// returns, whatever the outcome.
func withSession(fn func(cmd *cobra.Command, a App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		s, ok := cmd.Context().Value(appKey).(*session)
		if !ok || s == nil {
			return errors.New("application services not initialized")
		}
		defer s.close(cmd.Context())
		return fn(cmd, s.app)
	}
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := newRootCmd(defaultFactory).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "senado-ingest:", err)
		return 1
	}
	return 0
}
