// Package pipeline orchestrates an ingestion run: the sequential entity
// listings, the two fan-out levels (days, then laws), name resolution and
// deduplication, staging, graph loading and similarity derivation. Every
// command produces an ingest.RunReport that is recorded and published.
package pipeline

import (
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/JakeFAU/senado-graph-ingest/internal/config"
	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
	"github.com/JakeFAU/senado-graph-ingest/internal/progress"
	"github.com/JakeFAU/senado-graph-ingest/internal/similarity"
	"github.com/JakeFAU/senado-graph-ingest/internal/staging"
)

// Fan-out and report level names.
const (
	LevelDays     = "days"
	LevelLaws     = "laws"
	LevelEntities = "entities"
)

// Scrape phases.
const (
	PhaseAll      = "all"
	PhaseLaws     = "laws"
	PhaseVotes    = "votes"
	PhaseEntities = "entities"
)

// ErrUnknownPhase is returned by Scrape for an unsupported phase.
var ErrUnknownPhase = errors.New("unknown scrape phase")

// Sources holds the remote endpoints.
type Sources struct {
	LawsURL      string
	SenatorsURL  string
	LobbyistsURL string
	TripsURL     string
	DonationsURL string
}

// Options tunes a run.
type Options struct {
	Sources     Sources
	Days        int
	DayWorkers  int
	VoteWorkers int
	// MinCommonVotes is the agreement threshold for VOTED_SAME edges.
	MinCommonVotes int
	// SimilarityMode is config.SimilarityLocal or config.SimilarityStore.
	SimilarityMode string
	// Aliases maps raw spellings to canonical senator names.
	Aliases map[string]string
	// Topic receives the run report when a publisher is configured.
	Topic string
}

// OptionsFromConfig maps the loaded configuration onto Options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Sources: Sources{
			LawsURL:      cfg.Source.LawsURL,
			SenatorsURL:  cfg.Source.SenatorsURL,
			LobbyistsURL: cfg.Source.LobbyistsURL,
			TripsURL:     cfg.Source.TripsURL,
			DonationsURL: cfg.Source.DonationsURL,
		},
		Days:           cfg.FanOut.Days,
		DayWorkers:     cfg.FanOut.DayWorkers,
		VoteWorkers:    cfg.FanOut.VoteWorkers,
		MinCommonVotes: cfg.Similarity.MinCommonVotes,
		SimilarityMode: cfg.Similarity.Mode,
		Aliases:        cfg.Resolver.AliasTable(),
		Topic:          cfg.PubSub.TopicName,
	}
}

// Deps are the collaborators of a Pipeline. Fetcher, Clock and IDs are
// required; the rest are optional and skipped when nil.
type Deps struct {
	Fetcher   ingest.Fetcher
	Sink      ingest.GraphSink
	Staging   *staging.Store
	Recorders []ingest.RunRecorder
	Publisher ingest.Publisher
	Progress  progress.Emitter
	Clock     ingest.Clock
	IDs       ingest.IDGenerator
	Logger    *zap.Logger
}

// Pipeline runs ingestion commands.
type Pipeline struct {
	fetcher   ingest.Fetcher
	sink      ingest.GraphSink
	staging   *staging.Store
	recorders []ingest.RunRecorder
	publisher ingest.Publisher
	progress  progress.Emitter
	clock     ingest.Clock
	ids       ingest.IDGenerator
	logger    *zap.Logger
	opts      Options
}

// New validates deps and opts and builds a Pipeline.
func New(deps Deps, opts Options) (*Pipeline, error) {
	if deps.Fetcher == nil {
		return nil, errors.New("pipeline requires a fetcher")
	}
	if deps.Clock == nil || deps.IDs == nil {
		return nil, errors.New("pipeline requires a clock and an id generator")
	}
	if opts.Days <= 0 {
		return nil, fmt.Errorf("days must be > 0, got %d", opts.Days)
	}
	if opts.MinCommonVotes <= 0 {
		opts.MinCommonVotes = similarity.DefaultMinCommon
	}
	if opts.SimilarityMode == "" {
		opts.SimilarityMode = config.SimilarityLocal
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	emitter := deps.Progress
	if emitter == nil {
		emitter = (*progress.Hub)(nil)
	}
	return &Pipeline{
		fetcher:   deps.Fetcher,
		sink:      deps.Sink,
		staging:   deps.Staging,
		recorders: deps.Recorders,
		publisher: deps.Publisher,
		progress:  emitter,
		clock:     deps.Clock,
		ids:       deps.IDs,
		logger:    logger.Named("pipeline"),
		opts:      opts,
	}, nil
}

// withQuery returns base with key=value added to its query string.
func withQuery(base, key, value string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse source url %q: %w", base, err)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
