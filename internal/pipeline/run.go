package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
	"github.com/JakeFAU/senado-graph-ingest/internal/logging"
	"github.com/JakeFAU/senado-graph-ingest/internal/progress"
)

const notifyTimeout = 30 * time.Second

// run carries the state of one command invocation.
type run struct {
	report ingest.RunReport
	logger *zap.Logger
}

func (p *Pipeline) begin(command string) (*run, error) {
	id, err := p.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	r := &run{
		report: ingest.RunReport{RunID: id, Command: command, StartedAt: p.clock.Now()},
		logger: logging.ForRun(p.logger, id, command),
	}
	p.progress.Emit(progress.Event{RunID: id, TS: r.report.StartedAt, Stage: progress.StageRunStart})
	r.logger.Info("run started")
	return r, nil
}

func (r *run) addLevel(stats *ingest.LevelStats, res LevelResult) {
	stats.Units += res.Stats.Units
	stats.Succeeded += res.Stats.Succeeded
	stats.Failed += res.Stats.Failed
	stats.Records += res.Stats.Records
	r.report.SkippedRecords += res.Skipped
	r.report.Errors = append(r.report.Errors, res.Errors...)
}

func (r *run) addReduce(stats ReduceStats) {
	r.report.ResolverFallbacks += stats.Resolve.Fallbacks
	r.report.AmbiguousNames += stats.Resolve.Ambiguous
}

// finish stamps the report, records and publishes it and returns it along
// with runErr. Recording and publishing use a context detached from ctx so
// that a run cut short by its deadline still leaves a report behind; their
// failures are logged only.
func (p *Pipeline) finish(ctx context.Context, r *run, runErr error) (ingest.RunReport, error) {
	if runErr != nil {
		r.report.Err = runErr.Error()
	}
	r.report.FinishedAt = p.clock.Now()
	report := r.report

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	for _, recorder := range p.recorders {
		if err := recorder.RecordRun(notifyCtx, report); err != nil {
			r.logger.Error("record run failed", zap.Error(err))
		}
	}
	if p.publisher != nil && p.opts.Topic != "" {
		if id, err := p.publisher.Publish(notifyCtx, p.opts.Topic, report); err != nil {
			r.logger.Error("publish run report failed", zap.String("topic", p.opts.Topic), zap.Error(err))
		} else {
			r.logger.Debug("run report published", zap.String("message_id", id))
		}
	}
	p.progress.Emit(progress.Event{
		RunID: report.RunID,
		TS:    report.FinishedAt,
		Stage: progress.StageRunDone,
		Dur:   report.Duration(),
		Note:  report.Err,
	})

	fields := []zap.Field{
		zap.Duration("duration", report.Duration()),
		zap.Int("failed_units", len(report.Errors)),
		zap.Int("nodes", report.NodesWritten),
		zap.Int("edges", report.EdgesWritten),
	}
	if runErr != nil {
		r.logger.Error("run aborted", append(fields, zap.Error(runErr))...)
		return report, runErr
	}
	r.logger.Info("run finished", fields...)
	return report, nil
}

// Run performs a full ingestion: entity listings, both fan-out levels,
// staging (when configured), reduction, loading and similarity.
func (p *Pipeline) Run(ctx context.Context) (ingest.RunReport, error) {
	r, err := p.begin("run")
	if err != nil {
		return ingest.RunReport{}, err
	}
	d := p.collect(ctx, r, PhaseAll, nil)
	if p.staging != nil {
		if _, err := p.staging.Write(ctx, d); err != nil {
			return p.finish(ctx, r, fmt.Errorf("stage dataset: %w", err))
		}
	}
	return p.finish(ctx, r, p.loadReduced(ctx, r, d))
}

// Scrape collects phase and writes it to staging without touching the
// graph. The votes phase reads its laws from staging.
func (p *Pipeline) Scrape(ctx context.Context, phase string) (ingest.RunReport, error) {
	switch phase {
	case PhaseAll, PhaseLaws, PhaseVotes, PhaseEntities:
	default:
		return ingest.RunReport{}, fmt.Errorf("%w: %q", ErrUnknownPhase, phase)
	}
	if p.staging == nil {
		return ingest.RunReport{}, errors.New("scrape requires a staging store")
	}
	r, err := p.begin("scrape:" + phase)
	if err != nil {
		return ingest.RunReport{}, err
	}
	var staged []ingest.Law
	if phase == PhaseVotes {
		prior, err := p.staging.Read(ctx)
		if err != nil {
			return p.finish(ctx, r, fmt.Errorf("read staged laws: %w", err))
		}
		staged = prior.Laws
	}
	d := p.collect(ctx, r, phase, staged)
	keys, err := p.staging.Write(ctx, d)
	if err != nil {
		return p.finish(ctx, r, fmt.Errorf("stage dataset: %w", err))
	}
	r.logger.Info("dataset staged", zap.Strings("keys", keys))
	return p.finish(ctx, r, nil)
}

// LoadStaged reads the staged dataset and loads it into the graph.
func (p *Pipeline) LoadStaged(ctx context.Context) (ingest.RunReport, error) {
	if p.staging == nil {
		return ingest.RunReport{}, errors.New("load requires a staging store")
	}
	r, err := p.begin("load")
	if err != nil {
		return ingest.RunReport{}, err
	}
	d, err := p.staging.Read(ctx)
	if err != nil {
		return p.finish(ctx, r, fmt.Errorf("read staged dataset: %w", err))
	}
	return p.finish(ctx, r, p.loadReduced(ctx, r, d))
}

// Clear deletes every node and relationship from the graph store after a
// connectivity check. Staging is left untouched, so `load` can rebuild.
func (p *Pipeline) Clear(ctx context.Context) (int, error) {
	if p.sink == nil {
		return 0, errNoSink
	}
	if err := p.sink.Ping(ctx); err != nil {
		return 0, fmt.Errorf("graph store unreachable: %w", err)
	}
	deleted, err := p.sink.Clear(ctx)
	if err != nil {
		return deleted, fmt.Errorf("clear graph: %w", err)
	}
	p.logger.Warn("graph store cleared", zap.Int("nodes", deleted))
	return deleted, nil
}

// Status returns node counts per label plus the total under "total".
func (p *Pipeline) Status(ctx context.Context) (map[string]int, error) {
	if p.sink == nil {
		return nil, errNoSink
	}
	if err := p.sink.Ping(ctx); err != nil {
		return nil, fmt.Errorf("graph store unreachable: %w", err)
	}
	counts := make(map[string]int)
	for _, label := range []string{ingest.LabelSenator, ingest.LabelParty, ingest.LabelLaw, ingest.LabelLobbyist, ingest.LabelUpdate, ""} {
		n, err := p.sink.Count(ctx, label)
		if err != nil {
			return nil, fmt.Errorf("count %q: %w", label, err)
		}
		key := label
		if key == "" {
			key = "total"
		}
		counts[key] = n
	}
	return counts, nil
}

// collect scrapes phase into a dataset. Record kinds of a level where every
// unit failed stay nil so staging keeps its previous copy.
func (p *Pipeline) collect(ctx context.Context, r *run, phase string, stagedLaws []ingest.Law) ingest.Dataset {
	var d ingest.Dataset
	runID := r.report.RunID
	if phase == PhaseAll || phase == PhaseEntities {
		entities, res := p.ScrapeEntities(ctx, runID)
		r.addLevel(&r.report.Entities, res)
		d = entities
	}
	laws, lawsKnown := stagedLaws, true
	if phase == PhaseAll || phase == PhaseLaws {
		var (
			authorships []ingest.Authorship
			res         LevelResult
		)
		laws, authorships, res = p.ScrapeLaws(ctx, runID, p.clock.Now())
		r.addLevel(&r.report.Days, res)
		lawsKnown = res.Stats.Succeeded > 0
		if lawsKnown {
			d.Laws, d.Authorships = laws, authorships
		}
	}
	if phase == PhaseAll || phase == PhaseVotes {
		votes, res := p.ScrapeVotes(ctx, runID, laws)
		r.addLevel(&r.report.Laws, res)
		if lawsKnown && (res.Stats.Succeeded > 0 || res.Stats.Units == 0) {
			d.Votes = votes
		}
	}
	return d
}

func (p *Pipeline) loadReduced(ctx context.Context, r *run, d ingest.Dataset) error {
	reduced, stats := p.Reduce(d)
	r.addReduce(stats)
	loaded, err := p.Load(ctx, r.report.Command, reduced)
	r.report.NodesWritten += loaded.Nodes
	r.report.EdgesWritten += loaded.Edges
	if err != nil {
		return err
	}
	n, err := p.Similarity(ctx, reduced)
	r.report.Similarities = n
	r.report.EdgesWritten += n
	return err
}

func (p *Pipeline) emitUnit(runID, level, unit string, records int, dur time.Duration, err error) {
	evt := progress.Event{
		RunID:   runID,
		TS:      p.clock.Now(),
		Stage:   progress.StageUnitDone,
		Level:   level,
		Unit:    unit,
		Records: records,
		Dur:     dur,
	}
	if err != nil {
		evt.Stage = progress.StageUnitFailed
		evt.Note = err.Error()
		evt.Records = 0
	}
	p.progress.Emit(evt)
}
