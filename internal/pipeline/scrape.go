package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/senado-graph-ingest/internal/dedup"
	"github.com/JakeFAU/senado-graph-ingest/internal/fanout"
	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
	"github.com/JakeFAU/senado-graph-ingest/internal/metrics"
	"github.com/JakeFAU/senado-graph-ingest/internal/parser"
)

const (
	dayLayout   = "2006-01-02"
	fechaLayout = "02/01/2006"
)

// LevelResult is what one fan-out level or listing pass produced.
type LevelResult struct {
	Stats   ingest.LevelStats
	Errors  []ingest.UnitError
	Skipped int
}

func (r *LevelResult) record(level, unit string, records, skipped int, err error) {
	r.Stats.Units++
	if err != nil {
		r.Stats.Failed++
		r.Errors = append(r.Errors, ingest.NewUnitError(level, unit, err))
		return
	}
	r.Stats.Succeeded++
	r.Stats.Records += records
	r.Skipped += skipped
}

// dayUnit is one Level 1 work item.
type dayUnit struct {
	Date time.Time
}

func (u dayUnit) label() string {
	return u.Date.Format(dayLayout)
}

// ScrapeLaws runs Level 1: one fetch and parse per day for the Days days
// ending at ref, DayWorkers wide. Laws and authorships come back in day
// order, so the first listing of a law is the most recent one.
func (p *Pipeline) ScrapeLaws(ctx context.Context, runID string, ref time.Time) ([]ingest.Law, []ingest.Authorship, LevelResult) {
	units := make([]dayUnit, p.opts.Days)
	for offset := range units {
		units[offset] = dayUnit{Date: ref.AddDate(0, 0, -offset)}
	}
	var result LevelResult
	outcomes := fanout.Run(ctx, units, fanout.Config[dayUnit]{
		Level:   LevelDays,
		Workers: p.opts.DayWorkers,
		Name:    dayUnit.label,
	}, func(ctx context.Context, unit dayUnit) (parser.DayResult, error) {
		return p.scrapeDay(ctx, runID, unit)
	})

	laws := []ingest.Law{}
	authorships := []ingest.Authorship{}
	for _, outcome := range outcomes {
		res := outcome.Result
		result.record(LevelDays, outcome.Unit.label(), len(res.Laws), res.Skipped, outcome.Err)
		if outcome.Err != nil {
			continue
		}
		laws = append(laws, res.Laws...)
		authorships = append(authorships, res.Authorships...)
	}
	p.logger.Info("day fan-out finished",
		zap.Int("units", result.Stats.Units),
		zap.Int("failed", result.Stats.Failed),
		zap.Int("laws", len(laws)),
	)
	return laws, authorships, result
}

func (p *Pipeline) scrapeDay(ctx context.Context, runID string, unit dayUnit) (parser.DayResult, error) {
	start := time.Now()
	label := unit.label()
	res, err := func() (parser.DayResult, error) {
		target, err := withQuery(p.opts.Sources.LawsURL, "fecha", unit.Date.Format(fechaLayout))
		if err != nil {
			return parser.DayResult{}, err
		}
		body, err := p.fetcher.Fetch(ctx, ingest.FetchRequest{URL: target, Unit: label})
		if err != nil {
			return parser.DayResult{}, err
		}
		return parser.ParseDay(body)
	}()
	p.emitUnit(runID, LevelDays, label, len(res.Laws), time.Since(start), err)
	if err != nil {
		p.logger.Warn("day unit failed", zap.String("level", LevelDays), zap.String("unit", label), zap.Error(err))
		return res, err
	}
	metrics.ObserveRecords("law", "parsed", len(res.Laws))
	metrics.ObserveRecords("authorship", "parsed", len(res.Authorships))
	metrics.ObserveRecords("law", "skipped", res.Skipped)
	return res, nil
}

// ScrapeVotes runs Level 2: one vote fetch per distinct law, VoteWorkers
// wide. It must only be called once Level 1 has fully completed.
func (p *Pipeline) ScrapeVotes(ctx context.Context, runID string, laws []ingest.Law) ([]ingest.VoteRecord, LevelResult) {
	units := dedup.First(laws, func(l ingest.Law) string { return l.ID })
	var result LevelResult
	outcomes := fanout.Run(ctx, units, fanout.Config[ingest.Law]{
		Level:   LevelLaws,
		Workers: p.opts.VoteWorkers,
		Name:    func(l ingest.Law) string { return l.Boletin },
	}, func(ctx context.Context, law ingest.Law) (parser.VotesResult, error) {
		return p.scrapeLawVotes(ctx, runID, law)
	})

	votes := []ingest.VoteRecord{}
	for _, outcome := range outcomes {
		res := outcome.Result
		result.record(LevelLaws, outcome.Unit.Boletin, len(res.Votes), res.Skipped, outcome.Err)
		if outcome.Err == nil {
			votes = append(votes, res.Votes...)
		}
	}
	p.logger.Info("law fan-out finished",
		zap.Int("units", result.Stats.Units),
		zap.Int("failed", result.Stats.Failed),
		zap.Int("votes", len(votes)),
	)
	if failed := fanout.Failed(outcomes); len(failed) > 0 {
		boletines := make([]string, 0, len(failed))
		for _, outcome := range failed {
			boletines = append(boletines, outcome.Unit.Boletin)
		}
		p.logger.Warn("laws left without votes", zap.Strings("boletines", boletines))
	}
	return votes, result
}

func (p *Pipeline) scrapeLawVotes(ctx context.Context, runID string, law ingest.Law) (parser.VotesResult, error) {
	start := time.Now()
	res, err := func() (parser.VotesResult, error) {
		target, err := withQuery(p.opts.Sources.LawsURL, "boletin", ingest.BoletinNumber(law.Boletin))
		if err != nil {
			return parser.VotesResult{}, err
		}
		body, err := p.fetcher.Fetch(ctx, ingest.FetchRequest{URL: target, Unit: law.Boletin})
		if err != nil {
			return parser.VotesResult{}, err
		}
		return parser.ParseVotes(body, law.Boletin)
	}()
	p.emitUnit(runID, LevelLaws, law.Boletin, len(res.Votes), time.Since(start), err)
	if err != nil {
		p.logger.Warn("vote unit failed", zap.String("boletin", law.Boletin), zap.Error(err))
		return res, err
	}
	metrics.ObserveRecords("vote", "parsed", len(res.Votes))
	metrics.ObserveRecords("vote", "skipped", res.Skipped)
	return res, nil
}

// ScrapeEntities walks the senator and lobby listings one after another. A
// listing that fails leaves its dataset fields nil, so staging keeps the
// previous copy; a listing that succeeds sets them, possibly to empty.
func (p *Pipeline) ScrapeEntities(ctx context.Context, runID string) (ingest.Dataset, LevelResult) {
	var (
		d      ingest.Dataset
		result LevelResult
	)
	listings := []struct {
		name  string
		url   string
		parse func(body []byte) (records, skipped int, err error)
	}{
		{"senators", p.opts.Sources.SenatorsURL, func(body []byte) (int, int, error) {
			res, err := parser.ParseSenators(body)
			if err != nil {
				return 0, 0, err
			}
			d.Senators = append([]ingest.Senator{}, res.Senators...)
			d.Parties = append([]ingest.Party{}, parser.ExtractParties(res.Senators)...)
			return len(res.Senators), res.Skipped, nil
		}},
		{"lobbyists", p.opts.Sources.LobbyistsURL, func(body []byte) (int, int, error) {
			res, err := parser.ParseLobbyists(body)
			if err != nil {
				return 0, 0, err
			}
			d.Lobbyists = append([]ingest.Lobbyist{}, res.Lobbyists...)
			d.LobbyMeetings = append([]ingest.LobbyMeeting{}, res.Meetings...)
			return len(res.Lobbyists) + len(res.Meetings), res.Skipped, nil
		}},
		{"trips", p.opts.Sources.TripsURL, func(body []byte) (int, int, error) {
			res, err := parser.ParseTrips(body)
			if err != nil {
				return 0, 0, err
			}
			d.LobbyTrips = append([]ingest.LobbyTrip{}, res.Trips...)
			return len(res.Trips), res.Skipped, nil
		}},
		{"donations", p.opts.Sources.DonationsURL, func(body []byte) (int, int, error) {
			res, err := parser.ParseDonations(body)
			if err != nil {
				return 0, 0, err
			}
			d.LobbyDonations = append([]ingest.LobbyDonation{}, res.Donations...)
			return len(res.Donations), res.Skipped, nil
		}},
	}

	for _, listing := range listings {
		if listing.url == "" {
			continue
		}
		start := time.Now()
		var records, skipped int
		body, err := p.fetcher.Fetch(ctx, ingest.FetchRequest{URL: listing.url, Unit: listing.name})
		if err == nil {
			records, skipped, err = listing.parse(body)
		}
		result.record(LevelEntities, listing.name, records, skipped, err)
		p.emitUnit(runID, LevelEntities, listing.name, records, time.Since(start), err)
		status := "succeeded"
		if err != nil {
			status = "failed"
			p.logger.Warn("listing failed", zap.String("unit", listing.name), zap.String("url", listing.url), zap.Error(err))
		}
		metrics.ObserveUnit(LevelEntities, status)
		metrics.ObserveRecords(listing.name, "parsed", records)
		metrics.ObserveRecords(listing.name, "skipped", skipped)
	}
	return d, result
}
