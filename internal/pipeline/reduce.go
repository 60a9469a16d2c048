package pipeline

import (
	"go.uber.org/zap"

	"github.com/JakeFAU/senado-graph-ingest/internal/dedup"
	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
	"github.com/JakeFAU/senado-graph-ingest/internal/resolve"
)

// ReduceStats summarizes resolution and deduplication.
type ReduceStats struct {
	Resolve resolve.Stats
	Dropped int
}

// Reduce resolves every raw senator name in d against the senators it
// carries (plus the configured aliases) and then collapses duplicates by
// natural key. It runs on the calling goroutine over fully collected data.
func (p *Pipeline) Reduce(d ingest.Dataset) (ingest.Dataset, ReduceStats) {
	r := resolve.New(p.logger)
	r.AddSenators(d.Senators)
	r.AddAliases(p.opts.Aliases)

	resolveID := func(id, name string) string {
		if id != "" {
			return id
		}
		resolved, _ := r.Resolve(name)
		return resolved
	}
	for i := range d.Authorships {
		d.Authorships[i].SenatorID = resolveID(d.Authorships[i].SenatorID, d.Authorships[i].SenatorName)
	}
	for i := range d.Votes {
		d.Votes[i].SenatorID = resolveID(d.Votes[i].SenatorID, d.Votes[i].SenatorName)
	}
	for i := range d.LobbyMeetings {
		d.LobbyMeetings[i].SenatorID = resolveID(d.LobbyMeetings[i].SenatorID, d.LobbyMeetings[i].SenatorName)
	}
	for i := range d.LobbyTrips {
		d.LobbyTrips[i].SenatorID = resolveID(d.LobbyTrips[i].SenatorID, d.LobbyTrips[i].SenatorName)
	}
	for i := range d.LobbyDonations {
		d.LobbyDonations[i].SenatorID = resolveID(d.LobbyDonations[i].SenatorID, d.LobbyDonations[i].SenatorName)
	}

	out, dropped := dedup.Dataset(d)
	stats := ReduceStats{Resolve: r.Stats(), Dropped: dropped}
	p.logger.Info("dataset reduced",
		zap.Int("dropped", dropped),
		zap.Int("fallbacks", stats.Resolve.Fallbacks),
		zap.Int("ambiguous", stats.Resolve.Ambiguous),
	)
	return out, stats
}
