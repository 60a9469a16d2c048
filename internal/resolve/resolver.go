// Package resolve maps free-text senator names, as they appear in vote,
// authorship and lobby listings, to canonical senator ids.
package resolve

import (
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
	"github.com/JakeFAU/senado-graph-ingest/internal/metrics"
)

// Strategy names the rule that produced a resolution.
type Strategy string

// Resolution strategies, in the order they are tried.
const (
	StrategyAlias     Strategy = "alias"
	StrategyExact     Strategy = "exact"
	StrategyGivenName Strategy = "given_name"
	StrategySlug      Strategy = "slug"
)

// Stats counts resolutions per strategy.
type Stats struct {
	Alias     int
	Exact     int
	GivenName int
	Fallbacks int
	// Ambiguous counts given-name matches that had more than one candidate.
	Ambiguous int
}

// Resolver resolves raw names against the registered canonical senators.
// It is not safe for concurrent use; the pipeline resolves on a single
// goroutine after collection.
type Resolver struct {
	exact   map[string]string
	byGiven map[string][]string
	aliases map[string]string
	stats   Stats
	logger  *zap.Logger
}

// New builds an empty resolver.
func New(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		exact:   make(map[string]string),
		byGiven: make(map[string][]string),
		aliases: make(map[string]string),
		logger:  logger.Named("resolver"),
	}
}

// AddCanonical registers a senator under its full canonical name, normally
// "Surnames, GivenName". Re-registering a name keeps the first id.
func (r *Resolver) AddCanonical(name, id string) {
	key := normalize(name)
	if key == "" || id == "" {
		return
	}
	if _, ok := r.exact[key]; ok {
		return
	}
	r.exact[key] = id
	if _, given, ok := strings.Cut(key, ", "); ok && given != "" {
		r.byGiven[given] = append(r.byGiven[given], id)
	}
}

// AddSenators registers every senator by name.
func (r *Resolver) AddSenators(senators []ingest.Senator) {
	for _, s := range senators {
		r.AddCanonical(s.Name, s.ID)
	}
}

// AddAlias maps a raw spelling to a canonical name. The target is looked up
// at resolution time; when it is not registered, its derived id is used.
func (r *Resolver) AddAlias(raw, canonicalName string) {
	key := normalize(raw)
	if key == "" || strings.TrimSpace(canonicalName) == "" {
		return
	}
	r.aliases[key] = canonicalName
}

// AddAliases registers a whole alias table.
func (r *Resolver) AddAliases(aliases map[string]string) {
	for raw, target := range aliases {
		r.AddAlias(raw, target)
	}
}

// Resolve returns the senator id for raw and the strategy that matched.
// Strategies are tried in order: alias table, exact canonical name, given
// name against the trailing token of raw, then the slug of raw.
func (r *Resolver) Resolve(raw string) (string, Strategy) {
	id, strategy := r.resolve(raw)
	switch strategy {
	case StrategyAlias:
		r.stats.Alias++
	case StrategyExact:
		r.stats.Exact++
	case StrategyGivenName:
		r.stats.GivenName++
	case StrategySlug:
		r.stats.Fallbacks++
	}
	metrics.ObserveResolution(string(strategy))
	return id, strategy
}

func (r *Resolver) resolve(raw string) (string, Strategy) {
	key := normalize(raw)
	if target, ok := r.aliases[key]; ok {
		if id, found := r.exact[normalize(target)]; found {
			return id, StrategyAlias
		}
		return ingest.SenatorID(strings.TrimSpace(target)), StrategyAlias
	}
	if id, ok := r.exact[key]; ok {
		return id, StrategyExact
	}
	if fields := strings.Fields(key); len(fields) > 0 {
		candidates := r.byGiven[fields[len(fields)-1]]
		if len(candidates) > 0 {
			if len(candidates) > 1 {
				r.stats.Ambiguous++
				r.logger.Debug("ambiguous given name match",
					zap.String("name", raw),
					zap.Strings("candidates", candidates),
				)
			}
			return candidates[0], StrategyGivenName
		}
	}
	return ingest.SenatorID(strings.TrimSpace(raw)), StrategySlug
}

// Stats returns the resolution counters accumulated so far.
func (r *Resolver) Stats() Stats {
	return r.stats
}

func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
