package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/senado-graph-ingest/internal/config"
	"github.com/JakeFAU/senado-graph-ingest/internal/graph"
	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
	"github.com/JakeFAU/senado-graph-ingest/internal/similarity"
)

var errNoSink = errors.New("no graph sink configured")

// LoadResult counts graph writes.
type LoadResult struct {
	Nodes    int
	Edges    int
	Inactive int
}

// Load writes a reduced dataset: a connectivity check and constraints
// first, then every node batch, then every edge batch. When d carries a
// senator listing, senators absent from it are marked inactive. An Update
// node records the load. Any sink error aborts the load; earlier writes are
// kept.
func (p *Pipeline) Load(ctx context.Context, kind string, d ingest.Dataset) (LoadResult, error) {
	var res LoadResult
	if p.sink == nil {
		return res, errNoSink
	}
	if err := p.sink.Ping(ctx); err != nil {
		return res, fmt.Errorf("graph store unreachable: %w", err)
	}
	if err := p.sink.EnsureConstraints(ctx); err != nil {
		return res, fmt.Errorf("ensure constraints: %w", err)
	}
	for _, batch := range graph.Nodes(d) {
		n, err := p.sink.UpsertNodes(ctx, batch)
		if err != nil {
			return res, fmt.Errorf("upsert %s nodes: %w", batch.Label, err)
		}
		res.Nodes += n
	}
	for _, batch := range graph.Edges(d) {
		n, err := p.sink.UpsertEdges(ctx, batch)
		if err != nil {
			return res, fmt.Errorf("upsert %s edges: %w", batch.Type, err)
		}
		res.Edges += n
	}
	if len(d.Senators) > 0 {
		active := make([]string, 0, len(d.Senators))
		for _, s := range d.Senators {
			active = append(active, s.ID)
		}
		n, err := p.sink.MarkInactive(ctx, active)
		if err != nil {
			return res, fmt.Errorf("mark inactive senators: %w", err)
		}
		res.Inactive = n
	}
	if err := p.sink.LogUpdate(ctx, kind, res.Nodes+res.Edges, p.clock.Now()); err != nil {
		return res, fmt.Errorf("log update: %w", err)
	}
	p.logger.Info("graph loaded",
		zap.Int("nodes", res.Nodes),
		zap.Int("edges", res.Edges),
		zap.Int("inactive", res.Inactive),
	)
	return res, nil
}

// Similarity derives VOTED_SAME edges. In local mode the scores are
// computed from d.Votes and upserted; in store mode the sink aggregates the
// stored VOTED_ON relationships itself. It returns the edges written.
func (p *Pipeline) Similarity(ctx context.Context, d ingest.Dataset) (int, error) {
	if p.sink == nil {
		return 0, errNoSink
	}
	if p.opts.SimilarityMode == config.SimilarityStore {
		n, err := p.sink.ComputeSimilarity(ctx, p.opts.MinCommonVotes)
		if err != nil {
			return 0, fmt.Errorf("compute similarity in store: %w", err)
		}
		return n, nil
	}
	sims := similarity.Compute(d.Votes, p.opts.MinCommonVotes)
	if len(sims) == 0 {
		return 0, nil
	}
	n, err := p.sink.UpsertEdges(ctx, graph.SimilarityEdges(sims))
	if err != nil {
		return 0, fmt.Errorf("upsert similarity edges: %w", err)
	}
	return n, nil
}
