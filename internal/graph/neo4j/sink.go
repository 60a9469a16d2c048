// Package neo4jsink implements ingest.GraphSink on Neo4j over Bolt. Every
// write is an UNWIND + MERGE batch, so replaying a load is a no-op.
package neo4jsink

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
	"github.com/JakeFAU/senado-graph-ingest/internal/metrics"
)

const defaultBatchSize = 500

// Config captures the connection parameters.
type Config struct {
	URI       string
	Username  string
	Password  string
	Database  string
	BatchSize int
}

// Sink writes nodes and relationships to Neo4j.
type Sink struct {
	runner    runner
	batchSize int
	logger    *zap.Logger
}

var _ ingest.GraphSink = (*Sink)(nil)

// New opens a driver for cfg. It does not contact the server; call Ping to
// verify connectivity.
func New(cfg Config, logger *zap.Logger) (*Sink, error) {
	r, err := newDriverRunner(cfg.URI, cfg.Username, cfg.Password, cfg.Database)
	if err != nil {
		return nil, err
	}
	return newSink(r, cfg.BatchSize, logger), nil
}

func newSink(r runner, batchSize int, logger *zap.Logger) *Sink {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{runner: r, batchSize: batchSize, logger: logger.Named("neo4j")}
}

// Ping verifies the server is reachable with the configured credentials.
func (s *Sink) Ping(ctx context.Context) error {
	if err := s.runner.Ping(ctx); err != nil {
		return sinkFailure("ping", err)
	}
	return nil
}

// EnsureConstraints creates the id uniqueness constraints when missing.
func (s *Sink) EnsureConstraints(ctx context.Context) error {
	for _, label := range constrainedLabels {
		if _, err := s.runner.Run(ctx, constraintQuery(label), nil, neo4j.AccessModeWrite); err != nil {
			return sinkFailure("ensure constraint on "+label, err)
		}
	}
	return nil
}

// UpsertNodes merges batch.Nodes by id and overwrites their properties.
func (s *Sink) UpsertNodes(ctx context.Context, batch ingest.NodeBatch) (int, error) {
	if err := validIdentifier("label", batch.Label); err != nil {
		return 0, sinkFailure("upsert nodes", err)
	}
	rows := make([]map[string]any, 0, len(batch.Nodes))
	for _, node := range batch.Nodes {
		if node.ID == "" {
			continue
		}
		rows = append(rows, map[string]any{"id": node.ID, "props": props(node.Props)})
	}
	written, err := s.writeChunks(ctx, nodeQuery(batch.Label), rows, nil)
	if err != nil {
		return written, sinkFailure("upsert "+batch.Label+" nodes", err)
	}
	metrics.ObserveSinkWrite("node", batch.Label, written)
	s.logger.Debug("nodes upserted", zap.String("label", batch.Label), zap.Int("count", written))
	return written, nil
}

// UpsertEdges merges batch.Edges, creating missing endpoints. The
// relationship identity is the endpoint pair plus batch.KeyProps.
func (s *Sink) UpsertEdges(ctx context.Context, batch ingest.EdgeBatch) (int, error) {
	for kind, name := range map[string]string{
		"relationship type": batch.Type,
		"source label":      batch.FromLabel,
		"target label":      batch.ToLabel,
	} {
		if err := validIdentifier(kind, name); err != nil {
			return 0, sinkFailure("upsert edges", err)
		}
	}
	for _, k := range batch.KeyProps {
		if err := validIdentifier("key property", k); err != nil {
			return 0, sinkFailure("upsert edges", err)
		}
	}
	for k := range batch.Sticky {
		if err := validIdentifier("sticky property", k); err != nil {
			return 0, sinkFailure("upsert edges", err)
		}
	}

	rows := make([]map[string]any, 0, len(batch.Edges))
	for _, edge := range batch.Edges {
		if edge.From == "" || edge.To == "" {
			continue
		}
		key := make(map[string]any, len(batch.KeyProps))
		for _, k := range batch.KeyProps {
			v, ok := edge.Props[k]
			if !ok || v == nil {
				v = ""
			}
			key[k] = v
		}
		rows = append(rows, map[string]any{
			"from":       edge.From,
			"to":         edge.To,
			"key":        key,
			"props":      props(edge.Props),
			"from_props": props(edge.FromProps),
		})
	}
	written, err := s.writeChunks(ctx, edgeQuery(batch), rows, stickyParams(batch.Sticky))
	if err != nil {
		return written, sinkFailure("upsert "+batch.Type+" edges", err)
	}
	metrics.ObserveSinkWrite("edge", batch.Type, written)
	s.logger.Debug("edges upserted", zap.String("type", batch.Type), zap.Int("count", written))
	return written, nil
}

// ComputeSimilarity derives VOTED_SAME relationships from stored votes.
func (s *Sink) ComputeSimilarity(ctx context.Context, minCommon int) (int, error) {
	rows, err := s.runner.Run(ctx, similarityQuery, map[string]any{"min_common": minCommon}, neo4j.AccessModeWrite)
	if err != nil {
		return 0, sinkFailure("compute similarity", err)
	}
	written := sumInt(rows, "written")
	metrics.ObserveSinkWrite("edge", ingest.RelVotedSame, written)
	return written, nil
}

// MarkInactive sets active=false on every senator not listed in activeIDs.
func (s *Sink) MarkInactive(ctx context.Context, activeIDs []string) (int, error) {
	if activeIDs == nil {
		activeIDs = []string{}
	}
	rows, err := s.runner.Run(ctx, markInactiveQuery, map[string]any{"active": activeIDs}, neo4j.AccessModeWrite)
	if err != nil {
		return 0, sinkFailure("mark inactive senators", err)
	}
	return sumInt(rows, "written"), nil
}

// LogUpdate records a load in an Update node.
func (s *Sink) LogUpdate(ctx context.Context, kind string, count int, at time.Time) error {
	params := map[string]any{"type": kind, "count": count, "timestamp": at.UTC()}
	if _, err := s.runner.Run(ctx, logUpdateQuery, params, neo4j.AccessModeWrite); err != nil {
		return sinkFailure("log update", err)
	}
	return nil
}

// Count returns the number of nodes carrying label (all nodes when empty).
func (s *Sink) Count(ctx context.Context, label string) (int, error) {
	if label != "" {
		if err := validIdentifier("label", label); err != nil {
			return 0, sinkFailure("count", err)
		}
	}
	rows, err := s.runner.Run(ctx, countQuery(label), nil, neo4j.AccessModeRead)
	if err != nil {
		return 0, sinkFailure("count "+label, err)
	}
	return sumInt(rows, "count"), nil
}

// Clear deletes the whole graph.
func (s *Sink) Clear(ctx context.Context) (int, error) {
	rows, err := s.runner.Run(ctx, clearQuery, nil, neo4j.AccessModeWrite)
	if err != nil {
		return 0, sinkFailure("clear", err)
	}
	deleted := sumInt(rows, "written")
	s.logger.Info("graph cleared", zap.Int("nodes", deleted))
	return deleted, nil
}

// Close releases the driver.
func (s *Sink) Close(ctx context.Context) error {
	if err := s.runner.Close(ctx); err != nil {
		return fmt.Errorf("close neo4j driver: %w", err)
	}
	return nil
}

func (s *Sink) writeChunks(ctx context.Context, query string, rows []map[string]any, extra map[string]any) (int, error) {
	written := 0
	for start := 0; start < len(rows); start += s.batchSize {
		end := min(start+s.batchSize, len(rows))
		params := map[string]any{"rows": rows[start:end]}
		maps.Copy(params, extra)
		result, err := s.runner.Run(ctx, query, params, neo4j.AccessModeWrite)
		if err != nil {
			return written, err
		}
		written += sumInt(result, "written")
	}
	return written, nil
}

func props(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

func sumInt(rows []map[string]any, key string) int {
	total := 0
	for _, row := range rows {
		switch v := row[key].(type) {
		case int64:
			total += int(v)
		case int:
			total += v
		}
	}
	return total
}

func sinkFailure(op string, err error) error {
	return &ingest.Failure{Kind: ingest.FailureSink, Attempts: 1, Cause: fmt.Errorf("%s: %w", op, err)}
}
