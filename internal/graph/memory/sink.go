// Package memory implements ingest.GraphSink in memory for development and
// tests. It follows the same merge semantics as the Neo4j sink.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JakeFAU/senado-graph-ingest/internal/graph"
	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
	"github.com/JakeFAU/senado-graph-ingest/internal/similarity"
)

type edgeKey struct {
	relType string
	from    string
	to      string
	key     string
}

type storedEdge struct {
	props map[string]any
}

// Sink is an in-memory property graph.
type Sink struct {
	mu      sync.RWMutex
	nodes   map[string]map[string]map[string]any // label -> id -> props
	edges   map[edgeKey]*storedEdge
	updates int
	pingErr error
}

var _ ingest.GraphSink = (*Sink)(nil)

// NewSink creates an empty graph.
func NewSink() *Sink {
	return &Sink{
		nodes: make(map[string]map[string]map[string]any),
		edges: make(map[edgeKey]*storedEdge),
	}
}

// SetPingError makes Ping report err, simulating an unreachable store.
func (s *Sink) SetPingError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingErr = err
}

// Ping reports the configured ping error, if any.
func (s *Sink) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pingErr
}

// EnsureConstraints is a no-op; ids are unique per label by construction.
func (s *Sink) EnsureConstraints(context.Context) error {
	return nil
}

// UpsertNodes merges nodes by id.
func (s *Sink) UpsertNodes(_ context.Context, batch ingest.NodeBatch) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	written := 0
	for _, node := range batch.Nodes {
		if node.ID == "" {
			continue
		}
		s.mergeNode(batch.Label, node.ID, node.Props)
		written++
	}
	return written, nil
}

// UpsertEdges merges relationships and creates missing endpoints.
func (s *Sink) UpsertEdges(_ context.Context, batch ingest.EdgeBatch) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	written := 0
	for _, edge := range batch.Edges {
		if edge.From == "" || edge.To == "" {
			continue
		}
		if !s.hasNode(batch.FromLabel, edge.From) {
			s.mergeNode(batch.FromLabel, edge.From, edge.FromProps)
		}
		s.mergeNode(batch.ToLabel, edge.To, nil)
		k := edgeKey{relType: batch.Type, from: edge.From, to: edge.To, key: keyOf(batch.KeyProps, edge.Props)}
		stored, ok := s.edges[k]
		if !ok {
			stored = &storedEdge{props: make(map[string]any)}
			s.edges[k] = stored
		}
		kept := make(map[string]any, len(batch.Sticky))
		for prop, value := range batch.Sticky {
			if stored.props[prop] == value {
				kept[prop] = value
			}
		}
		mergeProps(stored.props, edge.Props)
		maps.Copy(stored.props, kept)
		written++
	}
	return written, nil
}

// ComputeSimilarity derives VOTED_SAME edges from the stored VOTED_ON edges.
func (s *Sink) ComputeSimilarity(ctx context.Context, minCommon int) (int, error) {
	s.mu.RLock()
	var votes []ingest.VoteRecord
	for k, e := range s.edges {
		if k.relType != ingest.RelVotedOn {
			continue
		}
		session, _ := e.props["session"].(string)
		choice, _ := e.props["vote"].(string)
		votes = append(votes, ingest.VoteRecord{
			SenatorID: k.from,
			LawID:     k.to,
			Session:   session,
			Choice:    ingest.VoteChoice(choice),
		})
	}
	s.mu.RUnlock()

	sims := similarity.Compute(votes, minCommon)
	return s.UpsertEdges(ctx, graph.SimilarityEdges(sims))
}

// MarkInactive flags senators missing from activeIDs.
func (s *Sink) MarkInactive(_ context.Context, activeIDs []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := make(map[string]struct{}, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = struct{}{}
	}
	marked := 0
	for id, props := range s.nodes[ingest.LabelSenator] {
		if _, ok := active[id]; ok {
			continue
		}
		if current, ok := props["active"].(bool); ok && !current {
			continue
		}
		props["active"] = false
		marked++
	}
	return marked, nil
}

// LogUpdate stores an Update node.
func (s *Sink) LogUpdate(_ context.Context, kind string, count int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++
	s.mergeNode(ingest.LabelUpdate, fmt.Sprintf("update_%d", s.updates), map[string]any{
		"type":      kind,
		"count":     count,
		"timestamp": at.UTC(),
	})
	return nil
}

// Count returns the number of nodes with label, or all nodes.
func (s *Sink) Count(_ context.Context, label string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if label != "" {
		return len(s.nodes[label]), nil
	}
	total := 0
	for _, byID := range s.nodes {
		total += len(byID)
	}
	return total, nil
}

// Clear empties the graph. The update counter keeps running so later
// Update ids stay unique.
func (s *Sink) Clear(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for _, byID := range s.nodes {
		deleted += len(byID)
	}
	s.nodes = make(map[string]map[string]map[string]any)
	s.edges = make(map[edgeKey]*storedEdge)
	return deleted, nil
}

// Close is a no-op.
func (s *Sink) Close(context.Context) error {
	return nil
}

// Node returns a copy of the properties of one node.
func (s *Sink) Node(label, id string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	props, ok := s.nodes[label][id]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(props))
	mergeProps(out, props)
	return out, true
}

// Edges returns copies of every relationship of relType sorted by endpoints.
func (s *Sink) Edges(relType string) []ingest.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ingest.Edge
	for k, e := range s.edges {
		if k.relType != relType {
			continue
		}
		props := make(map[string]any, len(e.props))
		mergeProps(props, e.props)
		out = append(out, ingest.Edge{From: k.from, To: k.to, Props: props})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		if out[i].To != out[j].To {
			return out[i].To < out[j].To
		}
		return fmt.Sprint(out[i].Props) < fmt.Sprint(out[j].Props)
	})
	return out
}

func (s *Sink) hasNode(label, id string) bool {
	_, ok := s.nodes[label][id]
	return ok
}

func (s *Sink) mergeNode(label, id string, props map[string]any) {
	byID, ok := s.nodes[label]
	if !ok {
		byID = make(map[string]map[string]any)
		s.nodes[label] = byID
	}
	stored, ok := byID[id]
	if !ok {
		stored = map[string]any{"id": id}
		byID[id] = stored
	}
	mergeProps(stored, props)
}

func mergeProps(dst, src map[string]any) {
	for k, v := range src {
		if v != nil {
			dst[k] = v
		}
	}
}

func keyOf(keyProps []string, props map[string]any) string {
	if len(keyProps) == 0 {
		return ""
	}
	parts := make([]string, 0, len(keyProps))
	for _, k := range keyProps {
		v := props[k]
		if v == nil {
			v = ""
		}
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, "\x00")
}
