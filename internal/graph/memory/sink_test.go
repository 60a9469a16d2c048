package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/senado-graph-ingest/internal/graph"
	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
)

func sampleDataset() ingest.Dataset {
	return ingest.Dataset{
		Senators: []ingest.Senator{{ID: "senator_a", Name: "Alvarez, Ana", Party: "UDI", Active: true}},
		Parties:  []ingest.Party{{ID: "party_udi", Name: "UDI", ShortName: "UDI"}},
		Laws:     []ingest.Law{{ID: "law_1", Boletin: "1-07", Title: "Ley"}},
		Votes: []ingest.VoteRecord{
			{SenatorID: "senator_a", SenatorName: "A. Ana", LawID: "law_1", Session: "1/372", Choice: ingest.VoteFavor},
			{SenatorID: "senator_b", SenatorName: "Bravo, Beto", LawID: "law_1", Session: "1/372", Choice: ingest.VoteFavor},
		},
	}
}

func load(t *testing.T, sink *Sink, d ingest.Dataset) {
	t.Helper()
	ctx := context.Background()
	for _, batch := range graph.Nodes(d) {
		_, err := sink.UpsertNodes(ctx, batch)
		require.NoError(t, err)
	}
	for _, batch := range graph.Edges(d) {
		_, err := sink.UpsertEdges(ctx, batch)
		require.NoError(t, err)
	}
}

// TestUpsertIsIdempotent loads the same dataset twice.
func TestUpsertIsIdempotent(t *testing.T) {
	t.Parallel()

	sink := NewSink()
	load(t, sink, sampleDataset())
	first, err := sink.Count(context.Background(), "")
	require.NoError(t, err)
	edges := len(sink.Edges(ingest.RelVotedOn))

	load(t, sink, sampleDataset())
	second, err := sink.Count(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, edges, len(sink.Edges(ingest.RelVotedOn)))
	require.Len(t, sink.Edges(ingest.RelBelongsTo), 1)
}

// TestEdgesCreateMissingEndpoints sets source props only on creation.
func TestEdgesCreateMissingEndpoints(t *testing.T) {
	t.Parallel()

	sink := NewSink()
	load(t, sink, sampleDataset())

	created, ok := sink.Node(ingest.LabelSenator, "senator_b")
	require.True(t, ok)
	require.Equal(t, "Bravo, Beto", created["name"])

	existing, ok := sink.Node(ingest.LabelSenator, "senator_a")
	require.True(t, ok)
	require.Equal(t, "Alvarez, Ana", existing["name"])
}

// TestLastWriteWinsPerAttribute overwrites changed properties only.
func TestLastWriteWinsPerAttribute(t *testing.T) {
	t.Parallel()

	sink := NewSink()
	ctx := context.Background()
	_, err := sink.UpsertNodes(ctx, ingest.NodeBatch{Label: ingest.LabelLaw, Nodes: []ingest.Node{
		{ID: "law_1", Props: map[string]any{"title": "old", "status": "in_discussion"}},
	}})
	require.NoError(t, err)
	_, err = sink.UpsertNodes(ctx, ingest.NodeBatch{Label: ingest.LabelLaw, Nodes: []ingest.Node{
		{ID: "law_1", Props: map[string]any{"status": "approved"}},
	}})
	require.NoError(t, err)

	law, _ := sink.Node(ingest.LabelLaw, "law_1")
	require.Equal(t, "old", law["title"])
	require.Equal(t, "approved", law["status"])
}

// TestPrincipalAuthorshipSurvivesLaterLoads verifies a stored principal role
// is not downgraded by a later co_sponsor row, while a co_sponsor is upgraded.
func TestPrincipalAuthorshipSurvivesLaterLoads(t *testing.T) {
	t.Parallel()

	authored := func(role ingest.AuthorRole) ingest.Dataset {
		return ingest.Dataset{
			Laws:        []ingest.Law{{ID: "law_7", Boletin: "7-07"}},
			Authorships: []ingest.Authorship{{SenatorID: "senator_x", LawID: "law_7", Role: role}},
		}
	}

	sink := NewSink()
	load(t, sink, authored(ingest.RolePrincipal))
	load(t, sink, authored(ingest.RoleCoSponsor))
	edges := sink.Edges(ingest.RelAuthored)
	require.Len(t, edges, 1)
	require.Equal(t, "principal", edges[0].Props["role"])

	upgraded := NewSink()
	load(t, upgraded, authored(ingest.RoleCoSponsor))
	load(t, upgraded, authored(ingest.RolePrincipal))
	edges = upgraded.Edges(ingest.RelAuthored)
	require.Len(t, edges, 1)
	require.Equal(t, "principal", edges[0].Props["role"])
}

// TestComputeSimilarityFromStoredVotes derives VOTED_SAME edges.
func TestComputeSimilarityFromStoredVotes(t *testing.T) {
	t.Parallel()

	var d ingest.Dataset
	for law := 1; law <= 5; law++ {
		choiceB := ingest.VoteFavor
		if law == 5 {
			choiceB = ingest.VoteAgainst
		}
		d.Votes = append(d.Votes,
			ingest.VoteRecord{SenatorID: "senator_a", LawID: fmt.Sprintf("law_%d", law), Session: "1", Choice: ingest.VoteFavor},
			ingest.VoteRecord{SenatorID: "senator_b", LawID: fmt.Sprintf("law_%d", law), Session: "1", Choice: choiceB},
		)
	}
	sink := NewSink()
	load(t, sink, d)

	written, err := sink.ComputeSimilarity(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, 1, written)
	same := sink.Edges(ingest.RelVotedSame)
	require.Len(t, same, 1)
	require.Equal(t, "senator_a", same[0].From)
	require.InDelta(t, 0.667, same[0].Props["agreement"], 0.001)

	written, err = sink.ComputeSimilarity(context.Background(), 5)
	require.NoError(t, err)
	require.Zero(t, written)
}

// TestLifecycle covers inactive marking, update log, clearing and ping.
func TestLifecycle(t *testing.T) {
	t.Parallel()

	sink := NewSink()
	ctx := context.Background()
	load(t, sink, sampleDataset())

	marked, err := sink.MarkInactive(ctx, []string{"senator_a"})
	require.NoError(t, err)
	require.Equal(t, 1, marked)
	marked, err = sink.MarkInactive(ctx, []string{"senator_a"})
	require.NoError(t, err)
	require.Zero(t, marked)

	require.NoError(t, sink.LogUpdate(ctx, "votes", 2, time.Now()))
	updates, err := sink.Count(ctx, ingest.LabelUpdate)
	require.NoError(t, err)
	require.Equal(t, 1, updates)

	total, err := sink.Count(ctx, "")
	require.NoError(t, err)
	deleted, err := sink.Clear(ctx)
	require.NoError(t, err)
	require.Equal(t, total, deleted)
	total, err = sink.Count(ctx, "")
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, sink.Edges(ingest.RelVotedOn))

	require.NoError(t, sink.Ping(ctx))
	errDown := errors.New("down")
	sink.SetPingError(errDown)
	require.ErrorIs(t, sink.Ping(ctx), errDown)
	require.NoError(t, sink.EnsureConstraints(ctx))
	require.NoError(t, sink.Close(ctx))
}
