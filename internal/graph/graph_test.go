package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
)

// TestEdgesKeysAndEndpoints verifies relationship types, keys and lobbyist ends.
func TestEdgesKeysAndEndpoints(t *testing.T) {
	t.Parallel()

	d := ingest.Dataset{
		Senators: []ingest.Senator{
			{ID: "senator_a", Name: "A", Party: "R.N."},
			{ID: "senator_b", Name: "B"},
		},
		Authorships:    []ingest.Authorship{{SenatorID: "senator_a", LawID: "law_1", Role: ingest.RolePrincipal}},
		Votes:          []ingest.VoteRecord{{SenatorID: "senator_a", LawID: "law_1", Session: "1/372", Choice: ingest.VoteAbsent}},
		LobbyMeetings:  []ingest.LobbyMeeting{{SenatorID: "senator_a", LobbyistID: "lobbyist_x", Date: "2024-02-01"}},
		LobbyTrips:     []ingest.LobbyTrip{{SenatorID: "senator_b", LobbyistID: "lobbyist_y", Destination: "Lima", Cost: 5}},
		LobbyDonations: []ingest.LobbyDonation{{SenatorID: "senator_b", LobbyistID: "lobbyist_z", Date: "2024-04-10", Item: "Libro"}},
		Similarities:   []ingest.VotingSimilarity{{SenatorA: "senator_a", SenatorB: "senator_b", Agreement: 0.5, Common: 3}},
	}

	byType := make(map[string]ingest.EdgeBatch)
	for _, b := range Edges(d) {
		byType[b.Type] = b
	}
	require.Len(t, byType, 7)

	belongs := byType[ingest.RelBelongsTo]
	require.Len(t, belongs.Edges, 1)
	require.Equal(t, "party_rn", belongs.Edges[0].To)

	require.Empty(t, byType[ingest.RelAuthored].KeyProps)
	require.Equal(t, map[string]string{"role": "principal"}, byType[ingest.RelAuthored].Sticky)
	require.Equal(t, []string{"session"}, byType[ingest.RelVotedOn].KeyProps)
	require.Equal(t, "absent", byType[ingest.RelVotedOn].Edges[0].Props["vote"])
	require.Equal(t, []string{"date"}, byType[ingest.RelMetWithLobbyist].KeyProps)
	require.Equal(t, []string{"destination"}, byType[ingest.RelTripFundedBy].KeyProps)
	require.Equal(t, "lobbyist_y", byType[ingest.RelTripFundedBy].Edges[0].To)
	require.Equal(t, []string{"date", "item"}, byType[ingest.RelReceivedDonation].KeyProps)
	require.Equal(t, ingest.LabelSenator, byType[ingest.RelVotedSame].ToLabel)
	require.Equal(t, 3, byType[ingest.RelVotedSame].Edges[0].Props["common_votes"])
}

// TestNodesOmitsEmptyBatches keeps load order and skips empty labels.
func TestNodesOmitsEmptyBatches(t *testing.T) {
	t.Parallel()

	batches := Nodes(ingest.Dataset{
		Laws:     []ingest.Law{{ID: "law_1", Status: ingest.LawStatusApproved}},
		Senators: []ingest.Senator{{ID: "senator_a", Active: true}},
	})
	require.Len(t, batches, 2)
	require.Equal(t, ingest.LabelSenator, batches[0].Label)
	require.Equal(t, ingest.LabelLaw, batches[1].Label)
	require.Equal(t, "approved", batches[1].Nodes[0].Props["status"])
	require.Empty(t, Edges(ingest.Dataset{}))
}
