package dedup

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
)

// TestFirstKeepsFirstOccurrence verifies order and first-wins semantics.
func TestFirstKeepsFirstOccurrence(t *testing.T) {
	t.Parallel()

	laws := []ingest.Law{
		{ID: "law_1", Title: "day 0"},
		{ID: "law_2", Title: "day 0"},
		{ID: "law_1", Title: "day 3"},
	}
	got := First(laws, func(l ingest.Law) string { return l.ID })
	require.Equal(t, []ingest.Law{{ID: "law_1", Title: "day 0"}, {ID: "law_2", Title: "day 0"}}, got)
	require.Empty(t, First([]ingest.Law(nil), func(l ingest.Law) string { return l.ID }))
}

// TestAuthorshipsPrincipalWins checks both arrival orders.
func TestAuthorshipsPrincipalWins(t *testing.T) {
	t.Parallel()

	principal := ingest.Authorship{SenatorID: "senator_a", LawID: "law_1", Role: ingest.RolePrincipal, Date: "2024-01-02"}
	cosponsor := ingest.Authorship{SenatorID: "senator_a", LawID: "law_1", Role: ingest.RoleCoSponsor, Date: "2024-01-05"}
	other := ingest.Authorship{SenatorID: "senator_b", LawID: "law_1", Role: ingest.RoleCoSponsor}

	for name, input := range map[string][]ingest.Authorship{
		"principal first": {principal, other, cosponsor},
		"cosponsor first": {cosponsor, other, principal},
	} {
		got := Authorships(input)
		require.Len(t, got, 2, name)
		require.Equal(t, principal, got[0], name)
		require.Equal(t, other, got[1], name)
	}
}

// TestDatasetCountsDropped verifies every key and the dropped counter.
func TestDatasetCountsDropped(t *testing.T) {
	t.Parallel()

	vote := ingest.VoteRecord{SenatorID: "senator_a", LawID: "law_1", Session: "12/372", Choice: ingest.VoteFavor}
	secondSession := vote
	secondSession.Session = "13/372"
	changed := vote
	changed.Choice = ingest.VoteAgainst

	trip := ingest.LobbyTrip{SenatorID: "senator_a", LobbyistID: "lobbyist_x", Destination: "Madrid", Cost: 10}
	donation := ingest.LobbyDonation{SenatorID: "senator_a", LobbyistID: "lobbyist_x", Date: "2024-04-10", Item: "Libro"}
	otherItem := donation
	otherItem.Item = "Vino"

	in := ingest.Dataset{
		Laws:           []ingest.Law{{ID: "law_1"}, {ID: "law_1"}},
		Votes:          []ingest.VoteRecord{vote, secondSession, changed},
		Senators:       []ingest.Senator{{ID: "senator_a"}, {ID: "senator_a"}},
		Parties:        []ingest.Party{{ID: "party_udi"}},
		LobbyMeetings:  []ingest.LobbyMeeting{{SenatorID: "senator_a", LobbyistID: "lobbyist_x", Date: "2024-02-01"}},
		LobbyTrips:     []ingest.LobbyTrip{trip, trip},
		LobbyDonations: []ingest.LobbyDonation{donation, otherItem, donation},
	}
	out, dropped := Dataset(in)
	require.Equal(t, 5, dropped)
	require.Len(t, out.Laws, 1)
	require.Equal(t, []ingest.VoteRecord{vote, secondSession}, out.Votes)
	require.Len(t, out.Senators, 1)
	require.Len(t, out.LobbyTrips, 1)
	require.Len(t, out.LobbyDonations, 2)
}
