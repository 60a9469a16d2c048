// Package dedup collapses collected records by natural key. Input order is
// significant: the first occurrence of a key is the one kept.
package dedup

import "github.com/JakeFAU/senado-graph-ingest/internal/ingest"

// First returns items with later duplicates (by key) removed, preserving the
// order of first occurrence.
func First[T any, K comparable](items []T, key func(T) K) []T {
	if len(items) == 0 {
		return items
	}
	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Authorships collapses authorships by (senator, law). The first occurrence
// is kept, except that a principal authorship replaces a co-sponsorship kept
// earlier for the same key. The replaced entry keeps its position.
func Authorships(items []ingest.Authorship) []ingest.Authorship {
	if len(items) == 0 {
		return items
	}
	index := make(map[[2]string]int, len(items))
	out := make([]ingest.Authorship, 0, len(items))
	for _, a := range items {
		k := a.Key()
		if i, ok := index[k]; ok {
			if a.Role == ingest.RolePrincipal && out[i].Role != ingest.RolePrincipal {
				out[i] = a
			}
			continue
		}
		index[k] = len(out)
		out = append(out, a)
	}
	return out
}

// Dataset deduplicates every collection of d and returns the result together
// with the number of records dropped. Relationship keys use resolved senator
// ids, so names must be resolved first.
func Dataset(d ingest.Dataset) (ingest.Dataset, int) {
	before := size(d)
	out := ingest.Dataset{
		Laws:           First(d.Laws, func(l ingest.Law) string { return l.ID }),
		Authorships:    Authorships(d.Authorships),
		Votes:          First(d.Votes, ingest.VoteRecord.Key),
		Senators:       First(d.Senators, func(s ingest.Senator) string { return s.ID }),
		Parties:        First(d.Parties, func(p ingest.Party) string { return p.ID }),
		Lobbyists:      First(d.Lobbyists, func(l ingest.Lobbyist) string { return l.ID }),
		LobbyMeetings:  First(d.LobbyMeetings, ingest.LobbyMeeting.Key),
		LobbyTrips:     First(d.LobbyTrips, ingest.LobbyTrip.Key),
		LobbyDonations: First(d.LobbyDonations, ingest.LobbyDonation.Key),
		Similarities:   d.Similarities,
	}
	return out, before - size(out)
}

func size(d ingest.Dataset) int {
	return len(d.Laws) + len(d.Authorships) + len(d.Votes) + len(d.Senators) + len(d.Parties) +
		len(d.Lobbyists) + len(d.LobbyMeetings) + len(d.LobbyTrips) + len(d.LobbyDonations)
}
