// Package graph maps ingest records onto the property graph: which label
// each record becomes, which relationship it implies and which properties
// identify that relationship.
package graph

import "github.com/JakeFAU/senado-graph-ingest/internal/ingest"

// Nodes returns the node batches of d in load order. Empty batches are
// omitted.
func Nodes(d ingest.Dataset) []ingest.NodeBatch {
	var batches []ingest.NodeBatch
	add := func(label string, nodes []ingest.Node) {
		if len(nodes) > 0 {
			batches = append(batches, ingest.NodeBatch{Label: label, Nodes: nodes})
		}
	}

	parties := make([]ingest.Node, 0, len(d.Parties))
	for _, p := range d.Parties {
		parties = append(parties, ingest.Node{ID: p.ID, Props: map[string]any{
			"name":       p.Name,
			"short_name": p.ShortName,
			"color":      p.Color,
		}})
	}
	add(ingest.LabelParty, parties)

	senators := make([]ingest.Node, 0, len(d.Senators))
	for _, s := range d.Senators {
		senators = append(senators, ingest.Node{ID: s.ID, Props: map[string]any{
			"name":   s.Name,
			"party":  s.Party,
			"region": s.Region,
			"email":  s.Email,
			"active": s.Active,
		}})
	}
	add(ingest.LabelSenator, senators)

	laws := make([]ingest.Node, 0, len(d.Laws))
	for _, l := range d.Laws {
		laws = append(laws, ingest.Node{ID: l.ID, Props: map[string]any{
			"boletin":       l.Boletin,
			"title":         l.Title,
			"status":        string(l.Status),
			"topic":         l.Topic,
			"description":   l.Description,
			"date_proposed": l.DateProposed,
		}})
	}
	add(ingest.LabelLaw, laws)

	lobbyists := make([]ingest.Node, 0, len(d.Lobbyists))
	for _, l := range d.Lobbyists {
		lobbyists = append(lobbyists, ingest.Node{ID: l.ID, Props: map[string]any{
			"name":              l.Name,
			"type":              l.Type,
			"industry":          l.Industry,
			"registration_date": l.RegistrationDate,
			"origin":            l.Origin,
		}})
	}
	add(ingest.LabelLobbyist, lobbyists)

	return batches
}

// Edges returns the relationship batches of d. Senator ids must already be
// resolved. Empty batches are omitted.
func Edges(d ingest.Dataset) []ingest.EdgeBatch {
	var batches []ingest.EdgeBatch
	add := func(b ingest.EdgeBatch) {
		if len(b.Edges) > 0 {
			batches = append(batches, b)
		}
	}

	belongs := ingest.EdgeBatch{Type: ingest.RelBelongsTo, FromLabel: ingest.LabelSenator, ToLabel: ingest.LabelParty}
	for _, s := range d.Senators {
		if s.Party == "" {
			continue
		}
		belongs.Edges = append(belongs.Edges, ingest.Edge{From: s.ID, To: ingest.PartyID(s.Party)})
	}
	add(belongs)

	// A principal authorship is never downgraded by a later co_sponsor row.
	authored := ingest.EdgeBatch{
		Type:      ingest.RelAuthored,
		FromLabel: ingest.LabelSenator,
		ToLabel:   ingest.LabelLaw,
		Sticky:    map[string]string{"role": string(ingest.RolePrincipal)},
	}
	for _, a := range d.Authorships {
		authored.Edges = append(authored.Edges, ingest.Edge{
			From:      a.SenatorID,
			To:        a.LawID,
			Props:     map[string]any{"role": string(a.Role), "date": a.Date},
			FromProps: senatorName(a.SenatorName),
		})
	}
	add(authored)

	voted := ingest.EdgeBatch{
		Type:      ingest.RelVotedOn,
		FromLabel: ingest.LabelSenator,
		ToLabel:   ingest.LabelLaw,
		KeyProps:  []string{"session"},
	}
	for _, v := range d.Votes {
		voted.Edges = append(voted.Edges, ingest.Edge{
			From: v.SenatorID,
			To:   v.LawID,
			Props: map[string]any{
				"session": v.Session,
				"date":    v.Date,
				"vote":    string(v.Choice),
				"topic":   v.Topic,
			},
			FromProps: senatorName(v.SenatorName),
		})
	}
	add(voted)

	met := ingest.EdgeBatch{
		Type:      ingest.RelMetWithLobbyist,
		FromLabel: ingest.LabelSenator,
		ToLabel:   ingest.LabelLobbyist,
		KeyProps:  []string{"date"},
	}
	for _, m := range d.LobbyMeetings {
		met.Edges = append(met.Edges, ingest.Edge{
			From:      m.SenatorID,
			To:        m.LobbyistID,
			Props:     map[string]any{"date": m.Date, "topic": m.Topic},
			FromProps: senatorName(m.SenatorName),
		})
	}
	add(met)

	trips := ingest.EdgeBatch{
		Type:      ingest.RelTripFundedBy,
		FromLabel: ingest.LabelSenator,
		ToLabel:   ingest.LabelLobbyist,
		KeyProps:  []string{"destination"},
	}
	for _, t := range d.LobbyTrips {
		trips.Edges = append(trips.Edges, ingest.Edge{
			From: t.SenatorID,
			To:   t.LobbyistID,
			Props: map[string]any{
				"destination": t.Destination,
				"purpose":     t.Purpose,
				"cost":        t.Cost,
				"funded_by":   t.FundedBy,
				"invited_by":  t.InvitedBy,
			},
			FromProps: senatorName(t.SenatorName),
		})
	}
	add(trips)

	donations := ingest.EdgeBatch{
		Type:      ingest.RelReceivedDonation,
		FromLabel: ingest.LabelSenator,
		ToLabel:   ingest.LabelLobbyist,
		KeyProps:  []string{"date", "item"},
	}
	for _, dn := range d.LobbyDonations {
		donations.Edges = append(donations.Edges, ingest.Edge{
			From: dn.SenatorID,
			To:   dn.LobbyistID,
			Props: map[string]any{
				"date":     dn.Date,
				"occasion": dn.Occasion,
				"item":     dn.Item,
				"donor":    dn.Donor,
			},
			FromProps: senatorName(dn.SenatorName),
		})
	}
	add(donations)

	add(SimilarityEdges(d.Similarities))
	return batches
}

// SimilarityEdges converts similarity scores into a VOTED_SAME batch.
func SimilarityEdges(sims []ingest.VotingSimilarity) ingest.EdgeBatch {
	edges := make([]ingest.Edge, 0, len(sims))
	for _, sim := range sims {
		edges = append(edges, ingest.Edge{
			From: sim.SenatorA,
			To:   sim.SenatorB,
			Props: map[string]any{
				"agreement":    sim.Agreement,
				"common_votes": sim.Common,
				"total_a":      sim.TotalA,
				"total_b":      sim.TotalB,
			},
		})
	}
	return ingest.EdgeBatch{
		Type:      ingest.RelVotedSame,
		FromLabel: ingest.LabelSenator,
		ToLabel:   ingest.LabelSenator,
		Edges:     edges,
	}
}

func senatorName(name string) map[string]any {
	if name == "" {
		return nil
	}
	return map[string]any{"name": name}
}
