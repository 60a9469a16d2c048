// Package similarity scores how often pairs of senators vote the same way.
package similarity

import (
	"sort"

	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
)

// DefaultMinCommon is the minimum number of agreeing ballots for a pair to be
// reported.
const DefaultMinCommon = 3

type ballot struct {
	lawID   string
	session string
}

type pair struct {
	a, b string
}

// Compute returns one VotingSimilarity per senator pair (A < B) that agreed
// on at least minCommon ballots. A ballot is one session vote on one law.
//
// common counts ballots where both senators made the same choice, totals
// count each senator's ballots, and agreement is the Jaccard ratio
// common / (totalA + totalB - common). Pairs are found by walking each
// ballot's choice groups, so senators that never shared a ballot cost
// nothing. Results are sorted by (SenatorA, SenatorB).
func Compute(votes []ingest.VoteRecord, minCommon int) []ingest.VotingSimilarity {
	if minCommon < 1 {
		minCommon = 1
	}

	// ballot -> choice -> senators, with one entry per senator and ballot.
	groups := make(map[ballot]map[ingest.VoteChoice][]string)
	seen := make(map[[3]string]struct{}, len(votes))
	totals := make(map[string]int)
	for _, v := range votes {
		if v.SenatorID == "" || v.LawID == "" || v.Choice == "" {
			continue
		}
		key := v.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		totals[v.SenatorID]++

		b := ballot{lawID: v.LawID, session: v.Session}
		byChoice, ok := groups[b]
		if !ok {
			byChoice = make(map[ingest.VoteChoice][]string)
			groups[b] = byChoice
		}
		byChoice[v.Choice] = append(byChoice[v.Choice], v.SenatorID)
	}

	common := make(map[pair]int)
	for _, byChoice := range groups {
		for _, senators := range byChoice {
			for i := 0; i < len(senators); i++ {
				for j := i + 1; j < len(senators); j++ {
					common[orderedPair(senators[i], senators[j])]++
				}
			}
		}
	}

	out := make([]ingest.VotingSimilarity, 0, len(common))
	for p, n := range common {
		if n < minCommon {
			continue
		}
		totalA, totalB := totals[p.a], totals[p.b]
		out = append(out, ingest.VotingSimilarity{
			SenatorA:  p.a,
			SenatorB:  p.b,
			Agreement: float64(n) / float64(totalA+totalB-n),
			Common:    n,
			TotalA:    totalA,
			TotalB:    totalB,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SenatorA != out[j].SenatorA {
			return out[i].SenatorA < out[j].SenatorA
		}
		return out[i].SenatorB < out[j].SenatorB
	})
	return out
}

func orderedPair(x, y string) pair {
	if x < y {
		return pair{a: x, b: y}
	}
	return pair{a: y, b: x}
}
