package neo4jsink

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
)

// Labels, relationship types and property keys are interpolated into Cypher,
// so they are restricted to plain identifiers.
var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

func validIdentifier(kind, name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid %s %q", kind, name)
	}
	return nil
}

// constrainedLabels get a uniqueness constraint on id.
var constrainedLabels = []string{
	ingest.LabelLaw,
	ingest.LabelSenator,
	ingest.LabelParty,
	ingest.LabelLobbyist,
}

func constraintQuery(label string) string {
	return fmt.Sprintf(
		"CREATE CONSTRAINT %s_id IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE",
		strings.ToLower(label), label,
	)
}

func nodeQuery(label string) string {
	return fmt.Sprintf(`UNWIND $rows AS row
MERGE (n:%s {id: row.id})
SET n += row.props
RETURN count(n) AS written`, label)
}

func edgeQuery(batch ingest.EdgeBatch) string {
	keys := make([]string, 0, len(batch.KeyProps))
	for _, k := range batch.KeyProps {
		keys = append(keys, fmt.Sprintf("%s: row.key.%s", k, k))
	}
	relKey := ""
	if len(keys) > 0 {
		relKey = " {" + strings.Join(keys, ", ") + "}"
	}
	return fmt.Sprintf(`UNWIND $rows AS row
MERGE (a:%s {id: row.from})
ON CREATE SET a += row.from_props
MERGE (b:%s {id: row.to})
MERGE (a)-[r:%s%s]->(b)
%sRETURN count(r) AS written`, batch.FromLabel, batch.ToLabel, batch.Type, relKey, edgeSet(batch.Sticky))
}

// edgeSet writes row.props, keeping every sticky property that already holds
// its sticky value. Sticky values are passed as $sticky_<prop>.
func edgeSet(sticky map[string]string) string {
	if len(sticky) == 0 {
		return "SET r += row.props\n"
	}
	keys := slices.Sorted(maps.Keys(sticky))
	priors := make([]string, 0, len(keys))
	restores := make([]string, 0, len(keys))
	for _, k := range keys {
		priors = append(priors, fmt.Sprintf("r.%s AS prior_%s", k, k))
		restores = append(restores, fmt.Sprintf(
			"r.%s = CASE WHEN prior_%s = $sticky_%s THEN prior_%s ELSE r.%s END", k, k, k, k, k))
	}
	return fmt.Sprintf("WITH r, row, %s\nSET r += row.props\nSET %s\n",
		strings.Join(priors, ", "), strings.Join(restores, ", "))
}

func stickyParams(sticky map[string]string) map[string]any {
	params := make(map[string]any, len(sticky))
	for k, v := range sticky {
		params["sticky_"+k] = v
	}
	return params
}

// similarityQuery derives VOTED_SAME from stored ballots. A ballot is one
// session vote on one law; agreement is the Jaccard ratio of agreeing
// ballots over the union of both senators' ballots.
const similarityQuery = `MATCH (s1:Senator)-[v1:VOTED_ON]->(l:Law)<-[v2:VOTED_ON]-(s2:Senator)
WHERE s1.id < s2.id AND v1.session = v2.session AND v1.vote = v2.vote
WITH s1, s2, count(*) AS common
WHERE common >= $min_common
MATCH (s1)-[t1:VOTED_ON]->(:Law)
WITH s1, s2, common, count(t1) AS total_a
MATCH (s2)-[t2:VOTED_ON]->(:Law)
WITH s1, s2, common, total_a, count(t2) AS total_b
MERGE (s1)-[r:VOTED_SAME]->(s2)
SET r.agreement = toFloat(common) / (total_a + total_b - common),
    r.common_votes = common,
    r.total_a = total_a,
    r.total_b = total_b
RETURN count(r) AS written`

const markInactiveQuery = `MATCH (s:Senator)
WHERE NOT s.id IN $active AND coalesce(s.active, true)
SET s.active = false
RETURN count(s) AS written`

const clearQuery = `MATCH (n)
DETACH DELETE n
RETURN count(*) AS written`

const logUpdateQuery = `CREATE (u:Update {type: $type, count: $count, timestamp: $timestamp})`

func countQuery(label string) string {
	if label == "" {
		return "MATCH (n) RETURN count(n) AS count"
	}
	return fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS count", label)
}
