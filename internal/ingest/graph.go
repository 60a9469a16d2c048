package ingest

// Node labels.
const (
	LabelLaw      = "Law"
	LabelSenator  = "Senator"
	LabelParty    = "Party"
	LabelLobbyist = "Lobbyist"
	LabelUpdate   = "Update"
)

// Relationship types.
const (
	RelBelongsTo        = "BELONGS_TO"
	RelAuthored         = "AUTHORED"
	RelVotedOn          = "VOTED_ON"
	RelVotedSame        = "VOTED_SAME"
	RelMetWithLobbyist  = "MET_WITH_LOBBYIST"
	RelTripFundedBy     = "TRIP_FUNDED_BY"
	RelReceivedDonation = "RECEIVED_DONATION"
)

// Node is one vertex to merge by id. Props overwrite stored values.
type Node struct {
	ID    string
	Props map[string]any
}

// NodeBatch is a homogeneous set of nodes sharing a label.
type NodeBatch struct {
	Label string
	Nodes []Node
}

// Edge is one relationship between two node ids.
type Edge struct {
	From  string
	To    string
	Props map[string]any
	// FromProps are set on the source node only when the edge creates it.
	FromProps map[string]any
}

// EdgeBatch is a homogeneous set of relationships. KeyProps name the edge
// properties that, together with the endpoints, identify a relationship; an
// empty KeyProps means at most one relationship of Type per endpoint pair.
// Sticky maps a property to a value that, once stored on a relationship, is
// never overwritten by a later upsert.
type EdgeBatch struct {
	Type      string
	FromLabel string
	ToLabel   string
	KeyProps  []string
	Sticky    map[string]string
	Edges     []Edge
}
