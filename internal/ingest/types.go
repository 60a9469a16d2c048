package ingest

// LawStatus is the normalized processing state of a bill.
type LawStatus string

// Supported law statuses.
const (
	LawStatusInDiscussion LawStatus = "in_discussion"
	LawStatusApproved     LawStatus = "approved"
	LawStatusRejected     LawStatus = "rejected"
	LawStatusWithdrawn    LawStatus = "withdrawn"
)

// AuthorRole distinguishes the principal author from co-sponsors.
type AuthorRole string

// Supported authorship roles.
const (
	RolePrincipal AuthorRole = "principal"
	RoleCoSponsor AuthorRole = "co_sponsor"
)

// VoteChoice is the normalized ballot selection of one senator.
type VoteChoice string

// Supported vote choices.
const (
	VoteFavor     VoteChoice = "favor"
	VoteAgainst   VoteChoice = "against"
	VoteAbstained VoteChoice = "abstained"
	VotePaired    VoteChoice = "paired"
	VoteAbsent    VoteChoice = "absent"
)

// Law is a bill identified by its boletin number.
type Law struct {
	ID           string    `json:"id"`
	Boletin      string    `json:"boletin"`
	Title        string    `json:"title"`
	Status       LawStatus `json:"status"`
	Topic        string    `json:"topic"`
	Description  string    `json:"description"`
	DateProposed string    `json:"date_proposed"`
}

// Senator is a legislator. The id is derived from the full name.
type Senator struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Party  string `json:"party"`
	Region string `json:"region"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}

// Party is a political party referenced by senators through ShortName.
type Party struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Color     string `json:"color"`
}

// Authorship links a senator to a law they wrote or co-sponsored.
type Authorship struct {
	SenatorID   string     `json:"senator_id"`
	SenatorName string     `json:"senator_name"`
	LawID       string     `json:"law_id"`
	Role        AuthorRole `json:"role"`
	Date        string     `json:"date"`
}

// Key returns the natural key used for deduplication.
func (a Authorship) Key() [2]string {
	return [2]string{a.SenatorID, a.LawID}
}

// VoteRecord is one senator's ballot on one law in one session.
type VoteRecord struct {
	SenatorID   string     `json:"senator_id"`
	SenatorName string     `json:"senator_name"`
	LawID       string     `json:"law_id"`
	Boletin     string     `json:"law_boletin"`
	Session     string     `json:"session"`
	Date        string     `json:"date"`
	Topic       string     `json:"topic"`
	Choice      VoteChoice `json:"vote"`
}

// Key returns the natural key used for deduplication.
func (v VoteRecord) Key() [3]string {
	return [3]string{v.SenatorID, v.LawID, v.Session}
}

// VotingSimilarity is the derived agreement score between two senators.
// SenatorA always sorts before SenatorB.
type VotingSimilarity struct {
	SenatorA  string  `json:"senator_a"`
	SenatorB  string  `json:"senator_b"`
	Agreement float64 `json:"agreement"`
	Common    int     `json:"common_votes"`
	TotalA    int     `json:"total_a"`
	TotalB    int     `json:"total_b"`
}

// Lobbyist is a registered lobbying organization or person.
type Lobbyist struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	Industry         string `json:"industry"`
	RegistrationDate string `json:"registration_date"`
	Origin           string `json:"origin"`
}

// LobbyMeeting records a meeting between a senator and a lobbyist.
type LobbyMeeting struct {
	SenatorID   string `json:"senator_id"`
	SenatorName string `json:"senator_name"`
	LobbyistID  string `json:"lobbyist_id"`
	Date        string `json:"date"`
	Topic       string `json:"topic"`
}

// Key returns the natural key used for deduplication.
func (m LobbyMeeting) Key() [3]string {
	return [3]string{m.SenatorID, m.LobbyistID, m.Date}
}

// LobbyTrip records a trip funded by a third party.
type LobbyTrip struct {
	SenatorID   string `json:"senator_id"`
	SenatorName string `json:"senator_name"`
	LobbyistID  string `json:"lobbyist_id"`
	Destination string `json:"destination"`
	Purpose     string `json:"purpose"`
	Cost        int64  `json:"cost"`
	FundedBy    string `json:"funded_by"`
	InvitedBy   string `json:"invited_by"`
}

// Key returns the natural key used for deduplication.
func (t LobbyTrip) Key() [3]string {
	return [3]string{t.SenatorID, t.LobbyistID, t.Destination}
}

// LobbyDonation records a gift received by a senator.
type LobbyDonation struct {
	SenatorID   string `json:"senator_id"`
	SenatorName string `json:"senator_name"`
	LobbyistID  string `json:"lobbyist_id"`
	Date        string `json:"date"`
	Occasion    string `json:"occasion"`
	Item        string `json:"item"`
	Donor       string `json:"donor"`
}

// Key returns the natural key used for deduplication.
func (d LobbyDonation) Key() [4]string {
	return [4]string{d.SenatorID, d.LobbyistID, d.Date, d.Item}
}

// Dataset is the full set of records exchanged between the scrape and load
// phases. Each field maps to one staging key.
type Dataset struct {
	Laws           []Law              `json:"laws,omitempty"`
	Authorships    []Authorship       `json:"authorships,omitempty"`
	Votes          []VoteRecord       `json:"votes,omitempty"`
	Senators       []Senator          `json:"senators,omitempty"`
	Parties        []Party            `json:"parties,omitempty"`
	Lobbyists      []Lobbyist         `json:"lobbyists,omitempty"`
	LobbyMeetings  []LobbyMeeting     `json:"lobby_meetings,omitempty"`
	LobbyTrips     []LobbyTrip        `json:"lobby_trips,omitempty"`
	LobbyDonations []LobbyDonation    `json:"lobby_donations,omitempty"`
	Similarities   []VotingSimilarity `json:"-"`
}
