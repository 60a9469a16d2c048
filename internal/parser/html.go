package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
)

// SenatorsResult holds the senators found in the listing.
type SenatorsResult struct {
	Senators []ingest.Senator
	Skipped  int
}

// LobbyistsResult holds the lobbyist register and the meetings derived from
// its origin column.
type LobbyistsResult struct {
	Lobbyists []ingest.Lobbyist
	Meetings  []ingest.LobbyMeeting
	Skipped   int
}

// TripsResult holds funded trips.
type TripsResult struct {
	Trips   []ingest.LobbyTrip
	Skipped int
}

// DonationsResult holds received donations.
type DonationsResult struct {
	Donations []ingest.LobbyDonation
	Skipped   int
}

var (
	regionPattern  = regexp.MustCompile(`Región:\s*([^|\n]+)`)
	meetingPattern = regexp.MustCompile(`Reunión realizada el (\d{4}-\d{2}-\d{2}) con ([^)]+)`)
	infoMarkers    = []string{"Región:", "Email:", "Teléfono:"}
)

// ParseSenators reads the senator listing: rows with at least three
// td.clase_td cells, one holding the party and one holding name, region and
// contact details.
func ParseSenators(body []byte) (SenatorsResult, error) {
	doc, err := parseHTML(body)
	if err != nil {
		return SenatorsResult{}, err
	}
	var out SenatorsResult
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td.clase_td")
		if cells.Length() < 3 {
			return
		}
		var info, party *goquery.Selection
		cells.Each(func(_ int, td *goquery.Selection) {
			text := td.Text()
			switch {
			case strings.Contains(text, "Partido:"):
				party = td
			case containsAny(text, infoMarkers):
				info = td
			}
		})
		if info == nil || party == nil {
			out.Skipped++
			return
		}

		infoText := info.Text()
		name, _, _ := strings.Cut(infoText, "Región:")
		name = clean(name)
		if name == "" {
			out.Skipped++
			return
		}
		var region string
		if m := regionPattern.FindStringSubmatch(infoText); m != nil {
			region = cutBefore(clean(m[1]), "Email:", "Teléfono:")
		}
		var email string
		if href, ok := info.Find(`a[href^="mailto:"]`).First().Attr("href"); ok {
			email = strings.TrimSpace(strings.TrimPrefix(href, "mailto:"))
		}
		out.Senators = append(out.Senators, ingest.Senator{
			ID:     ingest.SenatorID(name),
			Name:   name,
			Party:  clean(party.Find("strong").First().Text()),
			Region: region,
			Email:  email,
			Active: true,
		})
	})
	return out, nil
}

// ExtractParties derives one party per distinct senator party, in order of
// first appearance.
func ExtractParties(senators []ingest.Senator) []ingest.Party {
	seen := make(map[string]struct{})
	var parties []ingest.Party
	for _, s := range senators {
		name := strings.TrimSpace(s.Party)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		parties = append(parties, ingest.Party{
			ID:        ingest.PartyID(name),
			Name:      name,
			ShortName: name,
			Color:     PartyColor(name),
		})
	}
	return parties
}

// ParseLobbyists reads the lobbyist register (name, date, origin, activity).
// An origin of the form "Reunión realizada el YYYY-MM-DD con NAME" also yields
// a meeting between that senator and the lobbyist.
func ParseLobbyists(body []byte) (LobbyistsResult, error) {
	doc, err := parseHTML(body)
	if err != nil {
		return LobbyistsResult{}, err
	}
	var out LobbyistsResult
	eachResultRow(doc, 4, &out.Skipped, func(cells []string) {
		name, date, origin, activity := cells[0], cells[1], cells[2], cells[3]
		if name == "" {
			out.Skipped++
			return
		}
		lobbyist := ingest.Lobbyist{
			ID:               ingest.LobbyistID(name),
			Name:             name,
			Type:             "organization",
			Industry:         Industry(activity),
			RegistrationDate: NormalizeDate(date),
			Origin:           origin,
		}
		out.Lobbyists = append(out.Lobbyists, lobbyist)

		if m := meetingPattern.FindStringSubmatch(origin); m != nil {
			out.Meetings = append(out.Meetings, ingest.LobbyMeeting{
				SenatorName: clean(m[2]),
				LobbyistID:  lobbyist.ID,
				Date:        m[1],
				Topic:       activity,
			})
		}
	})
	return out, nil
}

// ParseTrips reads funded trips (senator, destination, purpose, cost,
// funded by, invited by). The funder is the lobbyist side of the edge.
func ParseTrips(body []byte) (TripsResult, error) {
	doc, err := parseHTML(body)
	if err != nil {
		return TripsResult{}, err
	}
	var out TripsResult
	eachResultRow(doc, 6, &out.Skipped, func(cells []string) {
		senator, fundedBy := cells[0], cells[4]
		if senator == "" || fundedBy == "" {
			out.Skipped++
			return
		}
		out.Trips = append(out.Trips, ingest.LobbyTrip{
			SenatorName: senator,
			LobbyistID:  ingest.LobbyistID(fundedBy),
			Destination: cells[1],
			Purpose:     cells[2],
			Cost:        ParseCost(cells[3]),
			FundedBy:    fundedBy,
			InvitedBy:   cells[5],
		})
	})
	return out, nil
}

// ParseDonations reads received donations (senator, date, occasion, item,
// donor). The donor is the lobbyist side of the edge.
func ParseDonations(body []byte) (DonationsResult, error) {
	doc, err := parseHTML(body)
	if err != nil {
		return DonationsResult{}, err
	}
	var out DonationsResult
	eachResultRow(doc, 5, &out.Skipped, func(cells []string) {
		senator, donor := cells[0], cells[4]
		if senator == "" || donor == "" {
			out.Skipped++
			return
		}
		out.Donations = append(out.Donations, ingest.LobbyDonation{
			SenatorName: senator,
			LobbyistID:  ingest.LobbyistID(donor),
			Date:        NormalizeDate(cells[1]),
			Occasion:    cells[2],
			Item:        cells[3],
			Donor:       donor,
		})
	})
	return out, nil
}

// eachResultRow calls fn with the cleaned cell texts of every body row of
// every table.table-result that has at least minCells cells. Shorter rows
// are counted as skipped.
func eachResultRow(doc *goquery.Document, minCells int, skipped *int, fn func(cells []string)) {
	doc.Find("table.table-result tbody tr").Each(func(_ int, row *goquery.Selection) {
		tds := row.ChildrenFiltered("td")
		if tds.Length() < minCells {
			*skipped++
			return
		}
		cells := make([]string, 0, tds.Length())
		tds.Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, clean(td.Text()))
		})
		fn(cells)
	})
}

func parseHTML(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ingest.Failure{Kind: ingest.FailureParse, Attempts: 1, Cause: fmt.Errorf("parse html: %w", err)}
	}
	return doc, nil
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

func cutBefore(text string, markers ...string) string {
	for _, m := range markers {
		if before, _, found := strings.Cut(text, m); found {
			text = before
		}
	}
	return strings.TrimSpace(text)
}
