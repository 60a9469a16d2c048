package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
)

// dateLayouts is tried in order; the first layout that parses wins.
var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006/01/02",
}

// ParseDate parses the date formats the source emits. It reports false when
// none of the known layouts match.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NormalizeDate renders a parseable date as YYYY-MM-DD and returns anything
// else trimmed but unchanged.
func NormalizeDate(raw string) string {
	if t, ok := ParseDate(raw); ok {
		return t.Format(time.DateOnly)
	}
	return strings.TrimSpace(raw)
}

// NormalizeStatus maps the free-text processing state of a bill.
func NormalizeStatus(raw string) ingest.LawStatus {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "aprobado"):
		return ingest.LawStatusApproved
	case strings.Contains(lower, "rechazado"):
		return ingest.LawStatusRejected
	case strings.Contains(lower, "retirado"):
		return ingest.LawStatusWithdrawn
	default:
		return ingest.LawStatusInDiscussion
	}
}

// NormalizeVote maps a ballot selection. Unknown or missing selections count
// as absent.
func NormalizeVote(raw string) ingest.VoteChoice {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case lower == "":
		return ingest.VoteAbsent
	case lower == "si" || lower == "sí":
		return ingest.VoteFavor
	case lower == "no":
		return ingest.VoteAgainst
	case strings.Contains(lower, "abstenc"):
		return ingest.VoteAbstained
	case strings.Contains(lower, "pareo"):
		return ingest.VotePaired
	default:
		return ingest.VoteAbsent
	}
}

// industryKeywords is checked in order; the first industry with a keyword
// contained in the activity text wins.
var industryKeywords = []struct {
	industry string
	keywords []string
}{
	{"mining", []string{"minería", "cobre", "minera", "litio"}},
	{"energy", []string{"energía", "renovable", "hidrógeno", "eléctrica"}},
	{"fishing", []string{"pesca", "acuicultura", "salmon", "mar"}},
	{"agriculture", []string{"agrícola", "agricultura", "fruta", "viña", "vino"}},
	{"education", []string{"educación", "universidad", "escuela"}},
	{"health", []string{"salud", "farmacéutica", "médico"}},
	{"finance", []string{"banca", "financiero", "bancario", "seguro"}},
	{"technology", []string{"tecnología", "digital", "software"}},
	{"environment", []string{"medio ambiente", "ambiental", "agua"}},
	{"construction", []string{"construcción", "inmobiliario", "vivienda"}},
	{"transport", []string{"transporte", "aéreo", "ferrocarril"}},
	{"labor", []string{"trabajo", "laboral", "sindical"}},
	{"justice", []string{"justicia", "legal", "ley"}},
}

// Industry classifies a lobbying activity description.
func Industry(activity string) string {
	lower := strings.ToLower(activity)
	for _, entry := range industryKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.industry
			}
		}
	}
	return "other"
}

const defaultPartyColor = "#cccccc"

var partyColors = map[string]string{
	"R.N.":                   "#0054a6",
	"PS":                     "#e4002b",
	"P.S.":                   "#e4002b",
	"UDI":                    "#1a237e",
	"U.D.I.":                 "#1a237e",
	"PDC":                    "#0066cc",
	"P.D.C.":                 "#0066cc",
	"PPD":                    "#ff6600",
	"P.P.D.":                 "#ff6600",
	"Evópoli":                "#ffc107",
	"P.C":                    "#d32f2f",
	"Social Cristiano":       "#7b1fa2",
	"Demócratas":             "#1976d2",
	"Revolución Democrática": "#388e3c",
	"F.R.E.V.S.":             "#f57c00",
	"Independiente":          "#757575",
}

// PartyColor returns the display colour of a party short name.
func PartyColor(shortName string) string {
	if color, ok := partyColors[strings.TrimSpace(shortName)]; ok {
		return color
	}
	return defaultPartyColor
}

// ParseCost reads an amount written with '.' or ',' thousands separators.
// Unparseable amounts are reported as zero.
func ParseCost(raw string) int64 {
	cleaned := strings.NewReplacer(".", "", ",", "", "$", "", " ", "").Replace(strings.TrimSpace(raw))
	cost, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0
	}
	return cost
}

// clean trims text and collapses internal whitespace runs to one space.
func clean(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
