package ingest

import (
	"strings"
	"unicode"
)

// Id prefixes per node label.
const (
	LawPrefix      = "law_"
	SenatorPrefix  = "senator_"
	PartyPrefix    = "party_"
	LobbyistPrefix = "lobbyist_"
)

const maxSlugRunes = 50

// Slug lowercases text, drops every rune that is not a letter, digit,
// underscore, whitespace or hyphen, collapses runs of hyphens and whitespace
// into a single underscore and truncates the result to 50 runes. Accented
// letters are kept as-is.
func Slug(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inGap := false
	for _, r := range strings.ToLower(text) {
		switch {
		case r == '-' || unicode.IsSpace(r):
			if !inGap {
				b.WriteByte('_')
				inGap = true
			}
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			inGap = false
		}
	}
	out := []rune(b.String())
	if len(out) > maxSlugRunes {
		out = out[:maxSlugRunes]
	}
	return string(out)
}

// LawID derives the node id of a law from its boletin.
func LawID(boletin string) string {
	return LawPrefix + Slug(boletin)
}

// SenatorID derives the fallback node id of a senator from a raw name.
func SenatorID(name string) string {
	return SenatorPrefix + Slug(name)
}

// PartyID derives the node id of a party from its name.
func PartyID(name string) string {
	return PartyPrefix + Slug(name)
}

// LobbyistID derives the node id of a lobbyist from its name.
func LobbyistID(name string) string {
	return LobbyistPrefix + Slug(name)
}

// BoletinNumber returns the part of a boletin before the first hyphen, which
// is what the vote endpoint is keyed by ("12345-07" -> "12345").
func BoletinNumber(boletin string) string {
	number, _, _ := strings.Cut(strings.TrimSpace(boletin), "-")
	return number
}
