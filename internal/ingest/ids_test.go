package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSlug covers the id normalization rules on names seen in the source.
func TestSlug(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Juan Pérez":               "juan_pérez",
		"  Ossandón  Irarrázabal ": "_ossandón_irarrázabal_",
		"12.345-07":                "12345_07",
		"R.N.":                     "rn",
		"a - b":                    "a_b",
		"snake_case name":          "snake_case_name",
		"":                         "",
	}
	for in, want := range cases {
		require.Equal(t, want, Slug(in), "Slug(%q)", in)
	}
}

// TestSlugTruncatesRunes ensures truncation counts runes, not bytes.
func TestSlugTruncatesRunes(t *testing.T) {
	t.Parallel()

	got := Slug(strings.Repeat("ñ", 80))
	require.Equal(t, 50, len([]rune(got)))
}

// TestDerivedIDs checks the per-label prefixes.
func TestDerivedIDs(t *testing.T) {
	t.Parallel()

	require.Equal(t, "law_12345_07", LawID("12345-07"))
	require.Equal(t, "senator_juan_pérez", SenatorID("Juan Pérez"))
	require.Equal(t, "party_udi", PartyID("UDI"))
	require.Equal(t, "lobbyist_acme_sa", LobbyistID("ACME S.A."))
	require.Equal(t, "12345", BoletinNumber(" 12345-07 "))
	require.Equal(t, "999", BoletinNumber("999"))
}

// TestFailureClassification verifies errors.As plumbing on wrapped failures.
func TestFailureClassification(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := &Failure{Kind: FailureTransient, URL: "http://x", Attempts: 3, Cause: cause}
	wrapped := errors.Join(errors.New("day 2024-01-02"), err)

	require.True(t, IsTransient(wrapped))
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, 3, AsFailure(wrapped).Attempts)
	require.Contains(t, err.Error(), "transient failure after 3 attempt(s)")

	plain := AsFailure(errors.New("boom"))
	require.Equal(t, FailurePermanent, plain.Kind)
	require.False(t, IsTransient(errors.New("boom")))

	unitErr := NewUnitError("day", "2024-01-02", err)
	require.Equal(t, FailureTransient, unitErr.Kind)
	require.Equal(t, 3, unitErr.Attempts)
}
