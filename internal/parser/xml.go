package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/JakeFAU/senado-graph-ingest/internal/ingest"
)

// DayResult holds the records found in one day listing.
type DayResult struct {
	Laws        []ingest.Law
	Authorships []ingest.Authorship
	Skipped     int
}

// VotesResult holds the ballots found for one law.
type VotesResult struct {
	Votes   []ingest.VoteRecord
	Skipped int
}

// ParseDay reads a day listing (one <proyecto> per bill). Authors are listed
// in order; the first is the principal author and the rest co-sponsors.
func ParseDay(body []byte) (DayResult, error) {
	doc, err := parseXML(body)
	if err != nil {
		return DayResult{}, err
	}
	var out DayResult
	for _, proj := range xmlquery.Find(doc, "//proyecto") {
		desc := xmlquery.FindOne(proj, "descripcion")
		if desc == nil {
			out.Skipped++
			continue
		}
		boletin := childText(desc, "boletin")
		if boletin == "" {
			out.Skipped++
			continue
		}

		var topics []string
		for _, m := range xmlquery.Find(proj, ".//materias/materia/DESCRIPCION") {
			if text := clean(m.InnerText()); text != "" {
				topics = append(topics, text)
			}
		}
		law := ingest.Law{
			ID:           ingest.LawID(boletin),
			Boletin:      boletin,
			Title:        childText(desc, "titulo"),
			Status:       NormalizeStatus(childText(desc, "estado")),
			DateProposed: NormalizeDate(childText(desc, "fecha_ingreso")),
			Description:  strings.Join(topics, " | "),
		}
		if len(topics) > 0 {
			law.Topic = topics[0]
		}
		out.Laws = append(out.Laws, law)

		position := 0
		for _, autor := range xmlquery.Find(proj, ".//autores/autor") {
			name := childText(autor, "PARLAMENTARIO")
			if name == "" {
				continue
			}
			role := ingest.RoleCoSponsor
			if position == 0 {
				role = ingest.RolePrincipal
			}
			position++
			out.Authorships = append(out.Authorships, ingest.Authorship{
				SenatorName: name,
				LawID:       law.ID,
				Role:        role,
				Date:        law.DateProposed,
			})
		}
	}
	return out, nil
}

// ParseVotes reads the vote listing of the law identified by boletin.
func ParseVotes(body []byte, boletin string) (VotesResult, error) {
	doc, err := parseXML(body)
	if err != nil {
		return VotesResult{}, err
	}
	lawID := ingest.LawID(boletin)
	var out VotesResult
	for _, votacion := range xmlquery.Find(doc, "//votaciones/votacion") {
		session := childText(votacion, "SESION")
		date := NormalizeDate(childText(votacion, "FECHA"))
		topic := childText(votacion, "TEMA")
		for _, voto := range xmlquery.Find(votacion, "DETALLE_VOTACION/VOTO") {
			name := childText(voto, "PARLAMENTARIO")
			if name == "" {
				out.Skipped++
				continue
			}
			out.Votes = append(out.Votes, ingest.VoteRecord{
				SenatorName: name,
				LawID:       lawID,
				Boletin:     boletin,
				Session:     session,
				Date:        date,
				Topic:       topic,
				Choice:      NormalizeVote(childText(voto, "SELECCION")),
			})
		}
	}
	return out, nil
}

func parseXML(body []byte) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &ingest.Failure{Kind: ingest.FailureParse, Attempts: 1, Cause: fmt.Errorf("parse xml: %w", err)}
	}
	return doc, nil
}

func childText(node *xmlquery.Node, name string) string {
	child := xmlquery.FindOne(node, name)
	if child == nil {
		return ""
	}
	return clean(child.InnerText())
}
