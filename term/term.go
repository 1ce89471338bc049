// Package term models academic terms. Terms are created administratively
// and must exist in the store before any course referencing them is
// ingested; a missing term stops a run before anything is written.
package term

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mconlon17/vivo-course-ingest/rdf"
	"github.com/mconlon17/vivo-course-ingest/vocabulary/vivo"
)

// Season is the season part of a term name.
type Season string

const (
	Spring Season = "Spring"
	Summer Season = "Summer"
	Fall   Season = "Fall"
)

// Term is one academic period, e.g. Summer 1997.
type Term struct {
	Season Season
	Year   int
}

// Parse reads a term label of the form "Season YYYY".
func Parse(label string) (Term, error) {
	fields := strings.Fields(strings.TrimSpace(label))
	if len(fields) != 2 {
		return Term{}, fmt.Errorf("invalid term %q: want \"Season YYYY\"", label)
	}

	var season Season
	switch strings.ToLower(fields[0]) {
	case "spring":
		season = Spring
	case "summer":
		season = Summer
	case "fall":
		season = Fall
	default:
		return Term{}, fmt.Errorf("invalid term %q: unknown season %q", label, fields[0])
	}

	year, err := strconv.Atoi(fields[1])
	if err != nil || len(fields[1]) != 4 {
		return Term{}, fmt.Errorf("invalid term %q: year must be 4 digits", label)
	}

	return Term{Season: season, Year: year}, nil
}

// Label returns the canonical store label, e.g. "Fall 2013".
func (t Term) Label() string {
	return fmt.Sprintf("%s %d", t.Season, t.Year)
}

func (t Term) String() string { return t.Label() }

// Statements returns the statements that create the term individual at
// the given IRI. Used by the administrative terms command; the ingest
// itself never creates terms.
func (t Term) Statements(iri string) []rdf.Statement {
	return []rdf.Statement{
		rdf.Resource(iri, vivo.PredType, vivo.ClassThing),
		rdf.Resource(iri, vivo.PredType, vivo.ClassAcademicTerm),
		rdf.Literal(iri, vivo.PredLabel, t.Label()),
	}
}
