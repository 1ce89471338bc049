package storage

import (
	"sort"

	"github.com/mconlon17/vivo-course-ingest/rdf"
	"github.com/mconlon17/vivo-course-ingest/vocabulary/vivo"
)

// Graph is an immutable snapshot of the store with the identity indexes
// the reconciler matches against: persons by UFID, courses by
// (code, term), positions by full key, terms by label. Matching is by
// these keys only, never by name.
type Graph struct {
	set      *rdf.Set
	revision uint64

	personByUFID map[string]string // ufid -> person IRI
	personLabel  map[string]string // person IRI -> rdfs:label
	termByLabel  map[string]string // term label -> term IRI
	courseByKey  map[string]string // code|term -> course IRI
	courseLabel  map[string]string // course IRI -> rdfs:label
	positions    map[string]bool   // ufid|code|term|role
	sections     map[string]bool   // code|term|section
}

// NewGraph indexes the given statements as a snapshot at revision.
func NewGraph(statements []rdf.Statement, revision uint64) *Graph {
	g := &Graph{
		set:          rdf.NewSet(statements...),
		revision:     revision,
		personByUFID: make(map[string]string),
		personLabel:  make(map[string]string),
		termByLabel:  make(map[string]string),
		courseByKey:  make(map[string]string),
		courseLabel:  make(map[string]string),
		positions:    make(map[string]bool),
		sections:     make(map[string]bool),
	}
	g.index()
	return g
}

func (g *Graph) index() {
	// Indexed by subject: type IRIs, literal values by predicate, and
	// object IRIs by predicate.
	types := make(map[string]map[string]bool)
	literals := make(map[string]map[string]string)
	resources := make(map[string]map[string]string)

	for _, st := range g.set.Statements() {
		switch {
		case st.Predicate == vivo.PredType:
			if types[st.Subject] == nil {
				types[st.Subject] = make(map[string]bool)
			}
			types[st.Subject][st.Object] = true
		case st.Literal:
			if literals[st.Subject] == nil {
				literals[st.Subject] = make(map[string]string)
			}
			literals[st.Subject][st.Predicate] = st.Object
		default:
			if resources[st.Subject] == nil {
				resources[st.Subject] = make(map[string]string)
			}
			resources[st.Subject][st.Predicate] = st.Object
		}
	}

	termLabelOf := func(termIRI string) string {
		return literals[termIRI][vivo.PredLabel]
	}

	for subject, subjectTypes := range types {
		switch {
		case subjectTypes[vivo.ClassPerson]:
			if ufid := literals[subject][vivo.PredUFID]; ufid != "" {
				g.personByUFID[ufid] = subject
				g.personLabel[subject] = literals[subject][vivo.PredLabel]
			}
		case subjectTypes[vivo.ClassAcademicTerm]:
			if label := literals[subject][vivo.PredLabel]; label != "" {
				g.termByLabel[label] = subject
			}
		case subjectTypes[vivo.ClassCourse]:
			code := literals[subject][vivo.PredCourseNum]
			termLabel := termLabelOf(resources[subject][vivo.PredDateTimeInterval])
			if code != "" && termLabel != "" {
				g.courseByKey[code+"|"+termLabel] = subject
				g.courseLabel[subject] = literals[subject][vivo.PredLabel]
			}
		}
	}

	// Positions and sections need the course index, so resolve them
	// second.
	courseKeyOf := make(map[string]string, len(g.courseByKey))
	for key, iri := range g.courseByKey {
		courseKeyOf[iri] = key
	}
	ufidOf := make(map[string]string, len(g.personByUFID))
	for ufid, iri := range g.personByUFID {
		ufidOf[iri] = ufid
	}

	for subject, subjectTypes := range types {
		switch {
		case subjectTypes[vivo.ClassTeacherRole]:
			personIRI := resources[subject][vivo.PredTeacherRoleOf]
			courseIRI := resources[subject][vivo.PredRoleRealizedIn]
			role := literals[subject][vivo.PredLabel]
			ufid := ufidOf[personIRI]
			courseKey := courseKeyOf[courseIRI]
			if ufid != "" && courseKey != "" && role != "" {
				g.positions[ufid+"|"+courseKey+"|"+role] = true
			}

		case subjectTypes[vivo.ClassCourseSection]:
			number := literals[subject][vivo.PredSectionNum]
			courseKey := courseKeyOf[resources[subject][vivo.PredSectionForCourse]]
			if number != "" && courseKey != "" {
				g.sections[courseKey+"|"+number] = true
			}
		}
	}
}

// Revision is the store revision token the snapshot was taken at.
func (g *Graph) Revision() uint64 { return g.revision }

// Len returns the number of statements in the snapshot.
func (g *Graph) Len() int { return g.set.Len() }

// Contains reports whether the snapshot holds the statement.
func (g *Graph) Contains(st rdf.Statement) bool { return g.set.Contains(st) }

// Statements returns the snapshot's statements in canonical order.
func (g *Graph) Statements() []rdf.Statement { return g.set.Statements() }

// Set exposes the underlying statement set (shared, do not mutate).
func (g *Graph) Set() *rdf.Set { return g.set }

// PersonByUFID resolves a person IRI by institutional identifier.
func (g *Graph) PersonByUFID(ufid string) (string, bool) {
	iri, ok := g.personByUFID[ufid]
	return iri, ok
}

// PersonLabel returns the stored display name for a person IRI.
func (g *Graph) PersonLabel(iri string) string { return g.personLabel[iri] }

// TermByLabel resolves an academic term IRI by canonical label.
func (g *Graph) TermByLabel(label string) (string, bool) {
	iri, ok := g.termByLabel[label]
	return iri, ok
}

// TermLabels returns the known term labels, sorted.
func (g *Graph) TermLabels() []string {
	labels := make([]string, 0, len(g.termByLabel))
	for label := range g.termByLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// CourseByKey resolves a course IRI by (code, term label).
func (g *Graph) CourseByKey(code, termLabel string) (string, bool) {
	iri, ok := g.courseByKey[code+"|"+termLabel]
	return iri, ok
}

// CourseLabel returns the stored title for a course IRI.
func (g *Graph) CourseLabel(iri string) string { return g.courseLabel[iri] }

// HasPosition reports whether a position with this full identity key is
// already in the store.
func (g *Graph) HasPosition(ufid, code, termLabel, role string) bool {
	return g.positions[ufid+"|"+code+"|"+termLabel+"|"+role]
}

// HasSection reports whether a section of the (code, term) offering with
// this number is already in the store.
func (g *Graph) HasSection(code, termLabel, number string) bool {
	return g.sections[code+"|"+termLabel+"|"+number]
}
