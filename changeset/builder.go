package changeset

import (
	"fmt"
	"time"

	"github.com/mconlon17/vivo-course-ingest/rdf"
	"github.com/mconlon17/vivo-course-ingest/reconcile"
	"github.com/mconlon17/vivo-course-ingest/storage"
	"github.com/mconlon17/vivo-course-ingest/vocabulary/vivo"
	"github.com/mconlon17/vivo-course-ingest/warehouse"
)

// Options configure change-set construction.
type Options struct {
	// HarvestedBy is recorded on every created individual.
	HarvestedBy string
	// HarvestTime is stamped once per run so a change-set is
	// byte-stable within the run.
	HarvestTime time.Time
	// MintIRI overrides IRI minting, for deterministic tests.
	MintIRI func() string
}

func (o Options) mint() string {
	if o.MintIRI != nil {
		return o.MintIRI()
	}
	return vivo.MintIRI()
}

// Build turns a reconciliation report into the addition statements for
// the run. Retractions are always empty in the append-only ingest; the
// structure exists so a previously applied addition set can later be
// applied inverted to back an update out.
//
// New persons, courses and positions are minted in report order (which
// is deterministic); positions reference course IRIs minted in the same
// change-set when the course is itself new.
func Build(report *reconcile.Report, g *storage.Graph, opts Options) (*ChangeSet, error) {
	if len(report.Conflicts) > 0 {
		return nil, fmt.Errorf("cannot build change-set from a conflicted report")
	}
	if opts.HarvestTime.IsZero() {
		opts.HarvestTime = time.Now()
	}

	var additions []rdf.Statement
	harvested := func(iri string) []rdf.Statement {
		if opts.HarvestedBy == "" {
			return nil
		}
		return []rdf.Statement{
			rdf.Literal(iri, vivo.PredHarvestedBy, opts.HarvestedBy),
			rdf.Literal(iri, vivo.PredDateHarvested, opts.HarvestTime.UTC().Format(time.RFC3339)),
		}
	}

	personIRIs := make(map[string]string)
	for _, rec := range report.NewPersons {
		iri := opts.mint()
		personIRIs[rec.UFID] = iri
		additions = append(additions,
			rdf.Resource(iri, vivo.PredType, vivo.ClassThing),
			rdf.Resource(iri, vivo.PredType, vivo.ClassPerson),
			rdf.Resource(iri, vivo.PredType, vivo.ClassUFEntity),
			rdf.Literal(iri, vivo.PredUFID, rec.UFID),
		)
		if rec.Name != "" {
			additions = append(additions, rdf.Literal(iri, vivo.PredLabel, rec.Name))
		}
		additions = append(additions, harvested(iri)...)
	}

	courseIRIs := make(map[string]string)
	for _, rec := range report.NewCourses {
		termIRI, ok := g.TermByLabel(rec.Term)
		if !ok {
			return nil, fmt.Errorf("term %q not in store", rec.Term)
		}

		iri := opts.mint()
		courseIRIs[rec.CourseKey()] = iri
		additions = append(additions,
			rdf.Resource(iri, vivo.PredType, vivo.ClassThing),
			rdf.Resource(iri, vivo.PredType, vivo.ClassCourse),
			rdf.Resource(iri, vivo.PredType, vivo.ClassUFEntity),
			rdf.Literal(iri, vivo.PredCourseNum, rec.CourseCode),
			rdf.Resource(iri, vivo.PredDateTimeInterval, termIRI),
		)
		if rec.CourseName != "" {
			additions = append(additions, rdf.Literal(iri, vivo.PredLabel, rec.CourseName))
		}
		additions = append(additions, harvested(iri)...)
	}

	resolvePerson := func(rec warehouse.Record) (string, error) {
		if iri, ok := personIRIs[rec.UFID]; ok {
			return iri, nil
		}
		if iri, ok := g.PersonByUFID(rec.UFID); ok {
			return iri, nil
		}
		return "", fmt.Errorf("person %s neither in store nor in change-set", rec.UFID)
	}
	resolveCourse := func(rec warehouse.Record) (string, error) {
		if iri, ok := courseIRIs[rec.CourseKey()]; ok {
			return iri, nil
		}
		if iri, ok := g.CourseByKey(rec.CourseCode, rec.Term); ok {
			return iri, nil
		}
		return "", fmt.Errorf("course %s neither in store nor in change-set", rec.CourseKey())
	}

	for _, rec := range report.NewPositions {
		personIRI, err := resolvePerson(rec)
		if err != nil {
			return nil, err
		}
		courseIRI, err := resolveCourse(rec)
		if err != nil {
			return nil, err
		}

		roleIRI := opts.mint()
		additions = append(additions,
			rdf.Resource(roleIRI, vivo.PredType, vivo.ClassThing),
			rdf.Resource(roleIRI, vivo.PredType, vivo.ClassTeacherRole),
			rdf.Literal(roleIRI, vivo.PredLabel, rec.Role),
			rdf.Resource(roleIRI, vivo.PredTeacherRoleOf, personIRI),
			rdf.Resource(roleIRI, vivo.PredRoleRealizedIn, courseIRI),
		)
		additions = append(additions, harvested(roleIRI)...)
	}

	// Sections are their own plan, keyed by (code, term, section):
	// rows sharing a position but naming different sections each get a
	// section individual. Sections hang off the course and term and
	// take no part in identity matching.
	for _, rec := range report.NewSections {
		courseIRI, err := resolveCourse(rec)
		if err != nil {
			return nil, err
		}
		termIRI, ok := g.TermByLabel(rec.Term)
		if !ok {
			return nil, fmt.Errorf("term %q not in store", rec.Term)
		}

		sectionIRI := opts.mint()
		additions = append(additions,
			rdf.Resource(sectionIRI, vivo.PredType, vivo.ClassThing),
			rdf.Resource(sectionIRI, vivo.PredType, vivo.ClassCourseSection),
			rdf.Resource(sectionIRI, vivo.PredType, vivo.ClassUFEntity),
			rdf.Literal(sectionIRI, vivo.PredLabel, rec.CourseCode+" "+rec.SectionNumber),
			rdf.Literal(sectionIRI, vivo.PredSectionNum, rec.SectionNumber),
			rdf.Resource(sectionIRI, vivo.PredSectionForCourse, courseIRI),
			rdf.Resource(sectionIRI, vivo.PredDateTimeInterval, termIRI),
		)
		additions = append(additions, harvested(sectionIRI)...)
	}

	return New(additions, nil)
}
