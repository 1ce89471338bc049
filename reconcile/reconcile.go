// Package reconcile compares warehouse records against a store snapshot
// and classifies each record. Identity matching is strictly by key:
// person by UFID, course by (code, term), position by (UFID, code,
// term, role). Names are attributes, never identity, so two people who
// share a name are never merged.
package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mconlon17/vivo-course-ingest/storage"
	"github.com/mconlon17/vivo-course-ingest/warehouse"
)

// Kind classifies one extracted record against the store.
type Kind string

const (
	// KindKnown means the record is fully present; a no-op.
	KindKnown Kind = "known"
	// KindNewPerson means the record's person is not in the store.
	KindNewPerson Kind = "new-person"
	// KindNewCourse means the person is known but the course is not.
	KindNewCourse Kind = "new-course"
	// KindNewPosition means person and course are known but the
	// position is not.
	KindNewPosition Kind = "new-position"
	// KindNewSection means everything but the record's section is
	// known. Sections are keyed by (code, term, section), so rows
	// differing only in section each contribute a section.
	KindNewSection Kind = "new-section"
	// KindConflicting means an identity key matches with differing
	// attributes. Conflicts are reported, never auto-resolved.
	KindConflicting Kind = "conflicting"
)

// Classification is the disposition of one record.
type Classification struct {
	Record warehouse.Record
	Kind   Kind
	Detail string
}

// Conflict describes one identity collision.
type Conflict struct {
	Key    string
	Detail string
}

// Report is the full output of a reconciliation pass. Classifications
// are ordered by record identity key, so two passes over the same
// inputs produce identical reports.
type Report struct {
	Classifications []Classification
	Conflicts       []Conflict
	MissingTerms    []string

	// Deduplicated creation plans consumed by the change-set builder.
	NewPersons   []warehouse.Record
	NewCourses   []warehouse.Record
	NewPositions []warehouse.Record
	NewSections  []warehouse.Record
}

// Count returns the number of records classified as kind.
func (r *Report) Count(kind Kind) int {
	n := 0
	for _, c := range r.Classifications {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// ConflictError is returned when identity keys collide with differing
// attributes. The run stops; disposition is a manual action.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	keys := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		keys = append(keys, c.Key)
	}
	return fmt.Sprintf("reconciliation conflict on %d identity key(s): %s",
		len(e.Conflicts), strings.Join(keys, ", "))
}

// TermError is returned when records reference academic terms absent
// from the store. Terms are created administratively before ingest.
type TermError struct {
	Terms []string
}

func (e *TermError) Error() string {
	return fmt.Sprintf("academic term(s) not in store: %s", strings.Join(e.Terms, ", "))
}

// Classify reconciles records against the snapshot. The returned report
// is always populated; the error is a TermError or ConflictError when
// the run must stop for manual disposition.
func Classify(records []warehouse.Record, g *storage.Graph) (*Report, error) {
	sorted := make([]warehouse.Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		if a, b := sorted[i].PositionKey(), sorted[j].PositionKey(); a != b {
			return a < b
		}
		return sorted[i].SectionKey() < sorted[j].SectionKey()
	})

	report := &Report{}

	missingTerms := findMissingTerms(sorted, g)
	conflictByPerson, conflictByCourse := findConflicts(sorted, g, report)

	seenPersons := make(map[string]bool)
	seenCourses := make(map[string]bool)
	seenPositions := make(map[string]bool)
	seenSections := make(map[string]bool)

	for _, rec := range sorted {
		c := Classification{Record: rec}

		switch {
		case conflictByPerson[rec.UFID] != "" || conflictByCourse[rec.CourseKey()] != "":
			c.Kind = KindConflicting
			c.Detail = firstNonEmpty(conflictByPerson[rec.UFID], conflictByCourse[rec.CourseKey()])

		default:
			_, personKnown := g.PersonByUFID(rec.UFID)
			_, courseKnown := g.CourseByKey(rec.CourseCode, rec.Term)
			positionKnown := g.HasPosition(rec.UFID, rec.CourseCode, rec.Term, rec.Role)
			sectionKnown := rec.SectionNumber == "" ||
				g.HasSection(rec.CourseCode, rec.Term, rec.SectionNumber)

			switch {
			case !personKnown:
				c.Kind = KindNewPerson
			case !courseKnown:
				c.Kind = KindNewCourse
			case !positionKnown:
				c.Kind = KindNewPosition
			case !sectionKnown:
				c.Kind = KindNewSection
			default:
				c.Kind = KindKnown
			}

			if c.Kind != KindKnown {
				if !personKnown && !seenPersons[rec.UFID] {
					seenPersons[rec.UFID] = true
					report.NewPersons = append(report.NewPersons, rec)
				}
				if !courseKnown && !seenCourses[rec.CourseKey()] {
					seenCourses[rec.CourseKey()] = true
					report.NewCourses = append(report.NewCourses, rec)
				}
				if !positionKnown && !seenPositions[rec.PositionKey()] {
					seenPositions[rec.PositionKey()] = true
					report.NewPositions = append(report.NewPositions, rec)
				}
				if !sectionKnown && !seenSections[rec.SectionKey()] {
					seenSections[rec.SectionKey()] = true
					report.NewSections = append(report.NewSections, rec)
				}
			}
		}

		report.Classifications = append(report.Classifications, c)
	}

	report.MissingTerms = missingTerms

	if len(missingTerms) > 0 {
		return report, &TermError{Terms: missingTerms}
	}
	if len(report.Conflicts) > 0 {
		return report, &ConflictError{Conflicts: report.Conflicts}
	}
	return report, nil
}

func findMissingTerms(records []warehouse.Record, g *storage.Graph) []string {
	missing := make(map[string]bool)
	for _, rec := range records {
		if _, ok := g.TermByLabel(rec.Term); !ok {
			missing[rec.Term] = true
		}
	}
	out := make([]string, 0, len(missing))
	for label := range missing {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// findConflicts detects identity keys whose attributes disagree, either
// within the extract or between the extract and the store. It fills
// report.Conflicts and returns per-key details.
func findConflicts(records []warehouse.Record, g *storage.Graph, report *Report) (map[string]string, map[string]string) {
	personNames := make(map[string]string)
	courseNames := make(map[string]string)
	conflictByPerson := make(map[string]string)
	conflictByCourse := make(map[string]string)

	// byKey is indexed by the bare identity key so Classify can look
	// records up; the reported Conflict carries a prefixed display key.
	addConflict := func(byKey map[string]string, key, display, detail string) {
		if byKey[key] != "" {
			return
		}
		byKey[key] = detail
		report.Conflicts = append(report.Conflicts, Conflict{Key: display, Detail: detail})
	}

	for _, rec := range records {
		if rec.Name != "" {
			if prev, ok := personNames[rec.UFID]; ok && prev != rec.Name {
				addConflict(conflictByPerson, rec.UFID, "ufid "+rec.UFID,
					fmt.Sprintf("extract names disagree: %q vs %q", prev, rec.Name))
			} else if !ok {
				personNames[rec.UFID] = rec.Name
			}

			if iri, ok := g.PersonByUFID(rec.UFID); ok {
				if stored := g.PersonLabel(iri); stored != "" && stored != rec.Name {
					addConflict(conflictByPerson, rec.UFID, "ufid "+rec.UFID,
						fmt.Sprintf("store name %q differs from extract %q", stored, rec.Name))
				}
			}
		}

		if rec.CourseName != "" {
			key := rec.CourseKey()
			if prev, ok := courseNames[key]; ok && prev != rec.CourseName {
				addConflict(conflictByCourse, key, "course "+key,
					fmt.Sprintf("extract titles disagree: %q vs %q", prev, rec.CourseName))
			} else if !ok {
				courseNames[key] = rec.CourseName
			}

			if iri, ok := g.CourseByKey(rec.CourseCode, rec.Term); ok {
				if stored := g.CourseLabel(iri); stored != "" && stored != rec.CourseName {
					addConflict(conflictByCourse, key, "course "+key,
						fmt.Sprintf("store title %q differs from extract %q", stored, rec.CourseName))
				}
			}
		}
	}

	sort.Slice(report.Conflicts, func(i, j int) bool {
		return report.Conflicts[i].Key < report.Conflicts[j].Key
	})
	return conflictByPerson, conflictByCourse
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
