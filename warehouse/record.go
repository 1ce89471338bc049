// Package warehouse extracts person/position/course records from the
// student-records warehouse. Sources produce a lazy, finite sequence of
// normalized records; the warehouse is the authoritative source and the
// semantic store is a derived replica synced from it.
package warehouse

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mconlon17/vivo-course-ingest/term"
)

// Record is one normalized course-position tuple from the warehouse.
type Record struct {
	// UFID is the institutional person identifier, eight digits.
	UFID string
	// Name is the instructor display name. Never used for identity.
	Name string
	// CourseCode identifies the course together with Term.
	CourseCode string
	// CourseName is the course title, optional in the extract.
	CourseName string
	// SectionNumber is the section within the offering, optional.
	SectionNumber string
	// Term is the canonical academic term label, e.g. "Fall 2013".
	Term string
	// Role is the position role, e.g. "Instructor".
	Role string
}

// DefaultRole is assumed when the extract leaves the role column blank.
const DefaultRole = "Instructor"

// PersonKey is the identity key for the person in this record.
func (r Record) PersonKey() string { return r.UFID }

// CourseKey is the identity key for the course in this record.
func (r Record) CourseKey() string {
	return r.CourseCode + "|" + r.Term
}

// PositionKey is the identity key for the position in this record.
// Role is part of the key: records differing only in role are distinct
// positions, not duplicates.
func (r Record) PositionKey() string {
	return strings.Join([]string{r.UFID, r.CourseCode, r.Term, r.Role}, "|")
}

// SectionKey is the identity key for the section in this record. A
// section belongs to the offering, not the position: rows differing
// only in section share a position but name distinct sections.
func (r Record) SectionKey() string {
	return strings.Join([]string{r.CourseCode, r.Term, r.SectionNumber}, "|")
}

// Normalize trims and validates the record fields in place.
func (r *Record) Normalize() error {
	r.UFID = strings.TrimSpace(r.UFID)
	r.Name = strings.TrimSpace(r.Name)
	r.CourseCode = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(r.CourseCode), " ", ""))
	r.CourseName = strings.TrimSpace(r.CourseName)
	r.SectionNumber = strings.TrimSpace(r.SectionNumber)
	r.Role = strings.TrimSpace(r.Role)
	if r.Role == "" {
		r.Role = DefaultRole
	}

	if !validUFID(r.UFID) {
		return fmt.Errorf("invalid ufid %q: want 8 digits", r.UFID)
	}
	if r.CourseCode == "" {
		return fmt.Errorf("missing course code for ufid %s", r.UFID)
	}

	tm, err := term.Parse(r.Term)
	if err != nil {
		return err
	}
	r.Term = tm.Label()
	return nil
}

func validUFID(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Iterator yields records one at a time. Next returns io.EOF after the
// last record. Implementations check ctx between records so an operator
// can abort a long extraction before any write happens.
type Iterator interface {
	Next(ctx context.Context) (Record, error)
	Close() error
}

// Source is a warehouse extract.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string
	// Records opens the extract. The caller owns the iterator.
	Records(ctx context.Context) (Iterator, error)
}

// ReadAll drains a source into memory. Zero records is not an error
// here; the caller decides whether an empty extract is valid.
func ReadAll(ctx context.Context, src Source) ([]Record, error) {
	it, err := src.Records(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var records []Record
	for {
		rec, err := it.Next(ctx)
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

// ExtractionError reports an unreachable or malformed source.
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func extractErr(source string, format string, args ...any) error {
	return &ExtractionError{Source: source, Err: fmt.Errorf(format, args...)}
}
