// Package rdf defines the statement model shared by the ingest pipeline.
// The semantic store is treated as an opaque set of statements; everything
// the pipeline produces or compares is expressed in these terms.
package rdf

import (
	"fmt"
	"sort"
	"strings"
)

// Statement is a single triple. Object is either an IRI reference or a
// plain literal, distinguished by Literal.
type Statement struct {
	Subject   string `json:"s"`
	Predicate string `json:"p"`
	Object    string `json:"o"`
	Literal   bool   `json:"lit,omitempty"`
}

// Key returns the canonical identity of the statement. Two statements are
// the same statement iff their keys are equal.
func (s Statement) Key() string {
	kind := "iri"
	if s.Literal {
		kind = "lit"
	}
	return strings.Join([]string{s.Subject, s.Predicate, s.Object, kind}, "\x1f")
}

func (s Statement) String() string {
	if s.Literal {
		return fmt.Sprintf("<%s> <%s> %q .", s.Subject, s.Predicate, s.Object)
	}
	return fmt.Sprintf("<%s> <%s> <%s> .", s.Subject, s.Predicate, s.Object)
}

// Less orders statements by subject, predicate, object. Sorting with Less
// makes statement sets compare and serialize reproducibly.
func (s Statement) Less(other Statement) bool {
	if s.Subject != other.Subject {
		return s.Subject < other.Subject
	}
	if s.Predicate != other.Predicate {
		return s.Predicate < other.Predicate
	}
	if s.Object != other.Object {
		return s.Object < other.Object
	}
	return !s.Literal && other.Literal
}

// Resource constructs a statement whose object is an IRI reference.
func Resource(subject, predicate, object string) Statement {
	return Statement{Subject: subject, Predicate: predicate, Object: object}
}

// Literal constructs a statement whose object is a plain literal.
func Literal(subject, predicate, value string) Statement {
	return Statement{Subject: subject, Predicate: predicate, Object: value, Literal: true}
}

// Sort orders a statement slice in place into canonical order.
func Sort(statements []Statement) {
	sort.Slice(statements, func(i, j int) bool {
		return statements[i].Less(statements[j])
	})
}

// Set is an unordered collection of distinct statements.
type Set struct {
	members map[string]Statement
}

// NewSet creates a set containing the given statements. Duplicates collapse.
func NewSet(statements ...Statement) *Set {
	s := &Set{members: make(map[string]Statement, len(statements))}
	for _, st := range statements {
		s.Add(st)
	}
	return s
}

// Add inserts a statement. Adding an existing statement is a no-op.
func (s *Set) Add(st Statement) {
	s.members[st.Key()] = st
}

// Remove deletes a statement if present and reports whether it was there.
func (s *Set) Remove(st Statement) bool {
	key := st.Key()
	if _, ok := s.members[key]; !ok {
		return false
	}
	delete(s.members, key)
	return true
}

// Contains reports whether the statement is in the set.
func (s *Set) Contains(st Statement) bool {
	_, ok := s.members[st.Key()]
	return ok
}

// Len returns the number of distinct statements.
func (s *Set) Len() int {
	return len(s.members)
}

// Statements returns the members in canonical order.
func (s *Set) Statements() []Statement {
	out := make([]Statement, 0, len(s.members))
	for _, st := range s.members {
		out = append(out, st)
	}
	Sort(out)
	return out
}

// Clone returns an independent copy of the set.
func (s *Set) Clone() *Set {
	out := &Set{members: make(map[string]Statement, len(s.members))}
	for k, v := range s.members {
		out.members[k] = v
	}
	return out
}

// Difference returns the statements in s that are not in other.
func (s *Set) Difference(other *Set) []Statement {
	out := make([]Statement, 0)
	for k, st := range s.members {
		if _, ok := other.members[k]; !ok {
			out = append(out, st)
		}
	}
	Sort(out)
	return out
}

// Equal reports whether both sets hold exactly the same statements.
func (s *Set) Equal(other *Set) bool {
	if len(s.members) != len(other.members) {
		return false
	}
	for k := range s.members {
		if _, ok := other.members[k]; !ok {
			return false
		}
	}
	return true
}
