// Package vivo defines the ontology terms used by the course ingest.
// The class and property IRIs match the RDF the legacy Python harvest
// scripts produced: VIVO core plus the local vivo-ufl extension.
package vivo

import "github.com/google/uuid"

// Namespace prefixes for the ontologies the ingest writes against.
const (
	// RDFNamespace is the RDF syntax namespace.
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

	// RDFSNamespace is the RDF Schema namespace.
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"

	// OWLNamespace is the Web Ontology Language namespace.
	OWLNamespace = "http://www.w3.org/2002/07/owl#"

	// FOAFNamespace is the Friend-of-a-Friend namespace.
	FOAFNamespace = "http://xmlns.com/foaf/0.1/"

	// CoreNamespace is the VIVO core ontology namespace.
	CoreNamespace = "http://vivoweb.org/ontology/core#"

	// UFNamespace is the local vivo-ufl extension ontology namespace.
	UFNamespace = "http://vivo.ufl.edu/ontology/vivo-ufl/"

	// IndividualNamespace is the base IRI under which instance
	// resources are minted.
	IndividualNamespace = "http://vivo.ufl.edu/individual/"
)

// Class IRIs for the entities the ingest creates.
const (
	// ClassThing is owl:Thing; every harvested individual is typed
	// with it, matching the legacy harvest RDF.
	ClassThing = OWLNamespace + "Thing"

	// ClassPerson is foaf:Person, the type of an instructor.
	ClassPerson = FOAFNamespace + "Person"

	// ClassAcademicTerm is a semester period. Term individuals are
	// created administratively and are immutable once referenced.
	ClassAcademicTerm = CoreNamespace + "AcademicTerm"

	// ClassCourse is the local course class.
	ClassCourse = UFNamespace + "Course"

	// ClassCourseSection is one offering of a course in a term.
	ClassCourseSection = UFNamespace + "CourseSection"

	// ClassUFEntity marks individuals harvested from UF systems,
	// distinguishing them from externally asserted ones.
	ClassUFEntity = UFNamespace + "UFEntity"

	// ClassTeacherRole links an instructor to a course or section.
	ClassTeacherRole = CoreNamespace + "TeacherRole"
)

// Property IRIs.
const (
	// PredType is rdf:type.
	PredType = RDFNamespace + "type"

	// PredLabel is rdfs:label.
	PredLabel = RDFSNamespace + "label"

	// PredUFID is the institutional person identifier. Identity
	// matching for people is by this predicate, never by label.
	PredUFID = UFNamespace + "ufid"

	// PredCourseNum is the course code, e.g. "ABE2062".
	PredCourseNum = UFNamespace + "courseNum"

	// PredSectionNum is the section number within a course offering.
	PredSectionNum = UFNamespace + "sectionNum"

	// PredSectionForCourse links a section to its course.
	PredSectionForCourse = UFNamespace + "sectionForCourse"

	// PredDateTimeInterval links a course or section to its academic
	// term.
	PredDateTimeInterval = CoreNamespace + "dateTimeInterval"

	// PredTeacherRoleOf links a teacher role to the instructor.
	PredTeacherRoleOf = CoreNamespace + "teacherRoleOf"

	// PredRoleRealizedIn links a teacher role to the course or
	// section it is realized in.
	PredRoleRealizedIn = CoreNamespace + "roleRealizedIn"

	// PredHarvestedBy records the harvester that asserted a resource.
	PredHarvestedBy = UFNamespace + "harvestedBy"

	// PredDateHarvested records when a resource was asserted.
	PredDateHarvested = UFNamespace + "dateHarvested"
)

// Prefixes returns the prefix table used when serializing for review.
func Prefixes() map[string]string {
	return map[string]string{
		"rdf":    RDFNamespace,
		"rdfs":   RDFSNamespace,
		"owl":    OWLNamespace,
		"foaf":   FOAFNamespace,
		"vivo":   CoreNamespace,
		"ufVivo": UFNamespace,
	}
}

// MintIRI returns a fresh instance IRI under the individual namespace.
// The legacy scripts drew random integers and re-rolled on collision;
// UUIDs make minted IRIs collision-free without a store round trip.
func MintIRI() string {
	return IndividualNamespace + "n" + uuid.New().String()
}

// Minter returns a mint function for a site-specific namespace.
func Minter(namespace string) func() string {
	if namespace == "" {
		return MintIRI
	}
	return func() string {
		return namespace + "n" + uuid.New().String()
	}
}
