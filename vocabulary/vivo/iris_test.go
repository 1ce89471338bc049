package vivo

import (
	"strings"
	"testing"
)

func TestMintIRI(t *testing.T) {
	t.Run("minted IRIs live under the individual namespace", func(t *testing.T) {
		iri := MintIRI()
		if !strings.HasPrefix(iri, IndividualNamespace+"n") {
			t.Errorf("unexpected IRI: %s", iri)
		}
	})

	t.Run("minted IRIs are unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			iri := MintIRI()
			if seen[iri] {
				t.Fatalf("duplicate IRI: %s", iri)
			}
			seen[iri] = true
		}
	})
}

func TestPrefixes(t *testing.T) {
	p := Prefixes()
	for _, prefix := range []string{"rdf", "rdfs", "vivo", "ufVivo", "foaf"} {
		if p[prefix] == "" {
			t.Errorf("missing prefix %s", prefix)
		}
	}
	if p["ufVivo"] != UFNamespace {
		t.Errorf("ufVivo prefix mismatch: %s", p["ufVivo"])
	}
}
