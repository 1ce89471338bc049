package term

import (
	"testing"

	"github.com/mconlon17/vivo-course-ingest/vocabulary/vivo"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Term
		wantErr bool
	}{
		{"Summer 1997", Term{Summer, 1997}, false},
		{"fall 2013", Term{Fall, 2013}, false},
		{"  Spring 2014  ", Term{Spring, 2014}, false},
		{"Winter 2014", Term{}, true},
		{"Fall", Term{}, true},
		{"Fall 14", Term{}, true},
		{"Fall two thousand", Term{}, true},
		{"", Term{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLabelRoundTrip(t *testing.T) {
	orig := Term{Season: Summer, Year: 1997}
	parsed, err := Parse(orig.Label())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != orig {
		t.Errorf("round trip mismatch: %v != %v", parsed, orig)
	}
}

func TestStatements(t *testing.T) {
	tm := Term{Season: Fall, Year: 2013}
	statements := tm.Statements("http://vivo.ufl.edu/individual/n1")

	if len(statements) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(statements))
	}

	var hasType, hasLabel bool
	for _, st := range statements {
		if st.Predicate == vivo.PredType && st.Object == vivo.ClassAcademicTerm {
			hasType = true
		}
		if st.Predicate == vivo.PredLabel && st.Object == "Fall 2013" {
			hasLabel = true
		}
	}
	if !hasType {
		t.Error("missing AcademicTerm type statement")
	}
	if !hasLabel {
		t.Error("missing label statement")
	}
}
