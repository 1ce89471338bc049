package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mconlon17/vivo-course-ingest/rdf"
	"github.com/mconlon17/vivo-course-ingest/vocabulary/vivo"
)

func sampleStatements() []rdf.Statement {
	return []rdf.Statement{
		rdf.Resource("http://x/p1", vivo.PredType, vivo.ClassPerson),
		rdf.Literal("http://x/p1", vivo.PredLabel, "Smith John"),
		rdf.Literal("http://x/p1", vivo.PredUFID, "12345678"),
	}
}

func TestSerializeNTriples(t *testing.T) {
	out, err := Serialize(sampleStatements(), FormatNTriples)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, out, "<http://x/p1> <"+vivo.PredUFID+"> \"12345678\" .")
	assert.Contains(t, out, "<http://x/p1> <"+vivo.PredType+"> <"+vivo.ClassPerson+"> .")
}

func TestSerializeIsByteStable(t *testing.T) {
	statements := sampleStatements()
	a, err := Serialize(statements, FormatNTriples)
	require.NoError(t, err)

	// Reversed input order, same output.
	reversed := []rdf.Statement{statements[2], statements[1], statements[0]}
	b, err := Serialize(reversed, FormatNTriples)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSerializeTurtle(t *testing.T) {
	out, err := Serialize(sampleStatements(), FormatTurtle)
	require.NoError(t, err)
	assert.Contains(t, out, "@prefix ufVivo: <"+vivo.UFNamespace+"> .")
	assert.Contains(t, out, "<http://x/p1>")
	assert.Contains(t, out, "\"Smith John\"")
}

func TestSerializeJSONLD(t *testing.T) {
	out, err := Serialize(sampleStatements(), FormatJSONLD)
	require.NoError(t, err)
	assert.Contains(t, out, "\"@graph\"")
	assert.Contains(t, out, "\"@id\": \"http://x/p1\"")
	assert.Contains(t, out, "\"@type\"")
}

func TestNTriplesRoundTrip(t *testing.T) {
	statements := []rdf.Statement{
		rdf.Resource("http://x/s", vivo.PredType, vivo.ClassCourse),
		rdf.Literal("http://x/s", vivo.PredLabel, "Line\nbreak and \"quotes\" and \\slash"),
	}

	out, err := Serialize(statements, FormatNTriples)
	require.NoError(t, err)

	parsed, err := ParseNTriples(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, parsed, 2)

	assert.True(t, rdf.NewSet(statements...).Equal(rdf.NewSet(parsed...)))
}

func TestParseNTriplesRejectsMalformed(t *testing.T) {
	bad := []string{
		"<http://x/s> <http://x/p> <http://x/o>",     // no dot
		"<http://x/s> <http://x/p> .",                // no object
		"http://x/s <http://x/p> <http://x/o> .",     // bare subject
		"<http://x/s> <http://x/p> \"unterminated .", // bad literal
	}
	for _, line := range bad {
		_, err := ParseNTriples(strings.NewReader(line))
		assert.Error(t, err, "input: %s", line)
	}
}

func TestParseNTriplesSkipsCommentsAndBlanks(t *testing.T) {
	input := "# change-set additions\n\n<http://x/s> <http://x/p> \"v\" .\n"
	parsed, err := ParseNTriples(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, "v", parsed[0].Object)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"turtle", FormatTurtle, false},
		{"ttl", FormatTurtle, false},
		{"nt", FormatNTriples, false},
		{"N-Triples", FormatNTriples, false},
		{"jsonld", FormatJSONLD, false},
		{"rdfxml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
