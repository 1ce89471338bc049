package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mconlon17/vivo-course-ingest/rdf"
	"github.com/mconlon17/vivo-course-ingest/vocabulary/vivo"
)

// Serialize renders a statement set in the given format. Statements are
// emitted in canonical order so re-serializing the same set is
// byte-stable.
func Serialize(statements []rdf.Statement, format Format) (string, error) {
	ordered := make([]rdf.Statement, len(statements))
	copy(ordered, statements)
	rdf.Sort(ordered)

	switch format {
	case FormatNTriples:
		return toNTriples(ordered), nil
	case FormatTurtle:
		return toTurtle(ordered), nil
	case FormatJSONLD:
		return toJSONLD(ordered)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// Write serializes the statements to w.
func Write(w io.Writer, statements []rdf.Statement, format Format) error {
	out, err := Serialize(statements, format)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func toNTriples(statements []rdf.Statement) string {
	var sb strings.Builder
	for _, st := range statements {
		if st.Literal {
			sb.WriteString(fmt.Sprintf("<%s> <%s> \"%s\" .\n", st.Subject, st.Predicate, escapeLiteral(st.Object)))
		} else {
			sb.WriteString(fmt.Sprintf("<%s> <%s> <%s> .\n", st.Subject, st.Predicate, st.Object))
		}
	}
	return sb.String()
}

func toTurtle(statements []rdf.Statement) string {
	var sb strings.Builder

	prefixes := vivo.Prefixes()
	keys := make([]string, 0, len(prefixes))
	for k := range prefixes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, prefix := range keys {
		sb.WriteString(fmt.Sprintf("@prefix %s: <%s> .\n", prefix, prefixes[prefix]))
	}
	sb.WriteString("\n")

	for _, group := range groupBySubject(statements) {
		sb.WriteString(fmt.Sprintf("<%s>\n", group.subject))
		for i, st := range group.statements {
			terminator := " ;"
			if i == len(group.statements)-1 {
				terminator = " ."
			}
			sb.WriteString(fmt.Sprintf("    <%s> %s%s\n", st.Predicate, formatObject(st), terminator))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func formatObject(st rdf.Statement) string {
	if st.Literal {
		return fmt.Sprintf("\"%s\"", escapeLiteral(st.Object))
	}
	return fmt.Sprintf("<%s>", st.Object)
}

func toJSONLD(statements []rdf.Statement) (string, error) {
	type node = map[string]any

	doc := map[string]any{
		"@context": vivo.Prefixes(),
	}
	graph := make([]node, 0)

	for _, group := range groupBySubject(statements) {
		n := node{"@id": group.subject}
		for _, st := range group.statements {
			if st.Predicate == vivo.PredType && !st.Literal {
				types, _ := n["@type"].([]string)
				n["@type"] = append(types, st.Object)
				continue
			}
			var value any = st.Object
			if !st.Literal {
				value = node{"@id": st.Object}
			}
			switch existing := n[st.Predicate].(type) {
			case nil:
				n[st.Predicate] = value
			case []any:
				n[st.Predicate] = append(existing, value)
			default:
				n[st.Predicate] = []any{existing, value}
			}
		}
		graph = append(graph, n)
	}
	doc["@graph"] = graph

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

type subjectGroup struct {
	subject    string
	statements []rdf.Statement
}

// groupBySubject partitions ordered statements into per-subject blocks,
// preserving canonical order.
func groupBySubject(statements []rdf.Statement) []subjectGroup {
	var groups []subjectGroup
	for _, st := range statements {
		if len(groups) == 0 || groups[len(groups)-1].subject != st.Subject {
			groups = append(groups, subjectGroup{subject: st.Subject})
		}
		groups[len(groups)-1].statements = append(groups[len(groups)-1].statements, st)
	}
	return groups
}

// ParseNTriples reads statements back from N-Triples, the format the
// change-set files are written in. Only the subset this tool emits is
// accepted: IRI subject and predicate, IRI or plain literal object.
func ParseNTriples(r io.Reader) ([]rdf.Statement, error) {
	var statements []rdf.Statement
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		st, err := parseNTriplesLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		statements = append(statements, st)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return statements, nil
}

func parseNTriplesLine(line string) (rdf.Statement, error) {
	rest, ok := strings.CutSuffix(line, ".")
	if !ok {
		return rdf.Statement{}, fmt.Errorf("missing terminating dot")
	}
	rest = strings.TrimSpace(rest)

	subject, rest, err := readIRI(rest)
	if err != nil {
		return rdf.Statement{}, fmt.Errorf("subject: %w", err)
	}
	predicate, rest, err := readIRI(rest)
	if err != nil {
		return rdf.Statement{}, fmt.Errorf("predicate: %w", err)
	}

	rest = strings.TrimSpace(rest)
	switch {
	case strings.HasPrefix(rest, "<"):
		object, tail, err := readIRI(rest)
		if err != nil || strings.TrimSpace(tail) != "" {
			return rdf.Statement{}, fmt.Errorf("object IRI malformed")
		}
		return rdf.Resource(subject, predicate, object), nil

	case strings.HasPrefix(rest, "\""):
		if !strings.HasSuffix(rest, "\"") || len(rest) < 2 {
			return rdf.Statement{}, fmt.Errorf("object literal malformed")
		}
		return rdf.Literal(subject, predicate, unescapeLiteral(rest[1:len(rest)-1])), nil

	default:
		return rdf.Statement{}, fmt.Errorf("unrecognized object: %q", rest)
	}
}

// readIRI consumes a leading <IRI> token and returns it with the
// remaining input.
func readIRI(s string) (string, string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "<") {
		return "", "", fmt.Errorf("expected IRI, got %q", s)
	}
	end := strings.Index(s, ">")
	if end < 0 {
		return "", "", fmt.Errorf("unterminated IRI in %q", s)
	}
	return s[1:end], s[end+1:], nil
}

// escapeLiteral escapes special characters for N-Triples and Turtle
// literals.
func escapeLiteral(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}

func unescapeLiteral(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			sb.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '"':
			sb.WriteByte('"')
		case '\\':
			sb.WriteByte('\\')
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}
