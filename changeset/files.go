package changeset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mconlon17/vivo-course-ingest/export"
	"github.com/mconlon17/vivo-course-ingest/rdf"
)

// File pair suffixes, after the long-standing add/sub RDF convention.
const (
	addSuffix = "_add.nt"
	subSuffix = "_sub.nt"
)

// PairPaths returns the addition and retraction file paths for a stem.
func PairPaths(dir, stem string) (addPath, subPath string) {
	return filepath.Join(dir, stem+addSuffix), filepath.Join(dir, stem+subSuffix)
}

// WritePair serializes the change-set as an add/sub N-Triples file pair
// under dir, suitable for direct upload or a later rollback.
func (c *ChangeSet) WritePair(dir, stem string) (addPath, subPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create output dir: %w", err)
	}

	addPath, subPath = PairPaths(dir, stem)
	if err := writeStatementsFile(addPath, c.Additions); err != nil {
		return "", "", err
	}
	if err := writeStatementsFile(subPath, c.Retractions); err != nil {
		return "", "", err
	}
	return addPath, subPath, nil
}

func writeStatementsFile(path string, statements []rdf.Statement) error {
	out, err := export.Serialize(statements, export.FormatNTriples)
	if err != nil {
		return fmt.Errorf("serialize %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// LoadPair reads a previously written add/sub file pair back into a
// change-set, for the undo path.
func LoadPair(dir, stem string) (*ChangeSet, error) {
	addPath, subPath := PairPaths(dir, stem)

	additions, err := readStatementsFile(addPath)
	if err != nil {
		return nil, err
	}
	retractions, err := readStatementsFile(subPath)
	if err != nil {
		return nil, err
	}
	return New(additions, retractions)
}

func readStatementsFile(path string) ([]rdf.Statement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	statements, err := export.ParseNTriples(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return statements, nil
}
