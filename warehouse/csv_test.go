package warehouse

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExtract(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVSourceReadsHeaderFile(t *testing.T) {
	dir := t.TempDir()
	writeExtract(t, dir, "extract.csv",
		"ufid,name,course,course_name,section,term,role\n"+
			"12345678,Smith John,ABE2062,Biology and Society,1234,Fall 2013,Instructor\n"+
			"87654321,Jones Mary,abe 2062,Biology and Society,5678,Fall 2013,\n")

	src := NewCSVSource([]string{filepath.Join(dir, "*.csv")}, nil)
	records, err := ReadAll(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "12345678", records[0].UFID)
	assert.Equal(t, "ABE2062", records[0].CourseCode)
	assert.Equal(t, "Fall 2013", records[0].Term)

	// Blank role defaults, course code is normalized.
	assert.Equal(t, DefaultRole, records[1].Role)
	assert.Equal(t, "ABE2062", records[1].CourseCode)
}

func TestCSVSourceConcatenatesFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeExtract(t, dir, "b.csv",
		"ufid,name,course,term,role\n22222222,B,PHY1001,Fall 2013,Instructor\n")
	writeExtract(t, dir, "a.csv",
		"ufid,name,course,term,role\n11111111,A,CHM1001,Fall 2013,Instructor\n")

	src := NewCSVSource([]string{filepath.Join(dir, "*.csv")}, nil)
	records, err := ReadAll(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Sorted file order: a.csv before b.csv.
	assert.Equal(t, "11111111", records[0].UFID)
	assert.Equal(t, "22222222", records[1].UFID)
}

func TestCSVSourceErrors(t *testing.T) {
	t.Run("no matching files", func(t *testing.T) {
		src := NewCSVSource([]string{filepath.Join(t.TempDir(), "*.csv")}, nil)
		_, err := src.Records(context.Background())
		var extractionErr *ExtractionError
		require.ErrorAs(t, err, &extractionErr)
	})

	t.Run("missing required column", func(t *testing.T) {
		dir := t.TempDir()
		writeExtract(t, dir, "bad.csv", "ufid,name,course,role\n12345678,X,ABC1234,Instructor\n")

		src := NewCSVSource([]string{filepath.Join(dir, "*.csv")}, nil)
		_, err := ReadAll(context.Background(), src)
		var extractionErr *ExtractionError
		require.ErrorAs(t, err, &extractionErr)
		assert.Contains(t, err.Error(), "term")
	})

	t.Run("malformed ufid", func(t *testing.T) {
		dir := t.TempDir()
		writeExtract(t, dir, "bad.csv",
			"ufid,name,course,term,role\n12AB5678,X,ABC1234,Fall 2013,Instructor\n")

		src := NewCSVSource([]string{filepath.Join(dir, "*.csv")}, nil)
		_, err := ReadAll(context.Background(), src)
		var extractionErr *ExtractionError
		require.ErrorAs(t, err, &extractionErr)
	})

	t.Run("malformed term", func(t *testing.T) {
		dir := t.TempDir()
		writeExtract(t, dir, "bad.csv",
			"ufid,name,course,term,role\n12345678,X,ABC1234,Winter 2013,Instructor\n")

		src := NewCSVSource([]string{filepath.Join(dir, "*.csv")}, nil)
		_, err := ReadAll(context.Background(), src)
		require.Error(t, err)
	})
}

func TestCSVSourceCancellation(t *testing.T) {
	dir := t.TempDir()
	writeExtract(t, dir, "extract.csv",
		"ufid,name,course,term,role\n12345678,X,ABC1234,Fall 2013,Instructor\n")

	ctx, cancel := context.WithCancel(context.Background())
	src := NewCSVSource([]string{filepath.Join(dir, "*.csv")}, nil)
	it, err := src.Records(ctx)
	require.NoError(t, err)
	defer it.Close()

	cancel()
	_, err = it.Next(ctx)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestRecordKeys(t *testing.T) {
	a := Record{UFID: "12345678", CourseCode: "ABC1234", Term: "Fall 2013", Role: "Instructor"}
	b := a
	b.Role = "Coordinator"

	assert.Equal(t, a.CourseKey(), b.CourseKey(), "course identity ignores role")
	assert.NotEqual(t, a.PositionKey(), b.PositionKey(), "position identity includes role")
}
