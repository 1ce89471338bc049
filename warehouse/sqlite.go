package warehouse

import (
	"context"
	"database/sql"
	"io"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultQuery reads the teaching extract table as landed by the
// warehouse transfer job.
const DefaultQuery = `SELECT ufid, name, course, course_name, section, term, role
FROM teaching
ORDER BY ufid, course, term, role`

// SQLiteSource reads warehouse extracts from a SQLite snapshot of the
// Enterprise Data Warehouse, for sites that land the extract as a
// database rather than flat files.
type SQLiteSource struct {
	path  string
	query string
	term  string
}

// NewSQLiteSource creates a source over the database at path. If query
// is empty DefaultQuery is used. When termLabel is non-empty only rows
// for that term are extracted.
func NewSQLiteSource(path, query, termLabel string) *SQLiteSource {
	if query == "" {
		query = DefaultQuery
	}
	return &SQLiteSource{path: path, query: query, term: termLabel}
}

func (s *SQLiteSource) Name() string {
	return "sqlite:" + s.path
}

func (s *SQLiteSource) Records(ctx context.Context) (Iterator, error) {
	db, err := sql.Open("sqlite3", s.path+"?mode=ro")
	if err != nil {
		return nil, extractErr(s.Name(), "open: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, extractErr(s.Name(), "ping: %v", err)
	}

	rows, err := db.QueryContext(ctx, s.query)
	if err != nil {
		db.Close()
		return nil, extractErr(s.Name(), "query: %v", err)
	}

	return &sqliteIterator{source: s, db: db, rows: rows}, nil
}

type sqliteIterator struct {
	source *SQLiteSource
	db     *sql.DB
	rows   *sql.Rows
}

func (it *sqliteIterator) Next(ctx context.Context) (Record, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Record{}, err
		}

		if !it.rows.Next() {
			if err := it.rows.Err(); err != nil {
				return Record{}, extractErr(it.source.Name(), "scan: %v", err)
			}
			return Record{}, io.EOF
		}

		var rec Record
		var courseName, section, role sql.NullString
		if err := it.rows.Scan(&rec.UFID, &rec.Name, &rec.CourseCode, &courseName, &section, &rec.Term, &role); err != nil {
			return Record{}, extractErr(it.source.Name(), "scan: %v", err)
		}
		rec.CourseName = courseName.String
		rec.SectionNumber = section.String
		rec.Role = role.String

		if err := rec.Normalize(); err != nil {
			return Record{}, extractErr(it.source.Name(), "%v", err)
		}
		if it.source.term != "" && rec.Term != it.source.term {
			continue
		}
		return rec, nil
	}
}

func (it *sqliteIterator) Close() error {
	it.rows.Close()
	return it.db.Close()
}

var _ Source = (*SQLiteSource)(nil)
