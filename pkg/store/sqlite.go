package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

const driverName = "sqlite"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-based store.
// Use ":memory:" for in-memory database (useful for testing).
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// openDB opens a database with a single connection, so that ":memory:"
// databases are shared by every statement and writers never contend.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// AddSource stores a source record.
func (s *SQLiteStore) AddSource(src *Source) error {
	_, err := s.db.Exec("INSERT OR IGNORE INTO sources (id, path, format, size) VALUES (?, ?, ?, ?)",
		src.ID.Hex(), src.Path, src.Format.String(), src.Size)
	if err != nil {
		return fmt.Errorf("inserting source: %w", err)
	}
	return nil
}

// AddProvenance associates provenance with a source.
func (s *SQLiteStore) AddProvenance(id types.SourceID, prov types.Provenance) error {
	switch prov.(type) {
	case types.FileProvenance, types.CopybookProvenance:
	default:
		return fmt.Errorf("unknown provenance type: %T", prov)
	}

	_, err := s.db.Exec("INSERT OR IGNORE INTO provenance (source_id, type, path) VALUES (?, ?, ?)",
		id.Hex(), prov.Kind(), prov.Path())
	if err != nil {
		return fmt.Errorf("inserting provenance: %w", err)
	}
	return nil
}

// AddTokens replaces the token stream of a source in one transaction.
func (s *SQLiteStore) AddTokens(id types.SourceID, tokens []types.Token) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM tokens WHERE source_id = ?", id.Hex()); err != nil {
		return fmt.Errorf("deleting tokens: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO tokens
		(source_id, seq, text, tags, resource,
		 start_offset, start_line, start_column, end_offset, end_line, end_column,
		 ranges_json, replaced_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing token insert: %w", err)
	}
	defer stmt.Close()

	for seq, tok := range tokens {
		rangesJSON, err := encodeRanges(tok.Ranges)
		if err != nil {
			return fmt.Errorf("marshaling ranges: %w", err)
		}
		replacedJSON, err := encodeReplaced(tok.ReplacedBy)
		if err != nil {
			return fmt.Errorf("marshaling replacement: %w", err)
		}
		_, err = stmt.Exec(id.Hex(), seq, tok.Text, tok.Tags.String(), tok.Start.Resource,
			tok.Start.Offset, tok.Start.Line, tok.Start.Column,
			tok.End.Offset, tok.End.Line, tok.End.Column,
			rangesJSON, replacedJSON)
		if err != nil {
			return fmt.Errorf("inserting token %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tokens: %w", err)
	}
	return nil
}

// AddDiagnostics replaces the diagnostics of a source in one transaction.
func (s *SQLiteStore) AddDiagnostics(id types.SourceID, diags []diag.Diagnostic) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM diagnostics WHERE source_id = ?", id.Hex()); err != nil {
		return fmt.Errorf("deleting diagnostics: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO diagnostics
		(source_id, seq, severity, code, message, resource,
		 start_offset, start_line, start_column, end_offset, end_line, end_column)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing diagnostic insert: %w", err)
	}
	defer stmt.Close()

	for seq, d := range diags {
		_, err := stmt.Exec(id.Hex(), seq, d.Severity.String(), string(d.Code), d.Message, d.Start.Resource,
			d.Start.Offset, d.Start.Line, d.Start.Column,
			d.End.Offset, d.End.Line, d.End.Column)
		if err != nil {
			return fmt.Errorf("inserting diagnostic %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing diagnostics: %w", err)
	}
	return nil
}

// SourceExists checks if a source has already been preprocessed.
func (s *SQLiteStore) SourceExists(id types.SourceID) (bool, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM sources WHERE id = ?", id.Hex()).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking source: %w", err)
	}
	return count > 0, nil
}

// GetSources retrieves every source ordered by path.
func (s *SQLiteStore) GetSources() ([]*Source, error) {
	rows, err := s.db.Query("SELECT id, path, format, size FROM sources ORDER BY path, id")
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []*Source
	for rows.Next() {
		var src Source
		var format string
		if err := rows.Scan(&src.ID, &src.Path, &format, &src.Size); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		if src.Format, err = types.ParseSourceFormat(format); err != nil {
			return nil, fmt.Errorf("source %s: %w", src.ID, err)
		}
		sources = append(sources, &src)
	}
	return sources, rows.Err()
}

// GetTokens retrieves the token stream of a source in order.
func (s *SQLiteStore) GetTokens(id types.SourceID) ([]types.Token, error) {
	rows, err := s.db.Query(`
		SELECT text, tags, resource,
		       start_offset, start_line, start_column, end_offset, end_line, end_column,
		       ranges_json, replaced_json
		FROM tokens
		WHERE source_id = ?
		ORDER BY seq
	`, id.Hex())
	if err != nil {
		return nil, fmt.Errorf("querying tokens: %w", err)
	}
	defer rows.Close()

	var tokens []types.Token
	for rows.Next() {
		var tok types.Token
		var tags string
		var rangesJSON, replacedJSON sql.NullString
		if err := rows.Scan(&tok.Text, &tags, &tok.Start.Resource,
			&tok.Start.Offset, &tok.Start.Line, &tok.Start.Column,
			&tok.End.Offset, &tok.End.Line, &tok.End.Column,
			&rangesJSON, &replacedJSON); err != nil {
			return nil, fmt.Errorf("scanning token: %w", err)
		}
		tok.End.Resource = tok.Start.Resource
		tok.Tags = types.ParseTags(tags)
		if tok.Ranges, err = decodeRanges(rangesJSON); err != nil {
			return nil, fmt.Errorf("unmarshaling ranges: %w", err)
		}
		if tok.ReplacedBy, err = decodeReplaced(replacedJSON); err != nil {
			return nil, fmt.Errorf("unmarshaling replacement: %w", err)
		}
		tokens = append(tokens, tok)
	}
	return tokens, rows.Err()
}

// GetDiagnostics retrieves all diagnostics ordered by source and report order.
func (s *SQLiteStore) GetDiagnostics() ([]*Diagnostic, error) {
	rows, err := s.db.Query(`
		SELECT source_id, severity, code, message, resource,
		       start_offset, start_line, start_column, end_offset, end_line, end_column
		FROM diagnostics
		ORDER BY source_id, seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying diagnostics: %w", err)
	}
	defer rows.Close()

	var diags []*Diagnostic
	for rows.Next() {
		var d Diagnostic
		var severity, code string
		if err := rows.Scan(&d.SourceID, &severity, &code, &d.Message, &d.Start.Resource,
			&d.Start.Offset, &d.Start.Line, &d.Start.Column,
			&d.End.Offset, &d.End.Line, &d.End.Column); err != nil {
			return nil, fmt.Errorf("scanning diagnostic: %w", err)
		}
		d.End.Resource = d.Start.Resource
		d.Code = diag.Code(code)
		if d.Severity, err = diag.ParseSeverity(severity); err != nil {
			return nil, err
		}
		diags = append(diags, &d)
	}
	return diags, rows.Err()
}

// GetProvenance retrieves the provenance recorded for a source.
func (s *SQLiteStore) GetProvenance(id types.SourceID) ([]types.Provenance, error) {
	rows, err := s.db.Query("SELECT type, path FROM provenance WHERE source_id = ? ORDER BY id", id.Hex())
	if err != nil {
		return nil, fmt.Errorf("querying provenance: %w", err)
	}
	defer rows.Close()

	var provs []types.Provenance
	for rows.Next() {
		var kind, path string
		if err := rows.Scan(&kind, &path); err != nil {
			return nil, fmt.Errorf("scanning provenance: %w", err)
		}
		prov, err := provenanceFor(kind, path)
		if err != nil {
			return nil, err
		}
		provs = append(provs, prov)
	}
	return provs, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func encodeRanges(ranges []types.Range) (sql.NullString, error) {
	if len(ranges) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(ranges)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeRanges(s sql.NullString) ([]types.Range, error) {
	if !s.Valid {
		return nil, nil
	}
	var ranges []types.Range
	err := json.Unmarshal([]byte(s.String), &ranges)
	return ranges, err
}

// encodeReplaced flattens a replacement chain, innermost first.
func encodeReplaced(r *types.Replaced) (sql.NullString, error) {
	if r == nil {
		return sql.NullString{}, nil
	}
	var spans []types.Range
	for ; r != nil; r = r.Outer {
		spans = append(spans, types.Range{Start: r.OriginalStart, End: r.OriginalEnd})
	}
	return encodeRanges(spans)
}

func decodeReplaced(s sql.NullString) (*types.Replaced, error) {
	spans, err := decodeRanges(s)
	if err != nil || len(spans) == 0 {
		return nil, err
	}
	var r *types.Replaced
	for i := len(spans) - 1; i >= 0; i-- {
		r = &types.Replaced{OriginalStart: spans[i].Start, OriginalEnd: spans[i].End, Outer: r}
	}
	return r, nil
}
