package store

import (
	"database/sql"
	"fmt"
)

// MergeConfig configures the merge operation.
type MergeConfig struct {
	// SourcePaths are the database files to merge from.
	SourcePaths []string
	// DestPath is the destination database file.
	DestPath string
}

// MergeStats tracks merge operation statistics.
type MergeStats struct {
	SourcesMerged     int
	ProvenanceMerged  int
	TokensMerged      int
	DiagnosticsMerged int
	DatabasesRead     int
}

// Merge combines multiple cobprep datastores into one.
// Deduplication is handled via INSERT OR IGNORE on primary keys, so a
// source already present in the destination keeps its stored stream.
func Merge(cfg MergeConfig) (*MergeStats, error) {
	if len(cfg.SourcePaths) == 0 {
		return nil, fmt.Errorf("no source databases specified")
	}
	if cfg.DestPath == "" {
		return nil, fmt.Errorf("destination path is required")
	}

	destDB, err := openDB(cfg.DestPath)
	if err != nil {
		return nil, fmt.Errorf("opening destination database: %w", err)
	}
	defer destDB.Close()

	if err := CreateSchema(destDB); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	stats := &MergeStats{}
	for _, sourcePath := range cfg.SourcePaths {
		sourceStats, err := mergeFrom(destDB, sourcePath)
		if err != nil {
			return stats, fmt.Errorf("merging from %s: %w", sourcePath, err)
		}
		stats.SourcesMerged += sourceStats.SourcesMerged
		stats.ProvenanceMerged += sourceStats.ProvenanceMerged
		stats.TokensMerged += sourceStats.TokensMerged
		stats.DiagnosticsMerged += sourceStats.DiagnosticsMerged
		stats.DatabasesRead++
	}

	return stats, nil
}

// mergeFrom copies data from a source database to the destination.
func mergeFrom(destDB *sql.DB, sourcePath string) (*MergeStats, error) {
	sourceDB, err := openDB(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("opening source database: %w", err)
	}
	defer sourceDB.Close()

	stats := &MergeStats{}

	tx, err := destDB.Begin()
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	steps := []struct {
		name   string
		query  string
		insert string
		cols   int
		count  *int
	}{
		{
			name:   "sources",
			query:  "SELECT id, path, format, size FROM sources",
			insert: "INSERT OR IGNORE INTO sources (id, path, format, size) VALUES (?, ?, ?, ?)",
			cols:   4,
			count:  &stats.SourcesMerged,
		},
		{
			name:   "provenance",
			query:  "SELECT source_id, type, path FROM provenance",
			insert: "INSERT OR IGNORE INTO provenance (source_id, type, path) VALUES (?, ?, ?)",
			cols:   3,
			count:  &stats.ProvenanceMerged,
		},
		{
			name: "tokens",
			query: `SELECT source_id, seq, text, tags, resource,
			        start_offset, start_line, start_column, end_offset, end_line, end_column,
			        ranges_json, replaced_json FROM tokens`,
			insert: `INSERT OR IGNORE INTO tokens
			        (source_id, seq, text, tags, resource,
			         start_offset, start_line, start_column, end_offset, end_line, end_column,
			         ranges_json, replaced_json)
			        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			cols:  13,
			count: &stats.TokensMerged,
		},
		{
			name: "diagnostics",
			query: `SELECT source_id, seq, severity, code, message, resource,
			        start_offset, start_line, start_column, end_offset, end_line, end_column
			        FROM diagnostics`,
			insert: `INSERT OR IGNORE INTO diagnostics
			        (source_id, seq, severity, code, message, resource,
			         start_offset, start_line, start_column, end_offset, end_line, end_column)
			        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			cols:  12,
			count: &stats.DiagnosticsMerged,
		},
	}

	for _, step := range steps {
		n, err := copyRows(tx, sourceDB, step.query, step.insert, step.cols)
		if err != nil {
			return nil, fmt.Errorf("merging %s: %w", step.name, err)
		}
		*step.count = n
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return stats, nil
}

// copyRows copies every row of query into insert and counts the rows that
// were actually added.
func copyRows(tx *sql.Tx, sourceDB *sql.DB, query, insert string, cols int) (int, error) {
	rows, err := sourceDB.Query(query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	stmt, err := tx.Prepare(insert)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	values := make([]interface{}, cols)
	ptrs := make([]interface{}, cols)
	for i := range values {
		ptrs[i] = &values[i]
	}

	count := 0
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return count, err
		}
		result, err := stmt.Exec(values...)
		if err != nil {
			return count, err
		}
		affected, _ := result.RowsAffected()
		if affected > 0 {
			count++
		}
	}
	return count, rows.Err()
}
