package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// CreateSchema creates the database schema if it doesn't exist.
func CreateSchema(db *sql.DB) error {
	if err := createSchemaVersionTable(db); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	tables := []struct {
		name   string
		create func(*sql.DB) error
	}{
		{"sources", createSourcesTable},
		{"provenance", createProvenanceTable},
		{"tokens", createTokensTable},
		{"diagnostics", createDiagnosticsTable},
	}
	for _, table := range tables {
		if err := table.create(db); err != nil {
			return fmt.Errorf("creating %s table: %w", table.name, err)
		}
	}

	return nil
}

func createSchemaVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count)
	if err != nil {
		return err
	}

	if count == 0 {
		_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
		return err
	}

	var version int
	if err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return err
	}
	if version != SchemaVersion {
		return fmt.Errorf("unsupported schema version %d (want %d)", version, SchemaVersion)
	}
	return nil
}

func createSourcesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sources (
			id TEXT PRIMARY KEY NOT NULL,
			path TEXT NOT NULL,
			format TEXT NOT NULL,
			size INTEGER NOT NULL
		)
	`)
	return err
}

func createProvenanceTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS provenance (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source_id TEXT NOT NULL REFERENCES sources(id),
			type TEXT NOT NULL,
			path TEXT NOT NULL,
			UNIQUE(source_id, type, path)
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_provenance_source_id ON provenance(source_id)
	`)
	return err
}

func createTokensTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tokens (
			source_id TEXT NOT NULL REFERENCES sources(id),
			seq INTEGER NOT NULL,
			text TEXT NOT NULL,
			tags TEXT NOT NULL,
			resource TEXT NOT NULL,
			start_offset INTEGER NOT NULL,
			start_line INTEGER NOT NULL,
			start_column INTEGER NOT NULL,
			end_offset INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			end_column INTEGER NOT NULL,
			ranges_json TEXT,
			replaced_json TEXT,
			PRIMARY KEY (source_id, seq)
		)
	`)
	return err
}

func createDiagnosticsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS diagnostics (
			source_id TEXT NOT NULL REFERENCES sources(id),
			seq INTEGER NOT NULL,
			severity TEXT NOT NULL,
			code TEXT NOT NULL,
			message TEXT NOT NULL,
			resource TEXT NOT NULL,
			start_offset INTEGER NOT NULL,
			start_line INTEGER NOT NULL,
			start_column INTEGER NOT NULL,
			end_offset INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			end_column INTEGER NOT NULL,
			PRIMARY KEY (source_id, seq)
		)
	`)
	return err
}
