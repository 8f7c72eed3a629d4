package store

import (
	"fmt"

	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// Source is a preprocessed source file record.
type Source struct {
	ID     types.SourceID
	Path   string
	Format types.SourceFormat
	Size   int64
}

// Diagnostic is a stored diagnostic together with the source it was
// reported for.
type Diagnostic struct {
	SourceID types.SourceID
	diag.Diagnostic
}

// Store provides persistence for preprocessing results.
// This interface abstracts the underlying storage implementation,
// allowing for different backends (SQLite, in-memory).
type Store interface {
	// AddSource stores a source record. Re-adding an existing ID is a no-op.
	AddSource(src *Source) error

	// AddProvenance associates provenance with a source.
	AddProvenance(id types.SourceID, prov types.Provenance) error

	// AddTokens replaces the preprocessed token stream of a source.
	AddTokens(id types.SourceID, tokens []types.Token) error

	// AddDiagnostics replaces the diagnostics reported for a source.
	AddDiagnostics(id types.SourceID, diags []diag.Diagnostic) error

	// SourceExists checks if a source has already been preprocessed.
	SourceExists(id types.SourceID) (bool, error)

	// GetSources retrieves every source ordered by path.
	GetSources() ([]*Source, error)

	// GetTokens retrieves the token stream of a source in order.
	GetTokens(id types.SourceID) ([]types.Token, error)

	// GetDiagnostics retrieves all diagnostics (for reporting).
	GetDiagnostics() ([]*Diagnostic, error)

	// GetProvenance retrieves the provenance recorded for a source.
	GetProvenance(id types.SourceID) ([]types.Provenance, error)

	// Close closes the underlying storage.
	Close() error
}

// MemoryPath selects the in-memory backend.
const MemoryPath = ":memory:"

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for an in-memory store (useful for testing).
	Path string
}

// provenanceFor rebuilds a provenance from its stored kind and path.
func provenanceFor(kind, path string) (types.Provenance, error) {
	switch kind {
	case "file":
		return types.FileProvenance{FilePath: path}, nil
	case "copybook":
		return types.CopybookProvenance{FilePath: path}, nil
	default:
		return nil, fmt.Errorf("unknown provenance type: %s", kind)
	}
}
