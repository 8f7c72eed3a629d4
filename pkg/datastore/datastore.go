// Package datastore manages the directory a scan writes into: the SQLite
// database plus an optional content-addressable copy of every source.
package datastore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/praetorian-inc/cobprep/pkg/store"
)

// DatabaseName is the database file inside a datastore directory.
const DatabaseName = "datastore.db"

// Datastore manages a directory-based datastore.
type Datastore struct {
	Path    string       // Directory path (e.g., "cobprep.ds")
	Store   store.Store  // SQLite store for sources, tokens and diagnostics
	Sources *SourceStore // Optional source storage (nil unless StoreSources is set)
}

// Options configures datastore behavior.
type Options struct {
	StoreSources bool // Keep a copy of every scanned source (--store-sources flag)
}

// Open opens or creates a datastore directory.
func Open(path string, opts Options) (*Datastore, error) {
	if path == "" {
		return nil, fmt.Errorf("datastore path is required")
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("creating datastore directory: %w", err)
	}

	if opts.StoreSources {
		if err := os.MkdirAll(filepath.Join(path, SourcesDir), 0755); err != nil {
			return nil, fmt.Errorf("creating sources directory: %w", err)
		}
	}

	// Keep datastores out of version control.
	gitignorePath := filepath.Join(path, ".gitignore")
	if err := os.WriteFile(gitignorePath, []byte("*\n"), 0644); err != nil {
		return nil, fmt.Errorf("writing .gitignore: %w", err)
	}

	s, err := store.New(store.Config{Path: filepath.Join(path, DatabaseName)})
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	ds := &Datastore{
		Path:  path,
		Store: s,
	}
	if opts.StoreSources {
		ds.Sources = &SourceStore{Root: filepath.Join(path, SourcesDir)}
	}

	return ds, nil
}

// DatabasePath resolves the database file of a datastore given either the
// directory or the database file itself.
func DatabasePath(path string) (string, error) {
	if path == store.MemoryPath {
		return "", fmt.Errorf("cannot read an in-memory datastore")
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("datastore not found: %s", path)
	}
	if info.IsDir() {
		return filepath.Join(path, DatabaseName), nil
	}
	return path, nil
}

// Close closes the datastore and releases resources.
func (d *Datastore) Close() error {
	if d.Store != nil {
		return d.Store.Close()
	}
	return nil
}
