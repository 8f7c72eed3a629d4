//go:build !wasm

package store

import (
	"errors"

	_ "modernc.org/sqlite"
)

// New opens the store for cfg. MemoryPath selects a MemoryStore; any other
// path is a SQLite database file, created when missing.
func New(cfg Config) (Store, error) {
	switch cfg.Path {
	case "":
		return nil, errors.New("store path is required")
	case MemoryPath:
		return NewMemory(), nil
	default:
		return NewSQLite(cfg.Path)
	}
}
