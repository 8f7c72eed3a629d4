//go:build wasm

package store

import "errors"

// New opens the store for cfg. Browser builds keep every datastore in
// memory, so any non-empty path yields a fresh MemoryStore.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("store path is required")
	}
	return NewMemory(), nil
}
