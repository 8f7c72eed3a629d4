package datastore

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/cobprep/pkg/types"
)

// SourcesDir is the directory inside a datastore that holds source copies.
const SourcesDir = "sources"

// ErrSourceNotStored is returned when no copy exists for a source ID.
var ErrSourceNotStored = errors.New("source not stored")

// SourceStore keeps one copy of every distinct source text, addressed by
// its SourceID: sources/ab/cdef0123...
type SourceStore struct {
	Root string
}

// OpenSources returns the source copies of the datastore directory at
// path, or nil when the scan that wrote it did not keep sources.
func OpenSources(path string) *SourceStore {
	root := filepath.Join(path, SourcesDir)
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil
	}
	return &SourceStore{Root: root}
}

// Store writes content unless an identical text is already kept and
// returns its ID.
func (b *SourceStore) Store(content []byte) (types.SourceID, error) {
	id := types.ComputeSourceID(content)
	path := b.path(id)
	if _, err := os.Stat(path); err == nil {
		return id, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return types.SourceID{}, fmt.Errorf("creating source directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".src-*")
	if err != nil {
		return types.SourceID{}, fmt.Errorf("writing source: %w", err)
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return types.SourceID{}, fmt.Errorf("writing source: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return types.SourceID{}, fmt.Errorf("writing source: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return types.SourceID{}, fmt.Errorf("renaming source: %w", err)
	}
	return id, nil
}

// Get returns the kept text of a source.
func (b *SourceStore) Get(id types.SourceID) ([]byte, error) {
	content, err := os.ReadFile(b.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotStored, id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	return content, nil
}

// Exists reports whether a copy of the source is kept.
func (b *SourceStore) Exists(id types.SourceID) bool {
	_, err := os.Stat(b.path(id))
	return err == nil
}

// Line returns line n (1-based) of a kept source without its line ending.
func (b *SourceStore) Line(id types.SourceID, n int) (string, error) {
	content, err := b.Get(id)
	if err != nil {
		return "", err
	}
	sc := bufio.NewScanner(bytes.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), len(content)+1)
	for i := 1; sc.Scan(); i++ {
		if i == n {
			return strings.TrimRight(sc.Text(), "\r"), nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("reading source: %w", err)
	}
	return "", fmt.Errorf("line %d out of range in %s", n, id.Hex())
}

func (b *SourceStore) path(id types.SourceID) string {
	hex := id.Hex()
	return filepath.Join(b.Root, hex[:2], hex[2:])
}
