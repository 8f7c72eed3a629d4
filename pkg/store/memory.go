package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// MemoryStore implements Store using in-memory data structures.
// It backs tests and one-shot runs that need no datastore file.
type MemoryStore struct {
	mu          sync.RWMutex
	sources     map[string]*Source            // keyed by SourceID.Hex()
	provenance  map[string][]types.Provenance // keyed by SourceID.Hex()
	tokens      map[string][]types.Token      // keyed by SourceID.Hex()
	diagnostics map[string][]diag.Diagnostic  // keyed by SourceID.Hex()
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		sources:     make(map[string]*Source),
		provenance:  make(map[string][]types.Provenance),
		tokens:      make(map[string][]types.Token),
		diagnostics: make(map[string][]diag.Diagnostic),
	}
}

// AddSource stores a source record.
func (m *MemoryStore) AddSource(src *Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := src.ID.Hex()
	if _, exists := m.sources[key]; exists {
		return nil
	}
	cp := *src
	m.sources[key] = &cp
	return nil
}

// AddProvenance associates provenance with a source.
func (m *MemoryStore) AddProvenance(id types.SourceID, prov types.Provenance) error {
	switch prov.(type) {
	case types.FileProvenance, types.CopybookProvenance:
	default:
		return fmt.Errorf("unknown provenance type: %T", prov)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := id.Hex()
	for _, existing := range m.provenance[key] {
		if existing == prov {
			return nil
		}
	}
	m.provenance[key] = append(m.provenance[key], prov)
	return nil
}

// AddTokens replaces the token stream of a source.
func (m *MemoryStore) AddTokens(id types.SourceID, tokens []types.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[id.Hex()] = append([]types.Token(nil), tokens...)
	return nil
}

// AddDiagnostics replaces the diagnostics of a source.
func (m *MemoryStore) AddDiagnostics(id types.SourceID, diags []diag.Diagnostic) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.diagnostics[id.Hex()] = append([]diag.Diagnostic(nil), diags...)
	return nil
}

// SourceExists checks if a source has already been preprocessed.
func (m *MemoryStore) SourceExists(id types.SourceID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.sources[id.Hex()]
	return exists, nil
}

// GetSources retrieves every source ordered by path.
func (m *MemoryStore) GetSources() ([]*Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sources := make([]*Source, 0, len(m.sources))
	for _, src := range m.sources {
		cp := *src
		sources = append(sources, &cp)
	}
	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Path != sources[j].Path {
			return sources[i].Path < sources[j].Path
		}
		return sources[i].ID.Hex() < sources[j].ID.Hex()
	})
	return sources, nil
}

// GetTokens retrieves the token stream of a source in order.
func (m *MemoryStore) GetTokens(id types.SourceID) ([]types.Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tokens := m.tokens[id.Hex()]
	if len(tokens) == 0 {
		return nil, nil
	}
	return append([]types.Token(nil), tokens...), nil
}

// GetDiagnostics retrieves all diagnostics ordered by source and report order.
func (m *MemoryStore) GetDiagnostics() ([]*Diagnostic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.diagnostics))
	for key := range m.diagnostics {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out []*Diagnostic
	for _, key := range keys {
		id, err := types.ParseSourceID(key)
		if err != nil {
			return nil, err
		}
		for _, d := range m.diagnostics[key] {
			out = append(out, &Diagnostic{SourceID: id, Diagnostic: d})
		}
	}
	return out, nil
}

// GetProvenance retrieves the provenance recorded for a source.
func (m *MemoryStore) GetProvenance(id types.SourceID) ([]types.Provenance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	provs := m.provenance[id.Hex()]
	if len(provs) == 0 {
		return nil, nil
	}
	return append([]types.Provenance(nil), provs...), nil
}

// Close is a no-op for memory store.
func (m *MemoryStore) Close() error {
	return nil
}
