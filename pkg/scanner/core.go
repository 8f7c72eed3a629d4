// Package scanner preprocesses in-memory source texts and keeps the results
// in a store. It backs the streaming server and the WebAssembly build.
package scanner

import (
	"fmt"
	"strings"

	"github.com/praetorian-inc/cobprep/pkg/copybook"
	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/praetorian-inc/cobprep/pkg/pipeline"
	"github.com/praetorian-inc/cobprep/pkg/store"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// Options tunes what a result carries.
type Options struct {
	// Tokens includes the full token stream in results.
	Tokens bool
}

// Core wraps the pipeline configuration and a store for preprocessing.
type Core struct {
	cfg   pipeline.Config
	opts  Options
	store store.Store
}

// NewCore creates a Core. A nil store selects an in-memory store.
func NewCore(cfg pipeline.Config, opts Options, s store.Store) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if s == nil {
		s = store.NewMemory()
	}
	return &Core{cfg: cfg, opts: opts, store: s}, nil
}

// Preprocess runs the pipeline over one source text.
func (c *Core) Preprocess(content, source string) (*Result, error) {
	return c.PreprocessItem(ContentItem{Source: source, Content: content})
}

// PreprocessItem runs the pipeline over one item and records the result.
func (c *Core) PreprocessItem(item ContentItem) (*Result, error) {
	cfg := c.cfg
	if item.Format != "" {
		format, err := types.ParseSourceFormat(item.Format)
		if err != nil {
			return nil, err
		}
		cfg.Format = format
	}
	name := item.Source
	if name == "" {
		name = "inline"
	}
	collector := diag.NewCollector(cfg.Logger)
	cfg.Logger = collector

	p, err := pipeline.Open(cfg, name, strings.NewReader(item.Content))
	if err != nil {
		return nil, err
	}
	tokens, err := p.Tokens()
	if err != nil {
		return nil, fmt.Errorf("preprocessing %s: %w", name, err)
	}
	diags := collector.Diagnostics()

	id := types.ComputeSourceID([]byte(item.Content))
	if err := c.record(id, name, p.Format(), len(item.Content), tokens, diags); err != nil {
		return nil, err
	}

	result := &Result{
		Source:      name,
		ID:          id.Hex(),
		Format:      p.Format().String(),
		Text:        pipeline.Text(tokens),
		Diagnostics: make([]Diagnostic, 0, len(diags)),
	}
	if c.opts.Tokens {
		result.Tokens = make([]Token, 0, len(tokens))
		for _, t := range tokens {
			result.Tokens = append(result.Tokens, NewToken(t))
		}
	}
	for _, d := range diags {
		result.Diagnostics = append(result.Diagnostics, NewDiagnostic(d))
	}
	return result, nil
}

func (c *Core) record(id types.SourceID, name string, format types.SourceFormat, size int, tokens []types.Token, diags []diag.Diagnostic) error {
	if err := c.store.AddSource(&store.Source{ID: id, Path: name, Format: format, Size: int64(size)}); err != nil {
		return fmt.Errorf("storing source: %w", err)
	}
	if err := c.store.AddTokens(id, tokens); err != nil {
		return fmt.Errorf("storing tokens: %w", err)
	}
	if err := c.store.AddDiagnostics(id, diags); err != nil {
		return fmt.Errorf("storing diagnostics: %w", err)
	}
	return nil
}

// PreprocessBatch preprocesses multiple items. Items that fail are skipped.
func (c *Core) PreprocessBatch(items []ContentItem) (*BatchResult, error) {
	batch := &BatchResult{Results: []Result{}}
	for _, item := range items {
		result, err := c.PreprocessItem(item)
		if err != nil {
			continue
		}
		batch.Results = append(batch.Results, *result)
		batch.Diagnostics += len(result.Diagnostics)
	}
	return batch, nil
}

// Locate resolves the copybook a COPY statement in from would include,
// using the configured locator and search paths.
func (c *Core) Locate(textName, libraryName, from string) (string, bool) {
	locator := c.cfg.Locator
	if locator == nil {
		locator = copybook.NewLocator(nil)
	}
	return locator.Locate(textName, libraryName, from, c.cfg.SearchPaths)
}

// Stats summarizes what the store holds.
func (c *Core) Stats() (*Stats, error) {
	sources, err := c.store.GetSources()
	if err != nil {
		return nil, fmt.Errorf("retrieving sources: %w", err)
	}
	diags, err := c.store.GetDiagnostics()
	if err != nil {
		return nil, fmt.Errorf("retrieving diagnostics: %w", err)
	}
	stats := &Stats{Sources: len(sources), Diagnostics: len(diags), ByCode: map[string]int{}}
	for _, d := range diags {
		stats.ByCode[string(d.Code)]++
	}
	return stats, nil
}

// Store returns the store results are recorded in.
func (c *Core) Store() store.Store {
	return c.store
}

// Close releases the store.
func (c *Core) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
