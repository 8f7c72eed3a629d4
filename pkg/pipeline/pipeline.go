// Package pipeline assembles the preprocessing stages into one source.
//
// From the bottom up the chain is: a stack holding the line reader, the
// directive scanner, the area splitter, the word tokenizer, the inline
// comment marker, the continuation resolver, the copy expander, the REPLACE
// detector and the replacer. The replacer is the terminal source.
package pipeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/praetorian-inc/cobprep/pkg/continuation"
	"github.com/praetorian-inc/cobprep/pkg/copybook"
	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/praetorian-inc/cobprep/pkg/directive"
	"github.com/praetorian-inc/cobprep/pkg/expand"
	"github.com/praetorian-inc/cobprep/pkg/grammar"
	"github.com/praetorian-inc/cobprep/pkg/lexer"
	"github.com/praetorian-inc/cobprep/pkg/lines"
	"github.com/praetorian-inc/cobprep/pkg/replace"
	"github.com/praetorian-inc/cobprep/pkg/source"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// ErrNoResource is returned when a source is opened without a name.
var ErrNoResource = errors.New("resource name is required")

// Config holds the pipeline settings.
type Config struct {
	Format      types.SourceFormat // initial reference format
	TabLength   int                // columns a tab advances; 1 keeps tabs as one column
	Lines       lines.Config
	SearchPaths []string // copybook directories searched after the source's own
	Strict      bool     // unresolved copybooks are errors
	MaxDepth    int      // copybook nesting bound
	Logger      diag.Logger
	Locator     copybook.Locator  // nil selects copybook.DefaultLocator
	Matcher     directive.Matcher // nil selects the built-in directive rules
}

// DefaultConfig returns a fixed-format configuration with the default tab
// length and nesting depth.
func DefaultConfig() Config {
	return Config{
		Format:    types.FormatFixed,
		TabLength: lexer.DefaultTabLength,
		MaxDepth:  expand.DefaultMaxDepth,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.TabLength < 1 {
		return fmt.Errorf("%w: %d", lexer.ErrInvalidTabLength, c.TabLength)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative: %d", c.MaxDepth)
	}
	if err := c.Lines.Validate(); err != nil {
		return fmt.Errorf("invalid line configuration: %w", err)
	}
	return nil
}

// Pipeline is the terminal source of an assembled chain.
type Pipeline struct {
	*replace.Replacer
}

// Open builds a pipeline reading the named resource from r.
func Open(cfg Config, name string, r io.Reader) (*Pipeline, error) {
	if name == "" {
		return nil, ErrNoResource
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reader, err := lines.NewReader(name, r, cfg.Lines)
	if err != nil {
		return nil, err
	}
	return build(cfg, reader)
}

// OpenFile builds a pipeline reading the file at path.
func OpenFile(cfg Config, path string) (*Pipeline, error) {
	if path == "" {
		return nil, ErrNoResource
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reader, err := lines.Open(path, cfg.Lines)
	if err != nil {
		return nil, err
	}
	p, err := build(cfg, reader)
	if err != nil {
		reader.Close()
		return nil, err
	}
	return p, nil
}

func build(cfg Config, base source.Source) (*Pipeline, error) {
	matcher := cfg.Matcher
	if matcher == nil {
		m, err := grammar.Default()
		if err != nil {
			return nil, fmt.Errorf("failed to load directive rules: %w", err)
		}
		matcher = m
	}

	stack := source.NewStack(base)
	scanner := directive.NewScanner(stack, matcher, cfg.Format, cfg.Logger)
	splitter, err := lexer.NewSplitter(scanner, cfg.TabLength)
	if err != nil {
		return nil, err
	}
	resolver := continuation.NewResolver(lexer.NewInlineComments(lexer.NewTokenizer(splitter)), cfg.Logger)
	expander, err := expand.NewExpander(resolver, expand.Config{
		Locator:     cfg.Locator,
		SearchPaths: cfg.SearchPaths,
		Lines:       cfg.Lines,
		Strict:      cfg.Strict,
		MaxDepth:    cfg.MaxDepth,
		Logger:      cfg.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Replacer: replace.NewReplacer(replace.NewDetector(expander, cfg.Logger), cfg.Logger),
	}, nil
}

// Format returns the reference format currently in effect.
func (p *Pipeline) Format() types.SourceFormat {
	if s, ok := source.Find[*directive.Scanner](p); ok {
		return s.Format()
	}
	return types.FormatFixed
}

// Depth returns the number of sources on the inclusion stack.
func (p *Pipeline) Depth() int {
	if s, ok := source.Find[*source.Stack](p); ok {
		return s.Depth()
	}
	return 0
}

// Tokens drains the pipeline and closes it.
func (p *Pipeline) Tokens() ([]types.Token, error) {
	tokens, err := source.ReadAll(p)
	if cerr := p.Close(); err == nil {
		err = cerr
	}
	return tokens, err
}
