// Package cobprep prepares COBOL sources for parsing.
//
// A source is read line by line, honouring fixed, free and variable
// reference formats and compiler directives. Continuation lines are joined,
// COPY statements are expanded from copybooks, and REPLACE and COPY
// REPLACING are applied. Every token of the result keeps the position of
// the original text it came from.
//
// # Basic Usage
//
//	p, err := cobprep.New(cobprep.WithCopybookPaths("copylib"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := p.PreprocessFile("src/PAYROLL.cbl")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(result.Text())
//	for _, d := range result.Diagnostics {
//	    fmt.Println(d)
//	}
//
// # Streaming
//
// Open returns the pipeline itself, a source yielding tokens one at a time:
//
//	src, err := p.Open("PROG.cbl", strings.NewReader(text))
//	for {
//	    d, err := src.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if tok, ok := d.(cobprep.Token); ok {
//	        ...
//	    }
//	}
package cobprep

import (
	"fmt"
	"io"
	"strings"

	"github.com/praetorian-inc/cobprep/pkg/copybook"
	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/praetorian-inc/cobprep/pkg/grammar"
	"github.com/praetorian-inc/cobprep/pkg/pipeline"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/praetorian-inc/cobprep" without subpackages.
type (
	// Token is a span of preprocessed text with its original position.
	Token = types.Token

	// Position is a place in a named resource.
	Position = types.Position

	// Tag is the set of markers a token carries.
	Tag = types.Tag

	// SourceFormat is a COBOL reference format.
	SourceFormat = types.SourceFormat

	// Diagnostic is a recoverable anomaly found while preprocessing.
	Diagnostic = diag.Diagnostic

	// DirectiveRule recognizes one compiler directive line.
	DirectiveRule = types.DirectiveRule
)

// Re-export the reference formats.
const (
	FormatFixed    = types.FormatFixed
	FormatFree     = types.FormatFree
	FormatVariable = types.FormatVariable
)

// Preprocessor runs the preprocessing pipeline with fixed settings.
// It is safe for concurrent use; every call builds its own pipeline.
type Preprocessor struct {
	cfg pipeline.Config
}

// Option configures a Preprocessor.
type Option func(*preprocessorConfig)

type preprocessorConfig struct {
	pipeline pipeline.Config
	rules    []*DirectiveRule
}

// WithFormat sets the initial reference format. Default is FormatFixed.
func WithFormat(f SourceFormat) Option {
	return func(c *preprocessorConfig) {
		c.pipeline.Format = f
	}
}

// WithTabLength sets the columns a tab advances. Default is 8.
func WithTabLength(n int) Option {
	return func(c *preprocessorConfig) {
		c.pipeline.TabLength = n
	}
}

// WithCopybookPaths adds directories searched for copybooks after the
// including source's own directory.
func WithCopybookPaths(paths ...string) Option {
	return func(c *preprocessorConfig) {
		c.pipeline.SearchPaths = append(c.pipeline.SearchPaths, paths...)
	}
}

// WithStrict makes an unresolved copybook fail the whole source instead of
// producing a diagnostic.
func WithStrict() Option {
	return func(c *preprocessorConfig) {
		c.pipeline.Strict = true
	}
}

// WithMaxDepth bounds copybook nesting.
func WithMaxDepth(depth int) Option {
	return func(c *preprocessorConfig) {
		c.pipeline.MaxDepth = depth
	}
}

// WithLogger forwards every diagnostic to l as well as to the result.
func WithLogger(l diag.Logger) Option {
	return func(c *preprocessorConfig) {
		c.pipeline.Logger = l
	}
}

// WithLocator replaces the copybook search.
func WithLocator(l copybook.Locator) Option {
	return func(c *preprocessorConfig) {
		c.pipeline.Locator = l
	}
}

// WithDirectiveRules recognizes compiler directives with rules instead of
// the builtin ones.
func WithDirectiveRules(rules []*DirectiveRule) Option {
	return func(c *preprocessorConfig) {
		c.rules = rules
	}
}

// New creates a Preprocessor with the given options.
func New(opts ...Option) (*Preprocessor, error) {
	c := &preprocessorConfig{pipeline: pipeline.DefaultConfig()}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.pipeline.Validate(); err != nil {
		return nil, err
	}
	if c.rules != nil {
		m, err := grammar.NewDirectiveMatcher(c.rules)
		if err != nil {
			return nil, fmt.Errorf("compiling directive rules: %w", err)
		}
		c.pipeline.Matcher = m
	}
	return &Preprocessor{cfg: c.pipeline}, nil
}

// Result is a preprocessed source.
type Result struct {
	Format      SourceFormat // format in effect at the end of the source
	Tokens      []Token
	Diagnostics []Diagnostic
}

// Text returns the compilable text: the tokens without sequence,
// indicator and identification areas, comments, directives and skipped
// material.
func (r *Result) Text() string {
	return pipeline.Text(r.Tokens)
}

// Open returns a streaming pipeline over r. Diagnostics go to the
// configured logger only.
func (p *Preprocessor) Open(name string, r io.Reader) (*pipeline.Pipeline, error) {
	return pipeline.Open(p.cfg, name, r)
}

// PreprocessReader preprocesses the resource name read from r. Copybooks
// are searched relative to name.
func (p *Preprocessor) PreprocessReader(name string, r io.Reader) (*Result, error) {
	return p.run(func(cfg pipeline.Config) (*pipeline.Pipeline, error) {
		return pipeline.Open(cfg, name, r)
	})
}

// PreprocessString preprocesses content as the resource name.
func (p *Preprocessor) PreprocessString(name, content string) (*Result, error) {
	return p.PreprocessReader(name, strings.NewReader(content))
}

// PreprocessFile reads and preprocesses a file.
//
// Example:
//
//	result, err := p.PreprocessFile("/src/PAYROLL.cbl")
func (p *Preprocessor) PreprocessFile(path string) (*Result, error) {
	return p.run(func(cfg pipeline.Config) (*pipeline.Pipeline, error) {
		return pipeline.OpenFile(cfg, path)
	})
}

func (p *Preprocessor) run(open func(pipeline.Config) (*pipeline.Pipeline, error)) (*Result, error) {
	cfg := p.cfg
	collector := diag.NewCollector(cfg.Logger)
	cfg.Logger = collector

	pl, err := open(cfg)
	if err != nil {
		return nil, err
	}
	tokens, err := pl.Tokens()
	if err != nil {
		return nil, err
	}
	return &Result{
		Format:      pl.Format(),
		Tokens:      tokens,
		Diagnostics: collector.Diagnostics(),
	}, nil
}

// LoadDirectiveRules loads directive rules from a YAML file.
// Use this with WithDirectiveRules.
func LoadDirectiveRules(path string) ([]*DirectiveRule, error) {
	return grammar.NewLoader().LoadRuleFile(path)
}

// LoadBuiltinDirectiveRules returns the builtin directive rules.
// This can be used to extend them:
//
//	rules, err := cobprep.LoadBuiltinDirectiveRules()
//	rules = append(rules, myRule)
//	p, err := cobprep.New(cobprep.WithDirectiveRules(rules))
func LoadBuiltinDirectiveRules() ([]*DirectiveRule, error) {
	return grammar.NewLoader().LoadBuiltinRules()
}
