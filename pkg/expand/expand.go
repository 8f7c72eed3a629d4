// Package expand splices copybooks into the token stream in place of the
// COPY statements that name them.
package expand

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/cobprep/pkg/copybook"
	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/praetorian-inc/cobprep/pkg/grammar"
	"github.com/praetorian-inc/cobprep/pkg/lines"
	"github.com/praetorian-inc/cobprep/pkg/source"
	"github.com/praetorian-inc/cobprep/pkg/statement"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// DefaultMaxDepth bounds copybook nesting.
const DefaultMaxDepth = 32

var (
	// ErrCopybookNotFound is returned in strict mode when a COPY statement
	// names a copybook the locator cannot resolve.
	ErrCopybookNotFound = errors.New("copybook not found")

	// ErrNoStack is returned when the decorated chain does not end in a
	// source.Stack the expander can push copybooks onto.
	ErrNoStack = errors.New("expander requires a source stack at the bottom of the chain")
)

// Config controls copybook expansion.
type Config struct {
	Locator     copybook.Locator
	SearchPaths []string
	Lines       lines.Config // used to read copybooks
	Strict      bool
	MaxDepth    int // 0 selects DefaultMaxDepth
	Logger      diag.Logger
}

// Expander replaces every COPY statement by the copybook it names.
//
// On a resolved COPY statement the statement's tokens are dropped and the
// following sources are pushed onto the stack, so that they are read in
// reverse order: the rest of the physical line together with any look-ahead
// held by lower stages, an end-of-replacement signal (REPLACING only), the
// copybook with every token marked Replaced against the statement, and a
// start-of-replacement signal (REPLACING only). A nested COPY is expanded by
// the same loop when its tokens come back up the chain.
type Expander struct {
	source.Decorator
	stack    *source.Stack
	locator  copybook.Locator
	cfg      Config
	logger   diag.Logger
	tracker  statement.Tracker
	maxDepth int
}

// NewExpander creates an expander over inner, whose chain must end in a
// source.Stack.
func NewExpander(inner source.Source, cfg Config) (*Expander, error) {
	stack, ok := source.Find[*source.Stack](inner)
	if !ok {
		return nil, ErrNoStack
	}
	locator := cfg.Locator
	if locator == nil {
		locator = copybook.NewLocator(nil)
	}
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Expander{
		Decorator: source.Decorator{Inner: inner},
		stack:     stack,
		locator:   locator,
		cfg:       cfg,
		logger:    diag.OrNoop(cfg.Logger),
		maxDepth:  maxDepth,
	}, nil
}

// Next returns the next item with COPY statements expanded.
func (e *Expander) Next() (types.Data, error) {
	if d, ok := e.Pop(); ok {
		return d, nil
	}
	for {
		d, err := e.Inner.Next()
		if err != nil {
			return nil, err
		}
		tok, ok := d.(types.Token)
		if !ok || !e.tracker.AtBoundary() || !statement.IsKeyword(tok, "COPY") {
			e.tracker.Observe(d)
			return d, nil
		}
		blank, err := statement.FollowedByBlank(e.Inner)
		if err != nil {
			return nil, err
		}
		if !blank {
			e.tracker.Observe(d)
			return d, nil
		}

		stmt, _, err := statement.Collect(e.Inner, tok)
		if err != nil {
			return nil, err
		}
		expanded, err := e.expand(stmt)
		if err != nil {
			return nil, err
		}
		if !expanded {
			source.UnshiftAll(e.Inner, stmt[1:])
			e.tracker.Observe(tok)
			return tok, nil
		}
		e.tracker.Reset()
	}
}

// expand resolves and splices the copybook of stmt. It reports false when
// the statement must be kept as text.
func (e *Expander) expand(stmt []types.Token) (bool, error) {
	first, last := stmt[0], stmt[len(stmt)-1]
	tree, err := grammar.ParseCopy(stmt)
	if err != nil {
		e.log(diag.Warning, diag.CopyMalformed, stmt, "malformed COPY statement: %v", err)
		return false, nil
	}

	textName := tree.Value("textName")
	libraryName := tree.Value("libraryName")
	path, ok := e.locator.Locate(textName, libraryName, first.Start.Resource, e.cfg.SearchPaths)
	if !ok {
		e.log(diag.Warning, diag.CopybookNotFound, stmt, "copybook %s not found", describe(textName, libraryName))
		if e.cfg.Strict {
			return false, fmt.Errorf("%s: %s: %w", first.Start, describe(textName, libraryName), ErrCopybookNotFound)
		}
		return false, nil
	}
	if first.ReplacedBy.Depth() >= e.maxDepth {
		e.log(diag.Error, diag.CopyDepth, stmt, "copybook %s exceeds the nesting depth of %d", describe(textName, libraryName), e.maxDepth)
		return false, nil
	}
	if including(first, path) {
		e.log(diag.Error, diag.CopyCycle, stmt, "copybook %s includes itself", path)
		return false, nil
	}

	reader, err := lines.Open(path, e.cfg.Lines)
	if err != nil {
		return false, fmt.Errorf("failed to open copybook: %w", err)
	}

	rest, err := statement.RestOfLine(e.Inner)
	if err != nil {
		reader.Close()
		return false, err
	}
	rest = append(rest, e.drain()...)

	phrases := grammar.Phrases(tree)
	replacing := tree.Has("replacing")
	if len(rest) > 0 {
		e.stack.Push(source.NewSlice(rest...))
	}
	if replacing {
		e.stack.Push(source.NewSlice(types.Signal{Kind: types.Deactivate, Last: true, At: last.End}))
	}
	e.stack.Push(newMarker(reader, &types.Replaced{
		OriginalStart: first.Start,
		OriginalEnd:   last.End,
		Outer:         first.ReplacedBy,
	}))
	if replacing {
		e.stack.Push(source.NewSlice(types.Signal{Kind: types.Activate, Phrases: phrases, At: first.Start}))
	}
	return true, nil
}

// drain collects the look-ahead held by the stages between the expander
// and the stack, nearest stage first.
func (e *Expander) drain() []types.Data {
	var out []types.Data
	for s := e.Inner; s != nil; s = s.Unwrap() {
		if d, ok := s.(source.Drainer); ok {
			out = append(out, d.Drain()...)
		}
	}
	return out
}

func (e *Expander) log(sev diag.Severity, code diag.Code, stmt []types.Token, format string, args ...interface{}) {
	start, end := statement.Span(stmt)
	e.logger.Log(diag.Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Start:    start,
		End:      end,
	})
}

// including reports whether path is one of the files currently open at tok.
func including(tok types.Token, path string) bool {
	target := canonical(path)
	if canonical(tok.Start.Resource) == target {
		return true
	}
	for r := tok.ReplacedBy; r != nil; r = r.Outer {
		if canonical(r.OriginalStart.Resource) == target {
			return true
		}
	}
	return false
}

func canonical(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func describe(textName, libraryName string) string {
	if libraryName == "" {
		return textName
	}
	return strings.Join([]string{textName, "OF", libraryName}, " ")
}
