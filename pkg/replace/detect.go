// Package replace implements the REPLACE statement and the text
// substitution driven by REPLACE and COPY REPLACING.
package replace

import (
	"fmt"

	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/praetorian-inc/cobprep/pkg/grammar"
	"github.com/praetorian-inc/cobprep/pkg/source"
	"github.com/praetorian-inc/cobprep/pkg/statement"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// Detector finds REPLACE statements. It passes each statement on as its own
// tokens tagged ReplaceStatement, immediately followed by the signal that
// activates or deactivates its phrases.
type Detector struct {
	source.Decorator
	logger  diag.Logger
	tracker statement.Tracker
}

// NewDetector creates a detector over inner.
func NewDetector(inner source.Source, logger diag.Logger) *Detector {
	return &Detector{Decorator: source.Decorator{Inner: inner}, logger: diag.OrNoop(logger)}
}

// Next returns the next item.
func (d *Detector) Next() (types.Data, error) {
	item, err := d.next()
	if err != nil {
		return nil, err
	}
	d.tracker.Observe(item)
	return item, nil
}

func (d *Detector) next() (types.Data, error) {
	if item, ok := d.Pop(); ok {
		return item, nil
	}
	item, err := d.Inner.Next()
	if err != nil {
		return nil, err
	}
	tok, ok := item.(types.Token)
	if !ok || !d.tracker.AtBoundary() || !statement.IsKeyword(tok, "REPLACE") {
		return item, nil
	}
	blank, err := statement.FollowedByBlank(d.Inner)
	if err != nil {
		return nil, err
	}
	if !blank {
		return tok, nil
	}

	stmt, _, err := statement.Collect(d.Inner, tok)
	if err != nil {
		return nil, err
	}
	tree, err := grammar.ParseReplace(stmt)
	if err != nil {
		start, end := statement.Span(stmt)
		d.logger.Log(diag.Diagnostic{
			Severity: diag.Warning,
			Code:     diag.ReplaceMalformed,
			Message:  fmt.Sprintf("malformed REPLACE statement: %v", err),
			Start:    start,
			End:      end,
		})
		source.UnshiftAll(d.Inner, stmt[1:])
		return tok, nil
	}

	out := make([]types.Data, 0, len(stmt)+1)
	for _, t := range stmt {
		out = append(out, t.WithTags(types.ReplaceStatement))
	}
	out = append(out, SignalFor(tree))
	source.UnshiftAll(d, out[1:])
	return out[0], nil
}

// SignalFor computes the signal a parsed REPLACE statement sends.
func SignalFor(tree *grammar.Tree) types.Signal {
	var at types.Position
	if len(tree.Tokens) > 0 {
		at = tree.Tokens[0].Start
	}
	if tree.Has("off") {
		return types.Signal{Kind: types.Deactivate, Last: tree.Has("last"), At: at}
	}
	return types.Signal{
		Kind:    types.Activate,
		Phrases: grammar.Phrases(tree),
		Also:    tree.Has("also"),
		At:      at,
	}
}
