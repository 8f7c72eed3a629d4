// Package statement finds and collects the preprocessor statements COPY and
// REPLACE in a token stream.
package statement

import (
	"errors"
	"io"
	"strings"

	"github.com/praetorian-inc/cobprep/pkg/source"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// IsKeyword reports whether tok is the program-text word keyword.
func IsKeyword(tok types.Token, keyword string) bool {
	return tok.Is(types.Word|types.ProgramTextArea) && !tok.IsSkipped() && strings.EqualFold(tok.Text, keyword)
}

// Separates reports whether a statement keyword may directly follow tok.
func Separates(tok types.Token) bool {
	return tok.IsBlank() || tok.IsSkipped() ||
		tok.Tags.Any(types.SequenceNumberArea|types.IndicatorArea|types.IdentificationArea|types.Comment|types.CompilerDirective|types.ReplaceStatement)
}

// Tracker remembers the last item a stage emitted, to tell whether a
// keyword stands at the start of a unit or after a separator.
type Tracker struct {
	seen bool
	prev types.Token
}

// Observe records an emitted item. Non-token items start a new unit.
func (t *Tracker) Observe(d types.Data) {
	tok, ok := d.(types.Token)
	t.seen = ok
	t.prev = tok
}

// Reset marks the start of a new unit.
func (t *Tracker) Reset() {
	t.seen = false
}

// AtBoundary reports whether a keyword emitted next would be preceded only
// by whitespace or the start of the unit.
func (t *Tracker) AtBoundary() bool {
	return !t.seen || Separates(t.prev)
}

// FollowedByBlank peeks at the next item of src and reports whether it is a
// blank token. The item is pushed back.
func FollowedByBlank(src source.Source) (bool, error) {
	d, err := src.Next()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	src.Unshift(d)
	tok, ok := d.(types.Token)
	return ok && tok.IsBlank(), nil
}

// Collect reads the statement starting with first through its terminating
// period, reading further lines as needed. A period inside "==" pseudo-text
// does not terminate. Collection stops early, without consuming it, at a
// non-token item, and at end of input; terminated is false then.
func Collect(src source.Source, first types.Token) (tokens []types.Token, terminated bool, err error) {
	tokens = []types.Token{first}
	pseudo, prevEq := false, false
	for {
		tok, ok, err := source.NextToken(src)
		if errors.Is(err, io.EOF) {
			return tokens, false, nil
		}
		if err != nil {
			return tokens, false, err
		}
		if !ok {
			return tokens, false, nil
		}
		tokens = append(tokens, tok)

		if tok.IsSkipped() || tok.Is(types.Comment) || !tok.Is(types.ProgramTextArea) {
			prevEq = false
			continue
		}
		if tok.Text == "=" {
			if prevEq {
				pseudo = !pseudo
				prevEq = false
			} else {
				prevEq = true
			}
			continue
		}
		prevEq = false
		if !pseudo && tok.Text == "." && tok.Is(types.Separator) {
			return tokens, true, nil
		}
	}
}

// RestOfLine reads through the next unskipped line ending, or to end of input.
func RestOfLine(src source.Source) ([]types.Data, error) {
	var out []types.Data
	for {
		d, err := src.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, d)
		if tok, ok := d.(types.Token); ok && tok.Is(types.EndOfLine) && !tok.IsSkipped() {
			return out, nil
		}
	}
}

// Span returns the first and last position covered by tokens.
func Span(tokens []types.Token) (types.Position, types.Position) {
	if len(tokens) == 0 {
		return types.Position{}, types.Position{}
	}
	return tokens[0].Start, tokens[len(tokens)-1].End
}
