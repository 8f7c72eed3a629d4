// Package continuation merges physically continued source lines into
// logical lines.
//
// A line is continued when it ends in an incomplete literal, or when the
// next line that is neither blank nor a comment carries a "-" in the
// indicator area. Connective material that becomes internal to a merge
// (line ends, areas, leading blanks, opening quotes of continued literals)
// is kept in the stream tagged SKIPPED and follows the merged token, so the
// stream keeps every character but not their order around a merge; each
// merged token's Ranges locate its pieces in the original text.
//
// A merged literal keeps its delimiters: "ABC continued by "DEF" yields
// the single literal "ABCDEF".
package continuation

import (
	"errors"
	"io"

	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/praetorian-inc/cobprep/pkg/lexer"
	"github.com/praetorian-inc/cobprep/pkg/source"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// line is one physical line, or a lone non-token item between lines.
type line struct {
	tokens []types.Token
	other  types.Data
}

// Resolver is the continuation stage.
type Resolver struct {
	source.Decorator
	logger  diag.Logger
	pending []line        // look-ahead lines, in stream order
	out     []types.Token // rest of the logical line being emitted
}

// NewResolver creates a resolver over inner.
func NewResolver(inner source.Source, logger diag.Logger) *Resolver {
	return &Resolver{Decorator: source.Decorator{Inner: inner}, logger: diag.OrNoop(logger)}
}

// Next returns the next token of the current logical line.
func (r *Resolver) Next() (types.Data, error) {
	if d, ok := r.Pop(); ok {
		return d, nil
	}
	if len(r.out) > 0 {
		tok := r.out[0]
		r.out = r.out[1:]
		return tok, nil
	}

	cur, ok, err := r.nextLine()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, io.EOF
	}
	if cur.other != nil {
		return cur.other, nil
	}

	tokens, err := r.resolve(cur.tokens)
	if err != nil {
		return nil, err
	}
	r.out = tokens[1:]
	return tokens[0], nil
}

// Drain hands back everything read from below and not yet emitted.
func (r *Resolver) Drain() []types.Data {
	items := r.DrainPushback()
	for _, tok := range r.out {
		items = append(items, tok)
	}
	r.out = nil
	for _, l := range r.pending {
		if l.other != nil {
			items = append(items, l.other)
			continue
		}
		for _, tok := range l.tokens {
			items = append(items, tok)
		}
	}
	r.pending = nil
	return items
}

// resolve extends cur with continuation lines until it is a complete
// logical line.
func (r *Resolver) resolve(cur []types.Token) ([]types.Token, error) {
	for {
		if isDirective(cur) {
			return cur, nil
		}
		li := lastContent(cur)
		ni, next, found, err := r.nextReal()
		if err != nil {
			return nil, err
		}

		if li >= 0 && cur[li].Is(types.String|types.Incomplete) {
			merged, ok := r.continueLiteral(cur, li, ni, next, found)
			if !ok {
				return r.degrade(cur, li), nil
			}
			cur = merged
			continue
		}

		if li >= 0 && found && continued(next) {
			merged, ok := r.continueLine(cur, li, ni, next)
			if !ok {
				return cur, nil
			}
			cur = merged
			continue
		}
		return cur, nil
	}
}

// continueLiteral merges an incomplete literal with the literal that
// continues it on the next line.
func (r *Resolver) continueLiteral(cur []types.Token, li, ni int, next []types.Token, found bool) ([]types.Token, bool) {
	if !found {
		return nil, false
	}
	lit := cur[li]
	quote := []rune(lit.Text)[0]
	fi := firstContent(next)
	if fi < 0 || !next[fi].Is(types.String) || []rune(next[fi].Text)[0] != quote {
		return nil, false
	}

	left := lit
	var junction []types.Token
	if lexer.IsFloating(lit) {
		n := lit.Length()
		left = lit.Slice(0, n-2)
		junction = append(junction, skip(lit.SliceFrom(n-2)))
	} else if !continued(next) {
		return nil, false
	}

	junction = append(junction, r.connective(cur[li+1:], ni, next[:fi])...)
	junction = append(junction, skip(next[fi].Slice(0, 1)))
	run := contentRun(next, fi+1)
	right := append([]types.Token{next[fi].SliceFrom(1)}, run...)
	return r.splice(cur[:li], left, junction, right, next[fi+1+len(run):], ni), true
}

// continueLine merges the last content of cur with the first content of an
// indicator-continued line.
func (r *Resolver) continueLine(cur []types.Token, li, ni int, next []types.Token) ([]types.Token, bool) {
	last := cur[li]
	fi := firstContent(next)
	if fi < 0 {
		return nil, false
	}
	first := next[fi]
	junction := r.connective(cur[li+1:], ni, next[:fi])

	run := contentRun(next, fi+1)
	right := append([]types.Token{first}, run...)
	if last.Is(types.String) {
		// A closed literal continues only with a doubled quote whose first
		// quote is connective.
		runes := []rune(first.Text)
		if !first.Is(types.String) || len(runes) != 2 || runes[0] != runes[1] {
			r.logger.Log(diag.At(diag.Warning, diag.ContinuationMissing, first,
				"continuation of a closed literal must start with a doubled quote"))
			return nil, false
		}
		junction = append(junction, skip(first.Slice(0, 1)))
		right[0] = first.SliceFrom(1)
	}
	return r.splice(cur[:li], last, junction, right, next[fi+1+len(run):], ni), true
}

// connective collects the material between the merged pieces: the rest of
// the current line, any blank or comment lines in between, and the areas
// and leading blanks of the continuation line.
func (r *Resolver) connective(rest []types.Token, ni int, lead []types.Token) []types.Token {
	var out []types.Token
	for _, t := range rest {
		out = append(out, skip(t))
	}
	for _, l := range r.pending[:ni] {
		for _, t := range l.tokens {
			out = append(out, skip(t))
		}
	}
	for _, t := range lead {
		out = append(out, skip(t))
	}
	return out
}

// splice re-tokenizes left+right as one piece of program text and places
// the connective tokens right after the token spanning the junction. The
// continuation line at pending index ni is consumed.
func (r *Resolver) splice(prefix []types.Token, left types.Token, junction, right, tail []types.Token, ni int) []types.Token {
	r.pending = r.pending[ni+1:]

	joined := types.Join(left.Tags&^types.SyntacticTags, append([]types.Token{left}, right...)...)
	retok := lexer.Tokenize(joined)

	at := len(retok)
	for i, n := 0, 0; i < len(retok); i++ {
		n += retok[i].Length()
		if n >= left.Length() {
			at = i + 1
			break
		}
	}

	out := make([]types.Token, 0, len(prefix)+len(retok)+len(junction)+len(tail))
	out = append(out, prefix...)
	out = append(out, retok[:at]...)
	out = append(out, junction...)
	out = append(out, retok[at:]...)
	out = append(out, tail...)
	return out
}

// degrade gives up on continuing the literal at li: it is split into a
// complete literal and trailing blanks, and the following line stays
// independent.
func (r *Resolver) degrade(cur []types.Token, li int) []types.Token {
	lit := cur[li]
	r.logger.Log(diag.At(diag.Warning, diag.ContinuationMissing, lit, "literal is not continued on the next line"))

	runes := []rune(lit.Text)
	var pieces []types.Token
	if lexer.IsFloating(lit) {
		n := len(runes)
		pieces = append(pieces,
			lit.Slice(0, n-1).WithoutTags(types.Incomplete|types.Floating),
			lit.SliceFrom(n-1).Retag(types.SyntacticTags, types.Separator))
	} else {
		k := len(runes)
		for k > 1 && (runes[k-1] == ' ' || runes[k-1] == '\t') {
			k--
		}
		pieces = append(pieces, lit.Slice(0, k).WithoutTags(types.Incomplete))
		if k < len(runes) {
			pieces = append(pieces, lit.SliceFrom(k).Retag(types.SyntacticTags, types.Separator|types.Whitespace))
		}
	}

	out := make([]types.Token, 0, len(cur)+1)
	out = append(out, cur[:li]...)
	out = append(out, pieces...)
	out = append(out, cur[li+1:]...)
	return out
}

// nextReal finds the next pending line that is neither blank nor a comment,
// reading lines as needed. It stops at non-token items and end of input.
func (r *Resolver) nextReal() (int, []types.Token, bool, error) {
	for i := 0; ; i++ {
		l, ok, err := r.peekLine(i)
		if err != nil || !ok || l.other != nil {
			return 0, nil, false, err
		}
		if !blankOrComment(l.tokens) {
			return i, l.tokens, true, nil
		}
	}
}

func (r *Resolver) nextLine() (line, bool, error) {
	if len(r.pending) > 0 {
		l := r.pending[0]
		r.pending = r.pending[1:]
		return l, true, nil
	}
	return r.readLine()
}

func (r *Resolver) peekLine(i int) (line, bool, error) {
	for len(r.pending) <= i {
		l, ok, err := r.readLine()
		if err != nil || !ok {
			return line{}, false, err
		}
		r.pending = append(r.pending, l)
	}
	return r.pending[i], true, nil
}

// readLine reads tokens through the next line ending. A non-token item ends
// the line before it and is returned on its own.
func (r *Resolver) readLine() (line, bool, error) {
	var tokens []types.Token
	for {
		d, err := r.Inner.Next()
		if errors.Is(err, io.EOF) {
			return line{tokens: tokens}, len(tokens) > 0, nil
		}
		if err != nil {
			return line{}, false, err
		}
		tok, ok := d.(types.Token)
		if !ok {
			if len(tokens) == 0 {
				return line{other: d}, true, nil
			}
			r.Inner.Unshift(d)
			return line{tokens: tokens}, true, nil
		}
		tokens = append(tokens, tok)
		if tok.Is(types.EndOfLine) && !tok.IsSkipped() {
			return line{tokens: tokens}, true, nil
		}
	}
}

func skip(t types.Token) types.Token {
	return t.Retag(types.ProgramTextArea, types.Skipped)
}

func isContent(t types.Token) bool {
	return t.Is(types.ProgramTextArea) && !t.IsBlank() && !t.IsSkipped() && !t.Is(types.Comment)
}

func lastContent(tokens []types.Token) int {
	for i := len(tokens) - 1; i >= 0; i-- {
		if isContent(tokens[i]) {
			return i
		}
	}
	return -1
}

func firstContent(tokens []types.Token) int {
	for i, t := range tokens {
		if isContent(t) {
			return i
		}
	}
	return -1
}

// contentRun returns the program text tokens from index i up to the first
// comment, skipped token, other area or line ending.
func contentRun(tokens []types.Token, i int) []types.Token {
	j := i
	for j < len(tokens) {
		t := tokens[j]
		if !t.Is(types.ProgramTextArea) || t.IsSkipped() || t.Is(types.EndOfLine) {
			break
		}
		j++
	}
	return tokens[i:j]
}

func isDirective(tokens []types.Token) bool {
	for _, t := range tokens {
		if t.Is(types.CompilerDirective) && !t.Is(types.EndOfLine) {
			return true
		}
	}
	return false
}

func blankOrComment(tokens []types.Token) bool {
	return firstContent(tokens) < 0 && !isDirective(tokens)
}

// continued reports whether a line carries an unhandled continuation indicator.
func continued(tokens []types.Token) bool {
	for _, t := range tokens {
		if t.Is(types.IndicatorArea) && t.Text == "-" && !t.IsSkipped() {
			return true
		}
	}
	return false
}
