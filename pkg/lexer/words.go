package lexer

import (
	"unicode"

	"github.com/praetorian-inc/cobprep/pkg/source"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// Tokenizer breaks program-text area tokens into words, numbers, strings,
// separators and whitespace.
type Tokenizer struct {
	source.Decorator
}

// NewTokenizer creates a tokenizer over inner.
func NewTokenizer(inner source.Source) *Tokenizer {
	return &Tokenizer{Decorator: source.Decorator{Inner: inner}}
}

// Next returns the next token.
func (t *Tokenizer) Next() (types.Data, error) {
	if d, ok := t.Pop(); ok {
		return d, nil
	}
	d, err := t.Inner.Next()
	if err != nil {
		return nil, err
	}
	tok, ok := d.(types.Token)
	if !ok || !tok.Is(types.ProgramTextArea) || tok.Tags.Any(types.SyntacticTags) || tok.IsSkipped() {
		return d, nil
	}
	parts := Tokenize(tok)
	if len(parts) == 0 {
		return tok, nil
	}
	source.UnshiftAll(t, parts[1:])
	return parts[0], nil
}

// Tokenize splits a program-text span into maximal runs. The pieces keep
// every non-syntactic tag of tok.
func Tokenize(tok types.Token) []types.Token {
	base := tok.WithoutTags(types.SyntacticTags)
	runes := []rune(tok.Text)
	var out []types.Token
	for i := 0; i < len(runes); {
		j, tag := scanRun(runes, i)
		out = append(out, base.Slice(i, j).WithTags(tag))
		i = j
	}
	return out
}

// scanRun returns the end of the run starting at i and its tags.
func scanRun(runes []rune, i int) (int, types.Tag) {
	r := runes[i]
	switch {
	case r == ' ' || r == '\t':
		j := i + 1
		for j < len(runes) && (runes[j] == ' ' || runes[j] == '\t') {
			j++
		}
		return j, types.Separator | types.Whitespace
	case r == '"' || r == '\'':
		return scanString(runes, i)
	case isDigit(r):
		j := i + 1
		for j < len(runes) && isDigit(runes[j]) {
			j++
		}
		return j, types.Number
	case unicode.IsLetter(r):
		j := i + 1
		for j < len(runes) && (unicode.IsLetter(runes[j]) || runes[j] == '-') {
			j++
		}
		return j, types.Word
	default:
		return i + 1, types.Separator
	}
}

// scanString scans a literal opened at i. A doubled quote is an escaped
// quote. A quote followed by "-" and nothing but blanks is a floating
// continuation and leaves the literal open.
func scanString(runes []rune, i int) (int, types.Tag) {
	quote := runes[i]
	for j := i + 1; j < len(runes); j++ {
		if runes[j] != quote {
			continue
		}
		if j+1 < len(runes) && runes[j+1] == quote {
			j++
			continue
		}
		if j+1 < len(runes) && runes[j+1] == '-' && isBlank(runes[j+2:]) {
			return j + 2, types.String | types.Incomplete | types.Floating
		}
		return j + 1, types.String
	}
	return len(runes), types.String | types.Incomplete
}

// IsFloating reports whether an incomplete literal ends in a floating
// continuation marker: its closing quote followed by "-". An open literal
// whose text merely ends in a doubled quote and "-" is not floating.
func IsFloating(tok types.Token) bool {
	return tok.Is(types.String | types.Incomplete | types.Floating)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isBlank(runes []rune) bool {
	for _, r := range runes {
		if r != ' ' && r != '\t' {
			return false
		}
	}
	return true
}
