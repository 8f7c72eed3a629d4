// Package lexer holds the stages that split lines into reference-format
// areas, break program text into words and mark inline comments.
package lexer

import (
	"errors"
	"fmt"

	"github.com/praetorian-inc/cobprep/pkg/source"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// DefaultTabLength is the number of columns a tab advances by default.
const DefaultTabLength = 8

// ErrInvalidTabLength is returned for a tab length below 1.
var ErrInvalidTabLength = errors.New("tab length must be at least 1")

// Fixed-format column layout.
const (
	sequenceEnd    = 6
	indicatorCol   = 7
	programTextEnd = 72
)

// commentIndicators mark the program text of a fixed or variable line as
// a comment. Debugging lines are treated as comments.
var commentIndicators = map[string]bool{"*": true, "/": true, "D": true, "d": true, "$": true}

// width is the number of columns r occupies.
func width(r rune, tabLength int) int {
	if r == '\t' && tabLength != 1 {
		return tabLength
	}
	return 1
}

// Columns returns the number of columns text occupies with tabs expanded to
// tabLength columns.
func Columns(text string, tabLength int) int {
	if tabLength == 1 {
		return len([]rune(text))
	}
	n := 0
	for _, r := range text {
		n += width(r, tabLength)
	}
	return n
}

// Splitter splits each line into area tokens according to the format the
// line is tagged with.
type Splitter struct {
	source.Decorator
	tabLength int
}

// NewSplitter creates a splitter over inner.
func NewSplitter(inner source.Source, tabLength int) (*Splitter, error) {
	if tabLength < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTabLength, tabLength)
	}
	return &Splitter{Decorator: source.Decorator{Inner: inner}, tabLength: tabLength}, nil
}

// Next returns the next area token.
func (s *Splitter) Next() (types.Data, error) {
	if d, ok := s.Pop(); ok {
		return d, nil
	}
	d, err := s.Inner.Next()
	if err != nil {
		return nil, err
	}
	tok, ok := d.(types.Token)
	if !ok || tok.Tags.Any(types.AreaTags) || tok.IsSkipped() {
		return d, nil
	}
	if tok.Is(types.EndOfLine) {
		return tok.WithTags(types.ProgramTextArea), nil
	}
	if tok.Is(types.CompilerDirective) || tok.Text == "" {
		return tok, nil
	}

	parts := s.Split(tok)
	source.UnshiftAll(s, parts[1:])
	return parts[0], nil
}

// Split divides one line content token into its areas. Areas of zero width
// are omitted.
func (s *Splitter) Split(tok types.Token) []types.Token {
	if tok.Text == "" {
		return []types.Token{tok}
	}
	format, _ := types.FormatOf(tok)
	switch format {
	case types.FormatFree:
		return splitFree(tok)
	case types.FormatVariable:
		return s.splitColumns(tok, false)
	default:
		return s.splitColumns(tok, true)
	}
}

func (s *Splitter) splitColumns(tok types.Token, bounded bool) []types.Token {
	areaAt := func(col int) types.Tag {
		switch {
		case col <= sequenceEnd:
			return types.SequenceNumberArea
		case col == indicatorCol:
			return types.IndicatorArea
		case bounded && col > programTextEnd:
			return types.IdentificationArea
		default:
			return types.ProgramTextArea
		}
	}

	var parts []types.Token
	col := tok.Start.Column
	if col < 1 {
		col = 1
	}
	start, current := 0, types.Tag(0)
	i := 0
	for _, r := range tok.Text {
		area := areaAt(col)
		if i > 0 && area != current {
			parts = append(parts, tok.Slice(start, i).WithTags(current))
			start = i
		}
		current = area
		col += width(r, s.tabLength)
		i++
	}
	parts = append(parts, tok.Slice(start, i).WithTags(current))

	comment := false
	for j, p := range parts {
		if p.Is(types.IndicatorArea) {
			comment = commentIndicators[p.Text]
		}
		if comment && p.Is(types.ProgramTextArea) {
			parts[j] = p.Retag(types.ProgramTextArea, types.Comment)
		}
	}
	return parts
}

// splitFree marks full-line comments in free format: a first character of
// "*", "/" or "$", or a debugging "D" followed by a space. A "D" or "d"
// followed by anything else starts program text such as DISPLAY or DATA.
func splitFree(tok types.Token) []types.Token {
	runes := []rune(tok.Text)
	switch {
	case len(runes) >= 2 && (runes[0] == 'D' || runes[0] == 'd') && runes[1] == ' ':
	case runes[0] == '*' || runes[0] == '/' || runes[0] == '$':
	default:
		return []types.Token{tok.WithTags(types.ProgramTextArea)}
	}
	parts := []types.Token{tok.Slice(0, 1).WithTags(types.IndicatorArea)}
	if len(runes) > 1 {
		parts = append(parts, tok.SliceFrom(1).WithTags(types.Comment))
	}
	return parts
}
