package types

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Replaced marks a token as standing in for a span of enclosing original
// text, such as a COPY statement or a REPLACING match. Outer links to the
// span the enclosing text itself stands in for.
type Replaced struct {
	OriginalStart Position
	OriginalEnd   Position
	Outer         *Replaced
}

// Depth counts the nesting levels of the replacement chain.
func (r *Replaced) Depth() int {
	n := 0
	for ; r != nil; r = r.Outer {
		n++
	}
	return n
}

// Token is an immutable span of text. All derivations return new tokens.
type Token struct {
	Text       string
	Start      Position
	End        Position
	Tags       Tag
	Ranges     []Range
	ReplacedBy *Replaced
}

// NewToken creates a token for text that lies on a single line starting at start.
func NewToken(text string, start Position, tags Tag) Token {
	n := utf8.RuneCountInString(text)
	end := start
	if n > 0 {
		end = start.OffsetBy(n - 1)
	}
	t := Token{Text: text, Start: start, End: end, Tags: tags}
	if n > 0 {
		t.Ranges = []Range{{Start: start, End: end}}
	}
	return t
}

func (Token) isData() {}

// Length is the number of characters in the token text.
func (t Token) Length() int {
	return utf8.RuneCountInString(t.Text)
}

// Is reports whether all of the given tags are set.
func (t Token) Is(tags Tag) bool {
	return t.Tags.Has(tags)
}

// IsSkipped reports whether the token is connective material that must not
// be parsed as content.
func (t Token) IsSkipped() bool {
	return t.Tags.Has(Skipped)
}

// IsBlank reports whether the token is whitespace or a line ending.
func (t Token) IsBlank() bool {
	return t.Tags.Any(Whitespace|EndOfLine) || strings.TrimSpace(t.Text) == ""
}

// WithTags returns a copy with the given tags added.
func (t Token) WithTags(tags Tag) Token {
	t.Tags |= tags
	return t
}

// WithoutTags returns a copy with the given tags removed.
func (t Token) WithoutTags(tags Tag) Token {
	t.Tags &^= tags
	return t
}

// Retag returns a copy with remove cleared and add set.
func (t Token) Retag(remove, add Tag) Token {
	t.Tags = (t.Tags &^ remove) | add
	return t
}

// MarkReplaced returns a copy standing in for the given original span.
func (t Token) MarkReplaced(r *Replaced) Token {
	t.ReplacedBy = r
	return t
}

// OriginalRanges returns the ranges of original text the token covers.
func (t Token) OriginalRanges() []Range {
	if len(t.Ranges) > 0 {
		return t.Ranges
	}
	if t.Text == "" {
		return nil
	}
	return []Range{{Start: t.Start, End: t.End}}
}

// Slice returns the characters [from, to) of the token as a new token.
// Positions and provenance ranges are mapped through the original ranges.
func (t Token) Slice(from, to int) Token {
	runes := []rune(t.Text)
	if from < 0 {
		from = 0
	}
	if to > len(runes) {
		to = len(runes)
	}
	if from >= to {
		return Token{Start: t.Start, End: t.Start, Tags: t.Tags, ReplacedBy: t.ReplacedBy}
	}

	out := Token{Text: string(runes[from:to]), Tags: t.Tags, ReplacedBy: t.ReplacedBy}
	ranges := t.OriginalRanges()
	if rangesLen(ranges) != len(runes) {
		// Synthesized text without a faithful mapping: keep positions linear.
		out.Start = t.Start.OffsetBy(from)
		out.End = t.Start.OffsetBy(to - 1)
		out.Ranges = []Range{{Start: out.Start, End: out.End}}
		return out
	}

	offset := 0
	for _, r := range ranges {
		n := r.Len()
		lo, hi := max(from, offset), min(to, offset+n)
		if lo < hi {
			out.Ranges = append(out.Ranges, Range{Start: r.At(lo - offset), End: r.At(hi - offset - 1)})
		}
		offset += n
	}
	out.Start = out.Ranges[0].Start
	out.End = out.Ranges[len(out.Ranges)-1].End
	return out
}

// SliceFrom returns the characters from index from to the end of the token.
func (t Token) SliceFrom(from int) Token {
	return t.Slice(from, utf8.RuneCountInString(t.Text))
}

// Join concatenates tokens into one, keeping every original range.
// The result carries the given tags and the first token's replacement marker.
func Join(tags Tag, tokens ...Token) Token {
	if len(tokens) == 0 {
		return Token{Tags: tags}
	}
	var sb strings.Builder
	out := Token{Tags: tags, ReplacedBy: tokens[0].ReplacedBy}
	first := true
	for _, tok := range tokens {
		if tok.Text == "" {
			continue
		}
		sb.WriteString(tok.Text)
		out.Ranges = append(out.Ranges, tok.OriginalRanges()...)
		if first {
			out.Start = tok.Start
			first = false
		}
		out.End = tok.End
	}
	out.Text = sb.String()
	if first {
		out.Start = tokens[0].Start
		out.End = tokens[0].Start
	}
	return out
}

// String renders the token for debugging.
func (t Token) String() string {
	return fmt.Sprintf("{%q %s-%s %s}", t.Text, t.Start, t.End, t.Tags)
}

func rangesLen(ranges []Range) int {
	n := 0
	for _, r := range ranges {
		n += r.Len()
	}
	return n
}

// Texts returns the text of every token.
func Texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Text
	}
	return out
}

// Concat concatenates the text of every token.
func Concat(tokens []Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Text)
	}
	return sb.String()
}
