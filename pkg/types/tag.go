package types

import "strings"

// Tag is a set of symbolic markers carried by a token.
type Tag uint64

// Area tags.
const (
	SequenceNumberArea Tag = 1 << iota
	IndicatorArea
	ProgramTextArea
	IdentificationArea
	Comment

	// Syntactic tags.
	Word
	Number
	String
	Separator
	Whitespace
	EndOfLine
	Incomplete

	// Source format tags.
	Fixed
	Free
	Variable

	// Directive tags.
	CompilerDirective
	ReplaceStatement

	// Markers.
	Skipped
	Handled

	// Floating marks an incomplete literal closed by its quote and a "-"
	// that continues it on the next line.
	Floating
)

// Tag groups.
const (
	AreaTags      = SequenceNumberArea | IndicatorArea | ProgramTextArea | IdentificationArea | Comment
	SyntacticTags = Word | Number | String | Separator | Whitespace | EndOfLine | Incomplete | Floating
	FormatTags    = Fixed | Free | Variable
)

var tagNames = []struct {
	tag  Tag
	name string
}{
	{SequenceNumberArea, "SEQUENCE_NUMBER_AREA"},
	{IndicatorArea, "INDICATOR_AREA"},
	{ProgramTextArea, "PROGRAM_TEXT_AREA"},
	{IdentificationArea, "IDENTIFICATION_AREA"},
	{Comment, "COMMENT"},
	{Word, "WORD"},
	{Number, "NUMBER"},
	{String, "STRING"},
	{Separator, "SEPARATOR"},
	{Whitespace, "WHITESPACE"},
	{EndOfLine, "END_OF_LINE"},
	{Incomplete, "INCOMPLETE"},
	{Floating, "FLOATING"},
	{Fixed, "FIXED"},
	{Free, "FREE"},
	{Variable, "VARIABLE"},
	{CompilerDirective, "COMPILER_DIRECTIVE"},
	{ReplaceStatement, "REPLACE_STATEMENT"},
	{Skipped, "SKIPPED"},
	{Handled, "HANDLED"},
}

// Has reports whether every tag in other is set.
func (t Tag) Has(other Tag) bool {
	return other != 0 && t&other == other
}

// Any reports whether at least one tag in other is set.
func (t Tag) Any(other Tag) bool {
	return t&other != 0
}

// Names lists the set tags in declaration order.
func (t Tag) Names() []string {
	var names []string
	for _, tn := range tagNames {
		if t&tn.tag != 0 {
			names = append(names, tn.name)
		}
	}
	return names
}

// String returns the tag names joined with "|".
func (t Tag) String() string {
	if t == 0 {
		return "NONE"
	}
	return strings.Join(t.Names(), "|")
}

// ParseTags is the inverse of Tag.String. Unknown names are ignored.
func ParseTags(s string) Tag {
	var t Tag
	for _, name := range strings.Split(s, "|") {
		for _, tn := range tagNames {
			if tn.name == name {
				t |= tn.tag
			}
		}
	}
	return t
}
