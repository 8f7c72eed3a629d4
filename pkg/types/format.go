package types

import (
	"fmt"
	"strings"
)

// SourceFormat is the reference format a source line is laid out in.
type SourceFormat int

const (
	FormatFixed SourceFormat = iota
	FormatFree
	FormatVariable
)

// String returns the format keyword.
func (f SourceFormat) String() string {
	switch f {
	case FormatFixed:
		return "FIXED"
	case FormatFree:
		return "FREE"
	case FormatVariable:
		return "VARIABLE"
	default:
		return "UNKNOWN"
	}
}

// Tag returns the token tag carrying this format.
func (f SourceFormat) Tag() Tag {
	switch f {
	case FormatFree:
		return Free
	case FormatVariable:
		return Variable
	default:
		return Fixed
	}
}

// ParseSourceFormat parses FIXED, FREE or VARIABLE, ignoring case and quotes.
func ParseSourceFormat(s string) (SourceFormat, error) {
	switch strings.ToUpper(strings.Trim(strings.TrimSpace(s), `"'`)) {
	case "FIXED":
		return FormatFixed, nil
	case "FREE":
		return FormatFree, nil
	case "VARIABLE":
		return FormatVariable, nil
	default:
		return FormatFixed, fmt.Errorf("unknown source format %q", s)
	}
}

// FormatOf returns the format a token is tagged with.
func FormatOf(t Token) (SourceFormat, bool) {
	switch {
	case t.Tags.Has(Free):
		return FormatFree, true
	case t.Tags.Has(Variable):
		return FormatVariable, true
	case t.Tags.Has(Fixed):
		return FormatFixed, true
	default:
		return FormatFixed, false
	}
}
