package types

import "fmt"

// Position is a character position within a resource.
// Offset is 0-based and counts characters, Line and Column are 1-based.
type Position struct {
	Resource string
	Offset   int
	Line     int
	Column   int
}

// StartOf returns the position of the first character of a resource.
func StartOf(resource string) Position {
	return Position{Resource: resource, Offset: 0, Line: 1, Column: 1}
}

// OffsetBy returns the position n characters further along the same line.
func (p Position) OffsetBy(n int) Position {
	p.Offset += n
	p.Column += n
	return p
}

// String renders the position as resource:line:column.
func (p Position) String() string {
	if p.Resource == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Resource, p.Line, p.Column)
}

// Range is an inclusive span of original text.
type Range struct {
	Start Position
	End   Position
}

// Len is the number of characters the range covers.
func (r Range) Len() int {
	return r.End.Offset - r.Start.Offset + 1
}

// At returns the position of the i-th character of the range.
func (r Range) At(i int) Position {
	return r.Start.OffsetBy(i)
}

// Contains reports whether p falls within the range of the same resource.
func (r Range) Contains(p Position) bool {
	return p.Resource == r.Start.Resource && p.Offset >= r.Start.Offset && p.Offset <= r.End.Offset
}
