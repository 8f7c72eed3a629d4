package scanner

import (
	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// ContentItem represents a source text to preprocess.
type ContentItem struct {
	Source  string `json:"source"`           // resource name, e.g. "PROG.cbl"
	Content string `json:"content"`          // the source text
	Format  string `json:"format,omitempty"` // optional initial format
}

// Point is a position in JSON form.
type Point struct {
	Resource string `json:"resource,omitempty"`
	Offset   int    `json:"offset"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

// NewPoint converts a position.
func NewPoint(p types.Position) Point {
	return Point{Resource: p.Resource, Offset: p.Offset, Line: p.Line, Column: p.Column}
}

// Token is a preprocessed token in JSON form. Depth counts the replacement
// levels the token stands in for.
type Token struct {
	Text  string   `json:"text"`
	Tags  []string `json:"tags"`
	Start Point    `json:"start"`
	End   Point    `json:"end"`
	Depth int      `json:"depth,omitempty"`
}

// NewToken converts a token.
func NewToken(t types.Token) Token {
	return Token{
		Text:  t.Text,
		Tags:  t.Tags.Names(),
		Start: NewPoint(t.Start),
		End:   NewPoint(t.End),
		Depth: t.ReplacedBy.Depth(),
	}
}

// Diagnostic is a diagnostic in JSON form.
type Diagnostic struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Start    Point  `json:"start"`
	End      Point  `json:"end"`
}

// NewDiagnostic converts a diagnostic.
func NewDiagnostic(d diag.Diagnostic) Diagnostic {
	return Diagnostic{
		Severity: d.Severity.String(),
		Code:     string(d.Code),
		Message:  d.Message,
		Start:    NewPoint(d.Start),
		End:      NewPoint(d.End),
	}
}

// Result represents the preprocessing result for a single item.
type Result struct {
	Source      string       `json:"source"`
	ID          string       `json:"id"`
	Format      string       `json:"format"` // format in effect at the end of the source
	Text        string       `json:"text"`
	Tokens      []Token      `json:"tokens,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// BatchResult represents batch preprocessing results.
type BatchResult struct {
	Results     []Result `json:"results"`
	Diagnostics int      `json:"diagnostics"`
}

// Stats counts stored sources and diagnostics.
type Stats struct {
	Sources     int            `json:"sources"`
	Diagnostics int            `json:"diagnostics"`
	ByCode      map[string]int `json:"by_code"`
}
