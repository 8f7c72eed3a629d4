package diag

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// Severity ranks a diagnostic.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

// String returns the lower-case severity name.
func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// ParseSeverity parses info, warning (or warn) and error.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return Info, nil
	case "warning", "warn":
		return Warning, nil
	case "error":
		return Error, nil
	default:
		return Info, fmt.Errorf("unknown severity %q", s)
	}
}

// Code identifies the kind of anomaly a diagnostic reports.
type Code string

const (
	CopyMalformed       Code = "copy-malformed"
	CopybookNotFound    Code = "copybook-not-found"
	CopyCycle           Code = "copy-cycle"
	CopyDepth           Code = "copy-depth"
	ReplaceMalformed    Code = "replace-malformed"
	ReplaceStackEmpty   Code = "replace-stack-empty"
	ContinuationMissing Code = "continuation-missing"
	DirectiveUnknown    Code = "directive-unknown"
)

// Descriptions holds a one-line description per code.
var Descriptions = map[Code]string{
	CopyMalformed:       "COPY statement could not be parsed; its text was kept unexpanded",
	CopybookNotFound:    "copybook could not be located; the COPY statement was kept unexpanded",
	CopyCycle:           "copybook includes itself; the nested COPY was kept unexpanded",
	CopyDepth:           "copybook nesting exceeds the configured depth",
	ReplaceMalformed:    "REPLACE statement could not be parsed; its text was kept unchanged",
	ReplaceStackEmpty:   "REPLACE OFF LAST with no active REPLACE",
	ContinuationMissing: "line requires a continuation that does not follow; lines were kept apart",
	DirectiveUnknown:    "compiler directive not understood; it has no effect",
}

// Diagnostic is a recoverable anomaly found while preprocessing.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Start    types.Position
	End      types.Position
}

// String renders the diagnostic as "[sev] pos: message (code)".
func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] %s: %s (%s)", shortSeverity(d.Severity), d.Start, d.Message, d.Code)
}

// At builds a diagnostic spanning a token.
func At(sev Severity, code Code, tok types.Token, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Start:    tok.Start,
		End:      tok.End,
	}
}

// Logger receives diagnostics from pipeline stages.
type Logger interface {
	Log(d Diagnostic)
}

// NoopLogger drops every diagnostic.
type NoopLogger struct{}

func (NoopLogger) Log(Diagnostic) {}

// OrNoop returns l, or a NoopLogger when l is nil.
func OrNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}

// Collector accumulates diagnostics and optionally forwards them.
// It is safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
	next  Logger
}

// NewCollector creates a collector forwarding to next (which may be nil).
func NewCollector(next Logger) *Collector {
	return &Collector{next: next}
}

// Log records d and forwards it.
func (c *Collector) Log(d Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()
	if c.next != nil {
		c.next.Log(d)
	}
}

// Diagnostics returns a copy of everything logged so far.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Count returns how many diagnostics are at or above min.
func (c *Collector) Count(min Severity) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.items {
		if d.Severity >= min {
			n++
		}
	}
	return n
}

// Reset forgets every collected diagnostic.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

// WriterLogger prints diagnostics at or above Min, one per line.
type WriterLogger struct {
	mu    sync.Mutex
	w     io.Writer
	min   Severity
	color bool
}

// NewWriterLogger creates a logger writing to w. Colors use fatih/color
// and are only emitted when enabled.
func NewWriterLogger(w io.Writer, min Severity, enableColor bool) *WriterLogger {
	return &WriterLogger{w: w, min: min, color: enableColor}
}

// Log writes d when it is severe enough.
func (l *WriterLogger) Log(d Diagnostic) {
	if d.Severity < l.min {
		return
	}
	label := "[" + shortSeverity(d.Severity) + "]"
	if l.color {
		label = severityColor(d.Severity).Sprint(label)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%s %s: %s (%s)\n", label, d.Start, d.Message, d.Code)
}

func shortSeverity(s Severity) string {
	if s == Warning {
		return "warn"
	}
	return s.String()
}

func severityColor(s Severity) *color.Color {
	c := color.New(color.FgHiBlue)
	switch s {
	case Warning:
		c = color.New(color.FgYellow)
	case Error:
		c = color.New(color.Bold, color.FgRed)
	}
	c.EnableColor()
	return c
}
