package sarif

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"

	"github.com/praetorian-inc/cobprep/pkg/diag"
)

// SARIF 2.1.0 constants
const (
	SchemaURI   = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version     = "2.1.0"
	ToolName    = "cobprep"
	ToolVersion = "0.1.0"
)

// Report is the top-level SARIF report structure
type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single invocation of the tool
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool describes the analysis tool
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver contains tool metadata
type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Rule describes one diagnostic code
type Rule struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	ShortDescription ShortDescription `json:"shortDescription"`
	HelpURI          string           `json:"helpUri,omitempty"`
}

// ShortDescription contains rule description text
type ShortDescription struct {
	Text string `json:"text"`
}

// Result represents a single diagnostic
type Result struct {
	RuleID    string     `json:"ruleId"`
	Level     string     `json:"level"`
	Message   Message    `json:"message"`
	Locations []Location `json:"locations"`
}

// Message contains the result message
type Message struct {
	Text string `json:"text"`
}

// Location describes where a result was found
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation specifies file location
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

// ArtifactLocation identifies the file
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region specifies the line/column range
type Region struct {
	StartLine   int      `json:"startLine"`
	StartColumn int      `json:"startColumn"`
	EndLine     int      `json:"endLine"`
	EndColumn   int      `json:"endColumn"`
	Snippet     *Snippet `json:"snippet,omitempty"`
}

// Snippet contains the source text the diagnostic points at
type Snippet struct {
	Text string `json:"text"`
}

// NewReport creates a new SARIF report with initialized structure
func NewReport() *Report {
	return &Report{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:    ToolName,
						Version: ToolVersion,
						Rules:   []Rule{},
					},
				},
				Results: []Result{},
			},
		},
	}
}

// AddRule adds the rule describing a diagnostic code. Codes already
// present are ignored.
func (r *Report) AddRule(code diag.Code) {
	driver := &r.Runs[0].Tool.Driver
	for _, rule := range driver.Rules {
		if rule.ID == string(code) {
			return
		}
	}
	driver.Rules = append(driver.Rules, Rule{
		ID:   string(code),
		Name: ruleName(code),
		ShortDescription: ShortDescription{
			Text: diag.Descriptions[code],
		},
	})
}

// AddRules adds a rule for every known diagnostic code in code order.
func (r *Report) AddRules() {
	codes := make([]string, 0, len(diag.Descriptions))
	for code := range diag.Descriptions {
		codes = append(codes, string(code))
	}
	sort.Strings(codes)
	for _, code := range codes {
		r.AddRule(diag.Code(code))
	}
}

// AddResult adds a diagnostic result to the report. snippet is optional.
func (r *Report) AddResult(d diag.Diagnostic, filePath, snippet string) {
	r.AddRule(d.Code)

	region := Region{
		StartLine:   d.Start.Line,
		StartColumn: d.Start.Column,
		EndLine:     d.End.Line,
		EndColumn:   d.End.Column,
	}
	if region.EndLine < region.StartLine {
		region.EndLine, region.EndColumn = region.StartLine, region.StartColumn
	}
	if snippet != "" {
		region.Snippet = &Snippet{Text: snippet}
	}

	result := Result{
		RuleID: string(d.Code),
		Level:  Level(d.Severity),
		Message: Message{
			Text: d.Message,
		},
		Locations: []Location{
			{
				PhysicalLocation: PhysicalLocation{
					ArtifactLocation: ArtifactLocation{
						URI: formatFileURI(filePath),
					},
					Region: region,
				},
			},
		},
	}

	r.Runs[0].Results = append(r.Runs[0].Results, result)
}

// Level maps a severity onto a SARIF result level.
func Level(s diag.Severity) string {
	switch s {
	case diag.Error:
		return "error"
	case diag.Warning:
		return "warning"
	default:
		return "note"
	}
}

// ruleName turns "copy-cycle" into "CopyCycle".
func ruleName(code diag.Code) string {
	var sb strings.Builder
	for _, part := range strings.Split(string(code), "-") {
		if part == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(part[:1]))
		sb.WriteString(part[1:])
	}
	return sb.String()
}

// ToJSON serializes the report to JSON bytes
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// formatFileURI converts a file path to SARIF URI format
// Absolute paths get file:// prefix, relative paths stay as-is
func formatFileURI(path string) string {
	if filepath.IsAbs(path) {
		// Normalize path separators for URI format
		path = filepath.ToSlash(path)
		// Ensure path starts with /
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return "file://" + path
	}
	// Relative paths stay as-is
	return filepath.ToSlash(path)
}
