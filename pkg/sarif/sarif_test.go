package sarif

import (
	"encoding/json"
	"testing"

	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/praetorian-inc/cobprep/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notFound() diag.Diagnostic {
	tok := types.NewToken("COPY", types.Position{Resource: "PROG.cbl", Offset: 107, Line: 10, Column: 8}, types.Word)
	return diag.At(diag.Warning, diag.CopybookNotFound, tok, "copybook %s not found", "CUSTREC")
}

func TestNewReport(t *testing.T) {
	report := NewReport()

	assert.Equal(t, SchemaURI, report.Schema)
	assert.Equal(t, Version, report.Version)
	require.Len(t, report.Runs, 1)
	assert.Equal(t, ToolName, report.Runs[0].Tool.Driver.Name)
	assert.Equal(t, ToolVersion, report.Runs[0].Tool.Driver.Version)
}

func TestAddRule(t *testing.T) {
	report := NewReport()

	report.AddRule(diag.CopyCycle)
	report.AddRule(diag.CopyCycle)

	require.Len(t, report.Runs[0].Tool.Driver.Rules, 1)
	rule := report.Runs[0].Tool.Driver.Rules[0]
	assert.Equal(t, "copy-cycle", rule.ID)
	assert.Equal(t, "CopyCycle", rule.Name)
	assert.Equal(t, diag.Descriptions[diag.CopyCycle], rule.ShortDescription.Text)
}

func TestAddRules(t *testing.T) {
	report := NewReport()
	report.AddRules()

	rules := report.Runs[0].Tool.Driver.Rules
	require.Len(t, rules, len(diag.Descriptions))
	for i := 1; i < len(rules); i++ {
		assert.Less(t, rules[i-1].ID, rules[i].ID)
	}
}

func TestAddResult(t *testing.T) {
	report := NewReport()
	report.AddResult(notFound(), "/src/PROG.cbl", "COPY CUSTREC.")

	require.Len(t, report.Runs[0].Results, 1)
	assert.Len(t, report.Runs[0].Tool.Driver.Rules, 1)

	result := report.Runs[0].Results[0]
	assert.Equal(t, "copybook-not-found", result.RuleID)
	assert.Equal(t, "warning", result.Level)
	assert.Equal(t, "copybook CUSTREC not found", result.Message.Text)

	location := result.Locations[0].PhysicalLocation
	assert.Equal(t, "file:///src/PROG.cbl", location.ArtifactLocation.URI)
	assert.Equal(t, 10, location.Region.StartLine)
	assert.Equal(t, 8, location.Region.StartColumn)
	assert.Equal(t, 10, location.Region.EndLine)
	assert.Equal(t, 11, location.Region.EndColumn)
	require.NotNil(t, location.Region.Snippet)
	assert.Equal(t, "COPY CUSTREC.", location.Region.Snippet.Text)
}

func TestAddResult_ZeroEnd(t *testing.T) {
	report := NewReport()
	d := diag.Diagnostic{
		Severity: diag.Info,
		Code:     diag.DirectiveUnknown,
		Message:  "unknown",
		Start:    types.Position{Line: 3, Column: 7},
	}
	report.AddResult(d, "rel/PROG.cbl", "")

	result := report.Runs[0].Results[0]
	assert.Equal(t, "note", result.Level)
	region := result.Locations[0].PhysicalLocation.Region
	assert.Equal(t, 3, region.EndLine)
	assert.Equal(t, 7, region.EndColumn)
	assert.Nil(t, region.Snippet)
	assert.Equal(t, "rel/PROG.cbl", result.Locations[0].PhysicalLocation.ArtifactLocation.URI)
}

func TestLevel(t *testing.T) {
	assert.Equal(t, "note", Level(diag.Info))
	assert.Equal(t, "warning", Level(diag.Warning))
	assert.Equal(t, "error", Level(diag.Error))
}

func TestToJSON(t *testing.T) {
	report := NewReport()
	report.AddResult(notFound(), "/test/PROG.cbl", "")

	jsonBytes, err := report.ToJSON()
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(jsonBytes, &parsed))
	assert.Equal(t, SchemaURI, parsed["$schema"])
	assert.Equal(t, Version, parsed["version"])
	assert.NotContains(t, string(jsonBytes), `"snippet"`)
}
