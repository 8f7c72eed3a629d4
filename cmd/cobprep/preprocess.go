package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/praetorian-inc/cobprep/pkg/pipeline"
	"github.com/praetorian-inc/cobprep/pkg/sarif"
	"github.com/praetorian-inc/cobprep/pkg/scanner"
	"github.com/praetorian-inc/cobprep/pkg/types"
	"github.com/spf13/cobra"
)

var (
	preprocessFlags  pipelineFlags
	preprocessFormat string
	preprocessColor  string
	preprocessFailOn string
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess <file>",
	Short: "Preprocess a COBOL source",
	Long: `Run the preprocessing pipeline over one source file ("-" reads stdin).

Output formats:
  text    the compilable text after expansion and replacement
  tokens  one line per token with its position and tags
  json    the token stream and diagnostics as JSON
  sarif   the diagnostics as SARIF 2.1.0`,
	Args: cobra.ExactArgs(1),
	RunE: runPreprocess,
}

func init() {
	preprocessFlags.register(preprocessCmd)
	preprocessCmd.Flags().StringVar(&preprocessFormat, "format", "text", "Output format: text, tokens, json, sarif")
	preprocessCmd.Flags().StringVar(&preprocessColor, "color", "auto", "Color diagnostics: auto, always, never")
	preprocessCmd.Flags().StringVar(&preprocessFailOn, "fail-on", "error", "Exit non-zero on diagnostics at or above: warning, error, never")
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	switch preprocessFormat {
	case "text", "tokens", "json", "sarif":
	default:
		return fmt.Errorf("unknown output format: %s", preprocessFormat)
	}

	useColor, err := colorEnabled(preprocessColor, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	collector := diag.NewCollector(diag.NewWriterLogger(cmd.ErrOrStderr(), logLevel(), useColor))

	pcfg, _, err := preprocessFlags.pipelineConfig(collector)
	if err != nil {
		return err
	}

	p, err := openPipeline(cmd, pcfg, args[0])
	if err != nil {
		return err
	}
	tokens, err := p.Tokens()
	if err != nil {
		return fmt.Errorf("preprocessing %s: %w", args[0], err)
	}

	switch preprocessFormat {
	case "text":
		_, err = fmt.Fprint(cmd.OutOrStdout(), pipeline.Text(tokens))
	case "tokens":
		err = outputTokens(cmd, tokens)
	case "json":
		err = outputPreprocessJSON(cmd, args[0], p.Format(), tokens, collector.Diagnostics())
	case "sarif":
		err = outputPreprocessSARIF(cmd, args[0], collector.Diagnostics())
	}
	if err != nil {
		return err
	}

	return failOn(preprocessFailOn, collector)
}

func openPipeline(cmd *cobra.Command, pcfg pipeline.Config, path string) (*pipeline.Pipeline, error) {
	if path == "-" {
		return pipeline.Open(pcfg, "stdin", cmd.InOrStdin())
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("source does not exist: %s", path)
	}
	return pipeline.OpenFile(pcfg, path)
}

// =============================================================================
// HELPERS
// =============================================================================

func outputTokens(cmd *cobra.Command, tokens []types.Token) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Start\tEnd\tText\tTags\n")
	fmt.Fprintf(w, "-----\t---\t----\t----\n")
	for _, tok := range tokens {
		tags := tok.Tags.String()
		if depth := tok.ReplacedBy.Depth(); depth > 0 {
			tags += fmt.Sprintf(" (replaced %d)", depth)
		}
		fmt.Fprintf(w, "%s\t%s\t%q\t%s\n", tok.Start, tok.End, tok.Text, tags)
	}
	return nil
}

func outputPreprocessJSON(cmd *cobra.Command, path string, format types.SourceFormat, tokens []types.Token, diags []diag.Diagnostic) error {
	result := scanner.Result{
		Source:      path,
		Format:      format.String(),
		Text:        pipeline.Text(tokens),
		Tokens:      make([]scanner.Token, 0, len(tokens)),
		Diagnostics: make([]scanner.Diagnostic, 0, len(diags)),
	}
	if content, err := readSource(path); err == nil {
		result.ID = types.ComputeSourceID(content).Hex()
	}
	for _, tok := range tokens {
		result.Tokens = append(result.Tokens, scanner.NewToken(tok))
	}
	for _, d := range diags {
		result.Diagnostics = append(result.Diagnostics, scanner.NewDiagnostic(d))
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// readSource rereads a file to compute its ID; stdin has none.
func readSource(path string) ([]byte, error) {
	if path == "-" {
		return nil, fmt.Errorf("stdin has no stable ID")
	}
	return os.ReadFile(path)
}

func outputPreprocessSARIF(cmd *cobra.Command, path string, diags []diag.Diagnostic) error {
	report := sarif.NewReport()
	report.AddRules()
	for _, d := range diags {
		file := d.Start.Resource
		if file == "" || file == "stdin" {
			file = path
		}
		report.AddResult(d, file, "")
	}
	return writeSARIF(cmd, report)
}

func writeSARIF(cmd *cobra.Command, report *sarif.Report) error {
	jsonBytes, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("serializing SARIF: %w", err)
	}
	if _, err := cmd.OutOrStdout().Write(append(jsonBytes, '\n')); err != nil {
		return fmt.Errorf("writing SARIF output: %w", err)
	}
	return nil
}

