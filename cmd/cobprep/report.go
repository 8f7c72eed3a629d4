package main

import (
	"encoding/json"
	"fmt"

	"github.com/praetorian-inc/cobprep/pkg/datastore"
	"github.com/praetorian-inc/cobprep/pkg/store"
	"github.com/spf13/cobra"
)

var (
	reportDatastore string
	reportFormat    string
	reportColor     string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a report from scan results",
	Long:  "Read sources and diagnostics from a datastore and output a summary report",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportDatastore, "datastore", "cobprep.ds", "Path to datastore directory or file")
	reportCmd.Flags().StringVar(&reportFormat, "format", "human", "Output format: human, json, sarif")
	reportCmd.Flags().StringVar(&reportColor, "color", "auto", "Color output: auto, always, never")
}

func runReport(cmd *cobra.Command, args []string) error {
	storePath, err := datastore.DatabasePath(reportDatastore)
	if err != nil {
		return err
	}

	s, err := store.New(store.Config{Path: storePath})
	if err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer s.Close()

	switch reportFormat {
	case "json":
		return outputReportJSON(cmd, s)
	case "human":
		return outputReportHuman(cmd, s)
	case "sarif":
		return outputStoreSARIF(cmd, s, datastore.OpenSources(reportDatastore))
	default:
		return fmt.Errorf("unknown output format: %s", reportFormat)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func outputReportJSON(cmd *cobra.Command, s store.Store) error {
	results, err := storedResults(s, false)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

func outputReportHuman(cmd *cobra.Command, s store.Store) error {
	out := cmd.OutOrStdout()

	enabled, err := colorEnabled(reportColor, out)
	if err != nil {
		return err
	}
	st := newStyles(enabled)

	results, err := storedResults(s, false)
	if err != nil {
		return err
	}
	diagnosed := 0
	total := 0
	for _, r := range results {
		if len(r.Diagnostics) > 0 {
			diagnosed++
			total += len(r.Diagnostics)
		}
	}

	fmt.Fprintf(out, "%s %d sources, %d with diagnostics\n", st.heading.Sprint("Datastore:"), len(results), diagnosed)
	if total == 0 {
		fmt.Fprintf(out, "\nNo diagnostics.\n")
		return nil
	}

	n := 0
	for _, r := range results {
		if len(r.Diagnostics) == 0 {
			continue
		}
		n++
		fmt.Fprintf(out, "\n%s (%s %s)\n",
			st.path.Sprintf("Source %d/%d: %s", n, diagnosed, r.Source),
			st.heading.Sprint("id"),
			st.id.Sprint(r.ID))
		fmt.Fprintf(out, "%s %s\n", st.heading.Sprint("Format:"), st.metadata.Sprint(r.Format))

		for _, d := range r.Diagnostics {
			sev := st.info
			switch d.Severity {
			case "error":
				sev = st.fail
			case "warning":
				sev = st.warn
			}
			location := fmt.Sprintf("%d:%d", d.Start.Line, d.Start.Column)
			if d.Start.Resource != "" && d.Start.Resource != r.Source {
				location = d.Start.Resource + ":" + location
			}
			fmt.Fprintf(out, "  %-7s %s  %s %s\n",
				sev.Sprint(d.Severity),
				location,
				d.Message,
				st.metadata.Sprintf("(%s)", d.Code))
		}
	}

	fmt.Fprintf(out, "\n%d diagnostic(s) in %d source(s)\n", total, diagnosed)
	return nil
}
