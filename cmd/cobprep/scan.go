package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/praetorian-inc/cobprep/pkg/config"
	"github.com/praetorian-inc/cobprep/pkg/datastore"
	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/praetorian-inc/cobprep/pkg/enum"
	"github.com/praetorian-inc/cobprep/pkg/pipeline"
	"github.com/praetorian-inc/cobprep/pkg/sarif"
	"github.com/praetorian-inc/cobprep/pkg/scanner"
	"github.com/praetorian-inc/cobprep/pkg/store"
	"github.com/praetorian-inc/cobprep/pkg/types"
	"github.com/spf13/cobra"
)

var (
	scanFlags            pipelineFlags
	scanDatastore        string
	scanOutputFormat     string
	scanMaxFileSize      int64
	scanIncludeHidden    bool
	scanIncludeCopybooks bool
	scanWorkers          int
	scanIncremental      bool
	scanStoreSources     bool
	scanFailOn           string
)

var scanCmd = &cobra.Command{
	Use:   "scan <dir> [dir...]",
	Short: "Preprocess every COBOL source under one or more directories",
	Long:  "Walk directories, preprocess every COBOL program found and store tokens and diagnostics in a datastore",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScan,
}

func init() {
	scanFlags.register(scanCmd)
	scanCmd.Flags().StringVar(&scanDatastore, "datastore", "", "Datastore directory (default from configuration, cobprep.ds)")
	scanCmd.Flags().StringVar(&scanOutputFormat, "format", "human", "Output format: human, json, sarif")
	scanCmd.Flags().Int64Var(&scanMaxFileSize, "max-file-size", 0, "Maximum file size to preprocess in bytes (default from configuration)")
	scanCmd.Flags().BoolVar(&scanIncludeHidden, "include-hidden", false, "Include hidden files and directories")
	scanCmd.Flags().BoolVar(&scanIncludeCopybooks, "include-copybooks", false, "Preprocess copybooks as standalone sources")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Parallel workers (default one per CPU)")
	scanCmd.Flags().BoolVar(&scanIncremental, "incremental", false, "Skip sources already in the datastore")
	scanCmd.Flags().BoolVar(&scanStoreSources, "store-sources", false, "Keep a copy of every source in the datastore")
	scanCmd.Flags().StringVar(&scanFailOn, "fail-on", "never", "Exit non-zero on diagnostics at or above: warning, error, never")
}

// scanStats counts scan progress across workers.
type scanStats struct {
	sources     atomic.Int64
	skipped     atomic.Int64
	failed      atomic.Int64
	diagnostics atomic.Int64
}

func runScan(cmd *cobra.Command, args []string) error {
	for _, target := range args {
		if _, err := os.Stat(target); err != nil {
			return fmt.Errorf("target does not exist: %s", target)
		}
	}
	switch scanOutputFormat {
	case "human", "json", "sarif":
	default:
		return fmt.Errorf("unknown output format: %s", scanOutputFormat)
	}

	collector := diag.NewCollector(diag.NewWriterLogger(cmd.ErrOrStderr(), logLevel(), false))
	pcfg, c, err := scanFlags.pipelineConfig(collector)
	if err != nil {
		return err
	}
	applyScanFlags(&c.Scan)

	ds, err := datastore.Open(c.Scan.Datastore, datastore.Options{StoreSources: scanStoreSources})
	if err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer ds.Close()

	core, err := scanner.NewCore(pcfg, scanner.Options{}, ds.Store)
	if err != nil {
		return fmt.Errorf("creating preprocessor: %w", err)
	}

	roots := make([]enum.Enumerator, 0, len(args))
	for _, target := range args {
		roots = append(roots, enum.NewFilesystemEnumerator(enum.Config{
			Root:             target,
			Classifier:       c.Classifier(),
			IncludeCopybooks: c.Scan.IncludeCopybooks,
			IncludeHidden:    c.Scan.IncludeHidden,
			MaxFileSize:      c.Scan.MaxFileSize,
			Workers:          c.Scan.Workers,
		}))
	}
	enumerator := enum.NewCombinedEnumerator(roots...)

	var stats scanStats
	err = enumerator.Enumerate(context.Background(), func(content []byte, id types.SourceID, prov types.Provenance) error {
		return scanSource(cmd, core, ds, &stats, content, id, prov)
	})
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	// Summary goes to stderr for json/sarif so stdout stays machine-readable.
	out := cmd.OutOrStdout()
	if scanOutputFormat != "human" {
		out = cmd.ErrOrStderr()
	}
	fmt.Fprintf(out, "Scan complete: %d sources, %d diagnostics", stats.sources.Load(), stats.diagnostics.Load())
	if scanIncremental {
		fmt.Fprintf(out, " (%d sources skipped)", stats.skipped.Load())
	}
	if n := stats.failed.Load(); n > 0 {
		fmt.Fprintf(out, " (%d failed)", n)
	}
	if n := enumerator.Overlaps(); n > 0 {
		fmt.Fprintf(out, " (%d overlapping paths)", n)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Results stored in: %s\n", ds.Path)

	switch scanOutputFormat {
	case "json":
		if err := outputScanJSON(cmd, ds.Store); err != nil {
			return err
		}
	case "sarif":
		if err := outputStoreSARIF(cmd, ds.Store, ds.Sources); err != nil {
			return err
		}
	}

	return failOn(scanFailOn, collector)
}

// applyScanFlags overrides scan settings set on the command line.
func applyScanFlags(s *config.ScanConfig) {
	if scanDatastore != "" {
		s.Datastore = scanDatastore
	}
	if scanMaxFileSize != 0 {
		s.MaxFileSize = scanMaxFileSize
	}
	if scanIncludeHidden {
		s.IncludeHidden = true
	}
	if scanIncludeCopybooks {
		s.IncludeCopybooks = true
	}
	if scanWorkers != 0 {
		s.Workers = scanWorkers
	}
}

// scanSource preprocesses one enumerated file. A source that fails to
// preprocess is counted and reported but does not stop the scan.
func scanSource(cmd *cobra.Command, core *scanner.Core, ds *datastore.Datastore, stats *scanStats, content []byte, id types.SourceID, prov types.Provenance) error {
	if scanIncremental {
		exists, err := ds.Store.SourceExists(id)
		if err != nil {
			return fmt.Errorf("checking source: %w", err)
		}
		if exists {
			stats.skipped.Add(1)
			return ds.Store.AddProvenance(id, prov)
		}
	}

	result, err := core.Preprocess(string(content), prov.Path())
	if err != nil {
		stats.failed.Add(1)
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %v\n", prov.Path(), err)
		return nil
	}

	if err := ds.Store.AddProvenance(id, prov); err != nil {
		return fmt.Errorf("storing provenance: %w", err)
	}
	if ds.Sources != nil {
		if _, err := ds.Sources.Store(content); err != nil {
			return fmt.Errorf("storing source copy: %w", err)
		}
	}

	stats.sources.Add(1)
	stats.diagnostics.Add(int64(len(result.Diagnostics)))
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// storedResults rebuilds one result per stored source, ordered by path.
func storedResults(s store.Store, withText bool) ([]scanner.Result, error) {
	sources, err := s.GetSources()
	if err != nil {
		return nil, fmt.Errorf("retrieving sources: %w", err)
	}
	diags, err := s.GetDiagnostics()
	if err != nil {
		return nil, fmt.Errorf("retrieving diagnostics: %w", err)
	}
	bySource := make(map[types.SourceID][]scanner.Diagnostic)
	for _, d := range diags {
		bySource[d.SourceID] = append(bySource[d.SourceID], scanner.NewDiagnostic(d.Diagnostic))
	}

	results := make([]scanner.Result, 0, len(sources))
	for _, src := range sources {
		r := scanner.Result{
			Source:      src.Path,
			ID:          src.ID.Hex(),
			Format:      src.Format.String(),
			Diagnostics: bySource[src.ID],
		}
		if r.Diagnostics == nil {
			r.Diagnostics = []scanner.Diagnostic{}
		}
		if withText {
			tokens, err := s.GetTokens(src.ID)
			if err != nil {
				return nil, fmt.Errorf("retrieving tokens for %s: %w", src.Path, err)
			}
			r.Text = pipeline.Text(tokens)
		}
		results = append(results, r)
	}
	return results, nil
}

func outputScanJSON(cmd *cobra.Command, s store.Store) error {
	results, err := storedResults(s, true)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}

// outputStoreSARIF writes every stored diagnostic in SARIF 2.1.0 format.
// When source copies were kept, each result carries its source line.
func outputStoreSARIF(cmd *cobra.Command, s store.Store, sources *datastore.SourceStore) error {
	report := sarif.NewReport()
	report.AddRules()

	stored, err := s.GetSources()
	if err != nil {
		return fmt.Errorf("retrieving sources: %w", err)
	}
	paths := make(map[types.SourceID]string, len(stored))
	for _, src := range stored {
		paths[src.ID] = src.Path
	}

	diags, err := s.GetDiagnostics()
	if err != nil {
		return fmt.Errorf("retrieving diagnostics: %w", err)
	}
	for _, d := range diags {
		filePath := d.Start.Resource
		if filePath == "" {
			filePath = paths[d.SourceID]
		}
		if filePath == "" {
			filePath = d.SourceID.Hex()
		}
		var snippet string
		if sources != nil && filePath == paths[d.SourceID] {
			snippet, _ = sources.Line(d.SourceID, d.Start.Line)
		}
		report.AddResult(d.Diagnostic, filePath, snippet)
	}
	return writeSARIF(cmd, report)
}
