package main

import (
	"fmt"

	"github.com/praetorian-inc/cobprep/pkg/datastore"
	"github.com/praetorian-inc/cobprep/pkg/store"
	"github.com/spf13/cobra"
)

var (
	mergeOutput string
)

var mergeCmd = &cobra.Command{
	Use:   "merge <datastore1> <datastore2> [datastore3...]",
	Short: "Merge multiple cobprep datastores",
	Long: `Merge multiple cobprep datastores into a single output database.

This is useful for combining results from scans of separate source trees
or from scans split across machines. Each argument is a datastore
directory or its database file.

Deduplication is automatic - a source preprocessed in more than one scan
is stored once, with the provenance of every scan.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "merged.db", "Output database path")
}

func runMerge(cmd *cobra.Command, args []string) error {
	paths := make([]string, 0, len(args))
	for _, arg := range args {
		p, err := datastore.DatabasePath(arg)
		if err != nil {
			return err
		}
		paths = append(paths, p)
	}

	stats, err := store.Merge(store.MergeConfig{
		SourcePaths: paths,
		DestPath:    mergeOutput,
	})
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Merge complete:\n")
	fmt.Fprintf(cmd.OutOrStdout(), "  Databases read: %d\n", stats.DatabasesRead)
	fmt.Fprintf(cmd.OutOrStdout(), "  Sources merged: %d\n", stats.SourcesMerged)
	fmt.Fprintf(cmd.OutOrStdout(), "  Provenance merged: %d\n", stats.ProvenanceMerged)
	fmt.Fprintf(cmd.OutOrStdout(), "  Tokens merged: %d\n", stats.TokensMerged)
	fmt.Fprintf(cmd.OutOrStdout(), "  Diagnostics merged: %d\n", stats.DiagnosticsMerged)
	fmt.Fprintf(cmd.OutOrStdout(), "Output: %s\n", mergeOutput)

	return nil
}
