package main

import (
	"fmt"

	"github.com/praetorian-inc/cobprep/pkg/copybook"
	"github.com/spf13/cobra"
)

var (
	locateLibrary       string
	locateSource        string
	locateCopybookPaths []string
)

var locateCmd = &cobra.Command{
	Use:   "locate <text-name>",
	Short: "Show which file a COPY statement would include",
	Long: `Resolve a copybook name the way COPY does: the including source's
directory first, then every copybook path in order. Within each directory a
subdirectory named like the library is searched before the directory itself.`,
	Args: cobra.ExactArgs(1),
	RunE: runLocate,
}

func init() {
	locateCmd.Flags().StringVar(&locateLibrary, "library", "", "Library name (COPY x OF library)")
	locateCmd.Flags().StringVar(&locateSource, "source", "", "Including source file")
	locateCmd.Flags().StringSliceVarP(&locateCopybookPaths, "copybook-path", "I", nil, "Copybook search directory (repeatable, searched first)")
}

func runLocate(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	searchPaths := append(append([]string(nil), locateCopybookPaths...), c.CopybookPaths...)

	locator := copybook.NewLocator(c.Classifier())
	path, ok := locator.Locate(args[0], locateLibrary, locateSource, searchPaths)
	if !ok {
		name := args[0]
		if locateLibrary != "" {
			name += " OF " + locateLibrary
		}
		return fmt.Errorf("copybook not found: %s", name)
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
