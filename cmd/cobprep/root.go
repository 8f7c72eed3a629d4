package main

import (
	"fmt"

	"github.com/praetorian-inc/cobprep/pkg/config"
	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "cobprep",
	Short: "cobprep - COBOL source preprocessor",
	Long: `cobprep prepares COBOL sources for parsing. It reads fixed, free and
variable format sources, honours compiler directives, joins continuation
lines, expands COPY statements and applies REPLACE and COPY REPLACING.

The result is a token stream in which every token keeps the position of the
original text it came from.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: cobprep.yaml or cobprep.toml in the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (include info diagnostics)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	rootCmd.AddCommand(preprocessCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(directivesCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration named by --config, or discovers one in
// the working directory, and applies environment overrides.
func loadConfig() (*config.Config, error) {
	var (
		c   *config.Config
		err error
	)
	if configPath != "" {
		c, err = config.Load(configPath)
	} else {
		c, _, err = config.Discover(".")
	}
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	c.ApplyEnv()
	return c, nil
}

// logLevel is the lowest severity printed to stderr.
func logLevel() diag.Severity {
	switch {
	case quiet:
		return diag.Error
	case verbose:
		return diag.Info
	default:
		return diag.Warning
	}
}
