package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/praetorian-inc/cobprep/pkg/config"
	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/praetorian-inc/cobprep/pkg/grammar"
	"github.com/praetorian-inc/cobprep/pkg/pipeline"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// pipelineFlags are the preprocessing flags shared by preprocess, scan and
// serve. Zero values leave the configuration untouched.
type pipelineFlags struct {
	format        string
	tabLength     int
	copybookPaths []string
	strict        bool
	maxDepth      int
	directives    string
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "source-format", "", "Initial source format: fixed, free, variable")
	cmd.Flags().IntVar(&f.tabLength, "tab-length", 0, "Columns a tab advances (default from configuration, 8)")
	cmd.Flags().StringSliceVarP(&f.copybookPaths, "copybook-path", "I", nil, "Copybook search directory (repeatable, searched first)")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Fail when a copybook cannot be located")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", 0, "Maximum copybook nesting depth")
	cmd.Flags().StringVar(&f.directives, "directives", "", "Directive rules file replacing the built-in rules")
}

// apply overrides configuration values set on the command line.
func (f *pipelineFlags) apply(c *config.Config) {
	if f.format != "" {
		c.Format = f.format
	}
	if f.tabLength != 0 {
		c.TabLength = f.tabLength
	}
	if len(f.copybookPaths) > 0 {
		c.CopybookPaths = append(append([]string(nil), f.copybookPaths...), c.CopybookPaths...)
	}
	if f.strict {
		c.Strict = true
	}
	if f.maxDepth != 0 {
		c.MaxDepth = f.maxDepth
	}
}

// pipelineConfig loads the configuration, applies the flags and returns
// the pipeline settings together with the effective configuration.
func (f *pipelineFlags) pipelineConfig(logger diag.Logger) (pipeline.Config, *config.Config, error) {
	c, err := loadConfig()
	if err != nil {
		return pipeline.Config{}, nil, err
	}
	f.apply(c)
	pcfg, err := c.Pipeline(logger)
	if err != nil {
		return pipeline.Config{}, nil, err
	}
	if f.directives != "" {
		rules, err := grammar.NewLoader().LoadRuleFile(f.directives)
		if err != nil {
			return pipeline.Config{}, nil, fmt.Errorf("loading directive rules from %s: %w", f.directives, err)
		}
		m, err := grammar.NewDirectiveMatcher(rules)
		if err != nil {
			return pipeline.Config{}, nil, fmt.Errorf("compiling directive rules: %w", err)
		}
		pcfg.Matcher = m
	}
	return pcfg, c, nil
}

// colorEnabled decides whether output to w is colored: "always", "never",
// or "auto" for a terminal without NO_COLOR set.
func colorEnabled(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "", "auto":
		f, ok := w.(*os.File)
		if !ok || os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		return term.IsTerminal(int(f.Fd())), nil
	default:
		return false, fmt.Errorf("unknown color mode: %s", mode)
	}
}

// failOn checks the diagnostics collected so far against the --fail-on
// threshold ("never", "warning" or "error").
func failOn(threshold string, collector *diag.Collector) error {
	if threshold == "never" {
		return nil
	}
	sev, err := diag.ParseSeverity(threshold)
	if err != nil {
		return fmt.Errorf("invalid --fail-on value: %w", err)
	}
	if n := collector.Count(sev); n > 0 {
		return fmt.Errorf("%d diagnostic(s) at or above %s", n, sev)
	}
	return nil
}

// styles holds color formatters for human output.
type styles struct {
	heading  *color.Color
	path     *color.Color
	id       *color.Color
	info     *color.Color
	warn     *color.Color
	fail     *color.Color
	metadata *color.Color
}

// newStyles creates color formatters; enabled=false strips all colors.
func newStyles(enabled bool) *styles {
	s := &styles{
		heading:  color.New(color.Bold),
		path:     color.New(color.Bold, color.FgHiWhite),
		id:       color.New(color.FgHiGreen),
		info:     color.New(color.FgHiBlue),
		warn:     color.New(color.FgYellow),
		fail:     color.New(color.Bold, color.FgRed),
		metadata: color.New(color.FgHiBlue),
	}
	for _, c := range []*color.Color{s.heading, s.path, s.id, s.info, s.warn, s.fail, s.metadata} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

func (s *styles) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.Error:
		return s.fail
	case diag.Warning:
		return s.warn
	default:
		return s.info
	}
}
