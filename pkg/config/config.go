// Package config loads cobprep settings from YAML or TOML files and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/praetorian-inc/cobprep/pkg/copybook"
	"github.com/praetorian-inc/cobprep/pkg/diag"
	"github.com/praetorian-inc/cobprep/pkg/expand"
	"github.com/praetorian-inc/cobprep/pkg/lexer"
	"github.com/praetorian-inc/cobprep/pkg/lines"
	"github.com/praetorian-inc/cobprep/pkg/pipeline"
	"github.com/praetorian-inc/cobprep/pkg/types"
)

// Environment variables read by ApplyEnv and Discover.
const (
	EnvConfig        = "COBPREP_CONFIG"
	EnvCopybookPaths = "COBPREP_COPYBOOK_PATHS"
	EnvFormat        = "COBPREP_FORMAT"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// DefaultMaxFileSize bounds the sources enumerated by a scan.
const DefaultMaxFileSize = 10 * 1024 * 1024

// Config holds the complete cobprep configuration.
type Config struct {
	Format             string     `yaml:"format" toml:"format"`
	TabLength          int        `yaml:"tab_length" toml:"tab_length"`
	LineEndings        []string   `yaml:"line_endings" toml:"line_endings"`
	StickyEndings      bool       `yaml:"sticky_endings" toml:"sticky_endings"`
	CopybookPaths      []string   `yaml:"copybook_paths" toml:"copybook_paths"`
	SourceExtensions   []string   `yaml:"source_extensions" toml:"source_extensions"`
	CopybookExtensions []string   `yaml:"copybook_extensions" toml:"copybook_extensions"`
	Strict             bool       `yaml:"strict" toml:"strict"`
	MaxDepth           int        `yaml:"max_depth" toml:"max_depth"`
	Scan               ScanConfig `yaml:"scan" toml:"scan"`
}

// ScanConfig holds settings for directory scans.
type ScanConfig struct {
	Datastore        string `yaml:"datastore" toml:"datastore"`
	MaxFileSize      int64  `yaml:"max_file_size" toml:"max_file_size"`
	IncludeCopybooks bool   `yaml:"include_copybooks" toml:"include_copybooks"`
	IncludeHidden    bool   `yaml:"include_hidden" toml:"include_hidden"`
	Workers          int    `yaml:"workers" toml:"workers"`
}

// Default returns the built-in configuration.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads a configuration file. The format follows the extension:
// .toml is TOML, anything else YAML.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	syntax := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		syntax = "toml"
	}
	cfg, err := Parse(data, syntax)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes configuration data in the given syntax, "yaml" or "toml",
// and applies defaults.
func Parse(data []byte, syntax string) (*Config, error) {
	var cfg Config
	switch syntax {
	case "toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config syntax %q", syntax)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Discover loads the file named by COBPREP_CONFIG, or the first of
// cobprep.yaml, cobprep.yml and cobprep.toml in dir. It returns the
// defaults and an empty path when there is none.
func Discover(dir string) (*Config, string, error) {
	if path := os.Getenv(EnvConfig); path != "" {
		cfg, err := Load(path)
		return cfg, path, err
	}
	for _, name := range []string{"cobprep.yaml", "cobprep.yml", "cobprep.toml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			cfg, err := Load(path)
			return cfg, path, err
		}
	}
	return Default(), "", nil
}

func (c *Config) applyDefaults() {
	if c.Format == "" {
		c.Format = types.FormatFixed.String()
	}
	if c.TabLength == 0 {
		c.TabLength = lexer.DefaultTabLength
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = expand.DefaultMaxDepth
	}
	if c.Scan.MaxFileSize == 0 {
		c.Scan.MaxFileSize = DefaultMaxFileSize
	}
	if c.Scan.Datastore == "" {
		c.Scan.Datastore = "cobprep.ds"
	}
}

// ApplyEnv overrides settings from the environment. COBPREP_COPYBOOK_PATHS
// is a list separated like PATH and is searched before the configured paths.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvFormat); ok && v != "" {
		c.Format = v
	}
	if v, ok := os.LookupEnv(EnvCopybookPaths); ok && v != "" {
		c.CopybookPaths = append(filepath.SplitList(v), c.CopybookPaths...)
	}
	if exts := copybook.ParseExtensions(os.Getenv(copybook.EnvSourceExtensions)); exts != nil {
		c.SourceExtensions = exts
	}
	if exts := copybook.ParseExtensions(os.Getenv(copybook.EnvCopybookExtensions)); exts != nil {
		c.CopybookExtensions = exts
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, err := types.ParseSourceFormat(c.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.TabLength < 1 {
		return fmt.Errorf("%w: tab_length must be at least 1, got %d", ErrInvalid, c.TabLength)
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("%w: max_depth must be at least 1, got %d", ErrInvalid, c.MaxDepth)
	}
	for _, e := range c.LineEndings {
		if ParseLineEnding(e) == "" {
			return fmt.Errorf("%w: empty line ending", ErrInvalid)
		}
	}
	for _, p := range c.CopybookPaths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: empty copybook path", ErrInvalid)
		}
	}
	if c.Scan.MaxFileSize < 0 {
		return fmt.Errorf("%w: max_file_size must not be negative", ErrInvalid)
	}
	if c.Scan.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalid)
	}
	return nil
}

// ParseLineEnding maps the names crlf, lf and cr to their characters and
// returns anything else unchanged.
func ParseLineEnding(s string) string {
	switch strings.ToLower(s) {
	case "crlf":
		return "\r\n"
	case "lf":
		return "\n"
	case "cr":
		return "\r"
	default:
		return s
	}
}

// Classifier returns the file classifier for the configured extensions.
func (c *Config) Classifier() *copybook.Classifier {
	return copybook.NewClassifier(c.SourceExtensions, c.CopybookExtensions)
}

// Pipeline converts the configuration into pipeline settings. The copybook
// locator only accepts files the classifier recognizes.
func (c *Config) Pipeline(logger diag.Logger) (pipeline.Config, error) {
	if err := c.Validate(); err != nil {
		return pipeline.Config{}, err
	}
	format, _ := types.ParseSourceFormat(c.Format)
	var endings []string
	for _, e := range c.LineEndings {
		endings = append(endings, ParseLineEnding(e))
	}
	return pipeline.Config{
		Format:      format,
		TabLength:   c.TabLength,
		Lines:       lines.Config{Endings: endings, Sticky: c.StickyEndings},
		SearchPaths: c.CopybookPaths,
		Strict:      c.Strict,
		MaxDepth:    c.MaxDepth,
		Logger:      logger,
		Locator:     copybook.NewLocator(c.Classifier()),
	}, nil
}
