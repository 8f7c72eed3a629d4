// Package copybook classifies COBOL files and locates the copybooks named by
// COPY statements.
package copybook

import (
	"os"
	"path/filepath"
	"strings"
)

// Environment variables overriding the extension sets, as comma separated lists.
const (
	EnvSourceExtensions   = "COBPREP_SOURCE_EXTENSIONS"
	EnvCopybookExtensions = "COBPREP_COPYBOOK_EXTENSIONS"
)

var (
	// DefaultSourceExtensions are the extensions of COBOL programs.
	DefaultSourceExtensions = []string{"cbl", "cob"}
	// DefaultCopybookExtensions are the extensions of copybooks.
	DefaultCopybookExtensions = []string{"cpy", "copy"}
)

// Classifier decides from its extension whether a file is a COBOL source or
// a copybook. Extensions compare case-insensitively.
type Classifier struct {
	source   map[string]bool
	copybook map[string]bool
}

// NewClassifier creates a classifier. Nil extension lists select the defaults.
func NewClassifier(sourceExts, copybookExts []string) *Classifier {
	if sourceExts == nil {
		sourceExts = DefaultSourceExtensions
	}
	if copybookExts == nil {
		copybookExts = DefaultCopybookExtensions
	}
	return &Classifier{source: extSet(sourceExts), copybook: extSet(copybookExts)}
}

// DefaultClassifier creates a classifier with the default extensions.
func DefaultClassifier() *Classifier {
	return NewClassifier(nil, nil)
}

// ClassifierFromEnv creates a classifier whose extension sets may be
// overridden by EnvSourceExtensions and EnvCopybookExtensions.
func ClassifierFromEnv() *Classifier {
	return NewClassifier(ParseExtensions(os.Getenv(EnvSourceExtensions)), ParseExtensions(os.Getenv(EnvCopybookExtensions)))
}

// ParseExtensions splits a comma or whitespace separated extension list.
// An empty list yields nil.
func ParseExtensions(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == ';'
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func extSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			set[e] = true
		}
	}
	return set
}

func extOf(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// IsSource reports whether path names a COBOL program.
func (c *Classifier) IsSource(path string) bool {
	return c.source[extOf(path)]
}

// IsCopybook reports whether path names a copybook.
func (c *Classifier) IsCopybook(path string) bool {
	return c.copybook[extOf(path)]
}

// IsCOBOL reports whether path is either a program or a copybook.
func (c *Classifier) IsCOBOL(path string) bool {
	return c.IsSource(path) || c.IsCopybook(path)
}

// acceptsCandidate reports whether path may be included by COPY: a COBOL
// file or one without an extension.
func (c *Classifier) acceptsCandidate(path string) bool {
	return extOf(path) == "" || c.IsCOBOL(path)
}

// SourceExtensions returns the program extensions.
func (c *Classifier) SourceExtensions() []string {
	return sortedKeys(c.source)
}

// CopybookExtensions returns the copybook extensions.
func (c *Classifier) CopybookExtensions() []string {
	return sortedKeys(c.copybook)
}
