package copybook

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Locator resolves the file a COPY statement includes.
type Locator interface {
	// Locate returns the path of the copybook textName (optionally within
	// libraryName) included from sourceFile.
	Locate(textName, libraryName, sourceFile string, searchPaths []string) (string, bool)
}

// DefaultLocator searches the including file's directory and then every
// search path in order. In each directory a subdirectory named like the
// library is searched before the directory itself. A file matches when its
// name, with or without extension, equals the text-name ignoring case. The
// including file never matches; the first match wins.
type DefaultLocator struct {
	// Classifier, when set, restricts candidates to COBOL files and files
	// without an extension.
	Classifier *Classifier
}

// NewLocator creates a locator restricted by classifier (which may be nil).
func NewLocator(classifier *Classifier) *DefaultLocator {
	return &DefaultLocator{Classifier: classifier}
}

// Locate implements Locator.
func (l *DefaultLocator) Locate(textName, libraryName, sourceFile string, searchPaths []string) (string, bool) {
	name := Unquote(textName)
	if name == "" {
		return "", false
	}
	library := Unquote(libraryName)
	self := absPath(sourceFile)

	var roots []string
	if sourceFile != "" {
		roots = append(roots, filepath.Dir(sourceFile))
	}
	roots = append(roots, searchPaths...)

	for _, root := range roots {
		for _, dir := range l.candidateDirs(root, library) {
			if path, ok := l.findIn(dir, name, self); ok {
				return path, true
			}
		}
	}
	return "", false
}

func (l *DefaultLocator) candidateDirs(root, library string) []string {
	if library == "" {
		return []string{root}
	}
	dirs := []string{}
	entries, err := os.ReadDir(root)
	if err == nil {
		for _, e := range entries {
			if isDir(root, e) && strings.EqualFold(e.Name(), library) {
				dirs = append(dirs, filepath.Join(root, e.Name()))
				break
			}
		}
	}
	return append(dirs, root)
}

func (l *DefaultLocator) findIn(dir, name, self string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		fname := e.Name()
		stem := strings.TrimSuffix(fname, filepath.Ext(fname))
		if !strings.EqualFold(stem, name) && !strings.EqualFold(fname, name) {
			continue
		}
		path := filepath.Join(dir, fname)
		if !isRegular(path, e) || absPath(path) == self {
			continue
		}
		if l.Classifier != nil && !l.Classifier.acceptsCandidate(fname) {
			continue
		}
		return path, true
	}
	return "", false
}

func isDir(root string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(root, e.Name()))
	return err == nil && info.IsDir()
}

func isRegular(path string, e os.DirEntry) bool {
	if e.Type().IsRegular() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func absPath(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// Unquote strips one pair of matching quotes from a literal name.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
