package enum

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/praetorian-inc/cobprep/pkg/copybook"
	"github.com/praetorian-inc/cobprep/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

type result struct {
	path string
	kind string
}

func enumerate(t *testing.T, cfg Config) []result {
	t.Helper()
	var mu sync.Mutex
	var out []result
	err := NewFilesystemEnumerator(cfg).Enumerate(context.Background(), func(content []byte, id types.SourceID, prov types.Provenance) error {
		assert.Equal(t, types.ComputeSourceID(content), id)
		rel, err := filepath.Rel(cfg.Root, prov.Path())
		require.NoError(t, err)
		mu.Lock()
		out = append(out, result{path: filepath.ToSlash(rel), kind: prov.Kind()})
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out
}

func TestFilesystemEnumerator(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.cbl":       "main",
		"sub/other.COB":  "other",
		"sub/rec.cpy":    "rec",
		"notes.txt":      "notes",
		"sub/deep/x.cbl": "x",
	})

	assert.Equal(t, []result{
		{"main.cbl", "file"},
		{"sub/deep/x.cbl", "file"},
		{"sub/other.COB", "file"},
	}, enumerate(t, Config{Root: root}))
}

func TestFilesystemEnumerator_IncludeCopybooks(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.cbl": "main",
		"rec.cpy":  "rec",
	})

	assert.Equal(t, []result{
		{"main.cbl", "file"},
		{"rec.cpy", "copybook"},
	}, enumerate(t, Config{Root: root, IncludeCopybooks: true}))
}

func TestFilesystemEnumerator_CustomClassifier(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.cbl": "main",
		"prog.pco": "pco",
	})

	got := enumerate(t, Config{Root: root, Classifier: copybook.NewClassifier([]string{"pco"}, nil)})
	assert.Equal(t, []result{{"prog.pco", "file"}}, got)
}

func TestFilesystemEnumerator_HiddenFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"visible.cbl":     "v",
		".hidden.cbl":     "h",
		".git/config.cbl": "g",
	})

	assert.Equal(t, []result{{"visible.cbl", "file"}}, enumerate(t, Config{Root: root}))
	assert.Len(t, enumerate(t, Config{Root: root, IncludeHidden: true}), 3)
}

func TestFilesystemEnumerator_MaxFileSize(t *testing.T) {
	root := writeTree(t, map[string]string{
		"small.cbl": "tiny",
		"large.cbl": "this file is larger than the limit",
	})

	assert.Equal(t, []result{{"small.cbl", "file"}}, enumerate(t, Config{Root: root, MaxFileSize: 10}))
}

func TestFilesystemEnumerator_BinaryFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"text.cbl":   "MOVE A TO B.",
		"binary.cbl": "MOVE\x00A",
	})

	assert.Equal(t, []result{{"text.cbl", "file"}}, enumerate(t, Config{Root: root}))
}

func TestFilesystemEnumerator_Gitignore(t *testing.T) {
	root := writeTree(t, map[string]string{
		".gitignore":       "build/\n*.gen.cbl\n",
		"main.cbl":         "main",
		"main.gen.cbl":     "generated",
		"build/output.cbl": "built",
	})

	assert.Equal(t, []result{{"main.cbl", "file"}}, enumerate(t, Config{Root: root}))
}

func TestFilesystemEnumerator_Files(t *testing.T) {
	root := writeTree(t, map[string]string{
		"b.cbl": "b",
		"a.cbl": "a",
	})

	files, err := NewFilesystemEnumerator(Config{Root: root}).Files(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.cbl"), filepath.Join(root, "b.cbl")}, files)
}

func TestFilesystemEnumerator_Workers(t *testing.T) {
	files := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		files[name+".cbl"] = name
	}
	root := writeTree(t, files)

	assert.Len(t, enumerate(t, Config{Root: root, Workers: 2}), 6)
}

func TestIsHidden(t *testing.T) {
	assert.True(t, isHidden(".git"))
	assert.False(t, isHidden("."))
	assert.False(t, isHidden(".."))
	assert.False(t, isHidden("main.cbl"))
}

func TestFilesystemEnumerator_ContextCancellation(t *testing.T) {
	root := writeTree(t, map[string]string{"a.cbl": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFilesystemEnumerator(Config{Root: root}).Enumerate(ctx, func([]byte, types.SourceID, types.Provenance) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilesystemEnumerator_MissingRoot(t *testing.T) {
	err := NewFilesystemEnumerator(Config{Root: filepath.Join(t.TempDir(), "nope")}).Enumerate(context.Background(), func([]byte, types.SourceID, types.Provenance) error {
		return nil
	})
	assert.Error(t, err)
}
