package copybook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestClassifier_Defaults(t *testing.T) {
	c := DefaultClassifier()

	assert.True(t, c.IsSource("prog.cbl"))
	assert.True(t, c.IsSource("PROG.COB"))
	assert.True(t, c.IsCopybook("rec.cpy"))
	assert.True(t, c.IsCopybook("rec.Copy"))
	assert.False(t, c.IsCOBOL("notes.txt"))
	assert.False(t, c.IsCOBOL("Makefile"))
	assert.Equal(t, []string{"cbl", "cob"}, c.SourceExtensions())
	assert.Equal(t, []string{"copy", "cpy"}, c.CopybookExtensions())
}

func TestClassifier_Custom(t *testing.T) {
	c := NewClassifier([]string{".CBL", "pco"}, []string{"inc"})

	assert.True(t, c.IsSource("a.pco"))
	assert.True(t, c.IsSource("a.cbl"))
	assert.False(t, c.IsSource("a.cob"))
	assert.True(t, c.IsCopybook("a.INC"))
	assert.False(t, c.IsCopybook("a.cpy"))
}

func TestClassifierFromEnv(t *testing.T) {
	t.Setenv(EnvSourceExtensions, "pco, cbl")
	t.Setenv(EnvCopybookExtensions, "")

	c := ClassifierFromEnv()

	assert.True(t, c.IsSource("x.pco"))
	assert.False(t, c.IsSource("x.cob"))
	assert.True(t, c.IsCopybook("x.cpy"), "unset list keeps the defaults")
}

func TestParseExtensions(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ParseExtensions("a, b;c"))
	assert.Nil(t, ParseExtensions("  "))
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "X", Unquote(`"X"`))
	assert.Equal(t, "X", Unquote(`'X'`))
	assert.Equal(t, `"X'`, Unquote(`"X'`))
	assert.Equal(t, "X", Unquote(" X "))
}

func TestLocate_SiblingFirst(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "app", "main.cbl"), "")
	sibling := writeFile(t, filepath.Join(dir, "app", "CUSTREC.cpy"), "")
	writeFile(t, filepath.Join(dir, "lib", "CUSTREC.cpy"), "")

	path, ok := NewLocator(nil).Locate("custrec", "", src, []string{filepath.Join(dir, "lib")})

	require.True(t, ok)
	assert.Equal(t, sibling, path)
}

func TestLocate_SearchPathOrder(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "app", "main.cbl"), "")
	writeFile(t, filepath.Join(dir, "second", "REC.cpy"), "")
	first := writeFile(t, filepath.Join(dir, "first", "rec.copy"), "")

	path, ok := NewLocator(nil).Locate("REC", "", src, []string{
		filepath.Join(dir, "missing"),
		filepath.Join(dir, "first"),
		filepath.Join(dir, "second"),
	})

	require.True(t, ok)
	assert.Equal(t, first, path)
}

func TestLocate_LibrarySubdirectory(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "main.cbl"), "")
	writeFile(t, filepath.Join(dir, "REC.cpy"), "")
	inLib := writeFile(t, filepath.Join(dir, "Payroll", "REC.cpy"), "")

	path, ok := NewLocator(nil).Locate("REC", `"PAYROLL"`, src, nil)
	require.True(t, ok)
	assert.Equal(t, inLib, path)

	path, ok = NewLocator(nil).Locate("REC", "OTHER", src, nil)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "REC.cpy"), path, "falls back to the directory itself")
}

func TestLocate_ExcludesCurrentFile(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "REC.cpy"), "")

	_, ok := NewLocator(nil).Locate("REC", "", src, nil)
	assert.False(t, ok)

	other := writeFile(t, filepath.Join(dir, "lib", "rec.cpy"), "")
	path, ok := NewLocator(nil).Locate("REC", "", src, []string{filepath.Join(dir, "lib")})
	require.True(t, ok)
	assert.Equal(t, other, path)
}

func TestLocate_QuotedNameWithExtension(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "main.cbl"), "")
	rec := writeFile(t, filepath.Join(dir, "rec.cpy"), "")

	path, ok := NewLocator(nil).Locate(`'REC.CPY'`, "", src, nil)
	require.True(t, ok)
	assert.Equal(t, rec, path)
}

func TestLocate_ClassifierFiltersCandidates(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "main.cbl"), "")
	writeFile(t, filepath.Join(dir, "REC.txt"), "")
	plain := writeFile(t, filepath.Join(dir, "lib", "REC"), "")

	l := NewLocator(DefaultClassifier())
	path, ok := l.Locate("REC", "", src, []string{filepath.Join(dir, "lib")})

	require.True(t, ok)
	assert.Equal(t, plain, path)
}

func TestLocate_IgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "main.cbl"), "")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "REC"), 0755))

	_, ok := NewLocator(nil).Locate("REC", "", src, nil)
	assert.False(t, ok)
}

func TestLocate_NotFound(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "main.cbl"), "")

	_, ok := NewLocator(nil).Locate("NOPE", "", src, []string{dir})
	assert.False(t, ok)

	_, ok = NewLocator(nil).Locate(`""`, "", src, nil)
	assert.False(t, ok)
}
